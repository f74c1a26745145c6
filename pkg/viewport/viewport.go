// Package viewport owns the pan/zoom transform of an attached scene.
//
// An [Engine] is either detached (every operation is a safe no-op) or
// attached to exactly one [Surface]. Each mutation, whether it comes from
// a gesture or a command, clamps the scale, writes the visual transform
// onto the surface and reports the new [Transform] to the [Sink] once, so
// the host state and the picture never disagree.
//
// Coordinates: container (screen) points map to scene user units through
//
//	screen = scene·Scale + (X, Y)
package viewport

import (
	"math"

	"github.com/matzehuels/mdview/pkg/observability"
	"github.com/matzehuels/mdview/pkg/scene"
)

// Transform is the viewport state: uniform scale followed by translation.
type Transform struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// IdentityTransform is the reset state.
var IdentityTransform = Transform{Scale: 1}

// Surface is what the engine attaches to. [*scene.Scene] implements it.
type Surface interface {
	ContentBBox() (scene.Rect, bool)
	SetViewTransform(scale, x, y float64)
	Contains(*scene.Element) bool
}

// Sink receives every propagated transform.
type Sink interface {
	SetTransform(Transform)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(Transform)

// SetTransform calls f(t).
func (f SinkFunc) SetTransform(t Transform) { f(t) }

// Options bound and tune the engine. Zero fields take defaults.
type Options struct {
	MinScale         float64 // default 0.5
	MaxScale         float64 // default 5
	SnapTolerance    float64 // distance from 1.0 that snaps, default 0.08
	FitMargin        float64 // per side, default 15
	WheelSensitivity float64 // wheel delta for a 100% change, default 500
	DragThreshold    float64 // pixels before a press becomes a drag, default 3
}

func (o Options) withDefaults() Options {
	if o.MinScale <= 0 {
		o.MinScale = 0.5
	}
	if o.MaxScale <= 0 {
		o.MaxScale = 5
	}
	if o.MaxScale < o.MinScale {
		o.MaxScale = o.MinScale
	}
	if o.SnapTolerance <= 0 {
		o.SnapTolerance = 0.08
	}
	if o.FitMargin < 0 {
		o.FitMargin = 0
	} else if o.FitMargin == 0 {
		o.FitMargin = 15
	}
	if o.WheelSensitivity <= 0 {
		o.WheelSensitivity = 500
	}
	if o.DragThreshold <= 0 {
		o.DragThreshold = 3
	}
	return o
}

// Engine is not safe for concurrent use; it belongs to one event loop.
type Engine struct {
	opts    Options
	sink    Sink
	surface Surface
	t       Transform
	cw, ch  float64
	drag    dragState
}

type dragState struct {
	active       bool
	moved        bool
	startX, lastX float64
	startY, lastY float64
}

// New creates a detached engine. A nil sink discards propagations.
func New(opts Options, sink Sink) *Engine {
	if sink == nil {
		sink = SinkFunc(func(Transform) {})
	}
	return &Engine{opts: opts.withDefaults(), sink: sink, t: IdentityTransform}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Attached reports whether a surface is bound.
func (e *Engine) Attached() bool { return e.surface != nil }

// Transform returns the current transform.
func (e *Engine) Transform() Transform { return e.t }

// Attach binds s, tearing down any other binding first. Attaching the
// surface that is already bound does nothing. The new binding starts at
// the identity transform.
func (e *Engine) Attach(s Surface) {
	if s == nil || e.surface == s {
		return
	}
	e.Detach()
	e.surface = s
	e.apply(IdentityTransform, "attach")
}

// Detach releases the binding and abandons any gesture in progress.
func (e *Engine) Detach() {
	e.surface = nil
	e.drag = dragState{}
}

// SetContainer records the container's pixel size without re-fitting.
func (e *Engine) SetContainer(w, h float64) {
	e.cw, e.ch = math.Max(w, 0), math.Max(h, 0)
}

// Container returns the container's pixel size.
func (e *Engine) Container() (w, h float64) { return e.cw, e.ch }

// Resize records a new container size and re-fits the attached scene.
func (e *Engine) Resize(w, h float64) {
	e.SetContainer(w, h)
	e.AutoFit()
}

// Reset returns to scale 1 at the origin.
func (e *Engine) Reset() {
	if !e.Attached() {
		return
	}
	e.apply(IdentityTransform, "reset")
}

// ZoomBy adds delta to the scale, clamps, snaps to exactly 1 when the
// result lands within the snap tolerance, and zooms about the container
// centre.
func (e *Engine) ZoomBy(delta float64) {
	if !e.Attached() {
		return
	}
	s := e.clamp(e.t.Scale + delta)
	if math.Abs(s-1) <= e.opts.SnapTolerance && e.opts.MinScale <= 1 && 1 <= e.opts.MaxScale {
		s = 1
	}
	e.zoomAround(e.cw/2, e.ch/2, s, "zoom")
}

// ZoomTo sets an absolute scale, clamped, about the container centre.
func (e *Engine) ZoomTo(level float64) {
	if !e.Attached() {
		return
	}
	e.zoomAround(e.cw/2, e.ch/2, e.clamp(level), "zoom")
}

// PanBy translates by a screen-space delta.
func (e *Engine) PanBy(dx, dy float64) {
	if !e.Attached() {
		return
	}
	e.apply(Transform{Scale: e.t.Scale, X: e.t.X + dx, Y: e.t.Y + dy}, "pan")
}

// AutoFit scales the content box into the container minus the margin on
// every side, never above 1, and centres it. Nothing happens without a
// measurable container and content box.
func (e *Engine) AutoFit() {
	if !e.Attached() {
		return
	}
	t, ok := Fit(e.surface, e.cw, e.ch, e.opts)
	if !ok {
		return
	}
	e.apply(t, "fit")
}

// Fit computes the auto-fit transform for s inside a cw×ch container.
func Fit(s Surface, cw, ch float64, opts Options) (Transform, bool) {
	opts = opts.withDefaults()
	b, ok := s.ContentBBox()
	if !ok || cw <= 0 || ch <= 0 || b.W <= 0 && b.H <= 0 {
		return Transform{}, false
	}
	m := opts.FitMargin
	scale := 1.0
	if b.W > 0 {
		scale = math.Min(scale, (cw-2*m)/b.W)
	}
	if b.H > 0 {
		scale = math.Min(scale, (ch-2*m)/b.H)
	}
	scale = math.Min(math.Max(scale, opts.MinScale), opts.MaxScale)
	return Transform{
		Scale: scale,
		X:     (cw-b.W*scale)/2 - b.X*scale,
		Y:     (ch-b.H*scale)/2 - b.Y*scale,
	}, true
}

// PointerDown starts a potential drag at container point (x, y).
func (e *Engine) PointerDown(x, y float64) {
	if !e.Attached() {
		return
	}
	e.drag = dragState{active: true, startX: x, startY: y, lastX: x, lastY: y}
}

// PointerMove pans by the pointer delta once the press has travelled past
// the drag threshold.
func (e *Engine) PointerMove(x, y float64) {
	if !e.Attached() || !e.drag.active {
		return
	}
	d := &e.drag
	if !d.moved {
		if math.Hypot(x-d.startX, y-d.startY) < e.opts.DragThreshold {
			return
		}
		d.moved = true
	}
	dx, dy := x-d.lastX, y-d.lastY
	d.lastX, d.lastY = x, y
	e.apply(Transform{Scale: e.t.Scale, X: e.t.X + dx, Y: e.t.Y + dy}, "drag")
}

// PointerUp ends the gesture and reports whether it was a drag rather than
// a click.
func (e *Engine) PointerUp(x, y float64) bool {
	if !e.drag.active {
		return false
	}
	if x != e.drag.lastX || y != e.drag.lastY {
		e.PointerMove(x, y)
	}
	moved := e.drag.moved
	e.drag = dragState{}
	return moved
}

// Wheel zooms about the pointer at (x, y). A positive deltaY zooms out.
// Events whose target is not part of the attached scene are ignored; the
// return value reports whether the event was consumed.
func (e *Engine) Wheel(target *scene.Element, x, y, deltaY float64) bool {
	if !e.Attached() || target == nil || !e.surface.Contains(target) {
		return false
	}
	f := deltaY / e.opts.WheelSensitivity
	f = math.Max(-0.5, math.Min(0.5, f))
	e.zoomAround(x, y, e.clamp(e.t.Scale*(1-f)), "wheel")
	return true
}

// ScreenToScene maps a container point into scene user units.
func (e *Engine) ScreenToScene(x, y float64) scene.Point {
	return scene.Point{X: (x - e.t.X) / e.t.Scale, Y: (y - e.t.Y) / e.t.Scale}
}

// SceneToScreen maps a scene point into container coordinates.
func (e *Engine) SceneToScreen(p scene.Point) (x, y float64) {
	return p.X*e.t.Scale + e.t.X, p.Y*e.t.Scale + e.t.Y
}

// zoomAround keeps the scene point under container point (cx, cy) fixed.
func (e *Engine) zoomAround(cx, cy, s float64, cause string) {
	k := s / e.t.Scale
	e.apply(Transform{
		Scale: s,
		X:     cx - (cx-e.t.X)*k,
		Y:     cy - (cy-e.t.Y)*k,
	}, cause)
}

func (e *Engine) clamp(s float64) float64 {
	if math.IsNaN(s) {
		return e.t.Scale
	}
	return math.Min(math.Max(s, e.opts.MinScale), e.opts.MaxScale)
}

func (e *Engine) apply(t Transform, cause string) {
	t.Scale = e.clamp(t.Scale)
	e.t = t
	e.surface.SetViewTransform(t.Scale, t.X, t.Y)
	e.sink.SetTransform(t)
	observability.Interaction().OnTransform(cause, t.Scale)
}
