package viewport

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/mdview/pkg/scene"
)

type recorder struct{ got []Transform }

func (r *recorder) SetTransform(t Transform) { r.got = append(r.got, t) }

func (r *recorder) last() Transform { return r.got[len(r.got)-1] }

// box returns a scene whose content is one rect at (x, y) of size w×h.
func box(x, y, w, h float64) *scene.Scene {
	f := scene.FormatNumber
	return scene.New(scene.El("svg").Append(
		scene.El("rect", "x", f(x), "y", f(y), "width", f(w), "height", f(h)),
	))
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func attached(cw, ch float64) (*Engine, *recorder, *scene.Scene) {
	rec := &recorder{}
	e := New(Options{}, rec)
	e.SetContainer(cw, ch)
	s := box(0, 0, 100, 50)
	e.Attach(s)
	return e, rec, s
}

func TestDetachedIsNoop(t *testing.T) {
	rec := &recorder{}
	e := New(Options{}, rec)
	e.SetContainer(100, 100)

	e.Reset()
	e.ZoomBy(0.2)
	e.ZoomTo(2)
	e.PanBy(5, 5)
	e.AutoFit()
	e.PointerDown(0, 0)
	e.PointerMove(50, 50)
	if e.PointerUp(50, 50) {
		t.Error("PointerUp should report no drag while detached")
	}
	if e.Wheel(scene.El("g"), 0, 0, 100) {
		t.Error("Wheel should not be consumed while detached")
	}
	e.Detach()

	if len(rec.got) != 0 {
		t.Errorf("detached engine propagated %d transforms", len(rec.got))
	}
}

func TestAttachLifecycle(t *testing.T) {
	e, rec, s := attached(200, 100)
	if !e.Attached() {
		t.Fatal("engine should be attached")
	}
	if len(rec.got) != 1 || rec.last() != IdentityTransform {
		t.Fatalf("attach propagations = %v, want one identity", rec.got)
	}

	e.Attach(s)
	if len(rec.got) != 1 {
		t.Error("re-attaching the same surface should be a no-op")
	}

	e.ZoomTo(2)
	other := box(0, 0, 10, 10)
	e.Attach(other)
	if e.Transform() != IdentityTransform {
		t.Errorf("new binding should start fresh, got %+v", e.Transform())
	}
	e.ZoomTo(3)
	if got := s.Root().Style("transform"); got != "matrix(2, 0, 0, 2, -100, -50)" {
		t.Errorf("old surface was touched after re-attach: %q", got)
	}

	e.Detach()
	e.Detach()
	if e.Attached() {
		t.Error("engine should be detached")
	}
}

func TestOnePropagationPerMutation(t *testing.T) {
	e, rec, s := attached(200, 100)
	ops := []func(){
		func() { e.ZoomBy(0.2) },
		func() { e.ZoomTo(3) },
		func() { e.PanBy(4, -2) },
		func() { e.AutoFit() },
		func() { e.Reset() },
	}
	for i, op := range ops {
		before := len(rec.got)
		op()
		if len(rec.got) != before+1 {
			t.Fatalf("op %d propagated %d times", i, len(rec.got)-before)
		}
		tr := rec.last()
		if tr != e.Transform() {
			t.Errorf("op %d: sink %+v != engine %+v", i, tr, e.Transform())
		}
		want := "matrix(" + scene.FormatNumber(tr.Scale) + ", 0, 0, " + scene.FormatNumber(tr.Scale) + ", " +
			scene.FormatNumber(tr.X) + ", " + scene.FormatNumber(tr.Y) + ")"
		if got := s.Root().Style("transform"); got != want {
			t.Errorf("op %d: visual %q != state %q", i, got, want)
		}
	}
}

func TestZoomBySnap(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		delta float64
		want  float64
	}{
		{"lands near one from below", 0.85, 0.2, 1.0},
		{"lands near one from above", 1.15, -0.2, 1.0},
		{"outside tolerance", 0.7, 0.2, 0.9},
		{"clamped at max", 4.9, 0.2, 5.0},
		{"clamped at min", 0.6, -0.2, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := attached(200, 100)
			e.ZoomTo(tt.start)
			e.ZoomBy(tt.delta)
			if got := e.Transform().Scale; !approx(got, tt.want) {
				t.Errorf("scale = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZoomIsCentred(t *testing.T) {
	e, _, _ := attached(200, 100)
	before := e.ScreenToScene(100, 50)
	e.ZoomTo(2)
	after := e.ScreenToScene(100, 50)
	if !approx(before.X, after.X) || !approx(before.Y, after.Y) {
		t.Errorf("centre moved from %v to %v", before, after)
	}
	if tr := e.Transform(); !approx(tr.X, -100) || !approx(tr.Y, -50) {
		t.Errorf("transform = %+v, want X=-100 Y=-50", tr)
	}
}

func TestZoomByBounded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repeated zoom stays within [0.5, 5]", prop.ForAll(
		func(start float64, steps int, in bool) bool {
			e, _, _ := attached(300, 200)
			e.ZoomTo(start)
			delta := -0.2
			if in {
				delta = 0.2
			}
			for i := 0; i < steps; i++ {
				e.ZoomBy(delta)
				s := e.Transform().Scale
				if s < 0.5 || s > 5 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0.5, 5),
		gen.IntRange(1, 40),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestAutoFit(t *testing.T) {
	tests := []struct {
		name   string
		scene  *scene.Scene
		cw, ch float64
		want   Transform
	}{
		{"small content is not upscaled", box(0, 0, 100, 50), 400, 300, Transform{1, 150, 125}},
		{"origin offset is compensated", box(10, 20, 100, 50), 400, 300, Transform{1, 140, 105}},
		{"large content shrinks", box(0, 0, 740, 270), 400, 300, Transform{0.5, 15, 82.5}},
		{"fit below min clamps to min", box(0, 0, 1000, 500), 400, 300, Transform{0.5, -50, 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			e := New(Options{}, rec)
			e.SetContainer(tt.cw, tt.ch)
			e.Attach(tt.scene)
			e.AutoFit()
			got := e.Transform()
			if !approx(got.Scale, tt.want.Scale) || !approx(got.X, tt.want.X) || !approx(got.Y, tt.want.Y) {
				t.Errorf("AutoFit() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAutoFitNeedsGeometry(t *testing.T) {
	rec := &recorder{}
	e := New(Options{}, rec)
	e.Attach(scene.New(scene.El("svg")))
	e.SetContainer(100, 100)
	e.AutoFit()
	e.Attach(box(0, 0, 10, 10))
	e.SetContainer(0, 0)
	e.AutoFit()
	if len(rec.got) != 2 {
		t.Errorf("AutoFit without geometry propagated: %v", rec.got)
	}
}

func TestAutoFitNeverUpscales(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("fit scale <= 1", prop.ForAll(
		func(w, h, cw, ch float64) bool {
			tr, ok := Fit(box(0, 0, w, h), cw, ch, Options{})
			return ok && tr.Scale <= 1 && tr.Scale >= 0.5
		},
		gen.Float64Range(0.01, 5000),
		gen.Float64Range(0.01, 5000),
		gen.Float64Range(1, 4000),
		gen.Float64Range(1, 4000),
	))

	properties.TestingRun(t)
}

func TestDragPans(t *testing.T) {
	e, rec, _ := attached(200, 100)
	n := len(rec.got)

	e.PointerDown(10, 10)
	e.PointerMove(11, 11)
	if len(rec.got) != n {
		t.Fatal("movement under the threshold should not pan")
	}
	e.PointerMove(20, 10)
	e.PointerMove(25, 15)
	if !e.PointerUp(25, 15) {
		t.Error("PointerUp should report a drag")
	}
	if tr := e.Transform(); tr.X != 15 || tr.Y != 5 {
		t.Errorf("transform = %+v, want X=15 Y=5", tr)
	}
	if len(rec.got) != n+2 {
		t.Errorf("drag propagated %d times, want 2", len(rec.got)-n)
	}
}

func TestClickIsNotDrag(t *testing.T) {
	e, rec, _ := attached(200, 100)
	n := len(rec.got)
	e.PointerDown(5, 5)
	if e.PointerUp(6, 6) {
		t.Error("short press should be a click")
	}
	if len(rec.got) != n {
		t.Error("click should not pan")
	}
}

func TestWheel(t *testing.T) {
	e, _, s := attached(200, 100)
	rect := s.Root().Children[0]

	if e.Wheel(scene.El("rect"), 50, 50, -100) {
		t.Error("wheel outside the scene should be ignored")
	}
	if e.Wheel(nil, 50, 50, -100) {
		t.Error("wheel without target should be ignored")
	}

	anchor := e.ScreenToScene(40, 30)
	if !e.Wheel(rect, 40, 30, -100) {
		t.Fatal("wheel over the scene should be consumed")
	}
	if got := e.Transform().Scale; !approx(got, 1.2) {
		t.Errorf("scale = %v, want 1.2", got)
	}
	if p := e.ScreenToScene(40, 30); !approx(p.X, anchor.X) || !approx(p.Y, anchor.Y) {
		t.Errorf("anchor moved from %v to %v", anchor, p)
	}

	e.Wheel(rect, 0, 0, 10000)
	if got := e.Transform().Scale; !approx(got, 0.6) {
		t.Errorf("scale after large delta = %v, want 0.6 (factor capped at 0.5)", got)
	}
}

func TestResizeRefits(t *testing.T) {
	e, _, _ := attached(0, 0)
	e.Resize(400, 300)
	if tr := e.Transform(); tr != (Transform{1, 150, 125}) {
		t.Errorf("Resize() transform = %+v", tr)
	}
	w, h := e.Container()
	if w != 400 || h != 300 {
		t.Errorf("Container() = %v, %v", w, h)
	}
}

func TestScreenSceneRoundTrip(t *testing.T) {
	e, _, _ := attached(200, 100)
	e.ZoomTo(2.5)
	e.PanBy(7, -3)
	x, y := e.SceneToScreen(scene.Point{X: 12, Y: 34})
	p := e.ScreenToScene(x, y)
	if !approx(p.X, 12) || !approx(p.Y, 34) {
		t.Errorf("round trip = %v", p)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.MinScale != 0.5 || o.MaxScale != 5 || o.SnapTolerance != 0.08 || o.FitMargin != 15 {
		t.Errorf("defaults = %+v", o)
	}
	if got := (Options{MinScale: 2, MaxScale: 1}).withDefaults(); got.MaxScale != 2 {
		t.Errorf("inverted bounds = %+v", got)
	}
}
