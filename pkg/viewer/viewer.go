package viewer

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/graphmodel"
	"github.com/matzehuels/mdview/pkg/observability"
	"github.com/matzehuels/mdview/pkg/render"
	"github.com/matzehuels/mdview/pkg/scene"
	"github.com/matzehuels/mdview/pkg/selection"
	"github.com/matzehuels/mdview/pkg/source"
	"github.com/matzehuels/mdview/pkg/viewport"
)

// ErrStale is returned by [Viewer.Complete] for a result that a newer
// load has superseded.
var ErrStale = stderrors.New("render superseded by a newer load")

// Options configure a viewer. Zero fields take defaults.
type Options struct {
	Viewport viewport.Options
	ZoomStep float64 // keyboard zoom increment, default 0.2

	// Grammar decodes renderer output, default [graphmodel.DefaultGrammar].
	Grammar graphmodel.Grammar

	Language     string  // fence language, default "mermaid"
	Theme        string  // ThemeDark or ThemeLight, default dark
	HitTolerance float64 // pointer slop in screen pixels, default 2

	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ZoomStep <= 0 {
		o.ZoomStep = 0.2
	}
	if o.Grammar.NodeClass == "" && o.Grammar.NodePrefix == "" {
		o.Grammar = graphmodel.DefaultGrammar
	}
	if o.Theme != ThemeLight {
		o.Theme = ThemeDark
	}
	if o.HitTolerance <= 0 {
		o.HitTolerance = 2
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Job is one pending render, tagged with the load generation that started
// it.
type Job struct {
	Gen      uint64
	FileName string
	Source   string
}

// Result is the outcome of rendering a [Job].
type Result struct {
	Job
	SVG      []byte
	Err      error
	Duration time.Duration
}

// Viewer is the host application: it owns the scene, the viewport engine,
// the selection controller and the [State] they keep in sync.
//
// A Viewer belongs to one event loop and is not safe for concurrent use,
// with one exception: [Viewer.Render] only touches the renderer and may run
// on any goroutine. Loads are split so the slow step can leave the loop:
//
//	job, err := v.Open(ctx, name, doc) // on the loop
//	res := v.Render(ctx, job)          // anywhere
//	v.Complete(ctx, res)               // back on the loop
//	v.Flush()                          // next turn: auto-fit
type Viewer struct {
	opts      Options
	renderer  render.Renderer
	extractor *source.Extractor
	logger    *log.Logger

	engine *viewport.Engine
	sel    *selection.Controller
	scene  *scene.Scene
	graph  *graphmodel.Graph

	state      State
	gen        uint64
	pendingFit bool
}

// New creates a viewer with no document loaded.
func New(r render.Renderer, logger *log.Logger, opts Options) *Viewer {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.Default()
	}
	v := &Viewer{
		opts:      opts,
		renderer:  r,
		extractor: source.New(opts.Language),
		logger:    logger,
		sel:       selection.New(opts.Grammar),
		state:     State{Zoom: 1, Theme: opts.Theme},
	}
	v.engine = viewport.New(opts.Viewport, v)
	return v
}

// SetTransform mirrors the viewport transform into the state. It is the
// engine's sink and is called once per transform mutation.
func (v *Viewer) SetTransform(t viewport.Transform) {
	v.state.Zoom, v.state.PanX, v.state.PanY = t.Scale, t.X, t.Y
}

// State returns a snapshot of the host state.
func (v *Viewer) State() State {
	s := v.state
	s.Tooltip = v.sel.Tooltip()
	if s.Status != nil {
		st := *s.Status
		s.Status = &st
	}
	return s
}

// Scene returns the installed scene, or nil.
func (v *Viewer) Scene() *scene.Scene { return v.scene }

// Graph returns the logical graph of the installed scene, or nil.
func (v *Viewer) Graph() *graphmodel.Graph { return v.graph }

// Transform returns the current viewport transform.
func (v *Viewer) Transform() viewport.Transform { return v.engine.Transform() }

// Options returns the effective options.
func (v *Viewer) Options() Options { return v.opts }

// Markup serializes the installed scene with its highlight classes and
// view transform, or returns nil.
func (v *Viewer) Markup() []byte {
	if v.scene == nil {
		return nil
	}
	return v.scene.Markup()
}

// Open validates a document, extracts its diagram and starts a new load
// generation. Input and extraction failures set a status banner, leave the
// current diagram alone and are returned.
func (v *Viewer) Open(ctx context.Context, name string, doc []byte) (Job, error) {
	base := filepath.Base(name)
	src, err := v.extract(name, doc)
	observability.Load().OnExtract(ctx, err)
	if err != nil {
		v.logger.Warn("cannot open document", "file", base, "err", err)
		if errors.Is(err, errors.ErrCodeDiagramNotFound) {
			v.setStatus(Status{
				Kind:    StatusWarning,
				Message: fmt.Sprintf("No %s diagram found in %s", v.language(), base),
				Action:  ActionOpen,
			})
		} else {
			v.setStatus(Status{Kind: StatusError, Message: errors.UserMessage(err)})
		}
		return Job{}, err
	}

	v.gen++
	v.state.Generation = v.gen
	v.state.FileName = base
	v.state.Source = src
	v.state.Loading = true
	v.logger.Debug("extracted diagram", "file", base, "bytes", len(src), "generation", v.gen)
	return Job{Gen: v.gen, FileName: base, Source: src}, nil
}

func (v *Viewer) extract(name string, doc []byte) (string, error) {
	if err := errors.ValidateDocumentName(name); err != nil {
		return "", err
	}
	if err := errors.ValidateDocument(doc); err != nil {
		return "", err
	}
	return v.extractor.Extract(doc)
}

func (v *Viewer) language() string {
	if v.opts.Language == "" {
		return source.DefaultLanguage
	}
	return v.opts.Language
}

// Render runs the renderer for job. It reads no viewer state and may be
// called from any goroutine.
func (v *Viewer) Render(ctx context.Context, job Job) Result {
	observability.Load().OnRenderStart(ctx, v.renderer.Name())
	start := time.Now()
	svg, err := v.renderer.Render(ctx, job.Source)
	return Result{Job: job, SVG: svg, Err: err, Duration: time.Since(start)}
}

// Complete installs a render result. Results from superseded generations
// are discarded with [ErrStale]. A failed render clears the scene, the
// selection and the metadata and returns the failure. On success the old
// viewport binding is torn down before the new scene goes in, the engine
// attaches to it, and auto-fit is deferred to [Viewer.Flush].
func (v *Viewer) Complete(ctx context.Context, res Result) error {
	if res.Gen != v.gen {
		observability.Load().OnStale(ctx, res.Gen)
		v.logger.Debug("discarding superseded render", "generation", res.Gen, "current", v.gen)
		return ErrStale
	}
	v.state.Loading = false

	err := res.Err
	var s *scene.Scene
	if err == nil {
		if s, err = scene.Parse(res.SVG); err != nil {
			err = errors.Wrap(errors.ErrCodeRenderFailed, err, "read rendered scene")
		}
	}
	if err != nil {
		v.unload()
		observability.Load().OnRenderComplete(ctx, v.renderer.Name(), 0, res.Duration, err)
		v.logger.Error("render failed", "file", res.FileName, "err", err)
		v.setStatus(Status{Kind: StatusError, Message: "Rendering error: " + errors.UserMessage(err)})
		return err
	}

	v.install(s)
	nodes := len(v.graph.Nodes())
	observability.Load().OnRenderComplete(ctx, v.renderer.Name(), nodes, res.Duration, nil)
	v.logger.Info("rendered diagram",
		"file", res.FileName,
		"nodes", nodes,
		"edges", len(v.graph.Edges()),
		"duration", res.Duration)
	v.setStatus(Status{Kind: StatusSuccess, Message: "Loaded: " + res.FileName})
	return nil
}

// Load runs a whole load on the calling goroutine.
func (v *Viewer) Load(ctx context.Context, name string, doc []byte) error {
	job, err := v.Open(ctx, name, doc)
	if err != nil {
		return err
	}
	if err := v.Complete(ctx, v.Render(ctx, job)); err != nil {
		return err
	}
	v.Flush()
	return nil
}

// install swaps in s. A selection whose element survives in s is kept and
// its metadata recomputed.
func (v *Viewer) install(s *scene.Scene) {
	prev := v.state.SelectedNodeID

	v.engine.Detach()
	v.scene = s
	v.graph = v.opts.Grammar.Build(s)
	v.sel.Bind(s)
	v.state.SelectedNodeID = ""
	v.state.Meta = nil
	v.state.HasScene = true
	v.engine.Attach(s)
	v.pendingFit = true

	if prev != "" && v.sel.IsNode(prev) {
		v.Select(prev)
	}
}

func (v *Viewer) unload() {
	v.engine.Detach()
	v.scene = nil
	v.graph = nil
	v.sel.Bind(nil)
	v.pendingFit = false
	v.state.SelectedNodeID = ""
	v.state.Meta = nil
	v.state.HasScene = false
	v.SetTransform(viewport.IdentityTransform)
}

// Close drops the document and the scene.
func (v *Viewer) Close() {
	v.gen++
	v.unload()
	v.state.Generation = v.gen
	v.state.FileName = ""
	v.state.Source = ""
	v.state.Loading = false
	v.state.SearchQuery = ""
}

// Flush runs work deferred to the next turn of the event loop, currently
// the auto-fit scheduled by Complete. It reports whether anything ran.
func (v *Viewer) Flush() bool {
	if !v.pendingFit {
		return false
	}
	v.pendingFit = false
	v.engine.AutoFit()
	return true
}

// Pending reports whether Flush has work queued.
func (v *Viewer) Pending() bool { return v.pendingFit }

// Resize records the container size and re-fits.
func (v *Viewer) Resize(w, h float64) {
	v.engine.Resize(w, h)
}

// SetContainer records the container size without re-fitting.
func (v *Viewer) SetContainer(w, h float64) {
	v.engine.SetContainer(w, h)
}

// ZoomIn zooms in by one step.
func (v *Viewer) ZoomIn() { v.engine.ZoomBy(v.opts.ZoomStep) }

// ZoomOut zooms out by one step.
func (v *Viewer) ZoomOut() { v.engine.ZoomBy(-v.opts.ZoomStep) }

// ZoomTo sets an absolute zoom level.
func (v *Viewer) ZoomTo(level float64) { v.engine.ZoomTo(level) }

// PanBy pans by a screen delta.
func (v *Viewer) PanBy(dx, dy float64) { v.engine.PanBy(dx, dy) }

// ResetView returns to 100% at the origin.
func (v *Viewer) ResetView() { v.engine.Reset() }

// Fit fits the diagram into the container.
func (v *Viewer) Fit() { v.engine.AutoFit() }

// Key handles the global zoom shortcuts and reports whether key was one.
func (v *Viewer) Key(key string) bool {
	switch key {
	case "+", "=":
		v.ZoomIn()
	case "-", "_":
		v.ZoomOut()
	case "0":
		v.ResetView()
	case "f":
		v.Fit()
	default:
		return false
	}
	return true
}

// TargetAt returns the scene element under container point (x, y): the
// topmost painted element, else the scene root anywhere inside the
// container, else nil. Before the container size is known the content box
// stands in for it.
func (v *Viewer) TargetAt(x, y float64) *scene.Element {
	if v.scene == nil {
		return nil
	}
	p := v.engine.ScreenToScene(x, y)
	if e := v.scene.ElementAt(p, v.opts.HitTolerance/v.engine.Transform().Scale); e != nil {
		return e
	}
	if cw, ch := v.engine.Container(); cw > 0 && ch > 0 {
		if x >= 0 && y >= 0 && x < cw && y < ch {
			return v.scene.Root()
		}
		return nil
	}
	if b, ok := v.scene.ContentBBox(); ok && b.Contains(p) {
		return v.scene.Root()
	}
	return nil
}

// PointerDown starts a press at (x, y).
func (v *Viewer) PointerDown(x, y float64) {
	v.engine.PointerDown(x, y)
}

// PointerMove drags the view during a press and tracks the hover tooltip.
func (v *Viewer) PointerMove(x, y float64) {
	v.engine.PointerMove(x, y)
	if v.scene == nil {
		return
	}
	v.sel.Hover(v.TargetAt(x, y), x, y)
}

// PointerUp ends a press. A press that did not become a drag is a click.
func (v *Viewer) PointerUp(x, y float64) {
	if v.engine.PointerUp(x, y) {
		return
	}
	v.Click(v.TargetAt(x, y))
}

// PointerLeave hides the tooltip.
func (v *Viewer) PointerLeave() {
	v.sel.Leave(nil)
}

// Wheel zooms about (x, y) and reports whether the event was consumed.
func (v *Viewer) Wheel(x, y, deltaY float64) bool {
	return v.engine.Wheel(v.TargetAt(x, y), x, y, deltaY)
}

// Click selects the node containing target, or clears the selection.
func (v *Viewer) Click(target *scene.Element) {
	v.Select(v.sel.Click(target))
}

// Select selects the node with the given element id and returns its
// metadata. An empty id, an unknown id or the id of a non-node element such
// as an edge clears the selection.
func (v *Viewer) Select(elementID string) *selection.NodeMetadata {
	meta := v.sel.Apply(elementID)
	if meta == nil {
		v.state.SelectedNodeID = ""
	} else {
		v.state.SelectedNodeID = elementID
	}
	v.state.Meta = meta
	return meta
}

// SelectNode selects a node by bare id and reports whether it exists.
func (v *Viewer) SelectNode(bareID string) bool {
	if v.graph == nil {
		return false
	}
	id, ok := v.graph.IDs()[bareID]
	if !ok {
		return false
	}
	return v.Select(id) != nil
}

// ClearSelection clears the selection.
func (v *Viewer) ClearSelection() { v.Select("") }

// Search records query and selects the first node whose id or label
// matches. It returns every match.
func (v *Viewer) Search(query string) []graphmodel.Node {
	v.state.SearchQuery = query
	if v.graph == nil {
		return nil
	}
	matches := v.graph.Search(query)
	if len(matches) > 0 {
		v.Select(matches[0].ElementID)
	}
	return matches
}

// SetTheme switches between ThemeDark and ThemeLight.
func (v *Viewer) SetTheme(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return errors.New(errors.ErrCodeInvalidInput, "unknown theme %q", theme)
	}
	v.state.Theme = theme
	return nil
}

// ToggleTheme flips the theme.
func (v *Viewer) ToggleTheme() {
	if v.state.Theme == ThemeDark {
		v.state.Theme = ThemeLight
	} else {
		v.state.Theme = ThemeDark
	}
}

// SetStatus shows a banner. Non-error banners without an action expire
// after [StatusTimeout].
func (v *Viewer) SetStatus(kind StatusKind, message string) {
	v.setStatus(Status{Kind: kind, Message: message})
}

func (v *Viewer) setStatus(s Status) {
	if s.Kind != StatusError && s.Action == "" {
		s.Expires = v.opts.Now().Add(StatusTimeout)
	}
	v.state.Status = &s
}

// DismissStatus removes the banner.
func (v *Viewer) DismissStatus() { v.state.Status = nil }

// Tick expires the banner if its time is up and reports whether it did.
func (v *Viewer) Tick(now time.Time) bool {
	s := v.state.Status
	if s == nil || s.Expires.IsZero() || now.Before(s.Expires) {
		return false
	}
	v.state.Status = nil
	return true
}
