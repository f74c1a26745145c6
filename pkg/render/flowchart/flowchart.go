package flowchart

import (
	"context"
	"strconv"
	"strings"

	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/graphmodel"
	"github.com/matzehuels/mdview/pkg/scene"
)

// Name identifies this renderer in cache keys and logs.
const Name = "flowchart"

// Renderer renders flowchart text through Graphviz.
type Renderer struct {
	Grammar graphmodel.Grammar
}

// New returns a renderer stamping output with [graphmodel.DefaultGrammar].
func New() *Renderer {
	return &Renderer{Grammar: graphmodel.DefaultGrammar}
}

// Name returns "flowchart".
func (r *Renderer) Name() string { return Name }

// Render parses src, lays it out and returns SVG markup.
func (r *Renderer) Render(ctx context.Context, src string) ([]byte, error) {
	chart, err := Parse(src)
	if err != nil {
		return nil, err
	}
	svg, err := RenderSVG(ctx, ToDOT(chart))
	if err != nil {
		return nil, err
	}
	s, err := scene.Parse(svg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "read graphviz output")
	}
	Decorate(s, chart, r.Grammar)
	return s.Markup(), nil
}

// Decorate rewrites Graphviz output in place so it follows gr: node groups
// get "<prefix><id>-<n>" ids where n is the declaration index, link groups
// get "<edge prefix><src>_<dst>_<n>" ids where n counts repeated links,
// and node text is wrapped in a label group. The root is given pixel
// dimensions matching its viewBox.
func Decorate(s *scene.Scene, c *Chart, gr graphmodel.Grammar) {
	normalizeViewBox(s)

	order := make(map[string]int, len(c.Nodes))
	for i, n := range c.Nodes {
		order[n.ID] = i
	}
	repeats := make(map[string]int)

	groups := s.Find(func(e *scene.Element) bool { return e.Name == "g" })
	for _, g := range groups {
		title := titleOf(g)
		if title == nil {
			continue
		}
		name := title.TextContent()
		switch {
		case g.HasClass("node"):
			idx, ok := order[name]
			if !ok {
				continue
			}
			g.Set("id", gr.NodePrefix+name+"-"+strconv.Itoa(idx))
			g.AddClass("default")
			wrapLabel(g, gr.LabelClass)
		case g.HasClass("edge"):
			from, to, ok := strings.Cut(name, "->")
			if !ok {
				continue
			}
			key := from + "\x00" + to
			g.Set("id", gr.EdgePrefix+from+"_"+to+"_"+strconv.Itoa(repeats[key]))
			repeats[key]++
			g.AddClass(gr.EdgeClass)
		case g.HasClass("cluster"):
			g.Set("id", strings.TrimPrefix(name, "cluster_"))
		default:
			continue
		}
		title.Remove()
	}
}

func titleOf(g *scene.Element) *scene.Element {
	for _, c := range g.ElementChildren() {
		if c.Name == "title" {
			return c
		}
	}
	return nil
}

func wrapLabel(g *scene.Element, class string) {
	var texts []*scene.Element
	for _, c := range g.ElementChildren() {
		if c.Name == "text" {
			texts = append(texts, c)
		}
	}
	if len(texts) == 0 {
		return
	}
	label := scene.El("g", "class", "label "+class)
	label.Append(texts...)
	g.Append(label)
}

// normalizeViewBox moves the viewBox origin to zero and gives the root
// unitless pixel dimensions.
func normalizeViewBox(s *scene.Scene) {
	vb, ok := s.ViewBox()
	if !ok || vb.W == 0 || vb.H == 0 {
		return
	}
	w, h := scene.FormatNumber(vb.W), scene.FormatNumber(vb.H)
	root := s.Root()
	root.Set("viewBox", "0 0 "+w+" "+h)
	root.Set("width", w)
	root.Set("height", h)
	root.Set("aria-roledescription", "flowchart-v2")
}
