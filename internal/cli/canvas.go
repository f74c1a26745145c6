package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/mdview/pkg/scene"
	"github.com/matzehuels/mdview/pkg/selection"
	"github.com/matzehuels/mdview/pkg/viewer"
)

// ink is the role of a painted cell.
type ink uint8

const (
	inkNone ink = iota
	inkEdge
	inkEdgeConnected
	inkNode
	inkNodeConnected
	inkNodeSelected
	inkLabel
)

type cell struct {
	r   rune
	ink ink
}

// canvas is a grid of terminal cells the scene is rasterized onto.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i] = cell{r: ' '}
	}
	return c
}

func (c *canvas) set(x, y int, r rune, k ink) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell{r: r, ink: k}
}

func (c *canvas) at(x, y int) cell {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return cell{}
	}
	return c.cells[y*c.w+x]
}

// cellRect is a node box in cell coordinates, inclusive.
type cellRect struct{ x0, y0, x1, y1 int }

func (r cellRect) contains(x, y int) bool {
	return x >= r.x0 && x <= r.x1 && y >= r.y0 && y <= r.y1
}

func (r cellRect) center() (int, int) { return (r.x0 + r.x1) / 2, (r.y0 + r.y1) / 2 }

// rasterize paints the viewer's scene under its current transform: edges
// first as straight segments between node centres, then node boxes with
// their labels on top. Highlight classes set by the selection controller
// pick the ink.
func rasterize(v *viewer.Viewer, w, h int) *canvas {
	c := newCanvas(w, h)
	s, g := v.Scene(), v.Graph()
	if s == nil || g == nil {
		return c
	}
	t := v.Transform()
	toCell := func(r scene.Rect) cellRect {
		x0 := (r.X*t.Scale + t.X) / cellWidth
		y0 := (r.Y*t.Scale + t.Y) / cellHeight
		x1 := ((r.X+r.W)*t.Scale + t.X) / cellWidth
		y1 := ((r.Y+r.H)*t.Scale + t.Y) / cellHeight
		cr := cellRect{int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)) - 1, int(math.Ceil(y1)) - 1}
		if cr.x1 < cr.x0 {
			cr.x1 = cr.x0
		}
		if cr.y1 < cr.y0 {
			cr.y1 = cr.y0
		}
		return cr
	}

	boxes := make(map[string]cellRect, len(g.Nodes()))
	for _, n := range g.Nodes() {
		if e := s.ByID(n.ElementID); e != nil {
			boxes[n.BareID] = toCell(s.BBox(e))
		}
	}

	for _, e := range g.Edges() {
		from, ok1 := boxes[e.Source]
		to, ok2 := boxes[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		k := inkEdge
		if e.Element.HasClass(selection.EdgeConnectedClass) {
			k = inkEdgeConnected
		}
		c.edge(from, to, k)
	}

	for _, n := range g.Nodes() {
		box, ok := boxes[n.BareID]
		if !ok {
			continue
		}
		k := inkNode
		if e := s.ByID(n.ElementID); e != nil {
			switch {
			case e.HasClass(selection.SelectedClass):
				k = inkNodeSelected
			case e.HasClass(selection.ConnectedClass):
				k = inkNodeConnected
			}
		}
		c.box(box, n.Label, k)
	}
	return c
}

// edge draws a segment from the centre of a to the centre of b and an
// arrowhead on the last cell outside b.
func (c *canvas) edge(a, b cellRect, k ink) {
	x0, y0 := a.center()
	x1, y1 := b.center()
	dx, dy := x1-x0, y1-y0
	glyph := lineGlyph(dx, dy)

	var pts [][2]int
	steps := max(abs(dx), abs(dy))
	for i := 0; i <= steps; i++ {
		f := 0.0
		if steps > 0 {
			f = float64(i) / float64(steps)
		}
		x := x0 + int(math.Round(f*float64(dx)))
		y := y0 + int(math.Round(f*float64(dy)))
		pts = append(pts, [2]int{x, y})
	}
	last := -1
	for i, p := range pts {
		if a.contains(p[0], p[1]) || b.contains(p[0], p[1]) {
			continue
		}
		r := glyph
		if cur := c.at(p[0], p[1]); cur.ink == inkEdge || cur.ink == inkEdgeConnected {
			if cur.r != r {
				r = '┼'
			}
			if cur.ink == inkEdgeConnected {
				k = max(k, cur.ink)
			}
		}
		c.set(p[0], p[1], r, k)
		last = i
	}
	if last >= 0 && last+1 < len(pts) && b.contains(pts[last+1][0], pts[last+1][1]) {
		c.set(pts[last][0], pts[last][1], arrowGlyph(dx, dy), k)
	}
}

// box draws a bordered node with its label centred on the middle row.
func (c *canvas) box(r cellRect, label string, k ink) {
	for y := r.y0; y <= r.y1; y++ {
		for x := r.x0; x <= r.x1; x++ {
			c.set(x, y, ' ', k)
		}
	}
	if r.x1 > r.x0 && r.y1 > r.y0 {
		for x := r.x0 + 1; x < r.x1; x++ {
			c.set(x, r.y0, '─', k)
			c.set(x, r.y1, '─', k)
		}
		for y := r.y0 + 1; y < r.y1; y++ {
			c.set(r.x0, y, '│', k)
			c.set(r.x1, y, '│', k)
		}
		c.set(r.x0, r.y0, '┌', k)
		c.set(r.x1, r.y0, '┐', k)
		c.set(r.x0, r.y1, '└', k)
		c.set(r.x1, r.y1, '┘', k)
	}

	inner := r.x1 - r.x0 - 1
	if r.x1 == r.x0 {
		inner = 1
	}
	if inner <= 0 {
		return
	}
	text := runewidth.Truncate(label, inner, "…")
	_, cy := r.center()
	x := r.x0 + 1 + (inner-runewidth.StringWidth(text))/2
	if r.x1 == r.x0 {
		x = r.x0
	}
	lk := inkLabel
	if k != inkNode {
		lk = k
	}
	for _, ch := range text {
		c.set(x, cy, ch, lk)
		if runewidth.RuneWidth(ch) == 2 {
			c.set(x+1, cy, 0, lk) // covered by the wide rune
		}
		x += runewidth.RuneWidth(ch)
	}
}

func lineGlyph(dx, dy int) rune {
	switch {
	case dy == 0 || abs(dx) > 3*abs(dy):
		return '─'
	case dx == 0 || abs(dy) > 2*abs(dx):
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

func arrowGlyph(dx, dy int) rune {
	if abs(dx)*cellWidth >= abs(dy)*cellHeight {
		if dx >= 0 {
			return '▶'
		}
		return '◀'
	}
	if dy >= 0 {
		return '▼'
	}
	return '▲'
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// String renders the canvas with the styles of pal, merging runs of equal
// ink into one styled span.
func (c *canvas) String(pal palette) string {
	var b strings.Builder
	var run strings.Builder
	for y := 0; y < c.h; y++ {
		cur := inkNone
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(pal.style(cur).Render(run.String()))
			run.Reset()
		}
		for x := 0; x < c.w; x++ {
			cl := c.cells[y*c.w+x]
			if cl.ink != cur {
				flush()
				cur = cl.ink
			}
			if cl.r != 0 {
				run.WriteRune(cl.r)
			}
		}
		flush()
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// plain renders the canvas without styling.
func (c *canvas) plain() string {
	lines := make([]string, c.h)
	for y := 0; y < c.h; y++ {
		var b strings.Builder
		for x := 0; x < c.w; x++ {
			if r := c.cells[y*c.w+x].r; r != 0 {
				b.WriteRune(r)
			}
		}
		lines[y] = strings.TrimRight(b.String(), " ")
	}
	return strings.Join(lines, "\n")
}

// palette maps inks to styles for one theme.
type palette struct {
	edge          lipgloss.Style
	edgeConnected lipgloss.Style
	node          lipgloss.Style
	nodeConnected lipgloss.Style
	nodeSelected  lipgloss.Style
	label         lipgloss.Style
	text          lipgloss.Style
}

func (p palette) style(k ink) lipgloss.Style {
	switch k {
	case inkEdge:
		return p.edge
	case inkEdgeConnected:
		return p.edgeConnected
	case inkNode:
		return p.node
	case inkNodeConnected:
		return p.nodeConnected
	case inkNodeSelected:
		return p.nodeSelected
	case inkLabel:
		return p.label
	}
	return p.text
}
