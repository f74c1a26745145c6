package scene

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Point is a position in scene user units.
type Point struct{ X, Y float64 }

// Rect is an axis-aligned box in scene user units.
type Rect struct{ X, Y, W, H float64 }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.W <= 0 && r.H <= 0 }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Union returns the smallest box covering r and o. An empty operand is
// ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0, y0 := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	x1, y1 := math.Max(r.X+r.W, o.X+o.W), math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Matrix is a 2D affine transform in SVG order:
//
//	| A C E |
//	| B D F |
type Matrix struct{ A, B, C, D, E, F float64 }

// Identity is the neutral transform.
var Identity = Matrix{A: 1, D: 1}

// Mul returns m·n, applying n first.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Apply maps p through m.
func (m Matrix) Apply(p Point) Point {
	return Point{X: m.A*p.X + m.C*p.Y + m.E, Y: m.B*p.X + m.D*p.Y + m.F}
}

// Invert returns the inverse transform; ok is false for singular matrices.
func (m Matrix) Invert() (Matrix, bool) {
	det := m.A*m.D - m.B*m.C
	if det == 0 {
		return Matrix{}, false
	}
	return Matrix{
		A: m.D / det,
		B: -m.B / det,
		C: -m.C / det,
		D: m.A / det,
		E: (m.C*m.F - m.D*m.E) / det,
		F: (m.B*m.E - m.A*m.F) / det,
	}, true
}

// ParseTransform parses an SVG transform list. Unknown functions are
// skipped.
func ParseTransform(s string) Matrix {
	m := Identity
	for s != "" {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open:], ')')
		if end < 0 {
			break
		}
		name := strings.TrimSpace(strings.TrimLeft(s[:open], " ,\t\n"))
		args := parseNumbers(s[open+1 : open+end])
		s = s[open+end+1:]

		var t Matrix
		switch {
		case name == "translate" && len(args) >= 1:
			t = Matrix{A: 1, D: 1, E: args[0]}
			if len(args) > 1 {
				t.F = args[1]
			}
		case name == "scale" && len(args) >= 1:
			sy := args[0]
			if len(args) > 1 {
				sy = args[1]
			}
			t = Matrix{A: args[0], D: sy}
		case name == "matrix" && len(args) == 6:
			t = Matrix{A: args[0], B: args[1], C: args[2], D: args[3], E: args[4], F: args[5]}
		case name == "rotate" && len(args) >= 1:
			rad := args[0] * math.Pi / 180
			cos, sin := math.Cos(rad), math.Sin(rad)
			t = Matrix{A: cos, B: sin, C: -sin, D: cos}
			if len(args) == 3 {
				cx, cy := args[1], args[2]
				t = Matrix{A: 1, D: 1, E: cx, F: cy}.Mul(t).Mul(Matrix{A: 1, D: 1, E: -cx, F: -cy})
			}
		case name == "skewX" && len(args) == 1:
			t = Matrix{A: 1, C: math.Tan(args[0] * math.Pi / 180), D: 1}
		case name == "skewY" && len(args) == 1:
			t = Matrix{A: 1, B: math.Tan(args[0] * math.Pi / 180), D: 1}
		default:
			continue
		}
		m = m.Mul(t)
	}
	return m
}

// parseNumbers scans every number in s. Separators are whitespace, commas
// and sign or dot boundaries ("10-5", "1.5.5").
func parseNumbers(s string) []float64 {
	sc := numScanner{s: s}
	var out []float64
	for {
		v, ok := sc.next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

type numScanner struct {
	s   string
	pos int
}

func (sc *numScanner) skipSep() {
	for sc.pos < len(sc.s) {
		switch sc.s[sc.pos] {
		case ' ', ',', '\t', '\n', '\r':
			sc.pos++
		default:
			return
		}
	}
}

func (sc *numScanner) next() (float64, bool) {
	sc.skipSep()
	start := sc.pos
	i := sc.pos
	if i < len(sc.s) && (sc.s[i] == '-' || sc.s[i] == '+') {
		i++
	}
	digits, dot := 0, false
	for i < len(sc.s) {
		c := sc.s[i]
		if c >= '0' && c <= '9' {
			digits++
		} else if c == '.' && !dot {
			dot = true
		} else {
			break
		}
		i++
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(sc.s) && (sc.s[i] == 'e' || sc.s[i] == 'E') {
		j := i + 1
		if j < len(sc.s) && (sc.s[j] == '-' || sc.s[j] == '+') {
			j++
		}
		k := j
		for k < len(sc.s) && sc.s[k] >= '0' && sc.s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	v, err := strconv.ParseFloat(sc.s[start:i], 64)
	if err != nil {
		return 0, false
	}
	sc.pos = i
	return v, true
}

// flag reads a single arc flag digit, which may be written without a
// separator.
func (sc *numScanner) flag() (float64, bool) {
	sc.skipSep()
	if sc.pos < len(sc.s) && (sc.s[sc.pos] == '0' || sc.s[sc.pos] == '1') {
		v := float64(sc.s[sc.pos] - '0')
		sc.pos++
		return v, true
	}
	return 0, false
}

// command returns the next path command letter, if one follows.
func (sc *numScanner) command() (byte, bool) {
	sc.skipSep()
	if sc.pos < len(sc.s) {
		c := sc.s[sc.pos]
		if (c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') && c != 'e' && c != 'E' {
			sc.pos++
			return c, true
		}
	}
	return 0, false
}

func (sc *numScanner) done() bool {
	sc.skipSep()
	return sc.pos >= len(sc.s)
}

// polyline is one flattened subpath.
type polyline struct {
	pts    []Point
	closed bool
}

const curveSteps = 8

// flattenPath converts path data into polylines, sampling curves. Arcs are
// approximated by their chord. Malformed data yields whatever was parsed
// before the error.
func flattenPath(d string) []polyline {
	sc := numScanner{s: d}
	var (
		out        []polyline
		cur        *polyline
		pos, start Point
		lastCtrl   Point
		lastCmd    byte
	)
	moveTo := func(p Point) {
		out = append(out, polyline{pts: []Point{p}})
		cur = &out[len(out)-1]
		pos, start = p, p
	}
	lineTo := func(p Point) {
		if cur == nil {
			moveTo(pos)
		}
		cur.pts = append(cur.pts, p)
		pos = p
	}
	read := func(n int) ([]float64, bool) {
		vals := make([]float64, n)
		for i := range vals {
			v, ok := sc.next()
			if !ok {
				return nil, false
			}
			vals[i] = v
		}
		return vals, true
	}

	var cmd byte
	for !sc.done() {
		before := sc.pos
		if c, ok := sc.command(); ok {
			cmd = c
		} else if cmd == 0 {
			break
		}
		rel := cmd >= 'a'
		off := func(x, y float64) Point {
			if rel {
				return Point{pos.X + x, pos.Y + y}
			}
			return Point{x, y}
		}

		switch cmd | 0x20 {
		case 'm':
			v, ok := read(2)
			if !ok {
				return out
			}
			moveTo(off(v[0], v[1]))
			// Subsequent pairs are implicit lineto.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'l':
			v, ok := read(2)
			if !ok {
				return out
			}
			lineTo(off(v[0], v[1]))
		case 'h':
			v, ok := read(1)
			if !ok {
				return out
			}
			x := v[0]
			if rel {
				x += pos.X
			}
			lineTo(Point{x, pos.Y})
		case 'v':
			v, ok := read(1)
			if !ok {
				return out
			}
			y := v[0]
			if rel {
				y += pos.Y
			}
			lineTo(Point{pos.X, y})
		case 'c', 's':
			var c1 Point
			var rest []float64
			var ok bool
			if cmd|0x20 == 'c' {
				v, ok2 := read(6)
				if !ok2 {
					return out
				}
				c1 = off(v[0], v[1])
				rest = v[2:]
				ok = true
			} else {
				c1 = pos
				if lastCmd|0x20 == 'c' || lastCmd|0x20 == 's' {
					c1 = Point{2*pos.X - lastCtrl.X, 2*pos.Y - lastCtrl.Y}
				}
				rest, ok = read(4)
			}
			if !ok {
				return out
			}
			c2, end := off(rest[0], rest[1]), off(rest[2], rest[3])
			p0 := pos
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				u := 1 - t
				lineTo(Point{
					X: u*u*u*p0.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*end.X,
					Y: u*u*u*p0.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*end.Y,
				})
			}
			lastCtrl = c2
		case 'q', 't':
			var c Point
			var end Point
			if cmd|0x20 == 'q' {
				v, ok := read(4)
				if !ok {
					return out
				}
				c, end = off(v[0], v[1]), off(v[2], v[3])
			} else {
				v, ok := read(2)
				if !ok {
					return out
				}
				c = pos
				if lastCmd|0x20 == 'q' || lastCmd|0x20 == 't' {
					c = Point{2*pos.X - lastCtrl.X, 2*pos.Y - lastCtrl.Y}
				}
				end = off(v[0], v[1])
			}
			p0 := pos
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				u := 1 - t
				lineTo(Point{
					X: u*u*p0.X + 2*u*t*c.X + t*t*end.X,
					Y: u*u*p0.Y + 2*u*t*c.Y + t*t*end.Y,
				})
			}
			lastCtrl = c
		case 'a':
			if _, ok := read(3); !ok {
				return out
			}
			if _, ok := sc.flag(); !ok {
				return out
			}
			if _, ok := sc.flag(); !ok {
				return out
			}
			v, ok := read(2)
			if !ok {
				return out
			}
			lineTo(off(v[0], v[1]))
		case 'z':
			if cur != nil {
				cur.closed = true
				cur = nil
			}
			pos = start
		default:
			return out
		}
		lastCmd = cmd
		if sc.pos == before {
			return out
		}
	}
	return out
}

// shapeNames are the elements that paint something.
var shapeNames = map[string]bool{
	"rect": true, "circle": true, "ellipse": true, "line": true,
	"polyline": true, "polygon": true, "path": true, "text": true,
	"foreignObject": true, "image": true, "use": true,
}

// hiddenContainers hold definitions rather than painted content.
var hiddenContainers = map[string]bool{
	"defs": true, "marker": true, "clipPath": true, "mask": true,
	"pattern": true, "symbol": true, "style": true, "title": true,
	"desc": true, "metadata": true, "linearGradient": true, "radialGradient": true,
	"filter": true, "script": true,
}

func hidden(e *Element) bool {
	return hiddenContainers[e.Name] || e.Prop("display") == "none" || e.Prop("visibility") == "hidden"
}

// CTM returns the transform from e's local coordinates to root user space.
// The root's own transforms are excluded: they belong to the viewport.
func (s *Scene) CTM(e *Element) Matrix {
	var chain []*Element
	for n := e; n != nil && n != s.root; n = n.parent {
		chain = append(chain, n)
	}
	m := Identity
	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]
		if n.Name == "svg" {
			m = m.Mul(Matrix{A: 1, D: 1, E: num(n, "x"), F: num(n, "y")})
		}
		if t := n.Get("transform"); t != "" {
			m = m.Mul(ParseTransform(t))
		}
	}
	return m
}

func num(e *Element, name string) float64 {
	v := strings.TrimSuffix(strings.TrimSpace(e.Get(name)), "px")
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

// localPoints returns the outline of a shape in its own coordinates.
func localPoints(e *Element) []polyline {
	switch e.Name {
	case "rect", "foreignObject", "image", "use":
		x, y, w, h := num(e, "x"), num(e, "y"), num(e, "width"), num(e, "height")
		if w <= 0 || h <= 0 {
			return nil
		}
		return []polyline{{pts: []Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}, closed: true}}
	case "circle", "ellipse":
		cx, cy := num(e, "cx"), num(e, "cy")
		rx, ry := num(e, "rx"), num(e, "ry")
		if e.Name == "circle" {
			rx, ry = num(e, "r"), num(e, "r")
		}
		if rx <= 0 || ry <= 0 {
			return nil
		}
		pts := make([]Point, 16)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / float64(len(pts))
			pts[i] = Point{cx + rx*math.Cos(a), cy + ry*math.Sin(a)}
		}
		return []polyline{{pts: pts, closed: true}}
	case "line":
		return []polyline{{pts: []Point{{num(e, "x1"), num(e, "y1")}, {num(e, "x2"), num(e, "y2")}}}}
	case "polyline", "polygon":
		v := parseNumbers(e.Get("points"))
		var pts []Point
		for i := 0; i+1 < len(v); i += 2 {
			pts = append(pts, Point{v[i], v[i+1]})
		}
		if len(pts) == 0 {
			return nil
		}
		return []polyline{{pts: pts, closed: e.Name == "polygon"}}
	case "path":
		return flattenPath(e.Get("d"))
	case "text":
		return []polyline{textBox(e)}
	}
	return nil
}

// textBox estimates the extent of a text run from its anchor, font size
// and character count.
func textBox(e *Element) polyline {
	x, y := 0.0, 0.0
	if v := parseNumbers(e.Get("x")); len(v) > 0 {
		x = v[0]
	}
	if v := parseNumbers(e.Get("y")); len(v) > 0 {
		y = v[0]
	}
	size := 14.0
	if v := parseNumbers(e.Prop("font-size")); len(v) > 0 && v[0] > 0 {
		size = v[0]
	}
	w := float64(utf8.RuneCountInString(e.TextContent())) * size * 0.6
	switch e.Prop("text-anchor") {
	case "middle":
		x -= w / 2
	case "end":
		x -= w
	}
	top := y - size*0.8
	return polyline{pts: []Point{{x, top}, {x + w, top}, {x + w, y + size*0.2}, {x, y + size*0.2}}, closed: true}
}

func boundsOf(lines []polyline, m Matrix) Rect {
	first := true
	var x0, y0, x1, y1 float64
	for _, l := range lines {
		for _, p := range l.pts {
			q := m.Apply(p)
			if first {
				x0, y0, x1, y1 = q.X, q.Y, q.X, q.Y
				first = false
				continue
			}
			x0, y0 = math.Min(x0, q.X), math.Min(y0, q.Y)
			x1, y1 = math.Max(x1, q.X), math.Max(y1, q.Y)
		}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// BBox returns the bounds of e and its painted descendants in root user
// space.
func (s *Scene) BBox(e *Element) Rect {
	var r Rect
	e.Walk(func(n *Element) bool {
		if n != s.root && hidden(n) {
			return false
		}
		if shapeNames[n.Name] {
			r = r.Union(boundsOf(localPoints(n), s.CTM(n)))
			return n.Name != "foreignObject" && n.Name != "text"
		}
		return true
	})
	return r
}

// ContentBBox returns the bounds of everything painted in the scene. When
// nothing has measurable geometry it falls back to the viewBox and then to
// the root width and height.
func (s *Scene) ContentBBox() (Rect, bool) {
	if r := s.BBox(s.root); !r.Empty() {
		return r, true
	}
	if vb, ok := s.ViewBox(); ok {
		return vb, true
	}
	w, h := num(s.root, "width"), num(s.root, "height")
	if w > 0 && h > 0 {
		return Rect{W: w, H: h}, true
	}
	return Rect{}, false
}

// ElementAt returns the topmost painted element under p (root user space),
// or nil. Open strokes count as hit within tol units; closed shapes, text
// and foreign content are hit anywhere inside.
func (s *Scene) ElementAt(p Point, tol float64) *Element {
	var shapes []*Element
	s.root.Walk(func(n *Element) bool {
		if n != s.root && hidden(n) {
			return false
		}
		if shapeNames[n.Name] {
			shapes = append(shapes, n)
			return n.Name != "foreignObject" && n.Name != "text"
		}
		return true
	})
	for i := len(shapes) - 1; i >= 0; i-- {
		if s.hit(shapes[i], p, tol) {
			return shapes[i]
		}
	}
	return nil
}

func (s *Scene) hit(e *Element, p Point, tol float64) bool {
	m := s.CTM(e)
	inv, ok := m.Invert()
	if !ok {
		return false
	}
	lines := localPoints(e)
	if len(lines) == 0 {
		return false
	}
	// Stroke tolerance is measured in root units; approximate it in local
	// units by the transform's mean scale.
	scale := math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
	if scale == 0 {
		return false
	}
	lp := inv.Apply(p)
	ltol := tol / scale

	filled := e.Name != "path" && e.Name != "line" && e.Name != "polyline"
	if e.Name == "path" {
		f := e.Prop("fill")
		filled = f != "" && f != "none" && f != "transparent"
	}
	for _, l := range lines {
		if filled && l.closed && insidePolygon(l.pts, lp) {
			return true
		}
		if nearPolyline(l, lp, ltol) {
			return true
		}
	}
	return false
}

func insidePolygon(pts []Point, p Point) bool {
	in := false
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		a, b := pts[i], pts[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}

func nearPolyline(l polyline, p Point, tol float64) bool {
	n := len(l.pts)
	if n == 1 {
		return dist(l.pts[0], p) <= tol
	}
	for i := 0; i+1 < n; i++ {
		if segDist(l.pts[i], l.pts[i+1], p) <= tol {
			return true
		}
	}
	if l.closed && n > 2 {
		return segDist(l.pts[n-1], l.pts[0], p) <= tol
	}
	return false
}

func dist(a, b Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

func segDist(a, b, p Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return dist(a, p)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return dist(Point{a.X + t*dx, a.Y + t*dy}, p)
}
