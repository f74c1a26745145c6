package scene

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func approxRect(a, b Rect) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y) && approx(a.W, b.W) && approx(a.H, b.H)
}

func TestParseTransform(t *testing.T) {
	tests := []struct {
		in   string
		p    Point
		want Point
	}{
		{"translate(10, 20)", Point{1, 1}, Point{11, 21}},
		{"translate(5)", Point{0, 0}, Point{5, 0}},
		{"scale(2)", Point{3, 4}, Point{6, 8}},
		{"scale(2, 3)", Point{1, 1}, Point{2, 3}},
		{"matrix(1 0 0 1 7 8)", Point{0, 0}, Point{7, 8}},
		{"translate(10,0) scale(2)", Point{1, 1}, Point{12, 2}},
		{"rotate(90)", Point{1, 0}, Point{0, 1}},
		{"rotate(180, 5, 5)", Point{0, 0}, Point{10, 10}},
		{"bogus(1) translate(1,1)", Point{0, 0}, Point{1, 1}},
		{"", Point{4, 4}, Point{4, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseTransform(tt.in).Apply(tt.p)
			if !approx(got.X, tt.want.X) || !approx(got.Y, tt.want.Y) {
				t.Errorf("Apply(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestMatrixInvert(t *testing.T) {
	m := ParseTransform("translate(3, -2) scale(1.5) rotate(30)")
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("matrix should be invertible")
	}
	p := Point{7, 11}
	got := inv.Apply(m.Apply(p))
	if !approx(got.X, p.X) || !approx(got.Y, p.Y) {
		t.Errorf("round trip = %v, want %v", got, p)
	}
	if _, ok := (Matrix{}).Invert(); ok {
		t.Error("zero matrix should be singular")
	}
}

func TestParseNumbers(t *testing.T) {
	got := parseNumbers("10-5 1.5.5,2e2 -.5")
	want := []float64{10, -5, 1.5, 0.5, 200, -0.5}
	if len(got) != len(want) {
		t.Fatalf("parseNumbers = %v, want %v", got, want)
	}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFlattenPath(t *testing.T) {
	tests := []struct {
		name   string
		d      string
		bounds Rect
		closed bool
	}{
		{"absolute lines", "M0,0 L10,0 L10,5 Z", Rect{0, 0, 10, 5}, true},
		{"relative lines", "m1 1 l4 0 v3 h-4 z", Rect{1, 1, 4, 3}, true},
		{"implicit lineto", "M0 0 10 10 20 0", Rect{0, 0, 20, 10}, false},
		{"cubic", "M0,0 C0,10 10,10 10,0", Rect{0, 0, 10, 7.5}, false},
		{"quadratic", "M0,0 Q5,10 10,0", Rect{0, 0, 10, 5}, false},
		{"arc chord", "M0 0 A5 5 0 0110 0", Rect{0, 0, 10, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := flattenPath(tt.d)
			if len(lines) == 0 {
				t.Fatal("no subpaths")
			}
			if got := boundsOf(lines, Identity); !approxRect(got, tt.bounds) {
				t.Errorf("bounds = %v, want %v", got, tt.bounds)
			}
			if lines[0].closed != tt.closed {
				t.Errorf("closed = %v, want %v", lines[0].closed, tt.closed)
			}
		})
	}
}

func TestFlattenPathMalformed(t *testing.T) {
	for _, d := range []string{"", "garbage", "M10", "M0 0 L", "Z Z #"} {
		_ = flattenPath(d) // must terminate without panicking
	}
}

func TestBBox(t *testing.T) {
	root := El("svg").Append(
		El("g", "transform", "translate(100, 50)").Append(
			El("rect", "x", "-10", "y", "-5", "width", "20", "height", "10"),
		),
		El("circle", "cx", "0", "cy", "0", "r", "5"),
		El("defs").Append(El("rect", "x", "1000", "width", "10", "height", "10")),
	)
	s := New(root)

	got, ok := s.ContentBBox()
	if !ok {
		t.Fatal("ContentBBox not found")
	}
	if !approxRect(got, Rect{-5, -5, 115, 60}) {
		t.Errorf("ContentBBox() = %v", got)
	}
}

func TestContentBBoxFallbacks(t *testing.T) {
	if r, ok := New(El("svg", "viewBox", "-8 -8 100 50")).ContentBBox(); !ok || r != (Rect{-8, -8, 100, 50}) {
		t.Errorf("viewBox fallback = %v, %v", r, ok)
	}
	if r, ok := New(El("svg", "width", "64px", "height", "32")).ContentBBox(); !ok || r != (Rect{0, 0, 64, 32}) {
		t.Errorf("size fallback = %v, %v", r, ok)
	}
	if _, ok := New(El("svg")).ContentBBox(); ok {
		t.Error("empty scene should have no content box")
	}
}

func TestElementAt(t *testing.T) {
	edge := El("path", "d", "M0,50 L200,50", "fill", "none")
	nodeRect := El("rect", "x", "-20", "y", "-10", "width", "40", "height", "20")
	label := El("text", "x", "0", "y", "4", "text-anchor", "middle", "font-size", "10").Append(Text("B"))
	root := El("svg").Append(
		El("g", "class", "edgePaths").Append(edge),
		El("g", "transform", "translate(100, 50)").Append(nodeRect, label),
	)
	s := New(root)

	tests := []struct {
		name string
		p    Point
		want *Element
	}{
		{"on edge stroke", Point{30, 51}, edge},
		{"near edge within tolerance", Point{30, 52.5}, edge},
		{"node body over edge", Point{90, 50}, nodeRect},
		{"label drawn above body", Point{100, 2 + 50}, label},
		{"empty space", Point{30, 80}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.ElementAt(tt.p, 3); got != tt.want {
				t.Errorf("ElementAt(%v) = %+v, want %+v", tt.p, got, tt.want)
			}
		})
	}
}

func TestElementAtSkipsHidden(t *testing.T) {
	root := El("svg").Append(
		El("rect", "width", "10", "height", "10"),
		El("rect", "width", "10", "height", "10", "display", "none"),
	)
	s := New(root)
	if got := s.ElementAt(Point{5, 5}, 0); got != root.Children[0] {
		t.Error("hidden element should not be hit")
	}
}
