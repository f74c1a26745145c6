package flowchart

import (
	"strings"
	"testing"

	"github.com/matzehuels/mdview/pkg/errors"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		src  string
		want Direction
	}{
		{"graph TD\nA", TopBottom},
		{"graph TB\nA", TopBottom},
		{"flowchart LR\nA", LeftRight},
		{"flowchart RL\nA", RightLeft},
		{"graph BT\nA", BottomTop},
		{"graph\nA", TopBottom},
		{"%% comment\n\ngraph lr; A", LeftRight},
		{"---\ntitle: demo\n---\nflowchart LR\nA", LeftRight},
	}
	for _, tt := range tests {
		c, err := Parse(tt.src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.src, err)
		}
		if c.Direction != tt.want {
			t.Errorf("Parse(%q).Direction = %s, want %s", tt.src, c.Direction, tt.want)
		}
	}
}

func TestParseShapes(t *testing.T) {
	src := `graph TD
A[Box]
B(Round)
C((Circle))
D{Decide}
E([Stadium])
F[[Sub]]
G[(Store)]
H{{Hex}}
I>Flag]
J[/Lean/]
K["Quoted [label]"]
L`
	c, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tests := []struct {
		id    string
		label string
		shape Shape
	}{
		{"A", "Box", ShapeRect},
		{"B", "Round", ShapeRound},
		{"C", "Circle", ShapeCircle},
		{"D", "Decide", ShapeDiamond},
		{"E", "Stadium", ShapeStadium},
		{"F", "Sub", ShapeSubroutine},
		{"G", "Store", ShapeCylinder},
		{"H", "Hex", ShapeHexagon},
		{"I", "Flag", ShapeAsymmetric},
		{"J", "Lean", ShapeParallelogram},
		{"K", "Quoted [label]", ShapeRect},
		{"L", "L", ShapeRect},
	}
	if len(c.Nodes) != len(tests) {
		t.Fatalf("got %d nodes, want %d", len(c.Nodes), len(tests))
	}
	for i, tt := range tests {
		n := c.Nodes[i]
		if n.ID != tt.id || n.Label != tt.label || n.Shape != tt.shape {
			t.Errorf("node %d = %+v, want {%s %q %s}", i, *n, tt.id, tt.label, tt.shape)
		}
	}
}

func TestParseLinks(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want Link
	}{
		{"arrow", "A --> B", Link{From: "A", To: "B", Style: StrokeNormal, Arrow: true}},
		{"tight", "A-->B", Link{From: "A", To: "B", Style: StrokeNormal, Arrow: true}},
		{"open", "A --- B", Link{From: "A", To: "B", Style: StrokeNormal}},
		{"dotted", "A -.-> B", Link{From: "A", To: "B", Style: StrokeDotted, Arrow: true}},
		{"thick", "A ==> B", Link{From: "A", To: "B", Style: StrokeThick, Arrow: true}},
		{"pipe label", "A -->|yes| B", Link{From: "A", To: "B", Label: "yes", Style: StrokeNormal, Arrow: true}},
		{"text label", "A -- maybe --> B", Link{From: "A", To: "B", Label: "maybe", Style: StrokeNormal, Arrow: true}},
		{"dotted text", "A -. later .-> B", Link{From: "A", To: "B", Label: "later", Style: StrokeDotted, Arrow: true}},
		{"dashed ids", "my-node --> other_node", Link{From: "my-node", To: "other_node", Style: StrokeNormal, Arrow: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse("graph TD\n" + tt.stmt)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(c.Links) != 1 {
				t.Fatalf("got %d links, want 1", len(c.Links))
			}
			if c.Links[0] != tt.want {
				t.Errorf("link = %+v, want %+v", c.Links[0], tt.want)
			}
		})
	}
}

func TestParseChainsAndGroups(t *testing.T) {
	c, err := Parse("graph LR\nA[Start] --> B --> C{End?}\nA & B --> D;D --> A")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var got []string
	for _, l := range c.Links {
		got = append(got, l.From+">"+l.To)
	}
	want := "A>B B>C A>D B>D D>A"
	if strings.Join(got, " ") != want {
		t.Errorf("links = %v, want %s", got, want)
	}
	if c.Node("A").Label != "Start" {
		t.Errorf("A label = %q, want Start", c.Node("A").Label)
	}
	if c.Node("C").Shape != ShapeDiamond {
		t.Errorf("C shape = %s, want diamond", c.Node("C").Shape)
	}
}

func TestParseLaterShapeKeepsFirstPosition(t *testing.T) {
	c, err := Parse("graph TD\nA --> B\nB[Second]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(c.Nodes) != 2 || c.Nodes[1].ID != "B" || c.Nodes[1].Label != "Second" {
		t.Errorf("nodes = %+v %+v", *c.Nodes[0], *c.Nodes[1])
	}
}

func TestParseSubgraphs(t *testing.T) {
	src := `flowchart TB
    subgraph one [First]
      a1 --> a2
      subgraph inner
        x
      end
    end
    subgraph "Two words"
      b1
    end
    c1 --> a1`
	c, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(c.Subgraphs) != 3 {
		t.Fatalf("got %d subgraphs, want 3", len(c.Subgraphs))
	}
	if sg := c.Subgraphs[0]; sg.ID != "one" || sg.Title != "First" || sg.Parent != "" {
		t.Errorf("subgraph 0 = %+v", sg)
	}
	if sg := c.Subgraphs[1]; sg.ID != "inner" || sg.Parent != "one" {
		t.Errorf("subgraph 1 = %+v", sg)
	}
	if sg := c.Subgraphs[2]; sg.ID != "subGraph0" || sg.Title != "Two words" {
		t.Errorf("subgraph 2 = %+v", sg)
	}
	for id, want := range map[string]string{"a1": "one", "x": "inner", "b1": "subGraph0", "c1": ""} {
		if got := c.Node(id).Subgraph; got != want {
			t.Errorf("%s in %q, want %q", id, got, want)
		}
	}
}

func TestParseIgnoresStyling(t *testing.T) {
	src := `graph TD
A --> B
classDef hot fill:#f96
class A hot
style B stroke:#333
linkStyle 0 stroke:red
click A callback`
	c, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(c.Nodes) != 2 || len(c.Links) != 1 {
		t.Errorf("got %d nodes, %d links", len(c.Nodes), len(c.Links))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{"empty", "", "line 0"},
		{"no header", "A --> B", "line 1"},
		{"bad direction", "graph XY", "line 1"},
		{"dangling link", "graph TD\nA -->", "line 2"},
		{"unterminated shape", "graph TD\nA --> B\nC[oops", "line 3"},
		{"bad token", "graph TD\nA ~~ B", "line 2"},
		{"stray end", "graph TD\nend", "line 2"},
		{"open subgraph", "graph TD\nsubgraph s\nA", "line 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeSyntax) {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeSyntax)
			}
			if !strings.Contains(err.Error(), "Parse error on "+tt.line) {
				t.Errorf("error %q does not mention %s", err, tt.line)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements(`A["x;y"] --> B; C(a;b); D`)
	want := []string{`A["x;y"] --> B`, ` C(a;b)`, ` D`}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statement %d = %q, want %q", i, got[i], want[i])
		}
	}
}
