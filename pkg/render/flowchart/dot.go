package flowchart

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mdview/pkg/errors"
)

var shapeAttrs = map[Shape]string{
	ShapeRect:          `shape=box, style="filled"`,
	ShapeRound:         `shape=box, style="rounded,filled"`,
	ShapeStadium:       `shape=box, style="rounded,filled"`,
	ShapeSubroutine:    `shape=box, style="filled", peripheries=2`,
	ShapeCylinder:      `shape=cylinder, style="filled"`,
	ShapeCircle:        `shape=circle, style="filled"`,
	ShapeDoubleCircle:  `shape=doublecircle, style="filled"`,
	ShapeDiamond:       `shape=diamond, style="filled"`,
	ShapeHexagon:       `shape=hexagon, style="filled"`,
	ShapeAsymmetric:    `shape=cds, style="filled"`,
	ShapeParallelogram: `shape=parallelogram, style="filled"`,
}

// ToDOT converts a chart to Graphviz DOT. Node names are the chart ids, so
// the <title> of each rendered group names its node or link.
func ToDOT(c *Chart) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", c.Direction)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=14, fillcolor=\"#ECECFF\", color=\"#9370DB\", margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=12, color=\"#333333\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	children := make(map[string][]Subgraph)
	for _, sg := range c.Subgraphs {
		children[sg.Parent] = append(children[sg.Parent], sg)
	}
	members := make(map[string][]*Node)
	for _, n := range c.Nodes {
		members[n.Subgraph] = append(members[n.Subgraph], n)
	}

	var write func(parent, indent string)
	write = func(parent, indent string) {
		for _, n := range members[parent] {
			fmt.Fprintf(&buf, "%s%q [label=%q, %s];\n", indent, n.ID, dotLabel(n.Label), shapeAttrs[n.Shape])
		}
		for _, sg := range children[parent] {
			fmt.Fprintf(&buf, "%ssubgraph %q {\n", indent, "cluster_"+sg.ID)
			fmt.Fprintf(&buf, "%s  label=%q;\n", indent, dotLabel(sg.Title))
			fmt.Fprintf(&buf, "%s  style=\"filled\"; fillcolor=\"#FFFFDE\"; color=\"#AAAA33\";\n", indent)
			write(sg.ID, indent+"  ")
			fmt.Fprintf(&buf, "%s}\n", indent)
		}
	}
	write("", "  ")

	buf.WriteString("\n")
	for _, l := range c.Links {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", l.From, l.To, strings.Join(linkAttrs(l), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func linkAttrs(l Link) []string {
	var attrs []string
	if l.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", dotLabel(l.Label)))
	}
	if !l.Arrow {
		attrs = append(attrs, "arrowhead=none")
	}
	switch l.Style {
	case StrokeDotted:
		attrs = append(attrs, "style=dashed")
	case StrokeThick:
		attrs = append(attrs, "penwidth=3")
	}
	if len(attrs) == 0 {
		attrs = append(attrs, "arrowhead=normal")
	}
	return attrs
}

var breakReplacer = strings.NewReplacer("<br/>", "\n", "<br />", "\n", "<br>", "\n")

// dotLabel turns Mermaid line breaks into DOT ones.
func dotLabel(s string) string {
	return breakReplacer.Replace(s)
}

// RenderSVG lays out a DOT graph with Graphviz and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "render cancelled")
	}
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "layout")
	}
	return buf.Bytes(), nil
}
