// Package flowchart renders Mermaid flowchart text to SVG in-process.
//
// # Overview
//
// The renderer understands the commonly used subset of Mermaid's flowchart
// syntax: a "graph" or "flowchart" header with an optional direction, node
// declarations with the usual bracket shapes, links ("-->", "---", "-.->",
// "==>" and their labelled forms), chains ("A --> B --> C"), "&" groups and
// subgraphs. Styling statements (classDef, class, style, linkStyle, click)
// are accepted and ignored.
//
// Layout is delegated to Graphviz:
//
//	chart, err := flowchart.Parse(src)
//	dot := flowchart.ToDOT(chart)
//	svg, err := flowchart.RenderSVG(ctx, dot)
//
// [Renderer] chains these steps and then stamps the output with the element
// identifiers and classes Mermaid itself produces ("flowchart-<id>-<n>" node
// groups, "L_<src>_<dst>_<n>" links, "nodeLabel" text), so the same
// [graphmodel.Grammar] serves both renderers.
//
// # Errors
//
// Malformed input yields an [errors.ErrCodeSyntax] error whose message
// starts with "Parse error on line N".
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process layout and
// SVG generation.
package flowchart
