// Package render turns diagram source text into SVG scene markup.
//
// # Overview
//
// A [Renderer] is an opaque function from diagram source to markup. The
// interaction engine never looks inside it: layout (node placement and edge
// routing) is entirely the renderer's business. Two implementations ship:
//
//   - [flowchart]: in-process. Parses the Mermaid flowchart subset, lays it
//     out with Graphviz (go-graphviz, no external binaries) and stamps
//     Mermaid-style element ids and classes onto the output.
//   - [mermaidcli]: out-of-process. Runs the Mermaid CLI (mmdc) and returns
//     its SVG unchanged; supports every Mermaid diagram type.
//
// Both produce identifiers in the same grammar
// ([graphmodel.DefaultGrammar]), so the graph model extractor works
// against either.
//
// # Caching
//
// [Cached] wraps any renderer with a [cache.Cache]. Keys come from a
// [cache.Keyer] and include the renderer name, the fence language and the
// identifier grammar version:
//
//	r := render.NewCached(flowchart.New(), c, nil, logger)
//	svg, hit, err := r.RenderWithCacheInfo(ctx, src)
//
// # Format Conversion
//
// [ToPNG] and [ToPDF] convert SVG with the external rsvg-convert tool (from
// librsvg). They back `mdview render --format png|pdf`.
package render
