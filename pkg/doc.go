// Package pkg provides the libraries behind mdview, a viewer for diagrams
// embedded in Markdown documents.
//
// # Overview
//
// mdview takes the first fenced diagram out of a Markdown file, renders it to
// SVG, and keeps the result as a live scene that can be panned, zoomed and
// queried node by node. The pkg directory is organized by stage:
//
//  1. [source] - Extract the diagram source from Markdown
//  2. [render] - Turn diagram source into SVG (flowchart, mermaid-cli), with caching
//  3. [scene] - Parse SVG into an element tree with geometry and classes
//  4. [graphmodel] - Recover nodes and edges from scene element ids
//  5. [viewport] - Pan, zoom and auto-fit transforms
//  6. [selection] - Node highlighting, connection metadata and tooltips
//  7. [viewer] - The host state machine that ties the stages together
//
// Supporting packages: [cache] (file, Redis and null backends), [config]
// (TOML settings), [errors] (coded errors and input validation),
// [observability] (hooks and Prometheus metrics) and [buildinfo].
//
// # Architecture
//
// The data flow of one load:
//
//	Markdown document
//	         ↓
//	    [source] package (first ```mermaid fence)
//	         ↓
//	    [render] package (SVG markup, cached by source hash)
//	         ↓
//	    [scene] + [graphmodel] packages (element tree + node/edge graph)
//	         ↓
//	    [viewport] + [selection] packages (transform + highlight classes)
//	         ↓
//	    terminal canvas, HTTP session, or SVG/PNG/PDF export
//
// # Quick Start
//
// Load a document and select a node:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/mdview/pkg/render/flowchart"
//	    "github.com/matzehuels/mdview/pkg/viewer"
//	)
//
//	v := viewer.New(flowchart.New(), nil, viewer.Options{})
//	v.SetContainer(1280, 800)
//	if err := v.Load(ctx, "arch.md", doc); err != nil {
//	    return err
//	}
//	v.SelectNode("api")
//	svg := v.Markup()
//
// # Interfaces
//
// [viewer.Viewer] belongs to one event loop. Hosts that render off the loop
// split a load into Open, Render and Complete; a result whose generation
// was superseded by a newer Open is discarded.
package pkg
