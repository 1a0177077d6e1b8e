// Package nodelink renders nestgraph documents as Graphviz diagrams.
//
// # Overview
//
// [ToDOT] walks the visible part of a [graph.Store] and emits DOT source.
// Expanded containers become clusters, collapsed containers become record
// nodes whose fields are their ports and proxy ports, and edges into hidden
// members are redrawn against the collapsed ancestor that stands in for them.
//
// # Usage
//
//	dot := nodelink.ToDOT(store, nodelink.Options{RankDir: "LR"})
//	svg, err := nodelink.RenderSVG(dot, nodelink.LayoutDot)
//
// PDF and PNG are converted from the SVG by render.ToPDF and
// render.ToPNG, which need librsvg (rsvg-convert).
//
// [Renderer] wraps the same pipeline with a [cache.Cache] keyed on the
// document's content hash, so re-rendering an unchanged document is free.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink
