// Package render converts rendered SVG diagrams to other formats.
//
// Diagram generation itself lives in [nodelink], which draws the
// containment hierarchy with Graphviz:
//
//	dot := nodelink.ToDOT(store, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot, nodelink.LayoutDot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// PDF and PNG conversion shells out to rsvg-convert from librsvg.
//
// [nodelink]: github.com/matzehuels/nestgraph/pkg/render/nodelink
package render
