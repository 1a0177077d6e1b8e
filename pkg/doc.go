// Package pkg is the root of nestgraph's library packages.
//
// Nestgraph is the core of an interactive diagram editor: nodes with ports,
// containers that nest and collapse, and edges that reroute through proxy
// ports when their endpoints are hidden. Every mutation is recorded so it can
// be undone and redone.
//
// # Quick Start
//
// Build a diagram and edit it through an editor:
//
//	import (
//	    "github.com/matzehuels/nestgraph/pkg/editor"
//	    "github.com/matzehuels/nestgraph/pkg/geometry"
//	    "github.com/matzehuels/nestgraph/pkg/graph"
//	)
//
//	s, _ := graph.FromDocument(editor.DemoDocument())
//	ed := editor.New(s)
//	ed.Move([]string{"api"}, geometry.Vec2{X: 40, Y: 0})
//	ed.Undo()
//
// # Main Packages
//
// [graph] - The entity store. Nodes, containers, edges and ports, plus the
// containment tree, auto-size, visibility, proxy ports and hit testing.
//
// [geometry] - Points, rectangles and the viewport transform.
//
// [history] - Bounded undo/redo stacks of document patches.
//
// [editor] - User gestures (add, move, resize, collapse, delete, paste)
// applied as recorded transactions, plus selection and clipboard.
//
// [io] - JSON import and export of documents.
//
// [render/nodelink] - Graphviz DOT and SVG output with a render cache.
//
// [storage] - Document persistence: memory, file, MongoDB and Neo4j.
//
// [cache] - Render caches backed by the filesystem or Redis.
//
// [config], [observability], [errors] - Shared configuration, hooks and
// coded errors.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/graph
// [geometry]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/geometry
// [history]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/history
// [editor]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/editor
// [io]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/io
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/render/nodelink
// [storage]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/storage
// [cache]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/nestgraph/pkg/errors
package pkg
