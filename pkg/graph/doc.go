// Package graph is the diagram model: nodes, containers, edges, and the
// algorithms that keep them spatially and topologically consistent.
//
// # Model
//
// An [Entity] is either a node (a leaf box) or a container (a box that holds
// nodes and other containers and can be collapsed). Entities carry ordered
// [Port] lists. An [Edge] connects two entities, optionally at named ports,
// and refers to everything by id only.
//
// The [Store] owns all of it. Containers hold member ids, members hold a
// parent id, and every Store method keeps the two sides in agreement:
//
//	s := graph.New()
//	_ = s.AddContainer(graph.Entity{ID: "c1", Position: geometry.Vec2{X: 100, Y: 50},
//	    Size: geometry.Size{Width: 300, Height: 300}})
//	_ = s.AddNode(graph.Entity{ID: "a", Position: geometry.Vec2{X: 120, Y: 100}})
//	s.ResolveContainment("a") // a now lives in c1
//
// # Algorithms
//
//   - Containment: [Store.ResolveContainment] picks the smallest visible
//     container enclosing an entity's box; [Store.AutoSize] grows containers
//     to fit their members and never shrinks them.
//   - Geometry: [Store.PortPosition] slides connected ports to face their
//     peer and spreads free ports down the left edge.
//   - Visibility: [Store.IsVisible] hides everything below a collapsed
//     container; [Store.ProxyPorts] surfaces edges that cross its border.
//   - Hit testing: [Store.HitTest] and [Store.EntitiesInRect].
//
// # Snapshots
//
// [Store.ExportState] and [Store.ImportState] convert to and from
// [Document], the ordered, order-preserving wire format used by pkg/io, the
// storage backends and the HTTP API. [Store.Clone] is the basis of the
// copy-on-write editing done in pkg/editor.
package graph
