package graph_test

import (
	"fmt"

	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
)

func ExampleStore_ResolveContainment() {
	s := graph.New()
	_ = s.AddContainer(graph.Entity{
		ID:       "C1",
		Position: geometry.Vec2{X: 100, Y: 50},
		Size:     geometry.Size{Width: 300, Height: 300},
	})
	_ = s.AddNode(graph.Entity{ID: "A", Position: geometry.Vec2{X: 120, Y: 100}})

	s.ResolveContainment("A")
	a, _ := s.Node("A")
	fmt.Println("parent:", a.ParentID)

	s.MoveNode("A", geometry.Vec2{X: 1000, Y: 1000})
	s.ResolveContainment("A")
	fmt.Printf("parent: %q\n", a.ParentID)
	// Output:
	// parent: C1
	// parent: ""
}

func ExampleStore_ProxyPorts() {
	s := graph.New()
	_ = s.AddContainer(graph.Entity{ID: "svc", Size: geometry.Size{Width: 400, Height: 300}})
	_ = s.AddNode(graph.Entity{ID: "api", Label: "API", ParentID: "svc",
		Ports: []graph.Port{{ID: "http", Label: "http"}}})
	_ = s.AddNode(graph.Entity{ID: "client", Position: geometry.Vec2{X: 600}})
	_ = s.AddEdge(graph.Edge{ID: "e1", SourceID: "client", TargetID: "api", TargetPortID: "http"})

	s.ToggleCollapsed("svc")
	for _, p := range s.ProxyPorts("svc") {
		fmt.Println(p.ID, p.Label, p.Direction)
	}
	// Output:
	// http API.http in
}

func ExampleStore_HitTest() {
	s := graph.New()
	_ = s.AddContainer(graph.Entity{ID: "group", Size: geometry.Size{Width: 400, Height: 300}})
	_ = s.AddNode(graph.Entity{ID: "n", ParentID: "group", Position: geometry.Vec2{X: 20, Y: 40}})

	id, _ := s.HitTest(geometry.Vec2{X: 30, Y: 50})
	fmt.Println(id)
	id, _ = s.HitTest(geometry.Vec2{X: 300, Y: 250})
	fmt.Println(id)
	// Output:
	// n
	// group
}
