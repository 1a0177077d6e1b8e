package graph

import (
	"testing"

	"github.com/matzehuels/nestgraph/pkg/geometry"
)

func node(id string, x, y float64, ports ...string) Entity {
	e := Entity{ID: id, Label: id, Position: geometry.Vec2{X: x, Y: y}}
	for _, p := range ports {
		e.Ports = append(e.Ports, Port{ID: p, Label: p})
	}
	return e
}

func box(id string, x, y, w, h float64) Entity {
	return Entity{ID: id, Label: id, Position: geometry.Vec2{X: x, Y: y}, Size: geometry.Size{Width: w, Height: h}}
}

func within(parent string, e Entity) Entity {
	e.ParentID = parent
	return e
}

func mustNodes(t *testing.T, s *Store, nodes ...Entity) {
	t.Helper()
	for _, n := range nodes {
		if err := s.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
}

func mustContainers(t *testing.T, s *Store, containers ...Entity) {
	t.Helper()
	for _, c := range containers {
		if err := s.AddContainer(c); err != nil {
			t.Fatalf("AddContainer(%s): %v", c.ID, err)
		}
	}
}

func mustEdges(t *testing.T, s *Store, edges ...Edge) {
	t.Helper()
	for _, e := range edges {
		if err := s.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s): %v", e.ID, err)
		}
	}
}

func mustValid(t *testing.T, s *Store) {
	t.Helper()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
