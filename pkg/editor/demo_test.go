package editor

import (
	"testing"

	"github.com/matzehuels/nestgraph/pkg/graph"
)

func TestDemoDocument(t *testing.T) {
	s, err := graph.FromDocument(DemoDocument())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	for id, parent := range map[string]string{
		"postgres": "db",
		"db":       "backend",
		"api":      "backend",
		"web":      "frontend",
		"backend":  "",
	} {
		e, ok := s.Entity(id)
		if !ok {
			t.Fatalf("%s missing", id)
		}
		if e.ParentID != parent {
			t.Errorf("%s parent = %q, want %q", id, e.ParentID, parent)
		}
	}
	// Every declared parent must also be the geometric one.
	for _, id := range append(s.Roots(), s.Descendants("backend")...) {
		e, _ := s.Entity(id)
		want := e.ParentID
		if s.ResolveContainment(id) {
			t.Errorf("%s re-parented away from %q", id, want)
		}
	}
}
