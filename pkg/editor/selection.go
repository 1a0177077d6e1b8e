package editor

import (
	"slices"

	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
)

// Selection names the entities and edges a gesture acts on. It is plain
// data owned by the caller.
type Selection struct {
	Entities []string `json:"entities,omitempty"`
	Edges    []string `json:"edges,omitempty"`
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return len(s.Entities) == 0 && len(s.Edges) == 0 }

// Len returns the number of selected items.
func (s Selection) Len() int { return len(s.Entities) + len(s.Edges) }

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	return slices.Contains(s.Entities, id) || slices.Contains(s.Edges, id)
}

// Toggle adds id to the selection, or removes it if already present.
func (s Selection) Toggle(id string, isEdge bool) Selection {
	list := &s.Entities
	if isEdge {
		list = &s.Edges
	}
	if i := slices.Index(*list, id); i >= 0 {
		*list = slices.Delete(slices.Clone(*list), i, i+1)
	} else {
		*list = append(slices.Clone(*list), id)
	}
	return s
}

// SelectAll selects every entity and edge in the store.
func SelectAll(s *graph.Store) Selection {
	var sel Selection
	for _, c := range s.Containers() {
		sel.Entities = append(sel.Entities, c.ID)
	}
	for _, n := range s.Nodes() {
		sel.Entities = append(sel.Entities, n.ID)
	}
	for _, e := range s.Edges() {
		sel.Edges = append(sel.Edges, e.ID)
	}
	return sel
}

// SelectRect selects the visible entities fully inside r, as a lasso does.
func SelectRect(s *graph.Store, r geometry.Rect) Selection {
	return Selection{Entities: s.EntitiesInRect(r)}
}
