package graph

import (
	"slices"

	"github.com/matzehuels/nestgraph/pkg/geometry"
)

// ResolveContainment re-parents an entity to the innermost visible container
// that fully encloses its box, or promotes it to the root when none does.
//
// Candidates exclude the entity itself, any id in exclude, hidden
// containers and, for containers, the entity's own descendants. The smallest
// candidate by area wins; equal areas are broken by the lexicographically
// smallest id. Returns true if the entity's parent changed.
//
// Resolution is meant to run once per entity at the end of a gesture, not
// on every intermediate position.
func (s *Store) ResolveContainment(id string, exclude ...string) bool {
	e, ok := s.Entity(id)
	if !ok {
		return false
	}

	best := s.enclosingContainer(e, exclude)
	switch {
	case best != nil && best.ID != e.ParentID:
		s.attach(e, best.ID)
		return true
	case best == nil && e.ParentID != "":
		s.detach(e)
		return true
	}
	return false
}

func (s *Store) enclosingContainer(e *Entity, exclude []string) *Entity {
	box := e.Bounds()
	var best *Entity
	var bestArea float64
	for _, cid := range s.containerOrder {
		c := s.containers[cid]
		if c.ID == e.ID || slices.Contains(exclude, c.ID) {
			continue
		}
		if !s.IsVisible(c.ID) || !c.Bounds().Contains(box) {
			continue
		}
		if e.IsContainer() && s.IsDescendant(c.ID, e.ID) {
			continue
		}
		area := c.Bounds().Area()
		if best == nil || area < bestArea || (area == bestArea && c.ID < best.ID) {
			best, bestArea = c, area
		}
	}
	return best
}

// RequiredSize returns the size a container needs to enclose its direct
// members with padding on every side and the header on top, and whether it
// has any members at all. Collapsed child containers contribute their
// stored box.
func (s *Store) RequiredSize(id string) (geometry.Size, bool) {
	c, ok := s.containers[id]
	if !ok {
		return geometry.Size{}, false
	}

	var union geometry.Rect
	found := false
	for _, mid := range c.Members() {
		m, ok := s.Entity(mid)
		if !ok {
			continue
		}
		if !found {
			union, found = m.Bounds(), true
			continue
		}
		union = union.Union(m.Bounds())
	}
	if !found {
		return geometry.Size{}, false
	}

	z := s.sizing
	return union.Outset(z.Padding, z.Padding+z.HeaderHeight, z.Padding, z.Padding).Size(), true
}

// AutoSize grows a container so that it fits its members and is at least the
// minimum size. It never shrinks a container, and it skips collapsed and
// empty containers. Returns true if the size changed.
func (s *Store) AutoSize(id string) bool {
	c, ok := s.containers[id]
	if !ok || c.Collapsed {
		return false
	}
	required, ok := s.RequiredSize(id)
	if !ok {
		return false
	}
	next := c.Size.Max(required).Max(s.sizing.MinSize)
	if next == c.Size {
		return false
	}
	c.Size = next
	return true
}

// AutoSizeAncestors applies [Store.AutoSize] to the container id and then to
// each of its ancestors, so growth of a nested container propagates
// outward. Passing a node id starts at the node's parent.
func (s *Store) AutoSizeAncestors(id string) int {
	changed := 0
	start := id
	if n, ok := s.nodes[id]; ok {
		start = n.ParentID
	}
	if start == "" {
		return 0
	}
	chain := append([]string{start}, s.Ancestors(start)...)
	for _, cid := range chain {
		if s.AutoSize(cid) {
			changed++
		}
	}
	return changed
}
