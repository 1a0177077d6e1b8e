package editor

import (
	"slices"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
)

// AddNode places a node and returns its id. An empty ID is generated. When
// ParentID is empty the node joins whichever container encloses it.
func (e *Editor) AddNode(n graph.Entity) (string, error) {
	if n.ID == "" {
		n.ID = e.newID(PrefixNode)
	}
	_, err := e.Apply("add node", func(s *graph.Store) error {
		if err := s.AddNode(n); err != nil {
			return err
		}
		settle(s, n.ID, n.ParentID == "")
		return nil
	})
	return n.ID, err
}

// AddContainer places an empty container and returns its id.
func (e *Editor) AddContainer(c graph.Entity) (string, error) {
	if c.ID == "" {
		c.ID = e.newID(PrefixContainer)
	}
	_, err := e.Apply("add container", func(s *graph.Store) error {
		if err := s.AddContainer(c); err != nil {
			return err
		}
		settle(s, c.ID, c.ParentID == "")
		return nil
	})
	return c.ID, err
}

// settle re-resolves an entity placed by a gesture and grows the containers
// above it. The entity's own size is never touched.
func settle(s *graph.Store, id string, resolve bool) {
	if resolve {
		s.ResolveContainment(id)
	}
	if ent, ok := s.Entity(id); ok && ent.ParentID != "" {
		s.AutoSizeAncestors(ent.ParentID)
	}
}

// Connect adds an edge and returns its id. Connecting an entity to itself
// is rejected with INVALID_INPUT.
func (e *Editor) Connect(edge graph.Edge) (string, error) {
	if edge.SourceID == edge.TargetID {
		return "", errs.New(errs.ErrCodeInvalidInput, "cannot connect %q to itself", edge.SourceID)
	}
	if edge.ID == "" {
		edge.ID = e.newID(PrefixEdge)
	}
	_, err := e.Apply("connect", func(s *graph.Store) error {
		return s.AddEdge(edge)
	})
	return edge.ID, err
}

// AddPort adds a port to an entity. Missing entities and duplicate port ids
// leave the document unchanged.
func (e *Editor) AddPort(entityID string, p graph.Port) (bool, error) {
	return e.Apply("add port", func(s *graph.Store) error {
		s.AddPort(entityID, p)
		return nil
	})
}

// RemovePort removes a port together with every edge attached to it.
func (e *Editor) RemovePort(entityID, portID string) (bool, error) {
	return e.Apply("remove port", func(s *graph.Store) error {
		s.RemovePortAndEdges(entityID, portID)
		return nil
	})
}

// Move translates the given entities by delta as one gesture. Containers
// carry their descendants along. At the end the drag roots are re-resolved
// first, then every visible carried descendant, outermost first, and the
// containers they land in grow to fit. Descendants hidden under a collapsed
// container keep their parents.
func (e *Editor) Move(ids []string, delta geometry.Vec2) (bool, error) {
	return e.Apply("move", func(s *graph.Store) error {
		roots := dragRoots(s, ids)
		moved := make(map[string]bool)
		var carried []string
		for _, id := range roots {
			group := append([]string{id}, s.Descendants(id)...)
			for i, mid := range group {
				if moved[mid] {
					continue
				}
				moved[mid] = true
				ent, _ := s.Entity(mid)
				s.Move(mid, ent.Position.Add(delta))
				if i > 0 {
					carried = append(carried, mid)
				}
			}
		}
		for _, id := range roots {
			settle(s, id, true)
		}
		for _, id := range carried {
			if s.IsVisible(id) {
				settle(s, id, true)
			}
		}
		return nil
	})
}

// dragRoots drops unknown ids, duplicates and ids nested inside another
// dragged entity.
func dragRoots(s *graph.Store, ids []string) []string {
	var roots []string
	for _, id := range ids {
		if !s.Has(id) || slices.Contains(roots, id) {
			continue
		}
		if _, isEdge := s.Edge(id); isEdge {
			continue
		}
		nested := false
		for _, other := range ids {
			if other != id && s.IsDescendant(id, other) {
				nested = true
				break
			}
		}
		if !nested {
			roots = append(roots, id)
		}
	}
	return roots
}

// Resize sets the size of an entity. Containers never go below the minimum
// container size. The resized entity is re-resolved, without considering
// itself as a candidate, and its new ancestors grow to fit. The entity's
// own size is left as given even if it is now smaller than its content.
func (e *Editor) Resize(id string, size geometry.Size) (bool, error) {
	return e.Apply("resize", func(s *graph.Store) error {
		ent, ok := s.Entity(id)
		if !ok {
			return nil
		}
		if ent.IsContainer() {
			size = size.Max(s.Sizing().MinSize)
		}
		s.Resize(id, size)
		s.ResolveContainment(id, id)
		if ent.ParentID != "" {
			s.AutoSizeAncestors(ent.ParentID)
		}
		return nil
	})
}

// ToggleCollapse flips a container between collapsed and expanded.
func (e *Editor) ToggleCollapse(id string) (bool, error) {
	return e.Apply("toggle collapse", func(s *graph.Store) error {
		s.ToggleCollapsed(id)
		return nil
	})
}

// Rename sets the label of an entity.
func (e *Editor) Rename(id, label string) (bool, error) {
	return e.Apply("rename", func(s *graph.Store) error {
		s.SetLabel(id, label)
		return nil
	})
}

// RenameEdge sets the label of an edge.
func (e *Editor) RenameEdge(id, label string) (bool, error) {
	return e.Apply("rename edge", func(s *graph.Store) error {
		s.SetEdgeLabel(id, label)
		return nil
	})
}

// RenamePort sets the label of a port.
func (e *Editor) RenamePort(entityID, portID, label string) (bool, error) {
	return e.Apply("rename port", func(s *graph.Store) error {
		s.RenamePort(entityID, portID, label)
		return nil
	})
}

// SetData sets one attribute in an entity's data bag. A nil value removes
// the key.
func (e *Editor) SetData(id, key string, value any) (bool, error) {
	return e.Apply("set data", func(s *graph.Store) error {
		s.SetData(id, key, value)
		return nil
	})
}

// Delete removes the selected edges and entities. Containers take their
// descendants with them and every edge touching a removed entity goes too.
func (e *Editor) Delete(sel Selection) (bool, error) {
	return e.Apply("delete", deleteSelection(sel))
}

func deleteSelection(sel Selection) func(*graph.Store) error {
	return func(s *graph.Store) error {
		for _, id := range sel.Edges {
			s.RemoveEdge(id)
		}
		for _, id := range sel.Entities {
			s.Remove(id)
		}
		return nil
	}
}
