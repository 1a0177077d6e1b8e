package editor

import (
	"slices"

	"github.com/matzehuels/nestgraph/pkg/graph"
)

// Clip is a self-contained fragment of a document: the captured entities
// and the edges running between them. Parent references point only inside
// the clip; entities whose parent was not captured are roots.
type Clip struct {
	Nodes      []graph.Entity `json:"nodes"`
	Containers []graph.Entity `json:"containers"`
	Edges      []graph.Edge   `json:"edges"`
}

// Empty reports whether the clip holds no entities.
func (c Clip) Empty() bool { return len(c.Nodes) == 0 && len(c.Containers) == 0 }

// Copy captures the selected entities, the descendants of selected
// containers and every edge whose two endpoints were both captured.
// Selected edges are ignored unless their endpoints are captured.
func (e *Editor) Copy(sel Selection) Clip {
	return copySelection(e.store, sel)
}

func copySelection(s *graph.Store, sel Selection) Clip {
	captured := make(map[string]bool)
	for _, id := range sel.Entities {
		if !s.Has(id) {
			continue
		}
		captured[id] = true
		for _, d := range s.Descendants(id) {
			captured[d] = true
		}
	}

	var clip Clip
	take := func(ent *graph.Entity) graph.Entity {
		c := graph.Entity{
			ID:        ent.ID,
			Kind:      ent.Kind,
			Label:     ent.Label,
			Position:  ent.Position,
			Size:      ent.Size,
			Ports:     slices.Clone(ent.Ports),
			Data:      ent.Data.Clone(),
			Collapsed: ent.Collapsed,
		}
		if captured[ent.ParentID] {
			c.ParentID = ent.ParentID
		}
		return c
	}
	for _, c := range s.Containers() {
		if captured[c.ID] {
			clip.Containers = append(clip.Containers, take(c))
		}
	}
	for _, n := range s.Nodes() {
		if captured[n.ID] {
			clip.Nodes = append(clip.Nodes, take(n))
		}
	}
	for _, edge := range s.Edges() {
		if captured[edge.SourceID] && captured[edge.TargetID] {
			clip.Edges = append(clip.Edges, *edge)
		}
	}
	return clip
}

// Paste inserts a copy of clip with fresh ids, shifted by the paste offset,
// and returns the selection of everything pasted. Parents and edge endpoints
// are remapped to the new ids. Pasted roots then join whichever container
// encloses them.
func (e *Editor) Paste(clip Clip) (Selection, error) {
	if clip.Empty() {
		return Selection{}, nil
	}
	ids := make(map[string]string, len(clip.Nodes)+len(clip.Containers))
	for _, c := range clip.Containers {
		ids[c.ID] = e.newID(PrefixContainer)
	}
	for _, n := range clip.Nodes {
		ids[n.ID] = e.newID(PrefixNode)
	}

	var sel Selection
	_, err := e.Apply("paste", func(s *graph.Store) error {
		sel = Selection{}
		var roots []string
		place := func(ent graph.Entity, add func(graph.Entity) error) error {
			parent := ent.ParentID
			ent.ID = ids[ent.ID]
			ent.ParentID = ""
			ent.Position = ent.Position.Add(e.pasteOffset)
			if err := add(ent); err != nil {
				return err
			}
			sel.Entities = append(sel.Entities, ent.ID)
			if _, ok := ids[parent]; !ok {
				roots = append(roots, ent.ID)
			}
			return nil
		}
		for _, c := range clip.Containers {
			if err := place(c, s.AddContainer); err != nil {
				return err
			}
		}
		for _, n := range clip.Nodes {
			if err := place(n, s.AddNode); err != nil {
				return err
			}
		}
		for _, ent := range slices.Concat(clip.Containers, clip.Nodes) {
			if newParent, ok := ids[ent.ParentID]; ok {
				if err := s.SetParent(ids[ent.ID], newParent); err != nil {
					return err
				}
			}
		}
		for _, edge := range clip.Edges {
			src, okSrc := ids[edge.SourceID]
			dst, okDst := ids[edge.TargetID]
			if !okSrc || !okDst {
				continue
			}
			edge.ID = e.newID(PrefixEdge)
			edge.SourceID, edge.TargetID = src, dst
			if err := s.AddEdge(edge); err != nil {
				return err
			}
			sel.Edges = append(sel.Edges, edge.ID)
		}
		for _, id := range roots {
			settle(s, id, true)
		}
		return nil
	})
	if err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// Cut copies the selection and deletes it in one undoable step.
func (e *Editor) Cut(sel Selection) (Clip, error) {
	clip := e.Copy(sel)
	if _, err := e.Apply("cut", deleteSelection(sel)); err != nil {
		return Clip{}, err
	}
	return clip, nil
}
