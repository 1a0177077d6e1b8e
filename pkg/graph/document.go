package graph

import (
	errs "github.com/matzehuels/nestgraph/pkg/errors"
)

// ExportState returns a snapshot of the store. The snapshot shares no memory
// with the store and lists every collection in insertion order.
func (s *Store) ExportState() Document {
	doc := Document{
		Nodes:      make([]Entity, 0, len(s.nodeOrder)),
		Containers: make([]Entity, 0, len(s.containerOrder)),
		Edges:      make([]Edge, 0, len(s.edgeOrder)),
	}
	for _, id := range s.nodeOrder {
		doc.Nodes = append(doc.Nodes, *s.nodes[id].clone())
	}
	for _, id := range s.containerOrder {
		doc.Containers = append(doc.Containers, *s.containers[id].clone())
	}
	for _, id := range s.edgeOrder {
		doc.Edges = append(doc.Edges, *s.edges[id])
	}
	return doc
}

// ImportState replaces the store's contents with doc. Missing (nil)
// collections are treated as empty. The document must describe a
// consistent graph: membership lists and parent ids must agree, and edges
// must reference existing entities and ports.
//
// On any failure the store is left empty and valid, the problem is logged,
// and a MALFORMED_INPUT error wrapping the cause is returned. A store is
// never left half-populated.
func (s *Store) ImportState(doc Document) error {
	if err := s.importState(doc); err != nil {
		s.reset()
		s.logger.Warn("import rejected, starting from an empty document", "err", err)
		return errs.Wrap(errs.ErrCodeMalformedInput, err, "import document")
	}
	return nil
}

func (s *Store) importState(doc Document) error {
	s.reset()
	ids := make(map[string]bool, doc.Len())
	claim := func(id string) error {
		if err := errs.ValidateID(id); err != nil {
			return err
		}
		if ids[id] {
			return errs.New(errs.ErrCodeDuplicateID, "id %q used more than once", id)
		}
		ids[id] = true
		return nil
	}

	for i := range doc.Nodes {
		n := doc.Nodes[i].clone()
		if err := claim(n.ID); err != nil {
			return err
		}
		n.Kind = KindNode
		s.nodes[n.ID] = n
		s.nodeOrder = append(s.nodeOrder, n.ID)
	}
	for i := range doc.Containers {
		c := doc.Containers[i].clone()
		if err := claim(c.ID); err != nil {
			return err
		}
		c.Kind = KindContainer
		s.containers[c.ID] = c
		s.containerOrder = append(s.containerOrder, c.ID)
	}
	for i := range doc.Edges {
		e := doc.Edges[i]
		if err := claim(e.ID); err != nil {
			return err
		}
		s.edges[e.ID] = &e
		s.edgeOrder = append(s.edgeOrder, e.ID)
	}
	return s.Validate()
}

func (s *Store) reset() {
	s.nodes = make(map[string]*Entity)
	s.containers = make(map[string]*Entity)
	s.edges = make(map[string]*Edge)
	s.nodeOrder, s.containerOrder, s.edgeOrder = nil, nil, nil
}

// FromDocument builds a store from a snapshot. On error the returned store is
// empty but usable.
func FromDocument(doc Document, opts ...Option) (*Store, error) {
	s := New(opts...)
	err := s.ImportState(doc)
	return s, err
}

// Restore replaces the store's contents with doc if doc is consistent. Unlike
// [Store.ImportState], a rejected document leaves the store untouched, which
// is what history replay needs.
func (s *Store) Restore(doc Document) error {
	next := &Store{sizing: s.sizing, logger: s.logger}
	if err := next.importState(doc); err != nil {
		return errs.Wrap(errs.ErrCodeMalformedInput, err, "restore document")
	}
	s.nodes, s.containers, s.edges = next.nodes, next.containers, next.edges
	s.nodeOrder, s.containerOrder, s.edgeOrder = next.nodeOrder, next.containerOrder, next.edgeOrder
	return nil
}
