package graph

import "slices"

// Clone returns a deep, fully independent copy of the store. Mutating the
// copy never affects the original, which is what makes speculative edits
// safe to discard.
func (s *Store) Clone() *Store {
	c := &Store{
		nodes:          make(map[string]*Entity, len(s.nodes)),
		containers:     make(map[string]*Entity, len(s.containers)),
		edges:          make(map[string]*Edge, len(s.edges)),
		nodeOrder:      slices.Clone(s.nodeOrder),
		containerOrder: slices.Clone(s.containerOrder),
		edgeOrder:      slices.Clone(s.edgeOrder),
		sizing:         s.sizing,
		logger:         s.logger,
	}
	for id, n := range s.nodes {
		c.nodes[id] = n.clone()
	}
	for id, ct := range s.containers {
		c.containers[id] = ct.clone()
	}
	for id, e := range s.edges {
		edge := *e
		c.edges[id] = &edge
	}
	return c
}
