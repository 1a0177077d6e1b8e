package graph

import "slices"

// AddPort appends a port to an entity. A missing entity, an empty port id or
// a port id already present on the entity is logged and ignored; the return
// value reports whether the port was added.
func (s *Store) AddPort(entityID string, p Port) bool {
	e, ok := s.Entity(entityID)
	if !ok {
		s.logger.Warn("add port: entity not found", "entity", entityID, "port", p.ID)
		return false
	}
	if p.ID == "" {
		s.logger.Warn("add port: empty port id", "entity", entityID)
		return false
	}
	if _, exists := e.Port(p.ID); exists {
		s.logger.Warn("add port: duplicate port id", "entity", entityID, "port", p.ID)
		return false
	}
	e.Ports = append(e.Ports, p)
	return true
}

// RenamePort changes the label of a port.
func (s *Store) RenamePort(entityID, portID, label string) bool {
	e, ok := s.Entity(entityID)
	if !ok {
		return false
	}
	for i := range e.Ports {
		if e.Ports[i].ID == portID {
			e.Ports[i].Label = label
			return true
		}
	}
	return false
}

// RemovePortAndEdges removes a port from an entity together with every edge
// attached to that exact (entity, port) pair. Edges using a port with the
// same id on another entity are left alone. ok is false if the entity or
// the port does not exist.
func (s *Store) RemovePortAndEdges(entityID, portID string) (removed int, ok bool) {
	e, found := s.Entity(entityID)
	if !found {
		return 0, false
	}
	idx := slices.IndexFunc(e.Ports, func(p Port) bool { return p.ID == portID })
	if idx < 0 {
		return 0, false
	}
	e.Ports = slices.Delete(e.Ports, idx, idx+1)
	return s.removeEdgesWhere(func(edge *Edge) bool { return edge.UsesPort(entityID, portID) }), true
}

// ConnectedPorts returns the ids of the entity's ports that terminate at
// least one edge.
func (s *Store) ConnectedPorts(entityID string) map[string]bool {
	out := make(map[string]bool)
	for _, eid := range s.edgeOrder {
		e := s.edges[eid]
		if e.SourceID == entityID && e.SourcePortID != "" {
			out[e.SourcePortID] = true
		}
		if e.TargetID == entityID && e.TargetPortID != "" {
			out[e.TargetPortID] = true
		}
	}
	return out
}
