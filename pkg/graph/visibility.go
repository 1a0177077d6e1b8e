package graph

// Proxy port directions.
const (
	ProxyOutgoing = "out"
	ProxyIncoming = "in"
)

// IsVisible reports whether no container above the entity is collapsed. The
// walk is bounded by a visited set, so a corrupted parent chain ends the walk
// instead of looping; the entity is then treated as visible.
func (s *Store) IsVisible(id string) bool {
	e, ok := s.Entity(id)
	if !ok {
		return false
	}
	seen := map[string]bool{id: true}
	for pid := e.ParentID; pid != ""; {
		if seen[pid] {
			s.logger.Debug("containment cycle while resolving visibility", "entity", id, "at", pid)
			return true
		}
		seen[pid] = true
		p, ok := s.containers[pid]
		if !ok {
			return true
		}
		if p.Collapsed {
			return false
		}
		pid = p.ParentID
	}
	return true
}

// VisibleRepresentative returns the entity that stands in for id on screen:
// id itself when visible, otherwise its outermost collapsed ancestor.
func (s *Store) VisibleRepresentative(id string) string {
	rep := id
	for _, aid := range s.Ancestors(id) {
		if c := s.containers[aid]; c.Collapsed {
			rep = aid
		}
	}
	return rep
}

// ProxyPort is a synthetic port shown on a collapsed container for an edge
// that crosses its boundary.
type ProxyPort struct {
	Port
	EdgeID      string // Edge the proxy stands for
	Direction   string // ProxyOutgoing or ProxyIncoming
	InnerID     string // Member entity the edge actually attaches to
	InnerPortID string // Port on the member entity, if any
}

// ProxyPorts returns one proxy port per edge with exactly one endpoint
// among the container's nested members, in edge registration order. Returns
// nil unless the container exists and is collapsed.
//
// A proxy reuses the inner port id when the edge names one and falls back to
// "proxy-src-<edge>" or "proxy-tgt-<edge>" otherwise. Its label is
// "<member label>.<port label>" when the inner port exists, else "out" or
// "in".
func (s *Store) ProxyPorts(containerID string) []ProxyPort {
	c, ok := s.containers[containerID]
	if !ok || !c.Collapsed {
		return nil
	}

	inside := make(map[string]bool)
	for _, id := range s.Descendants(containerID) {
		inside[id] = true
	}

	var out []ProxyPort
	for _, eid := range s.edgeOrder {
		e := s.edges[eid]
		srcIn, tgtIn := inside[e.SourceID], inside[e.TargetID]
		switch {
		case srcIn && !tgtIn:
			out = append(out, s.proxy(e, e.SourceID, e.SourcePortID, ProxyOutgoing, "proxy-src-"))
		case tgtIn && !srcIn:
			out = append(out, s.proxy(e, e.TargetID, e.TargetPortID, ProxyIncoming, "proxy-tgt-"))
		}
	}
	return out
}

func (s *Store) proxy(e *Edge, innerID, innerPortID, dir, prefix string) ProxyPort {
	p := ProxyPort{EdgeID: e.ID, Direction: dir, InnerID: innerID, InnerPortID: innerPortID}
	p.ID = innerPortID
	if p.ID == "" {
		p.ID = prefix + e.ID
	}
	p.Label = dir
	if inner, ok := s.Entity(innerID); ok {
		if port, ok := inner.Port(innerPortID); ok && innerPortID != "" {
			p.Label = inner.Label + "." + port.Label
		}
	}
	return p
}

// RenderablePorts returns the ports a renderer should draw for an entity:
// its own ports followed, for collapsed containers, by its proxy ports.
func (s *Store) RenderablePorts(id string) []Port {
	e, ok := s.Entity(id)
	if !ok {
		return nil
	}
	out := append([]Port(nil), e.Ports...)
	for _, p := range s.ProxyPorts(id) {
		out = append(out, p.Port)
	}
	return out
}
