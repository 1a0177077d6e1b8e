package graph

import "github.com/matzehuels/nestgraph/pkg/geometry"

// PortPosition returns the world-space anchor of a port.
//
// A port that terminates an edge slides along the entity's border to face
// the other endpoint: the anchor is where the ray from the entity's center
// to the peer's center leaves the entity's box. Unconnected ports are spread
// evenly down the left edge in port order. Proxy ports of a collapsed
// container are treated as connected ports.
//
// ok is false when the entity does not exist, and also when the port does
// not, in which case the entity's center is returned.
func (s *Store) PortPosition(entityID, portID string) (geometry.Vec2, bool) {
	e, found := s.Entity(entityID)
	if !found {
		return geometry.Vec2{}, false
	}
	center := e.Center()

	if _, own := e.Port(portID); !own {
		for _, p := range s.ProxyPorts(entityID) {
			if p.ID == portID {
				edge := s.edges[p.EdgeID]
				peer := edge.TargetID
				if p.Direction == ProxyIncoming {
					peer = edge.SourceID
				}
				return s.facing(e, peer), true
			}
		}
		return center, false
	}

	for _, eid := range s.edgeOrder {
		edge := s.edges[eid]
		if !edge.UsesPort(entityID, portID) {
			continue
		}
		peer := edge.TargetID
		if edge.TargetID == entityID && edge.TargetPortID == portID {
			peer = edge.SourceID
		}
		if _, ok := s.Entity(peer); ok {
			return s.facing(e, peer), true
		}
	}

	connected := s.ConnectedPorts(entityID)
	var free []string
	for _, p := range e.Ports {
		if !connected[p.ID] {
			free = append(free, p.ID)
		}
	}
	for i, id := range free {
		if id == portID {
			return geometry.Vec2{
				X: e.Position.X,
				Y: geometry.SpreadAlong(e.Position.Y, e.Size.Height, i, len(free)),
			}, true
		}
	}
	return center, true
}

// facing returns the point on e's border facing the center of peer.
func (s *Store) facing(e *Entity, peer string) geometry.Vec2 {
	center := e.Center()
	p, ok := s.Entity(peer)
	if !ok {
		return center
	}
	return geometry.RectIntersection(center, e.Size, p.Center())
}

// EdgeAnchors returns the two endpoints a renderer should draw an edge
// between. Endpoints hidden inside collapsed containers are drawn at the
// outermost collapsed ancestor. Named ports use [Store.PortPosition] (with
// the proxy port id when the endpoint is hidden); otherwise the anchor is the
// border point facing the other end. ok is false for unknown edges or edges
// whose ends collapse into the same entity.
func (s *Store) EdgeAnchors(edgeID string) (src, dst geometry.Vec2, ok bool) {
	edge, found := s.edges[edgeID]
	if !found {
		return src, dst, false
	}
	srcRep := s.VisibleRepresentative(edge.SourceID)
	dstRep := s.VisibleRepresentative(edge.TargetID)
	if srcRep == dstRep {
		return src, dst, false
	}
	src = s.edgeEnd(edge, srcRep, edge.SourceID, edge.SourcePortID, "proxy-src-", dstRep)
	dst = s.edgeEnd(edge, dstRep, edge.TargetID, edge.TargetPortID, "proxy-tgt-", srcRep)
	return src, dst, true
}

func (s *Store) edgeEnd(edge *Edge, rep, endID, portID, proxyPrefix, otherRep string) geometry.Vec2 {
	e, _ := s.Entity(rep)
	if pid := endPort(edge, rep, endID, portID, proxyPrefix); pid != "" {
		if p, ok := s.PortPosition(rep, pid); ok {
			return p
		}
	}
	return s.facing(e, otherRep)
}

// endPort names the port an edge end attaches to on its representative:
// the edge's own port when the endpoint is visible, else the proxy port.
func endPort(edge *Edge, rep, endID, portID, proxyPrefix string) string {
	if rep == endID || portID != "" {
		return portID
	}
	return proxyPrefix + edge.ID
}

// VisibleEdge is an edge as drawn. Each end names the visible
// representative of its endpoint and the port used there, which is a proxy
// port id when the endpoint is hidden.
type VisibleEdge struct {
	Edge       *Edge
	Source     string
	SourcePort string
	Target     string
	TargetPort string
}

// VisibleEdges returns the drawable edges in registration order, skipping
// edges whose two ends share one representative.
func (s *Store) VisibleEdges() []VisibleEdge {
	var out []VisibleEdge
	for _, eid := range s.edgeOrder {
		e := s.edges[eid]
		src := s.VisibleRepresentative(e.SourceID)
		dst := s.VisibleRepresentative(e.TargetID)
		if src == dst {
			continue
		}
		out = append(out, VisibleEdge{
			Edge:       e,
			Source:     src,
			SourcePort: endPort(e, src, e.SourceID, e.SourcePortID, "proxy-src-"),
			Target:     dst,
			TargetPort: endPort(e, dst, e.TargetID, e.TargetPortID, "proxy-tgt-"),
		})
	}
	return out
}
