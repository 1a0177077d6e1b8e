package graph

import "github.com/matzehuels/nestgraph/pkg/geometry"

// HitTest returns the visible entity under p. Nodes are tested first in
// registration order, then containers in reverse registration order so that
// containers drawn later win on overlap. Box edges count as hits.
func (s *Store) HitTest(p geometry.Vec2) (string, bool) {
	for _, id := range s.nodeOrder {
		if s.nodes[id].Bounds().ContainsPoint(p) && s.IsVisible(id) {
			return id, true
		}
	}
	for i := len(s.containerOrder) - 1; i >= 0; i-- {
		id := s.containerOrder[i]
		if s.containers[id].Bounds().ContainsPoint(p) && s.IsVisible(id) {
			return id, true
		}
	}
	return "", false
}

// EntitiesInRect returns the visible entities whose boxes lie entirely
// inside r, nodes first, each group in registration order. It backs lasso
// selection; r may have negative extents.
func (s *Store) EntitiesInRect(r geometry.Rect) []string {
	r = r.Normalize()
	var out []string
	for _, e := range s.Nodes() {
		if r.Contains(e.Bounds()) && s.IsVisible(e.ID) {
			out = append(out, e.ID)
		}
	}
	for _, e := range s.Containers() {
		if r.Contains(e.Bounds()) && s.IsVisible(e.ID) {
			out = append(out, e.ID)
		}
	}
	return out
}
