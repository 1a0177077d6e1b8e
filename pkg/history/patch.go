package history

import (
	"fmt"
	"slices"

	"github.com/matzehuels/nestgraph/pkg/graph"
)

// Changes describes how one collection differs between two snapshots.
type Changes[T any] struct {
	// Put holds records that are new or whose contents changed, in the
	// order they appear in the resulting snapshot.
	Put []T `json:"put,omitempty"`
	// Delete holds the ids of records that no longer exist.
	Delete []string `json:"delete,omitempty"`
	// Order is the complete id order of the resulting collection. It is
	// only set when applying Put and Delete alone would not reproduce it.
	Order []string `json:"order,omitempty"`
}

// Len returns the number of records touched.
func (c Changes[T]) Len() int { return len(c.Put) + len(c.Delete) }

// Patch is a one-directional change between two document snapshots. Applying
// the forward patch of a [Diff] to the "before" snapshot yields the "after"
// snapshot exactly, order included.
type Patch struct {
	Nodes      Changes[graph.Entity] `json:"nodes"`
	Containers Changes[graph.Entity] `json:"containers"`
	Edges      Changes[graph.Edge]   `json:"edges"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Len() == 0 && p.Nodes.Order == nil && p.Containers.Order == nil && p.Edges.Order == nil
}

// Len returns the number of records the patch touches.
func (p Patch) Len() int { return p.Nodes.Len() + p.Containers.Len() + p.Edges.Len() }

// Diff returns the forward patch turning before into after and the inverse
// patch turning after back into before.
func Diff(before, after graph.Document) (forward, inverse Patch) {
	forward = Patch{
		Nodes:      diff(before.Nodes, after.Nodes, entityID, entityEqual),
		Containers: diff(before.Containers, after.Containers, entityID, entityEqual),
		Edges:      diff(before.Edges, after.Edges, edgeID, edgeEqual),
	}
	inverse = Patch{
		Nodes:      diff(after.Nodes, before.Nodes, entityID, entityEqual),
		Containers: diff(after.Containers, before.Containers, entityID, entityEqual),
		Edges:      diff(after.Edges, before.Edges, edgeID, edgeEqual),
	}
	return forward, inverse
}

// ApplyTo returns doc with the patch applied. doc itself is not modified.
func (p Patch) ApplyTo(doc graph.Document) (graph.Document, error) {
	var out graph.Document
	var err error
	if out.Nodes, err = apply(doc.Nodes, p.Nodes, entityID); err != nil {
		return graph.Document{}, fmt.Errorf("nodes: %w", err)
	}
	if out.Containers, err = apply(doc.Containers, p.Containers, entityID); err != nil {
		return graph.Document{}, fmt.Errorf("containers: %w", err)
	}
	if out.Edges, err = apply(doc.Edges, p.Edges, edgeID); err != nil {
		return graph.Document{}, fmt.Errorf("edges: %w", err)
	}
	return out, nil
}

// Apply applies the patch to s. If the result would be inconsistent, s is
// left unchanged and the error is returned.
func (p Patch) Apply(s *graph.Store) error {
	next, err := p.ApplyTo(s.ExportState())
	if err != nil {
		return err
	}
	return s.Restore(next)
}

func entityID(e graph.Entity) string     { return e.ID }
func edgeID(e graph.Edge) string         { return e.ID }
func entityEqual(a, b graph.Entity) bool { return a.Equal(&b) }
func edgeEqual(a, b graph.Edge) bool     { return a == b }

func diff[T any](before, after []T, id func(T) string, equal func(a, b T) bool) Changes[T] {
	var c Changes[T]
	old := make(map[string]T, len(before))
	for _, r := range before {
		old[id(r)] = r
	}
	kept := make(map[string]bool, len(after))
	for _, r := range after {
		k := id(r)
		kept[k] = true
		if prev, ok := old[k]; !ok || !equal(prev, r) {
			c.Put = append(c.Put, r)
		}
	}

	var predicted []string
	for _, r := range before {
		if k := id(r); kept[k] {
			predicted = append(predicted, k)
		} else {
			c.Delete = append(c.Delete, k)
		}
	}
	for _, r := range after {
		if _, existed := old[id(r)]; !existed {
			predicted = append(predicted, id(r))
		}
	}

	order := make([]string, len(after))
	for i, r := range after {
		order[i] = id(r)
	}
	if !slices.Equal(predicted, order) {
		c.Order = order
	}
	return c
}

func apply[T any](records []T, c Changes[T], id func(T) string) ([]T, error) {
	deleted := make(map[string]bool, len(c.Delete))
	for _, k := range c.Delete {
		deleted[k] = true
	}
	put := make(map[string]T, len(c.Put))
	for _, r := range c.Put {
		put[id(r)] = r
	}

	out := make([]T, 0, len(records)+len(c.Put))
	present := make(map[string]bool, len(records))
	for _, r := range records {
		k := id(r)
		if deleted[k] {
			continue
		}
		present[k] = true
		if repl, ok := put[k]; ok {
			out = append(out, repl)
			continue
		}
		out = append(out, r)
	}
	for _, r := range c.Put {
		if !present[id(r)] {
			out = append(out, r)
		}
	}

	if c.Order == nil {
		return out, nil
	}
	if len(c.Order) != len(out) {
		return nil, fmt.Errorf("order lists %d ids, collection has %d", len(c.Order), len(out))
	}
	byID := make(map[string]T, len(out))
	for _, r := range out {
		byID[id(r)] = r
	}
	ordered := make([]T, 0, len(out))
	for _, k := range c.Order {
		r, ok := byID[k]
		if !ok {
			return nil, fmt.Errorf("order names unknown id %q", k)
		}
		ordered = append(ordered, r)
		delete(byID, k)
	}
	return ordered, nil
}
