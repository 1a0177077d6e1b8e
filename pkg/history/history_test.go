package history

import (
	"bytes"
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
)

func snapshot(t *testing.T, s *graph.Store) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(s.ExportState()); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func edit(t *testing.T, s *graph.Store, m *Manager, label string, fn func(*graph.Store) error) {
	t.Helper()
	before := s.ExportState()
	if err := fn(s); err != nil {
		t.Fatalf("%s: %v", label, err)
	}
	m.Commit(label, before, s.ExportState())
}

func mutations() []struct {
	label string
	fn    func(*graph.Store) error
} {
	return []struct {
		label string
		fn    func(*graph.Store) error
	}{
		{"add container", func(s *graph.Store) error {
			return s.AddContainer(graph.Entity{ID: "c1", Position: geometry.Vec2{X: 100, Y: 50}, Size: geometry.Size{Width: 300, Height: 300}})
		}},
		{"add node", func(s *graph.Store) error {
			return s.AddNode(graph.Entity{ID: "a", Position: geometry.Vec2{X: 120, Y: 100}, Ports: []graph.Port{{ID: "p"}}})
		}},
		{"drop into container", func(s *graph.Store) error {
			s.ResolveContainment("a")
			s.AutoSizeAncestors("a")
			return nil
		}},
		{"add peer and edge", func(s *graph.Store) error {
			if err := s.AddNode(graph.Entity{ID: "b", Position: geometry.Vec2{X: 600, Y: 100}}); err != nil {
				return err
			}
			return s.AddEdge(graph.Edge{ID: "e", SourceID: "a", SourcePortID: "p", TargetID: "b"})
		}},
		{"collapse", func(s *graph.Store) error {
			s.ToggleCollapsed("c1")
			return nil
		}},
		{"remove port", func(s *graph.Store) error {
			s.RemovePortAndEdges("a", "p")
			return nil
		}},
		{"remove container", func(s *graph.Store) error {
			s.RemoveContainer("c1")
			return nil
		}},
		{"re-add container", func(s *graph.Store) error {
			return s.AddContainer(graph.Entity{ID: "c1", Size: geometry.Size{Width: 900, Height: 900}})
		}},
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := graph.New()
	m := NewManager(0)
	initial := snapshot(t, s)

	steps := mutations()
	for _, step := range steps {
		edit(t, s, m, step.label, step.fn)
	}
	final := snapshot(t, s)

	if m.UndoLen() != len(steps) {
		t.Fatalf("UndoLen = %d, want %d", m.UndoLen(), len(steps))
	}

	for i := range steps {
		if _, ok, err := m.Undo(s); !ok || err != nil {
			t.Fatalf("undo %d: ok=%v err=%v", i, ok, err)
		}
		if err := s.Validate(); err != nil {
			t.Fatalf("invalid after undo %d: %v", i, err)
		}
	}
	if got := snapshot(t, s); got != initial {
		t.Errorf("after undoing everything:\n%s\nwant\n%s", got, initial)
	}

	for i := range steps {
		if _, ok, err := m.Redo(s); !ok || err != nil {
			t.Fatalf("redo %d: ok=%v err=%v", i, ok, err)
		}
	}
	if got := snapshot(t, s); got != final {
		t.Errorf("after redoing everything:\n%s\nwant\n%s", got, final)
	}
}

func TestUndoRedoStepwise(t *testing.T) {
	s := graph.New()
	m := NewManager(0)

	var states []string
	for _, step := range mutations() {
		states = append(states, snapshot(t, s))
		edit(t, s, m, step.label, step.fn)
	}

	for i := len(states) - 1; i >= 0; i-- {
		e, _, _ := m.Undo(s)
		if got := snapshot(t, s); got != states[i] {
			t.Fatalf("undo of %q produced\n%s\nwant\n%s", e.Meta.Label, got, states[i])
		}
	}
}

func TestEmptyStacksAreNoops(t *testing.T) {
	s := graph.New()
	m := NewManager(0)

	if _, ok, err := m.Undo(s); ok || err != nil {
		t.Errorf("Undo on empty = (%v, %v)", ok, err)
	}
	if _, ok, err := m.Redo(s); ok || err != nil {
		t.Errorf("Redo on empty = (%v, %v)", ok, err)
	}
	if m.CanUndo() || m.CanRedo() {
		t.Error("empty manager claims it can undo or redo")
	}
}

func TestCommitClearsRedo(t *testing.T) {
	s := graph.New()
	m := NewManager(0)
	steps := mutations()

	edit(t, s, m, steps[0].label, steps[0].fn)
	edit(t, s, m, steps[1].label, steps[1].fn)
	m.Undo(s)
	if !m.CanRedo() {
		t.Fatal("nothing to redo after undo")
	}

	edit(t, s, m, "divergent", func(s *graph.Store) error {
		return s.AddNode(graph.Entity{ID: "z"})
	})
	if m.CanRedo() {
		t.Error("redo stack survived a new commit")
	}
}

func TestCommitIgnoresNoChange(t *testing.T) {
	s := graph.New()
	m := NewManager(0)
	doc := s.ExportState()
	if _, ok := m.Commit("nothing", doc, doc); ok {
		t.Error("identical snapshots were recorded")
	}
	if m.UndoLen() != 0 {
		t.Errorf("UndoLen = %d", m.UndoLen())
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	s := graph.New()
	m := NewManager(3)

	var states []string
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		states = append(states, snapshot(t, s))
		edit(t, s, m, id, func(s *graph.Store) error {
			return s.AddNode(graph.Entity{ID: id, Position: geometry.Vec2{X: float64(i) * 200}})
		})
	}

	if m.UndoLen() != 3 {
		t.Fatalf("UndoLen = %d, want 3", m.UndoLen())
	}
	if got := m.Labels(); !slices.Equal(got, []string{"e", "d", "c"}) {
		t.Errorf("Labels() = %v", got)
	}
	for m.CanUndo() {
		m.Undo(s)
	}
	if got := snapshot(t, s); got != states[2] {
		t.Errorf("oldest reachable state = %s, want %s", got, states[2])
	}
}

func TestDiffOrderOnly(t *testing.T) {
	a := graph.Entity{ID: "a", Kind: graph.KindNode}
	b := graph.Entity{ID: "b", Kind: graph.KindNode}
	before := graph.Document{Nodes: []graph.Entity{a, b}}
	after := graph.Document{Nodes: []graph.Entity{b, a}}

	forward, inverse := Diff(before, after)
	if forward.Len() != 0 || !slices.Equal(forward.Nodes.Order, []string{"b", "a"}) {
		t.Errorf("forward = %+v", forward)
	}
	got, err := inverse.ApplyTo(after)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(before) {
		t.Errorf("inverse produced %+v", got)
	}
}

func TestDiffAppendNeedsNoOrder(t *testing.T) {
	before := graph.Document{Edges: []graph.Edge{{ID: "e1"}}}
	after := graph.Document{Edges: []graph.Edge{{ID: "e1"}, {ID: "e2"}}}

	forward, inverse := Diff(before, after)
	if forward.Edges.Order != nil || len(forward.Edges.Put) != 1 {
		t.Errorf("forward = %+v", forward.Edges)
	}
	if !slices.Equal(inverse.Edges.Delete, []string{"e2"}) {
		t.Errorf("inverse = %+v", inverse.Edges)
	}
}

func TestApplyRejectsInconsistentResult(t *testing.T) {
	s := graph.New()
	_ = s.AddContainer(graph.Entity{ID: "c", Size: geometry.Size{Width: 400, Height: 400}})
	_ = s.AddNode(graph.Entity{ID: "a", ParentID: "c"})
	before := snapshot(t, s)

	bad := Patch{Containers: Changes[graph.Entity]{Delete: []string{"c"}}}
	if err := bad.Apply(s); err == nil {
		t.Fatal("patch leaving a dangling parent was applied")
	}
	if got := snapshot(t, s); got != before {
		t.Error("store changed by a rejected patch")
	}
}

func TestRecordStampsTime(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewManager(0, WithClock(func() time.Time { return fixed }))
	m.Record(Entry{Meta: Meta{Label: "x"}})

	s := graph.New()
	e, ok, err := m.Undo(s)
	if !ok || err != nil {
		t.Fatalf("Undo = %v, %v", ok, err)
	}
	if !e.Meta.At.Equal(fixed) {
		t.Errorf("At = %v", e.Meta.At)
	}
}
