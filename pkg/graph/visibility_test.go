package graph

import (
	"slices"
	"testing"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
)

func TestIsVisible(t *testing.T) {
	s := New()
	mustContainers(t, s,
		box("top", 0, 0, 1000, 1000),
		within("top", box("mid", 10, 40, 600, 600)),
	)
	mustNodes(t, s, within("mid", node("leaf", 20, 80)), node("free", 2000, 0))

	visible := func(want map[string]bool) {
		t.Helper()
		for id, w := range want {
			if got := s.IsVisible(id); got != w {
				t.Errorf("IsVisible(%s) = %v, want %v", id, got, w)
			}
		}
	}

	visible(map[string]bool{"top": true, "mid": true, "leaf": true, "free": true})

	s.ToggleCollapsed("mid")
	visible(map[string]bool{"top": true, "mid": true, "leaf": false})

	s.ToggleCollapsed("top")
	visible(map[string]bool{"top": true, "mid": false, "leaf": false, "free": true})

	s.ToggleCollapsed("mid")
	visible(map[string]bool{"mid": false, "leaf": false})

	s.ToggleCollapsed("top")
	visible(map[string]bool{"top": true, "mid": true, "leaf": true})

	if s.IsVisible("ghost") {
		t.Error("IsVisible(ghost) = true")
	}
}

func TestIsVisibleTerminatesOnCycle(t *testing.T) {
	s := New()
	mustContainers(t, s, box("a", 0, 0, 100, 100), box("b", 0, 0, 100, 100))
	mustNodes(t, s, node("n", 0, 0))
	// Corrupt the store directly; public methods cannot create a cycle.
	s.containers["a"].ParentID = "b"
	s.containers["b"].ParentID = "a"
	s.nodes["n"].ParentID = "a"

	if !s.IsVisible("n") {
		t.Error("IsVisible(n) = false, want true when the chain loops without a collapsed container")
	}
	if err := s.Validate(); !hasCode(err, errs.ErrCodeContainmentCycle) {
		t.Errorf("Validate() = %v, want a containment cycle", err)
	}
}

func hasCode(err error, code errs.Code) bool {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return errs.Is(err, code)
	}
	for _, e := range joined.Unwrap() {
		if errs.Is(e, code) {
			return true
		}
	}
	return false
}

func proxyFixture(t *testing.T) *Store {
	t.Helper()
	s := New()
	mustContainers(t, s, box("C", 0, 0, 1000, 1000), within("C", box("D", 500, 500, 400, 400)))
	mustNodes(t, s,
		within("C", Entity{ID: "A", Label: "Alpha", Ports: []Port{{ID: "p1", Label: "out1"}}}),
		within("C", node("B", 200, 200)),
		within("D", node("deep", 520, 540)),
		node("X", 2000, 0),
	)
	mustEdges(t, s,
		Edge{ID: "e1", SourceID: "A", SourcePortID: "p1", TargetID: "X"},
		Edge{ID: "e2", SourceID: "X", TargetID: "B"},
		Edge{ID: "e3", SourceID: "A", TargetID: "B"},
		Edge{ID: "e4", SourceID: "X", TargetID: "deep"},
	)
	return s
}

func TestProxyPorts(t *testing.T) {
	s := proxyFixture(t)

	if got := s.ProxyPorts("C"); got != nil {
		t.Errorf("expanded container has proxies: %v", got)
	}

	s.ToggleCollapsed("C")
	got := s.ProxyPorts("C")
	want := []ProxyPort{
		{Port: Port{ID: "p1", Label: "Alpha.out1"}, EdgeID: "e1", Direction: ProxyOutgoing, InnerID: "A", InnerPortID: "p1"},
		{Port: Port{ID: "proxy-tgt-e2", Label: "in"}, EdgeID: "e2", Direction: ProxyIncoming, InnerID: "B"},
		{Port: Port{ID: "proxy-tgt-e4", Label: "in"}, EdgeID: "e4", Direction: ProxyIncoming, InnerID: "deep"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("ProxyPorts(C) =\n%+v\nwant\n%+v", got, want)
	}

	s.AddPort("C", Port{ID: "own"})
	if len(s.RenderablePorts("C")) != 4 {
		t.Errorf("RenderablePorts(C) = %v", s.RenderablePorts("C"))
	}
}

func TestVisibleRepresentative(t *testing.T) {
	s := proxyFixture(t)
	if got := s.VisibleRepresentative("deep"); got != "deep" {
		t.Errorf("expanded: %q", got)
	}
	s.ToggleCollapsed("D")
	if got := s.VisibleRepresentative("deep"); got != "D" {
		t.Errorf("D collapsed: %q", got)
	}
	s.ToggleCollapsed("C")
	if got := s.VisibleRepresentative("deep"); got != "C" {
		t.Errorf("C and D collapsed: %q", got)
	}
}
