package graph

import (
	"bytes"
	"encoding/json"
	"testing"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
)

func sampleStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	mustContainers(t, s, box("c2", 500, 0, 300, 300), box("c1", 0, 0, 400, 400), within("c1", box("c3", 20, 40, 200, 200)))
	mustNodes(t, s,
		within("c3", node("n2", 30, 60, "out")),
		within("c1", node("n1", 250, 60)),
		within("c2", Entity{ID: "n3", Label: "Three", Data: Data{"weight": 2.5, "tags": []any{"a"}}}),
	)
	mustEdges(t, s,
		Edge{ID: "e2", SourceID: "n2", SourcePortID: "out", TargetID: "n3", Label: "calls"},
		Edge{ID: "e1", SourceID: "c1", TargetID: "c2"},
	)
	s.ToggleCollapsed("c3")
	return s
}

func TestExportImportRoundTrip(t *testing.T) {
	s := sampleStore(t)
	doc := s.ExportState()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		t.Fatal(err)
	}
	first := buf.String()

	var decoded Document
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	restored := New()
	if err := restored.ImportState(decoded); err != nil {
		t.Fatalf("ImportState: %v", err)
	}

	buf.Reset()
	if err := json.NewEncoder(&buf).Encode(restored.ExportState()); err != nil {
		t.Fatal(err)
	}
	if buf.String() != first {
		t.Errorf("round trip changed the document:\n%s\n%s", first, buf.String())
	}

	if doc.Nodes[0].ID != "n2" || doc.Containers[0].ID != "c2" || doc.Edges[0].ID != "e2" {
		t.Errorf("export did not keep insertion order: %s, %s, %s", doc.Nodes[0].ID, doc.Containers[0].ID, doc.Edges[0].ID)
	}
}

func TestImportMissingCollections(t *testing.T) {
	s := New()
	err := s.ImportState(Document{Nodes: []Entity{node("a", 0, 0)}})
	if err != nil {
		t.Fatalf("ImportState: %v", err)
	}
	if s.NodeCount() != 1 || s.ContainerCount() != 0 || s.EdgeCount() != 0 {
		t.Errorf("counts = %d/%d/%d", s.NodeCount(), s.ContainerCount(), s.EdgeCount())
	}

	if err := s.ImportState(Document{}); err != nil {
		t.Fatalf("empty document: %v", err)
	}
	if s.NodeCount() != 0 {
		t.Error("empty import kept old nodes")
	}
}

func TestImportRejectsInconsistentDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"edge to missing node", Document{
			Nodes: []Entity{node("a", 0, 0)},
			Edges: []Edge{{ID: "e", SourceID: "a", TargetID: "ghost"}},
		}},
		{"edge to missing port", Document{
			Nodes: []Entity{node("a", 0, 0), node("b", 0, 0)},
			Edges: []Edge{{ID: "e", SourceID: "a", SourcePortID: "p", TargetID: "b"}},
		}},
		{"parent does not list member", Document{
			Nodes:      []Entity{within("c", node("a", 0, 0))},
			Containers: []Entity{box("c", 0, 0, 200, 200)},
		}},
		{"member without parent", Document{
			Nodes:      []Entity{node("a", 0, 0)},
			Containers: []Entity{{ID: "c", NodeIDs: []string{"a"}}},
		}},
		{"duplicate ids across collections", Document{
			Nodes:      []Entity{node("x", 0, 0)},
			Containers: []Entity{box("x", 0, 0, 200, 200)},
		}},
		{"containment cycle", Document{
			Containers: []Entity{
				{ID: "a", ParentID: "b", ChildContainerIDs: []string{"b"}},
				{ID: "b", ParentID: "a", ChildContainerIDs: []string{"a"}},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleStore(t)
			err := s.ImportState(tt.doc)
			if !errs.Is(err, errs.ErrCodeMalformedInput) {
				t.Fatalf("ImportState() = %v, want MALFORMED_INPUT", err)
			}
			if s.NodeCount()+s.ContainerCount()+s.EdgeCount() != 0 {
				t.Error("store not empty after rejected import")
			}
			mustValid(t, s)
			mustNodes(t, s, node("fresh", 0, 0))
		})
	}
}

func TestImportAcceptsValidMembership(t *testing.T) {
	doc := Document{
		Nodes:      []Entity{within("c", node("a", 10, 40))},
		Containers: []Entity{{ID: "c", NodeIDs: []string{"a"}}},
	}
	s, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	mustValid(t, s)
	if a, _ := s.Node("a"); a.Kind != KindNode {
		t.Errorf("kind = %q", a.Kind)
	}
}
