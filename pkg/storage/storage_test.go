package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/nestgraph/pkg/config"
	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
	graphio "github.com/matzehuels/nestgraph/pkg/io"
	"github.com/matzehuels/nestgraph/pkg/observability"
)

func sampleDoc(t *testing.T) graph.Document {
	t.Helper()
	s := graph.New()
	if err := s.AddContainer(graph.Entity{ID: "c", Label: "Group", Size: geometry.Size{Width: 300, Height: 200}}); err != nil {
		t.Fatal(err)
	}
	for _, n := range []graph.Entity{
		{ID: "a", Position: geometry.Vec2{X: 20, Y: 40}, ParentID: "c", Ports: []graph.Port{{ID: "out"}}},
		{ID: "b", Position: geometry.Vec2{X: 500, Y: 40}, Data: graph.Data{"tags": []any{"x", "y"}}},
	} {
		if err := s.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddEdge(graph.Edge{ID: "e", SourceID: "a", SourcePortID: "out", TargetID: "b", Label: "calls"}); err != nil {
		t.Fatal(err)
	}
	return s.ExportState()
}

func encoded(t *testing.T, doc graph.Document) []byte {
	t.Helper()
	data, err := graphio.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	doc := sampleDoc(t)

	if _, err := s.Load(ctx, "missing"); !errs.Is(err, errs.ErrCodeDocumentNotFound) {
		t.Errorf("Load(missing) err = %v, want DOCUMENT_NOT_FOUND", err)
	}
	if err := s.Save(ctx, "../escape", doc); err == nil {
		t.Error("Save accepted a path-like name")
	}

	for _, name := range []string{"zeta", "alpha"} {
		if err := s.Save(ctx, name, doc); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
	}
	got, err := s.Load(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(encoded(t, got), encoded(t, doc)) {
		t.Error("round trip changed the document")
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[0].Name != "alpha" || infos[1].Name != "zeta" {
		t.Fatalf("List = %+v", infos)
	}
	if infos[0].Nodes != 2 || infos[0].Containers != 1 || infos[0].Edges != 1 {
		t.Errorf("counts = %+v", infos[0])
	}

	if err := s.Delete(ctx, "alpha"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "alpha"); !errs.IsNotFound(err) {
		t.Errorf("Load after Delete err = %v", err)
	}
	if err := s.Delete(ctx, "alpha"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	doc := sampleDoc(t)
	if err := s.Save(ctx, "d", doc); err != nil {
		t.Fatal(err)
	}
	doc.Nodes[0].Label = "mutated"
	got, _ := s.Load(ctx, "d")
	if got.Nodes[0].Label == "mutated" {
		t.Error("store shares memory with the caller")
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "docs"))
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestFileStoreSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	infos, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 0 {
		t.Errorf("List = %+v, want corrupt file skipped", infos)
	}
	if _, err := s.Load(context.Background(), "broken"); !errs.Is(err, errs.ErrCodeMalformedInput) {
		t.Errorf("Load(broken) err = %v", err)
	}
}

func TestFileStoreDefaultDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	s, err := NewFileStore("")
	if err != nil {
		t.Fatal(err)
	}
	if s.Path() != config.DataDir() {
		t.Errorf("Path = %q, want %q", s.Path(), config.DataDir())
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StorageConfig{Backend: config.BackendMemory}, nil)
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)

	if _, err := Open(ctx, config.StorageConfig{Backend: "sqlite"}, nil); !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("unknown backend err = %v", err)
	}
}

type recordingStorageHooks struct {
	observability.NoopStorageHooks
	loads, saves int
}

func (h *recordingStorageHooks) OnLoad(context.Context, string, string, time.Duration, error) {
	h.loads++
}

func (h *recordingStorageHooks) OnSave(context.Context, string, string, int, time.Duration, error) {
	h.saves++
}

func TestObserve(t *testing.T) {
	h := &recordingStorageHooks{}
	observability.SetStorageHooks(h)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	s := Observe("memory", NewMemoryStore())
	_ = s.Save(ctx, "d", sampleDoc(t))
	_, _ = s.Load(ctx, "d")
	_, _ = s.Load(ctx, "missing")
	if h.saves != 1 || h.loads != 2 {
		t.Errorf("saves=%d loads=%d", h.saves, h.loads)
	}
}

func TestMongoRecord(t *testing.T) {
	doc := sampleDoc(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 678901234, time.UTC)
	rec, err := newMongoRecord("d", doc, at)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "d" || rec.Nodes != 2 || rec.Containers != 1 || rec.Edges != 1 {
		t.Errorf("record = %+v", rec)
	}
	if !rec.UpdatedAt.Equal(at.Truncate(time.Millisecond)) {
		t.Errorf("UpdatedAt = %v", rec.UpdatedAt)
	}
	got, err := decodeSnapshot("d", []byte(rec.Snapshot))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(doc) {
		t.Error("snapshot does not round trip")
	}
	if info := rec.info(); info.Name != "d" || info.Edges != 1 {
		t.Errorf("info = %+v", info)
	}
}
