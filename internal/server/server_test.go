package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
	"github.com/matzehuels/nestgraph/pkg/storage"
)

type testServer struct {
	t     *testing.T
	url   string
	store *storage.MemoryStore
}

// hookStore runs beforeSave ahead of every save to the wrapped memory store.
type hookStore struct {
	*storage.MemoryStore

	mu         sync.Mutex
	beforeSave func() error
}

func (h *hookStore) setBeforeSave(fn func() error) {
	h.mu.Lock()
	h.beforeSave = fn
	h.mu.Unlock()
}

func (h *hookStore) Save(ctx context.Context, name string, doc graph.Document) error {
	h.mu.Lock()
	fn := h.beforeSave
	h.mu.Unlock()
	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	return h.MemoryStore.Save(ctx, name, doc)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, storage.NewMemoryStore(), nil)
}

// newTestServerWith serves mem, or hooks wrapping mem when hooks is non-nil.
func newTestServerWith(t *testing.T, mem *storage.MemoryStore, hooks *hookStore) *testServer {
	t.Helper()
	var store storage.Store = mem
	if hooks != nil {
		hooks.MemoryStore = mem
		store = hooks
	}
	n := 0
	srv := New(store,
		WithLogger(log.New(io.Discard)),
		WithIDGenerator(func(prefix string) string {
			n++
			return fmt.Sprintf("%s%d", prefix, n)
		}),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{t: t, url: ts.URL, store: mem}
}

// do sends body as JSON and decodes the JSON response into out when non-nil.
func (ts *testServer) do(method, path string, body, out any) int {
	ts.t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.url+path, rd)
	if err != nil {
		ts.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			ts.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (ts *testServer) create(name string) {
	ts.t.Helper()
	if code := ts.do(http.MethodPost, "/documents", createRequest{Name: name}, nil); code != http.StatusCreated {
		ts.t.Fatalf("create %s: status %d", name, code)
	}
}

func (ts *testServer) document(name string) graph.Document {
	ts.t.Helper()
	var doc graph.Document
	if code := ts.do(http.MethodGet, "/documents/"+name+"/", nil, &doc); code != http.StatusOK {
		ts.t.Fatalf("get %s: status %d", name, code)
	}
	return doc
}

func parentIn(doc graph.Document, id string) string {
	for _, n := range doc.Nodes {
		if n.ID == id {
			return n.ParentID
		}
	}
	return "?"
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var got healthResponse
	if code := ts.do(http.MethodGet, "/health", nil, &got); code != http.StatusOK || got.Status != "ok" {
		t.Errorf("health = %d %+v", code, got)
	}
}

func TestCreateListGet(t *testing.T) {
	ts := newTestServer(t)
	var demo graph.Document
	if code := ts.do(http.MethodPost, "/documents", createRequest{Name: "demo", Demo: true}, &demo); code != http.StatusCreated {
		t.Fatalf("create demo: %d", code)
	}
	if len(demo.Nodes) == 0 || len(demo.Containers) == 0 {
		t.Errorf("demo document is empty: %+v", demo)
	}
	ts.create("blank")

	var list struct {
		Documents []storage.Info `json:"documents"`
	}
	ts.do(http.MethodGet, "/documents/", nil, &list)
	if len(list.Documents) != 2 || list.Documents[0].Name != "blank" || list.Documents[1].Name != "demo" {
		t.Errorf("list = %+v", list.Documents)
	}

	if got := ts.document("demo"); !got.Equal(demo) {
		t.Error("loaded demo differs from created demo")
	}
}

func TestErrorStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.create("doc")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   errs.Code
	}{
		{"missing document", http.MethodGet, "/documents/nope/", nil, http.StatusNotFound, errs.ErrCodeDocumentNotFound},
		{"bad name", http.MethodGet, "/documents/-bad/", nil, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"duplicate document", http.MethodPost, "/documents", createRequest{Name: "doc"}, http.StatusConflict, errs.ErrCodeDuplicateID},
		{"bad entity id", http.MethodPost, "/documents/doc/nodes", graph.Entity{ID: "has space"}, http.StatusBadRequest, errs.ErrCodeInvalidID},
		{"dangling edge", http.MethodPost, "/documents/doc/edges", graph.Edge{SourceID: "x", TargetID: "y"}, http.StatusBadRequest, errs.ErrCodeInvalidReference},
		{"bad coordinate", http.MethodGet, "/documents/doc/hit?x=left&y=0", nil, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"unknown port", http.MethodGet, "/documents/doc/entities/a/ports/p", nil, http.StatusNotFound, errs.ErrCodeNotFound},
		{"bad format", http.MethodGet, "/documents/doc/render?format=gif", nil, http.StatusBadRequest, errs.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			code := ts.do(tt.method, tt.path, tt.body, &body)
			if code != tt.wantStatus || body.Code != tt.wantCode {
				t.Errorf("got %d %s (%s), want %d %s", code, body.Code, body.Message, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestGesturesPersistAndUndo(t *testing.T) {
	ts := newTestServer(t)
	ts.create("doc")

	var res result
	ts.do(http.MethodPost, "/documents/doc/containers", map[string]any{
		"id": "group", "position": map[string]float64{"x": 0, "y": 0},
		"size": map[string]float64{"width": 300, "height": 200},
	}, &res)
	if !res.Changed || res.ID != "group" {
		t.Fatalf("add container = %+v", res)
	}
	ts.do(http.MethodPost, "/documents/doc/nodes", map[string]any{
		"position": map[string]float64{"x": 500, "y": 500},
	}, &res)
	if res.ID != "n_1" {
		t.Fatalf("generated id = %q, want n_1", res.ID)
	}

	ts.do(http.MethodPost, "/documents/doc/move", moveRequest{IDs: []string{"n_1"}, DX: -450, DY: -450}, &res)
	if !res.Changed {
		t.Fatal("move reported no change")
	}
	if p := parentIn(ts.document("doc"), "n_1"); p != "group" {
		t.Errorf("parent after move = %q, want group", p)
	}

	// Every change is written through to storage.
	stored, err := ts.store.Load(context.Background(), "doc")
	if err != nil {
		t.Fatal(err)
	}
	if p := parentIn(stored, "n_1"); p != "group" {
		t.Errorf("stored parent = %q, want group", p)
	}

	var hist historyResponse
	ts.do(http.MethodGet, "/documents/doc/history", nil, &hist)
	if len(hist.Undo) != 3 || !hist.CanUndo || hist.CanRedo {
		t.Errorf("history = %+v", hist)
	}

	ts.do(http.MethodPost, "/documents/doc/undo", nil, &res)
	if !res.Changed {
		t.Fatal("undo reported no change")
	}
	if p := parentIn(ts.document("doc"), "n_1"); p != "" {
		t.Errorf("parent after undo = %q, want root", p)
	}
	ts.do(http.MethodPost, "/documents/doc/redo", nil, &res)
	if p := parentIn(ts.document("doc"), "n_1"); p != "group" {
		t.Errorf("parent after redo = %q, want group", p)
	}
}

func TestQueries(t *testing.T) {
	ts := newTestServer(t)
	ts.create("doc")
	ts.do(http.MethodPost, "/documents/doc/nodes", map[string]any{"id": "a", "ports": []graph.Port{{ID: "p"}}}, nil)
	ts.do(http.MethodPost, "/documents/doc/nodes", map[string]any{"id": "b", "position": map[string]float64{"x": 300, "y": 0}}, nil)

	var h hitResponse
	ts.do(http.MethodGet, "/documents/doc/hit?x=10&y=10", nil, &h)
	if !h.Hit || h.ID != "a" {
		t.Errorf("hit = %+v, want a", h)
	}
	ts.do(http.MethodGet, "/documents/doc/hit?x=1000&y=1000", nil, &h)
	if h.Hit {
		t.Errorf("hit on empty canvas = %+v", h)
	}

	var sel struct{ Entities []string }
	ts.do(http.MethodGet, "/documents/doc/select?x=450&y=100&w=-500&h=-200", nil, &sel)
	if len(sel.Entities) != 2 {
		t.Errorf("lasso = %v, want both nodes", sel.Entities)
	}

	var v validateResponse
	ts.do(http.MethodGet, "/documents/doc/validate", nil, &v)
	if !v.Valid {
		t.Errorf("validate = %+v", v)
	}

	var pos struct{ X, Y float64 }
	if code := ts.do(http.MethodGet, "/documents/doc/entities/a/ports/p", nil, &pos); code != http.StatusOK {
		t.Fatalf("port position: %d", code)
	}
}

func TestClipboard(t *testing.T) {
	ts := newTestServer(t)
	ts.create("doc")
	ts.do(http.MethodPost, "/documents/doc/nodes", map[string]any{"id": "a"}, nil)

	var clip clipResponse
	ts.do(http.MethodPost, "/documents/doc/copy", map[string]any{"entities": []string{"a"}}, &clip)
	if clip.Nodes != 1 {
		t.Fatalf("copy = %+v", clip)
	}

	var res result
	ts.do(http.MethodPost, "/documents/doc/paste", nil, &res)
	if !res.Changed || res.Selection == nil || len(res.Selection.Entities) != 1 {
		t.Fatalf("paste = %+v", res)
	}
	if doc := ts.document("doc"); len(doc.Nodes) != 2 {
		t.Errorf("nodes after paste = %d, want 2", len(doc.Nodes))
	}

	ts.do(http.MethodPost, "/documents/doc/cut", map[string]any{"entities": []string{"a"}}, &clip)
	if doc := ts.document("doc"); len(doc.Nodes) != 1 {
		t.Errorf("nodes after cut = %d, want 1", len(doc.Nodes))
	}
}

func TestReplaceAndDelete(t *testing.T) {
	ts := newTestServer(t)
	ts.create("doc")
	ts.do(http.MethodPost, "/documents/doc/nodes", map[string]any{"id": "a"}, nil)

	replacement := graph.Document{Nodes: []graph.Entity{{ID: "z", Kind: graph.KindNode}}}
	if code := ts.do(http.MethodPut, "/documents/doc/", replacement, nil); code != http.StatusOK {
		t.Fatalf("replace: %d", code)
	}
	doc := ts.document("doc")
	if len(doc.Nodes) != 1 || doc.Nodes[0].ID != "z" {
		t.Errorf("after replace = %+v", doc.Nodes)
	}
	var hist historyResponse
	ts.do(http.MethodGet, "/documents/doc/history", nil, &hist)
	if hist.CanUndo {
		t.Error("replace should start a fresh history")
	}

	if code := ts.do(http.MethodDelete, "/documents/doc/", nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete: %d", code)
	}
	if code := ts.do(http.MethodGet, "/documents/doc/", nil, nil); code != http.StatusNotFound {
		t.Errorf("get after delete: %d", code)
	}
}

func TestFailedSaveDropsEdit(t *testing.T) {
	hooks := &hookStore{}
	ts := newTestServerWith(t, storage.NewMemoryStore(), hooks)
	ts.create("doc")
	ts.do(http.MethodPost, "/documents/doc/nodes", map[string]any{"id": "a"}, nil)

	hooks.setBeforeSave(func() error {
		return errs.New(errs.ErrCodeNetwork, "storage unavailable")
	})
	code := ts.do(http.MethodPost, "/documents/doc/nodes", map[string]any{"id": "b"}, nil)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("add with failing storage: status %d, want 503", code)
	}

	// The session matches storage again, not the unsaved edit.
	doc := ts.document("doc")
	if len(doc.Nodes) != 1 || doc.Nodes[0].ID != "a" {
		t.Errorf("nodes after failed save = %+v, want only a", doc.Nodes)
	}

	// A later successful gesture must not carry the lost edit along.
	hooks.setBeforeSave(nil)
	ts.do(http.MethodPost, "/documents/doc/nodes", map[string]any{"id": "c", "position": map[string]float64{"x": 300, "y": 0}}, nil)
	stored, err := ts.store.Load(context.Background(), "doc")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, n := range stored.Nodes {
		ids = append(ids, n.ID)
	}
	if strings.Join(ids, ",") != "a,c" {
		t.Errorf("stored nodes = %v, want [a c]", ids)
	}
}

func TestReplaceWaitsForRunningGesture(t *testing.T) {
	hooks := &hookStore{}
	ts := newTestServerWith(t, storage.NewMemoryStore(), hooks)
	ts.create("doc")

	entered := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	hooks.setBeforeSave(func() error {
		once.Do(func() {
			close(entered)
			<-gate
		})
		return nil
	})

	added := make(chan int)
	go func() {
		added <- ts.do(http.MethodPost, "/documents/doc/nodes", map[string]any{"id": "a"}, nil)
	}()
	<-entered

	replaced := make(chan int)
	replacement := graph.Document{Nodes: []graph.Entity{{ID: "z", Kind: graph.KindNode}}}
	go func() {
		replaced <- ts.do(http.MethodPut, "/documents/doc/", replacement, nil)
	}()
	// Give the replace time to reach the session before the gesture saves.
	time.Sleep(50 * time.Millisecond)
	close(gate)

	if code := <-added; code != http.StatusOK {
		t.Fatalf("add: status %d", code)
	}
	if code := <-replaced; code != http.StatusOK {
		t.Fatalf("replace: status %d", code)
	}
	stored, err := ts.store.Load(context.Background(), "doc")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Nodes) != 1 || stored.Nodes[0].ID != "z" {
		t.Errorf("stored after replace = %+v, want only z", stored.Nodes)
	}
	if doc := ts.document("doc"); len(doc.Nodes) != 1 || doc.Nodes[0].ID != "z" {
		t.Errorf("session after replace = %+v, want only z", doc.Nodes)
	}
}

func TestRenderDOT(t *testing.T) {
	ts := newTestServer(t)
	ts.create("doc")
	ts.do(http.MethodPost, "/documents/doc/nodes", map[string]any{"id": "a", "label": "Alpha"}, nil)

	resp, err := http.Get(ts.url + "/documents/doc/render?format=dot")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.Header.Get("Content-Type") != "text/vnd.graphviz" {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(string(body), `"a" [label="Alpha"];`) {
		t.Errorf("DOT body:\n%s", body)
	}
}

func TestCORS(t *testing.T) {
	srv := New(storage.NewMemoryStore(), WithLogger(log.New(io.Discard)), WithCORSOrigin("*"))
	req := httptest.NewRequest(http.MethodOptions, "/documents/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", rec.Code, rec.Header())
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errs.New(errs.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errs.New(errs.ErrCodeContainmentCycle, "x"), http.StatusConflict},
		{errs.New(errs.ErrCodeMalformedInput, "x"), http.StatusBadRequest},
		{errs.New(errs.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errs.New(errs.ErrCodeTimeout, "x"), http.StatusServiceUnavailable},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
