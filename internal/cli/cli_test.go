package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
	graphio "github.com/matzehuels/nestgraph/pkg/io"
	"github.com/matzehuels/nestgraph/pkg/storage"
)

// workspace is a config file whose storage and cache live in a temp dir.
type workspace struct {
	t      *testing.T
	config string
	docs   string
	cache  string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	w := &workspace{
		t:      t,
		config: filepath.Join(dir, "config.toml"),
		docs:   filepath.Join(dir, "docs"),
		cache:  filepath.Join(dir, "cache"),
	}
	conf := "[storage]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(w.docs) + "\"\n\n" +
		"[cache]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(w.cache) + "\"\n"
	if err := os.WriteFile(w.config, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}
	return w
}

// run executes one CLI invocation.
func (w *workspace) run(args ...string) error {
	w.t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", w.config}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func (w *workspace) mustRun(args ...string) {
	w.t.Helper()
	if err := w.run(args...); err != nil {
		w.t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
}

func (w *workspace) load(name string) *graph.Store {
	w.t.Helper()
	fs, err := storage.NewFileStore(w.docs)
	if err != nil {
		w.t.Fatal(err)
	}
	doc, err := fs.Load(context.Background(), name)
	if err != nil {
		w.t.Fatal(err)
	}
	s, err := graph.FromDocument(doc)
	if err != nil {
		w.t.Fatal(err)
	}
	return s
}

func TestNewDocument(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun("new", "--demo", "demo")

	s := w.load("demo")
	if s.NodeCount() == 0 || s.ContainerCount() == 0 {
		t.Error("demo document is empty")
	}

	err := w.run("new", "demo")
	if !errs.Is(err, errs.ErrCodeDuplicateID) {
		t.Errorf("second new = %v, want DUPLICATE_ID", err)
	}
	w.mustRun("new", "--force", "demo")
	if w.load("demo").NodeCount() != 0 {
		t.Error("--force should replace the demo with an empty document")
	}

	if err := w.run("new", "../escape"); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("bad name = %v, want INVALID_INPUT", err)
	}
}

func TestEditingCommands(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun("new", "doc")
	w.mustRun("add", "container", "doc", "--id", "group", "--width", "300", "--height", "200")
	w.mustRun("add", "node", "doc", "--id", "a", "--x=500", "--y=500", "--port", "out:Out")
	w.mustRun("add", "node", "doc", "--id", "b", "--x=800", "--y=0")
	w.mustRun("add", "edge", "doc", "a:out", "b", "--id", "e1", "--label", "feeds")

	w.mustRun("move", "doc", "a", "--dx=-450", "--dy=-450")
	s := w.load("doc")
	if a, _ := s.Node("a"); a.ParentID != "group" {
		t.Errorf("a.ParentID = %q after move, want group", a.ParentID)
	}
	if e, ok := s.Edge("e1"); !ok || e.SourcePortID != "out" || e.Label != "feeds" {
		t.Errorf("edge e1 = %+v, %v", e, ok)
	}

	w.mustRun("rename", "doc", "a", "Alpha")
	w.mustRun("rename", "doc", "a", "Output", "--port", "out")
	w.mustRun("rename", "doc", "e1", "pushes", "--edge")
	w.mustRun("collapse", "doc", "group")
	w.mustRun("resize", "doc", "b", "--width", "150", "--height", "80")

	s = w.load("doc")
	a, _ := s.Node("a")
	if a.Label != "Alpha" || a.Ports[0].Label != "Output" {
		t.Errorf("a = %+v", a)
	}
	if e, _ := s.Edge("e1"); e.Label != "pushes" {
		t.Errorf("edge label = %q", e.Label)
	}
	if g, _ := s.Container("group"); !g.Collapsed {
		t.Error("group should be collapsed")
	}
	if b, _ := s.Node("b"); b.Size.Width != 150 || b.Size.Height != 80 {
		t.Errorf("b size = %+v", b.Size)
	}

	w.mustRun("rm-port", "doc", "a", "out")
	if w.load("doc").EdgeCount() != 0 {
		t.Error("removing the port should remove its edge")
	}

	w.mustRun("rm", "doc", "group")
	s = w.load("doc")
	if s.Has("group") || s.Has("a") || !s.Has("b") {
		t.Error("rm group should cascade to a and keep b")
	}
}

func TestEditingErrors(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun("new", "doc")
	w.mustRun("add", "node", "doc", "--id", "a")

	tests := []struct {
		name string
		args []string
		code errs.Code
	}{
		{"missing document", []string{"add", "node", "nope"}, errs.ErrCodeDocumentNotFound},
		{"duplicate id", []string{"add", "node", "doc", "--id", "a"}, errs.ErrCodeDuplicateID},
		{"self connection", []string{"add", "edge", "doc", "a", "a"}, errs.ErrCodeInvalidInput},
		{"unknown port", []string{"port-pos", "doc", "a", "zzz"}, errs.ErrCodeNotFound},
		{"bad size", []string{"resize", "doc", "a", "--width", "0", "--height", "10"}, errs.ErrCodeInvalidInput},
		{"validate nothing", []string{"validate"}, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.run(tt.args...); !errs.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestImportExportValidate(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun("new", "--demo", "demo")

	file := filepath.Join(t.TempDir(), "demo.json")
	w.mustRun("export", "demo", "-o", file)
	if _, err := graphio.ImportJSON(file); err != nil {
		t.Fatalf("exported file does not import: %v", err)
	}

	w.mustRun("validate", "--file", file)
	w.mustRun("validate", "demo")
	w.mustRun("import", "copy", file)
	if !w.load("copy").ExportState().Equal(w.load("demo").ExportState()) {
		t.Error("imported copy differs from the original")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"nodes": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.run("validate", "--file", bad); !errs.Is(err, errs.ErrCodeMalformedInput) {
		t.Errorf("validate bad file = %v, want MALFORMED_INPUT", err)
	}

	w.mustRun("drop", "copy")
	if err := w.run("export", "copy"); !errs.IsNotFound(err) {
		t.Errorf("export after drop = %v, want not found", err)
	}
}

func TestRenderWritesFiles(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun("new", "--demo", "demo")

	base := filepath.Join(t.TempDir(), "out")
	w.mustRun("render", "demo", "-f", "dot,json", "-o", base)

	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), "cluster_backend") {
		t.Errorf("DOT missing backend cluster:\n%s", dot)
	}
	if _, err := graphio.ImportJSON(base + ".json"); err != nil {
		t.Errorf("json output: %v", err)
	}

	// The DOT rendering went through the file cache.
	entries, err := os.ReadDir(w.cache)
	if err != nil || len(entries) == 0 {
		t.Errorf("cache dir empty after render (%v)", err)
	}
	w.mustRun("cache", "clear")

	if err := w.run("render", "demo", "-f", "gif"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct{ output, name, want string }{
		{"", "doc", "doc"},
		{"out.svg", "doc", "out"},
		{"out.dot", "doc", "out"},
		{"dir/out", "doc", "dir/out"},
		{"out.txt", "doc", "out.txt"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.name); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.name, got, tt.want)
		}
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct{ in, entity, port string }{
		{"a", "a", ""},
		{"a:out", "a", "out"},
		{"a:", "a", ""},
	}
	for _, tt := range tests {
		e, p := parseEndpoint(tt.in)
		if e != tt.entity || p != tt.port {
			t.Errorf("parseEndpoint(%q) = %q, %q", tt.in, e, p)
		}
	}
	if p := parsePort("in:Input"); p.ID != "in" || p.Label != "Input" {
		t.Errorf("parsePort = %+v", p)
	}
}
