// Package storage persists named diagram documents.
//
// Backends:
//   - [FileStore]: one JSON file per document, for the CLI
//   - [MemoryStore]: process-local, for tests and ephemeral servers
//   - [MongoStore]: one MongoDB document per diagram
//   - [Neo4jStore]: a snapshot plus a queryable graph projection
//
// Every backend stores the exact JSON snapshot of a document, so a
// Save/Load round trip reproduces the document byte for byte regardless of
// backend. Missing documents are reported with DOCUMENT_NOT_FOUND.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestgraph/pkg/config"
	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
	graphio "github.com/matzehuels/nestgraph/pkg/io"
	"github.com/matzehuels/nestgraph/pkg/observability"
)

// Store loads and saves documents by name.
type Store interface {
	// Load returns the named document.
	Load(ctx context.Context, name string) (graph.Document, error)

	// Save creates or replaces the named document.
	Save(ctx context.Context, name string, doc graph.Document) error

	// Delete removes the named document. Deleting a missing document is not
	// an error.
	Delete(ctx context.Context, name string) error

	// List describes every stored document, ordered by name.
	List(ctx context.Context) ([]Info, error)

	// Close releases backend resources.
	Close() error
}

// Info describes a stored document.
type Info struct {
	Name       string    `json:"name"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Nodes      int       `json:"nodes"`
	Containers int       `json:"containers"`
	Edges      int       `json:"edges"`
}

func infoOf(name string, doc graph.Document, at time.Time) Info {
	return Info{
		Name:       name,
		UpdatedAt:  at,
		Nodes:      len(doc.Nodes),
		Containers: len(doc.Containers),
		Edges:      len(doc.Edges),
	}
}

func notFound(name string) error {
	return errs.New(errs.ErrCodeDocumentNotFound, "document %q not found", name)
}

// decodeSnapshot parses a stored snapshot. A snapshot that no longer decodes
// is reported as MALFORMED_INPUT.
func decodeSnapshot(name string, data []byte) (graph.Document, error) {
	doc, err := graphio.Unmarshal(data)
	if err != nil {
		return graph.Document{}, fmt.Errorf("document %q: %w", name, err)
	}
	return doc, nil
}

// Open builds the backend selected by cfg and instruments it with the
// registered storage hooks.
func Open(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		s = NewMemoryStore()
	case config.BackendMongo:
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendNeo4j:
		s, err = NewNeo4jStore(ctx, Neo4jConfig{
			URI:      cfg.Neo4jURI,
			User:     cfg.Neo4jUser,
			Password: cfg.Neo4jPassword,
			Database: cfg.Neo4jDatabase,
		})
	case config.BackendFile, "":
		s, err = NewFileStore(cfg.Dir)
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	backend := cfg.Backend
	if backend == "" {
		backend = config.BackendFile
	}
	logger.Debug("storage ready", "backend", backend)
	return Observe(backend, s), nil
}

// Observe wraps s so that loads and saves are reported to
// observability.Storage under the given backend name.
func Observe(backend string, s Store) Store {
	return &observed{Store: s, backend: backend}
}

type observed struct {
	Store
	backend string
}

func (o *observed) Load(ctx context.Context, name string) (graph.Document, error) {
	start := time.Now()
	doc, err := o.Store.Load(ctx, name)
	observability.Storage().OnLoad(ctx, o.backend, name, time.Since(start), err)
	return doc, err
}

func (o *observed) Save(ctx context.Context, name string, doc graph.Document) error {
	start := time.Now()
	err := o.Store.Save(ctx, name, doc)
	observability.Storage().OnSave(ctx, o.backend, name, doc.Len(), time.Since(start), err)
	return err
}
