package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
	graphio "github.com/matzehuels/nestgraph/pkg/io"
)

// MemoryStore keeps encoded snapshots in a map. Documents are copied in and
// out, so callers never share state with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]memoryEntry
	now  func() time.Time
}

type memoryEntry struct {
	data []byte
	info Info
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryEntry), now: time.Now}
}

// Load returns a copy of the named document.
func (s *MemoryStore) Load(ctx context.Context, name string) (graph.Document, error) {
	if err := errs.ValidateDocumentName(name); err != nil {
		return graph.Document{}, err
	}
	s.mu.RLock()
	entry, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return graph.Document{}, notFound(name)
	}
	return decodeSnapshot(name, entry.data)
}

// Save stores a copy of doc.
func (s *MemoryStore) Save(ctx context.Context, name string, doc graph.Document) error {
	if err := errs.ValidateDocumentName(name); err != nil {
		return err
	}
	data, err := graphio.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = memoryEntry{data: data, info: infoOf(name, doc, s.now())}
	return nil
}

// Delete removes the named document.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, name)
	return nil
}

// List describes every stored document.
func (s *MemoryStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Info, 0, len(s.docs))
	for _, e := range s.docs {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Close does nothing.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
