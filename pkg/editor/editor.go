// Package editor turns user gestures into recorded, undoable edits.
//
// Every gesture runs copy-on-write: the editor clones the current store,
// applies the gesture to the clone, re-resolves containment and container
// sizes, diffs the two snapshots and, if anything changed, records the diff
// with its [history.Manager] before swapping the clone in. A failing gesture
// leaves the visible store untouched.
//
// An Editor is not safe for concurrent use.
package editor

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
	"github.com/matzehuels/nestgraph/pkg/history"
	"github.com/matzehuels/nestgraph/pkg/observability"
)

// DefaultPasteOffset is how far pasted entities are shifted from the
// originals.
var DefaultPasteOffset = geometry.Vec2{X: 20, Y: 20}

// Id prefixes for generated ids.
const (
	PrefixNode      = "n_"
	PrefixContainer = "c_"
	PrefixEdge      = "e_"
)

// Editor applies gestures to a store and keeps their history.
type Editor struct {
	store       *graph.Store
	history     *history.Manager
	logger      *log.Logger
	pasteOffset geometry.Vec2
	newID       func(prefix string) string
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger. Defaults to the store's logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithHistory sets the history manager, for example one with a custom
// capacity.
func WithHistory(h *history.Manager) Option {
	return func(e *Editor) {
		if h != nil {
			e.history = h
		}
	}
}

// WithPasteOffset overrides [DefaultPasteOffset].
func WithPasteOffset(v geometry.Vec2) Option {
	return func(e *Editor) { e.pasteOffset = v }
}

// WithIDGenerator replaces the uuid based id generator. The function
// receives one of the Prefix constants.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(e *Editor) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// New returns an editor over s. A nil store starts an empty document.
func New(s *graph.Store, opts ...Option) *Editor {
	if s == nil {
		s = graph.New()
	}
	e := &Editor{
		store:       s,
		logger:      s.Logger(),
		pasteOffset: DefaultPasteOffset,
		newID:       func(prefix string) string { return prefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.history == nil {
		e.history = history.NewManager(history.DefaultCapacity, history.WithLogger(e.logger))
	}
	return e
}

// Store returns the current store. The returned store is replaced, not
// mutated, by later gestures, so it is safe to keep reading it.
func (e *Editor) Store() *graph.Store { return e.store }

// History returns the history manager.
func (e *Editor) History() *history.Manager { return e.history }

// Document exports the current store.
func (e *Editor) Document() graph.Document { return e.store.ExportState() }

// Apply runs fn against a clone of the current store and commits the result
// under label. It reports whether anything changed. When fn fails the clone
// is discarded and the error returned.
func (e *Editor) Apply(label string, fn func(*graph.Store) error) (bool, error) {
	start := time.Now()
	before := e.store.ExportState()
	next := e.store.Clone()
	if err := fn(next); err != nil {
		e.logger.Debug("gesture rolled back", "gesture", label, "err", err)
		observability.Editor().OnRollback(label, err)
		return false, err
	}
	entry, ok := e.history.Commit(label, before, next.ExportState())
	if !ok {
		return false, nil
	}
	e.store = next
	changes := entry.Forward.Len()
	e.logger.Debug("committed", "gesture", label, "changes", changes)
	observability.Editor().OnCommit(label, changes, time.Since(start))
	return true, nil
}

// Undo reverts the last committed gesture. Undo with nothing to undo is a
// no-op.
func (e *Editor) Undo() (bool, error) {
	next := e.store.Clone()
	entry, ok, err := e.history.Undo(next)
	if err != nil || !ok {
		return false, err
	}
	e.store = next
	observability.Editor().OnUndo(entry.Meta.Label)
	return true, nil
}

// Redo re-applies the last undone gesture.
func (e *Editor) Redo() (bool, error) {
	next := e.store.Clone()
	entry, ok, err := e.history.Redo(next)
	if err != nil || !ok {
		return false, err
	}
	e.store = next
	observability.Editor().OnRedo(entry.Meta.Label)
	return true, nil
}
