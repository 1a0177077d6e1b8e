// Package history implements bounded linear undo/redo over document patches.
//
// Every committed edit is recorded as an [Entry] holding a forward and an
// inverse [Patch]. Undo applies the inverse and moves the entry to the redo
// stack; redo applies the forward patch and moves it back. Recording a new
// entry discards the redo stack, and the undo stack evicts its oldest entry
// once it reaches capacity.
//
// A Manager is not safe for concurrent use, and its patches are only valid
// against the store state they were recorded from: callers must not mix
// undo/redo with unrecorded mutations.
package history

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestgraph/pkg/graph"
)

// DefaultCapacity is the undo depth used when none is configured.
const DefaultCapacity = 200

// Meta describes the edit an entry came from.
type Meta struct {
	Label string    `json:"label"`
	At    time.Time `json:"at"`
}

// Entry is one undoable step.
type Entry struct {
	Forward Patch `json:"forward"`
	Inverse Patch `json:"inverse"`
	Meta    Meta  `json:"meta"`
}

// Manager holds the undo and redo stacks.
type Manager struct {
	undo     []Entry
	redo     []Entry
	capacity int
	logger   *log.Logger
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a Manager keeping at most capacity undo entries. A
// capacity of zero or less selects [DefaultCapacity].
func NewManager(capacity int, opts ...Option) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Manager{capacity: capacity, logger: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Capacity returns the maximum undo depth.
func (m *Manager) Capacity() int { return m.capacity }

// Record pushes an entry onto the undo stack and clears the redo stack.
func (m *Manager) Record(e Entry) {
	if e.Meta.At.IsZero() {
		e.Meta.At = m.now()
	}
	m.undo = append(m.undo, e)
	if over := len(m.undo) - m.capacity; over > 0 {
		m.logger.Debug("history full, evicting oldest entries", "evicted", over)
		m.undo = append(m.undo[:0:0], m.undo[over:]...)
	}
	m.redo = nil
}

// Commit diffs two snapshots and records the result under label. Nothing is
// recorded when the snapshots are identical. Returns the recorded entry and
// whether one was recorded.
func (m *Manager) Commit(label string, before, after graph.Document) (Entry, bool) {
	forward, inverse := Diff(before, after)
	if forward.Empty() {
		return Entry{}, false
	}
	e := Entry{Forward: forward, Inverse: inverse, Meta: Meta{Label: label}}
	m.Record(e)
	return m.undo[len(m.undo)-1], true
}

// Undo reverts the most recent entry on s. It reports false with a nil
// error when there is nothing to undo. If the inverse patch cannot be
// applied, s and both stacks are left unchanged.
func (m *Manager) Undo(s *graph.Store) (Entry, bool, error) {
	if len(m.undo) == 0 {
		return Entry{}, false, nil
	}
	e := m.undo[len(m.undo)-1]
	if err := e.Inverse.Apply(s); err != nil {
		return e, false, err
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, e)
	return e, true, nil
}

// Redo re-applies the most recently undone entry on s. It reports false with
// a nil error when there is nothing to redo.
func (m *Manager) Redo(s *graph.Store) (Entry, bool, error) {
	if len(m.redo) == 0 {
		return Entry{}, false, nil
	}
	e := m.redo[len(m.redo)-1]
	if err := e.Forward.Apply(s); err != nil {
		return e, false, err
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, e)
	return e, true, nil
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// UndoLen returns the depth of the undo stack.
func (m *Manager) UndoLen() int { return len(m.undo) }

// RedoLen returns the depth of the redo stack.
func (m *Manager) RedoLen() int { return len(m.redo) }

// Labels returns the labels of the undo stack, most recent first.
func (m *Manager) Labels() []string {
	out := make([]string, 0, len(m.undo))
	for i := len(m.undo) - 1; i >= 0; i-- {
		out = append(out, m.undo[i].Meta.Label)
	}
	return out
}

// Clear drops both stacks.
func (m *Manager) Clear() {
	m.undo, m.redo = nil, nil
}
