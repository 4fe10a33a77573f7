package history

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/autoprefix/internal/engine/buffer"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Entry is one undo unit.
type Entry struct {
	Name      string
	Changes   []buffer.Change
	Timestamp time.Time
}

// History manages undo/redo state for a buffer.
type History struct {
	mu  sync.Mutex
	buf *buffer.Buffer

	undoStack []*Entry
	redoStack []*Entry

	// Grouping state
	groupDepth int
	group      *Entry

	replaying atomic.Bool
	cancel    func()

	maxEntries int
}

// NewHistory creates a history that records every change applied to buf.
func NewHistory(buf *buffer.Buffer, maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	h := &History{buf: buf, maxEntries: maxEntries}
	h.cancel = buf.OnDidChange(h.record)
	return h
}

// Close stops recording.
func (h *History) Close() {
	h.cancel()
}

func (h *History) record(c buffer.Change) {
	if h.replaying.Load() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.group != nil {
		h.group.Changes = append(h.group.Changes, c)
		return
	}
	h.pushLocked(&Entry{Changes: []buffer.Change{c}, Timestamp: time.Now()})
}

// pushLocked adds an entry and clears the redo stack.
func (h *History) pushLocked(e *Entry) {
	h.undoStack = append(h.undoStack, e)
	h.redoStack = nil

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// Undo reverts the last entry and returns it.
func (h *History) Undo() (*Entry, error) {
	h.mu.Lock()
	if len(h.undoStack) == 0 {
		h.mu.Unlock()
		return nil, ErrNothingToUndo
	}
	entry := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.mu.Unlock()

	if err := h.replay(entry, true); err != nil {
		h.mu.Lock()
		h.undoStack = append(h.undoStack, entry)
		h.mu.Unlock()
		return nil, err
	}

	h.mu.Lock()
	h.redoStack = append(h.redoStack, entry)
	h.mu.Unlock()
	return entry, nil
}

// Redo reapplies the last undone entry and returns it.
func (h *History) Redo() (*Entry, error) {
	h.mu.Lock()
	if len(h.redoStack) == 0 {
		h.mu.Unlock()
		return nil, ErrNothingToRedo
	}
	entry := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.mu.Unlock()

	if err := h.replay(entry, false); err != nil {
		h.mu.Lock()
		h.redoStack = append(h.redoStack, entry)
		h.mu.Unlock()
		return nil, err
	}

	h.mu.Lock()
	h.undoStack = append(h.undoStack, entry)
	h.mu.Unlock()
	return entry, nil
}

func (h *History) replay(e *Entry, inverse bool) error {
	h.replaying.Store(true)
	defer h.replaying.Store(false)

	if inverse {
		for i := len(e.Changes) - 1; i >= 0; i-- {
			if _, err := h.buf.ApplyEdit(e.Changes[i].Invert().ToEdit()); err != nil {
				return err
			}
		}
		return nil
	}
	for _, c := range e.Changes {
		if _, err := h.buf.ApplyEdit(c.ToEdit()); err != nil {
			return err
		}
	}
	return nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	return h.UndoCount() > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	return h.RedoCount() > 0
}

// UndoCount returns the number of undo entries available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo entries available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// BeginGroup starts an undo group. Groups nest; only the outermost
// name is kept.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.groupDepth++
	if h.groupDepth == 1 {
		h.group = &Entry{Name: name}
	}
}

// EndGroup closes a group. When the outermost group closes, its changes
// become a single entry; an empty group leaves no entry.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groupDepth == 0 {
		return
	}
	h.groupDepth--
	if h.groupDepth > 0 {
		return
	}

	g := h.group
	h.group = nil
	if len(g.Changes) == 0 {
		return
	}
	g.Timestamp = time.Now()
	h.pushLocked(g)
}

// IsGrouping returns true if a group is open.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.groupDepth > 0
}

// PeekUndo returns the next entry Undo would revert.
func (h *History) PeekUndo() (*Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undoStack) == 0 {
		return nil, false
	}
	return h.undoStack[len(h.undoStack)-1], true
}

// Clear removes all undo/redo history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
}
