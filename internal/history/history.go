package history

import (
	"sync"
)

// DefaultCapacity is the number of snapshots each stack keeps when no
// explicit capacity is given.
const DefaultCapacity = 50

// Stack identifies one of the two history stacks.
type Stack int

const (
	// UndoStack holds the current snapshot and everything older.
	UndoStack Stack = iota
	// RedoStack holds snapshots removed from currency by Undo.
	RedoStack
)

// String returns the stack name.
func (s Stack) String() string {
	switch s {
	case UndoStack:
		return "undo"
	case RedoStack:
		return "redo"
	default:
		return "unknown"
	}
}

// stackSet is a bit set of stacks touched by a mutation.
type stackSet uint8

const (
	undoBit stackSet = 1 << iota
	redoBit
)

// Transition describes the outcome of a history operation.
type Transition[T any] struct {
	// Current is the snapshot that is current after the operation.
	// It is the zero value when Moved is false.
	Current T

	// Moved is false when the operation was a no-op because the history
	// had nothing to undo or redo.
	Moved bool

	// Reset reports that a stack left inconsistent by an interrupted
	// mutation was discarded before this operation ran.
	Reset bool

	// State is the history summary right after the operation.
	State State
}

// State is a point-in-time summary of the history, suitable for enabling
// or disabling undo/redo controls.
type State struct {
	UndoDepth int    `json:"undo_depth"`
	RedoDepth int    `json:"redo_depth"`
	Capacity  int    `json:"capacity"`
	CanUndo   bool   `json:"can_undo"`
	CanRedo   bool   `json:"can_redo"`
	Resets    uint64 `json:"resets"`
}

// EvictFunc is called when the oldest snapshot of a stack is dropped to
// respect the capacity.
type EvictFunc[T any] func(stack Stack, snapshot T)

// History manages the undo/redo stacks for a canvas.
//
// Both stacks live under one mutex so that every operation observes and
// leaves a consistent pair. The zero value is not usable; call New.
type History[T any] struct {
	mu sync.Mutex

	undo *ring[T]
	redo *ring[T]

	// dirty marks stacks whose last mutation did not complete.
	dirty  stackSet
	resets uint64

	onEvict EvictFunc[T]
}

// New creates a history whose stacks each hold at most capacity snapshots.
// A non-positive capacity selects DefaultCapacity.
func New[T any](capacity int) *History[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History[T]{
		undo: newRing[T](capacity),
		redo: newRing[T](capacity),
	}
}

// SetEvictHook installs fn to be called for every evicted snapshot.
// The hook runs with the history lock held and must not call back into
// the History.
func (h *History[T]) SetEvictHook(fn EvictFunc[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEvict = fn
}

// Record pushes s as the new current snapshot and abandons the redo
// lineage.
func (h *History[T]) Record(s T) Transition[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	reset, seeded := h.recoverLocked(s, true)

	h.mutate(undoBit|redoBit, func() {
		if !seeded {
			h.pushLocked(UndoStack, s)
		}
		h.redo.clear()
	})

	return Transition[T]{Current: s, Moved: true, Reset: reset, State: h.stateLocked()}
}

// Undo makes the previous snapshot current. It is a no-op while fewer than
// two snapshots are on the undo stack, so the history never loses its
// current state.
func (h *History[T]) Undo() Transition[T] {
	var zero T
	return h.undoLocked(zero, false)
}

// UndoWith is Undo for callers that know the snapshot they are displaying.
// If the undo stack has to be rebuilt, current becomes its only entry.
func (h *History[T]) UndoWith(current T) Transition[T] {
	return h.undoLocked(current, true)
}

func (h *History[T]) undoLocked(current T, hasCurrent bool) Transition[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	reset, _ := h.recoverLocked(current, hasCurrent)
	if h.undo.len() < 2 {
		return Transition[T]{Reset: reset, State: h.stateLocked()}
	}

	var now T
	h.mutate(undoBit|redoBit, func() {
		top, _ := h.undo.pop()
		h.pushLocked(RedoStack, top)
		now, _ = h.undo.peek()
	})

	return Transition[T]{Current: now, Moved: true, Reset: reset, State: h.stateLocked()}
}

// Redo restores the most recently undone snapshot.
func (h *History[T]) Redo() Transition[T] {
	var zero T
	return h.redoLocked(zero, false)
}

// RedoWith is Redo for callers that know the snapshot they are displaying.
// If the undo stack has to be rebuilt, current is its first entry.
func (h *History[T]) RedoWith(current T) Transition[T] {
	return h.redoLocked(current, true)
}

func (h *History[T]) redoLocked(current T, hasCurrent bool) Transition[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	reset, _ := h.recoverLocked(current, hasCurrent)
	if h.redo.len() == 0 {
		return Transition[T]{Reset: reset, State: h.stateLocked()}
	}

	var now T
	h.mutate(undoBit|redoBit, func() {
		now, _ = h.redo.pop()
		h.pushLocked(UndoStack, now)
	})

	return Transition[T]{Current: now, Moved: true, Reset: reset, State: h.stateLocked()}
}

// mutate runs fn with the given stacks marked dirty. If fn panics the marks
// stay set and the next operation rebuilds those stacks.
func (h *History[T]) mutate(set stackSet, fn func()) {
	h.dirty |= set
	fn()
	h.dirty &^= set
}

// recoverLocked discards any stack left dirty by an interrupted mutation.
// A discarded undo stack is re-seeded with seed when one is available.
func (h *History[T]) recoverLocked(seed T, hasSeed bool) (reset, seeded bool) {
	if h.dirty == 0 {
		return false, false
	}
	if h.dirty&redoBit != 0 {
		h.redo.clear()
	}
	if h.dirty&undoBit != 0 {
		h.undo.clear()
		if hasSeed {
			h.undo.push(seed)
			seeded = true
		}
	}
	h.dirty = 0
	h.resets++
	return true, seeded
}

// pushLocked pushes onto a stack, evicting its oldest entry when full.
func (h *History[T]) pushLocked(stack Stack, v T) {
	r := h.undo
	if stack == RedoStack {
		r = h.redo
	}
	if old, evicted := r.push(v); evicted && h.onEvict != nil {
		h.onEvict(stack, old)
	}
}

// Current returns the current snapshot, if any has been recorded.
func (h *History[T]) Current() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.undo.peek()
}

// PeekRedo returns the snapshot the next Redo would restore.
func (h *History[T]) PeekRedo() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.redo.peek()
}

// CanUndo returns true if Undo would change the current snapshot.
func (h *History[T]) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.undo.len() >= 2
}

// CanRedo returns true if redo is available.
func (h *History[T]) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.redo.len() > 0
}

// UndoDepth returns the number of snapshots on the undo stack, including
// the current one.
func (h *History[T]) UndoDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.undo.len()
}

// RedoDepth returns the number of snapshots available to Redo.
func (h *History[T]) RedoDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.redo.len()
}

// Capacity returns the per-stack capacity.
func (h *History[T]) Capacity() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.undo.cap()
}

// State returns a summary of both stacks taken under one lock.
func (h *History[T]) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stateLocked()
}

func (h *History[T]) stateLocked() State {
	return State{
		UndoDepth: h.undo.len(),
		RedoDepth: h.redo.len(),
		Capacity:  h.undo.cap(),
		CanUndo:   h.undo.len() >= 2,
		CanRedo:   h.redo.len() > 0,
		Resets:    h.resets,
	}
}

// Entries returns a copy of a stack, oldest first.
func (h *History[T]) Entries(stack Stack) []T {
	h.mu.Lock()
	defer h.mu.Unlock()
	if stack == RedoStack {
		return h.redo.items()
	}
	return h.undo.items()
}

// SetCapacity changes the per-stack capacity.
// If a stack is larger, its oldest entries are evicted.
func (h *History[T]) SetCapacity(capacity int) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if capacity == h.undo.cap() {
		return
	}

	h.mutate(undoBit|redoBit, func() {
		for _, old := range h.undo.resize(capacity) {
			if h.onEvict != nil {
				h.onEvict(UndoStack, old)
			}
		}
		for _, old := range h.redo.resize(capacity) {
			if h.onEvict != nil {
				h.onEvict(RedoStack, old)
			}
		}
	})
}

// Clear removes all undo/redo history.
func (h *History[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undo.clear()
	h.redo.clear()
	h.dirty = 0
}
