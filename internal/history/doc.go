// Package history provides the bounded undo/redo store for the canvas.
//
// The store keeps two stacks of opaque snapshots. It never looks inside a
// snapshot; only insertion order matters. Key concepts:
//
// # Stacks
//
// The undo stack is ordered oldest first and its last element is the
// snapshot currently on screen. The redo stack holds snapshots removed by
// Undo, most recently undone last. Each stack holds at most Capacity
// entries; pushing onto a full stack silently drops its oldest entry.
//
//	h := history.New[codec.Snapshot](50)
//
//	h.Record(a)
//	h.Record(b)
//	t := h.Undo() // t.Current == a
//	t = h.Redo()  // t.Current == b
//
// # Redo lineage
//
// Record clears the redo stack. Once a new edit is made after an undo, the
// undone branch can no longer be restored.
//
// # Concurrency
//
// Both stacks sit behind a single mutex, so every operation is atomic with
// respect to the others and no snapshot is ever observed on both stacks or
// on neither. No I/O happens while the lock is held.
//
// # Recovery
//
// A mutation interrupted by a panic (for example from an evict hook) leaves
// its stacks marked dirty. The next operation discards those stacks instead
// of trusting them, re-seeds the undo stack with the caller's snapshot when
// it has one, and reports Reset in the returned Transition.
package history
