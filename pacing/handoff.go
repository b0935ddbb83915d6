package pacing

import (
	"errors"
	"sync"
)

// ErrOccupied is returned by Handoff.Put when an unconsumed value is
// already buffered.
var ErrOccupied = errors.New("pacing: handoff slot occupied")

// Handoff is a single-slot, write-once-until-consumed buffer. Run-ahead
// producers park the next phase's payload here while the viewer's gate is
// still counting down; consuming empties the slot for the next phase.
type Handoff[T any] struct {
	mu   sync.Mutex
	val  T
	full bool
}

// Put stores v. It fails with ErrOccupied if the previous value has not
// been taken yet.
func (h *Handoff[T]) Put(v T) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.full {
		return ErrOccupied
	}
	h.val = v
	h.full = true
	return nil
}

// Take removes and returns the buffered value. The second return is false
// when the slot is empty.
func (h *Handoff[T]) Take() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.full {
		var zero T
		return zero, false
	}
	v := h.val
	var zero T
	h.val = zero
	h.full = false
	return v, true
}

// Peek reports whether a value is buffered without consuming it.
func (h *Handoff[T]) Peek() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.full
}
