// Package pacing implements the dwell-time gate between debate phases.
//
// A Gate is a dual-condition rendezvous: the viewer may move on to the
// next phase only once the phase's payload has arrived AND either the
// fixed dwell timer has expired or the viewer asked to continue.
// Three independent triggers feed each gate — the wall-clock timer, the
// payload arrival, and the manual override — and the gate resolves exactly
// once, at the first instant both conditions hold.
package pacing

import (
	"sync"
	"time"
)

// GateState describes what a gate is currently waiting for.
type GateState int

const (
	// StateCounting means the dwell timer is running.
	StateCounting GateState = iota

	// StateWaitingForData means the timer expired before the payload
	// arrived; the countdown display stops and the gate resolves on
	// arrival.
	StateWaitingForData

	// StateResolved means the gate produced its payload.
	StateResolved

	// StateAborted means the session ended while the gate was open.
	StateAborted
)

// Gate is a single-use rendezvous between a payload delivery, a dwell
// timer and a manual override. All methods are safe for concurrent use
// and are no-ops after resolution or abort.
type Gate[T any] struct {
	mu sync.Mutex

	// pending buffers a run-ahead payload that arrived while the dwell
	// timer was still counting.
	pending Handoff[T]

	timerExpired bool
	overridden   bool
	resolved     bool
	aborted      bool
	notified     bool

	deadline time.Time
	timer    *time.Timer
	notify   func() // upstream hurry-up signal, invoked at most once
	done     chan T
}

// NewGate opens a gate with the given dwell duration. notify, if non-nil,
// is called at most once when the viewer overrides before the payload has
// arrived — the upstream producer may use it to deliver sooner. The timer
// starts immediately.
func NewGate[T any](dwell time.Duration, notify func()) *Gate[T] {
	g := &Gate[T]{
		notify:   notify,
		deadline: time.Now().Add(dwell),
		done:     make(chan T, 1),
	}
	g.timer = time.AfterFunc(dwell, g.onTimer)
	return g
}

// Done returns the resolution channel. Exactly one payload is sent on
// resolution, then the channel closes; on abort it closes without a send.
func (g *Gate[T]) Done() <-chan T {
	return g.done
}

// Deliver hands the next phase's payload to the gate. The first delivery
// wins; later deliveries (including after resolution) are no-ops and
// return false.
func (g *Gate[T]) Deliver(payload T) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.resolved || g.aborted {
		return false
	}
	if err := g.pending.Put(payload); err != nil {
		return false
	}
	g.resolveLocked()
	return true
}

// Override records the viewer's request to continue. If the payload has
// already arrived the gate resolves immediately; otherwise the upstream
// producer is notified once and the gate keeps waiting for data.
func (g *Gate[T]) Override() {
	g.mu.Lock()
	if g.resolved || g.aborted {
		g.mu.Unlock()
		return
	}
	g.overridden = true
	g.resolveLocked()

	var hurry func()
	if !g.resolved && !g.pending.Peek() && !g.notified && g.notify != nil {
		g.notified = true
		hurry = g.notify
	}
	g.mu.Unlock()

	if hurry != nil {
		hurry()
	}
}

// Abort tears the gate down without resolving: the timer is cancelled and
// the done channel closes without a payload. Safe to call at any time.
func (g *Gate[T]) Abort() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.resolved || g.aborted {
		return
	}
	g.aborted = true
	g.timer.Stop()
	close(g.done)
}

// State reports what the gate is waiting for.
func (g *Gate[T]) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.aborted:
		return StateAborted
	case g.resolved:
		return StateResolved
	case g.timerExpired:
		return StateWaitingForData
	default:
		return StateCounting
	}
}

// Remaining returns the residual dwell time, zero once the timer expired.
func (g *Gate[T]) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timerExpired || g.resolved || g.aborted {
		return 0
	}
	if rem := time.Until(g.deadline); rem > 0 {
		return rem
	}
	return 0
}

func (g *Gate[T]) onTimer() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.resolved || g.aborted {
		return
	}
	g.timerExpired = true
	g.resolveLocked()
}

// resolveLocked performs the single resolve check: payload present AND
// (timer expired OR override). Every trigger funnels through here, so a
// late trigger after resolution cannot double-fire.
func (g *Gate[T]) resolveLocked() {
	if g.resolved || g.aborted {
		return
	}
	if g.timerExpired || g.overridden {
		if payload, ok := g.pending.Take(); ok {
			g.resolved = true
			g.timer.Stop()
			g.done <- payload
			close(g.done)
		}
	}
}
