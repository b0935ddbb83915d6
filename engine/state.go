package engine

import (
	"fmt"
	"sync"
)

// State is a session's position in the debate lifecycle. Pending states
// mean the corresponding phase is being generated; ready states mean its
// payload has been emitted and the next phase is already underway.
type State string

const (
	StateAnalyzing       State = "ANALYZING"
	StateRound1Pending   State = "ROUND1_PENDING"
	StateRound1Ready     State = "ROUND1_READY"
	StateRound2Pending   State = "ROUND2_PENDING"
	StateRound2Ready     State = "ROUND2_READY"
	StateJudgmentPending State = "JUDGMENT_PENDING"
	StateComplete        State = "COMPLETE"
	StateError           State = "ERROR"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateError
}

// validNext maps each state to its single forward successor. StateError
// is reachable from any non-terminal state and is not listed.
var validNext = map[State]State{
	StateAnalyzing:       StateRound1Pending,
	StateRound1Pending:   StateRound1Ready,
	StateRound1Ready:     StateRound2Pending,
	StateRound2Pending:   StateRound2Ready,
	StateRound2Ready:     StateJudgmentPending,
	StateJudgmentPending: StateComplete,
}

// Machine tracks a session's state and enforces the forward-only
// lifecycle. Safe for concurrent use.
type Machine struct {
	mu    sync.Mutex
	state State
}

// NewMachine starts a machine in StateAnalyzing.
func NewMachine() *Machine {
	return &Machine{state: StateAnalyzing}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Advance moves to the next lifecycle state. It fails when the machine is
// terminal or the requested state is not the direct successor.
func (m *Machine) Advance(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Terminal() {
		return fmt.Errorf("session already %s", m.state)
	}
	if next, ok := validNext[m.state]; !ok || next != to {
		return fmt.Errorf("invalid transition %s -> %s", m.state, to)
	}
	m.state = to
	return nil
}

// Fail moves to StateError from any non-terminal state. Returns false if
// the machine was already terminal, which keeps terminal events single.
func (m *Machine) Fail() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Terminal() {
		return false
	}
	m.state = StateError
	return true
}
