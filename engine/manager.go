// Package engine runs debates: the session lifecycle, the parallel round
// executor and the judge-response aggregation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/yo2158/break/debate"
	"github.com/yo2158/break/metrics"
	"github.com/yo2158/break/stream"
)

// Manager owns the single active debate session and routes viewer signals
// to it. Starting a new debate aborts the previous one.
type Manager struct {
	gen         *Generator
	bus         *stream.Bus
	recorder    Recorder
	metrics     *metrics.Metrics
	logger      *slog.Logger
	advanceWait time.Duration

	mu      sync.Mutex
	active  *Session
	ctlSubs map[string]*nats.Subscription
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithAdvanceWait overrides how long a judgment is held for the advance
// signal.
func WithAdvanceWait(d time.Duration) ManagerOption {
	return func(m *Manager) { m.advanceWait = d }
}

// WithRecorder attaches debate persistence.
func WithRecorder(r Recorder) ManagerOption {
	return func(m *Manager) { m.recorder = r }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(mx *metrics.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = mx }
}

// NewManager builds a session manager. logger may be nil.
func NewManager(gen *Generator, bus *stream.Bus, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		gen:         gen,
		bus:         bus,
		logger:      logger,
		advanceWait: DefaultAdvanceWait,
		ctlSubs:     make(map[string]*nats.Subscription),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start validates the topic and launches a new debate session. The
// previous active session, if any, is aborted first. ready, when non-nil,
// runs after the session exists but before generation begins, so callers
// can attach to the event stream without missing the first event; a ready
// error cancels the session.
func (m *Manager) Start(topic string, ready func(*Session) error) (*Session, error) {
	if err := debate.ValidateTopic(topic); err != nil {
		return nil, NewValidationError(err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && !m.active.State().Terminal() {
		m.logger.Info("aborting previous session", "sid", m.active.SID)
		m.active.Abort()
	}

	sid := uuid.New().String()
	s := newSession(sid, topic, m.gen, m.bus, m.recorder, m.metrics, m.advanceWait, m.logger)
	m.metrics.SessionStarted()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	m.active = s

	// Viewer signals arrive on the session's control subject so remote
	// clients can drive pacing without touching HTTP.
	sub, err := m.bus.SubscribeControl(sid, func(ctl stream.Control) {
		switch ctl.Action {
		case stream.ControlAdvance:
			m.Advance(ctl.SID)
		case stream.ControlAbort:
			m.Abort(ctl.SID)
		}
	})
	if err != nil {
		m.logger.Warn("control subscription failed", "sid", sid, "error", err)
	} else {
		m.ctlSubs[sid] = sub
	}

	if ready != nil {
		if err := ready(s); err != nil {
			cancel()
			s.machine.Fail()
			close(s.done)
			m.active = nil
			m.releaseLocked(sid)
			return nil, fmt.Errorf("session setup: %w", err)
		}
	}

	go func() {
		s.run(ctx)
		cancel()
		m.release(sid)
	}()

	m.logger.Info("debate started", "sid", sid, "topic", topic)
	return s, nil
}

// Advance routes the viewer's advance signal to the active session. A
// stale or unknown sid is a no-op; false reports that nothing matched.
func (m *Manager) Advance(sid string) bool {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()

	if s == nil || s.SID != sid || s.State().Terminal() {
		return false
	}
	s.Advance()
	return true
}

// Abort tears down the session with the given sid. Stale sids are no-ops.
func (m *Manager) Abort(sid string) bool {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()

	if s == nil || s.SID != sid || s.State().Terminal() {
		return false
	}
	s.Abort()
	return true
}

// Active returns the current session, possibly terminal, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Shutdown aborts any running session and waits for it to finish.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()

	if s == nil || s.State().Terminal() {
		return nil
	}
	s.Abort()
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(sid)
}

func (m *Manager) releaseLocked(sid string) {
	if sub, ok := m.ctlSubs[sid]; ok {
		if err := sub.Unsubscribe(); err != nil {
			m.logger.Warn("control unsubscribe failed", "sid", sid, "error", err)
		}
		delete(m.ctlSubs, sid)
	}
}
