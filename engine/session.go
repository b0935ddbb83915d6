package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/yo2158/break/debate"
	"github.com/yo2158/break/history"
	"github.com/yo2158/break/metrics"
	"github.com/yo2158/break/stream"
)

// DefaultAdvanceWait bounds how long a finished judgment is held for the
// viewer's advance signal before the session fails.
const DefaultAdvanceWait = 120 * time.Second

// Recorder persists finished debates. Satisfied by *history.Store.
type Recorder interface {
	Create(ctx context.Context, r *history.Record) (string, error)
}

// Session runs one debate end to end. Phases are generated run-ahead:
// each payload is emitted as soon as it exists, and viewer-side pacing
// decides when it is shown. The judgment is the exception; it is held
// until the viewer advances past round 2, bounded by advanceWait.
type Session struct {
	SID   string
	Topic string

	machine  *Machine
	gen      *Generator
	bus      *stream.Bus
	recorder Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger

	advanceWait time.Duration
	advanceCh   chan struct{}
	cancel      context.CancelFunc
	done        chan struct{}
	startedAt   time.Time
}

func newSession(sid, topic string, gen *Generator, bus *stream.Bus, recorder Recorder, m *metrics.Metrics, advanceWait time.Duration, logger *slog.Logger) *Session {
	if advanceWait <= 0 {
		advanceWait = DefaultAdvanceWait
	}
	return &Session{
		SID:         sid,
		Topic:       topic,
		machine:     NewMachine(),
		gen:         gen,
		bus:         bus,
		recorder:    recorder,
		metrics:     m,
		logger:      logger.With("sid", sid),
		advanceWait: advanceWait,
		advanceCh:   make(chan struct{}, 1),
		done:        make(chan struct{}),
		startedAt:   time.Now(),
	}
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	return s.machine.State()
}

// Done closes when the session reached a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Advance records the viewer's signal to release the held judgment.
// Signals sent before JUDGMENT_PENDING are remembered; duplicates
// collapse into one.
func (s *Session) Advance() {
	select {
	case s.advanceCh <- struct{}{}:
	default:
	}
}

// Abort cancels all in-flight generation. Late results are discarded.
func (s *Session) Abort() {
	s.cancel()
}

// run drives the debate. It owns all event publishing for the session and
// guarantees exactly one terminal event.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	phaseStart := time.Now()
	axis, err := s.gen.SelectAxis(ctx, s.Topic)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.metrics.PhaseObserved("axis", time.Since(phaseStart))
	if !s.emit(ctx, stream.EventAxis, axis) {
		return
	}
	if err := s.machine.Advance(StateRound1Pending); err != nil {
		s.fail(ctx, err)
		return
	}

	phaseStart = time.Now()
	round1, err := s.gen.GenerateRound1(ctx, s.Topic, axis)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.metrics.PhaseObserved("round1", time.Since(phaseStart))
	if !s.emit(ctx, stream.EventRound1, round1) {
		return
	}
	if err := s.machine.Advance(StateRound1Ready); err != nil {
		s.fail(ctx, err)
		return
	}

	if err := s.machine.Advance(StateRound2Pending); err != nil {
		s.fail(ctx, err)
		return
	}
	phaseStart = time.Now()
	round2, err := s.gen.GenerateRound2(ctx, s.Topic, axis, round1)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.metrics.PhaseObserved("round2", time.Since(phaseStart))
	if !s.emit(ctx, stream.EventRound2, round2) {
		return
	}
	if err := s.machine.Advance(StateRound2Ready); err != nil {
		s.fail(ctx, err)
		return
	}

	if err := s.machine.Advance(StateJudgmentPending); err != nil {
		s.fail(ctx, err)
		return
	}
	phaseStart = time.Now()
	judgment, err := s.gen.Judge(ctx, s.Topic, axis, round1, round2)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.metrics.PhaseObserved("judgment", time.Since(phaseStart))

	// Hold the verdict until the viewer has finished round 2.
	select {
	case <-s.advanceCh:
	case <-time.After(s.advanceWait):
		s.fail(ctx, NewValidationError("閲覧タイムアウト: 判定の表示指示がありませんでした"))
		return
	case <-ctx.Done():
		s.machine.Fail()
		return
	}

	if !s.emit(ctx, stream.EventJudgment, judgment) {
		return
	}
	if !s.emit(ctx, stream.EventComplete, nil) {
		return
	}
	if err := s.machine.Advance(StateComplete); err != nil {
		s.logger.Warn("completion transition failed", "error", err)
	}
	s.record(axis, round1, round2, judgment)
	s.metrics.SessionCompleted(time.Since(s.startedAt))
	s.logger.Info("debate complete",
		"winner", judgment.Winner,
		"duration", time.Since(s.startedAt))
}

// emit publishes a phase event. A false return means the session is being
// torn down and the caller should stop.
func (s *Session) emit(ctx context.Context, typ stream.EventType, payload any) bool {
	ev, err := stream.NewEvent(s.SID, typ, payload)
	if err == nil {
		err = s.bus.Publish(ctx, ev)
	}
	if err != nil {
		s.fail(ctx, err)
		return false
	}
	return true
}

// fail emits the single terminal error event. Cancellation is quiet: an
// aborted session tears down without publishing.
func (s *Session) fail(ctx context.Context, err error) {
	if !s.machine.Fail() {
		return
	}
	s.metrics.SessionFailed()
	if ctx.Err() != nil {
		s.logger.Info("session aborted", "state", s.machine.State())
		return
	}
	s.logger.Error("session failed", "error", err)

	msg := "議論の生成に失敗しました"
	if IsValidation(err) {
		msg = err.Error()
	}
	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if perr := s.bus.Publish(pubCtx, stream.ErrorEvent(s.SID, msg)); perr != nil {
		s.logger.Error("failed to publish error event", "error", perr)
	}
}

// record persists the finished debate under its session ID. Persistence
// failures are logged, not surfaced; the viewer already has the result.
func (s *Session) record(axis debate.Axis, round1 debate.Round1Payload, round2 debate.Round2Payload, judgment debate.Judgment) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.recorder.Create(ctx, &history.Record{
		ID:       s.SID,
		Topic:    s.Topic,
		Axis:     axis,
		Round1:   round1,
		Round2:   round2,
		Judgment: judgment,
	})
	if err != nil {
		s.logger.Error("failed to record debate", "error", err)
	}
}
