// Package client implements the terminal viewer for a debate stream.
//
// The viewer consumes the server's SSE stream and paces the display: the
// server generates ahead, while pacing gates hold each round back until
// the viewer has had its reading time or asked to continue. The judgment
// is held on the server until the viewer signals advance.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/yo2158/break/debate"
	"github.com/yo2158/break/pacing"
	"github.com/yo2158/break/stream"
)

// Default reading times between phases, matching the served pacing.
const (
	DefaultRound1Dwell = 44 * time.Second
	DefaultRound2Dwell = 45 * time.Second
)

// Viewer follows a single debate from topic submission to verdict.
type Viewer struct {
	baseURL string
	httpc   *http.Client
	out     io.Writer
	logger  *slog.Logger

	round1Dwell time.Duration
	round2Dwell time.Duration

	skip chan struct{}
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithOutput directs rendered output to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(v *Viewer) { v.out = w }
}

// WithLogger sets the viewer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Viewer) { v.logger = logger }
}

// WithDwell overrides the reading time held after round 1 and round 2.
func WithDwell(round1, round2 time.Duration) Option {
	return func(v *Viewer) {
		v.round1Dwell = round1
		v.round2Dwell = round2
	}
}

// WithHTTPClient sets the HTTP client used for the stream and control
// calls.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Viewer) { v.httpc = c }
}

// New creates a viewer for the server at baseURL (e.g.
// "http://127.0.0.1:8173").
func New(baseURL string, opts ...Option) *Viewer {
	v := &Viewer{
		baseURL:     baseURL,
		httpc:       &http.Client{},
		out:         os.Stdout,
		logger:      slog.Default(),
		round1Dwell: DefaultRound1Dwell,
		round2Dwell: DefaultRound2Dwell,
		skip:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Skip asks the viewer to stop waiting and show the next phase as soon as
// its payload exists. Safe to call from any goroutine; extra calls while
// one is pending are dropped.
func (v *Viewer) Skip() {
	select {
	case v.skip <- struct{}{}:
	default:
	}
}

// Watch starts a debate on the given topic and renders it phase by phase
// until the verdict or an error. It returns once the stream ends.
func (v *Viewer) Watch(ctx context.Context, topic string) error {
	resp, err := v.openStream(ctx, topic)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	events := make(chan stream.Event)
	readErr := make(chan error, 1)
	go func() {
		rd := newSSEReader(resp.Body)
		for {
			ev, err := rd.Next()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		sid          string
		round2Gate   *pacing.Gate[debate.Round2Payload]
		judgmentGate *pacing.Gate[debate.Judgment]
		round2Done   <-chan debate.Round2Payload
		judgmentDone <-chan debate.Judgment
		advanceOnce  sync.Once
	)
	advance := func() {
		advanceOnce.Do(func() {
			if err := v.postAdvance(ctx, sid); err != nil {
				v.logger.Warn("advance request failed", "sid", sid, "error", err)
			}
		})
	}
	abortGates := func() {
		if round2Gate != nil {
			round2Gate.Abort()
		}
		if judgmentGate != nil {
			judgmentGate.Abort()
		}
	}
	defer abortGates()

	v.renderWaiting(topic)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return errors.New("stream ended before the verdict")
			}
			return fmt.Errorf("read stream: %w", err)

		case payload := <-round2Done:
			round2Done = nil
			v.renderRound2(payload)
			judgmentGate = pacing.NewGate[debate.Judgment](v.round2Dwell, advance)
			judgmentDone = judgmentGate.Done()
			go v.advanceWhenDue(ctx, advance)

		case verdict := <-judgmentDone:
			judgmentDone = nil
			v.renderJudgment(verdict)

		case <-v.skip:
			switch {
			case round2Done != nil:
				round2Gate.Override()
			case judgmentDone != nil:
				judgmentGate.Override()
			}

		case ev := <-events:
			if sid == "" {
				sid = ev.SID
			}
			switch ev.Type {
			case stream.EventAxis:
				var axis debate.Axis
				if err := json.Unmarshal(ev.Data, &axis); err != nil {
					return fmt.Errorf("decode axis: %w", err)
				}
				v.renderAxis(axis)

			case stream.EventRound1:
				var payload debate.Round1Payload
				if err := json.Unmarshal(ev.Data, &payload); err != nil {
					return fmt.Errorf("decode round1: %w", err)
				}
				v.renderRound1(payload)
				round2Gate = pacing.NewGate[debate.Round2Payload](v.round1Dwell, nil)
				round2Done = round2Gate.Done()

			case stream.EventRound2:
				var payload debate.Round2Payload
				if err := json.Unmarshal(ev.Data, &payload); err != nil {
					return fmt.Errorf("decode round2: %w", err)
				}
				if round2Gate == nil {
					// round1 never showed; do not hold the payload hostage
					v.renderRound2(payload)
					judgmentGate = pacing.NewGate[debate.Judgment](v.round2Dwell, advance)
					judgmentDone = judgmentGate.Done()
					go v.advanceWhenDue(ctx, advance)
					continue
				}
				round2Gate.Deliver(payload)

			case stream.EventJudgment:
				var verdict debate.Judgment
				if err := json.Unmarshal(ev.Data, &verdict); err != nil {
					return fmt.Errorf("decode judgment: %w", err)
				}
				if judgmentGate == nil {
					v.renderJudgment(verdict)
					continue
				}
				judgmentGate.Deliver(verdict)

			case stream.EventComplete:
				// drain a judgment still sitting in its gate
				if judgmentDone != nil {
					select {
					case verdict := <-judgmentDone:
						v.renderJudgment(verdict)
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				v.renderComplete()
				return nil

			case stream.EventError:
				abortGates()
				return errors.New(errorMessage(ev.Data))
			}
		}
	}
}

// advanceWhenDue releases the server-held judgment once the round 2
// reading time has passed. Skip reaches the same call sooner through the
// gate's override notification.
func (v *Viewer) advanceWhenDue(ctx context.Context, advance func()) {
	t := time.NewTimer(v.round2Dwell)
	defer t.Stop()
	select {
	case <-t.C:
		advance()
	case <-ctx.Done():
	}
}

func (v *Viewer) openStream(ctx context.Context, topic string) (*http.Response, error) {
	u := v.baseURL + "/api/debate?topic=" + url.QueryEscape(topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := v.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", v.baseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("start debate: %s", errorMessage(body))
	}
	return resp, nil
}

func (v *Viewer) postAdvance(ctx context.Context, sid string) error {
	body, err := json.Marshal(map[string]string{"sid": sid})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		v.baseURL+"/api/debate/advance", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("advance rejected: status %d", resp.StatusCode)
	}
	return nil
}

// errorMessage pulls the message out of an {"error": ...} or
// {"message": ...} body, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return string(bytes.TrimSpace(body))
}
