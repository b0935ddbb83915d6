package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Subject layout. One event subject and one control subject per session;
// a single publisher per subject keeps NATS delivery ordered.
const (
	subjectPrefix = "break.session"

	// subscriberBuffer bounds the per-subscriber channel. A debate emits
	// at most six events, so overflow only happens with a stuck consumer.
	subscriberBuffer = 16
)

// EventSubject returns the subject phase events for sid are published on.
func EventSubject(sid string) string {
	return fmt.Sprintf("%s.%s.event", subjectPrefix, sid)
}

// ControlSubject returns the subject viewer signals for sid arrive on.
func ControlSubject(sid string) string {
	return fmt.Sprintf("%s.%s.control", subjectPrefix, sid)
}

// Bus publishes and subscribes debate events over a NATS connection.
type Bus struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewBus wraps an established NATS connection. logger may be nil.
func NewBus(nc *nats.Conn, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{nc: nc, logger: logger}
}

// Publish sends a phase event on the session's event subject.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	if !ev.Type.IsValid() {
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.nc.Publish(EventSubject(ev.SID), data); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	b.logger.Debug("published event", "sid", ev.SID, "type", ev.Type)
	return nil
}

// Subscription delivers a session's events in publish order.
type Subscription struct {
	C   <-chan Event
	sub *nats.Subscription
}

// Unsubscribe stops delivery and releases the NATS subscription.
func (s *Subscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

// SubscribeEvents subscribes to a session's event stream. Events arrive on
// the returned channel in the order they were published; the channel closes
// after a terminal event. Malformed messages are logged and skipped.
func (b *Bus) SubscribeEvents(sid string) (*Subscription, error) {
	ch := make(chan Event, subscriberBuffer)
	sub, err := b.nc.Subscribe(EventSubject(sid), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Warn("dropping malformed event", "sid", sid, "error", err)
			return
		}
		select {
		case ch <- ev:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				"sid", sid, "type", ev.Type)
			return
		}
		if ev.Type.Terminal() {
			close(ch)
			if err := msg.Sub.Unsubscribe(); err != nil {
				b.logger.Warn("unsubscribe after terminal event", "error", err)
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", EventSubject(sid), err)
	}
	return &Subscription{C: ch, sub: sub}, nil
}

// PublishControl sends a viewer signal on the session's control subject.
func (b *Bus) PublishControl(ctx context.Context, ctl Control) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(ctl)
	if err != nil {
		return fmt.Errorf("marshal control: %w", err)
	}
	if err := b.nc.Publish(ControlSubject(ctl.SID), data); err != nil {
		return fmt.Errorf("publish %s control: %w", ctl.Action, err)
	}
	return nil
}

// SubscribeControl delivers viewer signals for a session to handler.
func (b *Bus) SubscribeControl(sid string, handler func(Control)) (*nats.Subscription, error) {
	sub, err := b.nc.Subscribe(ControlSubject(sid), func(msg *nats.Msg) {
		var ctl Control
		if err := json.Unmarshal(msg.Data, &ctl); err != nil {
			b.logger.Warn("dropping malformed control", "sid", sid, "error", err)
			return
		}
		handler(ctl)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", ControlSubject(sid), err)
	}
	return sub, nil
}
