// Package stream defines the debate event envelope and the NATS transport
// used to move phase events between engine, HTTP layer and viewers.
package stream

import (
	"encoding/json"
	"fmt"
)

// EventType identifies a phase event on a debate stream.
type EventType string

const (
	EventAxis     EventType = "axis"
	EventRound1   EventType = "round1"
	EventRound2   EventType = "round2"
	EventJudgment EventType = "judgment"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// IsValid reports whether t is one of the known event types.
func (t EventType) IsValid() bool {
	switch t {
	case EventAxis, EventRound1, EventRound2, EventJudgment, EventComplete, EventError:
		return true
	}
	return false
}

// Terminal reports whether t ends a stream. At most one terminal event
// appears per session, always last.
func (t EventType) Terminal() bool {
	return t == EventComplete || t == EventError
}

// Event is the envelope carried on a debate stream. Data holds the
// phase-specific payload verbatim.
type Event struct {
	Type EventType       `json:"type"`
	SID  string          `json:"sid"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals payload into an Event envelope. A nil payload yields
// an empty Data field, which complete events use.
func NewEvent(sid string, typ EventType, payload any) (Event, error) {
	ev := Event{Type: typ, SID: sid}
	if payload == nil {
		return ev, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", typ, err)
	}
	ev.Data = data
	return ev, nil
}

// ErrorEvent builds the terminal error envelope with a plain message body.
func ErrorEvent(sid, message string) Event {
	ev, _ := NewEvent(sid, EventError, map[string]string{"message": message})
	return ev
}

// ControlAction is a viewer-originated signal on a session's control
// subject.
type ControlAction string

const (
	// ControlAdvance asks the engine to release the held judgment.
	ControlAdvance ControlAction = "advance"

	// ControlAbort tears the session down.
	ControlAbort ControlAction = "abort"
)

// Control is the envelope on the control subject.
type Control struct {
	Action ControlAction `json:"action"`
	SID    string        `json:"sid"`
}
