package stream

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yo2158/break/debate"
)

func startNATS(t *testing.T) *nats.Conn {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		Debug:     false,
		JetStream: false,
	})
	require.NoError(t, err)

	go ns.Start()
	t.Cleanup(ns.Shutdown)
	require.True(t, ns.ReadyForConnections(5*time.Second))

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestBusDeliversEventsInOrder(t *testing.T) {
	nc := startNATS(t)
	bus := NewBus(nc, nil)
	ctx := context.Background()

	sub, err := bus.SubscribeEvents("s1")
	require.NoError(t, err)

	axis, err := NewEvent("s1", EventAxis, debate.Axis{ID: 5, Left: "効率最適化", Right: "人間中心主義"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, axis))

	round1, err := NewEvent("s1", EventRound1, map[string]string{"axis_left": "効率最適化"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, round1))

	complete, err := NewEvent("s1", EventComplete, nil)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, complete))

	var got []EventType
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				assert.Equal(t, []EventType{EventAxis, EventRound1, EventComplete}, got)
				return
			}
			assert.Equal(t, "s1", ev.SID)
			got = append(got, ev.Type)
		case <-deadline:
			t.Fatalf("stream did not finish, got %v", got)
		}
	}
}

func TestBusIsolatesSessions(t *testing.T) {
	nc := startNATS(t)
	bus := NewBus(nc, nil)
	ctx := context.Background()

	subA, err := bus.SubscribeEvents("a")
	require.NoError(t, err)
	defer subA.Unsubscribe()

	require.NoError(t, bus.Publish(ctx, ErrorEvent("b", "生成に失敗しました")))
	require.NoError(t, bus.Publish(ctx, ErrorEvent("a", "boom")))

	select {
	case ev := <-subA.C:
		assert.Equal(t, "a", ev.SID)
		assert.Equal(t, EventError, ev.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for session a")
	}
}

func TestBusControlRoundTrip(t *testing.T) {
	nc := startNATS(t)
	bus := NewBus(nc, nil)

	got := make(chan Control, 1)
	sub, err := bus.SubscribeControl("s1", func(ctl Control) { got <- ctl })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, bus.PublishControl(context.Background(), Control{Action: ControlAdvance, SID: "s1"}))

	select {
	case ctl := <-got:
		assert.Equal(t, ControlAdvance, ctl.Action)
		assert.Equal(t, "s1", ctl.SID)
	case <-time.After(5 * time.Second):
		t.Fatal("control signal not delivered")
	}
}

func TestBusRejectsUnknownEventType(t *testing.T) {
	nc := startNATS(t)
	bus := NewBus(nc, nil)

	err := bus.Publish(context.Background(), Event{Type: "bogus", SID: "x"})
	assert.Error(t, err)
}

func TestEventSubjects(t *testing.T) {
	assert.Equal(t, "break.session.abc.event", EventSubject("abc"))
	assert.Equal(t, "break.session.abc.control", ControlSubject("abc"))
}

func TestEventTypeClassification(t *testing.T) {
	tests := []struct {
		typ      EventType
		valid    bool
		terminal bool
	}{
		{EventAxis, true, false},
		{EventRound1, true, false},
		{EventRound2, true, false},
		{EventJudgment, true, false},
		{EventComplete, true, true},
		{EventError, true, true},
		{"nope", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.typ.IsValid(), "IsValid(%s)", tt.typ)
		assert.Equal(t, tt.terminal, tt.typ.Terminal(), "Terminal(%s)", tt.typ)
	}
}
