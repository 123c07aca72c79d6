package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/renewal/internal/events"
	"github.com/kode4food/renewal/pkg/api"
)

const timeout = 2 * time.Second

func TestPublishFansOut(t *testing.T) {
	hub := events.NewHub()
	defer hub.Close()

	c1 := hub.NewConsumer()
	defer c1.Close()
	c2 := hub.NewConsumer()
	defer c2.Close()

	hub.Raise(api.EventRunStarted, "POL-001", "run-1", api.RunStartedEvent{
		PreferredChannel: api.ChannelEmail,
	})

	for _, c := range []<-chan *api.Event{c1.Receive(), c2.Receive()} {
		select {
		case ev := <-c:
			require.NotNil(t, ev)
			assert.Equal(t, api.EventRunStarted, ev.Type)
			assert.Equal(t, "POL-001", ev.PolicyID)
			assert.Equal(t, "run-1", ev.RunID)

			var data api.RunStartedEvent
			require.NoError(t, json.Unmarshal(ev.Data, &data))
			assert.Equal(t, api.ChannelEmail, data.PreferredChannel)
		case <-time.After(timeout):
			t.Fatal("timeout waiting for event")
		}
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	hub := events.NewHub()
	defer hub.Close()

	c := hub.NewConsumer()
	defer c.Close()

	for _, runID := range []string{"a", "b", "c"} {
		hub.Raise(api.EventNodeUpdated, "POL-001", runID, nil)
	}

	var got []string
	for len(got) < 3 {
		select {
		case ev := <-c.Receive():
			got = append(got, ev.RunID)
		case <-time.After(timeout):
			t.Fatal("timeout waiting for event")
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestClosedHub(t *testing.T) {
	hub := events.NewHub()
	hub.Close()
	hub.Close()

	assert.NotPanics(t, func() {
		hub.Raise(api.EventRunFailed, "POL-001", "run-1", nil)
		hub.Publish(nil)
	})
}

func TestRaiseRejectsUnmarshalable(t *testing.T) {
	hub := events.NewHub()
	defer hub.Close()

	c := hub.NewConsumer()
	defer c.Close()

	hub.Raise(api.EventRunFailed, "POL-001", "run-1", make(chan int))
	hub.Raise(api.EventRunFailed, "POL-001", "run-2", nil)

	select {
	case ev := <-c.Receive():
		assert.Equal(t, "run-2", ev.RunID)
	case <-time.After(timeout):
		t.Fatal("timeout waiting for event")
	}
}

func TestFilters(t *testing.T) {
	ev := &api.Event{
		Type:     api.EventNodeUpdated,
		PolicyID: "POL-001",
		RunID:    "run-1",
	}

	assert.True(t, events.ForPolicy("POL-001")(ev))
	assert.False(t, events.ForPolicy("POL-002")(ev))
	assert.True(t, events.ForRun("run-1")(ev))
	assert.False(t, events.ForRun("run-2")(ev))
	assert.True(t, events.OfType(
		api.EventRunStarted, api.EventNodeUpdated,
	)(ev))
	assert.False(t, events.OfType(api.EventRunFinished)(ev))
	assert.False(t, events.OfType()(ev))

	assert.True(t, events.And()(ev))
	assert.True(t, events.And(
		events.ForPolicy("POL-001"), events.ForRun("run-1"),
	)(ev))
	assert.False(t, events.And(
		events.ForPolicy("POL-001"), events.ForRun("run-2"),
	)(ev))
}

func TestSubscription(t *testing.T) {
	ev := &api.Event{Type: api.EventRunFinished, PolicyID: "POL-001"}

	assert.True(t, events.Subscription(&api.ClientSubscription{})(ev))
	assert.True(t, events.Subscription(&api.ClientSubscription{
		PolicyIDs: []string{"POL-001"},
	})(ev))
	assert.False(t, events.Subscription(&api.ClientSubscription{
		PolicyIDs:  []string{"POL-001"},
		EventTypes: []api.EventType{api.EventRunStarted},
	})(ev))
}
