// Package events fans run events out to in-process subscribers such as
// websocket clients
package events

import (
	"log/slog"
	"sync"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/renewal/pkg/api"
	"github.com/kode4food/renewal/pkg/log"
)

type (
	// Hub publishes run events to every consumer it hands out
	Hub struct {
		topic  topic.Topic[*api.Event]
		prod   topic.Producer[*api.Event]
		mu     sync.RWMutex
		closed bool
	}

	// Filter selects the events a consumer is interested in
	Filter func(*api.Event) bool
)

// NewHub creates an open Hub
func NewHub() *Hub {
	t := caravan.NewTopic[*api.Event]()
	return &Hub{
		topic: t,
		prod:  t.NewProducer(),
	}
}

// Publish sends an event to all consumers. Publishing to a closed Hub is a
// no-op
func (h *Hub) Publish(ev *api.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed || ev == nil {
		return
	}
	message.Send(h.prod, ev)
}

// Raise builds an event around data and publishes it
func (h *Hub) Raise(
	typ api.EventType, policyID, runID string, data any,
) {
	ev, err := api.NewEvent(typ, policyID, runID, data)
	if err != nil {
		slog.Error("Failed to build event",
			slog.String("event_type", string(typ)),
			log.PolicyID(policyID),
			log.RunID(runID),
			log.Error(err))
		return
	}
	h.Publish(ev)
}

// NewConsumer returns a consumer that receives published events. Callers
// must Close it when done
func (h *Hub) NewConsumer() topic.Consumer[*api.Event] {
	return h.topic.NewConsumer()
}

// Close stops accepting new events
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.prod.Close()
}

// ForPolicy matches events belonging to a single policy
func ForPolicy(policyID string) Filter {
	return func(ev *api.Event) bool {
		return ev.PolicyID == policyID
	}
}

// ForRun matches events belonging to a single run
func ForRun(runID string) Filter {
	return func(ev *api.Event) bool {
		return ev.RunID == runID
	}
}

// OfType matches events of any of the given types
func OfType(types ...api.EventType) Filter {
	set := make(map[api.EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(ev *api.Event) bool {
		_, ok := set[ev.Type]
		return ok
	}
}

// And matches events accepted by every filter
func And(filters ...Filter) Filter {
	return func(ev *api.Event) bool {
		for _, f := range filters {
			if !f(ev) {
				return false
			}
		}
		return true
	}
}

// Subscription builds a Filter from a websocket client's subscription
func Subscription(sub *api.ClientSubscription) Filter {
	return sub.Matches
}
