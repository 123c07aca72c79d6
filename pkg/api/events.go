package api

import (
	"encoding/json"
	"slices"
	"time"
)

type (
	// EventType identifies the kind of run event
	EventType string

	// NodeUpdate is one entry of a run's ordered update stream
	NodeUpdate struct {
		Time   time.Time `json:"time"`
		RunID  string    `json:"run_id"`
		Node   Node      `json:"node"`
		Update Update    `json:"update"`
		Seq    int       `json:"seq"`
	}

	// Event is published for every observable step of a run
	Event struct {
		Timestamp time.Time       `json:"timestamp"`
		Type      EventType       `json:"type"`
		PolicyID  string          `json:"policy_id"`
		RunID     string          `json:"run_id"`
		Data      json.RawMessage `json:"data,omitempty"`
	}

	// RunStartedEvent is emitted when a run begins
	RunStartedEvent struct {
		PreferredChannel Channel `json:"preferred_channel"`
	}

	// RunFinishedEvent is emitted when a run reaches a terminal node
	RunFinishedEvent struct {
		Node            Node    `json:"node"`
		SelectedChannel Channel `json:"selected_channel,omitempty"`
		Mode            Mode    `json:"mode"`
	}

	// RunFailedEvent is emitted when a run aborts on a fault
	RunFailedEvent struct {
		Error string `json:"error"`
	}

	// SubscribeRequest is sent by websocket clients to filter events
	SubscribeRequest struct {
		Type string             `json:"type"`
		Data ClientSubscription `json:"data"`
	}

	// ClientSubscription selects the policies and event types a websocket
	// client receives. Empty selections receive everything
	ClientSubscription struct {
		PolicyIDs  []string    `json:"policy_ids,omitempty"`
		EventTypes []EventType `json:"event_types,omitempty"`
	}
)

const (
	EventRunStarted  EventType = "run_started"
	EventNodeUpdated EventType = "node_updated"
	EventRunFinished EventType = "run_finished"
	EventRunFailed   EventType = "run_failed"
)

// NewEvent marshals data into an event envelope
func NewEvent(
	typ EventType, policyID, runID string, data any,
) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		Timestamp: time.Now(),
		Type:      typ,
		PolicyID:  policyID,
		RunID:     runID,
		Data:      raw,
	}, nil
}

// Matches reports whether the event passes the subscription filter
func (s *ClientSubscription) Matches(ev *Event) bool {
	if len(s.PolicyIDs) > 0 && !slices.Contains(s.PolicyIDs, ev.PolicyID) {
		return false
	}
	if len(s.EventTypes) > 0 && !slices.Contains(s.EventTypes, ev.Type) {
		return false
	}
	return true
}
