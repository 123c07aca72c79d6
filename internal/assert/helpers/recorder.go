package helpers

import (
	"context"
	"sync"

	"github.com/kode4food/renewal/pkg/api"
)

type (
	// MockRecorder captures the side effects of the terminal steps
	MockRecorder struct {
		Interactions []RecordedInteraction
		Audits       []*api.AuditLog
		Sent         []api.Channel
		Cases        []*api.EscalationCase
		HumanQueue   map[string]bool
		errors       map[string]error
		nextCase     int64
		mu           sync.Mutex
	}

	// RecordedInteraction pairs an interaction with its policy
	RecordedInteraction struct {
		PolicyID string
		api.Interaction
	}
)

// Recorder operations that can be made to fail
const (
	OpAppendInteraction = "AppendInteraction"
	OpAppendAudit       = "AppendAudit"
	OpMarkSent          = "MarkSent"
	OpCreateEscalation  = "CreateEscalation"
	OpMarkHumanQueue    = "MarkHumanQueue"
)

// NewMockRecorder creates an empty recorder
func NewMockRecorder() *MockRecorder {
	return &MockRecorder{
		HumanQueue: map[string]bool{},
		errors:     map[string]error{},
	}
}

// SetError makes a recorder operation fail
func (r *MockRecorder) SetError(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[op] = err
}

// AppendInteraction records an interaction
func (r *MockRecorder) AppendInteraction(
	_ context.Context, policyID string, in api.Interaction,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errors[OpAppendInteraction]; err != nil {
		return err
	}
	r.Interactions = append(r.Interactions, RecordedInteraction{
		PolicyID:    policyID,
		Interaction: in,
	})
	return nil
}

// AppendAudit records an audit entry
func (r *MockRecorder) AppendAudit(_ context.Context, e *api.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errors[OpAppendAudit]; err != nil {
		return err
	}
	r.Audits = append(r.Audits, e)
	return nil
}

// MarkSent records the channel a policy was contacted on
func (r *MockRecorder) MarkSent(
	_ context.Context, _ string, ch api.Channel,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errors[OpMarkSent]; err != nil {
		return err
	}
	r.Sent = append(r.Sent, ch)
	return nil
}

// CreateEscalation records a case and assigns it the next id
func (r *MockRecorder) CreateEscalation(
	_ context.Context, c *api.EscalationCase,
) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errors[OpCreateEscalation]; err != nil {
		return 0, err
	}
	r.nextCase++
	res := *c
	res.CaseID = r.nextCase
	r.Cases = append(r.Cases, &res)
	return res.CaseID, nil
}

// MarkHumanQueue records that a policy was handed to a human
func (r *MockRecorder) MarkHumanQueue(
	_ context.Context, policyID string, distress bool,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errors[OpMarkHumanQueue]; err != nil {
		return err
	}
	r.HumanQueue[policyID] = distress
	return nil
}
