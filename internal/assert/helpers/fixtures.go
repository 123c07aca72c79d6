package helpers

import (
	"time"

	"github.com/kode4food/renewal/pkg/api"
)

// FixedTime is the clock used by deterministic tests
var FixedTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// Now returns FixedTime
func Now() time.Time {
	return FixedTime
}

// NewTestSnapshot creates the snapshot of a single active policy
func NewTestSnapshot() *api.PolicySnapshot {
	return &api.PolicySnapshot{
		Customer: api.Customer{
			CustomerID:        "CUST-001",
			Name:              "Rajesh Kumar",
			Age:               45,
			City:              "Mumbai",
			PreferredChannel:  api.ChannelEmail,
			PreferredLanguage: "English",
			Segment:           "Standard",
		},
		Policy: api.Policy{
			PolicyID:       "POL-001",
			CustomerID:     "CUST-001",
			PolicyType:     "Term Life",
			SumAssured:     5000000,
			AnnualPremium:  25000,
			PremiumDueDate: "2026-03-31",
			PaymentMode:    "Annual",
			Status:         "ACTIVE",
		},
		State: api.PolicyState{
			PolicyID:    "POL-001",
			CurrentNode: string(api.NodeOrchestrate),
			Mode:        api.ModeAI,
		},
	}
}

// NewTestState creates the initial run state of the test snapshot
func NewTestState() api.SharedState {
	return NewTestSnapshot().InitialState()
}

// Outbound creates an outbound interaction on ch
func Outbound(ch api.Channel, content string) api.Interaction {
	return api.Interaction{
		CreatedAt: FixedTime,
		Channel:   ch,
		Direction: api.DirectionOutbound,
		Content:   content,
	}
}

// Inbound creates an inbound interaction on ch
func Inbound(ch api.Channel, content string) api.Interaction {
	return api.Interaction{
		CreatedAt: FixedTime,
		Channel:   ch,
		Direction: api.DirectionInbound,
		Content:   content,
	}
}
