package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/renewal/pkg/api"
)

func TestSnapshotState(t *testing.T) {
	snap := &api.PolicySnapshot{
		Customer: api.Customer{
			CustomerID: "CUST-001",
			Name:       "Rajesh Kumar",
			Age:        45,
		},
		Policy: api.Policy{
			PolicyID:      "POL-001",
			PolicyType:    "Term Life",
			AnnualPremium: 24000,
			FundValue:     api.Ptr(150000.0),
		},
		State: api.PolicyState{ObjectionCount: 2},
		History: []api.Interaction{
			{Channel: api.ChannelEmail, Content: "hello"},
		},
	}

	s := snap.InitialState()
	assert.Equal(t, "POL-001", s.PolicyID)
	assert.Equal(t, "Rajesh Kumar", s.CustomerName)
	assert.Equal(t, api.ChannelEmail, s.PreferredChannel)
	assert.Equal(t, "English", s.PreferredLanguage)
	assert.Equal(t, "Standard", s.Segment)
	assert.Equal(t, "ACTIVE", s.PolicyStatus)
	assert.Equal(t, api.ModeAI, s.Mode)
	assert.Equal(t, api.NodeOrchestrate, s.CurrentNode)
	assert.Equal(t, 2, s.ObjectionCount)
	assert.Equal(t, 150000.0, *s.FundValue)
	assert.Len(t, s.InteractionHistory, 1)
	assert.NotNil(t, s.AuditTrail)

	*snap.Policy.FundValue = 1
	snap.History[0].Content = "changed"
	assert.Equal(t, 150000.0, *s.FundValue)
	assert.Equal(t, "hello", s.InteractionHistory[0].Content)
}
