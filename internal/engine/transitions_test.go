package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/renewal/internal/engine"
	"github.com/kode4food/renewal/pkg/api"
)

func TestIsTerminal(t *testing.T) {
	terminal := []api.Node{
		api.NodeEscalate,
		api.NodeSendEmail,
		api.NodeSendWhatsApp,
		api.NodeSendVoice,
		api.NodeCompleted,
	}
	for _, node := range terminal {
		assert.True(t, engine.IsTerminal(node), node)
	}

	inner := []api.Node{
		api.NodeOrchestrate,
		api.NodeVerifyChannel,
		api.NodePlan,
		api.NodeAssemble,
		api.NodeReviewContent,
		api.NodeRouteChannel,
	}
	for _, node := range inner {
		assert.False(t, engine.IsTerminal(node), node)
	}
	assert.False(t, engine.IsTerminal("unknown"))
}

func TestStateTransitions(t *testing.T) {
	tr := engine.StateTransitions[string]{
		"a": {"b": {}},
		"b": {},
	}
	assert.True(t, tr.CanTransition("a", "b"))
	assert.False(t, tr.CanTransition("b", "a"))
	assert.False(t, tr.CanTransition("c", "a"))
	assert.True(t, tr.IsTerminal("b"))
	assert.False(t, tr.IsTerminal("a"))
	assert.False(t, tr.IsTerminal("c"))
}

func TestChannelLeaf(t *testing.T) {
	cases := map[api.Channel]api.Node{
		api.ChannelEmail:    api.NodeSendEmail,
		api.ChannelWhatsApp: api.NodeSendWhatsApp,
		api.ChannelVoice:    api.NodeSendVoice,
		"SMS":               api.NodeSendEmail,
		"":                  api.NodeSendEmail,
	}
	for ch, want := range cases {
		st := api.SharedState{SelectedChannel: ch}
		assert.Equal(t, want, engine.ChannelLeaf(st), ch)
	}
}
