package engine

import (
	"github.com/kode4food/renewal/pkg/api"
	"github.com/kode4food/renewal/pkg/util"
)

// StateTransitions maps states to their set of valid next states
type StateTransitions[T comparable] map[T]util.Set[T]

var nodeTransitions = StateTransitions[api.Node]{
	api.NodeOrchestrate: util.SetOf(
		api.NodeVerifyChannel,
		api.NodeEscalate,
		api.NodeCompleted,
	),
	api.NodeVerifyChannel: util.SetOf(
		api.NodePlan,
	),
	api.NodePlan: util.SetOf(
		api.NodeAssemble,
	),
	api.NodeAssemble: util.SetOf(
		api.NodeReviewContent,
	),
	api.NodeReviewContent: util.SetOf(
		api.NodeEscalate,
		api.NodeRouteChannel,
	),
	api.NodeRouteChannel: util.SetOf(
		api.NodeSendEmail,
		api.NodeSendWhatsApp,
		api.NodeSendVoice,
	),
	api.NodeEscalate:     {},
	api.NodeSendEmail:    {},
	api.NodeSendWhatsApp: {},
	api.NodeSendVoice:    {},
	api.NodeCompleted:    {},
}

// CanTransition returns whether transition from one state to another is valid
func (t StateTransitions[T]) CanTransition(from, to T) bool {
	allowed, ok := t[from]
	if !ok {
		return false
	}
	return allowed.Contains(to)
}

// IsTerminal returns true if the state has no valid transitions
func (t StateTransitions[T]) IsTerminal(state T) bool {
	allowed, ok := t[state]
	return ok && allowed.IsEmpty()
}

// IsTerminal reports whether a run stops at node
func IsTerminal(node api.Node) bool {
	return nodeTransitions.IsTerminal(node)
}
