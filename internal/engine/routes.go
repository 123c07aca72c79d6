package engine

import "github.com/kode4food/renewal/pkg/api"

// route picks the next node from the merged state after node has executed
type route func(api.SharedState) api.Node

var routes = map[api.Node]route{
	api.NodeOrchestrate:   afterOrchestrate,
	api.NodeVerifyChannel: always(api.NodePlan),
	api.NodePlan:          always(api.NodeAssemble),
	api.NodeAssemble:      always(api.NodeReviewContent),
	api.NodeReviewContent: afterReview,
	api.NodeRouteChannel:  ChannelLeaf,
}

var channelLeaves = map[api.Channel]api.Node{
	api.ChannelEmail:    api.NodeSendEmail,
	api.ChannelWhatsApp: api.NodeSendWhatsApp,
	api.ChannelVoice:    api.NodeSendVoice,
}

// forkPair lists the concurrently executed steps in merge order
var forkPair = []api.Node{api.NodeGreetClose, api.NodeDraft}

// ChannelLeaf returns the send node for the selected channel, defaulting
// to email for unknown values
func ChannelLeaf(st api.SharedState) api.Node {
	if node, ok := channelLeaves[st.SelectedChannel]; ok {
		return node
	}
	return api.NodeSendEmail
}

func afterOrchestrate(st api.SharedState) api.Node {
	switch {
	case st.Escalate:
		return api.NodeEscalate
	case st.PaymentDone:
		return api.NodeCompleted
	default:
		return api.NodeVerifyChannel
	}
}

func afterReview(st api.SharedState) api.Node {
	if st.Escalate || st.ReviewVerdict == api.ReviewEscalate {
		return api.NodeEscalate
	}
	return api.NodeRouteChannel
}

func always(node api.Node) route {
	return func(api.SharedState) api.Node {
		return node
	}
}
