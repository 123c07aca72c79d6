package api

import "github.com/kode4food/renewal/pkg/util"

type (
	// Node identifies one step of the renewal workflow graph
	Node string

	// Channel names an outbound communication channel
	Channel string

	// Mode indicates whether a policy is handled by the AI or by a human
	Mode string

	// Direction records whether an interaction was sent or received
	Direction string

	// ChannelVerdict is the outcome of channel verification
	ChannelVerdict string

	// ReviewVerdict is the outcome of the content compliance review
	ReviewVerdict string
)

const (
	NodeOrchestrate   Node = "orchestrate"
	NodeVerifyChannel Node = "verify_channel"
	NodePlan          Node = "plan"
	NodeAssemble      Node = "assemble"
	NodeGreetClose    Node = "greet_close"
	NodeDraft         Node = "draft"
	NodeReviewContent Node = "review_content"
	NodeEscalate      Node = "escalate"
	NodeRouteChannel  Node = "route_channel"
	NodeSendEmail     Node = "send_email"
	NodeSendWhatsApp  Node = "send_whatsapp"
	NodeSendVoice     Node = "send_voice"
	NodeCompleted     Node = "completed"
)

const (
	ChannelEmail    Channel = "Email"
	ChannelWhatsApp Channel = "WhatsApp"
	ChannelVoice    Channel = "Voice"
)

const (
	ModeAI           Mode = "AI"
	ModeHumanControl Mode = "HUMAN_CONTROL"
)

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

const (
	ChannelApproved ChannelVerdict = "APPROVED"
	ChannelOverride ChannelVerdict = "OVERRIDE"
)

const (
	ReviewApproved        ReviewVerdict = "APPROVED"
	ReviewRevisionNeeded  ReviewVerdict = "REVISION_NEEDED"
	ReviewEscalate        ReviewVerdict = "ESCALATE"
	DefaultReviewVerdict                = ReviewApproved
	DefaultChannelVerdict               = ChannelApproved
)

var nodes = util.SetOf(
	NodeOrchestrate, NodeVerifyChannel, NodePlan, NodeAssemble,
	NodeGreetClose, NodeDraft, NodeReviewContent, NodeEscalate,
	NodeRouteChannel, NodeSendEmail, NodeSendWhatsApp, NodeSendVoice,
	NodeCompleted,
)

var channels = util.SetOf(ChannelEmail, ChannelWhatsApp, ChannelVoice)

// IsValid reports whether the node is a member of the workflow graph
func (n Node) IsValid() bool {
	return nodes.Contains(n)
}

// IsKnown reports whether the channel is one the service can deliver on
func (c Channel) IsKnown() bool {
	return channels.Contains(c)
}
