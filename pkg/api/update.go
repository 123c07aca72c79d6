package api

import (
	"slices"
	"strings"
)

type (
	// Update is the partial state change returned by a step. A nil pointer
	// leaves the corresponding field untouched
	Update struct {
		SelectedChannel      *Channel        `json:"selected_channel,omitempty"`
		ChannelJustification *string         `json:"channel_justification,omitempty"`
		ChannelVerdict       *ChannelVerdict `json:"channel_verdict,omitempty"`
		ExecutionPlan        *ExecutionPlan  `json:"execution_plan,omitempty"`
		Greeting             *string         `json:"greeting,omitempty"`
		Closing              *string         `json:"closing,omitempty"`
		DraftMessage         *string         `json:"draft_message,omitempty"`
		FinalMessage         *string         `json:"final_message,omitempty"`
		ReviewVerdict        *ReviewVerdict  `json:"review_verdict,omitempty"`
		PolicyContext        *string         `json:"policy_context,omitempty"`
		ObjectionContext     *string         `json:"objection_context,omitempty"`
		RegulationContext    *string         `json:"regulation_context,omitempty"`
		PaymentDone          *bool           `json:"payment_done,omitempty"`
		Mode                 *Mode           `json:"mode,omitempty"`
		Escalate             *bool           `json:"escalate,omitempty"`
		EscalationReason     *string         `json:"escalation_reason,omitempty"`
		DistressFlag         *bool           `json:"distress_flag,omitempty"`
		ObjectionCount       *int            `json:"objection_count,omitempty"`
		MessagesSent         []string        `json:"messages_sent,omitempty"`
		AuditTrail           []string        `json:"audit_trail,omitempty"`
	}

	// Field names a mergeable SharedState field
	Field string

	// Strategy describes how an update value is folded into state
	Strategy string

	// Reducer binds a field to its merge strategy
	Reducer struct {
		Field    Field
		Strategy Strategy
		apply    func(*SharedState, *Update)
	}
)

const (
	// StrategyOverwrite replaces the state value when the update sets one
	StrategyOverwrite Strategy = "overwrite"

	// StrategyAppend concatenates update entries after existing ones
	StrategyAppend Strategy = "append"

	// StrategyLatch only ever moves a flag from false to true
	StrategyLatch Strategy = "latch"
)

const (
	FieldSelectedChannel      Field = "selected_channel"
	FieldChannelJustification Field = "channel_justification"
	FieldChannelVerdict       Field = "channel_verdict"
	FieldExecutionPlan        Field = "execution_plan"
	FieldGreeting             Field = "greeting"
	FieldClosing              Field = "closing"
	FieldDraftMessage         Field = "draft_message"
	FieldFinalMessage         Field = "final_message"
	FieldReviewVerdict        Field = "review_verdict"
	FieldPolicyContext        Field = "policy_context"
	FieldObjectionContext     Field = "objection_context"
	FieldRegulationContext    Field = "regulation_context"
	FieldPaymentDone          Field = "payment_done"
	FieldMode                 Field = "mode"
	FieldEscalate             Field = "escalate"
	FieldEscalationReason     Field = "escalation_reason"
	FieldDistressFlag         Field = "distress_flag"
	FieldObjectionCount       Field = "objection_count"
	FieldMessagesSent         Field = "messages_sent"
	FieldAuditTrail           Field = "audit_trail"
)

// Reducers declares the merge rule of every Update field
var Reducers = []Reducer{
	overwrite(FieldSelectedChannel,
		func(u *Update) *Channel { return u.SelectedChannel },
		func(s *SharedState) *Channel { return &s.SelectedChannel }),
	overwrite(FieldChannelJustification,
		func(u *Update) *string { return u.ChannelJustification },
		func(s *SharedState) *string { return &s.ChannelJustification }),
	overwrite(FieldChannelVerdict,
		func(u *Update) *ChannelVerdict { return u.ChannelVerdict },
		func(s *SharedState) *ChannelVerdict { return &s.ChannelVerdict }),
	{
		Field:    FieldExecutionPlan,
		Strategy: StrategyOverwrite,
		apply: func(s *SharedState, u *Update) {
			if u.ExecutionPlan != nil {
				s.ExecutionPlan = u.ExecutionPlan.Clone()
			}
		},
	},
	overwrite(FieldGreeting,
		func(u *Update) *string { return u.Greeting },
		func(s *SharedState) *string { return &s.Greeting }),
	overwrite(FieldClosing,
		func(u *Update) *string { return u.Closing },
		func(s *SharedState) *string { return &s.Closing }),
	overwrite(FieldDraftMessage,
		func(u *Update) *string { return u.DraftMessage },
		func(s *SharedState) *string { return &s.DraftMessage }),
	overwrite(FieldFinalMessage,
		func(u *Update) *string { return u.FinalMessage },
		func(s *SharedState) *string { return &s.FinalMessage }),
	overwrite(FieldReviewVerdict,
		func(u *Update) *ReviewVerdict { return u.ReviewVerdict },
		func(s *SharedState) *ReviewVerdict { return &s.ReviewVerdict }),
	overwrite(FieldPolicyContext,
		func(u *Update) *string { return u.PolicyContext },
		func(s *SharedState) *string { return &s.PolicyContext }),
	overwrite(FieldObjectionContext,
		func(u *Update) *string { return u.ObjectionContext },
		func(s *SharedState) *string { return &s.ObjectionContext }),
	overwrite(FieldRegulationContext,
		func(u *Update) *string { return u.RegulationContext },
		func(s *SharedState) *string { return &s.RegulationContext }),
	overwrite(FieldPaymentDone,
		func(u *Update) *bool { return u.PaymentDone },
		func(s *SharedState) *bool { return &s.PaymentDone }),
	overwrite(FieldMode,
		func(u *Update) *Mode { return u.Mode },
		func(s *SharedState) *Mode { return &s.Mode }),
	overwrite(FieldEscalate,
		func(u *Update) *bool { return u.Escalate },
		func(s *SharedState) *bool { return &s.Escalate }),
	overwrite(FieldEscalationReason,
		func(u *Update) *string { return u.EscalationReason },
		func(s *SharedState) *string { return &s.EscalationReason }),
	{
		Field:    FieldDistressFlag,
		Strategy: StrategyLatch,
		apply: func(s *SharedState, u *Update) {
			if u.DistressFlag != nil && *u.DistressFlag {
				s.DistressFlag = true
			}
		},
	},
	overwrite(FieldObjectionCount,
		func(u *Update) *int { return u.ObjectionCount },
		func(s *SharedState) *int { return &s.ObjectionCount }),
	appendTo(FieldMessagesSent,
		func(u *Update) []string { return u.MessagesSent },
		func(s *SharedState) *[]string { return &s.MessagesSent }),
	appendTo(FieldAuditTrail,
		func(u *Update) []string { return u.AuditTrail },
		func(s *SharedState) *[]string { return &s.AuditTrail }),
}

// Ptr returns a pointer to a copy of v
func Ptr[T any](v T) *T {
	return &v
}

// Escalation returns a copy of the update with every escalation field set
func (u Update) Escalation(reason string) Update {
	res := u.Clone()
	res.Escalate = Ptr(true)
	res.EscalationReason = Ptr(reason)
	res.Mode = Ptr(ModeHumanControl)
	return res
}

// Audit returns a copy of the update with entries appended to its audit
// trail
func (u Update) Audit(entries ...string) Update {
	res := u.Clone()
	res.AuditTrail = append(res.AuditTrail, entries...)
	return res
}

// Validate reports a partially specified escalation
func (u Update) Validate() error {
	escalate := u.Escalate != nil && *u.Escalate
	reason := u.EscalationReason != nil
	human := u.Mode != nil && *u.Mode == ModeHumanControl
	if escalate || reason {
		if !(escalate && reason && human) {
			return ErrPartialEscalation
		}
	}
	return nil
}

// Clone returns a deep copy of the update's accumulators and plan
func (u Update) Clone() Update {
	res := u
	res.MessagesSent = slices.Clone(u.MessagesSent)
	res.AuditTrail = slices.Clone(u.AuditTrail)
	res.ExecutionPlan = u.ExecutionPlan.Clone()
	return res
}

// AssembleMessage joins the three message parts separated by blank lines
func AssembleMessage(greeting, draft, closing string) string {
	return strings.TrimSpace(greeting + "\n\n" + draft + "\n\n" + closing)
}

func overwrite[T any](
	field Field, get func(*Update) *T, set func(*SharedState) *T,
) Reducer {
	return Reducer{
		Field:    field,
		Strategy: StrategyOverwrite,
		apply: func(s *SharedState, u *Update) {
			if v := get(u); v != nil {
				*set(s) = *v
			}
		},
	}
}

func appendTo(
	field Field, get func(*Update) []string, set func(*SharedState) *[]string,
) Reducer {
	return Reducer{
		Field:    field,
		Strategy: StrategyAppend,
		apply: func(s *SharedState, u *Update) {
			if v := get(u); len(v) > 0 {
				dst := set(s)
				*dst = append(*dst, v...)
			}
		},
	}
}
