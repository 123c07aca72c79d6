package api

import (
	"errors"
	"slices"
	"time"
)

type (
	// SharedState is the record threaded through a single workflow run
	SharedState struct {
		PolicyID          string   `json:"policy_id"`
		CustomerID        string   `json:"customer_id"`
		CustomerName      string   `json:"customer_name"`
		CustomerAge       int      `json:"customer_age"`
		CustomerCity      string   `json:"customer_city"`
		PreferredChannel  Channel  `json:"preferred_channel"`
		PreferredLanguage string   `json:"preferred_language"`
		Segment           string   `json:"segment"`
		PolicyType        string   `json:"policy_type"`
		SumAssured        float64  `json:"sum_assured"`
		AnnualPremium     float64  `json:"annual_premium"`
		PremiumDueDate    string   `json:"premium_due_date"`
		PaymentMode       string   `json:"payment_mode"`
		FundValue         *float64 `json:"fund_value,omitempty"`
		PolicyStatus      string   `json:"policy_status"`

		SelectedChannel      Channel        `json:"selected_channel,omitempty"`
		ChannelJustification string         `json:"channel_justification,omitempty"`
		ChannelVerdict       ChannelVerdict `json:"channel_verdict,omitempty"`
		ExecutionPlan        *ExecutionPlan `json:"execution_plan,omitempty"`
		Greeting             string         `json:"greeting,omitempty"`
		Closing              string         `json:"closing,omitempty"`
		DraftMessage         string         `json:"draft_message,omitempty"`
		FinalMessage         string         `json:"final_message,omitempty"`
		ReviewVerdict        ReviewVerdict  `json:"review_verdict,omitempty"`
		PolicyContext        string         `json:"policy_context,omitempty"`
		ObjectionContext     string         `json:"objection_context,omitempty"`
		RegulationContext    string         `json:"regulation_context,omitempty"`
		PaymentDone          bool           `json:"payment_done,omitempty"`

		CurrentNode      Node   `json:"current_node"`
		Mode             Mode   `json:"mode"`
		Escalate         bool   `json:"escalate"`
		EscalationReason string `json:"escalation_reason,omitempty"`
		DistressFlag     bool   `json:"distress_flag"`
		ObjectionCount   int    `json:"objection_count"`

		MessagesSent []string `json:"messages_sent"`
		AuditTrail   []string `json:"audit_trail"`

		InteractionHistory []Interaction `json:"interaction_history"`
	}

	// Interaction is one prior turn of the conversation with a customer
	Interaction struct {
		CreatedAt time.Time `json:"created_at"`
		Channel   Channel   `json:"channel"`
		Direction Direction `json:"direction"`
		Content   string    `json:"content"`
		Sentiment float64   `json:"sentiment"`
	}

	// ExecutionPlan is the structured guidance consumed by the assembly
	// steps. It never holds customer-facing text
	ExecutionPlan struct {
		Tone                    string   `json:"tone"`
		Language                string   `json:"language"`
		KeyFacts                []string `json:"key_facts"`
		ObjectionPlaybookID     string   `json:"objection_playbook_id,omitempty"`
		ObjectionResponses      []string `json:"objection_responses"`
		GreetingStyle           string   `json:"greeting_style"`
		TimingWindow            string   `json:"timing_window"`
		CTAType                 string   `json:"cta_type"`
		PersonalizationElements []string `json:"personalization_elements"`
		DistressWatchKeywords   []string `json:"distress_watch_keywords"`
		LanguageNote            string   `json:"language_note,omitempty"`
	}
)

var (
	ErrPartialEscalation = errors.New(
		"escalate, escalation reason and human control must be set together",
	)
	ErrInvalidNode = errors.New("invalid workflow node")
)

// Clone returns a deep copy of the state
func (s SharedState) Clone() SharedState {
	res := s
	res.MessagesSent = slices.Clone(s.MessagesSent)
	res.AuditTrail = slices.Clone(s.AuditTrail)
	res.InteractionHistory = slices.Clone(s.InteractionHistory)
	res.ExecutionPlan = s.ExecutionPlan.Clone()
	if s.FundValue != nil {
		fv := *s.FundValue
		res.FundValue = &fv
	}
	return res
}

// Merge folds a partial update into a copy of the state using the reducer
// table
func (s SharedState) Merge(u Update) SharedState {
	res := s.Clone()
	for _, r := range Reducers {
		r.apply(&res, &u)
	}
	return res
}

// Validate checks the control-field invariants of the state
func (s SharedState) Validate() error {
	if s.CurrentNode != "" && !s.CurrentNode.IsValid() {
		return errors.Join(ErrInvalidNode, errors.New(string(s.CurrentNode)))
	}
	human := s.Mode == ModeHumanControl
	reason := s.EscalationReason != ""
	if (s.Escalate || human || reason) && !(s.Escalate && human && reason) {
		return ErrPartialEscalation
	}
	return nil
}

// Channel returns the selected channel, or the preferred one when no
// selection has been made yet
func (s SharedState) Channel() Channel {
	if s.SelectedChannel != "" {
		return s.SelectedChannel
	}
	if s.PreferredChannel != "" {
		return s.PreferredChannel
	}
	return ChannelEmail
}

// Language returns the planned language, falling back to the customer's
// preferred language
func (s SharedState) Language() string {
	if p := s.ExecutionPlan; p != nil && p.Language != "" {
		return p.Language
	}
	if s.PreferredLanguage != "" {
		return s.PreferredLanguage
	}
	return "English"
}

// Tone returns the planned tone or a friendly default
func (s SharedState) Tone() string {
	if p := s.ExecutionPlan; p != nil && p.Tone != "" {
		return p.Tone
	}
	return "friendly"
}

// Plan returns the execution plan, never nil
func (s SharedState) Plan() *ExecutionPlan {
	if s.ExecutionPlan == nil {
		return &ExecutionPlan{}
	}
	return s.ExecutionPlan
}

// AssembledMessage joins greeting, draft and closing the way every
// outbound channel presents them
func (s SharedState) AssembledMessage() string {
	return AssembleMessage(s.Greeting, s.DraftMessage, s.Closing)
}

// RecentHistory returns at most the last n interactions
func (s SharedState) RecentHistory(n int) []Interaction {
	h := s.InteractionHistory
	if len(h) > n {
		return h[len(h)-n:]
	}
	return h
}

// Clone returns a deep copy of the plan
func (p *ExecutionPlan) Clone() *ExecutionPlan {
	if p == nil {
		return nil
	}
	res := *p
	res.KeyFacts = slices.Clone(p.KeyFacts)
	res.ObjectionResponses = slices.Clone(p.ObjectionResponses)
	res.PersonalizationElements = slices.Clone(p.PersonalizationElements)
	res.DistressWatchKeywords = slices.Clone(p.DistressWatchKeywords)
	return &res
}
