package api

import "time"

type (
	// CaseStatus is the lifecycle state of an escalation case
	CaseStatus string

	// Customer is a persisted policyholder profile
	Customer struct {
		CreatedAt         time.Time `json:"created_at"`
		CustomerID        string    `json:"customer_id"`
		Name              string    `json:"name"`
		City              string    `json:"city"`
		PreferredChannel  Channel   `json:"preferred_channel"`
		PreferredLanguage string    `json:"preferred_language"`
		Segment           string    `json:"segment"`
		Age               int       `json:"age"`
	}

	// Policy is a persisted insurance policy
	Policy struct {
		FundValue      *float64 `json:"fund_value,omitempty"`
		PolicyID       string   `json:"policy_id"`
		CustomerID     string   `json:"customer_id"`
		PolicyType     string   `json:"policy_type"`
		PremiumDueDate string   `json:"premium_due_date"`
		PaymentMode    string   `json:"payment_mode"`
		Status         string   `json:"status"`
		SumAssured     float64  `json:"sum_assured"`
		AnnualPremium  float64  `json:"annual_premium"`
	}

	// PolicyState is the persisted workflow status of a policy. CurrentNode
	// holds a workflow node or one of the stage markers
	PolicyState struct {
		UpdatedAt      time.Time `json:"updated_at"`
		PolicyID       string    `json:"policy_id"`
		CurrentNode    string    `json:"current_node"`
		LastChannel    Channel   `json:"last_channel,omitempty"`
		WaitingFor     string    `json:"waiting_for,omitempty"`
		Mode           Mode      `json:"mode"`
		SentimentScore float64   `json:"sentiment_score"`
		ObjectionCount int       `json:"objection_count"`
		DistressFlag   bool      `json:"distress_flag"`
	}

	// InteractionRecord is a persisted interaction tied to its policy
	InteractionRecord struct {
		PolicyID string `json:"policy_id"`
		Interaction
		ID int64 `json:"id"`
	}

	// EscalationCase is a human-queue work item
	EscalationCase struct {
		CreatedAt     time.Time  `json:"created_at"`
		SLADeadline   time.Time  `json:"sla_deadline"`
		PolicyID      string     `json:"policy_id"`
		Reason        string     `json:"escalation_reason"`
		AssignedTo    string     `json:"assigned_to,omitempty"`
		Status        CaseStatus `json:"status"`
		CustomerName  string     `json:"customer_name,omitempty"`
		PolicyType    string     `json:"policy_type,omitempty"`
		CaseID        int64      `json:"case_id"`
		Priority      float64    `json:"priority_score"`
		AnnualPremium float64    `json:"annual_premium,omitempty"`
	}

	// AuditLog is a compliance audit entry
	AuditLog struct {
		CreatedAt    time.Time `json:"created_at"`
		PolicyID     string    `json:"policy_id"`
		ActionType   string    `json:"action_type"`
		ActionReason string    `json:"action_reason"`
		TriggeredBy  string    `json:"triggered_by"`
		ID           int64     `json:"id"`
	}

	// WorkflowLog records one executed node of a run
	WorkflowLog struct {
		CreatedAt time.Time `json:"created_at"`
		PolicyID  string    `json:"policy_id"`
		RunID     string    `json:"run_id"`
		Node      Node      `json:"node_name"`
		Content   string    `json:"content"`
		ID        int64     `json:"id"`
	}

	// PolicySnapshot is everything needed to seed a run for one policy
	PolicySnapshot struct {
		Customer Customer      `json:"customer"`
		Policy   Policy        `json:"policy"`
		State    PolicyState   `json:"state"`
		History  []Interaction `json:"history"`
	}

	// Overview summarizes renewal operations for the dashboard
	Overview struct {
		ChannelDistribution []ChannelCount `json:"channel_distribution"`
		Last24hActions      []ActionCount  `json:"last_24h_actions"`
		TotalPolicies       int            `json:"total_policies"`
		ActivePolicies      int            `json:"active_policies"`
		AIManaged           int            `json:"ai_managed"`
		HumanManaged        int            `json:"human_managed"`
		DistressCases       int            `json:"distress_cases"`
		OpenEscalations     int            `json:"open_escalations"`
	}

	// ChannelCount is the number of policies last contacted on a channel
	ChannelCount struct {
		Channel Channel `json:"last_channel"`
		Count   int     `json:"count"`
	}

	// ActionCount is the number of audit entries of one action type
	ActionCount struct {
		ActionType string `json:"action_type"`
		Count      int    `json:"count"`
	}

	// CustomerSummary is a customer with the number of policies held
	CustomerSummary struct {
		Customer
		PolicyCount int `json:"policy_count"`
	}

	// PolicySummary is a policy with its holder's name and segment
	PolicySummary struct {
		CustomerName string `json:"customer_name"`
		Segment      string `json:"segment"`
		Policy
	}
)

const (
	CaseOpen     CaseStatus = "OPEN"
	CaseResolved CaseStatus = "RESOLVED"
)

const (
	// StageAwaitingResponse marks a policy whose outreach has been sent
	StageAwaitingResponse = "AWAITING_RESPONSE"

	// StageHumanQueue marks a policy handed to a human operator
	StageHumanQueue = "HUMAN_QUEUE"
)

const (
	ActionEmailSent       = "EMAIL_SENT"
	ActionWhatsAppSent    = "WHATSAPP_SENT"
	ActionVoiceInitiated  = "VOICE_CALL_INITIATED"
	ActionEscalation      = "ESCALATION_CREATED"
	ActionInboundDistress = "INBOUND_DISTRESS"
	ActionCaseResolved    = "ESCALATION_RESOLVED"
	ActionWorkflowError   = "WORKFLOW_ERROR"
)

// InitialState builds the shared state a run starts from
func (p *PolicySnapshot) InitialState() SharedState {
	c, pol, st := p.Customer, p.Policy, p.State
	res := SharedState{
		PolicyID:           pol.PolicyID,
		CustomerID:         c.CustomerID,
		CustomerName:       c.Name,
		CustomerAge:        c.Age,
		CustomerCity:       c.City,
		PreferredChannel:   c.PreferredChannel,
		PreferredLanguage:  c.PreferredLanguage,
		Segment:            c.Segment,
		PolicyType:         pol.PolicyType,
		SumAssured:         pol.SumAssured,
		AnnualPremium:      pol.AnnualPremium,
		PremiumDueDate:     pol.PremiumDueDate,
		PaymentMode:        pol.PaymentMode,
		PolicyStatus:       pol.Status,
		CurrentNode:        NodeOrchestrate,
		Mode:               st.Mode,
		DistressFlag:       st.DistressFlag,
		ObjectionCount:     st.ObjectionCount,
		InteractionHistory: append([]Interaction(nil), p.History...),
		MessagesSent:       []string{},
		AuditTrail:         []string{},
	}
	if pol.FundValue != nil {
		res.FundValue = Ptr(*pol.FundValue)
	}
	if res.PreferredChannel == "" {
		res.PreferredChannel = ChannelEmail
	}
	if res.PreferredLanguage == "" {
		res.PreferredLanguage = "English"
	}
	if res.Segment == "" {
		res.Segment = "Standard"
	}
	if res.PolicyStatus == "" {
		res.PolicyStatus = "ACTIVE"
	}
	if res.Mode == "" {
		res.Mode = ModeAI
	}
	return res
}
