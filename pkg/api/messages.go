package api

import "time"

type (
	// TriggerRequest starts a renewal run for a policy
	TriggerRequest struct {
		PolicyID        string  `json:"policy_id" binding:"required"`
		OverrideChannel Channel `json:"override_channel,omitempty"`
	}

	// TriggerResponse is returned when a run has been started
	TriggerResponse struct {
		Status           string  `json:"status"`
		PolicyID         string  `json:"policy_id"`
		RunID            string  `json:"run_id"`
		Customer         string  `json:"customer"`
		PreferredChannel Channel `json:"preferred_channel"`
		Message          string  `json:"message"`
	}

	// InboundRequest carries a customer reply received on a channel
	InboundRequest struct {
		PolicyID   string  `json:"policy_id" binding:"required"`
		CustomerID string  `json:"customer_id"`
		Channel    Channel `json:"channel" binding:"required"`
		Content    string  `json:"content" binding:"required"`
	}

	// InboundResponse reports how an inbound message was classified
	InboundResponse struct {
		Status            string  `json:"status"`
		PolicyID          string  `json:"policy_id"`
		Channel           Channel `json:"channel"`
		DistressDetected  bool    `json:"distress_detected"`
		ObjectionDetected bool    `json:"objection_detected"`
	}

	// StatusResponse describes the current renewal status of a policy
	StatusResponse struct {
		Escalation         *EscalationCase `json:"escalation"`
		PolicyID           string          `json:"policy_id"`
		CustomerName       string          `json:"customer_name"`
		PolicyType         string          `json:"policy_type"`
		CurrentNode        string          `json:"current_node"`
		Mode               Mode            `json:"mode"`
		LastChannel        Channel         `json:"last_channel,omitempty"`
		RecentInteractions []Interaction   `json:"recent_interactions"`
		ObjectionCount     int             `json:"objection_count"`
		DistressFlag       bool            `json:"distress_flag"`
	}

	// LogsResponse lists the workflow log of a policy
	LogsResponse struct {
		PolicyID string         `json:"policy_id"`
		Logs     []*WorkflowLog `json:"logs"`
	}

	// AuditLogsResponse lists the audit trail of a policy
	AuditLogsResponse struct {
		PolicyID  string      `json:"policy_id"`
		AuditLogs []*AuditLog `json:"audit_logs"`
		Count     int         `json:"count"`
	}

	// EscalationsResponse lists escalation cases
	EscalationsResponse struct {
		Escalations []*EscalationCase `json:"escalations"`
		Count       int               `json:"count"`
	}

	// CustomersResponse lists customers
	CustomersResponse struct {
		Customers []*CustomerSummary `json:"customers"`
		Count     int                `json:"count"`
	}

	// PoliciesResponse lists policies
	PoliciesResponse struct {
		Policies []*PolicySummary `json:"policies"`
		Count    int              `json:"count"`
	}

	// ResolveRequest optionally names the operator closing a case
	ResolveRequest struct {
		ResolvedBy string `json:"resolved_by"`
	}

	// ResolveResponse is returned when an escalation case is resolved
	ResolveResponse struct {
		Message string     `json:"message"`
		Status  CaseStatus `json:"status"`
	}

	// RunsResponse lists the archived run ids of a policy
	RunsResponse struct {
		PolicyID string   `json:"policy_id"`
		Runs     []string `json:"runs"`
		Count    int      `json:"count"`
	}

	// RunTranscript is the archived record of one finished run
	RunTranscript struct {
		StartedAt  time.Time     `json:"started_at"`
		FinishedAt time.Time     `json:"finished_at"`
		Final      *SharedState  `json:"final,omitempty"`
		RunID      string        `json:"run_id"`
		PolicyID   string        `json:"policy_id"`
		Error      string        `json:"error,omitempty"`
		Updates    []*NodeUpdate `json:"updates"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)
