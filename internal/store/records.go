package store

import (
	"context"
	"fmt"

	"github.com/kode4food/renewal/pkg/api"
)

// AppendInteraction records a message exchanged with the policyholder
func (s *SQLiteStore) AppendInteraction(
	ctx context.Context, policyID string, in api.Interaction,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (
			policy_id, channel, message_direction, content, sentiment_score,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		policyID, string(in.Channel), string(in.Direction), in.Content,
		in.Sentiment, s.stamp(in.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// AppendAudit records a compliance audit entry
func (s *SQLiteStore) AppendAudit(ctx context.Context, e *api.AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			policy_id, action_type, action_reason, triggered_by, created_at
		) VALUES (?, ?, ?, ?, ?)`,
		e.PolicyID, e.ActionType, e.ActionReason, e.TriggeredBy,
		s.stamp(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// AppendWorkflowLog records one executed node of a run
func (s *SQLiteStore) AppendWorkflowLog(
	ctx context.Context, l *api.WorkflowLog,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_logs (
			policy_id, run_id, node_name, content, created_at
		) VALUES (?, ?, ?, ?, ?)`,
		l.PolicyID, l.RunID, string(l.Node), l.Content, s.stamp(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append workflow log: %w", err)
	}
	return nil
}

// CreateEscalation opens a human-queue case and returns its id
func (s *SQLiteStore) CreateEscalation(
	ctx context.Context, c *api.EscalationCase,
) (int64, error) {
	status := c.Status
	if status == "" {
		status = api.CaseOpen
	}
	var deadline any
	if !c.SLADeadline.IsZero() {
		deadline = formatTime(c.SLADeadline)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO escalation_cases (
			policy_id, escalation_reason, priority_score, assigned_to, status,
			sla_deadline, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.PolicyID, c.Reason, c.Priority, nullString(c.AssignedTo),
		string(status), deadline, s.stamp(c.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("create escalation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create escalation: %w", err)
	}
	return id, nil
}
