package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kode4food/renewal/pkg/api"
)

const escalationColumns = `
	e.case_id, e.policy_id, COALESCE(e.escalation_reason, ''),
	COALESCE(e.priority_score, 0), e.assigned_to, e.status, e.sla_deadline,
	e.created_at, COALESCE(c.name, ''), COALESCE(p.policy_type, ''),
	COALESCE(p.annual_premium, 0)`

const escalationJoins = `
	FROM escalation_cases e
	LEFT JOIN policies p ON p.policy_id = e.policy_id
	LEFT JOIN customers c ON c.customer_id = p.customer_id`

// Escalations lists cases with the given status, or every case when
// status is empty, most urgent first
func (s *SQLiteStore) Escalations(
	ctx context.Context, status api.CaseStatus,
) ([]*api.EscalationCase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+escalationColumns+escalationJoins+`
		WHERE ? = '' OR e.status = ?
		ORDER BY e.priority_score DESC, e.created_at ASC, e.case_id ASC`,
		string(status), string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("escalations: %w", err)
	}
	return collect(rows, scanEscalation)
}

// ResolveEscalation closes a case and returns its policy to automated
// handling
func (s *SQLiteStore) ResolveEscalation(
	ctx context.Context, caseID int64, resolvedBy string,
) (*api.EscalationCase, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("resolve escalation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT `+escalationColumns+escalationJoins+`
		WHERE e.case_id = ?`, caseID,
	)
	c, err := scanEscalation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrCaseNotFound, caseID)
		}
		return nil, fmt.Errorf("resolve escalation: %w", err)
	}

	now := s.timestamp()
	stmts := []struct {
		query string
		args  []any
	}{
		{
			`UPDATE escalation_cases SET status = ? WHERE case_id = ?`,
			[]any{string(api.CaseResolved), caseID},
		},
		{
			`UPDATE policy_state
			SET mode = ?, distress_flag = 0, current_node = ?, updated_at = ?
			WHERE policy_id = ?`,
			[]any{
				string(api.ModeAI), string(api.NodeOrchestrate), now,
				c.PolicyID,
			},
		},
		{
			`INSERT INTO audit_logs (
				policy_id, action_type, action_reason, triggered_by, created_at
			) VALUES (?, ?, ?, ?, ?)`,
			[]any{
				c.PolicyID, api.ActionCaseResolved,
				fmt.Sprintf("Case #%d resolved", caseID), resolvedBy, now,
			},
		},
	}
	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			return nil, fmt.Errorf("resolve escalation: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("resolve escalation: %w", err)
	}
	c.Status = api.CaseResolved
	return c, nil
}

func (s *SQLiteStore) openEscalation(
	ctx context.Context, policyID string,
) (*api.EscalationCase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+escalationColumns+escalationJoins+`
		WHERE e.policy_id = ? AND e.status = ?
		ORDER BY e.created_at DESC, e.case_id DESC
		LIMIT 1`, policyID, string(api.CaseOpen),
	)
	c, err := scanEscalation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open escalation: %w", err)
	}
	return c, nil
}

func scanEscalation(r scanner) (*api.EscalationCase, error) {
	var c api.EscalationCase
	var assigned, deadline, created sql.NullString
	err := r.Scan(
		&c.CaseID, &c.PolicyID, &c.Reason, &c.Priority, &assigned, &c.Status,
		&deadline, &created, &c.CustomerName, &c.PolicyType, &c.AnnualPremium,
	)
	if err != nil {
		return nil, err
	}
	c.AssignedTo = assigned.String
	c.SLADeadline = nullTime(deadline)
	c.CreatedAt = nullTime(created)
	return &c, nil
}
