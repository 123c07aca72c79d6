package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kode4food/renewal/pkg/api"
)

type scanner interface {
	Scan(dest ...any) error
}

const policyColumns = `
	p.policy_id, p.customer_id, COALESCE(p.policy_type, ''),
	COALESCE(p.sum_assured, 0), COALESCE(p.annual_premium, 0),
	COALESCE(p.premium_due_date, ''), COALESCE(p.payment_mode, ''),
	p.fund_value, COALESCE(p.status, 'ACTIVE')`

// Snapshot loads everything needed to seed a run for policyID
func (s *SQLiteStore) Snapshot(
	ctx context.Context, policyID string,
) (*api.PolicySnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+policyColumns+`,
			c.name, c.age, c.city, c.preferred_channel, c.preferred_language,
			c.segment,
			COALESCE(ps.current_node, 'orchestrate'), ps.last_channel,
			COALESCE(ps.mode, 'AI'), COALESCE(ps.distress_flag, 0),
			COALESCE(ps.objection_count, 0), COALESCE(ps.sentiment_score, 0)
		FROM policies p
		JOIN customers c ON c.customer_id = p.customer_id
		LEFT JOIN policy_state ps ON ps.policy_id = p.policy_id
		WHERE p.policy_id = ?`, policyID,
	)

	res := &api.PolicySnapshot{}
	pol, err := scanPolicy(row, &res.Customer, &res.State)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, policyID)
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	res.Policy = *pol
	res.Customer.CustomerID = pol.CustomerID
	res.State.PolicyID = pol.PolicyID

	res.History, err = s.history(ctx, policyID, s.historyLimit)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Status reports the current renewal status of a policy
func (s *SQLiteStore) Status(
	ctx context.Context, policyID string,
) (*api.StatusResponse, error) {
	snap, err := s.Snapshot(ctx, policyID)
	if err != nil {
		return nil, err
	}

	res := &api.StatusResponse{
		PolicyID:       policyID,
		CustomerName:   snap.Customer.Name,
		PolicyType:     snap.Policy.PolicyType,
		CurrentNode:    snap.State.CurrentNode,
		Mode:           snap.State.Mode,
		LastChannel:    snap.State.LastChannel,
		ObjectionCount: snap.State.ObjectionCount,
		DistressFlag:   snap.State.DistressFlag,
	}

	res.Escalation, err = s.openEscalation(ctx, policyID)
	if err != nil {
		return nil, err
	}

	recent, err := s.history(ctx, policyID, StatusInteractions)
	if err != nil {
		return nil, err
	}
	slices.Reverse(recent)
	res.RecentInteractions = recent
	return res, nil
}

// WorkflowLogs returns the executed nodes of a policy's runs, oldest first
func (s *SQLiteStore) WorkflowLogs(
	ctx context.Context, policyID string,
) ([]*api.WorkflowLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, policy_id, COALESCE(run_id, ''), node_name, content,
			created_at
		FROM workflow_logs
		WHERE policy_id = ?
		ORDER BY created_at ASC, id ASC`, policyID,
	)
	if err != nil {
		return nil, fmt.Errorf("workflow logs: %w", err)
	}
	return collect(rows, func(r scanner) (*api.WorkflowLog, error) {
		var l api.WorkflowLog
		var created sql.NullString
		err := r.Scan(
			&l.ID, &l.PolicyID, &l.RunID, &l.Node, &l.Content, &created,
		)
		l.CreatedAt = nullTime(created)
		return &l, err
	})
}

// AuditLogs returns the audit trail of a policy, newest first
func (s *SQLiteStore) AuditLogs(
	ctx context.Context, policyID string,
) ([]*api.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, policy_id, action_type, action_reason, triggered_by,
			created_at
		FROM audit_logs
		WHERE policy_id = ?
		ORDER BY created_at DESC, id DESC`, policyID,
	)
	if err != nil {
		return nil, fmt.Errorf("audit logs: %w", err)
	}
	return collect(rows, func(r scanner) (*api.AuditLog, error) {
		var a api.AuditLog
		var created sql.NullString
		err := r.Scan(
			&a.ID, &a.PolicyID, &a.ActionType, &a.ActionReason,
			&a.TriggeredBy, &created,
		)
		a.CreatedAt = nullTime(created)
		return &a, err
	})
}

// Overview summarizes renewal operations. Action counts cover the audit
// entries created at or after since
func (s *SQLiteStore) Overview(
	ctx context.Context, since time.Time,
) (*api.Overview, error) {
	res := &api.Overview{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM policies),
			(SELECT COUNT(*) FROM policies WHERE status = 'ACTIVE'),
			(SELECT COUNT(*) FROM policy_state WHERE mode = ?),
			(SELECT COUNT(*) FROM policy_state WHERE mode = ?),
			(SELECT COUNT(*) FROM policy_state WHERE distress_flag = 1),
			(SELECT COUNT(*) FROM escalation_cases WHERE status = ?)`,
		string(api.ModeAI), string(api.ModeHumanControl), string(api.CaseOpen),
	).Scan(
		&res.TotalPolicies, &res.ActivePolicies, &res.AIManaged,
		&res.HumanManaged, &res.DistressCases, &res.OpenEscalations,
	)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT last_channel, COUNT(*)
		FROM policy_state
		WHERE last_channel IS NOT NULL
		GROUP BY last_channel
		ORDER BY last_channel`,
	)
	if err != nil {
		return nil, fmt.Errorf("overview channels: %w", err)
	}
	res.ChannelDistribution, err = collect(rows,
		func(r scanner) (api.ChannelCount, error) {
			var c api.ChannelCount
			err := r.Scan(&c.Channel, &c.Count)
			return c, err
		},
	)
	if err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT action_type, COUNT(*)
		FROM audit_logs
		WHERE created_at >= ?
		GROUP BY action_type
		ORDER BY action_type`, formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("overview actions: %w", err)
	}
	res.Last24hActions, err = collect(rows,
		func(r scanner) (api.ActionCount, error) {
			var a api.ActionCount
			err := r.Scan(&a.ActionType, &a.Count)
			return a, err
		},
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Customers lists customers with their policy counts, optionally limited
// to a segment
func (s *SQLiteStore) Customers(
	ctx context.Context, segment string,
) ([]*api.CustomerSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.customer_id, c.name, c.age, c.city, c.preferred_channel,
			c.preferred_language, c.segment, c.created_at,
			COUNT(p.policy_id)
		FROM customers c
		LEFT JOIN policies p ON p.customer_id = c.customer_id
		WHERE ? = '' OR c.segment = ?
		GROUP BY c.customer_id
		ORDER BY c.customer_id`, segment, segment,
	)
	if err != nil {
		return nil, fmt.Errorf("customers: %w", err)
	}
	return collect(rows, func(r scanner) (*api.CustomerSummary, error) {
		var c api.CustomerSummary
		var age sql.NullInt64
		var city, ch, lang, seg, created sql.NullString
		err := r.Scan(
			&c.CustomerID, &c.Name, &age, &city, &ch, &lang, &seg, &created,
			&c.PolicyCount,
		)
		c.Age = int(age.Int64)
		c.City = city.String
		c.PreferredChannel = api.Channel(ch.String)
		c.PreferredLanguage = lang.String
		c.Segment = seg.String
		c.CreatedAt = nullTime(created)
		return &c, err
	})
}

// Policies lists every policy with its holder, soonest due first
func (s *SQLiteStore) Policies(
	ctx context.Context,
) ([]*api.PolicySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+policyColumns+`, c.name, c.segment
		FROM policies p
		JOIN customers c ON c.customer_id = p.customer_id
		ORDER BY p.premium_due_date ASC, p.policy_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("policies: %w", err)
	}
	return collect(rows, func(r scanner) (*api.PolicySummary, error) {
		var p api.PolicySummary
		var seg sql.NullString
		var fund sql.NullFloat64
		err := r.Scan(
			&p.PolicyID, &p.CustomerID, &p.PolicyType, &p.SumAssured,
			&p.AnnualPremium, &p.PremiumDueDate, &p.PaymentMode, &fund,
			&p.Status, &p.CustomerName, &seg,
		)
		p.FundValue = nullFloat(fund)
		p.Segment = seg.String
		return &p, err
	})
}

// history returns the latest n interactions of a policy, oldest first
func (s *SQLiteStore) history(
	ctx context.Context, policyID string, n int,
) ([]api.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel, message_direction, content,
			COALESCE(sentiment_score, 0), created_at
		FROM interactions
		WHERE policy_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, policyID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	res, err := collect(rows, func(r scanner) (api.Interaction, error) {
		var in api.Interaction
		var created sql.NullString
		err := r.Scan(
			&in.Channel, &in.Direction, &in.Content, &in.Sentiment, &created,
		)
		in.CreatedAt = nullTime(created)
		return in, err
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(res)
	return res, nil
}

func scanPolicy(
	r scanner, c *api.Customer, st *api.PolicyState,
) (*api.Policy, error) {
	var p api.Policy
	var fund sql.NullFloat64
	var age sql.NullInt64
	var city, ch, lang, seg, last sql.NullString
	var distress int
	err := r.Scan(
		&p.PolicyID, &p.CustomerID, &p.PolicyType, &p.SumAssured,
		&p.AnnualPremium, &p.PremiumDueDate, &p.PaymentMode, &fund, &p.Status,
		&c.Name, &age, &city, &ch, &lang, &seg,
		&st.CurrentNode, &last, &st.Mode, &distress, &st.ObjectionCount,
		&st.SentimentScore,
	)
	if err != nil {
		return nil, err
	}
	p.FundValue = nullFloat(fund)
	c.Age = int(age.Int64)
	c.City = city.String
	c.PreferredChannel = api.Channel(ch.String)
	c.PreferredLanguage = lang.String
	c.Segment = seg.String
	st.LastChannel = api.Channel(last.String)
	st.DistressFlag = distress != 0
	return &p, nil
}

func collect[T any](
	rows *sql.Rows, scan func(scanner) (T, error),
) ([]T, error) {
	defer func() { _ = rows.Close() }()

	res := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
