package store

import (
	"context"
	"fmt"

	"github.com/kode4food/renewal/pkg/api"
)

// UpsertCustomer inserts or replaces a customer profile
func (s *SQLiteStore) UpsertCustomer(
	ctx context.Context, c *api.Customer,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO customers (
			customer_id, name, age, city, preferred_channel,
			preferred_language, segment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CustomerID, c.Name, c.Age, c.City, string(c.PreferredChannel),
		c.PreferredLanguage, c.Segment, s.stamp(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert customer %s: %w", c.CustomerID, err)
	}
	return nil
}

// UpsertPolicy inserts or replaces a policy and makes sure it has a
// workflow status row
func (s *SQLiteStore) UpsertPolicy(ctx context.Context, p *api.Policy) error {
	status := p.Status
	if status == "" {
		status = "ACTIVE"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO policies (
			policy_id, customer_id, policy_type, sum_assured, annual_premium,
			premium_due_date, payment_mode, fund_value, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PolicyID, p.CustomerID, p.PolicyType, p.SumAssured, p.AnnualPremium,
		p.PremiumDueDate, p.PaymentMode, p.FundValue, status,
	)
	if err != nil {
		return fmt.Errorf("upsert policy %s: %w", p.PolicyID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO policy_state (policy_id, updated_at)
		VALUES (?, ?)`, p.PolicyID, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("upsert policy %s: %w", p.PolicyID, err)
	}
	return nil
}
