package store

import (
	"context"
	"fmt"

	"github.com/kode4food/renewal/pkg/api"
)

const upsertState = `
	INSERT INTO policy_state (policy_id, %[1]s, updated_at)
	VALUES (?, %[2]s, ?)
	ON CONFLICT(policy_id) DO UPDATE SET %[3]s, updated_at = excluded.updated_at`

// SetCurrentNode records the node a policy's run has reached
func (s *SQLiteStore) SetCurrentNode(
	ctx context.Context, policyID, node string,
) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(upsertState,
		"current_node", "?", "current_node = excluded.current_node",
	), policyID, node, s.timestamp())
	if err != nil {
		return fmt.Errorf("set current node: %w", err)
	}
	return nil
}

// MarkSent records that outreach went out on ch and a reply is awaited
func (s *SQLiteStore) MarkSent(
	ctx context.Context, policyID string, ch api.Channel,
) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(upsertState,
		"current_node, last_channel", "?, ?",
		"current_node = excluded.current_node, "+
			"last_channel = excluded.last_channel",
	), policyID, api.StageAwaitingResponse, string(ch), s.timestamp())
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// MarkHumanQueue hands a policy to a human operator
func (s *SQLiteStore) MarkHumanQueue(
	ctx context.Context, policyID string, distress bool,
) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(upsertState,
		"current_node, mode, distress_flag", "?, ?, ?",
		"current_node = excluded.current_node, mode = excluded.mode, "+
			"distress_flag = excluded.distress_flag",
	), policyID, api.StageHumanQueue, string(api.ModeHumanControl),
		boolInt(distress), s.timestamp())
	if err != nil {
		return fmt.Errorf("mark human queue: %w", err)
	}
	return nil
}

// FlagDistress raises the distress flag and moves the policy to human
// control
func (s *SQLiteStore) FlagDistress(ctx context.Context, policyID string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(upsertState,
		"mode, distress_flag", "?, 1",
		"mode = excluded.mode, distress_flag = 1",
	), policyID, string(api.ModeHumanControl), s.timestamp())
	if err != nil {
		return fmt.Errorf("flag distress: %w", err)
	}
	return nil
}

// IncrementObjections adds one to the policy's objection count
func (s *SQLiteStore) IncrementObjections(
	ctx context.Context, policyID string,
) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(upsertState,
		"objection_count", "1",
		"objection_count = policy_state.objection_count + 1",
	), policyID, s.timestamp())
	if err != nil {
		return fmt.Errorf("increment objections: %w", err)
	}
	return nil
}
