// Package renewal starts workflow runs for policies and handles the
// replies customers send back
package renewal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/renewal/internal/engine"
	"github.com/kode4food/renewal/internal/engine/runopt"
	"github.com/kode4food/renewal/internal/runlock"
	"github.com/kode4food/renewal/pkg/api"
	"github.com/kode4food/renewal/pkg/log"
	"github.com/kode4food/renewal/pkg/util"
)

type (
	// Store is the record store the service reads snapshots from and
	// writes run progress to
	Store interface {
		Snapshot(
			ctx context.Context, policyID string,
		) (*api.PolicySnapshot, error)
		SetCurrentNode(ctx context.Context, policyID, node string) error
		AppendWorkflowLog(ctx context.Context, l *api.WorkflowLog) error
		AppendAudit(ctx context.Context, e *api.AuditLog) error
		AppendInteraction(
			ctx context.Context, policyID string, in api.Interaction,
		) error
		FlagDistress(ctx context.Context, policyID string) error
		IncrementObjections(ctx context.Context, policyID string) error
		CreateEscalation(
			ctx context.Context, c *api.EscalationCase,
		) (int64, error)
		ResolveEscalation(
			ctx context.Context, caseID int64, resolvedBy string,
		) (*api.EscalationCase, error)
	}

	// Runner executes the workflow graph
	Runner interface {
		Stream(
			ctx context.Context, initial api.SharedState, emit engine.Emitter,
			opts ...runopt.Applier,
		) (api.SharedState, error)
	}

	// Publisher receives run events
	Publisher interface {
		Raise(typ api.EventType, policyID, runID string, data any)
	}

	// Archiver keeps the transcript of finished runs
	Archiver interface {
		Put(ctx context.Context, tr *api.RunTranscript) error
	}

	// Dependencies are the collaborators a Service is constructed with.
	// Locker, Events and Archive are optional
	Dependencies struct {
		Store   Store
		Runner  Runner
		Locker  *runlock.Locker
		Events  Publisher
		Archive Archiver
		Now     func() time.Time
	}

	// Service coordinates workflow runs and inbound replies
	Service struct {
		store   Store
		runner  Runner
		locker  *runlock.Locker
		events  Publisher
		archive Archiver
		now     func() time.Time
		runs    sync.WaitGroup
	}
)

const (
	triggeredBy    = "System"
	defaultLogLine = "Node execution"
)

var ErrHumanControl = errors.New("policy is under human control")

// stageNodes record their own policy status, which must not be replaced
// by the node name
var stageNodes = util.SetOf(
	api.NodeEscalate,
	api.NodeSendEmail,
	api.NodeSendWhatsApp,
	api.NodeSendVoice,
	api.NodeCompleted,
)

// NewService creates a Service from its dependencies
func NewService(deps Dependencies) *Service {
	s := &Service{
		store:   deps.Store,
		runner:  deps.Runner,
		locker:  deps.Locker,
		events:  deps.Events,
		archive: deps.Archive,
		now:     deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Trigger starts a background run for a policy. The run continues after
// ctx is canceled
func (s *Service) Trigger(
	ctx context.Context, policyID string, override api.Channel,
) (*api.TriggerResponse, error) {
	snap, err := s.store.Snapshot(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if snap.State.Mode == api.ModeHumanControl {
		return nil, fmt.Errorf("%w: %s", ErrHumanControl, policyID)
	}

	initial := snap.InitialState()
	if override != "" {
		initial.PreferredChannel = override
	}

	var lock *runlock.Lock
	if s.locker != nil {
		if lock, err = s.locker.Acquire(ctx, policyID); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	slog.Info("Run triggered",
		log.PolicyID(policyID),
		log.RunID(runID),
		log.Channel(initial.PreferredChannel))

	s.runs.Go(func() {
		bg := context.WithoutCancel(ctx)
		defer s.release(bg, lock)
		_, _ = s.execute(bg, runID, initial, lock)
	})

	return &api.TriggerResponse{
		Status:           "triggered",
		PolicyID:         policyID,
		RunID:            runID,
		Customer:         snap.Customer.Name,
		PreferredChannel: initial.PreferredChannel,
		Message:          "Renewal workflow started in background",
	}, nil
}

// Execute runs the workflow to completion, persisting each node as it is
// merged. A faulted run leaves the status at the last merged node and
// records a WORKFLOW_ERROR audit entry. The run stops before its next
// node once the policy is handed to a human
func (s *Service) Execute(
	ctx context.Context, runID string, initial api.SharedState,
) (*api.RunTranscript, error) {
	return s.execute(ctx, runID, initial, nil)
}

// execute extends lock on every merged node. A run that has lost its
// lock stops before the next node runs
func (s *Service) execute(
	ctx context.Context, runID string, initial api.SharedState,
	lock *runlock.Lock,
) (*api.RunTranscript, error) {
	policyID := initial.PolicyID
	tr := &api.RunTranscript{
		StartedAt: s.now(),
		RunID:     runID,
		PolicyID:  policyID,
		Updates:   []*api.NodeUpdate{},
	}
	s.raise(api.EventRunStarted, policyID, runID, api.RunStartedEvent{
		PreferredChannel: initial.PreferredChannel,
	})

	final, err := s.runner.Stream(ctx, initial,
		func(u *api.NodeUpdate) error {
			if lock != nil {
				if err := lock.Extend(ctx); err != nil {
					return err
				}
			}
			if err := s.checkMode(ctx, policyID, u.Node); err != nil {
				return err
			}
			tr.Updates = append(tr.Updates, u)
			if err := s.record(ctx, policyID, u); err != nil {
				return err
			}
			s.raise(api.EventNodeUpdated, policyID, runID, u)
			return nil
		},
		runopt.WithRunID(runID),
	)
	tr.FinishedAt = s.now()
	tr.Final = &final

	if err != nil {
		tr.Error = err.Error()
		s.fail(ctx, policyID, runID, err)
	} else {
		slog.Info("Run completed",
			log.PolicyID(policyID),
			log.RunID(runID),
			log.Node(final.CurrentNode))
		s.raise(api.EventRunFinished, policyID, runID, api.RunFinishedEvent{
			Node:            final.CurrentNode,
			SelectedChannel: final.SelectedChannel,
			Mode:            final.Mode,
		})
	}

	s.archiveRun(ctx, tr)
	return tr, err
}

// Wait blocks until every background run has finished
func (s *Service) Wait() {
	s.runs.Wait()
}

// Resolve closes an escalation case and hands its policy back to the
// automated workflow
func (s *Service) Resolve(
	ctx context.Context, caseID int64, resolvedBy string,
) (*api.EscalationCase, error) {
	c, err := s.store.ResolveEscalation(ctx, caseID, resolvedBy)
	if err != nil {
		return nil, err
	}
	slog.Info("Escalation resolved",
		log.PolicyID(c.PolicyID),
		slog.Int64("case_id", caseID),
		slog.String("resolved_by", resolvedBy))
	return c, nil
}

// checkMode rejects a node once the policy has been handed to a human.
// Stage nodes are exempt because escalate hands it over itself
func (s *Service) checkMode(
	ctx context.Context, policyID string, node api.Node,
) error {
	if stageNodes.Contains(node) {
		return nil
	}
	snap, err := s.store.Snapshot(ctx, policyID)
	if err != nil {
		return err
	}
	if snap.State.Mode == api.ModeHumanControl {
		return fmt.Errorf("%w: %s", ErrHumanControl, policyID)
	}
	return nil
}

func (s *Service) record(
	ctx context.Context, policyID string, u *api.NodeUpdate,
) error {
	if !stageNodes.Contains(u.Node) {
		err := s.store.SetCurrentNode(ctx, policyID, string(u.Node))
		if err != nil {
			return err
		}
	}
	content := defaultLogLine
	if n := len(u.Update.AuditTrail); n > 0 {
		content = u.Update.AuditTrail[n-1]
	}
	return s.store.AppendWorkflowLog(ctx, &api.WorkflowLog{
		CreatedAt: u.Time,
		PolicyID:  policyID,
		RunID:     u.RunID,
		Node:      u.Node,
		Content:   content,
	})
}

func (s *Service) fail(
	ctx context.Context, policyID, runID string, cause error,
) {
	slog.Error("Run failed",
		log.PolicyID(policyID),
		log.RunID(runID),
		log.Error(cause))
	s.raise(api.EventRunFailed, policyID, runID, api.RunFailedEvent{
		Error: cause.Error(),
	})

	err := s.store.AppendAudit(ctx, &api.AuditLog{
		CreatedAt:    s.now(),
		PolicyID:     policyID,
		ActionType:   api.ActionWorkflowError,
		ActionReason: cause.Error(),
		TriggeredBy:  triggeredBy,
	})
	if err != nil {
		slog.Error("Failed to record workflow error",
			log.PolicyID(policyID),
			log.RunID(runID),
			log.Error(err))
	}
}

func (s *Service) archiveRun(ctx context.Context, tr *api.RunTranscript) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Put(ctx, tr); err != nil {
		slog.Warn("Failed to archive run",
			log.PolicyID(tr.PolicyID),
			log.RunID(tr.RunID),
			log.Error(err))
	}
}

func (s *Service) release(ctx context.Context, lock *runlock.Lock) {
	if lock == nil {
		return
	}
	if err := lock.Release(ctx); err != nil {
		slog.Warn("Failed to release run lock",
			log.PolicyID(lock.PolicyID),
			log.Error(err))
	}
}

func (s *Service) raise(
	typ api.EventType, policyID, runID string, data any,
) {
	if s.events != nil {
		s.events.Raise(typ, policyID, runID, data)
	}
}
