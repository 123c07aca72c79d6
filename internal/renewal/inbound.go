package renewal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kode4food/renewal/internal/escalation"
	"github.com/kode4food/renewal/internal/keywords"
	"github.com/kode4food/renewal/pkg/api"
	"github.com/kode4food/renewal/pkg/log"
)

const (
	distressSentiment = -0.5
	inboundTrigger    = "Inbound Webhook"
)

// Inbound records a customer reply. Distress hands the policy to a human
// with a top-priority case; an objection only bumps the objection count
func (s *Service) Inbound(
	ctx context.Context, req *api.InboundRequest,
) (*api.InboundResponse, error) {
	if _, err := s.store.Snapshot(ctx, req.PolicyID); err != nil {
		return nil, err
	}

	distress := keywords.DetectInboundDistress(req.Content)
	objection := keywords.DetectObjection(req.Content)
	now := s.now()

	in := api.Interaction{
		CreatedAt: now,
		Channel:   req.Channel,
		Direction: api.DirectionInbound,
		Content:   req.Content,
	}
	if distress {
		in.Sentiment = distressSentiment
	}
	if err := s.store.AppendInteraction(ctx, req.PolicyID, in); err != nil {
		return nil, err
	}

	switch {
	case distress:
		if err := s.escalateInbound(ctx, req, now); err != nil {
			return nil, err
		}
	case objection:
		err := s.store.IncrementObjections(ctx, req.PolicyID)
		if err != nil {
			return nil, err
		}
	}

	slog.Info("Inbound message received",
		log.PolicyID(req.PolicyID),
		log.Channel(req.Channel),
		slog.Bool("distress", distress),
		slog.Bool("objection", objection))

	return &api.InboundResponse{
		Status:            "received",
		PolicyID:          req.PolicyID,
		Channel:           req.Channel,
		DistressDetected:  distress,
		ObjectionDetected: objection,
	}, nil
}

func (s *Service) escalateInbound(
	ctx context.Context, req *api.InboundRequest, now time.Time,
) error {
	if err := s.store.FlagDistress(ctx, req.PolicyID); err != nil {
		return err
	}

	priority, _ := escalation.Evaluate(escalation.ReasonInboundDistress)
	id, err := s.store.CreateEscalation(ctx, &api.EscalationCase{
		CreatedAt:   now,
		SLADeadline: escalation.Deadline(now, priority),
		PolicyID:    req.PolicyID,
		Reason:      escalation.ReasonInboundDistress,
		Status:      api.CaseOpen,
		Priority:    priority,
	})
	if err != nil {
		return err
	}

	return s.store.AppendAudit(ctx, &api.AuditLog{
		CreatedAt:  now,
		PolicyID:   req.PolicyID,
		ActionType: api.ActionInboundDistress,
		ActionReason: fmt.Sprintf("Case #%d | Channel: %s",
			id, req.Channel,
		),
		TriggeredBy: inboundTrigger,
	})
}
