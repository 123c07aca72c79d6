// Package steps implements the business logic of each workflow node
package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/kode4food/renewal/internal/engine"
	"github.com/kode4food/renewal/internal/genai"
	"github.com/kode4food/renewal/internal/retrieval"
	"github.com/kode4food/renewal/pkg/api"
	"github.com/kode4food/renewal/pkg/log"
)

type (
	// Searcher performs hybrid search over a retrieval collection
	Searcher interface {
		Search(
			ctx context.Context, collection, query string,
			nResults, rerankTopK int, filter retrieval.Metadata,
		) ([]retrieval.Result, error)
	}

	// Recorder persists the side effects of the terminal steps
	Recorder interface {
		AppendInteraction(
			ctx context.Context, policyID string, in api.Interaction,
		) error
		AppendAudit(ctx context.Context, entry *api.AuditLog) error
		MarkSent(ctx context.Context, policyID string, ch api.Channel) error
		CreateEscalation(
			ctx context.Context, c *api.EscalationCase,
		) (int64, error)
		MarkHumanQueue(ctx context.Context, policyID string, distress bool) error
	}

	// Dependencies are the collaborators the steps are constructed with
	Dependencies struct {
		Generator genai.Generator
		Searcher  Searcher
		Recorder  Recorder
		Now       func() time.Time
	}

	// Steps binds the workflow nodes to their collaborators
	Steps struct {
		gen      genai.Generator
		searcher Searcher
		recorder Recorder
		now      func() time.Time
	}
)

const (
	recentForOrchestrate = 10
	recentForVerify      = 5
	recentForCompose     = 3
)

// New creates Steps from its dependencies
func New(deps Dependencies) *Steps {
	s := &Steps{
		gen:      deps.Generator,
		searcher: deps.Searcher,
		recorder: deps.Recorder,
		now:      deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Registry returns the engine registry for every step node
func (s *Steps) Registry() engine.Registry {
	return engine.Registry{
		api.NodeOrchestrate:   s.Orchestrate,
		api.NodeVerifyChannel: s.VerifyChannel,
		api.NodePlan:          s.Plan,
		api.NodeGreetClose:    s.GreetClose,
		api.NodeDraft:         s.Draft,
		api.NodeReviewContent: s.ReviewContent,
		api.NodeEscalate:      s.Escalate,
		api.NodeSendEmail:     s.SendEmail,
		api.NodeSendWhatsApp:  s.SendWhatsApp,
		api.NodeSendVoice:     s.SendVoice,
	}
}

func (s *Steps) search(
	ctx context.Context, collection, query string, n, k int, def string,
) (string, error) {
	res, err := s.searcher.Search(ctx, collection, query, n, k, nil)
	if err != nil {
		return "", fmt.Errorf("search %s: %w", collection, err)
	}
	slog.Debug("Retrieved context",
		log.Collection(collection),
		slog.String("query", query),
		slog.Int("results", len(res)))
	return retrieval.Join(res, def), nil
}

func historyJSON(h []api.Interaction) string {
	if len(h) == 0 {
		return "[]"
	}
	res, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(res)
}

func money(v float64) string {
	return "₹" + strconv.FormatFloat(v, 'f', 2, 64)
}

func fundValue(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return money(*v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
