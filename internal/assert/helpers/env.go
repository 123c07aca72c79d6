package helpers

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/kode4food/renewal/internal/archive"
	"github.com/kode4food/renewal/internal/engine"
	"github.com/kode4food/renewal/internal/events"
	"github.com/kode4food/renewal/internal/renewal"
	"github.com/kode4food/renewal/internal/runlock"
	"github.com/kode4food/renewal/internal/steps"
	"github.com/kode4food/renewal/internal/store"
	"github.com/kode4food/renewal/pkg/api"
)

// TestEnv is a fully wired renewal service over in-memory backends
type TestEnv struct {
	Store     *store.SQLiteStore
	Generator *MockGenerator
	Searcher  *MockSearcher
	Redis     *miniredis.Miniredis
	Locker    *runlock.Locker
	Hub       *events.Hub
	Archive   *archive.BlobArchive
	Engine    *engine.Engine
	Service   *renewal.Service
}

// NewTestEnv wires a TestEnv and seeds it with the test snapshot's
// customer and policy
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, ":memory:", store.WithClock(Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	snap := NewTestSnapshot()
	require.NoError(t, st.UpsertCustomer(ctx, &snap.Customer))
	require.NoError(t, st.UpsertPolicy(ctx, &snap.Policy))

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{
		Addr:            server.Addr(),
		Protocol:        2,
		DisableIdentity: true,
	})
	t.Cleanup(func() { _ = client.Close() })

	env := &TestEnv{
		Store:     st,
		Generator: NewMockGenerator(),
		Searcher:  NewMockSearcher(),
		Redis:     server,
		Locker:    runlock.New(client, "test:", 0),
		Hub:       events.NewHub(),
		Archive:   archive.New(memblob.OpenBucket(nil), "runs/"),
	}
	t.Cleanup(env.Hub.Close)
	t.Cleanup(func() { _ = env.Archive.Close() })

	reg := steps.New(steps.Dependencies{
		Generator: env.Generator,
		Searcher:  env.Searcher,
		Recorder:  st,
		Now:       Now,
	}).Registry()
	env.Engine, err = engine.New(engine.Dependencies{
		Steps: reg,
		Clock: Now,
	})
	require.NoError(t, err)

	env.Service = renewal.NewService(renewal.Dependencies{
		Store:   st,
		Runner:  env.Engine,
		Locker:  env.Locker,
		Events:  env.Hub,
		Archive: env.Archive,
		Now:     Now,
	})
	t.Cleanup(env.Service.Wait)
	return env
}

// ScriptApproved configures generation so that a run selects ch, passes
// both reviews and sends the outreach
func (e *TestEnv) ScriptApproved(ch api.Channel) {
	g := e.Generator
	g.SetResponse(steps.OrchestratorPrompt,
		`{"channel": "`+string(ch)+`", "justification": "customer preference"}`,
	)
	g.SetResponse(steps.ChannelReviewPrompt,
		`{"verdict": "APPROVED", "confidence": 0.9}`,
	)
	g.SetResponse(steps.PlannerPrompt,
		`{"tone": "warm", "language": "English"}`,
	)
	g.SetResponse(steps.GreetingPrompt, "Dear Rajesh")
	g.SetResponse(steps.ClosingPrompt, "Warm regards")
	g.SetResponse(steps.EmailDraftPrompt, "Your premium is due")
	g.SetResponse(steps.WhatsAppDraftPrompt, "Your premium is due")
	g.SetResponse(steps.VoiceDraftPrompt, "Your premium is due")
	g.SetResponse(steps.ContentReviewPrompt,
		`{"verdict": "APPROVED", "compliance_score": 0.95}`,
	)
}
