package steps_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/renewal/internal/assert/helpers"
	"github.com/kode4food/renewal/internal/engine"
	"github.com/kode4food/renewal/internal/steps"
	"github.com/kode4food/renewal/pkg/api"
)

type testEnv struct {
	Steps     *steps.Steps
	Generator *helpers.MockGenerator
	Searcher  *helpers.MockSearcher
	Recorder  *helpers.MockRecorder
}

func newTestEnv() *testEnv {
	env := &testEnv{
		Generator: helpers.NewMockGenerator(),
		Searcher:  helpers.NewMockSearcher(),
		Recorder:  helpers.NewMockRecorder(),
	}
	env.Steps = steps.New(steps.Dependencies{
		Generator: env.Generator,
		Searcher:  env.Searcher,
		Recorder:  env.Recorder,
		Now:       helpers.Now,
	})
	return env
}

func TestRegistry(t *testing.T) {
	env := newTestEnv()
	reg := env.Steps.Registry()
	for _, node := range engine.StepNodes {
		assert.NotNil(t, reg[node], node)
	}

	_, err := engine.New(engine.Dependencies{Steps: reg})
	assert.NoError(t, err)
}

func TestFullRun(t *testing.T) {
	env := newTestEnv()
	env.Generator.SetResponse(steps.OrchestratorPrompt,
		`{"channel": "WhatsApp", "justification": "replied on WhatsApp"}`,
	)
	env.Generator.SetResponse(steps.ChannelReviewPrompt,
		`{"verdict": "APPROVED", "confidence": 0.9}`,
	)
	env.Generator.SetResponse(steps.PlannerPrompt,
		`{"tone": "friendly", "language": "Hindi"}`,
	)
	env.Generator.SetResponse(steps.GreetingPrompt, "Namaste Rajesh ji")
	env.Generator.SetResponse(steps.ClosingPrompt, "Dhanyavaad")
	env.Generator.SetResponse(steps.WhatsAppDraftPrompt, "Your premium is due")
	env.Generator.SetResponse(steps.ContentReviewPrompt,
		`{"verdict": "APPROVED", "compliance_score": 0.95}`,
	)

	e, err := engine.New(engine.Dependencies{Steps: env.Steps.Registry()})
	require.NoError(t, err)

	res, err := e.Run(context.Background(), helpers.NewTestState())
	require.NoError(t, err)

	assert.Equal(t, api.NodeSendWhatsApp, res.State.CurrentNode)
	assert.Equal(t, "Hindi", res.State.Language())
	assert.True(t, steps.HasDisclosure(res.State.FinalMessage))
	require.Len(t, env.Recorder.Interactions, 1)
	assert.Equal(t, res.State.FinalMessage,
		env.Recorder.Interactions[0].Content,
	)
	assert.Equal(t, []api.Channel{api.ChannelWhatsApp}, env.Recorder.Sent)
}

func TestFullRunObjectionThreshold(t *testing.T) {
	env := newTestEnv()
	e, err := engine.New(engine.Dependencies{Steps: env.Steps.Registry()})
	require.NoError(t, err)

	st := helpers.NewTestState()
	st.ObjectionCount = 3
	res, err := e.Run(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, 0, env.Generator.TotalCalls())
	assert.Empty(t, env.Searcher.Queries())
	assert.Equal(t, api.NodeEscalate, res.State.CurrentNode)
	require.Len(t, env.Recorder.Cases, 1)
	assert.Equal(t, "objection_threshold", env.Recorder.Cases[0].Reason)
	assert.Equal(t, 0.8, env.Recorder.Cases[0].Priority)
}

func TestSearchFailure(t *testing.T) {
	env := newTestEnv()
	boom := errors.New("index offline")
	env.Searcher.SetError("objection_library", boom)

	_, err := env.Steps.Orchestrate(
		context.Background(), helpers.NewTestState(),
	)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, env.Generator.TotalCalls())
}
