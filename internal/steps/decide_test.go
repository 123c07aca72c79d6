package steps_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/renewal/internal/assert/helpers"
	"github.com/kode4food/renewal/internal/retrieval"
	"github.com/kode4food/renewal/internal/steps"
	"github.com/kode4food/renewal/pkg/api"
)

func TestOrchestrate(t *testing.T) {
	t.Run("selects channel", func(t *testing.T) {
		env := newTestEnv()
		env.Searcher.SetDocuments(retrieval.ObjectionLibrary,
			"Too expensive: explain the tax benefit",
		)
		env.Generator.SetResponse(steps.OrchestratorPrompt, "```json\n"+
			`{"channel": "WhatsApp", "justification": "replied twice"}`+
			"\n```",
		)

		u, err := env.Steps.Orchestrate(
			context.Background(), helpers.NewTestState(),
		)
		require.NoError(t, err)
		assert.Equal(t, api.ChannelWhatsApp, *u.SelectedChannel)
		assert.Equal(t, "replied twice", *u.ChannelJustification)
		assert.Equal(t, "Too expensive: explain the tax benefit",
			*u.ObjectionContext,
		)
		assert.Equal(t, []string{
			"[orchestrate] Selected channel: WhatsApp | Reason: replied twice",
		}, u.AuditTrail)

		q := env.Searcher.Queries()
		require.Len(t, q, 1)
		assert.Equal(t, helpers.SearchQuery{
			Collection: retrieval.ObjectionLibrary,
			Query:      "Standard Term Life renewal",
			NResults:   5,
			TopK:       3,
		}, q[0])
	})

	t.Run("defaults to preferred channel", func(t *testing.T) {
		env := newTestEnv()
		env.Generator.SetResponse(steps.OrchestratorPrompt, "not json at all")

		st := helpers.NewTestState()
		st.PreferredChannel = api.ChannelVoice
		u, err := env.Steps.Orchestrate(context.Background(), st)
		require.NoError(t, err)
		assert.Equal(t, api.ChannelVoice, *u.SelectedChannel)
		assert.Equal(t, "No objection context available", *u.ObjectionContext)
	})

	t.Run("payment done", func(t *testing.T) {
		env := newTestEnv()
		env.Generator.SetResponse(steps.OrchestratorPrompt,
			`{"payment_done": true, "channel": "Email"}`,
		)

		u, err := env.Steps.Orchestrate(
			context.Background(), helpers.NewTestState(),
		)
		require.NoError(t, err)
		assert.True(t, *u.PaymentDone)
		assert.Nil(t, u.SelectedChannel)
		assert.Equal(t, []string{
			"[orchestrate] Payment already done for POL-001",
		}, u.AuditTrail)
	})

	t.Run("escalates", func(t *testing.T) {
		env := newTestEnv()
		env.Generator.SetResponse(steps.OrchestratorPrompt,
			`{"escalate": true, "justification": null}`,
		)

		u, err := env.Steps.Orchestrate(
			context.Background(), helpers.NewTestState(),
		)
		require.NoError(t, err)
		require.NoError(t, u.Validate())
		assert.True(t, *u.Escalate)
		assert.Equal(t, "orchestrator_escalation", *u.EscalationReason)
		assert.Equal(t, api.ModeHumanControl, *u.Mode)
	})

	t.Run("rechecks thresholds", func(t *testing.T) {
		env := newTestEnv()
		st := helpers.NewTestState()
		st.DistressFlag = true

		u, err := env.Steps.Orchestrate(context.Background(), st)
		require.NoError(t, err)
		assert.Equal(t, "distress_flag", *u.EscalationReason)
		assert.Equal(t, 0, env.Generator.TotalCalls())
	})

	t.Run("generation error", func(t *testing.T) {
		env := newTestEnv()
		boom := errors.New("quota exceeded")
		env.Generator.SetError(steps.OrchestratorPrompt, boom)

		_, err := env.Steps.Orchestrate(
			context.Background(), helpers.NewTestState(),
		)
		assert.ErrorIs(t, err, boom)
	})
}

func TestVerifyChannel(t *testing.T) {
	t.Run("approves", func(t *testing.T) {
		env := newTestEnv()
		env.Searcher.SetDocuments(retrieval.RegulatoryGuidelines,
			"Calls only between 8am and 9pm",
		)
		env.Generator.SetResponse(steps.ChannelReviewPrompt,
			`{"verdict": "APPROVED", "confidence": 0.8, "evidence": "ok"}`,
		)

		st := helpers.NewTestState()
		st.SelectedChannel = api.ChannelEmail
		st.InteractionHistory = []api.Interaction{
			helpers.Outbound(api.ChannelEmail, "reminder 1"),
			helpers.Outbound(api.ChannelEmail, "reminder 2"),
			helpers.Inbound(api.ChannelEmail, "thanks"),
			helpers.Outbound(api.ChannelWhatsApp, "hello"),
		}

		u, err := env.Steps.VerifyChannel(context.Background(), st)
		require.NoError(t, err)
		assert.Equal(t, api.ChannelApproved, *u.ChannelVerdict)
		assert.Nil(t, u.SelectedChannel)
		assert.Equal(t, "Calls only between 8am and 9pm", *u.RegulationContext)
		assert.Equal(t, []string{
			"[verify_channel] Verdict: APPROVED | Confidence: 0.8 | Evidence: ok",
		}, u.AuditTrail)

		user := env.Generator.LastUser(steps.ChannelReviewPrompt)
		assert.Contains(t, user, `Channel Attempts for "Email": 2`)
		assert.Contains(t, user, "Total Interaction History Count: 4")
		assert.Equal(t,
			"channel communication policy IRDAI Email",
			env.Searcher.Queries()[0].Query,
		)
	})

	t.Run("overrides", func(t *testing.T) {
		env := newTestEnv()
		env.Generator.SetResponse(steps.ChannelReviewPrompt, `{
			"verdict": "OVERRIDE",
			"alternative_channel": "Voice",
			"override_reason": "three emails unanswered"
		}`)

		u, err := env.Steps.VerifyChannel(
			context.Background(), helpers.NewTestState(),
		)
		require.NoError(t, err)
		assert.Equal(t, api.ChannelOverride, *u.ChannelVerdict)
		assert.Equal(t, api.ChannelVoice, *u.SelectedChannel)
		assert.Equal(t, "three emails unanswered", *u.ChannelJustification)
	})

	t.Run("override without alternative", func(t *testing.T) {
		env := newTestEnv()
		env.Generator.SetResponse(steps.ChannelReviewPrompt,
			`{"verdict": "OVERRIDE", "alternative_channel": "null"}`,
		)

		u, err := env.Steps.VerifyChannel(
			context.Background(), helpers.NewTestState(),
		)
		require.NoError(t, err)
		assert.Equal(t, api.ChannelOverride, *u.ChannelVerdict)
		assert.Nil(t, u.SelectedChannel)
		assert.Nil(t, u.ChannelJustification)
	})

	t.Run("default justification", func(t *testing.T) {
		env := newTestEnv()
		env.Generator.SetResponse(steps.ChannelReviewPrompt,
			`{"verdict": "OVERRIDE", "alternative_channel": "WhatsApp"}`,
		)

		u, err := env.Steps.VerifyChannel(
			context.Background(), helpers.NewTestState(),
		)
		require.NoError(t, err)
		assert.Equal(t, "channel verification override",
			*u.ChannelJustification,
		)
	})
}

func TestPlan(t *testing.T) {
	env := newTestEnv()
	env.Searcher.SetDocuments(retrieval.PolicyDocuments, "Term Life: cover")
	env.Generator.SetResponse(steps.PlannerPrompt, `Here is the plan:
{
  "tone": "empathetic",
  "language": "Hindi",
  "key_facts": ["Cover of 50 lakh", "Tax benefit under 80C"],
  "objection_responses": "Premium can be paid monthly",
  "greeting_style": "regional",
  "timing_window": "evening",
  "cta_type": "whatsapp_reply",
  "personalization_elements": ["name"],
  "distress_watch_keywords": ["hospital"],
  "language_note": "Use ji"
}`)

	st := helpers.NewTestState()
	st.SelectedChannel = api.ChannelWhatsApp
	u, err := env.Steps.Plan(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, &api.ExecutionPlan{
		Tone:                    "empathetic",
		Language:                "Hindi",
		KeyFacts:                []string{"Cover of 50 lakh", "Tax benefit under 80C"},
		ObjectionResponses:      []string{"Premium can be paid monthly"},
		GreetingStyle:           "regional",
		TimingWindow:            "evening",
		CTAType:                 "whatsapp_reply",
		PersonalizationElements: []string{"name"},
		DistressWatchKeywords:   []string{"hospital"},
		LanguageNote:            "Use ji",
	}, u.ExecutionPlan)
	assert.Equal(t, "Term Life: cover", *u.PolicyContext)
	assert.Equal(t, "Standard objection handling.", *u.ObjectionContext)
	assert.Equal(t, []string{
		"[plan] Plan built for WhatsApp | Tone: empathetic | Language: Hindi",
	}, u.AuditTrail)

	q := env.Searcher.Queries()
	require.Len(t, q, 2)
	assert.Equal(t, "Term Life renewal benefits premium due", q[0].Query)
	assert.Equal(t,
		"English Standard objection renewal premium", q[1].Query,
	)
}

func TestCountAttempts(t *testing.T) {
	history := []api.Interaction{
		helpers.Outbound(api.ChannelVoice, "call"),
		helpers.Inbound(api.ChannelVoice, "busy"),
		helpers.Outbound(api.ChannelVoice, "call"),
		helpers.Outbound(api.ChannelEmail, "mail"),
	}
	assert.Equal(t, 2, steps.CountAttempts(history, api.ChannelVoice))
	assert.Equal(t, 1, steps.CountAttempts(history, api.ChannelEmail))
	assert.Equal(t, 0, steps.CountAttempts(history, api.ChannelWhatsApp))
	assert.Equal(t, 0, steps.CountAttempts(nil, api.ChannelEmail))
}
