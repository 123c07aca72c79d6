package steps

import (
	"cmp"
	"context"
	"fmt"

	"github.com/kode4food/renewal/internal/escalation"
	"github.com/kode4food/renewal/internal/retrieval"
	"github.com/kode4food/renewal/pkg/api"
)

const (
	noObjectionContext = "No objection context available"
	noPolicyDocument   = "No policy document found."
	standardObjections = "Standard objection handling."

	overrideJustification = "channel verification override"
)

// Orchestrate selects the outreach channel, or decides that the run should
// escalate or stop because payment is already done
func (s *Steps) Orchestrate(
	ctx context.Context, st api.SharedState,
) (api.Update, error) {
	if reason, ok := escalation.Threshold(
		st.DistressFlag, st.ObjectionCount,
	); ok {
		return api.Update{}.Escalation(reason).Audit(fmt.Sprintf(
			"[orchestrate] Direct escalation: distress=%t, objections=%d",
			st.DistressFlag, st.ObjectionCount,
		)), nil
	}

	objections, err := s.search(ctx, retrieval.ObjectionLibrary,
		fmt.Sprintf("%s %s renewal", st.Segment, st.PolicyType),
		5, 3, noObjectionContext,
	)
	if err != nil {
		return api.Update{}, err
	}

	user := fmt.Sprintf(`Customer Profile:
- Name: %s
- Age: %d
- City: %s
- Preferred Channel: %s
- Preferred Language: %s
- Segment: %s

Policy Details:
- Policy ID: %s
- Type: %s
- Premium: %s
- Due Date: %s
- Status: %s

Interaction History (last %d):
%s

Objection Context:
%s

Distress Flag: %t
Objection Count: %d`,
		st.CustomerName, st.CustomerAge, st.CustomerCity,
		st.PreferredChannel, st.PreferredLanguage, st.Segment,
		st.PolicyID, st.PolicyType, money(st.AnnualPremium),
		st.PremiumDueDate, st.PolicyStatus,
		recentForOrchestrate,
		historyJSON(st.RecentHistory(recentForOrchestrate)),
		objections, st.DistressFlag, st.ObjectionCount,
	)

	res, err := s.gen.GenerateJSON(ctx, OrchestratorPrompt, user)
	if err != nil {
		return api.Update{}, err
	}

	if res.Bool("payment_done") {
		return api.Update{PaymentDone: api.Ptr(true)}.Audit(fmt.Sprintf(
			"[orchestrate] Payment already done for %s", st.PolicyID,
		)), nil
	}

	justification := res.String("justification", "")
	if res.Bool("escalate") {
		reason := cmp.Or(justification, escalation.ReasonOrchestrator)
		return api.Update{}.Escalation(reason).Audit(
			"[orchestrate] Escalation flagged: " + reason,
		), nil
	}

	ch := cmp.Or(api.Channel(res.String("channel", "")), st.PreferredChannel)
	return api.Update{
		SelectedChannel:      api.Ptr(ch),
		ChannelJustification: api.Ptr(justification),
		ObjectionContext:     api.Ptr(objections),
	}.Audit(fmt.Sprintf(
		"[orchestrate] Selected channel: %s | Reason: %s", ch, justification,
	)), nil
}

// VerifyChannel checks the selected channel against interaction evidence
// and may override it with an alternative
func (s *Steps) VerifyChannel(
	ctx context.Context, st api.SharedState,
) (api.Update, error) {
	ch := st.Channel()
	regulations, err := s.search(ctx, retrieval.RegulatoryGuidelines,
		"channel communication policy IRDAI "+string(ch), 3, 2, "",
	)
	if err != nil {
		return api.Update{}, err
	}

	attempts := CountAttempts(st.InteractionHistory, ch)
	user := fmt.Sprintf(`Orchestrator Decision:
- Selected Channel: %s
- Justification: %s

Customer:
- Preferred Channel: %s
- Segment: %s
- Distress Flag: %t
- Objection Count: %d

Channel Attempts for %q: %d
Total Interaction History Count: %d

Recent History:
%s

Regulatory Context:
%s`,
		ch, st.ChannelJustification,
		st.PreferredChannel, st.Segment, st.DistressFlag, st.ObjectionCount,
		ch, attempts, len(st.InteractionHistory),
		historyJSON(st.RecentHistory(recentForVerify)),
		regulations,
	)

	res, err := s.gen.GenerateJSON(ctx, ChannelReviewPrompt, user)
	if err != nil {
		return api.Update{}, err
	}

	verdict := api.ChannelApproved
	if api.ChannelVerdict(res.String("verdict", "")) == api.ChannelOverride {
		verdict = api.ChannelOverride
	}
	u := api.Update{
		ChannelVerdict:    api.Ptr(verdict),
		RegulationContext: api.Ptr(regulations),
	}.Audit(fmt.Sprintf(
		"[verify_channel] Verdict: %s | Confidence: %s | Evidence: %s",
		verdict, res.Get("confidence").String(), res.String("evidence", ""),
	))

	alt := res.String("alternative_channel", "")
	if verdict == api.ChannelOverride && alt != "" && alt != "null" {
		u.SelectedChannel = api.Ptr(api.Channel(alt))
		u.ChannelJustification = api.Ptr(cmp.Or(
			res.String("override_reason", ""), overrideJustification,
		))
	}
	return u, nil
}

// Plan builds the execution plan consumed by the composition steps
func (s *Steps) Plan(
	ctx context.Context, st api.SharedState,
) (api.Update, error) {
	ch := st.Channel()
	policyDocs, err := s.search(ctx, retrieval.PolicyDocuments,
		st.PolicyType+" renewal benefits premium due", 5, 3, noPolicyDocument,
	)
	if err != nil {
		return api.Update{}, err
	}
	objections, err := s.search(ctx, retrieval.ObjectionLibrary,
		fmt.Sprintf("%s %s objection renewal premium",
			st.PreferredLanguage, st.Segment,
		),
		5, 3, standardObjections,
	)
	if err != nil {
		return api.Update{}, err
	}

	user := fmt.Sprintf(`Channel: %s
Customer: %s, %dy, %s
Segment: %s
Language: %s
Policy Type: %s
Premium: %s
Due Date: %s
Fund Value: %s
Distress Flag: %t
Objection Count: %d

Retrieved Policy Documents:
%s

Retrieved Objection Playbooks:
%s

Recent Interactions:
%s`,
		ch, st.CustomerName, st.CustomerAge, st.CustomerCity, st.Segment,
		st.PreferredLanguage, st.PolicyType, money(st.AnnualPremium),
		st.PremiumDueDate, fundValue(st.FundValue),
		st.DistressFlag, st.ObjectionCount,
		policyDocs, objections,
		historyJSON(st.RecentHistory(recentForCompose)),
	)

	res, err := s.gen.GenerateJSON(ctx, PlannerPrompt, user)
	if err != nil {
		return api.Update{}, err
	}

	plan := &api.ExecutionPlan{
		Tone:                    res.String("tone", ""),
		Language:                res.String("language", ""),
		KeyFacts:                res.Strings("key_facts"),
		ObjectionPlaybookID:     res.String("objection_playbook_id", ""),
		ObjectionResponses:      res.Strings("objection_responses"),
		GreetingStyle:           res.String("greeting_style", ""),
		TimingWindow:            res.String("timing_window", ""),
		CTAType:                 res.String("cta_type", ""),
		PersonalizationElements: res.Strings("personalization_elements"),
		DistressWatchKeywords:   res.Strings("distress_watch_keywords"),
		LanguageNote:            res.String("language_note", ""),
	}
	return api.Update{
		ExecutionPlan:    plan,
		PolicyContext:    api.Ptr(policyDocs),
		ObjectionContext: api.Ptr(objections),
	}.Audit(fmt.Sprintf(
		"[plan] Plan built for %s | Tone: %s | Language: %s",
		ch, plan.Tone, plan.Language,
	)), nil
}

// CountAttempts returns the number of outbound interactions on ch
func CountAttempts(history []api.Interaction, ch api.Channel) int {
	res := 0
	for _, h := range history {
		if h.Channel == ch && h.Direction == api.DirectionOutbound {
			res++
		}
	}
	return res
}
