package steps

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kode4food/renewal/internal/escalation"
	"github.com/kode4food/renewal/internal/keywords"
	"github.com/kode4food/renewal/internal/retrieval"
	"github.com/kode4food/renewal/pkg/api"
)

const (
	greetingTemperature = 0.4
	closingTemperature  = 0.2
	draftTemperature    = 0.4

	policyDocsExcerpt = 500
	objectionsExcerpt = 300

	missingDisclosure = "closing is missing the mandatory AI disclosure"
)

var draftPrompts = map[api.Channel]string{
	api.ChannelEmail:    EmailDraftPrompt,
	api.ChannelWhatsApp: WhatsAppDraftPrompt,
	api.ChannelVoice:    VoiceDraftPrompt,
}

// GreetClose writes the greeting and the compliant closing
func (s *Steps) GreetClose(
	ctx context.Context, st api.SharedState,
) (api.Update, error) {
	plan := st.Plan()
	ch := st.Channel()
	lang := st.Language()
	tone := st.Tone()

	greeting, err := s.gen.Generate(ctx, GreetingPrompt, fmt.Sprintf(
		`Customer First Name: %s
Policy Type: %s
Language: %s
Tone: %s
Channel: %s
Greeting Style: %s`,
		firstName(st.CustomerName), st.PolicyType, lang, tone, ch,
		cmp.Or(plan.GreetingStyle, "warm"),
	), greetingTemperature)
	if err != nil {
		return api.Update{}, err
	}

	closing, err := s.gen.Generate(ctx, ClosingPrompt, fmt.Sprintf(
		`Customer Name: %s
Channel: %s
Language: %s
Tone: %s
Due Date: %s
CTA Type: %s`,
		st.CustomerName, ch, lang, tone, st.PremiumDueDate,
		cmp.Or(plan.CTAType, "payment_link"),
	), closingTemperature)
	if err != nil {
		return api.Update{}, err
	}

	return api.Update{
		Greeting: api.Ptr(strings.TrimSpace(greeting)),
		Closing:  api.Ptr(EnsureDisclosure(closing)),
	}.Audit(fmt.Sprintf(
		"[greet_close] Greeting/Closing generated for %s in %s", ch, lang,
	)), nil
}

// Draft writes the channel-specific message body and scans the history
// for distress
func (s *Steps) Draft(
	ctx context.Context, st api.SharedState,
) (api.Update, error) {
	plan := st.Plan()
	ch := st.Channel()
	system, ok := draftPrompts[ch]
	if !ok {
		system = EmailDraftPrompt
	}

	responses, _ := json.Marshal(plan.ObjectionResponses)
	user := fmt.Sprintf(`Language: %s
Tone: %s
Customer Name: %s
Policy Type: %s
Premium Due: %s
Due Date: %s
Fund Value: %s
Key Facts: %s
CTA Type: %s
Objection Responses: %s

Recent Interaction History:
%s

Retrieved Policy Docs:
%s

Objection Playbook:
%s`,
		st.Language(), st.Tone(), st.CustomerName, st.PolicyType,
		money(st.AnnualPremium), st.PremiumDueDate, fundValue(st.FundValue),
		strings.Join(plan.KeyFacts, ", "),
		cmp.Or(plan.CTAType, "payment_link"), responses,
		historyJSON(st.RecentHistory(recentForCompose)),
		truncate(st.PolicyContext, policyDocsExcerpt),
		truncate(st.ObjectionContext, objectionsExcerpt),
	)

	draft, err := s.gen.Generate(ctx, system, user, draftTemperature)
	if err != nil {
		return api.Update{}, err
	}

	detected := keywords.DetectDistress(st.InteractionHistory)
	u := api.Update{
		DraftMessage: api.Ptr(strings.TrimSpace(draft)),
	}.Audit(fmt.Sprintf(
		"[draft] Draft generated for %s | Distress: %t",
		ch, detected || st.DistressFlag,
	))
	if detected && !st.DistressFlag {
		u.DistressFlag = api.Ptr(true)
		u = u.Audit("[draft] Distress detected in message history")
	}
	return u, nil
}

// ReviewContent checks the assembled message for compliance, finalizing
// it, letting it proceed with noted issues, or escalating
func (s *Steps) ReviewContent(
	ctx context.Context, st api.SharedState,
) (api.Update, error) {
	ch := st.Channel()
	regulations, err := s.search(ctx, retrieval.RegulatoryGuidelines,
		"IRDAI insurance communication compliance "+string(ch), 3, 2, "",
	)
	if err != nil {
		return api.Update{}, err
	}

	assembled := st.AssembledMessage()
	plan := st.Plan()
	user := fmt.Sprintf(`Assembled Message to Review:
---
%s
---

Context:
- Channel: %s
- Customer Segment: %s
- Distress Flag: %t
- Planned Tone: %s
- Planned Language: %s
- Policy Type: %s
- Annual Premium: %s

Regulatory Guidelines:
%s`,
		assembled, ch, st.Segment, st.DistressFlag,
		cmp.Or(plan.Tone, "N/A"), cmp.Or(plan.Language, "N/A"),
		st.PolicyType, money(st.AnnualPremium), regulations,
	)

	res, err := s.gen.GenerateJSON(ctx, ContentReviewPrompt, user)
	if err != nil {
		return api.Update{}, err
	}

	verdict := reviewVerdict(res.String("verdict", ""))
	fix := res.String("fix_instructions", "")
	issues := res.Strings("issues")
	if !HasDisclosure(assembled) && verdict == api.ReviewApproved {
		verdict = api.ReviewRevisionNeeded
		issues = append(issues, missingDisclosure)
		fix = cmp.Or(fix, missingDisclosure)
	}

	u := api.Update{
		ReviewVerdict:     api.Ptr(verdict),
		RegulationContext: api.Ptr(regulations),
	}
	audit := fmt.Sprintf("[review_content] Verdict: %s | Score: %s | Issues: %s",
		verdict, res.Get("compliance_score").String(),
		strings.Join(issues, "; "),
	)

	switch verdict {
	case api.ReviewEscalate:
		reason := cmp.Or(
			res.String("escalate_reason", ""), escalation.ReasonReview,
		)
		return u.Escalation(reason).Audit(audit), nil
	case api.ReviewRevisionNeeded:
		return u.Audit(audit,
			"[review_content] Issues noted but proceeding: "+fix,
		), nil
	default:
		u.FinalMessage = api.Ptr(assembled)
		return u.Audit(audit), nil
	}
}

func reviewVerdict(v string) api.ReviewVerdict {
	switch res := api.ReviewVerdict(v); res {
	case api.ReviewRevisionNeeded, api.ReviewEscalate:
		return res
	default:
		return api.DefaultReviewVerdict
	}
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}
