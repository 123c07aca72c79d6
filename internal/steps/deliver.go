package steps

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kode4food/renewal/internal/escalation"
	"github.com/kode4food/renewal/pkg/api"
	"github.com/kode4food/renewal/pkg/log"
	"github.com/kode4food/renewal/pkg/util/call"
)

const (
	// WhatsAppLimit caps the characters of a WhatsApp message
	WhatsAppLimit = 1000

	bodySeparator = "\n\n"

	// EscalateMarker flags a voice script that needs a human
	EscalateMarker = "[ESCALATE]"

	autoEscalation = "auto_escalation"

	escalationManager = "Escalation Manager"
	emailSender       = "Email Agent"
	whatsAppSender    = "WhatsApp Agent"
	voiceSender       = "Voice Agent"
)

// Escalate opens a human-queue case for the run's escalation reason
func (s *Steps) Escalate(
	ctx context.Context, st api.SharedState,
) (api.Update, error) {
	reason := cmp.Or(st.EscalationReason, autoEscalation)
	priority, hours := escalation.Evaluate(reason)
	now := s.now()
	deadline := escalation.Deadline(now, priority)

	id, err := s.recorder.CreateEscalation(ctx, &api.EscalationCase{
		CreatedAt:   now,
		SLADeadline: deadline,
		PolicyID:    st.PolicyID,
		Reason:      reason,
		Status:      api.CaseOpen,
		Priority:    priority,
	})
	if err != nil {
		return api.Update{}, err
	}

	err = call.Perform(
		call.WithArgs(s.recorder.AppendAudit, ctx, &api.AuditLog{
			CreatedAt:  now,
			PolicyID:   st.PolicyID,
			ActionType: api.ActionEscalation,
			ActionReason: fmt.Sprintf("Case #%d | Reason: %s | SLA: %s",
				id, reason, deadline.UTC().Format(time.RFC3339),
			),
			TriggeredBy: escalationManager,
		}),
		call.WithArgs3(
			s.recorder.MarkHumanQueue, ctx, st.PolicyID, st.DistressFlag,
		),
	)
	if err != nil {
		return api.Update{}, err
	}

	slog.Info("Escalation case created",
		log.PolicyID(st.PolicyID),
		slog.Int64("case_id", id),
		slog.Float64("priority", priority),
		slog.Int("sla_hours", hours))

	u := api.Update{
		MessagesSent: []string{fmt.Sprintf(
			"[escalate] Case #%d created for %s | SLA: %dh",
			id, st.CustomerName, hours,
		)},
	}
	return u.Escalation(reason).Audit(fmt.Sprintf(
		"[escalate] Case #%d | Priority: %.1f | Reason: %s",
		id, priority, reason,
	)), nil
}

// SendEmail delivers the message by email
func (s *Steps) SendEmail(
	ctx context.Context, st api.SharedState,
) (api.Update, error) {
	msg := outboundMessage(st)
	subject := EmailSubject(st)
	err := s.deliver(ctx, st, api.ChannelEmail, msg, &api.AuditLog{
		ActionType:   api.ActionEmailSent,
		ActionReason: "Subject: " + subject,
		TriggeredBy:  emailSender,
	})
	if err != nil {
		return api.Update{}, err
	}
	return api.Update{
		MessagesSent: []string{fmt.Sprintf(
			"[send_email] %s -> %s", subject, st.CustomerName,
		)},
	}.Audit("[send_email] Email sent | Policy: " + st.PolicyID), nil
}

// SendWhatsApp delivers the message over WhatsApp, shortened to the
// channel limit with the disclosure kept at its end
func (s *Steps) SendWhatsApp(
	ctx context.Context, st api.SharedState,
) (api.Update, error) {
	msg := fitMessage(outboundMessage(st), WhatsAppLimit)
	err := s.deliver(ctx, st, api.ChannelWhatsApp, msg, &api.AuditLog{
		ActionType:   api.ActionWhatsAppSent,
		ActionReason: "WhatsApp renewal message sent",
		TriggeredBy:  whatsAppSender,
	})
	if err != nil {
		return api.Update{}, err
	}
	return api.Update{
		MessagesSent: []string{fmt.Sprintf(
			"[send_whatsapp] Sent to %s | Policy: %s",
			st.CustomerName, st.PolicyID,
		)},
	}.Audit("[send_whatsapp] Message sent | Policy: " + st.PolicyID), nil
}

// SendVoice initiates the voice call. A script carrying the escalate
// marker raises the distress flag
func (s *Steps) SendVoice(
	ctx context.Context, st api.SharedState,
) (api.Update, error) {
	script := outboundMessage(st)
	flagged := strings.Contains(script, EscalateMarker)
	err := s.deliver(ctx, st, api.ChannelVoice, script, &api.AuditLog{
		ActionType: api.ActionVoiceInitiated,
		ActionReason: fmt.Sprintf(
			"IVR call initiated | Escalate: %t", flagged,
		),
		TriggeredBy: voiceSender,
	})
	if err != nil {
		return api.Update{}, err
	}

	u := api.Update{
		MessagesSent: []string{fmt.Sprintf(
			"[send_voice] Call initiated to %s | Policy: %s",
			st.CustomerName, st.PolicyID,
		)},
	}.Audit(fmt.Sprintf(
		"[send_voice] Call initiated | Policy: %s | Escalate: %t",
		st.PolicyID, flagged,
	))
	if flagged {
		u.DistressFlag = api.Ptr(true)
		u = u.Audit("[send_voice] Escalate marker found in voice script")
	}
	return u, nil
}

// EmailSubject renders the subject line of a renewal email
func EmailSubject(st api.SharedState) string {
	return fmt.Sprintf("[Suraksha Life] Renewal Reminder — %s | Due %s",
		st.PolicyType, st.PremiumDueDate,
	)
}

func (s *Steps) deliver(
	ctx context.Context, st api.SharedState, ch api.Channel, msg string,
	entry *api.AuditLog,
) error {
	now := s.now()
	entry.CreatedAt = now
	entry.PolicyID = st.PolicyID
	err := call.Perform(
		call.WithArgs3(s.recorder.AppendInteraction, ctx, st.PolicyID,
			api.Interaction{
				CreatedAt: now,
				Channel:   ch,
				Direction: api.DirectionOutbound,
				Content:   msg,
			},
		),
		call.WithArgs(s.recorder.AppendAudit, ctx, entry),
		call.WithArgs3(s.recorder.MarkSent, ctx, st.PolicyID, ch),
	)
	if err != nil {
		return err
	}
	slog.Info("Outreach delivered",
		log.PolicyID(st.PolicyID),
		log.Channel(ch),
		slog.Int("length", len(msg)))
	return nil
}

func outboundMessage(st api.SharedState) string {
	if st.FinalMessage != "" {
		return st.FinalMessage
	}
	return st.AssembledMessage()
}

// fitMessage cuts the body of msg, never the disclosure, until the whole
// message is at most limit runes
func fitMessage(msg string, limit int) string {
	if utf8.RuneCountInString(msg) <= limit {
		return msg
	}
	body := msg
	if i := strings.LastIndex(msg, Disclosure); i >= 0 {
		body = msg[:i]
	}
	room := limit - utf8.RuneCountInString(Disclosure) - len(bodySeparator)
	body = strings.TrimSpace(truncate(strings.TrimSpace(body), room))
	return body + bodySeparator + Disclosure
}
