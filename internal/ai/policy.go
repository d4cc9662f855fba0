package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/cases"

	"github.com/helpdesk/support-desk/internal/domain"
)

const (
	// Persona is the fixed system instruction sent with every draft.
	Persona = "You are a helpful customer-support assistant for a help desk. Answer the customer's latest message concisely and politely using the conversation for context. If the request needs a human, say that it will be passed to a support agent."

	// EscalationNotice is appended as an admin entry whenever a message needs a human.
	EscalationNotice = "Your request has been escalated to our support team. A member of staff will review your ticket and respond as soon as possible."

	// FallbackReply stands in for the assistant when the provider fails at ticket creation.
	FallbackReply = "Thank you for your ticket. Our support team has received it and it will be reviewed shortly."
)

var escalationKeywords = []string{
	"support",
	"urgent",
	"critical",
	"emergency",
	"escalate",
	"supervisor",
	"manager",
	"human",
	"agent",
	"help me",
	"not working",
	"broken",
	"frustrated",
	"angry",
}

var handoffPhrases = []string{
	"escalate",
	"support agent",
	"human assistance",
}

// EscalationKeywords returns a copy of the keyword set checked by NeedsEscalation.
func EscalationKeywords() []string {
	return append([]string(nil), escalationKeywords...)
}

// NeedsEscalation reports whether text contains any escalation keyword, ignoring case.
func NeedsEscalation(text string) bool {
	return containsAny(fold(text), escalationKeywords)
}

// ReplySignalsEscalation reports whether a drafted reply hands the ticket to a human.
func ReplySignalsEscalation(reply string) bool {
	return containsAny(fold(reply), handoffPhrases)
}

// Outcome is the policy decision for one incoming message.
type Outcome struct {
	Reply     domain.Message
	Escalated bool
	// Fallback is set when the provider failed; Reply is then the canned text
	// and Err carries the cause.
	Fallback bool
	Err      error
}

// AwaitingResponse reports whether the ticket must wait for a human.
func (o Outcome) AwaitingResponse() bool {
	return o.Escalated || o.Fallback
}

// Policy combines the keyword rules with a provider call under a fixed timeout.
type Policy struct {
	provider Provider
	timeout  time.Duration
}

// NewPolicy builds a policy. A non-positive timeout defaults to 15 seconds.
func NewPolicy(provider Provider, timeout time.Duration) *Policy {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Policy{provider: provider, timeout: timeout}
}

// ProviderName identifies the configured backend.
func (p *Policy) ProviderName() string {
	if p == nil || p.provider == nil {
		return "none"
	}
	return p.provider.Name()
}

// DraftReply asks the provider for a reply to message. Any failure, including the
// timeout, is returned wrapped in ErrUnavailable.
func (p *Policy) DraftReply(ctx context.Context, message string, history []domain.Message) (string, error) {
	ctx, span := otel.Tracer("support-desk/ai").Start(ctx, "ai.DraftReply")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", p.ProviderName()),
		attribute.Int("ai.history_len", len(history)),
	)

	if p == nil || p.provider == nil {
		return "", fmt.Errorf("%w: no provider configured", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reply, err := p.provider.Complete(ctx, Request{System: Persona, History: history, Message: message})
	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("empty reply")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider failed")
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return strings.TrimSpace(reply), nil
}

// Decide applies the escalation rules to text and, when no escalation is needed,
// drafts an assistant reply. history should not include text itself.
// Decide never returns an error; provider failures yield a fallback outcome.
func (p *Policy) Decide(ctx context.Context, text string, history []domain.Message) Outcome {
	if NeedsEscalation(text) {
		return Outcome{
			Reply:     domain.NewMessage(domain.SenderAdmin, EscalationNotice),
			Escalated: true,
		}
	}

	reply, err := p.DraftReply(ctx, text, history)
	if err != nil {
		return Outcome{
			Reply:    domain.NewMessage(domain.SenderAI, FallbackReply),
			Fallback: true,
			Err:      err,
		}
	}
	return Outcome{
		Reply:     domain.NewMessage(domain.SenderAI, reply),
		Escalated: ReplySignalsEscalation(reply),
	}
}

func containsAny(folded string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(folded, needle) {
			return true
		}
	}
	return false
}

// fold applies Unicode case folding. Casers are stateful, so one is built per call.
func fold(text string) string {
	return cases.Fold().String(text)
}
