// Package ai drafts first responses to tickets and decides when a human must take over.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/helpdesk/support-desk/internal/domain"
)

// ErrUnavailable wraps every provider failure. Callers recover from it locally.
var ErrUnavailable = errors.New("ai service unavailable")

// Request is one completion call: a persona, the prior conversation and the newest message.
type Request struct {
	System  string
	History []domain.Message
	Message string
}

// Prompt renders the request as a single text block with sender-prefixed history lines.
func (r Request) Prompt() string {
	var b strings.Builder
	if r.System != "" {
		b.WriteString(r.System)
		b.WriteString("\n\n")
	}
	if len(r.History) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range r.History {
			fmt.Fprintf(&b, "%s: %s\n", senderLabel(msg.Sender), msg.Message)
		}
		b.WriteString("\n")
	}
	b.WriteString("Latest message from the customer:\n")
	b.WriteString(r.Message)
	return b.String()
}

// Provider is a generative-text backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

func senderLabel(sender domain.Sender) string {
	switch sender {
	case domain.SenderAI:
		return "Assistant"
	case domain.SenderAdmin:
		return "Support"
	default:
		return "Customer"
	}
}
