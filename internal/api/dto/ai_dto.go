package dto

import (
	"github.com/helpdesk/support-desk/internal/domain"
)

// ChatHistoryItem is one prior turn sent by the chat widget.
type ChatHistoryItem struct {
	Sender  domain.Sender `json:"sender" validate:"omitempty,oneof=user ai admin"`
	Message string        `json:"message" validate:"max=1000"`
}

// ChatRequest payload.
type ChatRequest struct {
	Message             string            `json:"message" validate:"required,max=1000"`
	ConversationHistory []ChatHistoryItem `json:"conversationHistory" validate:"max=50,dive"`
}

// History converts the widget turns into conversation messages.
func (r ChatRequest) History() []domain.Message {
	history := make([]domain.Message, 0, len(r.ConversationHistory))
	for _, item := range r.ConversationHistory {
		if item.Message == "" {
			continue
		}
		sender := item.Sender
		if sender == "" {
			sender = domain.SenderUser
		}
		history = append(history, domain.Message{Sender: sender, Message: SanitizeText(item.Message)})
	}
	return history
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	MessageID string `json:"messageId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback  string `json:"feedback" validate:"max=1000"`
}
