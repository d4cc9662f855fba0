package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdesk/support-desk/internal/ai"
	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/observability"
	"github.com/helpdesk/support-desk/internal/repository"
	apperrors "github.com/helpdesk/support-desk/pkg/util/errorutil"
)

const (
	maxChatLength     = 1000
	maxFeedbackLength = 1000
	maxChatHistory    = 20
)

var chatSuggestions = []string{
	"How do I reset my password?",
	"How can I contact support?",
	"What are your business hours?",
	"How do I update my profile?",
	"I'm experiencing a bug",
	"How do I cancel my subscription?",
	"I need help with billing",
}

// ChatReply is the assistant's answer to an ad hoc chat message. MessageID is
// the reference clients send back with feedback.
type ChatReply struct {
	MessageID string    `json:"messageId"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// AssistantStatus reports which backend answers chat messages.
type AssistantStatus struct {
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
}

// AssistantService backs the ticket-less chat endpoints.
type AssistantService struct {
	policy   *ai.Policy
	feedback repository.FeedbackRepository
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewAssistantService constructs the service.
func NewAssistantService(policy *ai.Policy, feedback repository.FeedbackRepository, metrics *observability.Metrics, logger *zap.Logger) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{policy: policy, feedback: feedback, metrics: metrics, logger: logger, now: time.Now}
}

// Chat answers a message with the configured provider, falling back to the
// keyword rules when the provider fails.
func (s *AssistantService) Chat(ctx context.Context, caller domain.Caller, message string, history []domain.Message) (ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatReply{}, apperrors.NewValidationError("Message is required", nil)
	}
	if utf8.RuneCountInString(message) > maxChatLength {
		return ChatReply{}, apperrors.NewValidationError("Message must be at most 1000 characters", nil)
	}
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}

	source := s.policy.ProviderName()
	reply, err := s.policy.DraftReply(ctx, message, history)
	if err != nil {
		s.logger.Warn("chat provider failed; answering from rules",
			zap.String("user_id", caller.UserID), zap.Error(err))
		s.metrics.RecordAIOutcome("chat", observability.OutcomeFallback)
		reply, source = ai.RuleReply(message), "rules"
	} else {
		s.metrics.RecordAIOutcome("chat", observability.OutcomeReply)
	}
	return ChatReply{
		MessageID: uuid.NewString(),
		Response:  reply,
		Timestamp: s.now().UTC(),
		Source:    source,
	}, nil
}

// Suggestions returns the fixed conversation starters.
func (s *AssistantService) Suggestions() []string {
	return append([]string(nil), chatSuggestions...)
}

// SubmitFeedback stores a rating for one assistant message.
func (s *AssistantService) SubmitFeedback(ctx context.Context, caller domain.Caller, messageID string, rating int, comment string) (*domain.AIFeedback, error) {
	messageID = strings.TrimSpace(messageID)
	comment = strings.TrimSpace(comment)
	if messageID == "" || rating == 0 {
		return nil, apperrors.NewValidationError("Message ID and rating are required", nil)
	}
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("Rating must be between 1 and 5", nil)
	}
	if utf8.RuneCountInString(comment) > maxFeedbackLength {
		return nil, apperrors.NewValidationError("Feedback must be at most 1000 characters", nil)
	}

	feedback := &domain.AIFeedback{
		UserID:    caller.UserID,
		MessageID: messageID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("ai feedback received",
		zap.String("user_id", caller.UserID),
		zap.String("message_id", messageID),
		zap.Int("rating", rating))
	return feedback, nil
}

// Status reports the active provider.
func (s *AssistantService) Status() AssistantStatus {
	name := s.policy.ProviderName()
	return AssistantStatus{Provider: name, Available: name != "none"}
}
