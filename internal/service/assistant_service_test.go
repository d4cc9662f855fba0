package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk/support-desk/internal/ai"
	"github.com/helpdesk/support-desk/internal/domain"
	apperrors "github.com/helpdesk/support-desk/pkg/util/errorutil"
)

func TestChatUsesProvider(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "u@example.com", domain.RoleUser)

	reply, err := h.assistant.Chat(context.Background(), caller, "My app freezes", nil)
	require.NoError(t, err)
	assert.Equal(t, "Please try restarting the app.", reply.Response)
	assert.Equal(t, "fake", reply.Source)
	assert.False(t, reply.Timestamp.IsZero())
	assert.NotEmpty(t, reply.MessageID)

	again, err := h.assistant.Chat(context.Background(), caller, "My app freezes", nil)
	require.NoError(t, err)
	assert.NotEqual(t, reply.MessageID, again.MessageID)
}

func TestChatFallsBackToRules(t *testing.T) {
	h := newHarness(t)
	h.provider.fail()
	caller := h.user(t, "u@example.com", domain.RoleUser)

	reply, err := h.assistant.Chat(context.Background(), caller, "How do I change my password?", nil)
	require.NoError(t, err)
	assert.Equal(t, "rules", reply.Source)
	assert.Equal(t, ai.RuleReply("How do I change my password?"), reply.Response)
}

func TestChatValidation(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "u@example.com", domain.RoleUser)

	_, err := h.assistant.Chat(context.Background(), caller, "  ", nil)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	_, err = h.assistant.Chat(context.Background(), caller, strings.Repeat("a", 1001), nil)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestSuggestionsAreFixed(t *testing.T) {
	h := newHarness(t)
	suggestions := h.assistant.Suggestions()
	require.Len(t, suggestions, 7)
	suggestions[0] = "changed"
	assert.Equal(t, "How do I reset my password?", h.assistant.Suggestions()[0])
}

func TestSubmitFeedback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	caller := h.user(t, "u@example.com", domain.RoleUser)

	_, err := h.assistant.SubmitFeedback(ctx, caller, "", 3, "")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	_, err = h.assistant.SubmitFeedback(ctx, caller, "m1", 6, "")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	stored, err := h.assistant.SubmitFeedback(ctx, caller, "m1", 5, "spot on")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)

	list, err := h.store.Feedback().ListByUser(ctx, caller.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "spot on", list[0].Comment)
}

func TestAssistantStatus(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, AssistantStatus{Provider: "fake", Available: true}, h.assistant.Status())

	none := NewAssistantService(ai.NewPolicy(nil, 0), h.store.Feedback(), nil, nil)
	assert.Equal(t, AssistantStatus{Provider: "none", Available: false}, none.Status())
}
