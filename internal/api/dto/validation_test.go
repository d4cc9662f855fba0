package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/helpdesk/support-desk/pkg/util/errorutil"
)

func TestValidateUsesJSONNames(t *testing.T) {
	err := Validate(&RegisterRequest{Email: "nope", Password: "123"})
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Details, "name")
	assert.Contains(t, de.Details, "email")
	assert.Equal(t, "password must be at least 6 characters long", de.Details["password"])
}

func TestValidateAcceptsGoodPayloads(t *testing.T) {
	assert.NoError(t, Validate(&RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1"}))
	assert.NoError(t, Validate(&CreateTicketRequest{Title: "t", Description: "d", Priority: "high"}))
	assert.Error(t, Validate(&CreateTicketRequest{Title: "t", Description: "d", Priority: "urgent"}))
	assert.Error(t, Validate(&FeedbackRequest{MessageID: "m", Rating: 9}))
	assert.Error(t, Validate(&ChatRequest{ConversationHistory: []ChatHistoryItem{{Sender: "bot"}}}))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeText("  <b>hello</b> <script>alert(1)</script>world "))
	assert.Equal(t, "I'm fine & you?", SanitizeText("I'm fine & you?"))
	assert.Equal(t, "a < b", SanitizeText("a < b"))
	assert.Nil(t, SanitizePtr(nil))
	assert.Equal(t, "x", *SanitizePtr(ptr("<i>x</i>")))
}

func TestSanitizeTextEncodedMarkup(t *testing.T) {
	for _, input := range []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;",
		"&lt;img src=x onerror=alert(1)&gt;hi",
		"&#60;b&#62;bold&#60;/b&#62;",
	} {
		out := SanitizeText(input)
		assert.NotContains(t, out, "<script", input)
		assert.NotContains(t, out, "<img", input)
		assert.NotContains(t, out, "<b>", input)
	}
	assert.Equal(t, "hi", SanitizeText("&lt;img src=x onerror=alert(1)&gt;hi"))
	assert.Equal(t, "bold", SanitizeText("&#60;b&#62;bold&#60;/b&#62;"))
}

func TestChatHistoryDefaults(t *testing.T) {
	req := ChatRequest{Message: "hi", ConversationHistory: []ChatHistoryItem{
		{Message: "first"},
		{Sender: "ai", Message: "reply"},
		{Sender: "user"},
	}}
	history := req.History()
	require.Len(t, history, 2)
	assert.Equal(t, "user", string(history[0].Sender))
	assert.Equal(t, "ai", string(history[1].Sender))
}

func ptr(s string) *string { return &s }
