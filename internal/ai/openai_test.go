package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk/support-desk/internal/domain"
)

func TestOpenAIComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, Persona, req.Messages[0].Content)
		assert.Contains(t, req.Messages[1].Content, "Customer: printer jams")
		assert.Contains(t, req.Messages[1].Content, "still jams")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Open the rear tray. "}}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewOpenAI(server.URL+"/v1/", "sk-test", "gpt-test", time.Second)
	reply, err := client.Complete(context.Background(), Request{
		System:  Persona,
		History: []domain.Message{domain.NewMessage(domain.SenderUser, "printer jams")},
		Message: "still jams",
	})

	require.NoError(t, err)
	assert.Equal(t, "Open the rear tray.", reply)
	assert.Equal(t, "openai", client.Name())
}

func TestOpenAICompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"provider error", http.StatusTooManyRequests, `{"error":{"type":"rate_limit","message":"slow down"}}`},
		{"bad json", http.StatusOK, `not json`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			_, err := NewOpenAI(server.URL, "", "m", time.Second).Complete(context.Background(), Request{Message: "hi"})
			assert.Error(t, err)
		})
	}
}

func TestOpenAITimeoutFallsBackThroughPolicy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)

	policy := NewPolicy(NewOpenAI(server.URL, "", "m", 5*time.Second), 30*time.Millisecond)
	outcome := policy.Decide(context.Background(), "printer jams", nil)

	assert.True(t, outcome.Fallback)
	assert.ErrorIs(t, outcome.Err, ErrUnavailable)
}
