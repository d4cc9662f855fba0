package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk/support-desk/internal/config"
)

func TestRuleReply(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"I forgot my PASSWORD", replyRules[0].reply},
		{"update my profile", replyRules[1].reply},
		{"what are your business hours", replyRules[3].reply},
		{"question about payment", replyRules[4].reply},
		{"cancel my plan", replyRules[7].reply},
		{"zzz", defaultRuleReply},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RuleReply(tt.text), tt.text)
	}
}

func TestRulesProvider(t *testing.T) {
	rules := NewRules()
	assert.Equal(t, "rules", rules.Name())

	reply, err := rules.Complete(context.Background(), Request{Message: "I hit an error on checkout"})
	require.NoError(t, err)
	assert.Equal(t, replyRules[5].reply, reply)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rules.Complete(ctx, Request{Message: "hello"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRuleRepliesNeverSignalHandoff(t *testing.T) {
	for _, r := range replyRules {
		assert.False(t, ReplySignalsEscalation(r.reply), r.reply)
	}
	assert.False(t, ReplySignalsEscalation(defaultRuleReply))
}

func TestNewProviderSelection(t *testing.T) {
	p, err := NewProvider(config.AIConfig{Provider: "rules"})
	require.NoError(t, err)
	assert.Equal(t, "rules", p.Name())

	_, err = NewProvider(config.AIConfig{Provider: "openai"})
	assert.Error(t, err)

	p, err = NewProvider(config.AIConfig{Provider: "openai", APIKey: "k", BaseURL: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = NewProvider(config.AIConfig{Provider: "gemini"})
	assert.Error(t, err)
}
