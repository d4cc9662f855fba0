package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiterBurstThenReject(t *testing.T) {
	l := NewLocalLimiter(PerMinute(3))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "user:1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, err := l.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "user:2")
	assert.True(t, ok, "keys are independent")
}

func TestLocalLimiterRefills(t *testing.T) {
	l := NewLocalLimiter(Config{Limit: 1, Window: 20 * time.Millisecond})
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	require.False(t, ok)

	time.Sleep(40 * time.Millisecond)
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
}

func TestLocalLimiterEvictsIdleBuckets(t *testing.T) {
	l := NewLocalLimiter(PerMinute(1))
	_, _ = l.Allow(context.Background(), "stale")
	l.visitors["stale"].lastSeen = time.Now().Add(-2 * visitorTTL)
	l.lookups = cleanupEveryN - 1

	_, _ = l.Allow(context.Background(), "fresh")
	_, exists := l.visitors["stale"]
	assert.False(t, exists)
}

func TestConfigNormalized(t *testing.T) {
	cfg := Config{}.normalized()
	assert.Equal(t, 1, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
}
