// Package ratelimit bounds how often a caller may hit an expensive route.
// The Redis limiter is shared between replicas; the local limiter is used
// when Redis is not configured.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether one more request for key fits in the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config describes a budget of Limit requests per Window.
type Config struct {
	Limit  int
	Window time.Duration
}

func (c Config) normalized() Config {
	if c.Limit <= 0 {
		c.Limit = 1
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	return c
}

// PerMinute is shorthand for a one-minute window.
func PerMinute(limit int) Config {
	return Config{Limit: limit, Window: time.Minute}
}
