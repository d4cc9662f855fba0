package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	visitorTTL    = 10 * time.Minute
	cleanupEveryN = 5000
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is a per-key token bucket held in process memory.
type LocalLimiter struct {
	cfg      Config
	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  int
}

// NewLocalLimiter builds a limiter refilling Limit tokens per Window with a
// burst of Limit.
func NewLocalLimiter(cfg Config) *LocalLimiter {
	return &LocalLimiter{cfg: cfg.normalized(), visitors: make(map[string]*visitor)}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.get(key).Allow(), nil
}

func (l *LocalLimiter) get(key string) *rate.Limiter {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Evict idle buckets before touching key so a stale bucket is not refreshed.
	l.lookups++
	if l.lookups >= cleanupEveryN {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) >= visitorTTL {
				delete(l.visitors, k)
			}
		}
		l.lookups = 0
	}

	if v, ok := l.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	every := rate.Every(l.cfg.Window / time.Duration(l.cfg.Limit))
	lim := rate.NewLimiter(every, l.cfg.Limit)
	l.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}
