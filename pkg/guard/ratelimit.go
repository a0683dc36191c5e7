// Package guard holds admission checks applied before privileged registry
// calls.
package guard

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrRateLimited = errors.New("rate limit exceeded")

const defaultLimit = 60

// RateLimiter counts requests per actor over a fixed one-minute window.
type RateLimiter struct {
	mu           sync.Mutex
	counts       map[string]uint32
	limits       map[string]uint32
	defaultLimit uint32
	windowStart  time.Time
	now          func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithClock(time.Now)
}

// NewRateLimiterWithClock injects the clock, for tests.
func NewRateLimiterWithClock(now func() time.Time) *RateLimiter {
	return &RateLimiter{
		counts:       make(map[string]uint32),
		limits:       make(map[string]uint32),
		defaultLimit: defaultLimit,
		windowStart:  now(),
		now:          now,
	}
}

// Allow admits one request for actor, or fails with ErrRateLimited once the
// actor's per-minute budget is spent.
func (rl *RateLimiter) Allow(actor string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.now().Sub(rl.windowStart) >= time.Minute {
		rl.counts = make(map[string]uint32)
		rl.windowStart = rl.now()
	}

	limit := rl.defaultLimit
	if custom, ok := rl.limits[actor]; ok {
		limit = custom
	}

	if rl.counts[actor] >= limit {
		return fmt.Errorf("actor %s: %w", actor, ErrRateLimited)
	}
	rl.counts[actor]++
	return nil
}

// SetLimit overrides the per-minute budget for one actor.
func (rl *RateLimiter) SetLimit(actor string, limit uint32) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limits[actor] = limit
}

// SetDefaultLimit overrides the per-minute budget applied to actors without
// an explicit override.
func (rl *RateLimiter) SetDefaultLimit(limit uint32) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.defaultLimit = limit
}
