package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterPerActorBudget(t *testing.T) {
	rl := NewRateLimiter()
	rl.SetLimit("alice", 3)

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Allow("alice"))
	}
	assert.ErrorIs(t, rl.Allow("alice"), ErrRateLimited)

	// Other actors are unaffected.
	assert.NoError(t, rl.Allow("bob"))
}

func TestRateLimiterWindowReset(t *testing.T) {
	current := time.Unix(1000, 0)
	rl := NewRateLimiterWithClock(func() time.Time { return current })
	rl.SetLimit("alice", 1)

	require.NoError(t, rl.Allow("alice"))
	assert.ErrorIs(t, rl.Allow("alice"), ErrRateLimited)

	current = current.Add(time.Minute)
	assert.NoError(t, rl.Allow("alice"))
}

func TestRateLimiterDefaultOverride(t *testing.T) {
	rl := NewRateLimiter()
	rl.SetDefaultLimit(2)

	require.NoError(t, rl.Allow("dave"))
	require.NoError(t, rl.Allow("dave"))
	assert.ErrorIs(t, rl.Allow("dave"), ErrRateLimited)

	// Per-actor overrides still win over the default.
	rl.SetLimit("erin", 1)
	require.NoError(t, rl.Allow("erin"))
	assert.ErrorIs(t, rl.Allow("erin"), ErrRateLimited)
}

func TestRateLimiterDefaultBudget(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < defaultLimit; i++ {
		require.NoError(t, rl.Allow("carol"))
	}
	assert.ErrorIs(t, rl.Allow("carol"), ErrRateLimited)
}
