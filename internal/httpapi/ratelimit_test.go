package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerUserBuckets(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{PerMinute: 60, Burst: 2}, nil)
	t.Cleanup(rl.Stop)

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"))
	assert.Equal(t, 2, rl.Len())
	assert.Equal(t, 1, rl.retryAfterSeconds())
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{PerMinute: 10, Burst: 1, CleanupInterval: time.Hour}, nil)
	t.Cleanup(rl.Stop)

	rl.Allow("u1")
	rl.evictIdle(time.Now().Add(time.Hour))
	assert.Equal(t, 1, rl.Len())

	rl.evictIdle(time.Now().Add(3 * time.Hour))
	assert.Zero(t, rl.Len())
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{}, nil)
	rl.Stop()
	rl.Stop()
}
