package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_ExactThreshold(t *testing.T) {
	limiter := NewMemoryLimiter()
	defer limiter.Close()

	ctx := context.Background()
	policy := Policy{Limit: 5, Window: time.Minute}

	for i := 0; i < 5; i++ {
		d, err := limiter.Allow(ctx, "login", "1.2.3.4", policy)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5-(i+1), d.Remaining)
	}

	d, err := limiter.Allow(ctx, "login", "1.2.3.4", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "request over the limit should be rejected")
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	defer limiter.Close()

	ctx := context.Background()
	policy := Policy{Limit: 1, Window: time.Minute}

	d, err := limiter.Allow(ctx, "login", "1.2.3.4", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "login", "1.2.3.4", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// Different caller, same action.
	d, err = limiter.Allow(ctx, "login", "5.6.7.8", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// Same caller, different action.
	d, err = limiter.Allow(ctx, "logout", "1.2.3.4", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	limiter := NewMemoryLimiter()
	defer limiter.Close()

	ctx := context.Background()
	policy := Policy{Limit: 1, Window: 30 * time.Millisecond}

	d, err := limiter.Allow(ctx, "login", "k", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "login", "k", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	time.Sleep(50 * time.Millisecond)

	d, err = limiter.Allow(ctx, "login", "k", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "a fresh window should admit again")
}

func TestMemoryLimiter_ExpiryDuringBurstDoesNotLockOut(t *testing.T) {
	limiter := NewMemoryLimiter()
	defer limiter.Close()

	ctx := context.Background()
	policy := Policy{Limit: 2, Window: time.Millisecond}

	// Hammer across many window boundaries so some increments land right as
	// a window closes. A counter re-set with a non-positive TTL would never
	// expire and reject forever.
	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, err := limiter.Allow(ctx, "login", "k", policy)
		require.NoError(t, err)
	}

	time.Sleep(10 * time.Millisecond)

	d, err := limiter.Allow(ctx, "login", "k", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "the counter must expire with its window")
}
