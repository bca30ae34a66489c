package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryLimiter implements Limiter using ttlcache. Windows are local to the
// process, so it only matches the Redis limiter's semantics for a single
// replica; it exists for tests and single-node deployments.
type MemoryLimiter struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, int]
}

// NewMemoryLimiter creates a new in-memory fixed-window limiter.
func NewMemoryLimiter() *MemoryLimiter {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, int](),
	)

	go cache.Start()

	return &MemoryLimiter{cache: cache}
}

// Allow implements Limiter.Allow. The mutex makes the read-modify-write
// atomic, mirroring what Redis INCR gives the distributed backend.
func (m *MemoryLimiter) Allow(_ context.Context, action, callerKey string, policy Policy) (*Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := windowKey(action, callerKey)

	item := m.cache.Get(key)
	var remaining time.Duration
	if item != nil && !item.IsExpired() {
		remaining = time.Until(item.ExpiresAt())
	}
	// A non-positive remaining TTL means the window closed between the Get
	// and now; ttlcache would read it as "never expire". Start a new window.
	if remaining <= 0 {
		m.cache.Set(key, 1, policy.Window)
		return &Decision{
			Allowed:   true,
			Remaining: policy.Limit - 1,
		}, nil
	}

	count := item.Value() + 1
	// Keep the original window: re-set with the remaining TTL, not a fresh one.
	m.cache.Set(key, count, remaining)

	if count <= policy.Limit {
		return &Decision{
			Allowed:   true,
			Remaining: policy.Limit - count,
		}, nil
	}
	return &Decision{
		Allowed:    false,
		RetryAfter: remaining,
	}, nil
}

// Close stops the cleanup goroutine.
func (m *MemoryLimiter) Close() error {
	m.cache.Stop()
	return nil
}

var _ Limiter = (*MemoryLimiter)(nil)
