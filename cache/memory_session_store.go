package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemorySessionStore implements SessionStore using ttlcache. It is suitable
// for tests and single-process deployments; production uses the Redis
// implementation.
type MemorySessionStore struct {
	cache *ttlcache.Cache[string, string]
}

// NewMemorySessionStore creates a new in-memory session store with automatic
// expiry of stale records.
func NewMemorySessionStore() *MemorySessionStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	// Start the cleanup process
	go cache.Start()

	return &MemorySessionStore{
		cache: cache,
	}
}

// Put implements SessionStore.Put.
func (s *MemorySessionStore) Put(_ context.Context, email, token string, ttl time.Duration) error {
	s.cache.Set(SessionKey(email), token, ttl)
	return nil
}

// Get implements SessionStore.Get.
func (s *MemorySessionStore) Get(_ context.Context, email string) (string, error) {
	item := s.cache.Get(SessionKey(email))
	if item == nil || item.IsExpired() {
		return "", nil
	}
	return item.Value(), nil
}

// Delete implements SessionStore.Delete.
func (s *MemorySessionStore) Delete(_ context.Context, email string) error {
	s.cache.Delete(SessionKey(email))
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemorySessionStore) Close() error {
	s.cache.Stop()
	return nil
}

var _ SessionStore = (*MemorySessionStore)(nil)
