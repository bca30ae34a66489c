package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hyeonlab/boardauth/cache"
)

// SessionStore implements the cache.SessionStore interface using Redis.
// SET with expiry gives the atomic overwrite-with-TTL the session contract
// depends on; no client-side locking is needed.
type SessionStore struct {
	client *redis.Client
	prefix string // Optional prefix for keys
}

// NewSessionStore creates a new [SessionStore] instance.
func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
	}
}

// redisKey returns the Redis key for a given identity's session.
func (r *SessionStore) redisKey(email string) string {
	if r.prefix == "" {
		return cache.SessionKey(email)
	}
	return fmt.Sprintf("%s:%s", r.prefix, cache.SessionKey(email))
}

// Put stores the token as the live session, replacing any previous one.
func (r *SessionStore) Put(ctx context.Context, email, token string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.redisKey(email), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in Redis: %w", err)
	}
	return nil
}

// Get retrieves the live token for an identity. A missing key is ("", nil).
func (r *SessionStore) Get(ctx context.Context, email string) (string, error) {
	val, err := r.client.Get(ctx, r.redisKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session from Redis: %w", err)
	}
	return val, nil
}

// Delete removes the session. Redis DEL on an absent key is a no-op, which
// keeps logout idempotent.
func (r *SessionStore) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, r.redisKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}

var _ cache.SessionStore = (*SessionStore)(nil)
