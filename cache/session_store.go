package cache

import (
	"context"
	"fmt"
	"time"
)

// SessionStore maps an identity email to its currently valid bearer token.
// Put overwrites any previous value, which is the enforcement point for
// "a new login invalidates the old token": a signed token is considered live
// only while the stored value matches it bit-for-bit. Single-session-per-user
// is a consequence of the one-key-per-email layout; multi-device sessions
// would need a device discriminator in the key.
type SessionStore interface {
	// Put stores token as the live session for email, expiring after ttl.
	Put(ctx context.Context, email, token string, ttl time.Duration) error
	// Get returns the live token for email, or ("", nil) when no session
	// exists.
	Get(ctx context.Context, email string) (string, error)
	// Delete removes the session for email. Deleting an absent session is
	// not an error.
	Delete(ctx context.Context, email string) error
}

// SessionKey returns the cache key for an identity's session record.
func SessionKey(email string) string {
	return fmt.Sprintf("session:%s", email)
}
