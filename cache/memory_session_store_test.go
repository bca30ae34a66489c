package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("GetAbsent", func(t *testing.T) {
		tok, err := store.Get(ctx, "nobody@x.com")
		require.NoError(t, err)
		assert.Empty(t, tok)
	})

	t.Run("PutGet", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "a@x.com", "token-1", time.Minute))

		tok, err := store.Get(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "token-1", tok)
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "a@x.com", "token-2", time.Minute))

		tok, err := store.Get(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "token-2", tok)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "a@x.com"))
		require.NoError(t, store.Delete(ctx, "a@x.com"))

		tok, err := store.Get(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Empty(t, tok)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "b@x.com", "token-3", 20*time.Millisecond))
		time.Sleep(50 * time.Millisecond)

		tok, err := store.Get(ctx, "b@x.com")
		require.NoError(t, err)
		assert.Empty(t, tok)
	})
}
