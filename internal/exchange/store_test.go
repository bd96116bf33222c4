package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriflow/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("issued token redeems to its session", func(t *testing.T) {
		store := NewInMemoryStore()

		token, err := store.Issue(ctx, "sess-1", DefaultTTL)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		sessionID, err := store.Redeem(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "sess-1", sessionID)
	})

	t.Run("token redeems exactly once", func(t *testing.T) {
		store := NewInMemoryStore()

		token, err := store.Issue(ctx, "sess-2", DefaultTTL)
		require.NoError(t, err)

		_, err = store.Redeem(ctx, token)
		require.NoError(t, err)

		_, err = store.Redeem(ctx, token)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("expired token does not redeem", func(t *testing.T) {
		store := NewInMemoryStore()

		token, err := store.Issue(ctx, "sess-3", -time.Second)
		require.NoError(t, err)

		_, err = store.Redeem(ctx, token)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("unknown token does not redeem", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.Redeem(ctx, "never-issued")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("tokens are unique per issue", func(t *testing.T) {
		store := NewInMemoryStore()
		a, err := store.Issue(ctx, "sess-4", DefaultTTL)
		require.NoError(t, err)
		b, err := store.Issue(ctx, "sess-4", DefaultTTL)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}
