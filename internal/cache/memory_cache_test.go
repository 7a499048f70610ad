package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedStats struct {
	Attempts int     `json:"attempts"`
	Best     float64 `json:"best"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, UserStatsKey("u1"), cachedStats{Attempts: 3, Best: 75}, time.Minute))
		var got cachedStats
		require.NoError(t, c.Get(ctx, UserStatsKey("u1"), &got))
		assert.Equal(t, cachedStats{Attempts: 3, Best: 75}, got)
	})

	t.Run("miss", func(t *testing.T) {
		var got cachedStats
		assert.ErrorIs(t, c.Get(ctx, "nope", &got), ErrCacheMiss)
	})

	t.Run("expiry", func(t *testing.T) {
		now := time.Now()
		c.now = func() time.Time { return now }
		require.NoError(t, c.Set(ctx, "short", 1, time.Second))
		now = now.Add(2 * time.Second)
		var v int
		assert.ErrorIs(t, c.Get(ctx, "short", &v), ErrCacheMiss)
		c.now = time.Now
	})

	t.Run("delete pattern", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, UserStatsKey("u1"), 1, 0))
		require.NoError(t, c.Set(ctx, UserStatsKey("u2"), 2, 0))
		require.NoError(t, c.Set(ctx, QuestionKey("q1"), 3, 0))

		require.NoError(t, c.DeletePattern(ctx, "user:*"))
		var v int
		assert.ErrorIs(t, c.Get(ctx, UserStatsKey("u1"), &v), ErrCacheMiss)
		assert.ErrorIs(t, c.Get(ctx, UserStatsKey("u2"), &v), ErrCacheMiss)
		assert.NoError(t, c.Get(ctx, QuestionKey("q1"), &v))
	})
}

func TestNoopCache(t *testing.T) {
	c := NewNoopCache()
	assert.NoError(t, c.Set(context.Background(), "k", 1, 0))
	var v int
	assert.ErrorIs(t, c.Get(context.Background(), "k", &v), ErrCacheMiss)
}
