package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCounterDedupesPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisDownloadCounter(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	require.NoError(t, c.Increment(ctx, 7, 1))
	require.NoError(t, c.Increment(ctx, 7, 1))
	require.NoError(t, c.Increment(ctx, 7, 2))
	require.NoError(t, c.Increment(ctx, 8, 1))

	counts, err := c.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{7: 2, 8: 1}, counts)

	mr.FastForward(61 * time.Minute)
	require.NoError(t, c.Increment(ctx, 7, 1))
	counts, _ = c.Counts(ctx)
	assert.Equal(t, int64(3), counts[7])
}

func TestMemoryCounter(t *testing.T) {
	c := NewMemoryDownloadCounter()
	ctx := context.Background()

	require.NoError(t, c.Increment(ctx, 1, 1))
	require.NoError(t, c.Increment(ctx, 1, 1))
	require.NoError(t, c.Increment(ctx, 1, 5))

	counts, err := c.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[1])
}
