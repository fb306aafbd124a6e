package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowLocksForWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	l := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	ok, err := l.Allow(ctx, "user:1", "comment", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, "user:1", "comment", 10*time.Second)
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "user:2", "comment", 10*time.Second)
	assert.True(t, ok, "other subjects unaffected")

	left, err := l.Remaining(ctx, "user:1", "comment")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, left)

	mr.FastForward(11 * time.Second)
	ok, _ = l.Allow(ctx, "user:1", "comment", 10*time.Second)
	assert.True(t, ok)

	require.NoError(t, l.Clear(ctx, "user:1", "comment"))
	ok, _ = l.Allow(ctx, "user:1", "comment", 10*time.Second)
	assert.True(t, ok)
}

func TestNilRedisAllowsEverything(t *testing.T) {
	l := New(nil)
	for i := 0; i < 3; i++ {
		ok, err := l.Allow(context.Background(), "user:1", "comment", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
