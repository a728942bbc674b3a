package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockExclusive(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	l, err := Acquire(ctx, client, "distribute:1", time.Minute)
	require.NoError(t, err)

	_, err = Acquire(ctx, client, "distribute:1", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, l.Release(ctx))
	l2, err := Acquire(ctx, client, "distribute:1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, l2.Release(ctx))
}

func TestLockReleaseKeepsForeignToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	l, err := Acquire(ctx, client, "distribute:2", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	other, err := Acquire(ctx, client, "distribute:2", time.Minute)
	require.NoError(t, err)

	require.NoError(t, l.Release(ctx))
	assert.True(t, mr.Exists("distribute:2"))
	require.NoError(t, other.Release(ctx))
	assert.False(t, mr.Exists("distribute:2"))
}
