package timeline

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxItems, personal int) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, maxItems, personal), mr
}

func entries(t *testing.T, s *RedisStore, scope Scope) []int64 {
	t.Helper()
	ids, err := s.Range(context.Background(), scope, Range{Count: 10_000})
	require.NoError(t, err)
	return ids
}

func TestPushIdempotent(t *testing.T) {
	s, _ := newTestStore(t, 10, 10)
	ctx := context.Background()

	added, err := s.Push(ctx, Public(), 5)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.Push(ctx, Public(), 5)
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, []int64{5}, entries(t, s, Public()))
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	s, _ := newTestStore(t, 10, 10)
	ctx := context.Background()
	_, err := s.Push(ctx, Home(1), 3)
	require.NoError(t, err)

	removed, err := s.Remove(ctx, Home(1), 99)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []int64{3}, entries(t, s, Home(1)))

	removed, err = s.Remove(ctx, Home(2), 3)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestBoundedCardinalityKeepsHighestScores(t *testing.T) {
	s, _ := newTestStore(t, 5, 50)
	ctx := context.Background()

	for _, id := range []int64{7, 1, 12, 3, 9, 15, 2, 11, 4} {
		_, err := s.Push(ctx, Public(), id)
		require.NoError(t, err)
		n, err := s.Len(ctx, Public())
		require.NoError(t, err)
		assert.LessOrEqual(t, n, int64(5))
	}
	assert.Equal(t, []int64{15, 12, 11, 9, 7}, entries(t, s, Public()))
}

func TestPushBelowFullWindowReportsNotAdded(t *testing.T) {
	s, _ := newTestStore(t, 3, 3)
	ctx := context.Background()
	added, err := s.PushMany(ctx, []Scope{Public()}, 10)
	require.NoError(t, err)
	require.Equal(t, []bool{true}, added)
	for _, id := range []int64{20, 30} {
		_, err := s.Push(ctx, Public(), id)
		require.NoError(t, err)
	}

	ok, err := s.Push(ctx, Public(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []int64{30, 20, 10}, entries(t, s, Public()))
}

func TestPersonalCap(t *testing.T) {
	s, _ := newTestStore(t, 2, 4)
	assert.Equal(t, 4, s.Cap(Home(1)))
	assert.Equal(t, 4, s.Cap(List(1)))
	assert.Equal(t, 2, s.Cap(Hashtag("go")))
}

func TestRangeDirections(t *testing.T) {
	s, _ := newTestStore(t, 100, 100)
	ctx := context.Background()
	for id := int64(1); id <= 10; id++ {
		_, err := s.Push(ctx, Home(1), id)
		require.NoError(t, err)
	}

	before, err := s.Range(ctx, Home(1), Range{Max: 8, Count: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 6, 5}, before)

	since, err := s.Range(ctx, Home(1), Range{Min: 3, Max: 9, Count: 100})
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 7, 6, 5, 4}, since)

	asc, err := s.Range(ctx, Home(1), Range{Min: 3, Count: 2, Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, asc)
}

func TestRangeExactAtSnowflakeMagnitude(t *testing.T) {
	s, _ := newTestStore(t, 100, 100)
	ctx := context.Background()
	// 同一毫秒内的雪花 id 共享一个 float64 分数
	base := int64(1_760_000_000_000) << 16
	for i := int64(0); i < 10; i++ {
		_, err := s.Push(ctx, Home(1), base+i)
		require.NoError(t, err)
	}

	before, err := s.Range(ctx, Home(1), Range{Max: base + 5, Count: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{base + 4, base + 3, base + 2}, before)

	asc, err := s.Range(ctx, Home(1), Range{Min: base + 2, Count: 2, Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{base + 3, base + 4}, asc)

	oldest, ok, err := s.Oldest(ctx, Home(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, base, oldest)
}

func TestPushManyAndRemoveMany(t *testing.T) {
	s, _ := newTestStore(t, 10, 10)
	ctx := context.Background()
	scopes := []Scope{Public(), PublicLocal(), Hashtag("go")}

	_, err := s.Push(ctx, PublicLocal(), 42)
	require.NoError(t, err)

	added, err := s.PushMany(ctx, scopes, 42)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, added)

	removed, err := s.RemoveMany(ctx, append(scopes, Group(1)), 42)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, false}, removed)
}

func TestOldestRemoveClear(t *testing.T) {
	s, _ := newTestStore(t, 10, 10)
	ctx := context.Background()

	_, ok, err := s.Oldest(ctx, List(4))
	require.NoError(t, err)
	assert.False(t, ok)

	for _, id := range []int64{30, 10, 20} {
		_, err := s.Push(ctx, List(4), id)
		require.NoError(t, err)
	}
	oldest, ok, err := s.Oldest(ctx, List(4))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(10), oldest)

	assert.Equal(t, []int64{30, 20, 10}, entries(t, s, List(4)))

	n, err := s.RemoveIDs(ctx, List(4), []int64{20, 99})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []int64{30, 10}, entries(t, s, List(4)))

	require.NoError(t, s.Clear(ctx, List(4)))
	assert.Empty(t, entries(t, s, List(4)))
}

func TestUnavailable(t *testing.T) {
	s, mr := newTestStore(t, 10, 10)
	mr.Close()

	_, err := s.Push(context.Background(), Public(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.Range(context.Background(), Public(), Range{Count: 1})
	assert.ErrorIs(t, err, ErrUnavailable)
}
