package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/internal/testutil"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
)

type fixture struct {
	feed     *Feed
	store    *timeline.RedisStore
	statuses repository.StatusRepository
}

func setup(t *testing.T) (*fixture, context.Context) {
	t.Helper()
	db := testutil.NewDB(t)
	_, client := testutil.NewRedis(t)
	ctx := context.Background()

	store := timeline.NewRedisStore(client, 400, 800)
	statuses := repository.NewStatusRepository(db)
	f := &fixture{
		feed:     New(store, statuses, client, 4, time.Minute),
		store:    store,
		statuses: statuses,
	}

	require.NoError(t, db.Create(&model.Account{ID: 1, Username: "a"}).Error)
	for id := int64(1); id <= 10; id++ {
		vis := model.VisibilityPublic
		if id%2 == 0 {
			vis = model.VisibilityPrivate
		}
		require.NoError(t, db.Create(&model.Status{ID: id, AccountID: 1, Visibility: vis}).Error)
		_, err := store.Push(ctx, timeline.Home(1), id)
		require.NoError(t, err)
	}
	return f, ctx
}

func ids(items []model.StatusSummary) []int64 {
	res := make([]int64, len(items))
	for i, s := range items {
		res[i] = s.ID
	}
	return res
}

func TestGetNewestFirstWithCursors(t *testing.T) {
	f, ctx := setup(t)

	page, err := f.feed.Get(ctx, timeline.Home(1), 3, Cursor{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 9, 8}, ids(page.Items))
	assert.Equal(t, Cursor{MaxID: 8}, page.Next)
	assert.Equal(t, Cursor{MinID: 10}, page.Prev)

	page, err = f.feed.Get(ctx, timeline.Home(1), 3, page.Next, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 6, 5}, ids(page.Items))
}

func TestGetMinIDReadsForwardButReturnsNewestFirst(t *testing.T) {
	f, ctx := setup(t)

	page, err := f.feed.Get(ctx, timeline.Home(1), 3, Cursor{MinID: 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 6, 5}, ids(page.Items))

	page, err = f.feed.Get(ctx, timeline.Home(1), 3, Cursor{SinceID: 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 9, 8}, ids(page.Items))
}

func TestGetVisibilityFilterReadsWiderWindow(t *testing.T) {
	f, ctx := setup(t)

	page, err := f.feed.Get(ctx, timeline.Home(1), 3, Cursor{}, []model.Visibility{model.VisibilityPublic})
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 7, 5}, ids(page.Items))
}

func TestGetLimitDefaults(t *testing.T) {
	f, ctx := setup(t)

	page, err := f.feed.Get(ctx, timeline.Home(1), 0, Cursor{}, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)

	empty, err := f.feed.Get(ctx, timeline.Home(2), 100, Cursor{}, nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Equal(t, Cursor{}, empty.Next)
}

func TestHydrationSkipsDiscardedAndUsesCache(t *testing.T) {
	f, ctx := setup(t)

	require.NoError(t, f.statuses.Discard(ctx, 10))
	page, err := f.feed.Get(ctx, timeline.Home(1), 2, Cursor{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, ids(page.Items), "discarded id is dropped, page comes back short")

	// 9 is now cached; it survives until forgotten
	require.NoError(t, f.statuses.Discard(ctx, 9))
	page, err = f.feed.Get(ctx, timeline.Home(1), 2, Cursor{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, ids(page.Items))

	require.NoError(t, f.feed.Forget(ctx, 9))
	page, err = f.feed.Get(ctx, timeline.Home(1), 2, Cursor{MaxID: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, ids(page.Items))
}

func TestGetStoreUnavailable(t *testing.T) {
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	store := timeline.NewRedisStore(client, 10, 10)
	f := New(store, repository.NewStatusRepository(db), client, 2, time.Minute)
	mr.Close()

	_, err := f.Get(context.Background(), timeline.Public(), 5, Cursor{}, nil)
	assert.ErrorIs(t, err, timeline.ErrUnavailable)
}
