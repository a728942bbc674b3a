// Package feed is the read side of the timeline cache: it pages a scope's
// ids and hydrates them into status summaries.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/pkg/logger"
)

const (
	DefaultLimit = 20
	MaxLimit     = 40

	cachePrefix = "status:"
)

// Cursor bounds a page. All ids are exclusive; zero means unset.
type Cursor struct {
	MaxID   int64 `json:"max_id,string,omitempty" form:"max_id"`
	SinceID int64 `json:"since_id,string,omitempty" form:"since_id"`
	MinID   int64 `json:"min_id,string,omitempty" form:"min_id"`
}

type Page struct {
	Items []model.StatusSummary `json:"items"`
	Next  Cursor                `json:"next"`
	Prev  Cursor                `json:"prev"`
}

type Feed struct {
	store            timeline.Store
	statuses         repository.StatusRepository
	cache            redis.UniversalClient
	filterMultiplier int
	hydrationTTL     time.Duration
}

func New(store timeline.Store, statuses repository.StatusRepository, cache redis.UniversalClient, filterMultiplier int, hydrationTTL time.Duration) *Feed {
	if filterMultiplier < 1 {
		filterMultiplier = 1
	}
	return &Feed{
		store:            store,
		statuses:         statuses,
		cache:            cache,
		filterMultiplier: filterMultiplier,
		hydrationTTL:     hydrationTTL,
	}
}

// Get returns up to limit statuses of scope, newest first. A non-empty
// visibilities list keeps only statuses with one of those levels; the page
// may then come back short when the cached window is sparse.
func (f *Feed) Get(ctx context.Context, scope timeline.Scope, limit int, cur Cursor, visibilities []model.Visibility) (*Page, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	read := limit
	if len(visibilities) > 0 {
		read = limit * f.filterMultiplier
	}

	r := timeline.Range{Max: cur.MaxID, Min: cur.SinceID, Count: read}
	if cur.MinID > 0 {
		r = timeline.Range{Max: cur.MaxID, Min: cur.MinID, Count: read, Ascending: true}
	}
	ids, err := f.store.Range(ctx, scope, r)
	if err != nil {
		return nil, err
	}

	items, err := f.Hydrate(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(visibilities) > 0 {
		items = slices.DeleteFunc(items, func(s model.StatusSummary) bool {
			return !slices.Contains(visibilities, s.Visibility)
		})
	}
	if len(items) > limit {
		items = items[:limit]
	}
	if r.Ascending {
		slices.Reverse(items)
	}

	page := &Page{Items: items}
	if n := len(items); n > 0 {
		page.Next = Cursor{MaxID: items[n-1].ID}
		page.Prev = Cursor{MinID: items[0].ID}
	}
	return page, nil
}

// Hydrate resolves ids into summaries preserving order; ids whose status is
// gone, discarded or expired are dropped.
func (f *Feed) Hydrate(ctx context.Context, ids []int64) ([]model.StatusSummary, error) {
	if len(ids) == 0 {
		return []model.StatusSummary{}, nil
	}
	found := make(map[int64]model.StatusSummary, len(ids))
	missing := f.fromCache(ctx, ids, found)

	if len(missing) > 0 {
		statuses, err := f.statuses.FindMany(ctx, missing)
		if err != nil {
			return nil, err
		}
		fresh := make([]model.StatusSummary, 0, len(statuses))
		for _, s := range statuses {
			sum := s.Summary()
			found[s.ID] = sum
			fresh = append(fresh, sum)
		}
		f.toCache(ctx, fresh)
	}

	res := make([]model.StatusSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := found[id]; ok {
			res = append(res, s)
		}
	}
	return res, nil
}

// Forget drops the cached rendering of a status.
func (f *Feed) Forget(ctx context.Context, ids ...int64) error {
	if f.cache == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	return f.cache.Del(ctx, keys...).Err()
}

func cacheKey(id int64) string { return cachePrefix + strconv.FormatInt(id, 10) }

func (f *Feed) fromCache(ctx context.Context, ids []int64, found map[int64]model.StatusSummary) []int64 {
	if f.cache == nil {
		return ids
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	vals, err := f.cache.MGet(ctx, keys...).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("feed: hydration cache read failed", zap.Error(err))
		}
		return ids
	}
	var missing []int64
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var s model.StatusSummary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = s
	}
	return missing
}

func (f *Feed) toCache(ctx context.Context, items []model.StatusSummary) {
	if f.cache == nil || len(items) == 0 {
		return
	}
	_, err := f.cache.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, s := range items {
			b, err := json.Marshal(s)
			if err != nil {
				continue
			}
			pipe.Set(ctx, cacheKey(s.ID), b, f.hydrationTTL)
		}
		return nil
	})
	if err != nil {
		logger.Warn("feed: hydration cache write failed", zap.Error(err))
	}
}
