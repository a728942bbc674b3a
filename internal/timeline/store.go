package timeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every failure of the backing store. Callers must not
// treat an operation as applied when it is returned.
var ErrUnavailable = errors.New("timeline store unavailable")

// Range selects entries with Min < id < Max. Zero bounds are open.
type Range struct {
	Max       int64
	Min       int64
	Count     int
	Ascending bool
}

// Store is the timeline cache. Every mutation is idempotent per
// (scope, id).
type Store interface {
	Push(ctx context.Context, scope Scope, id int64) (bool, error)
	// PushMany pushes id into each scope in one round trip; added[i]
	// reports whether scopes[i] changed.
	PushMany(ctx context.Context, scopes []Scope, id int64) ([]bool, error)
	Remove(ctx context.Context, scope Scope, id int64) (bool, error)
	RemoveMany(ctx context.Context, scopes []Scope, id int64) ([]bool, error)
	// RemoveIDs drops several ids from one scope and returns how many were held.
	RemoveIDs(ctx context.Context, scope Scope, ids []int64) (int64, error)
	// Range lists ids within r, newest first unless r.Ascending. Bounds are
	// compared as exact integers, not redis scores.
	Range(ctx context.Context, scope Scope, r Range) ([]int64, error)
	// Oldest returns the lowest score held by scope.
	Oldest(ctx context.Context, scope Scope) (int64, bool, error)
	Len(ctx context.Context, scope Scope) (int64, error)
	Clear(ctx context.Context, scope Scope) error
	// Cap is the maximum number of entries retained for scope.
	Cap(scope Scope) int
}

type RedisStore struct {
	client           redis.UniversalClient
	maxItems         int
	personalMaxItems int
}

func NewRedisStore(client redis.UniversalClient, maxItems, personalMaxItems int) *RedisStore {
	if maxItems <= 0 {
		maxItems = 400
	}
	if personalMaxItems <= 0 {
		personalMaxItems = maxItems
	}
	return &RedisStore{client: client, maxItems: maxItems, personalMaxItems: personalMaxItems}
}

func (s *RedisStore) Cap(scope Scope) int {
	if scope.Personal() {
		return s.personalMaxItems
	}
	return s.maxItems
}

type pushCmds struct {
	add   *redis.IntCmd
	score *redis.FloatCmd
}

func (s *RedisStore) queuePush(ctx context.Context, pipe redis.Pipeliner, scope Scope, id int64) pushCmds {
	key := scope.Key()
	member := strconv.FormatInt(id, 10)
	c := pushCmds{add: pipe.ZAddNX(ctx, key, redis.Z{Score: float64(id), Member: member})}
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-s.Cap(scope)-1))
	c.score = pipe.ZScore(ctx, key, member)
	return c
}

func (c pushCmds) added() bool {
	if c.add.Val() != 1 {
		return false
	}
	// trimmed straight away when older than everything in a full scope
	return c.score.Err() == nil
}

func (s *RedisStore) Push(ctx context.Context, scope Scope, id int64) (bool, error) {
	added, err := s.PushMany(ctx, []Scope{scope}, id)
	if err != nil {
		return false, err
	}
	return added[0], nil
}

func (s *RedisStore) PushMany(ctx context.Context, scopes []Scope, id int64) ([]bool, error) {
	if len(scopes) == 0 {
		return nil, nil
	}
	cmds := make([]pushCmds, len(scopes))
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, scope := range scopes {
			cmds[i] = s.queuePush(ctx, pipe, scope, id)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: push %d: %v", ErrUnavailable, id, err)
	}
	added := make([]bool, len(scopes))
	for i, c := range cmds {
		added[i] = c.added()
	}
	return added, nil
}

func (s *RedisStore) Remove(ctx context.Context, scope Scope, id int64) (bool, error) {
	removed, err := s.RemoveMany(ctx, []Scope{scope}, id)
	if err != nil {
		return false, err
	}
	return removed[0], nil
}

func (s *RedisStore) RemoveMany(ctx context.Context, scopes []Scope, id int64) ([]bool, error) {
	if len(scopes) == 0 {
		return nil, nil
	}
	member := strconv.FormatInt(id, 10)
	cmds := make([]*redis.IntCmd, len(scopes))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, scope := range scopes {
			cmds[i] = pipe.ZRem(ctx, scope.Key(), member)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: remove %d: %v", ErrUnavailable, id, err)
	}
	removed := make([]bool, len(scopes))
	for i, c := range cmds {
		removed[i] = c.Val() > 0
	}
	return removed, nil
}

func (s *RedisStore) RemoveIDs(ctx context.Context, scope Scope, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = strconv.FormatInt(id, 10)
	}
	n, err := s.client.ZRem(ctx, scope.Key(), members...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: remove ids %s: %v", ErrUnavailable, scope, err)
	}
	return n, nil
}

const scoreSlack = 64

func bound(v int64, open string) string {
	if v == 0 {
		return open
	}
	return strconv.FormatInt(v, 10)
}

// Range 返回 r 内的 id，默认从新到旧。
//
// redis 分数是 float64，雪花 id 在 2^56~2^58 之间时相邻 16~64 个 id 会落在
// 同一个分数上，按分数开区间会漏掉与游标同分的条目。所以按闭区间多取
// scoreSlack 条，再用整数精确比较去掉边界，排序后截断到 r.Count。
func (s *RedisStore) Range(ctx context.Context, scope Scope, r Range) ([]int64, error) {
	opt := &redis.ZRangeBy{
		Max: bound(r.Max, "+inf"),
		Min: bound(r.Min, "-inf"),
	}
	if r.Count > 0 {
		opt.Count = int64(r.Count + scoreSlack)
	}
	var (
		members []string
		err     error
	)
	if r.Ascending {
		members, err = s.client.ZRangeByScore(ctx, scope.Key(), opt).Result()
	} else {
		members, err = s.client.ZRevRangeByScore(ctx, scope.Key(), opt).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: range %s: %v", ErrUnavailable, scope, err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		if (r.Max != 0 && id >= r.Max) || (r.Min != 0 && id <= r.Min) {
			continue
		}
		ids = append(ids, id)
	}
	if r.Ascending {
		slices.Sort(ids)
	} else {
		slices.SortFunc(ids, func(a, b int64) int { return cmp.Compare(b, a) })
	}
	if r.Count > 0 && len(ids) > r.Count {
		ids = ids[:r.Count]
	}
	return ids, nil
}

func (s *RedisStore) Oldest(ctx context.Context, scope Scope) (int64, bool, error) {
	zs, err := s.client.ZRangeWithScores(ctx, scope.Key(), 0, 0).Result()
	if err != nil {
		return 0, false, fmt.Errorf("%w: oldest %s: %v", ErrUnavailable, scope, err)
	}
	if len(zs) == 0 {
		return 0, false, nil
	}
	// scores are float64 and lose precision above 2^53; the member is exact
	member, _ := zs[0].Member.(string)
	id, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		return int64(zs[0].Score), true, nil
	}
	return id, true, nil
}

func (s *RedisStore) Len(ctx context.Context, scope Scope) (int64, error) {
	n, err := s.client.ZCard(ctx, scope.Key()).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: len %s: %v", ErrUnavailable, scope, err)
	}
	return n, nil
}

func (s *RedisStore) Clear(ctx context.Context, scope Scope) error {
	if err := s.client.Del(ctx, scope.Key()).Err(); err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrUnavailable, scope, err)
	}
	return nil
}
