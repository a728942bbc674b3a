package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/d60-Lab/timeline-fanout/config"
	"github.com/d60-Lab/timeline-fanout/internal/metrics"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/realtime"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/internal/visibility"
	"github.com/d60-Lab/timeline-fanout/pkg/logger"
	"github.com/d60-Lab/timeline-fanout/pkg/redis"
	"github.com/d60-Lab/timeline-fanout/pkg/snowflake"
)

const recipientPage = 500

// DeleteOptions 删除扇出选项
type DeleteOptions struct {
	// Immediate 扇出完成后物理删除内容
	Immediate bool `json:"immediate"`
	// OriginalRemoved 因原文被删而级联删除的转发，不发送删除事件
	OriginalRemoved bool `json:"original_removed"`
}

// Forgetter drops read-side renderings of statuses.
type Forgetter interface {
	Forget(ctx context.Context, ids ...int64) error
}

// FanoutEngine 把内容生命周期事件（发布、删除、过期）投递到各时间线
type FanoutEngine struct {
	statuses  repository.StatusRepository
	accounts  repository.AccountRepository
	rels      repository.RelationshipRepository
	store     timeline.Store
	oracle    visibility.Oracle
	publisher realtime.Publisher
	locks     goredis.UniversalClient
	cache     Forgetter
	cfg       config.FanoutConfig
	now       func() time.Time
}

func NewFanoutEngine(
	statuses repository.StatusRepository,
	accounts repository.AccountRepository,
	rels repository.RelationshipRepository,
	store timeline.Store,
	oracle visibility.Oracle,
	publisher realtime.Publisher,
	locks goredis.UniversalClient,
	cache Forgetter,
	cfg config.FanoutConfig,
) *FanoutEngine {
	if cfg.BroadcastCutoff <= 0 {
		cfg.BroadcastCutoff = 14 * 24 * time.Hour
	}
	if cfg.ActiveDuration <= 0 {
		cfg.ActiveDuration = 14 * 24 * time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &FanoutEngine{
		statuses:  statuses,
		accounts:  accounts,
		rels:      rels,
		store:     store,
		oracle:    oracle,
		publisher: publisher,
		locks:     locks,
		cache:     cache,
		cfg:       cfg,
		now:       time.Now,
	}
}

// OnPublish 投递一条新内容。已删除或已过期的内容直接忽略。
func (e *FanoutEngine) OnPublish(ctx context.Context, statusID int64) error {
	ctx, span := otel.Tracer("fanout").Start(ctx, "fanout.publish")
	span.SetAttributes(attribute.Int64("status.id", statusID))
	defer span.End()

	s, err := e.statuses.Find(ctx, statusID)
	if err != nil {
		return err
	}
	if s.Expired() || (s.IsReblog() && (s.Reblog == nil || s.Reblog.Discarded())) {
		return nil
	}

	personal, err := e.resolvePersonal(ctx, s, true)
	if err != nil {
		return err
	}

	var mutated []timeline.Scope
	for _, scope := range personal {
		added, err := e.store.Push(ctx, scope, s.ID)
		if err != nil {
			return err
		}
		if added {
			mutated = append(mutated, scope)
		}
	}

	broadcast := e.broadcastScopes(s)
	if len(broadcast) > 0 {
		added, err := e.store.PushMany(ctx, broadcast, s.ID)
		if err != nil {
			return err
		}
		for i, ok := range added {
			if ok {
				mutated = append(mutated, broadcast[i])
			}
		}
	}

	payload := s.Summary()
	msgs := make([]realtime.Message, 0, len(mutated))
	for _, scope := range mutated {
		metrics.ScopePushes.WithLabelValues(scope.Kind()).Inc()
		msgs = append(msgs, realtime.Message{Scope: scope, Event: realtime.Event{Event: realtime.EventUpdate, Payload: payload}})
	}
	e.publisher.Publish(ctx, msgs...)

	span.SetAttributes(attribute.Int("fanout.mutated", len(mutated)))
	logger.Debug("fanout: published",
		zap.Int64("status_id", s.ID),
		zap.Int("candidates", len(personal)+len(broadcast)),
		zap.Int("mutated", len(mutated)))
	return nil
}

// OnDelete 撤回一条内容：先级联删除其全部转发，再从所有投递过的时间线移除。
// 同一内容的并发删除返回 ErrRaceCondition。
func (e *FanoutEngine) OnDelete(ctx context.Context, statusID int64, opts DeleteOptions) error {
	ctx, span := otel.Tracer("fanout").Start(ctx, "fanout.delete")
	span.SetAttributes(attribute.Int64("status.id", statusID), attribute.Bool("delete.original_removed", opts.OriginalRemoved))
	defer span.End()

	lock, err := redis.Acquire(ctx, e.locks, "distribute:"+strconv.FormatInt(statusID, 10), e.cfg.LockTTL)
	if errors.Is(err, redis.ErrNotAcquired) {
		return fmt.Errorf("%w: status %d", ErrRaceCondition, statusID)
	}
	if err != nil {
		return fmt.Errorf("%w: lock: %v", timeline.ErrUnavailable, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("fanout: release lock", zap.Int64("status_id", statusID), zap.Error(err))
		}
	}()

	s, err := e.statuses.FindWithDiscarded(ctx, statusID)
	if err != nil {
		return err
	}
	if !s.Discarded() {
		if err := e.statuses.Discard(ctx, s.ID); err != nil {
			return err
		}
	}

	if err := e.deleteReblogs(ctx, s.ID, opts.Immediate); err != nil {
		return err
	}

	personal, err := e.resolvePersonal(ctx, s, false)
	if err != nil {
		return err
	}
	scopes := append(personal, e.broadcastScopes(s)...)
	removed, err := e.store.RemoveMany(ctx, scopes, s.ID)
	if err != nil {
		return err
	}

	var msgs []realtime.Message
	for i, ok := range removed {
		if !ok {
			continue
		}
		metrics.ScopeRemovals.WithLabelValues(scopes[i].Kind()).Inc()
		if !opts.OriginalRemoved {
			msgs = append(msgs, realtime.Message{
				Scope: scopes[i],
				Event: realtime.Event{Event: realtime.EventDelete, Payload: strconv.FormatInt(s.ID, 10)},
			})
		}
	}
	e.publisher.Publish(ctx, msgs...)

	if e.cache != nil {
		if err := e.cache.Forget(ctx, s.ID); err != nil {
			logger.Warn("fanout: forget cached status", zap.Int64("status_id", s.ID), zap.Error(err))
		}
	}
	if opts.Immediate {
		if err := e.statuses.Destroy(ctx, s.ID); err != nil {
			return err
		}
	}
	logger.Debug("fanout: deleted", zap.Int64("status_id", s.ID), zap.Int("events", len(msgs)))
	return nil
}

func (e *FanoutEngine) deleteReblogs(ctx context.Context, statusID int64, immediate bool) error {
	var after int64
	for {
		ids, err := e.statuses.ReblogIDs(ctx, statusID, after, recipientPage)
		if err != nil {
			return err
		}
		for _, id := range ids {
			err := e.OnDelete(ctx, id, DeleteOptions{Immediate: immediate, OriginalRemoved: true})
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
		if len(ids) < recipientPage {
			return nil
		}
		after = ids[len(ids)-1]
	}
}

// OnExpire 处理到期内容：delete 等同删除；mark 只标记过期并清理读侧缓存，
// 时间线条目保留。没有过期设置（已取消）或尚未到期时不做任何事。
func (e *FanoutEngine) OnExpire(ctx context.Context, statusID int64, action model.ExpireAction) error {
	s, err := e.statuses.Find(ctx, statusID)
	if err != nil {
		return err
	}
	now := e.now()
	if s.Expire == nil || s.Expire.ExpiresAt.After(now) {
		return nil
	}
	if action == model.ExpireDelete {
		return e.OnDelete(ctx, statusID, DeleteOptions{Immediate: true})
	}

	if err := e.statuses.MarkExpired(ctx, s.ID, now); err != nil {
		return err
	}
	if e.cache != nil {
		if err := e.cache.Forget(ctx, s.ID); err != nil {
			logger.Warn("fanout: forget cached status", zap.Int64("status_id", s.ID), zap.Error(err))
		}
	}
	var msgs []realtime.Message
	for _, scope := range e.broadcastScopes(s) {
		msgs = append(msgs, realtime.Message{
			Scope: scope,
			Event: realtime.Event{Event: realtime.EventExpire, Payload: strconv.FormatInt(s.ID, 10)},
		})
	}
	e.publisher.Publish(ctx, msgs...)
	return nil
}

// broadcastScopes 仅 public 原创内容、且未超过时间窗口时进入广播时间线
func (e *FanoutEngine) broadcastScopes(s *model.Status) []timeline.Scope {
	if s.IsReblog() || s.Visibility != model.VisibilityPublic || s.Account == nil {
		return nil
	}
	if s.ID <= snowflake.IDAt(e.now().Add(-e.cfg.BroadcastCutoff)) {
		return nil
	}
	local := s.Account.Local()

	scopes := []timeline.Scope{timeline.Public()}
	if local {
		scopes = append(scopes, timeline.PublicLocal())
	} else {
		scopes = append(scopes, timeline.PublicRemote(), timeline.PublicDomain(s.Account.Domain))
	}
	for _, tag := range s.TagNames() {
		scopes = append(scopes, timeline.Hashtag(tag))
		if local {
			scopes = append(scopes, timeline.HashtagLocal(tag))
		}
	}
	if s.Account.Group {
		scopes = append(scopes, timeline.Group(s.AccountID))
	}
	if s.HasMedia {
		for _, sc := range scopes {
			scopes = append(scopes, sc.Media())
		}
	}
	return scopes
}

// scopeSet 并发收集去重后的时间线
type scopeSet struct {
	mu     sync.Mutex
	seen   map[timeline.Scope]struct{}
	scopes []timeline.Scope
}

func (s *scopeSet) add(scope timeline.Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[scope]; ok {
		return
	}
	s.seen[scope] = struct{}{}
	s.scopes = append(s.scopes, scope)
}

// resolvePersonal 计算 home/list 接收方。filter=true 用于发布：应用关系上的
// 过滤条件和可见性判断；删除时返回全部候选，多删无害。
func (e *FanoutEngine) resolvePersonal(ctx context.Context, s *model.Status, filter bool) ([]timeline.Scope, error) {
	set := &scopeSet{seen: make(map[timeline.Scope]struct{})}
	if s.Local() {
		set.add(timeline.Home(s.AccountID))
	}

	activeSince := e.now().Add(-e.cfg.ActiveDuration)
	proper := s.Proper()

	if proper.Visibility == model.VisibilityLimited || proper.Visibility == model.VisibilityDirect {
		accounts, err := e.accounts.FindMany(ctx, proper.MentionedAccountIDs())
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			if a.ActiveSince(activeSince) {
				set.add(timeline.Home(a.ID))
			}
		}
		return set.scopes, nil
	}

	allowed := func(ctx context.Context, f deliveryFilter, viewerID int64) (bool, error) {
		if !filter {
			return true, nil
		}
		// 不把别人对自己内容的转发投递回自己
		if s.IsReblog() && proper.AccountID == viewerID {
			return false, nil
		}
		if !f.accepts(s) {
			return false, nil
		}
		hidden, err := e.oracle.Filtered(ctx, s, viewerID)
		return !hidden, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var after int64
		for {
			follows, err := e.rels.DeliveryFollowers(gctx, s.AccountID, activeSince, after, recipientPage)
			if err != nil {
				return err
			}
			for _, f := range follows {
				ok, err := allowed(gctx, filterFollow(f), f.AccountID)
				if err != nil {
					return err
				}
				if ok {
					set.add(timeline.Home(f.AccountID))
				}
			}
			if len(follows) < recipientPage {
				return nil
			}
			after = follows[len(follows)-1].ID
		}
	})
	for _, home := range []bool{true, false} {
		g.Go(func() error {
			var after int64
			for {
				subs, err := e.rels.Subscribers(gctx, s.AccountID, home, activeSince, after, recipientPage)
				if err != nil {
					return err
				}
				for _, sub := range subs {
					ok, err := allowed(gctx, filterSubscribe(sub), sub.AccountID)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
					if home {
						set.add(timeline.Home(sub.AccountID))
					} else {
						set.add(timeline.List(sub.ListID))
					}
				}
				if len(subs) < recipientPage {
					return nil
				}
				after = subs[len(subs)-1].ID
			}
		})
	}
	g.Go(func() error {
		var after int64
		for {
			lists, err := e.rels.ListsContaining(gctx, s.AccountID, activeSince, after, recipientPage)
			if err != nil {
				return err
			}
			for _, l := range lists {
				// 列表成员的转发一律投递，可见性仍以列表所有者判断
				ok, err := allowed(gctx, deliveryFilter{showReblogs: true}, l.AccountID)
				if err != nil {
					return err
				}
				if ok {
					set.add(timeline.List(l.ID))
				}
			}
			if len(lists) < recipientPage {
				return nil
			}
			after = lists[len(lists)-1].ID
		}
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.Sort(set.scopes)
	return set.scopes, nil
}
