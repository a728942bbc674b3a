package service

import (
	"context"
	"errors"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/timeline-fanout/config"
	"github.com/d60-Lab/timeline-fanout/internal/metrics"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/internal/visibility"
	"github.com/d60-Lab/timeline-fanout/pkg/logger"
)

// Reconciler 关系变化时批量回填或清理某个账号在 home/list 中的内容
type Reconciler struct {
	statuses repository.StatusRepository
	accounts repository.AccountRepository
	rels     repository.RelationshipRepository
	store    timeline.Store
	oracle   visibility.Oracle
	limiter  *rate.Limiter
	batch    int
}

func NewReconciler(
	statuses repository.StatusRepository,
	accounts repository.AccountRepository,
	rels repository.RelationshipRepository,
	store timeline.Store,
	oracle visibility.Oracle,
	cfg config.FanoutConfig,
) *Reconciler {
	limit := rate.Inf
	if cfg.MergeRate > 0 {
		limit = rate.Limit(cfg.MergeRate)
	}
	batch := cfg.MergeBatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Reconciler{
		statuses: statuses,
		accounts: accounts,
		rels:     rels,
		store:    store,
		oracle:   oracle,
		limiter:  rate.NewLimiter(limit, 1),
		batch:    batch,
	}
}

func intoScope(intoID, listID int64) timeline.Scope {
	if listID != 0 {
		return timeline.List(listID)
	}
	return timeline.Home(intoID)
}

// governing 返回当前仍能导致 from → into(listID) 投递的过滤条件；ok=false 表示没有这样的关系
func (r *Reconciler) governing(ctx context.Context, fromID, intoID, listID int64) (deliveryFilter, bool, error) {
	if listID == 0 && fromID == intoID {
		return deliveryFilter{showReblogs: true}, true, nil
	}
	var (
		f     deliveryFilter
		found bool
	)
	use := func(o deliveryFilter) {
		if found {
			f = f.merge(o)
		} else {
			f, found = o, true
		}
	}

	if listID == 0 {
		follow, err := r.rels.FindFollow(ctx, intoID, fromID)
		switch {
		case err == nil:
			if follow.Delivery {
				use(filterFollow(follow))
			}
		case !errors.Is(err, repository.ErrNotFound):
			return f, false, err
		}
	} else {
		member, err := r.rels.IsListMember(ctx, listID, fromID)
		if err != nil {
			return f, false, err
		}
		if member {
			use(deliveryFilter{showReblogs: true})
		}
	}

	sub, err := r.rels.FindSubscribe(ctx, intoID, fromID, listID)
	switch {
	case err == nil:
		use(filterSubscribe(sub))
	case !errors.Is(err, repository.ErrNotFound):
		return f, false, err
	}
	return f, found, nil
}

// MergeHome 把 from 最近的内容回填到 into 的 home（listID 非 0 时为该列表）。
// 已存在的条目保持不变；过滤条件与实时投递一致。
func (r *Reconciler) MergeHome(ctx context.Context, fromID, intoID, listID int64) error {
	ctx, span := otel.Tracer("reconciler").Start(ctx, "reconciler.merge")
	span.SetAttributes(attribute.Int64("from", fromID), attribute.Int64("into", intoID), attribute.Int64("list", listID))
	defer span.End()

	if _, err := r.accounts.Find(ctx, intoID); err != nil {
		return err
	}
	if listID != 0 {
		l, err := r.rels.FindList(ctx, listID)
		if err != nil {
			return err
		}
		if l.AccountID != intoID {
			return repository.ErrNotFound
		}
	}
	filter, ok, err := r.governing(ctx, fromID, intoID, listID)
	if err != nil || !ok {
		return err
	}

	scope := intoScope(intoID, listID)
	limit := r.store.Cap(scope)
	size, err := r.store.Len(ctx, scope)
	if err != nil {
		return err
	}
	oldest, _, err := r.store.Oldest(ctx, scope)
	if err != nil {
		return err
	}
	full := size >= int64(limit)

	var (
		maxID    int64
		examined int
		pushed   int
	)
	for examined < limit {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		page, err := r.statuses.ListByAccount(ctx, fromID, maxID, r.batch)
		if err != nil {
			return err
		}
		for _, s := range page {
			// 满的时间线里比最旧条目还旧的内容会被立即裁掉
			if examined >= limit || (full && s.ID < oldest) {
				examined = limit
				break
			}
			examined++
			if s.IsReblog() && s.Proper().AccountID == intoID {
				continue
			}
			if !filter.accepts(s) {
				continue
			}
			hidden, err := r.oracle.Filtered(ctx, s, intoID)
			if err != nil {
				return err
			}
			if hidden {
				continue
			}
			added, err := r.store.Push(ctx, scope, s.ID)
			if err != nil {
				return err
			}
			if added {
				pushed++
			}
		}
		if len(page) < r.batch {
			break
		}
		maxID = page[len(page)-1].ID
	}

	metrics.ScopePushes.WithLabelValues(scope.Kind()).Add(float64(pushed))
	logger.Debug("reconciler: merged",
		zap.Int64("from", fromID),
		zap.String("scope", scope.String()),
		zap.Int("examined", examined),
		zap.Int("pushed", pushed))
	return nil
}

// UnmergeHome 从 into 的 home（或列表）中移除 from 不应再出现的内容。没有关系
// 支撑时全部移除；仍有关注、订阅或列表成员时按剩余关系的过滤条件重新筛选。
// 提及 into 的 limited/direct 内容不属于关系投递，留在 home 中。
func (r *Reconciler) UnmergeHome(ctx context.Context, fromID, intoID, listID int64) error {
	ctx, span := otel.Tracer("reconciler").Start(ctx, "reconciler.unmerge")
	span.SetAttributes(attribute.Int64("from", fromID), attribute.Int64("into", intoID), attribute.Int64("list", listID))
	defer span.End()

	filter, governed, err := r.governing(ctx, fromID, intoID, listID)
	if err != nil {
		return err
	}
	if governed && filter == (deliveryFilter{showReblogs: true}) {
		logger.Debug("reconciler: unmerge skipped, another edge remains",
			zap.Int64("from", fromID), zap.Int64("into", intoID), zap.Int64("list", listID))
		return nil
	}

	scope := intoScope(intoID, listID)
	oldest, ok, err := r.store.Oldest(ctx, scope)
	if err != nil || !ok {
		return err
	}

	var removed int64
	after := oldest - 1
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		page, err := r.statuses.ListByAccountAfter(ctx, fromID, after, r.batch)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(page))
		for _, s := range page {
			if !retained(s, filter, governed, intoID, listID) {
				ids = append(ids, s.ID)
			}
		}
		n, err := r.store.RemoveIDs(ctx, scope, ids)
		if err != nil {
			return err
		}
		removed += n
		if len(page) < r.batch {
			break
		}
		after = page[len(page)-1].ID
	}

	metrics.ScopeRemovals.WithLabelValues(scope.Kind()).Add(float64(removed))
	logger.Debug("reconciler: unmerged",
		zap.Int64("from", fromID), zap.String("scope", scope.String()), zap.Int64("removed", removed))
	return nil
}

// retained 判断 from 的内容在 unmerge 之后是否仍留在 into 的时间线
func retained(s *model.Status, filter deliveryFilter, governed bool, intoID, listID int64) bool {
	if s.Discarded() || s.Expired() {
		return false
	}
	if listID == 0 && !s.IsReblog() &&
		(s.Visibility == model.VisibilityLimited || s.Visibility == model.VisibilityDirect) &&
		slices.Contains(s.MentionedAccountIDs(), intoID) {
		return true
	}
	return governed && filter.accepts(s)
}

// ClearList 列表删除后清空其时间线
func (r *Reconciler) ClearList(ctx context.Context, listID int64) error {
	return r.store.Clear(ctx, timeline.List(listID))
}

// RegenerateHome 为长时间未活跃后回来的账号重建 home：合并其全部投递关注和 home 订阅
func (r *Reconciler) RegenerateHome(ctx context.Context, accountID int64) error {
	const pageSize = 200
	for offset := 0; ; offset += pageSize {
		follows, err := r.rels.ListFollowings(ctx, accountID, offset, pageSize)
		if err != nil {
			return err
		}
		for _, f := range follows {
			if !f.Delivery {
				continue
			}
			if err := ignoreNotFound(r.MergeHome(ctx, f.TargetAccountID, accountID, 0)); err != nil {
				return err
			}
		}
		if len(follows) < pageSize {
			break
		}
	}
	var after int64
	for {
		subs, err := r.rels.HomeSubscriptions(ctx, accountID, after, pageSize)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if err := ignoreNotFound(r.MergeHome(ctx, sub.TargetAccountID, accountID, 0)); err != nil {
				return err
			}
		}
		if len(subs) < pageSize {
			break
		}
		after = subs[len(subs)-1].ID
	}
	return r.MergeHome(ctx, accountID, accountID, 0)
}

// OnRelationshipCreated 新关系建立后回填
func (r *Reconciler) OnRelationshipCreated(ctx context.Context, edge Edge) error {
	if edge.Kind == EdgeFollow && !edge.Delivery {
		return nil
	}
	return ignoreNotFound(r.MergeHome(ctx, edge.TargetAccountID, edge.AccountID, edge.ListID))
}

// OnRelationshipRemoved 关系解除后清理
func (r *Reconciler) OnRelationshipRemoved(ctx context.Context, edge Edge) error {
	return ignoreNotFound(r.UnmergeHome(ctx, edge.TargetAccountID, edge.AccountID, edge.ListID))
}

func ignoreNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}
