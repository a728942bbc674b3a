package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/d60-Lab/timeline-fanout/internal/jobs"
)

// AccountJob home.regenerate 任务载荷
type AccountJob struct {
	AccountID int64 `json:"account_id,string"`
}

// RegisterHandlers 把各类任务接到扇出、回填与回应统计上。内容或账号在入队后
// 已消失时任务视为成功。
func RegisterHandlers(w *jobs.Worker, engine *FanoutEngine, reconciler *Reconciler, aggregator *Aggregator) {
	w.Handle(jobs.KindStatusPublish, decode(func(ctx context.Context, j StatusJob) error {
		return engine.OnPublish(ctx, j.StatusID)
	}))
	w.Handle(jobs.KindStatusDelete, decode(func(ctx context.Context, j StatusJob) error {
		return engine.OnDelete(ctx, j.StatusID, j.DeleteOptions)
	}))
	w.Handle(jobs.KindStatusExpire, decode(func(ctx context.Context, j ExpireJob) error {
		return engine.OnExpire(ctx, j.StatusID, j.Action)
	}))
	w.Handle(jobs.KindReactionPublish, decode(func(ctx context.Context, j ReactionJob) error {
		return aggregator.Apply(ctx, j.StatusID, j.Identity)
	}))
	w.Handle(jobs.KindRelationshipCreated, decode(reconciler.OnRelationshipCreated))
	w.Handle(jobs.KindRelationshipRemoved, decode(reconciler.OnRelationshipRemoved))
	w.Handle(jobs.KindListCleared, decode(func(ctx context.Context, j ListJob) error {
		return reconciler.ClearList(ctx, j.ListID)
	}))
	w.Handle(jobs.KindHomeRegenerate, decode(func(ctx context.Context, j AccountJob) error {
		return reconciler.RegenerateHome(ctx, j.AccountID)
	}))
}

func decode[T any](fn func(context.Context, T) error) jobs.Handler {
	return func(ctx context.Context, payload []byte) error {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return ignoreNotFound(fn(ctx, v))
	}
}
