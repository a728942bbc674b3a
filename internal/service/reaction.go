package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-fanout/internal/jobs"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/realtime"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/pkg/logger"
)

// ReactionJob reaction.publish 任务载荷
type ReactionJob struct {
	StatusID int64                  `json:"status_id,string"`
	Identity model.ReactionIdentity `json:"identity"`
}

// ReactionService 表情回应的增删
type ReactionService struct {
	statuses  repository.StatusRepository
	reactions repository.ReactionRepository
	queue     *jobs.Queue
}

func NewReactionService(statuses repository.StatusRepository, reactions repository.ReactionRepository, queue *jobs.Queue) *ReactionService {
	return &ReactionService{statuses: statuses, reactions: reactions, queue: queue}
}

// Change 添加或撤销回应。对转发的回应记在原文上。重复添加是成功的空操作；
// 撤销不存在的回应返回 ErrNotReacted。
func (s *ReactionService) Change(ctx context.Context, statusID int64, identity model.ReactionIdentity, accountID int64, added bool) error {
	identity.Name = strings.TrimSpace(identity.Name)
	if identity.Name == "" {
		return ErrInvalidName
	}
	st, err := s.statuses.Find(ctx, statusID)
	if err != nil {
		return err
	}
	target := st.Proper().ID

	if added {
		created, err := s.reactions.Create(ctx, &model.EmojiReaction{
			AccountID:     accountID,
			StatusID:      target,
			Name:          identity.Name,
			CustomEmojiID: identity.CustomEmojiID,
			Domain:        identity.Domain,
		})
		if err != nil || !created {
			return err
		}
	} else {
		deleted, err := s.reactions.Delete(ctx, accountID, target, identity)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotReacted
		}
	}
	return s.queue.Enqueue(ctx, jobs.KindReactionPublish, ReactionJob{StatusID: target, Identity: identity})
}

// Aggregates 内容上全部回应的统计，Me 相对 viewerID（0 表示匿名）
func (s *ReactionService) Aggregates(ctx context.Context, statusID, viewerID int64) ([]model.ReactionAggregate, error) {
	st, err := s.statuses.Find(ctx, statusID)
	if err != nil {
		return nil, err
	}
	return s.reactions.Aggregates(ctx, st.Proper().ID, viewerID)
}

// Aggregator 重新统计回应数量并推送给在线的 home 连接
type Aggregator struct {
	reactions repository.ReactionRepository
	publisher realtime.Publisher
}

func NewAggregator(reactions repository.ReactionRepository, publisher realtime.Publisher) *Aggregator {
	return &Aggregator{reactions: reactions, publisher: publisher}
}

func (a *Aggregator) Apply(ctx context.Context, statusID int64, identity model.ReactionIdentity) error {
	count, err := a.reactions.Count(ctx, statusID, identity)
	if err != nil {
		return err
	}
	live, err := a.publisher.LiveScopes(ctx, "home:")
	if err != nil {
		// 推送是尽力而为的
		logger.Warn("reactions: list live scopes", zap.Error(err))
		return nil
	}
	payload := model.ReactionAggregate{
		StatusID:      statusID,
		Name:          identity.Name,
		CustomEmojiID: identity.CustomEmojiID,
		Domain:        identity.Domain,
		Count:         count,
	}
	msgs := make([]realtime.Message, 0, len(live))
	for _, scope := range live {
		msgs = append(msgs, realtime.Message{
			Scope: scope,
			Event: realtime.Event{Event: realtime.EventEmojiReaction, Payload: payload},
		})
	}
	a.publisher.Publish(ctx, msgs...)
	return nil
}
