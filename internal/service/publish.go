package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-fanout/internal/jobs"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/pkg/snowflake"
)

// StatusJob status.publish / status.delete 任务载荷
type StatusJob struct {
	StatusID int64 `json:"status_id,string"`
	DeleteOptions
}

// ExpireJob status.expire 任务载荷
type ExpireJob struct {
	StatusID int64              `json:"status_id,string"`
	Action   model.ExpireAction `json:"action"`
}

// CreateStatus 发布参数
type CreateStatus struct {
	AccountID  int64
	Text       string
	Visibility model.Visibility
	HasMedia   bool
	Tags       []string
	Mentions   []int64
	ExpiresAt  *time.Time
	// ExpireAction 默认 delete
	ExpireAction model.ExpireAction
}

// StatusService 负责事务内写内容 + outbox
type StatusService struct {
	db       *gorm.DB
	statuses repository.StatusRepository
	queue    *jobs.Queue
	ids      *snowflake.Generator
}

func NewStatusService(db *gorm.DB, statuses repository.StatusRepository, queue *jobs.Queue, ids *snowflake.Generator) *StatusService {
	return &StatusService{db: db, statuses: statuses, queue: queue, ids: ids}
}

// Create 在一个事务内落地内容、标签、提及、过期设置与发布任务
func (s *StatusService) Create(ctx context.Context, req CreateStatus) (*model.Status, error) {
	if req.Visibility == "" {
		req.Visibility = model.VisibilityPublic
	}
	if !req.Visibility.Valid() {
		return nil, ErrInvalidVisibility
	}
	if req.ExpireAction == "" {
		req.ExpireAction = model.ExpireDelete
	}

	st := &model.Status{
		ID:         s.ids.Next(),
		AccountID:  req.AccountID,
		Visibility: req.Visibility,
		HasMedia:   req.HasMedia,
		Text:       req.Text,
	}
	seen := make(map[string]bool)
	for _, t := range req.Tags {
		name := model.NormalizeTag(t)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		st.Tags = append(st.Tags, model.StatusTag{StatusID: st.ID, Name: name})
	}
	mentioned := make(map[int64]bool)
	for _, id := range req.Mentions {
		if mentioned[id] {
			continue
		}
		mentioned[id] = true
		st.Mentions = append(st.Mentions, model.Mention{StatusID: st.ID, AccountID: id})
	}
	if req.ExpiresAt != nil {
		st.Expire = &model.StatusExpire{StatusID: st.ID, ExpiresAt: *req.ExpiresAt, Action: req.ExpireAction}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(st).Error; err != nil {
			return err
		}
		if err := s.queue.EnqueueTx(tx, jobs.KindStatusPublish, StatusJob{StatusID: st.ID}); err != nil {
			return err
		}
		if st.Expire != nil {
			job := ExpireJob{StatusID: st.ID, Action: st.Expire.Action}
			return s.queue.EnqueueTxAt(tx, jobs.KindStatusExpire, job, st.Expire.ExpiresAt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Reblog 转发；重复转发返回已有的转发
func (s *StatusService) Reblog(ctx context.Context, accountID, statusID int64) (*model.Status, error) {
	orig, err := s.statuses.Find(ctx, statusID)
	if err != nil {
		return nil, err
	}
	proper := orig.Proper()
	switch proper.Visibility {
	case model.VisibilityPublic, model.VisibilityUnlisted:
	case model.VisibilityPrivate:
		if proper.AccountID != accountID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	existing, err := s.statuses.FindReblog(ctx, accountID, proper.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	reblogOf := proper.ID
	st := &model.Status{
		ID:         s.ids.Next(),
		AccountID:  accountID,
		Visibility: proper.Visibility,
		ReblogOfID: &reblogOf,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(st).Error; err != nil {
			return err
		}
		return s.queue.EnqueueTx(tx, jobs.KindStatusPublish, StatusJob{StatusID: st.ID})
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Delete 软删除内容并排队撤回扇出；读侧立即不可见
func (s *StatusService) Delete(ctx context.Context, accountID, statusID int64) error {
	st, err := s.statuses.Find(ctx, statusID)
	if err != nil {
		return err
	}
	if st.AccountID != accountID {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", statusID).Delete(&model.Status{}).Error; err != nil {
			return err
		}
		return s.queue.EnqueueTx(tx, jobs.KindStatusDelete, StatusJob{StatusID: statusID})
	})
}
