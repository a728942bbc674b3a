package service

import (
	"context"
	"time"

	"github.com/d60-Lab/timeline-fanout/internal/jobs"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/pkg/snowflake"
)

// AccountService 账号注册与活跃度维护
type AccountService struct {
	accounts       repository.AccountRepository
	queue          *jobs.Queue
	ids            *snowflake.Generator
	activeDuration time.Duration
	now            func() time.Time
}

func NewAccountService(accounts repository.AccountRepository, queue *jobs.Queue, ids *snowflake.Generator, activeDuration time.Duration) *AccountService {
	return &AccountService{accounts: accounts, queue: queue, ids: ids, activeDuration: activeDuration, now: time.Now}
}

func (s *AccountService) Register(ctx context.Context, username, domain string, group bool) (*model.Account, error) {
	a := &model.Account{
		ID:           s.ids.Next(),
		Username:     username,
		Domain:       domain,
		Group:        group,
		LastActiveAt: s.now(),
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Touch 刷新活跃时间。账号从不活跃状态回来时，它的 home 没有收到投递，
// 排队重建。
func (s *AccountService) Touch(ctx context.Context, accountID int64) error {
	a, err := s.accounts.Find(ctx, accountID)
	if err != nil {
		return err
	}
	now := s.now()
	if now.Sub(a.LastActiveAt) < time.Minute {
		return nil
	}
	if err := s.accounts.Touch(ctx, accountID, now); err != nil {
		return err
	}
	if a.Local() && !a.ActiveSince(now.Add(-s.activeDuration)) {
		return s.queue.Enqueue(ctx, jobs.KindHomeRegenerate, AccountJob{AccountID: accountID})
	}
	return nil
}
