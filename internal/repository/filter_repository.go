package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-fanout/internal/model"
)

// FilterRepository 屏蔽、静音、域名屏蔽查询
type FilterRepository interface {
	// Blocking 任意一方屏蔽了另一方
	Blocking(ctx context.Context, a, b int64) (bool, error)
	Muting(ctx context.Context, accountID, targetID int64) (bool, error)
	DomainBlocking(ctx context.Context, accountID int64, domain string) (bool, error)

	Block(ctx context.Context, accountID, targetID int64) error
	Mute(ctx context.Context, accountID, targetID int64) error
	BlockDomain(ctx context.Context, accountID int64, domain string) error
}

type filterRepository struct{ db *gorm.DB }

func NewFilterRepository(db *gorm.DB) FilterRepository { return &filterRepository{db: db} }

func (r *filterRepository) exists(ctx context.Context, m any, query string, args ...any) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(m).Where(query, args...).Limit(1).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *filterRepository) Blocking(ctx context.Context, a, b int64) (bool, error) {
	return r.exists(ctx, &model.Block{},
		"(account_id = ? AND target_account_id = ?) OR (account_id = ? AND target_account_id = ?)", a, b, b, a)
}

func (r *filterRepository) Muting(ctx context.Context, accountID, targetID int64) (bool, error) {
	return r.exists(ctx, &model.Mute{}, "account_id = ? AND target_account_id = ?", accountID, targetID)
}

func (r *filterRepository) DomainBlocking(ctx context.Context, accountID int64, domain string) (bool, error) {
	if domain == "" {
		return false, nil
	}
	return r.exists(ctx, &model.AccountDomainBlock{}, "account_id = ? AND domain = ?", accountID, domain)
}

func (r *filterRepository) Block(ctx context.Context, accountID, targetID int64) error {
	return r.db.WithContext(ctx).Create(&model.Block{AccountID: accountID, TargetAccountID: targetID}).Error
}

func (r *filterRepository) Mute(ctx context.Context, accountID, targetID int64) error {
	return r.db.WithContext(ctx).Create(&model.Mute{AccountID: accountID, TargetAccountID: targetID}).Error
}

func (r *filterRepository) BlockDomain(ctx context.Context, accountID int64, domain string) error {
	return r.db.WithContext(ctx).Create(&model.AccountDomainBlock{AccountID: accountID, Domain: domain}).Error
}
