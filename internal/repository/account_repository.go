package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/timeline-fanout/internal/model"
)

type AccountRepository interface {
	Create(ctx context.Context, a *model.Account) error
	Find(ctx context.Context, id int64) (*model.Account, error)
	FindMany(ctx context.Context, ids []int64) ([]*model.Account, error)
	// Touch 刷新最近活跃时间，决定账号是否参与本地投递
	Touch(ctx context.Context, id int64, at time.Time) error
}

type accountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepository{db: db} }

func (r *accountRepository) Create(ctx context.Context, a *model.Account) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a).Error
}

func (r *accountRepository) Find(ctx context.Context, id int64) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *accountRepository) FindMany(ctx context.Context, ids []int64) ([]*model.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var res []*model.Account
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&res).Error
	return res, err
}

func (r *accountRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update("last_active_at", at).Error
}
