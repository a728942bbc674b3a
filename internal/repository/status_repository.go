package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-fanout/internal/model"
)

// StatusRepository 内容读写
type StatusRepository interface {
	// Find 查询未删除的内容，并预加载作者、原文、标签、提及与过期设置
	Find(ctx context.Context, id int64) (*model.Status, error)
	// FindWithDiscarded 同 Find，但包含已软删除的内容
	FindWithDiscarded(ctx context.Context, id int64) (*model.Status, error)
	// FindMany 批量查询可展示的内容（排除已删除与已过期）
	FindMany(ctx context.Context, ids []int64) ([]*model.Status, error)
	// ReblogIDs 按 id 升序分页列出转发了 statusID 的内容
	ReblogIDs(ctx context.Context, statusID, afterID int64, limit int) ([]int64, error)
	// ListByAccount 按 id 倒序分页列出作者可展示的内容，maxID 为 0 表示从最新开始
	ListByAccount(ctx context.Context, accountID, maxID int64, limit int) ([]*model.Status, error)
	// ListByAccountAfter 按 id 升序列出作者 id > afterID 的全部内容（含已删除、已过期），
	// 只预加载原文与提及
	ListByAccountAfter(ctx context.Context, accountID, afterID int64, limit int) ([]*model.Status, error)
	Discard(ctx context.Context, id int64) error
	// Destroy 物理删除内容及其标签、提及、过期设置
	Destroy(ctx context.Context, id int64) error
	// MarkExpired 设置 expired_at 并删除过期设置
	MarkExpired(ctx context.Context, id int64, at time.Time) error
	// FindReblog 查找 accountID 对 statusID 的转发
	FindReblog(ctx context.Context, accountID, statusID int64) (*model.Status, error)
}

type statusRepository struct{ db *gorm.DB }

func NewStatusRepository(db *gorm.DB) StatusRepository { return &statusRepository{db: db} }

func (r *statusRepository) preload(q *gorm.DB) *gorm.DB {
	return q.Preload("Account").
		Preload("Reblog", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Reblog.Account").
		Preload("Reblog.Tags").
		Preload("Tags").
		Preload("Mentions").
		Preload("Expire")
}

func (r *statusRepository) Find(ctx context.Context, id int64) (*model.Status, error) {
	var s model.Status
	if err := r.preload(r.db.WithContext(ctx)).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *statusRepository) FindWithDiscarded(ctx context.Context, id int64) (*model.Status, error) {
	var s model.Status
	if err := r.preload(r.db.WithContext(ctx).Unscoped()).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *statusRepository) FindMany(ctx context.Context, ids []int64) ([]*model.Status, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var res []*model.Status
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("id IN ? AND expired_at IS NULL", ids).
		Find(&res).Error
	return res, err
}

func (r *statusRepository) ReblogIDs(ctx context.Context, statusID, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Unscoped().
		Model(&model.Status{}).
		Where("reblog_of_id = ? AND id > ?", statusID, afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *statusRepository) ListByAccount(ctx context.Context, accountID, maxID int64, limit int) ([]*model.Status, error) {
	q := r.db.WithContext(ctx).
		Preload("Account").
		Preload("Mentions").
		Preload("Reblog", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Reblog.Account").
		Where("account_id = ? AND expired_at IS NULL", accountID)
	if maxID > 0 {
		q = q.Where("id < ?", maxID)
	}
	var res []*model.Status
	err := q.Order("id DESC").Limit(limit).Find(&res).Error
	return res, err
}

func (r *statusRepository) ListByAccountAfter(ctx context.Context, accountID, afterID int64, limit int) ([]*model.Status, error) {
	var res []*model.Status
	err := r.db.WithContext(ctx).Unscoped().
		Preload("Mentions").
		Preload("Reblog", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("account_id = ? AND id > ?", accountID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *statusRepository) Discard(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Status{}).Error
}

func (r *statusRepository) Destroy(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status_id = ?", id).Delete(&model.StatusTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("status_id = ?", id).Delete(&model.Mention{}).Error; err != nil {
			return err
		}
		if err := tx.Where("status_id = ?", id).Delete(&model.StatusExpire{}).Error; err != nil {
			return err
		}
		if err := tx.Where("status_id = ?", id).Delete(&model.EmojiReaction{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id = ?", id).Delete(&model.Status{}).Error
	})
}

func (r *statusRepository) MarkExpired(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Status{}).Where("id = ?", id).Update("expired_at", at).Error; err != nil {
			return err
		}
		return tx.Where("status_id = ?", id).Delete(&model.StatusExpire{}).Error
	})
}

func (r *statusRepository) FindReblog(ctx context.Context, accountID, statusID int64) (*model.Status, error) {
	var s model.Status
	if err := r.db.WithContext(ctx).Where("account_id = ? AND reblog_of_id = ?", accountID, statusID).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}
