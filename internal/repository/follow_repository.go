package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/timeline-fanout/internal/model"
)

// RelationshipRepository 关系链：关注、订阅、列表成员
type RelationshipRepository interface {
	// Follow 建立或更新关注；重复关注只更新标志位
	Follow(ctx context.Context, f *model.Follow) error
	Unfollow(ctx context.Context, accountID, targetID int64) (bool, error)
	FindFollow(ctx context.Context, accountID, targetID int64) (*model.Follow, error)
	// DeliveryFollowers 按 follows.id 升序分页列出 targetID 的本地、近期活跃、需要投递的粉丝
	DeliveryFollowers(ctx context.Context, targetID int64, activeSince time.Time, afterID int64, limit int) ([]*model.Follow, error)
	ListFollowings(ctx context.Context, accountID int64, offset, limit int) ([]*model.Follow, error)
	ListFollowers(ctx context.Context, targetID int64, offset, limit int) ([]*model.Follow, error)

	Subscribe(ctx context.Context, s *model.AccountSubscribe) error
	Unsubscribe(ctx context.Context, accountID, targetID, listID int64) (bool, error)
	FindSubscribe(ctx context.Context, accountID, targetID, listID int64) (*model.AccountSubscribe, error)
	// HomeSubscriptions 按 id 升序分页列出 accountID 投递到 home 的订阅
	HomeSubscriptions(ctx context.Context, accountID, afterID int64, limit int) ([]*model.AccountSubscribe, error)
	// Subscribers 分页列出订阅 targetID 的记录；home=true 取投递到 home 的，否则取投递到列表的
	Subscribers(ctx context.Context, targetID int64, home bool, activeSince time.Time, afterID int64, limit int) ([]*model.AccountSubscribe, error)

	CreateList(ctx context.Context, l *model.List) error
	FindList(ctx context.Context, id int64) (*model.List, error)
	// DeleteList 删除列表及其成员、订阅
	DeleteList(ctx context.Context, id int64) error
	AddListMember(ctx context.Context, listID, accountID int64) error
	RemoveListMember(ctx context.Context, listID, accountID int64) (bool, error)
	IsListMember(ctx context.Context, listID, accountID int64) (bool, error)
	// ListsContaining 分页列出包含 memberID、且所有者近期活跃的列表
	ListsContaining(ctx context.Context, memberID int64, activeSince time.Time, afterID int64, limit int) ([]*model.List, error)
}

type relationshipRepository struct {
	db *gorm.DB
}

func NewRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

func (r *relationshipRepository) Follow(ctx context.Context, f *model.Follow) error {
	// 幂等：重复关注只刷新标志位
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "target_account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"show_reblogs", "notify", "delivery", "updated_at"}),
	}).Create(f).Error
}

func (r *relationshipRepository) Unfollow(ctx context.Context, accountID, targetID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("account_id = ? AND target_account_id = ?", accountID, targetID).
		Delete(&model.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *relationshipRepository) FindFollow(ctx context.Context, accountID, targetID int64) (*model.Follow, error) {
	var f model.Follow
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND target_account_id = ?", accountID, targetID).
		First(&f).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *relationshipRepository) DeliveryFollowers(ctx context.Context, targetID int64, activeSince time.Time, afterID int64, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Joins("JOIN accounts ON accounts.id = follows.account_id").
		Where("follows.target_account_id = ? AND follows.delivery = ? AND follows.id > ?", targetID, true, afterID).
		Where("accounts.domain = '' AND accounts.last_active_at > ?", activeSince).
		Order("follows.id ASC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *relationshipRepository) ListFollowings(ctx context.Context, accountID int64, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("id DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *relationshipRepository) ListFollowers(ctx context.Context, targetID int64, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).Where("target_account_id = ?", targetID).Order("id DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *relationshipRepository) Subscribe(ctx context.Context, s *model.AccountSubscribe) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "target_account_id"}, {Name: "list_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"show_reblogs", "media_only", "updated_at"}),
	}).Create(s).Error
}

func (r *relationshipRepository) Unsubscribe(ctx context.Context, accountID, targetID, listID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("account_id = ? AND target_account_id = ? AND list_id = ?", accountID, targetID, listID).
		Delete(&model.AccountSubscribe{})
	return res.RowsAffected > 0, res.Error
}

func (r *relationshipRepository) FindSubscribe(ctx context.Context, accountID, targetID, listID int64) (*model.AccountSubscribe, error) {
	var s model.AccountSubscribe
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND target_account_id = ? AND list_id = ?", accountID, targetID, listID).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *relationshipRepository) HomeSubscriptions(ctx context.Context, accountID, afterID int64, limit int) ([]*model.AccountSubscribe, error) {
	var res []*model.AccountSubscribe
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND list_id = 0 AND id > ?", accountID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *relationshipRepository) Subscribers(ctx context.Context, targetID int64, home bool, activeSince time.Time, afterID int64, limit int) ([]*model.AccountSubscribe, error) {
	q := r.db.WithContext(ctx).
		Where("account_subscribes.target_account_id = ? AND account_subscribes.id > ?", targetID, afterID)
	if home {
		q = q.Joins("JOIN accounts ON accounts.id = account_subscribes.account_id").
			Where("account_subscribes.list_id = 0")
	} else {
		q = q.Joins("JOIN lists ON lists.id = account_subscribes.list_id").
			Joins("JOIN accounts ON accounts.id = lists.account_id").
			Where("account_subscribes.list_id <> 0")
	}
	var res []*model.AccountSubscribe
	err := q.Where("accounts.domain = '' AND accounts.last_active_at > ?", activeSince).
		Order("account_subscribes.id ASC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *relationshipRepository) CreateList(ctx context.Context, l *model.List) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *relationshipRepository) FindList(ctx context.Context, id int64) (*model.List, error) {
	var l model.List
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *relationshipRepository) DeleteList(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", id).Delete(&model.ListAccount{}).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", id).Delete(&model.AccountSubscribe{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.List{}).Error
	})
}

func (r *relationshipRepository) AddListMember(ctx context.Context, listID, accountID int64) error {
	la := &model.ListAccount{ListID: listID, AccountID: accountID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(la).Error
}

func (r *relationshipRepository) RemoveListMember(ctx context.Context, listID, accountID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("list_id = ? AND account_id = ?", listID, accountID).
		Delete(&model.ListAccount{})
	return res.RowsAffected > 0, res.Error
}

func (r *relationshipRepository) IsListMember(ctx context.Context, listID, accountID int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.ListAccount{}).
		Where("list_id = ? AND account_id = ?", listID, accountID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *relationshipRepository) ListsContaining(ctx context.Context, memberID int64, activeSince time.Time, afterID int64, limit int) ([]*model.List, error) {
	var res []*model.List
	err := r.db.WithContext(ctx).
		Joins("JOIN list_accounts ON list_accounts.list_id = lists.id").
		Joins("JOIN accounts ON accounts.id = lists.account_id").
		Where("list_accounts.account_id = ? AND lists.id > ?", memberID, afterID).
		Where("accounts.domain = '' AND accounts.last_active_at > ?", activeSince).
		Order("lists.id ASC").
		Limit(limit).
		Find(&res).Error
	return res, err
}
