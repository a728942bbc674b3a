package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/timeline-fanout/internal/model"
)

type ReactionRepository interface {
	// Create 幂等写入；已存在时 created=false
	Create(ctx context.Context, r *model.EmojiReaction) (bool, error)
	// Delete 删除一条回应；不存在时 deleted=false
	Delete(ctx context.Context, accountID, statusID int64, id model.ReactionIdentity) (bool, error)
	// Count 从明细行重新统计某种回应的数量
	Count(ctx context.Context, statusID int64, id model.ReactionIdentity) (int64, error)
	// Aggregates 统计内容上全部回应，Me 表示 viewerID 是否回应过（viewerID 为 0 时恒为 false）
	Aggregates(ctx context.Context, statusID, viewerID int64) ([]model.ReactionAggregate, error)
}

type reactionRepository struct{ db *gorm.DB }

func NewReactionRepository(db *gorm.DB) ReactionRepository { return &reactionRepository{db: db} }

func (r *reactionRepository) Create(ctx context.Context, er *model.EmojiReaction) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(er)
	return res.RowsAffected > 0, res.Error
}

func (r *reactionRepository) identity(q *gorm.DB, accountID, statusID int64, id model.ReactionIdentity) *gorm.DB {
	return q.Where("account_id = ? AND status_id = ? AND name = ? AND custom_emoji_id = ?", accountID, statusID, id.Name, id.CustomEmojiID)
}

func (r *reactionRepository) Delete(ctx context.Context, accountID, statusID int64, id model.ReactionIdentity) (bool, error) {
	res := r.identity(r.db.WithContext(ctx), accountID, statusID, id).Delete(&model.EmojiReaction{})
	return res.RowsAffected > 0, res.Error
}

func (r *reactionRepository) Count(ctx context.Context, statusID int64, id model.ReactionIdentity) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.EmojiReaction{}).
		Where("status_id = ? AND name = ? AND custom_emoji_id = ?", statusID, id.Name, id.CustomEmojiID).
		Count(&cnt).Error
	return cnt, err
}

func (r *reactionRepository) Aggregates(ctx context.Context, statusID, viewerID int64) ([]model.ReactionAggregate, error) {
	type row struct {
		Name          string
		CustomEmojiID int64
		Domain        string
		Count         int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&model.EmojiReaction{}).
		Select("name, custom_emoji_id, MAX(domain) AS domain, COUNT(*) AS count").
		Where("status_id = ?", statusID).
		Group("name, custom_emoji_id").
		Order("MIN(id) ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	mine := make(map[[2]any]bool)
	if viewerID != 0 {
		var own []model.EmojiReaction
		if err := r.db.WithContext(ctx).Where("status_id = ? AND account_id = ?", statusID, viewerID).Find(&own).Error; err != nil {
			return nil, err
		}
		for _, o := range own {
			mine[[2]any{o.Name, o.CustomEmojiID}] = true
		}
	}

	res := make([]model.ReactionAggregate, 0, len(rows))
	for _, rw := range rows {
		res = append(res, model.ReactionAggregate{
			StatusID:      statusID,
			Name:          rw.Name,
			CustomEmojiID: rw.CustomEmojiID,
			Domain:        rw.Domain,
			Count:         rw.Count,
			Me:            mine[[2]any{rw.Name, rw.CustomEmojiID}],
		})
	}
	return res, nil
}
