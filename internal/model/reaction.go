package model

import "time"

// EmojiReaction 表情回应；同一账号对同一内容的同一表情只保留一条
type EmojiReaction struct {
	ID            int64  `gorm:"primaryKey"`
	AccountID     int64  `gorm:"index:idx_reaction_identity,unique;not null"`
	StatusID      int64  `gorm:"index:idx_reaction_identity,unique;index:idx_reaction_status;not null"`
	Name          string `gorm:"type:varchar(128);index:idx_reaction_identity,unique;not null"`
	CustomEmojiID int64  `gorm:"index:idx_reaction_identity,unique;not null;default:0"`
	Domain        string `gorm:"type:varchar(255);not null;default:''"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (EmojiReaction) TableName() string { return "emoji_reactions" }

// ReactionIdentity 标识一种回应：名称 + 可选自定义表情来源 + 可选来源域
type ReactionIdentity struct {
	Name          string `json:"name"`
	CustomEmojiID int64  `json:"custom_emoji_id,string,omitempty"`
	Domain        string `json:"domain,omitempty"`
}

// ReactionAggregate 某内容上某种回应的聚合
type ReactionAggregate struct {
	StatusID      int64  `json:"status_id,string"`
	Name          string `json:"name"`
	CustomEmojiID int64  `json:"custom_emoji_id,string,omitempty"`
	Domain        string `json:"domain,omitempty"`
	Count         int64  `json:"count"`
	Me            bool   `json:"me"`
}
