package model

import (
	"time"
)

// Follow 关注关系（AccountID 关注 TargetAccountID）
type Follow struct {
	ID              int64 `gorm:"primaryKey"`
	AccountID       int64 `gorm:"index:idx_follow_pair,unique;not null"`
	TargetAccountID int64 `gorm:"index:idx_follow_target;index:idx_follow_pair,unique;not null"`
	// 复合唯一键，避免重复关注
	// idx_follow_pair = (account_id, target_account_id)
	ShowReblogs bool `gorm:"not null"`
	Notify      bool `gorm:"not null;default:false"`
	// Delivery 为 false 时关系仅用于可见性/通知，不投递到 home
	Delivery  bool `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Follow) TableName() string { return "follows" }

// AccountSubscribe 订阅（不关注也能把对方内容投递到 home 或某个 list）
type AccountSubscribe struct {
	ID              int64 `gorm:"primaryKey"`
	AccountID       int64 `gorm:"index:idx_subscribe_triple,unique;not null"`
	TargetAccountID int64 `gorm:"index:idx_subscribe_target;index:idx_subscribe_triple,unique;not null"`
	// ListID 为 0 表示投递到 home
	ListID      int64 `gorm:"index:idx_subscribe_triple,unique;not null;default:0"`
	ShowReblogs bool  `gorm:"not null"`
	MediaOnly   bool  `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (AccountSubscribe) TableName() string { return "account_subscribes" }

// List 列表时间线
type List struct {
	ID        int64  `gorm:"primaryKey"`
	AccountID int64  `gorm:"index;not null"`
	Title     string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (List) TableName() string { return "lists" }

// ListAccount 列表成员
type ListAccount struct {
	ID        int64 `gorm:"primaryKey"`
	ListID    int64 `gorm:"index:idx_list_account_pair,unique;not null"`
	AccountID int64 `gorm:"index:idx_list_account_member;index:idx_list_account_pair,unique;not null"`
	CreatedAt time.Time
}

func (ListAccount) TableName() string { return "list_accounts" }

// Block / Mute / AccountDomainBlock 供可见性判断使用
type Block struct {
	ID              int64 `gorm:"primaryKey"`
	AccountID       int64 `gorm:"index:idx_block_pair,unique;not null"`
	TargetAccountID int64 `gorm:"index:idx_block_pair,unique;not null"`
	CreatedAt       time.Time
}

func (Block) TableName() string { return "blocks" }

type Mute struct {
	ID              int64 `gorm:"primaryKey"`
	AccountID       int64 `gorm:"index:idx_mute_pair,unique;not null"`
	TargetAccountID int64 `gorm:"index:idx_mute_pair,unique;not null"`
	CreatedAt       time.Time
}

func (Mute) TableName() string { return "mutes" }

type AccountDomainBlock struct {
	ID        int64  `gorm:"primaryKey"`
	AccountID int64  `gorm:"index:idx_domain_block_pair,unique;not null"`
	Domain    string `gorm:"type:varchar(255);index:idx_domain_block_pair,unique;not null"`
	CreatedAt time.Time
}

func (AccountDomainBlock) TableName() string { return "account_domain_blocks" }
