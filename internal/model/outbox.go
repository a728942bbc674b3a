package model

import "time"

// 任务状态
const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxDone       = "done"
	OutboxDead       = "dead"
)

// Outbox 异步任务外发盒：与业务写入同事务落地，由 worker 认领执行
type Outbox struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)"`
	Kind        string     `gorm:"type:varchar(64);index;not null"`
	Payload     string     `gorm:"type:text;not null"`
	Status      string     `gorm:"type:varchar(16);index:idx_outbox_claim,priority:1;not null"` // pending, processing, done, dead
	AvailableAt time.Time  `gorm:"index:idx_outbox_claim,priority:2;not null"`
	Attempts    int        `gorm:"not null;default:0"`
	ClaimedAt   *time.Time
	LastError   string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"index"`
	ProcessedAt *time.Time
}

func (Outbox) TableName() string { return "outbox" }

// All 返回需要迁移的全部模型
func All() []any {
	return []any{
		&Account{}, &Status{}, &StatusTag{}, &Mention{}, &StatusExpire{},
		&Follow{}, &AccountSubscribe{}, &List{}, &ListAccount{},
		&Block{}, &Mute{}, &AccountDomainBlock{},
		&EmojiReaction{}, &Outbox{},
	}
}
