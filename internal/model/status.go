package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Visibility 可见性级别
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
	VisibilityLimited  Visibility = "limited"
	VisibilityDirect   Visibility = "direct"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate, VisibilityLimited, VisibilityDirect:
		return true
	}
	return false
}

// Status 内容主体；ID 由 snowflake 生成，同时作为时间线排序分数
type Status struct {
	ID         int64          `gorm:"primaryKey;autoIncrement:false"`
	AccountID  int64          `gorm:"index:idx_status_account_id,priority:1;not null"`
	Visibility Visibility     `gorm:"type:varchar(16);not null"`
	ReblogOfID *int64         `gorm:"index"`
	HasMedia   bool           `gorm:"not null;default:false"`
	Text       string         `gorm:"type:text"`
	ExpiredAt  *time.Time     `gorm:"index"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Account  *Account      `gorm:"foreignKey:AccountID"`
	Reblog   *Status       `gorm:"foreignKey:ReblogOfID"`
	Tags     []StatusTag   `gorm:"foreignKey:StatusID"`
	Mentions []Mention     `gorm:"foreignKey:StatusID"`
	Expire   *StatusExpire `gorm:"foreignKey:StatusID"`
}

func (Status) TableName() string { return "statuses" }

func (s *Status) IsReblog() bool { return s.ReblogOfID != nil }

// Proper 转发返回被转发的原文，否则返回自身
func (s *Status) Proper() *Status {
	if s.IsReblog() && s.Reblog != nil {
		return s.Reblog
	}
	return s
}

func (s *Status) Discarded() bool { return s.DeletedAt.Valid }

func (s *Status) Expired() bool { return s.ExpiredAt != nil }

// Local 作者是否为本地账号（需预加载 Account）
func (s *Status) Local() bool { return s.Account != nil && s.Account.Local() }

func (s *Status) TagNames() []string {
	names := make([]string, 0, len(s.Tags))
	for _, t := range s.Tags {
		names = append(names, t.Name)
	}
	return names
}

func (s *Status) MentionedAccountIDs() []int64 {
	ids := make([]int64, 0, len(s.Mentions))
	for _, m := range s.Mentions {
		ids = append(ids, m.AccountID)
	}
	return ids
}

// StatusTag 话题标签（小写存储）
type StatusTag struct {
	StatusID int64  `gorm:"primaryKey;autoIncrement:false"`
	Name     string `gorm:"primaryKey;type:varchar(255);index"`
}

func (StatusTag) TableName() string { return "status_tags" }

func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
}

// Mention 提及的账号
type Mention struct {
	StatusID  int64 `gorm:"primaryKey;autoIncrement:false"`
	AccountID int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

func (Mention) TableName() string { return "mentions" }

// ExpireAction 到期处理方式
type ExpireAction string

const (
	ExpireDelete ExpireAction = "delete"
	ExpireMark   ExpireAction = "mark"
)

// StatusExpire 定时过期
type StatusExpire struct {
	ID        int64        `gorm:"primaryKey"`
	StatusID  int64        `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time    `gorm:"not null"`
	Action    ExpireAction `gorm:"type:varchar(16);not null;default:'delete'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StatusExpire) TableName() string { return "status_expires" }

// StatusSummary 读侧使用的轻量内容快照
type StatusSummary struct {
	ID         int64      `json:"id,string"`
	AccountID  int64      `json:"account_id,string"`
	Visibility Visibility `json:"visibility"`
	ReblogOfID *int64     `json:"reblog_of_id,string,omitempty"`
	HasMedia   bool       `json:"has_media"`
	Text       string     `json:"text"`
	Tags       []string   `json:"tags,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (s *Status) Summary() StatusSummary {
	return StatusSummary{
		ID:         s.ID,
		AccountID:  s.AccountID,
		Visibility: s.Visibility,
		ReblogOfID: s.ReblogOfID,
		HasMedia:   s.HasMedia,
		Text:       s.Text,
		Tags:       s.TagNames(),
		CreatedAt:  s.CreatedAt,
	}
}
