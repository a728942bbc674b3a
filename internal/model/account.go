package model

import "time"

// Account 账号（Domain 为空表示本地账号）
type Account struct {
	ID           int64     `gorm:"primaryKey;autoIncrement:false"`
	Username     string    `gorm:"type:varchar(64);not null"`
	Domain       string    `gorm:"type:varchar(255);index;not null;default:''"`
	Group        bool      `gorm:"not null;default:false"`
	Silenced     bool      `gorm:"not null;default:false"`
	LastActiveAt time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Account) TableName() string { return "accounts" }

func (a *Account) Local() bool { return a.Domain == "" }

// ActiveSince 本地账号且在 since 之后活跃过
func (a *Account) ActiveSince(since time.Time) bool {
	return a.Local() && a.LastActiveAt.After(since)
}
