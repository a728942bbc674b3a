package service

import "errors"

var (
	ErrFollowSelf        = errors.New("cannot follow self")
	ErrInvalidVisibility = errors.New("invalid visibility")
	// ErrRaceCondition 同一内容的另一次删除正在进行，任务可重试
	ErrRaceCondition = errors.New("status is being distributed by another worker")
	// ErrNotReacted 撤销一个从未添加过的回应
	ErrNotReacted  = errors.New("reaction not found")
	ErrForbidden   = errors.New("not allowed")
	ErrInvalidName = errors.New("invalid reaction name")
)

// IsRetryable reports errors worth retrying right away inside a job attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRaceCondition)
}
