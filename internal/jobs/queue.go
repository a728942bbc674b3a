// Package jobs is a durable at-least-once task queue on top of the outbox
// table. Rows are written in the same transaction as the change that caused
// them and claimed by workers with FOR UPDATE SKIP LOCKED.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-fanout/internal/model"
)

// 任务类型
const (
	KindStatusPublish       = "status.publish"
	KindStatusDelete        = "status.delete"
	KindStatusExpire        = "status.expire"
	KindReactionPublish     = "reaction.publish"
	KindRelationshipCreated = "relationship.created"
	KindRelationshipRemoved = "relationship.removed"
	KindListCleared         = "list.cleared"
	KindHomeRegenerate      = "home.regenerate"
)

type Queue struct {
	db  *gorm.DB
	now func() time.Time
}

func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db, now: time.Now}
}

func (q *Queue) Enqueue(ctx context.Context, kind string, payload any) error {
	return q.EnqueueTx(q.db.WithContext(ctx), kind, payload)
}

// EnqueueAt schedules a job to become available at at.
func (q *Queue) EnqueueAt(ctx context.Context, kind string, payload any, at time.Time) error {
	return q.EnqueueTxAt(q.db.WithContext(ctx), kind, payload, at)
}

// EnqueueTx writes the job inside tx so it commits or rolls back with the
// caller's change.
func (q *Queue) EnqueueTx(tx *gorm.DB, kind string, payload any) error {
	return q.EnqueueTxAt(tx, kind, payload, q.now())
}

func (q *Queue) EnqueueTxAt(tx *gorm.DB, kind string, payload any, at time.Time) error {
	row, err := newRow(kind, payload, at)
	if err != nil {
		return err
	}
	if err := tx.Create(row).Error; err != nil {
		return fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return nil
}

func newRow(kind string, payload any, at time.Time) (*model.Outbox, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return &model.Outbox{
		ID:          uuid.NewString(),
		Kind:        kind,
		Payload:     string(b),
		Status:      model.OutboxPending,
		AvailableAt: at,
	}, nil
}
