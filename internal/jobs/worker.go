package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/timeline-fanout/config"
	"github.com/d60-Lab/timeline-fanout/internal/metrics"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/pkg/logger"
	"github.com/d60-Lab/timeline-fanout/pkg/reporter"
)

var ErrUnknownKind = errors.New("unknown job kind")

// Handler processes one job payload. Returning nil completes the job; any
// error requeues it until max attempts.
type Handler func(ctx context.Context, payload []byte) error

type Option func(*Worker)

// WithRetryIf marks errors worth retrying inside the same attempt, such as
// short-lived lock contention.
func WithRetryIf(fn func(error) bool) Option {
	return func(w *Worker) { w.retryIf = fn }
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// Worker 认领 outbox 任务并分发给若干 goroutine 执行
type Worker struct {
	db       *gorm.DB
	cfg      config.JobsConfig
	handlers map[string]Handler
	retryIf  func(error) bool
	now      func() time.Time
	executor failsafe.Executor[any]

	ch chan *model.Outbox
	wg sync.WaitGroup
}

func NewWorker(db *gorm.DB, cfg config.JobsConfig, opts ...Option) *Worker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.ClaimLimit <= 0 {
		cfg.ClaimLimit = 128
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 10 * time.Minute
	}
	if cfg.VisibilityTimeout <= 0 {
		cfg.VisibilityTimeout = 5 * time.Minute
	}

	w := &Worker{
		db:       db,
		cfg:      cfg,
		handlers: make(map[string]Handler),
		retryIf:  func(error) bool { return false },
		now:      time.Now,
		ch:       make(chan *model.Outbox, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(w)
	}

	retry := retrypolicy.NewBuilder[any]().
		WithBackoff(10*time.Millisecond, 500*time.Millisecond).
		WithMaxRetries(3).
		WithJitterFactor(0.1).
		HandleIf(func(_ any, err error) bool {
			return err != nil && w.retryIf(err)
		}).
		ReturnLastFailure().
		Build()
	w.executor = failsafe.With[any](retry)
	return w
}

// Handle registers h for kind; later registrations replace earlier ones.
func (w *Worker) Handle(kind string, h Handler) {
	w.handlers[kind] = h
}

// Start 启动认领循环和执行 goroutine；返回停止函数
func (w *Worker) Start() func(context.Context) error {
	stop := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for job := range w.ch {
				w.process(ctx, job)
			}
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(w.ch)
		ticker := time.NewTicker(w.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				w.poll(ctx, stop)
			}
		}
	}()

	return func(shutdown context.Context) error {
		close(stop)
		done := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			cancel()
			return nil
		case <-shutdown.Done():
			// unfinished jobs stay in processing and are reclaimed after the visibility timeout
			cancel()
			return shutdown.Err()
		}
	}
}

func (w *Worker) poll(ctx context.Context, stop <-chan struct{}) {
	room := cap(w.ch) - len(w.ch)
	if room <= 0 {
		return
	}
	batch, err := w.claim(ctx, min(room, w.cfg.ClaimLimit))
	if err != nil {
		logger.Warn("jobs: claim failed", zap.Error(err))
		return
	}
	for _, job := range batch {
		select {
		case w.ch <- job:
		case <-stop:
			return
		}
	}
}

// Drain processes every job available now on the calling goroutine and
// returns how many ran.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		batch, err := w.claim(ctx, w.cfg.ClaimLimit)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}
		for _, job := range batch {
			w.process(ctx, job)
		}
		total += len(batch)
	}
}

func (w *Worker) claim(ctx context.Context, limit int) ([]*model.Outbox, error) {
	now := w.now()
	stale := now.Add(-w.cfg.VisibilityTimeout)
	var batch []*model.Outbox
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status = ? AND available_at <= ?) OR (status = ? AND claimed_at < ?)",
				model.OutboxPending, now, model.OutboxProcessing, stale).
			Order("available_at ASC").
			Limit(limit).
			Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, b := range batch {
			ids[i] = b.ID
			b.Status = model.OutboxProcessing
			b.Attempts++
			b.ClaimedAt = &now
		}
		return tx.Model(&model.Outbox{}).Where("id IN ?", ids).Updates(map[string]any{
			"status":     model.OutboxProcessing,
			"claimed_at": now,
			"attempts":   gorm.Expr("attempts + 1"),
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}
	return batch, nil
}

func (w *Worker) process(ctx context.Context, job *model.Outbox) {
	ctx, span := otel.Tracer("jobs").Start(ctx, "job "+job.Kind)
	span.SetAttributes(attribute.String("job.id", job.ID), attribute.Int("job.attempt", job.Attempts))
	defer span.End()

	start := time.Now()
	err := w.run(ctx, job)
	metrics.JobDuration.WithLabelValues(job.Kind).Observe(time.Since(start).Seconds())

	if err == nil {
		w.finish(ctx, job)
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if errors.Is(err, ErrUnknownKind) || job.Attempts >= w.cfg.MaxAttempts {
		w.bury(ctx, job, err)
		return
	}
	w.requeue(ctx, job, err)
}

func (w *Worker) run(ctx context.Context, job *model.Outbox) (err error) {
	h, ok := w.handlers[job.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, job.Kind)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Kind, r)
		}
	}()
	return w.executor.WithContext(ctx).Run(func() error {
		return h(ctx, []byte(job.Payload))
	})
}

func (w *Worker) finish(ctx context.Context, job *model.Outbox) {
	now := w.now()
	if err := w.db.WithContext(ctx).Model(&model.Outbox{}).Where("id = ?", job.ID).Updates(map[string]any{
		"status":       model.OutboxDone,
		"processed_at": now,
		"last_error":   "",
	}).Error; err != nil {
		logger.Warn("jobs: mark done failed", zap.String("id", job.ID), zap.Error(err))
	}
	metrics.JobsProcessed.WithLabelValues(job.Kind, model.OutboxDone).Inc()
	metrics.JobLag.Observe(now.Sub(job.AvailableAt).Seconds())
	logger.Debug("jobs: done", zap.String("kind", job.Kind), zap.String("id", job.ID))
}

func (w *Worker) requeue(ctx context.Context, job *model.Outbox, cause error) {
	delay := Backoff(w.cfg.RetryBase, w.cfg.RetryMax, job.Attempts)
	if err := w.db.WithContext(ctx).Model(&model.Outbox{}).Where("id = ?", job.ID).Updates(map[string]any{
		"status":       model.OutboxPending,
		"available_at": w.now().Add(delay),
		"last_error":   cause.Error(),
	}).Error; err != nil {
		logger.Warn("jobs: requeue failed", zap.String("id", job.ID), zap.Error(err))
	}
	metrics.JobsProcessed.WithLabelValues(job.Kind, "retry").Inc()
	logger.Warn("jobs: attempt failed",
		zap.String("kind", job.Kind),
		zap.String("id", job.ID),
		zap.Int("attempt", job.Attempts),
		zap.Duration("retry_in", delay),
		zap.Error(cause))
}

func (w *Worker) bury(ctx context.Context, job *model.Outbox, cause error) {
	now := w.now()
	if err := w.db.WithContext(ctx).Model(&model.Outbox{}).Where("id = ?", job.ID).Updates(map[string]any{
		"status":       model.OutboxDead,
		"processed_at": now,
		"last_error":   cause.Error(),
	}).Error; err != nil {
		logger.Warn("jobs: mark dead failed", zap.String("id", job.ID), zap.Error(err))
	}
	metrics.JobsProcessed.WithLabelValues(job.Kind, model.OutboxDead).Inc()
	reporter.Capture(cause, map[string]string{"job.kind": job.Kind, "job.id": job.ID})
	logger.Error("jobs: giving up",
		zap.String("kind", job.Kind),
		zap.String("id", job.ID),
		zap.Int("attempts", job.Attempts),
		zap.Error(cause))
}

// Backoff is base*2^(attempt-1) capped at max.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return min(d, max)
}
