package service

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-fanout/config"
	"github.com/d60-Lab/timeline-fanout/internal/feed"
	"github.com/d60-Lab/timeline-fanout/internal/jobs"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/realtime"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/internal/testutil"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/internal/visibility"
	"github.com/d60-Lab/timeline-fanout/pkg/snowflake"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []realtime.Message
	live []timeline.Scope
}

func (p *recordingPublisher) Publish(_ context.Context, msgs ...realtime.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msgs...)
}

func (p *recordingPublisher) LiveScopes(_ context.Context, _ string) ([]timeline.Scope, error) {
	return p.live, nil
}

// scopes lists the scopes that received event, sorted.
func (p *recordingPublisher) scopes(event string) []timeline.Scope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var res []timeline.Scope
	for _, m := range p.msgs {
		if m.Event.Event == event {
			res = append(res, m.Scope)
		}
	}
	slices.Sort(res)
	return res
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = nil
}

type env struct {
	t   *testing.T
	ctx context.Context
	now time.Time

	db     *gorm.DB
	mr     *miniredis.Miniredis
	client goredis.UniversalClient
	store  *timeline.RedisStore
	pub    *recordingPublisher
	feed   *feed.Feed

	statuses  repository.StatusRepository
	accounts  repository.AccountRepository
	rels      repository.RelationshipRepository
	filters   repository.FilterRepository
	reactions repository.ReactionRepository

	engine     *FanoutEngine
	reconciler *Reconciler
	aggregator *Aggregator
	queue      *jobs.Queue
	worker     *jobs.Worker

	statusSvc   *StatusService
	relSvc      RelationshipService
	reactionSvc *ReactionService
	accountSvc  *AccountService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	cfg := config.FanoutConfig{
		MaxItems:         400,
		PersonalMaxItems: 800,
		BroadcastCutoff:  14 * 24 * time.Hour,
		ActiveDuration:   14 * 24 * time.Hour,
		FilterMultiplier: 4,
		MergeBatchSize:   3,
		LockTTL:          time.Minute,
		HydrationTTL:     time.Minute,
	}

	e := &env{
		t:         t,
		ctx:       context.Background(),
		now:       time.Now(),
		db:        db,
		mr:        mr,
		client:    client,
		store:     timeline.NewRedisStore(client, cfg.MaxItems, cfg.PersonalMaxItems),
		pub:       &recordingPublisher{},
		statuses:  repository.NewStatusRepository(db),
		accounts:  repository.NewAccountRepository(db),
		rels:      repository.NewRelationshipRepository(db),
		filters:   repository.NewFilterRepository(db),
		reactions: repository.NewReactionRepository(db),
		queue:     jobs.NewQueue(db),
	}
	oracle := visibility.NewOracle(e.filters, e.rels)
	e.feed = feed.New(e.store, e.statuses, client, cfg.FilterMultiplier, cfg.HydrationTTL)
	e.engine = NewFanoutEngine(e.statuses, e.accounts, e.rels, e.store, oracle, e.pub, client, e.feed, cfg)
	e.engine.now = func() time.Time { return e.now }
	e.reconciler = NewReconciler(e.statuses, e.accounts, e.rels, e.store, oracle, cfg)
	e.aggregator = NewAggregator(e.reactions, e.pub)

	e.worker = jobs.NewWorker(db, config.JobsConfig{MaxAttempts: 2}, jobs.WithRetryIf(IsRetryable))
	RegisterHandlers(e.worker, e.engine, e.reconciler, e.aggregator)

	ids := snowflake.New()
	e.statusSvc = NewStatusService(db, e.statuses, e.queue, ids)
	e.relSvc = NewRelationshipService(e.rels, e.accounts, e.queue)
	e.reactionSvc = NewReactionService(e.statuses, e.reactions, e.queue)
	e.accountSvc = NewAccountService(e.accounts, e.queue, ids, cfg.ActiveDuration)
	return e
}

// sid returns a status id n milliseconds after the env's clock.
func (e *env) sid(n int64) int64 {
	return snowflake.IDAt(e.now) + n<<16
}

func (e *env) account(id int64, domain string) *model.Account {
	e.t.Helper()
	a := &model.Account{ID: id, Username: "u", Domain: domain, LastActiveAt: e.now}
	require.NoError(e.t, e.db.Create(a).Error)
	return a
}

func (e *env) inactiveAccount(id int64) *model.Account {
	e.t.Helper()
	a := &model.Account{ID: id, Username: "idle", LastActiveAt: e.now.Add(-30 * 24 * time.Hour)}
	require.NoError(e.t, e.db.Create(a).Error)
	return a
}

func (e *env) status(s *model.Status) *model.Status {
	e.t.Helper()
	if s.Visibility == "" {
		s.Visibility = model.VisibilityPublic
	}
	require.NoError(e.t, e.db.Create(s).Error)
	return s
}

func (e *env) reblog(id, accountID, ofID int64) *model.Status {
	return e.status(&model.Status{ID: id, AccountID: accountID, ReblogOfID: &ofID})
}

func (e *env) follow(from, to int64, showReblogs bool) {
	e.t.Helper()
	require.NoError(e.t, e.rels.Follow(e.ctx, &model.Follow{AccountID: from, TargetAccountID: to, ShowReblogs: showReblogs, Delivery: true}))
}

func (e *env) entries(scope timeline.Scope) []int64 {
	e.t.Helper()
	ids, err := e.store.Range(e.ctx, scope, timeline.Range{Count: 10_000})
	require.NoError(e.t, err)
	return ids
}

func (e *env) publish(id int64) {
	e.t.Helper()
	require.NoError(e.t, e.engine.OnPublish(e.ctx, id))
}

func (e *env) drain() {
	e.t.Helper()
	_, err := e.worker.Drain(e.ctx)
	require.NoError(e.t, err)
}

func scopes(s ...timeline.Scope) []timeline.Scope {
	slices.Sort(s)
	return s
}
