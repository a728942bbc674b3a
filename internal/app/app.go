// Package app assembles repositories, the fan-out pipeline, the job worker
// and the command services from one configuration.
package app

import (
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-fanout/config"
	"github.com/d60-Lab/timeline-fanout/internal/api/handler"
	"github.com/d60-Lab/timeline-fanout/internal/feed"
	"github.com/d60-Lab/timeline-fanout/internal/jobs"
	"github.com/d60-Lab/timeline-fanout/internal/realtime"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/internal/service"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/internal/visibility"
	"github.com/d60-Lab/timeline-fanout/pkg/snowflake"
)

type App struct {
	DB    *gorm.DB
	Redis goredis.UniversalClient

	Store     *timeline.RedisStore
	Publisher *realtime.RedisPublisher
	Feed      *feed.Feed

	Engine     *service.FanoutEngine
	Reconciler *service.Reconciler
	Aggregator *service.Aggregator
	Queue      *jobs.Queue
	Worker     *jobs.Worker

	Statuses      *service.StatusService
	Relationships service.RelationshipService
	Reactions     *service.ReactionService
	Accounts      *service.AccountService
}

func New(cfg *config.Config, db *gorm.DB, client goredis.UniversalClient) *App {
	fc := cfg.Fanout
	statuses := repository.NewStatusRepository(db)
	accounts := repository.NewAccountRepository(db)
	rels := repository.NewRelationshipRepository(db)
	reactions := repository.NewReactionRepository(db)
	oracle := visibility.NewOracle(repository.NewFilterRepository(db), rels)
	ids := snowflake.New()

	a := &App{
		DB:        db,
		Redis:     client,
		Store:     timeline.NewRedisStore(client, fc.MaxItems, fc.PersonalMaxItems),
		Publisher: realtime.NewRedisPublisher(client),
		Queue:     jobs.NewQueue(db),
	}
	a.Feed = feed.New(a.Store, statuses, client, fc.FilterMultiplier, fc.HydrationTTL)
	a.Engine = service.NewFanoutEngine(statuses, accounts, rels, a.Store, oracle, a.Publisher, client, a.Feed, fc)
	a.Reconciler = service.NewReconciler(statuses, accounts, rels, a.Store, oracle, fc)
	a.Aggregator = service.NewAggregator(reactions, a.Publisher)
	a.Worker = jobs.NewWorker(db, cfg.Jobs, jobs.WithRetryIf(service.IsRetryable))
	service.RegisterHandlers(a.Worker, a.Engine, a.Reconciler, a.Aggregator)

	a.Statuses = service.NewStatusService(db, statuses, a.Queue, ids)
	a.Relationships = service.NewRelationshipService(rels, accounts, a.Queue)
	a.Reactions = service.NewReactionService(statuses, reactions, a.Queue)
	a.Accounts = service.NewAccountService(accounts, a.Queue, ids, fc.ActiveDuration)
	return a
}

// Handler builds the HTTP handler over the app's services.
func (a *App) Handler(cfg *config.Config) *handler.Handler {
	return handler.New(
		a.Feed,
		a.Statuses,
		a.Relationships,
		a.Reactions,
		a.Accounts,
		realtime.NewSubscriber(a.Redis),
		a.Publisher,
		cfg.Fanout.SubscriptionTTL,
	)
}
