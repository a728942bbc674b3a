package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-fanout/config"
	"github.com/d60-Lab/timeline-fanout/internal/app"
	"github.com/d60-Lab/timeline-fanout/internal/feed"
	"github.com/d60-Lab/timeline-fanout/internal/jobs"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/service"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/pkg/database"
	"github.com/d60-Lab/timeline-fanout/pkg/redis"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

// reset 清空本地压测数据，保证多次运行结果可比
func reset(db *gorm.DB) {
	for _, m := range model.All() {
		_ = db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error
	}
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	client := must(redis.NewClient(ctx, cfg.Redis))
	defer client.Close()

	// params
	N := envInt("N", 20000)       // author 的活跃 delivery 关注者
	POSTS := envInt("POSTS", 100) // 发布条数
	cfg.Jobs.Workers = envInt("WORKERS", cfg.Jobs.Workers)
	cfg.Jobs.ClaimLimit = envInt("CLAIM", cfg.Jobs.ClaimLimit)

	reset(db)
	a := app.New(cfg, db, client)

	// seed one author and N followers
	author := must(a.Accounts.Register(ctx, "author0", "", false))
	followers := make([]int64, N)
	for i := 0; i < N; i++ {
		acc := must(a.Accounts.Register(ctx, fmt.Sprintf("u%d", i), "", false))
		followers[i] = acc.ID
		if err := a.Relationships.Follow(ctx, acc.ID, author.ID, service.FollowOptions{ShowReblogs: true, Delivery: true}); err != nil {
			panic(err)
		}
	}
	// 关注回填任务在发布前跑完，不计入落地时间
	_ = must(a.Worker.Drain(ctx))

	stop := a.Worker.Start()
	defer stop(ctx)

	// publish POSTS
	pubDurations := make([]time.Duration, 0, POSTS)
	for i := 0; i < POSTS; i++ {
		st := time.Now()
		_, err := a.Statuses.Create(ctx, service.CreateStatus{AccountID: author.ID, Text: fmt.Sprintf("hello %d", i)})
		if err != nil {
			panic(err)
		}
		pubDurations = append(pubDurations, time.Since(st))
	}

	// collect landing metrics from outbox
	var rows []model.Outbox
	deadline := time.Now().Add(2 * time.Minute)
	for {
		rows = rows[:0]
		_ = db.Where("kind = ? AND status = ?", jobs.KindStatusPublish, model.OutboxDone).Find(&rows).Error
		if len(rows) >= POSTS {
			break
		}
		if time.Now().After(deadline) {
			fmt.Printf("timeout while waiting for fanout: got=%d want=%d\n", len(rows), POSTS)
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	land := make([]time.Duration, 0, len(rows))
	for _, r := range rows {
		if r.ProcessedAt != nil {
			land = append(land, r.ProcessedAt.Sub(r.CreatedAt))
		}
	}

	fmt.Printf("N=%d POSTS=%d WORKERS=%d CLAIM=%d\n", N, POSTS, cfg.Jobs.Workers, cfg.Jobs.ClaimLimit)
	fmt.Printf("Publish tx latency: avg=%v p95=%v p99=%v\n", avg(pubDurations), pct(pubDurations, 0.95), pct(pubDurations, 0.99))
	fmt.Printf("Fanout landing (outbox->done): samples=%d avg=%v p95=%v p99=%v\n", len(land), avg(land), pct(land, 0.95), pct(land, 0.99))

	// 首页读取：冷读走 DB 水合，热读命中缓存
	if N > 0 {
		scope := timeline.Home(followers[0])
		for _, label := range []string{"cold", "warm"} {
			st := time.Now()
			page := must(a.Feed.Get(ctx, scope, 40, feed.Cursor{}, nil))
			fmt.Printf("Timeline read (%s, follower0, limit=40): %v, items=%d\n", label, time.Since(st), len(page.Items))
		}
	}
}
