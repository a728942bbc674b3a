package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/d60-Lab/timeline-fanout/config"
	"github.com/d60-Lab/timeline-fanout/internal/app"
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

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	ctx := context.Background()
	client := must(redis.NewClient(ctx, cfg.Redis))
	defer client.Close()

	N := 10000
	if s := os.Getenv("N"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			N = n
		}
	}
	CONC := 1
	if s := os.Getenv("CONC"); s != "" {
		if c, err := strconv.Atoi(s); err == nil && c > 0 {
			CONC = c
		}
	}
	PAGE := 50
	if s := os.Getenv("PAGE"); s != "" {
		if p, err := strconv.Atoi(s); err == nil && p > 0 {
			PAGE = p
		}
	}
	POSTS := 200
	if s := os.Getenv("POSTS"); s != "" {
		if p, err := strconv.Atoi(s); err == nil && p > 0 {
			POSTS = p
		}
	}

	a := app.New(cfg, db, client)

	// seed: celeb 先发 POSTS 条，关注后这些内容要合并进关注者的 home
	celeb := must(a.Accounts.Register(ctx, "celeb", "", false))
	for i := 0; i < POSTS; i++ {
		_ = must(a.Statuses.Create(ctx, service.CreateStatus{AccountID: celeb.ID, Text: fmt.Sprintf("post %d", i)}))
	}
	_ = must(a.Worker.Drain(ctx))

	users := make([]int64, N)
	for i := 0; i < N; i++ {
		users[i] = must(a.Accounts.Register(ctx, fmt.Sprintf("fan%d", i), "", false)).ID
	}

	stop := a.Worker.Start()

	// 采样 outbox 积压
	maxQ := int64(0)
	quitSample := make(chan struct{})
	sampled := make(chan struct{})
	go func() {
		defer close(sampled)
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				var q int64
				_ = db.Model(&model.Outbox{}).Where("status = ?", model.OutboxPending).Count(&q).Error
				if q > maxQ {
					maxQ = q
				}
			case <-quitSample:
				return
			}
		}
	}()

	// dispatch N follows with CONC workers
	t0 := time.Now()
	workers := CONC
	if workers > N {
		workers = N
	}
	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)
	followRecs := make([]time.Duration, 0, N)
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range feed {
				st := time.Now()
				_ = a.Relationships.Follow(ctx, users[i], celeb.ID, service.FollowOptions{ShowReblogs: true, Delivery: true})
				d := time.Since(st)
				mu.Lock()
				followRecs = append(followRecs, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	followDur := time.Since(t0)

	// 等待合并任务落地
	drainStart := time.Now()
	deadline := drainStart.Add(5 * time.Minute)
	var rows []model.Outbox
	for {
		rows = rows[:0]
		_ = db.Where("kind = ? AND status = ?", jobs.KindRelationshipCreated, model.OutboxDone).Find(&rows).Error
		if len(rows) >= N || time.Now().After(deadline) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	drainDur := time.Since(drainStart)
	close(quitSample)
	<-sampled
	_ = stop(context.Background())

	mergeRecs := make([]time.Duration, 0, len(rows))
	for _, r := range rows {
		if r.ProcessedAt != nil {
			mergeRecs = append(mergeRecs, r.ProcessedAt.Sub(r.CreatedAt))
		}
	}

	// queries
	q0 := time.Now()
	_, _ = a.Relationships.ListFollowers(ctx, celeb.ID, 1, PAGE)
	fansDur := time.Since(q0)

	q1 := time.Now()
	_, _ = a.Relationships.ListFollowing(ctx, users[0], 1, PAGE)
	follDur := time.Since(q1)

	homeLen := must(a.Store.Len(ctx, timeline.Home(users[0])))

	pct := func(vs []time.Duration, p float64) time.Duration {
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

	fmt.Printf("N=%d, CONC=%d, PAGE=%d, POSTS=%d\n", N, CONC, PAGE, POSTS)
	fmt.Printf("Follow latency total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		followDur, followDur/time.Duration(N), pct(followRecs, 0.50), pct(followRecs, 0.95), pct(followRecs, 0.99))
	fmt.Printf("Query followers(%d) latency: %v\n", PAGE, fansDur)
	fmt.Printf("Query following(%d) latency: %v\n", PAGE, follDur)
	fmt.Printf("Home merge landing: samples=%d, p50=%v, p95=%v, p99=%v, maxQueue=%d, drain=%v, home0=%d\n",
		len(mergeRecs), pct(mergeRecs, 0.50), pct(mergeRecs, 0.95), pct(mergeRecs, 0.99), maxQ, drainDur, homeLen)
}
