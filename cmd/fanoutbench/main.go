package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/d60-Lab/timeline-fanout/config"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/pkg/redis"
	"github.com/d60-Lab/timeline-fanout/pkg/snowflake"
)

// 对比逐个写入与 pipeline 批量写入多个时间线的耗时
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	ctx := context.Background()
	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		panic(err)
	}
	defer client.Close()

	SCOPES := 1000
	if s := os.Getenv("SCOPES"); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			SCOPES = v
		}
	}
	REPEAT := 50
	if s := os.Getenv("REPEAT"); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			REPEAT = v
		}
	}

	store := timeline.NewRedisStore(client, cfg.Fanout.MaxItems, cfg.Fanout.PersonalMaxItems)
	ids := snowflake.New()

	// 压测用的 home 时间线，账号 id 取一段不会与真实数据冲突的区间
	scopes := make([]timeline.Scope, SCOPES)
	for i := range scopes {
		scopes[i] = timeline.Home(int64(1<<40 + i))
	}
	defer func() {
		for _, s := range scopes {
			_ = store.Clear(ctx, s)
		}
	}()

	sequential := func(id int64) time.Duration {
		st := time.Now()
		for _, s := range scopes {
			if _, err := store.Push(ctx, s, id); err != nil {
				panic(err)
			}
		}
		return time.Since(st)
	}
	pipelined := func(id int64) time.Duration {
		st := time.Now()
		if _, err := store.PushMany(ctx, scopes, id); err != nil {
			panic(err)
		}
		return time.Since(st)
	}

	seqs := make([]time.Duration, 0, REPEAT)
	pipes := make([]time.Duration, 0, REPEAT)
	for i := 0; i < REPEAT; i++ {
		seqs = append(seqs, sequential(ids.Next()))
	}
	for i := 0; i < REPEAT; i++ {
		pipes = append(pipes, pipelined(ids.Next()))
	}

	pct := func(vs []time.Duration, p float64) time.Duration {
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(float64(len(xs)) * p)
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	var sum1, sum2 time.Duration
	for _, d := range seqs {
		sum1 += d
	}
	for _, d := range pipes {
		sum2 += d
	}
	fmt.Printf("SCOPES=%d REPEAT=%d\n", SCOPES, REPEAT)
	fmt.Printf("Sequential push: avg=%v p95=%v p99=%v\n", sum1/time.Duration(len(seqs)), pct(seqs, 0.95), pct(seqs, 0.99))
	fmt.Printf("Pipelined push (%d scopes): avg=%v p95=%v p99=%v\n", SCOPES, sum2/time.Duration(len(pipes)), pct(pipes, 0.95), pct(pipes, 0.99))
}
