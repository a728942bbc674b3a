package snowflake

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextMonotonicUnderConcurrency(t *testing.T) {
	g := New()
	const n = 2000
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n/8; j++ {
				ids <- g.Next()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestIDAtOrdersByTime(t *testing.T) {
	now := time.Now()
	old := IDAt(now.Add(-14 * 24 * time.Hour))
	assert.Less(t, old, IDAt(now))
	assert.WithinDuration(t, now, TimeOf(IDAt(now)), time.Millisecond)
}

func TestNextSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := &Generator{now: func() time.Time { return fixed }}
	a, b := g.Next(), g.Next()
	assert.Equal(t, a+1, b)
}
