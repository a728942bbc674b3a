// Package snowflake generates 64-bit identifiers whose high 48 bits are the
// millisecond timestamp and low 16 bits a per-millisecond sequence, so that
// numeric order equals creation order.
package snowflake

import (
	"sync"
	"time"
)

const sequenceBits = 16

// Generator hands out unique, strictly increasing ids.
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func New() *Generator { return &Generator{now: time.Now} }

// Next returns an id greater than every id returned before.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := IDAt(g.now())
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// IDAt returns the smallest id that could have been generated at t.
func IDAt(t time.Time) int64 {
	return t.UnixMilli() << sequenceBits
}

// TimeOf recovers the generation time of id (millisecond precision).
func TimeOf(id int64) time.Time {
	return time.UnixMilli(id >> sequenceBits)
}
