// Package realtime pushes lightweight events to live readers of a timeline
// scope. Delivery is best effort: nothing is persisted and nothing is
// retried, readers recover by re-reading the feed.
package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-fanout/internal/metrics"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/pkg/logger"
)

const (
	EventUpdate        = "update"
	EventDelete        = "delete"
	EventExpire        = "expire"
	EventEmojiReaction = "emoji_reaction"

	subscribedPrefix = "subscribed:"
)

type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type Message struct {
	Scope timeline.Scope
	Event Event
}

// Publisher never fails the caller: delivery errors are logged and counted.
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message)
	// LiveScopes lists scopes with a currently connected reader whose name
	// starts with prefix (e.g. "home:").
	LiveScopes(ctx context.Context, prefix string) ([]timeline.Scope, error)
}

type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, msgs ...Message) {
	if len(msgs) == 0 {
		return
	}
	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, m := range msgs {
			payload, err := json.Marshal(m.Event)
			if err != nil {
				logger.Warn("realtime: marshal event", zap.String("scope", m.Scope.String()), zap.Error(err))
				continue
			}
			pipe.Publish(ctx, m.Scope.Channel(), payload)
		}
		return nil
	})
	if err != nil {
		metrics.RealtimeFailures.Inc()
		logger.Warn("realtime: publish failed", zap.Int("messages", len(msgs)), zap.Error(err))
		return
	}
	for _, m := range msgs {
		metrics.RealtimePublished.WithLabelValues(m.Event.Event).Inc()
	}
}

// MarkSubscribed records a live reader on scope for ttl; readers refresh it
// while connected.
func (p *RedisPublisher) MarkSubscribed(ctx context.Context, scope timeline.Scope, ttl time.Duration) error {
	return p.client.Set(ctx, subscribedPrefix+scope.Channel(), "1", ttl).Err()
}

func (p *RedisPublisher) LiveScopes(ctx context.Context, prefix string) ([]timeline.Scope, error) {
	match := subscribedPrefix + timeline.Scope(prefix).Channel() + "*"
	var (
		cursor uint64
		res    []timeline.Scope
	)
	for {
		keys, next, err := p.client.Scan(ctx, cursor, match, 500).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			ch := strings.TrimPrefix(k, subscribedPrefix)
			res = append(res, timeline.Scope(strings.TrimPrefix(ch, "timeline:")))
		}
		if next == 0 {
			return res, nil
		}
		cursor = next
	}
}
