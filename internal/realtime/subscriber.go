package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/pkg/logger"
)

// Received is an event read back from a scope's channel.
type Received struct {
	Scope   timeline.Scope  `json:"stream"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type Subscriber struct {
	client redis.UniversalClient
}

func NewSubscriber(client redis.UniversalClient) *Subscriber {
	return &Subscriber{client: client}
}

// Stream relays events of scopes to handler until ctx is done or the
// subscription closes. ready, when non-nil, is closed once redis confirmed
// the subscription.
func (s *Subscriber) Stream(ctx context.Context, scopes []timeline.Scope, ready chan<- struct{}, handler func(Received) error) error {
	channels := make([]string, len(scopes))
	for i, sc := range scopes {
		channels[i] = sc.Channel()
	}
	sub := s.client.Subscribe(ctx, channels...)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev struct {
				Event   string          `json:"event"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("realtime: bad payload", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			scope := timeline.Scope(strings.TrimPrefix(msg.Channel, "timeline:"))
			if err := handler(Received{Scope: scope, Event: ev.Event, Payload: ev.Payload}); err != nil {
				return err
			}
		}
	}
}
