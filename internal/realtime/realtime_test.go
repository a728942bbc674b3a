package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/timeline-fanout/internal/timeline"
)

func TestPublishReachesSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	pub := NewRedisPublisher(client)
	sub := NewSubscriber(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan Received, 4)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- sub.Stream(ctx, []timeline.Scope{timeline.Home(1), timeline.Public()}, ready, func(r Received) error {
			got <- r
			return nil
		})
	}()
	<-ready

	pub.Publish(ctx,
		Message{Scope: timeline.Home(1), Event: Event{Event: EventUpdate, Payload: map[string]any{"id": "10"}}},
		Message{Scope: timeline.Hashtag("go"), Event: Event{Event: EventUpdate, Payload: "ignored"}},
		Message{Scope: timeline.Public(), Event: Event{Event: EventDelete, Payload: "10"}},
	)

	first := <-got
	assert.Equal(t, timeline.Home(1), first.Scope)
	assert.Equal(t, EventUpdate, first.Event)
	assert.JSONEq(t, `{"id":"10"}`, string(first.Payload))

	second := <-got
	assert.Equal(t, timeline.Public(), second.Scope)
	assert.Equal(t, EventDelete, second.Event)

	cancel()
	require.NoError(t, <-done)
}

func TestPublishToDeadRedisDoesNotPanic(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	pub := NewRedisPublisher(client)
	mr.Close()

	pub.Publish(context.Background(), Message{Scope: timeline.Public(), Event: Event{Event: EventUpdate}})
}

func TestLiveScopes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	pub := NewRedisPublisher(client)
	ctx := context.Background()

	require.NoError(t, pub.MarkSubscribed(ctx, timeline.Home(1), time.Minute))
	require.NoError(t, pub.MarkSubscribed(ctx, timeline.Home(2), time.Minute))
	require.NoError(t, pub.MarkSubscribed(ctx, timeline.Public(), time.Minute))

	live, err := pub.LiveScopes(ctx, "home:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []timeline.Scope{timeline.Home(1), timeline.Home(2)}, live)

	// 连接断开后不再续期，标记随 TTL 过期
	require.NoError(t, pub.MarkSubscribed(ctx, timeline.Home(2), 3*time.Minute))
	mr.FastForward(2 * time.Minute)
	live, err = pub.LiveScopes(ctx, "home:")
	require.NoError(t, err)
	assert.Equal(t, []timeline.Scope{timeline.Home(2)}, live)

	mr.FastForward(2 * time.Minute)
	live, err = pub.LiveScopes(ctx, "home:")
	require.NoError(t, err)
	assert.Empty(t, live)
}
