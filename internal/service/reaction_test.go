package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/timeline-fanout/internal/jobs"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/realtime"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
)

func TestReactionAddIsIdempotentAndRemoveTwiceFails(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(3, "")
	id := e.sid(100)
	e.status(&model.Status{ID: id, AccountID: 1})
	x := model.ReactionIdentity{Name: "x"}

	require.NoError(t, e.reactionSvc.Change(e.ctx, id, x, 3, true))
	require.NoError(t, e.reactionSvc.Change(e.ctx, id, x, 3, true))
	assert.Len(t, e.outbox(jobs.KindReactionPublish), 1, "repeated add publishes once")

	aggs, err := e.reactionSvc.Aggregates(e.ctx, id, 3)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, int64(1), aggs[0].Count)
	assert.True(t, aggs[0].Me)

	aggs, err = e.reactionSvc.Aggregates(e.ctx, id, 1)
	require.NoError(t, err)
	assert.False(t, aggs[0].Me)

	require.NoError(t, e.reactionSvc.Change(e.ctx, id, x, 3, false))
	err = e.reactionSvc.Change(e.ctx, id, x, 3, false)
	assert.ErrorIs(t, err, ErrNotReacted)

	aggs, err = e.reactionSvc.Aggregates(e.ctx, id, 3)
	require.NoError(t, err)
	assert.Empty(t, aggs)
}

func TestReactionOnReblogCountsOnOriginal(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	orig := e.sid(1)
	rb := e.sid(2)
	e.status(&model.Status{ID: orig, AccountID: 1})
	e.reblog(rb, 2, orig)

	star := model.ReactionIdentity{Name: "star", CustomEmojiID: 7, Domain: "remote.example"}
	require.NoError(t, e.reactionSvc.Change(e.ctx, rb, star, 2, true))

	aggs, err := e.reactionSvc.Aggregates(e.ctx, orig, 0)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, model.ReactionAggregate{StatusID: orig, Name: "star", CustomEmojiID: 7, Domain: "remote.example", Count: 1}, aggs[0])
}

func TestReactionRejectsEmptyName(t *testing.T) {
	e := newEnv(t)
	assert.ErrorIs(t, e.reactionSvc.Change(e.ctx, 1, model.ReactionIdentity{Name: " "}, 1, true), ErrInvalidName)
}

func TestReactionJobPublishesAggregateToLiveHomes(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(3, "")
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1})
	e.pub.live = []timeline.Scope{timeline.Home(1), timeline.Home(3)}
	x := model.ReactionIdentity{Name: "x"}

	require.NoError(t, e.reactionSvc.Change(e.ctx, id, x, 3, true))
	require.NoError(t, e.reactionSvc.Change(e.ctx, id, x, 3, true))
	e.drain()

	assert.Equal(t, scopes(timeline.Home(1), timeline.Home(3)), e.pub.scopes(realtime.EventEmojiReaction), "one job, one event per live home")
	payload, ok := e.pub.msgs[0].Event.Payload.(model.ReactionAggregate)
	require.True(t, ok)
	assert.Equal(t, int64(1), payload.Count)
	assert.False(t, payload.Me)
}
