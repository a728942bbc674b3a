package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/timeline-fanout/internal/jobs"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/realtime"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
)

func (e *env) outbox(kind string) []model.Outbox {
	e.t.Helper()
	var rows []model.Outbox
	require.NoError(e.t, e.db.Where("kind = ?", kind).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func TestCreateStatusFansOutThroughOutbox(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.follow(2, 1, true)

	st, err := e.statusSvc.Create(e.ctx, CreateStatus{AccountID: 1, Text: "hi", Tags: []string{"#Go", "go"}})
	require.NoError(t, err)
	require.Len(t, st.Tags, 1)

	assert.Empty(t, e.entries(timeline.Home(2)), "nothing until the job runs")
	e.drain()

	assert.Equal(t, []int64{st.ID}, e.entries(timeline.Home(1)))
	assert.Equal(t, []int64{st.ID}, e.entries(timeline.Home(2)))
	assert.Equal(t, []int64{st.ID}, e.entries(timeline.Public()))
	assert.Equal(t, []int64{st.ID}, e.entries(timeline.Hashtag("go")))

	rows := e.outbox(jobs.KindStatusPublish)
	require.Len(t, rows, 1)
	assert.Equal(t, model.OutboxDone, rows[0].Status)

	require.NoError(t, e.statusSvc.Delete(e.ctx, 1, st.ID))
	e.drain()
	assert.Empty(t, e.entries(timeline.Home(2)))
	assert.Empty(t, e.entries(timeline.Public()))
	assert.Contains(t, e.pub.scopes(realtime.EventDelete), timeline.Home(2))
}

func TestCreateStatusValidation(t *testing.T) {
	e := newEnv(t)
	_, err := e.statusSvc.Create(e.ctx, CreateStatus{AccountID: 1, Visibility: "secret"})
	assert.ErrorIs(t, err, ErrInvalidVisibility)
	assert.Empty(t, e.outbox(jobs.KindStatusPublish))
}

func TestDeleteRequiresOwner(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1})
	assert.ErrorIs(t, e.statusSvc.Delete(e.ctx, 2, id), ErrForbidden)
	assert.Empty(t, e.outbox(jobs.KindStatusDelete))
}

func TestPublishJobForVanishedStatusCompletes(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.queue.Enqueue(e.ctx, jobs.KindStatusPublish, StatusJob{StatusID: 12345}))
	e.drain()

	rows := e.outbox(jobs.KindStatusPublish)
	require.Len(t, rows, 1)
	assert.Equal(t, model.OutboxDone, rows[0].Status)
}

func TestReblogVisibilityAndReuse(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	pub := e.sid(1)
	priv := e.sid(2)
	dm := e.sid(3)
	e.status(&model.Status{ID: pub, AccountID: 1})
	e.status(&model.Status{ID: priv, AccountID: 1, Visibility: model.VisibilityPrivate})
	e.status(&model.Status{ID: dm, AccountID: 1, Visibility: model.VisibilityDirect})

	rb, err := e.statusSvc.Reblog(e.ctx, 2, pub)
	require.NoError(t, err)
	again, err := e.statusSvc.Reblog(e.ctx, 2, pub)
	require.NoError(t, err)
	assert.Equal(t, rb.ID, again.ID)

	// reblogging a reblog targets the original
	third, err := e.statusSvc.Reblog(e.ctx, 1, rb.ID)
	require.NoError(t, err)
	require.NotNil(t, third.ReblogOfID)
	assert.Equal(t, pub, *third.ReblogOfID)

	_, err = e.statusSvc.Reblog(e.ctx, 2, priv)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.statusSvc.Reblog(e.ctx, 1, priv)
	assert.NoError(t, err, "author may reblog own private status")
	_, err = e.statusSvc.Reblog(e.ctx, 1, dm)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestExpireJobScheduledAtExpiry(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	at := time.Now().Add(time.Hour)
	st, err := e.statusSvc.Create(e.ctx, CreateStatus{AccountID: 1, ExpiresAt: &at})
	require.NoError(t, err)

	rows := e.outbox(jobs.KindStatusExpire)
	require.Len(t, rows, 1)
	assert.WithinDuration(t, at, rows[0].AvailableAt, time.Second)

	e.drain()
	assert.Equal(t, model.OutboxPending, e.outbox(jobs.KindStatusExpire)[0].Status, "not due yet")
	_, err = e.statuses.Find(e.ctx, st.ID)
	assert.NoError(t, err)
}

func TestFollowAndUnfollowThroughOutbox(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	authored := seedAuthor(e, 1, 0, 3)

	assert.ErrorIs(t, e.relSvc.Follow(e.ctx, 2, 2, FollowOptions{}), ErrFollowSelf)
	assert.ErrorIs(t, e.relSvc.Follow(e.ctx, 2, 404, FollowOptions{Delivery: true}), repository.ErrNotFound)

	require.NoError(t, e.relSvc.Follow(e.ctx, 2, 1, FollowOptions{ShowReblogs: true, Delivery: true}))
	e.drain()
	assert.Equal(t, reversed(authored), e.entries(timeline.Home(2)))

	following, err := e.relSvc.ListFollowing(e.ctx, 2, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, following)
	followers, err := e.relSvc.ListFollowers(e.ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, followers)

	require.NoError(t, e.relSvc.Unfollow(e.ctx, 2, 1))
	e.drain()
	assert.Empty(t, e.entries(timeline.Home(2)))

	// unfollowing again enqueues nothing
	require.NoError(t, e.relSvc.Unfollow(e.ctx, 2, 1))
	assert.Len(t, e.outbox(jobs.KindRelationshipRemoved), 1)
}

func TestRefollowNarrowingPrunesHome(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.account(3, "")
	orig := e.sid(1)
	e.status(&model.Status{ID: orig, AccountID: 3})
	own := e.sid(2)
	e.status(&model.Status{ID: own, AccountID: 1})
	boost := e.sid(3)
	e.reblog(boost, 1, orig)

	require.NoError(t, e.relSvc.Follow(e.ctx, 2, 1, FollowOptions{ShowReblogs: true, Delivery: true}))
	e.drain()
	require.Equal(t, []int64{boost, own}, e.entries(timeline.Home(2)))
	assert.Empty(t, e.outbox(jobs.KindRelationshipRemoved))

	require.NoError(t, e.relSvc.Follow(e.ctx, 2, 1, FollowOptions{Delivery: true}))
	e.drain()
	assert.Equal(t, []int64{own}, e.entries(timeline.Home(2)), "reblogs turned off")

	require.NoError(t, e.relSvc.Follow(e.ctx, 2, 1, FollowOptions{}))
	e.drain()
	assert.Empty(t, e.entries(timeline.Home(2)), "delivery turned off")
	assert.Len(t, e.outbox(jobs.KindRelationshipRemoved), 2)

	// already not delivering, nothing more to prune
	require.NoError(t, e.relSvc.Follow(e.ctx, 2, 1, FollowOptions{Notify: true}))
	assert.Len(t, e.outbox(jobs.KindRelationshipRemoved), 2)
}

func TestResubscribeMediaOnlyPrunesHome(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	plain := e.sid(1)
	e.status(&model.Status{ID: plain, AccountID: 1})
	media := e.sid(2)
	e.status(&model.Status{ID: media, AccountID: 1, HasMedia: true})

	require.NoError(t, e.relSvc.Subscribe(e.ctx, 2, 1, SubscribeOptions{}))
	e.drain()
	require.Equal(t, []int64{media, plain}, e.entries(timeline.Home(2)))

	require.NoError(t, e.relSvc.Subscribe(e.ctx, 2, 1, SubscribeOptions{MediaOnly: true}))
	e.drain()
	assert.Equal(t, []int64{media}, e.entries(timeline.Home(2)))

	// widening again merges back
	require.NoError(t, e.relSvc.Subscribe(e.ctx, 2, 1, SubscribeOptions{}))
	e.drain()
	assert.Equal(t, []int64{media, plain}, e.entries(timeline.Home(2)))
	assert.Len(t, e.outbox(jobs.KindRelationshipRemoved), 1)
}

func TestListLifecycleThroughOutbox(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.account(3, "")
	authored := seedAuthor(e, 1, 0, 2)

	l, err := e.relSvc.CreateList(e.ctx, 2, "friends")
	require.NoError(t, err)
	assert.ErrorIs(t, e.relSvc.AddToList(e.ctx, 3, l.ID, 1), ErrForbidden)

	require.NoError(t, e.relSvc.AddToList(e.ctx, 2, l.ID, 1))
	e.drain()
	assert.Equal(t, reversed(authored), e.entries(timeline.List(l.ID)))

	// new statuses by the member reach the list in realtime
	id := e.sid(50)
	e.status(&model.Status{ID: id, AccountID: 1})
	e.publish(id)
	assert.Equal(t, id, e.entries(timeline.List(l.ID))[0])

	require.NoError(t, e.relSvc.DeleteList(e.ctx, 2, l.ID))
	e.drain()
	assert.Empty(t, e.entries(timeline.List(l.ID)))
}

func TestSubscribeToOwnListOnly(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.account(3, "")
	l, err := e.relSvc.CreateList(e.ctx, 3, "other")
	require.NoError(t, err)

	err = e.relSvc.Subscribe(e.ctx, 2, 1, SubscribeOptions{ListID: l.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	media := e.sid(1)
	e.status(&model.Status{ID: media, AccountID: 1, HasMedia: true})
	e.status(&model.Status{ID: e.sid(2), AccountID: 1})
	require.NoError(t, e.relSvc.Subscribe(e.ctx, 2, 1, SubscribeOptions{MediaOnly: true}))
	e.drain()
	assert.Equal(t, []int64{media}, e.entries(timeline.Home(2)))

	require.NoError(t, e.relSvc.Unsubscribe(e.ctx, 2, 1, 0))
	e.drain()
	assert.Empty(t, e.entries(timeline.Home(2)))
}

func TestTouchRegeneratesInactiveHome(t *testing.T) {
	e := newEnv(t)
	e.inactiveAccount(1)
	e.account(2, "")
	e.follow(1, 2, true)

	// published while 1 was inactive, so never delivered
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 2})
	e.publish(id)
	assert.Empty(t, e.entries(timeline.Home(1)))

	require.NoError(t, e.accountSvc.Touch(e.ctx, 1))
	require.Len(t, e.outbox(jobs.KindHomeRegenerate), 1)
	e.drain()
	assert.Equal(t, []int64{id}, e.entries(timeline.Home(1)))

	// an active account touching again queues nothing
	require.NoError(t, e.accountSvc.Touch(e.ctx, 2))
	assert.Len(t, e.outbox(jobs.KindHomeRegenerate), 1)
}

func TestRegisterAccount(t *testing.T) {
	e := newEnv(t)
	a, err := e.accountSvc.Register(e.ctx, "alice", "", false)
	require.NoError(t, err)
	assert.NotZero(t, a.ID)

	got, err := e.accounts.Find(e.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.Local())
}
