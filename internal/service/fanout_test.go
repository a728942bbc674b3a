package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/realtime"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/pkg/redis"
	"github.com/d60-Lab/timeline-fanout/pkg/snowflake"
)

func TestPublishThenDeleteReachesFollowersAndPublicScopes(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.follow(2, 1, true)
	id := e.sid(100)
	e.status(&model.Status{ID: id, AccountID: 1})

	e.publish(id)

	want := scopes(timeline.Home(1), timeline.Home(2), timeline.Public(), timeline.PublicLocal())
	for _, sc := range want {
		assert.Equal(t, []int64{id}, e.entries(sc), sc)
	}
	assert.Empty(t, e.entries(timeline.PublicRemote()))
	assert.Equal(t, want, e.pub.scopes(realtime.EventUpdate))

	// a second delivery mutates nothing and publishes nothing
	e.pub.reset()
	e.publish(id)
	assert.Empty(t, e.pub.scopes(realtime.EventUpdate))

	require.NoError(t, e.engine.OnDelete(e.ctx, id, DeleteOptions{}))
	for _, sc := range want {
		assert.Empty(t, e.entries(sc), sc)
	}
	assert.Equal(t, want, e.pub.scopes(realtime.EventDelete))

	s, err := e.statuses.FindWithDiscarded(e.ctx, id)
	require.NoError(t, err)
	assert.True(t, s.Discarded())
}

func TestPublishSkipsInactiveAndRemoteFollowers(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.inactiveAccount(2)
	e.account(3, "remote.example")
	e.follow(2, 1, true)
	e.follow(3, 1, true)
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1, Visibility: model.VisibilityUnlisted})

	e.publish(id)

	assert.Equal(t, []int64{id}, e.entries(timeline.Home(1)))
	assert.Empty(t, e.entries(timeline.Home(2)))
	assert.Empty(t, e.entries(timeline.Home(3)))
	assert.Empty(t, e.entries(timeline.Public()), "unlisted stays out of broadcast scopes")
}

func TestRemoteAuthorBroadcastScopes(t *testing.T) {
	e := newEnv(t)
	e.account(1, "Remote.Example")
	e.account(2, "")
	e.follow(2, 1, true)
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1, HasMedia: true, Tags: []model.StatusTag{{Name: "go"}}})

	e.publish(id)

	assert.Empty(t, e.entries(timeline.Home(1)), "remote authors have no home here")
	assert.Equal(t, []int64{id}, e.entries(timeline.Home(2)))
	want := scopes(
		timeline.Home(2),
		timeline.Public(), timeline.Public().Media(),
		timeline.PublicRemote(), timeline.PublicRemote().Media(),
		timeline.PublicDomain("remote.example"), timeline.PublicDomain("remote.example").Media(),
		timeline.Hashtag("go"), timeline.Hashtag("go").Media(),
	)
	assert.Equal(t, want, e.pub.scopes(realtime.EventUpdate))
	assert.Empty(t, e.entries(timeline.HashtagLocal("go")))
}

func TestLocalHashtagAndGroupScopes(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.db.Create(&model.Account{ID: 1, Username: "g", Group: true, LastActiveAt: e.now}).Error)
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1, Tags: []model.StatusTag{{Name: "news"}}})

	e.publish(id)

	for _, sc := range []timeline.Scope{timeline.Hashtag("news"), timeline.HashtagLocal("news"), timeline.Group(1)} {
		assert.Equal(t, []int64{id}, e.entries(sc), sc)
	}
	assert.Empty(t, e.entries(timeline.Group(1).Media()))
}

func TestBroadcastCutoff(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.follow(2, 1, true)
	old := snowflake.IDAt(e.now.Add(-15 * 24 * time.Hour))
	e.status(&model.Status{ID: old, AccountID: 1})

	e.publish(old)

	assert.Equal(t, []int64{old}, e.entries(timeline.Home(2)))
	assert.Empty(t, e.entries(timeline.Public()))
	assert.Empty(t, e.entries(timeline.PublicLocal()))
}

func TestDeleteReblogKeepsOriginal(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.account(3, "")
	e.follow(3, 2, true)
	orig := e.sid(100)
	rb := e.sid(150)
	e.status(&model.Status{ID: orig, AccountID: 1})
	e.reblog(rb, 2, orig)
	e.publish(orig)
	e.publish(rb)

	assert.Equal(t, []int64{rb}, e.entries(timeline.Home(3)))
	assert.Equal(t, []int64{rb}, e.entries(timeline.Home(2)))
	assert.Equal(t, []int64{orig}, e.entries(timeline.Public()), "reblogs never enter broadcast scopes")

	e.pub.reset()
	require.NoError(t, e.engine.OnDelete(e.ctx, rb, DeleteOptions{}))

	assert.Empty(t, e.entries(timeline.Home(3)))
	assert.Empty(t, e.entries(timeline.Home(2)))
	assert.Equal(t, []int64{orig}, e.entries(timeline.Home(1)))
	assert.Equal(t, []int64{orig}, e.entries(timeline.Public()))
	assert.Equal(t, scopes(timeline.Home(2), timeline.Home(3)), e.pub.scopes(realtime.EventDelete))
}

func TestDeleteOriginalCascadesToReblogsSilently(t *testing.T) {
	e := newEnv(t)
	for id := int64(1); id <= 5; id++ {
		e.account(id, "")
	}
	e.follow(4, 2, true)
	e.follow(5, 3, true)
	orig := e.sid(100)
	rb1, rb2 := e.sid(150), e.sid(160)
	e.status(&model.Status{ID: orig, AccountID: 1})
	e.reblog(rb1, 2, orig)
	e.reblog(rb2, 3, orig)
	for _, id := range []int64{orig, rb1, rb2} {
		e.publish(id)
	}
	require.Equal(t, []int64{rb1}, e.entries(timeline.Home(4)))
	require.Equal(t, []int64{rb2}, e.entries(timeline.Home(5)))

	e.pub.reset()
	require.NoError(t, e.engine.OnDelete(e.ctx, orig, DeleteOptions{Immediate: true}))

	for id := int64(1); id <= 5; id++ {
		assert.Empty(t, e.entries(timeline.Home(id)), id)
	}
	assert.Empty(t, e.entries(timeline.Public()))

	deleted := e.pub.scopes(realtime.EventDelete)
	assert.Equal(t, scopes(timeline.Home(1), timeline.Public(), timeline.PublicLocal()), deleted)
	for _, m := range e.pub.msgs {
		assert.Equal(t, strconv.FormatInt(orig, 10), m.Event.Payload, "no retraction for cascaded reblogs")
	}

	for _, id := range []int64{orig, rb1, rb2} {
		_, err := e.statuses.FindWithDiscarded(e.ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound, "immediate delete destroys %d", id)
	}
}

func TestShowReblogsFalseSkipsReblogs(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.account(3, "")
	e.follow(3, 2, false)
	orig := e.sid(1)
	rb := e.sid(2)
	e.status(&model.Status{ID: orig, AccountID: 1})
	e.reblog(rb, 2, orig)

	e.publish(rb)

	assert.Empty(t, e.entries(timeline.Home(3)))
	assert.Equal(t, []int64{rb}, e.entries(timeline.Home(2)))
}

func TestReblogOfOwnStatusNotDeliveredBack(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.follow(1, 2, true)
	orig := e.sid(1)
	rb := e.sid(2)
	e.status(&model.Status{ID: orig, AccountID: 1})
	e.reblog(rb, 2, orig)

	e.publish(rb)

	assert.Empty(t, e.entries(timeline.Home(1)))
}

func TestDirectStatusOnlyReachesMentionedAccounts(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.account(3, "")
	e.follow(3, 1, true)
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1, Visibility: model.VisibilityDirect, Mentions: []model.Mention{{AccountID: 2}}})

	e.publish(id)

	assert.Equal(t, []int64{id}, e.entries(timeline.Home(1)))
	assert.Equal(t, []int64{id}, e.entries(timeline.Home(2)))
	assert.Empty(t, e.entries(timeline.Home(3)))
	assert.Empty(t, e.entries(timeline.Public()))
}

func TestSubscriptionFilters(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.account(3, "")
	list := &model.List{AccountID: 3, Title: "art"}
	require.NoError(t, e.rels.CreateList(e.ctx, list))
	require.NoError(t, e.rels.Subscribe(e.ctx, &model.AccountSubscribe{AccountID: 2, TargetAccountID: 1, ShowReblogs: true, MediaOnly: true}))
	require.NoError(t, e.rels.Subscribe(e.ctx, &model.AccountSubscribe{AccountID: 3, TargetAccountID: 1, ListID: list.ID, ShowReblogs: true}))

	text := e.sid(1)
	media := e.sid(2)
	private := e.sid(3)
	e.status(&model.Status{ID: text, AccountID: 1})
	e.status(&model.Status{ID: media, AccountID: 1, HasMedia: true})
	e.status(&model.Status{ID: private, AccountID: 1, Visibility: model.VisibilityPrivate, HasMedia: true})
	for _, id := range []int64{text, media, private} {
		e.publish(id)
	}

	assert.Equal(t, []int64{media}, e.entries(timeline.Home(2)), "media only, never private")
	assert.Equal(t, []int64{media, text}, e.entries(timeline.List(list.ID)))
	assert.Empty(t, e.entries(timeline.Home(3)))
}

func TestListsContainingAuthor(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	list := &model.List{AccountID: 2, Title: "friends"}
	require.NoError(t, e.rels.CreateList(e.ctx, list))
	require.NoError(t, e.rels.AddListMember(e.ctx, list.ID, 1))
	pub := e.sid(1)
	priv := e.sid(2)
	e.status(&model.Status{ID: pub, AccountID: 1})
	e.status(&model.Status{ID: priv, AccountID: 1, Visibility: model.VisibilityPrivate})

	e.publish(pub)
	e.publish(priv)

	assert.Equal(t, []int64{pub}, e.entries(timeline.List(list.ID)), "private needs a follow")
}

func TestMutedAuthorFilteredFromHome(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	e.account(2, "")
	e.follow(2, 1, true)
	require.NoError(t, e.filters.Mute(e.ctx, 2, 1))
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1})

	e.publish(id)

	assert.Empty(t, e.entries(timeline.Home(2)))
	assert.Equal(t, []int64{id}, e.entries(timeline.Public()))
}

func TestConcurrentDeleteIsRaceCondition(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1})
	e.publish(id)

	lock, err := redis.Acquire(e.ctx, e.client, "distribute:"+strconv.FormatInt(id, 10), time.Minute)
	require.NoError(t, err)

	err = e.engine.OnDelete(e.ctx, id, DeleteOptions{})
	assert.ErrorIs(t, err, ErrRaceCondition)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, []int64{id}, e.entries(timeline.Home(1)))

	require.NoError(t, lock.Release(e.ctx))
	require.NoError(t, e.engine.OnDelete(e.ctx, id, DeleteOptions{}))
	assert.Empty(t, e.entries(timeline.Home(1)))
}

func TestDeleteUnavailableStore(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1})
	e.mr.Close()

	err := e.engine.OnDelete(context.Background(), id, DeleteOptions{})
	assert.ErrorIs(t, err, timeline.ErrUnavailable)
	assert.ErrorIs(t, e.engine.OnPublish(context.Background(), id), timeline.ErrUnavailable)
}

func TestExpireMarkKeepsEntries(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1,
		Expire: &model.StatusExpire{ExpiresAt: e.now.Add(time.Hour), Action: model.ExpireMark}})
	e.publish(id)
	_, err := e.feed.Hydrate(e.ctx, []int64{id})
	require.NoError(t, err)
	e.pub.reset()

	require.NoError(t, e.engine.OnExpire(e.ctx, id, model.ExpireMark))
	assert.Empty(t, e.pub.msgs, "not yet due")

	e.now = e.now.Add(2 * time.Hour)
	require.NoError(t, e.engine.OnExpire(e.ctx, id, model.ExpireMark))

	assert.Equal(t, []int64{id}, e.entries(timeline.Home(1)))
	assert.Equal(t, []int64{id}, e.entries(timeline.Public()))
	assert.Equal(t, scopes(timeline.Public(), timeline.PublicLocal()), e.pub.scopes(realtime.EventExpire))

	s, err := e.statuses.Find(e.ctx, id)
	require.NoError(t, err)
	assert.True(t, s.Expired())
	assert.Nil(t, s.Expire)

	items, err := e.feed.Hydrate(e.ctx, []int64{id})
	require.NoError(t, err)
	assert.Empty(t, items, "cached rendering purged and expired statuses not hydrated")

	// the record is gone, a repeated job does nothing
	e.pub.reset()
	require.NoError(t, e.engine.OnExpire(e.ctx, id, model.ExpireMark))
	assert.Empty(t, e.pub.msgs)
}

func TestExpireDeleteBehavesLikeDelete(t *testing.T) {
	e := newEnv(t)
	e.account(1, "")
	id := e.sid(1)
	e.status(&model.Status{ID: id, AccountID: 1,
		Expire: &model.StatusExpire{ExpiresAt: e.now, Action: model.ExpireDelete}})
	e.publish(id)

	require.NoError(t, e.engine.OnExpire(e.ctx, id, model.ExpireDelete))

	assert.Empty(t, e.entries(timeline.Home(1)))
	assert.Empty(t, e.entries(timeline.Public()))
	_, err := e.statuses.FindWithDiscarded(e.ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPublishMissingStatusIsNotFound(t *testing.T) {
	e := newEnv(t)
	assert.ErrorIs(t, e.engine.OnPublish(e.ctx, 12345), repository.ErrNotFound)
}
