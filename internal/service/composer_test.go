package service_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/streamhub/internal/database/dbtest"
	"github.com/iliyamo/streamhub/internal/queue"
	"github.com/iliyamo/streamhub/internal/service"
)

func TestChannelProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	carol := e.register(t, "carol")

	_, err := e.ledger.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = e.ledger.ToggleSubscription(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	_, err = e.ledger.ToggleSubscription(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	p, err := e.composer.ChannelProfile(ctx, bob.ID, "Alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, p.ID)
	assert.EqualValues(t, 2, p.SubscribersCount)
	assert.EqualValues(t, 1, p.SubscribedToCount)
	assert.True(t, p.IsSubscribed)

	anon, err := e.composer.ChannelProfile(ctx, 0, "alice")
	require.NoError(t, err)
	assert.False(t, anon.IsSubscribed)

	_, err = e.composer.ChannelProfile(ctx, 0, "ghost")
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = e.composer.ChannelProfile(ctx, 0, " ")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestVideoDetailRecordsViews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	v := e.publish(t, alice.ID, "v1")
	_, err := e.content.AddComment(ctx, bob.ID, v.ID, "nice")
	require.NoError(t, err)
	_, err = e.ledger.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		d, err := e.composer.VideoDetail(ctx, bob.ID, v.ID)
		require.NoError(t, err)
		assert.EqualValues(t, i, d.Views)
		assert.EqualValues(t, 1, d.CommentsCount)
		assert.Equal(t, "alice", d.Owner.Username)
		assert.EqualValues(t, 1, d.Owner.SubscribersCount)
		assert.True(t, d.Owner.IsSubscribed)
	}

	stored, err := e.videos.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stored.Views)
	assert.Len(t, e.events.ofType(queue.VideoViewed), 3)

	hist, err := e.composer.WatchHistory(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1, "re-watching does not duplicate history")
	assert.Equal(t, v.ID, hist[0].ID)
	assert.Equal(t, "alice", hist[0].Owner.Username)
}

func TestVideoDetailAnonymousAndHidden(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	v := e.publish(t, alice.ID, "v1")

	d, err := e.composer.VideoDetail(ctx, 0, v.ID)
	require.NoError(t, err)
	assert.False(t, d.IsLiked)
	assert.False(t, d.Owner.IsSubscribed)
	assert.Zero(t, dbtest.Count(t, e.db, "SELECT COUNT(*) FROM watch_history"))

	_, err = e.composer.VideoDetail(ctx, bob.ID, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = e.content.TogglePublish(ctx, alice.ID, v.ID)
	require.NoError(t, err)
	_, err = e.composer.VideoDetail(ctx, bob.ID, v.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = e.composer.VideoDetail(ctx, alice.ID, v.ID)
	assert.NoError(t, err)
}

func TestWatchHistoryOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	v1 := e.publish(t, alice.ID, "v1")
	v2 := e.publish(t, alice.ID, "v2")
	v3 := e.publish(t, alice.ID, "v3")

	for _, id := range []uint64{v2.ID, v1.ID, v2.ID, v3.ID, v1.ID} {
		_, err := e.composer.VideoDetail(ctx, bob.ID, id)
		require.NoError(t, err)
	}
	hist, err := e.composer.WatchHistory(ctx, bob.ID)
	require.NoError(t, err)
	var ids []uint64
	for _, h := range hist {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []uint64{v2.ID, v1.ID, v3.ID}, ids)

	_, err = e.composer.WatchHistory(ctx, 0)
	assert.ErrorIs(t, err, service.ErrAuth)
}

func TestWatchHistoryHidesUnpublished(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	v1 := e.publish(t, alice.ID, "v1")
	v2 := e.publish(t, alice.ID, "v2")
	for _, viewer := range []uint64{alice.ID, bob.ID} {
		for _, id := range []uint64{v1.ID, v2.ID} {
			_, err := e.composer.VideoDetail(ctx, viewer, id)
			require.NoError(t, err)
		}
	}

	_, err := e.content.TogglePublish(ctx, alice.ID, v1.ID)
	require.NoError(t, err)
	hist, err := e.composer.WatchHistory(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, v2.ID, hist[0].ID)

	hist, err = e.composer.WatchHistory(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 2, "owners still see their own drafts")

	_, err = e.content.TogglePublish(ctx, alice.ID, v1.ID)
	require.NoError(t, err)
	hist, err = e.composer.WatchHistory(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, v1.ID, hist[0].ID, "republished videos keep their place")
}

func TestCommentFeedPagination(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	v := e.publish(t, alice.ID, "v1")

	for i := 1; i <= 25; i++ {
		_, err := e.content.AddComment(ctx, alice.ID, v.ID, fmt.Sprintf("c%02d", i))
		require.NoError(t, err)
	}

	p, err := e.composer.CommentFeed(ctx, bob.ID, v.ID, service.PageRequest{Page: 3, Limit: 10})
	require.NoError(t, err)
	require.Len(t, p.Docs, 5)
	for i, c := range p.Docs {
		assert.Equal(t, fmt.Sprintf("c%02d", 21+i), c.Content)
		assert.Equal(t, "alice", c.Owner.Username)
		assert.False(t, c.IsLiked)
	}
	assert.EqualValues(t, 25, p.TotalDocs)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)

	first, err := e.composer.CommentFeed(ctx, bob.ID, v.ID, service.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 10, first.Limit)
	assert.Equal(t, "c01", first.Docs[0].Content)

	far, err := e.composer.CommentFeed(ctx, bob.ID, v.ID, service.PageRequest{Page: math.MaxInt, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, far.Docs)
	assert.EqualValues(t, 25, far.TotalDocs)
	assert.False(t, far.HasNextPage)

	_, err = e.composer.CommentFeed(ctx, bob.ID, 999, service.PageRequest{})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCommentFeedLikeFlags(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	v := e.publish(t, alice.ID, "v1")
	c, err := e.content.AddComment(ctx, alice.ID, v.ID, "hello")
	require.NoError(t, err)

	_, err = e.ledger.ToggleCommentLike(ctx, bob.ID, c.ID)
	require.NoError(t, err)

	p, err := e.composer.CommentFeed(ctx, bob.ID, v.ID, service.PageRequest{})
	require.NoError(t, err)
	require.Len(t, p.Docs, 1)
	assert.True(t, p.Docs[0].IsLiked)
	assert.EqualValues(t, 1, p.Docs[0].LikesCount)

	p, err = e.composer.CommentFeed(ctx, alice.ID, v.ID, service.PageRequest{})
	require.NoError(t, err)
	assert.False(t, p.Docs[0].IsLiked)
	assert.EqualValues(t, 1, p.Docs[0].LikesCount)
}

type fixedSearch struct{ ids []uint64 }

func (f fixedSearch) Search(context.Context, string, int) ([]uint64, error) { return f.ids, nil }

func TestVideoFeed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	a := e.publish(t, alice.ID, "alpha")
	b := e.publish(t, alice.ID, "bravo")
	c := e.publish(t, alice.ID, "charlie")
	_, err := e.content.TogglePublish(ctx, alice.ID, c.ID)
	require.NoError(t, err)

	p, err := e.composer.VideoFeed(ctx, service.FeedQuery{})
	require.NoError(t, err)
	require.Len(t, p.Docs, 2, "unpublished videos are not listed")
	assert.Equal(t, b.ID, p.Docs[0].ID, "newest first by default")

	p, err = e.composer.VideoFeed(ctx, service.FeedQuery{SortBy: "title", SortType: "asc"})
	require.NoError(t, err)
	assert.Equal(t, "alpha", p.Docs[0].Title)

	p, err = e.composer.VideoFeed(ctx, service.FeedQuery{Query: "BRA"})
	require.NoError(t, err)
	require.Len(t, p.Docs, 1)
	assert.Equal(t, b.ID, p.Docs[0].ID)

	_, err = e.composer.VideoFeed(ctx, service.FeedQuery{SortBy: "password_hash"})
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = e.composer.VideoFeed(ctx, service.FeedQuery{SortType: "sideways"})
	assert.ErrorIs(t, err, service.ErrValidation)

	p, err = e.composer.VideoFeed(ctx, service.FeedQuery{PageRequest: service.PageRequest{Limit: 1000}})
	require.NoError(t, err)
	assert.Equal(t, 100, p.Limit)

	for _, page := range []int{math.MaxInt, math.MaxInt / 5, math.MaxInt/5 + 2} {
		p, err = e.composer.VideoFeed(ctx, service.FeedQuery{PageRequest: service.PageRequest{Page: page, Limit: 5}})
		require.NoError(t, err, "page %d", page)
		assert.Empty(t, p.Docs, "page %d", page)
		assert.EqualValues(t, 2, p.TotalDocs)
	}

	searching := service.NewComposer(service.ComposerConfig{}, service.ComposerDeps{
		Users: e.users, Videos: e.videos, Search: fixedSearch{ids: []uint64{a.ID, c.ID}},
	})
	p, err = searching.VideoFeed(ctx, service.FeedQuery{Query: "anything"})
	require.NoError(t, err)
	require.Len(t, p.Docs, 1)
	assert.Equal(t, a.ID, p.Docs[0].ID)

	p, err = service.NewComposer(service.ComposerConfig{}, service.ComposerDeps{
		Videos: e.videos, Search: fixedSearch{},
	}).VideoFeed(ctx, service.FeedQuery{Query: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, p.Docs)
	assert.NotNil(t, p.Docs)
}

func TestLikedVideosAndSubscriptionLists(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	carol := e.register(t, "carol")
	v1 := e.publish(t, alice.ID, "v1")
	v2 := e.publish(t, alice.ID, "v2")

	_, err := e.ledger.ToggleVideoLike(ctx, bob.ID, v1.ID)
	require.NoError(t, err)
	_, err = e.ledger.ToggleVideoLike(ctx, bob.ID, v2.ID)
	require.NoError(t, err)

	liked, err := e.composer.LikedVideos(ctx, bob.ID, service.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, liked.TotalDocs)

	_, err = e.ledger.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = e.ledger.ToggleSubscription(ctx, carol.ID, alice.ID)
	require.NoError(t, err)

	subs, err := e.composer.ChannelSubscribers(ctx, alice.ID, service.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, subs.TotalDocs)

	chans, err := e.composer.SubscribedChannels(ctx, bob.ID, service.PageRequest{})
	require.NoError(t, err)
	require.Len(t, chans.Docs, 1)
	assert.Equal(t, "alice", chans.Docs[0].Username)

	_, err = e.composer.ChannelSubscribers(ctx, 999, service.PageRequest{})
	assert.ErrorIs(t, err, service.ErrNotFound)
}
