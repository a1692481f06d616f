package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/streamhub/internal/queue"
	"github.com/iliyamo/streamhub/internal/service"
)

func TestPublishVideo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	v := e.publish(t, alice.ID, "v1")
	assert.True(t, v.IsPublished)
	assert.Equal(t, alice.ID, v.OwnerID)
	assert.True(t, strings.HasPrefix(v.VideoURL, "/media/videos/"))
	assert.True(t, e.media.has(v.VideoKey))
	assert.True(t, e.media.has(v.ThumbnailKey))
	assert.Len(t, e.events.ofType(queue.VideoPublished), 1)

	_, err := e.content.PublishVideo(ctx, alice.ID, service.PublishInput{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = e.content.PublishVideo(ctx, alice.ID, service.PublishInput{
		Title: "t", Description: "d",
		Video:     service.Upload{Filename: "a.mp4", Body: strings.NewReader("v")},
		Thumbnail: service.Upload{Filename: "a.txt", ContentType: "text/plain", Body: strings.NewReader("t")},
	})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestPublishVideoCleansUpFailedUpload(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice")
	e.media.failOn = "thumbnails/"

	_, err := e.content.PublishVideo(context.Background(), alice.ID, service.PublishInput{
		Title: "t", Description: "d",
		Video:     service.Upload{Filename: "a.mp4", ContentType: "video/mp4", Body: strings.NewReader("v")},
		Thumbnail: service.Upload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("t")},
	})
	assert.ErrorIs(t, err, service.ErrInternal)
	assert.Zero(t, e.media.len(), "video object removed after thumbnail failure")
}

func TestVideoOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	v := e.publish(t, alice.ID, "v1")

	_, err := e.content.UpdateVideo(ctx, bob.ID, v.ID, service.UpdateVideoInput{Title: "x", Description: "y"})
	assert.ErrorIs(t, err, service.ErrForbidden)
	_, err = e.content.TogglePublish(ctx, bob.ID, v.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.ErrorIs(t, e.content.DeleteVideo(ctx, bob.ID, v.ID), service.ErrForbidden)

	_, err = e.content.UpdateVideo(ctx, alice.ID, 999, service.UpdateVideoInput{Title: "x", Description: "y"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	updated, err := e.content.UpdateVideo(ctx, alice.ID, v.ID, service.UpdateVideoInput{
		Title: "new title", Description: "new description",
		Thumbnail: &service.Upload{Filename: "n.jpg", ContentType: "image/jpeg", Body: strings.NewReader("n")},
	})
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, alice.ID, updated.OwnerID)
	assert.NotEqual(t, v.ThumbnailKey, updated.ThumbnailKey)
	assert.False(t, e.media.has(v.ThumbnailKey), "old thumbnail removed")
	assert.True(t, e.media.has(updated.ThumbnailKey))

	toggled, err := e.content.TogglePublish(ctx, alice.ID, v.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPublished)
}

func TestCommentOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	v := e.publish(t, alice.ID, "v1")

	c, err := e.content.AddComment(ctx, alice.ID, v.ID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", c.Content)

	_, err = e.content.AddComment(ctx, bob.ID, v.ID, " ")
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = e.content.AddComment(ctx, bob.ID, 999, "x")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = e.content.UpdateComment(ctx, bob.ID, c.ID, "hijack")
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.ErrorIs(t, e.content.DeleteComment(ctx, bob.ID, c.ID), service.ErrForbidden)

	updated, err := e.content.UpdateComment(ctx, alice.ID, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, alice.ID, updated.OwnerID)

	require.NoError(t, e.content.DeleteComment(ctx, alice.ID, c.ID))
	assert.ErrorIs(t, e.content.DeleteComment(ctx, alice.ID, c.ID), service.ErrNotFound)
}

func TestDeleteVideoCascade(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	v := e.publish(t, alice.ID, "v1")

	c, err := e.content.AddComment(ctx, bob.ID, v.ID, "hi")
	require.NoError(t, err)
	_, err = e.ledger.ToggleCommentLike(ctx, alice.ID, c.ID)
	require.NoError(t, err)
	_, err = e.ledger.ToggleVideoLike(ctx, bob.ID, v.ID)
	require.NoError(t, err)
	_, err = e.composer.VideoDetail(ctx, bob.ID, v.ID)
	require.NoError(t, err)

	require.NoError(t, e.content.DeleteVideo(ctx, alice.ID, v.ID))

	_, err = e.composer.VideoDetail(ctx, bob.ID, v.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = e.ledger.ToggleCommentLike(ctx, alice.ID, c.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	liked, err := e.composer.LikedVideos(ctx, bob.ID, service.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, liked.TotalDocs)

	hist, err := e.composer.WatchHistory(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, hist)

	assert.Zero(t, e.media.len())
}

func TestUpdateAvatar(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	_, err := e.account.UpdateAvatar(ctx, alice.ID, service.Upload{Filename: "a.txt", ContentType: "text/plain", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, service.ErrValidation)

	u, err := e.account.UpdateAvatar(ctx, alice.ID, service.Upload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.AvatarURL, "/media/avatars/"))

	u, err = e.account.UpdateCoverImage(ctx, alice.ID, service.Upload{Filename: "c.png", ContentType: "image/png", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.CoverImageURL, "/media/covers/"))
}
