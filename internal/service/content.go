package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/iliyamo/streamhub/internal/logging"
	"github.com/iliyamo/streamhub/internal/model"
	"github.com/iliyamo/streamhub/internal/queue"
	"github.com/iliyamo/streamhub/internal/repository"
	"github.com/iliyamo/streamhub/internal/storage"
)

// Upload is one file from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PublishInput carries a new video.
type PublishInput struct {
	Title       string
	Description string
	Duration    float64
	Video       Upload
	Thumbnail   Upload
}

// UpdateVideoInput changes a video's details.  A nil Thumbnail keeps the
// current one.
type UpdateVideoInput struct {
	Title       string
	Description string
	Thumbnail   *Upload
}

// Content manages videos and comments.  Only the owner may change or
// delete them.
type Content struct {
	videos   VideoStore
	comments CommentStore
	likes    LikeStore
	media    storage.MediaStore
	events   EventPublisher
}

func NewContent(videos VideoStore, comments CommentStore, likes LikeStore, media storage.MediaStore, events EventPublisher) *Content {
	if events == nil {
		events = queue.Discard{}
	}
	return &Content{videos: videos, comments: comments, likes: likes, media: media, events: events}
}

// PublishVideo uploads the media and stores the video as published.
func (s *Content) PublishVideo(ctx context.Context, ownerID uint64, in PublishInput) (model.Video, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return model.Video{}, validation("title and description are required")
	}
	if in.Video.Body == nil {
		return model.Video{}, validation("video file is required")
	}
	if in.Thumbnail.Body == nil {
		return model.Video{}, validation("thumbnail is required")
	}
	if !strings.HasPrefix(in.Thumbnail.ContentType, "image/") {
		return model.Video{}, validation("thumbnail must be an image")
	}
	if in.Duration < 0 {
		return model.Video{}, validation("duration must not be negative")
	}

	v := model.Video{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Duration:    in.Duration,
		IsPublished: true,
	}
	var err error
	v.VideoKey = storage.Key("videos", in.Video.Filename)
	if v.VideoURL, err = s.media.Save(ctx, v.VideoKey, in.Video.Body, in.Video.ContentType); err != nil {
		return model.Video{}, internal("upload video", err)
	}
	v.ThumbnailKey = storage.Key("thumbnails", in.Thumbnail.Filename)
	if v.ThumbnailURL, err = s.media.Save(ctx, v.ThumbnailKey, in.Thumbnail.Body, in.Thumbnail.ContentType); err != nil {
		s.discard(ctx, v.VideoKey)
		return model.Video{}, internal("upload thumbnail", err)
	}

	id, err := s.videos.Create(ctx, v)
	if err != nil {
		s.discard(ctx, v.VideoKey, v.ThumbnailKey)
		return model.Video{}, internal("create video", err)
	}
	out, err := s.videos.GetByID(ctx, id)
	if err != nil {
		return model.Video{}, internal("load video", err)
	}
	s.events.Publish(queue.EngagementEvent{
		Type: queue.VideoPublished, ActorID: ownerID, TargetID: id, TargetKind: "video", Active: true,
	})
	return out, nil
}

// UpdateVideo changes title and description and optionally replaces the
// thumbnail.  The old thumbnail object is deleted after the row points at
// the new one.
func (s *Content) UpdateVideo(ctx context.Context, actorID, videoID uint64, in UpdateVideoInput) (model.Video, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return model.Video{}, validation("title and description are required")
	}
	v, err := s.ownedVideo(ctx, actorID, videoID)
	if err != nil {
		return model.Video{}, err
	}
	v.Title = strings.TrimSpace(in.Title)
	v.Description = strings.TrimSpace(in.Description)

	oldKey := ""
	if in.Thumbnail != nil && in.Thumbnail.Body != nil {
		if !strings.HasPrefix(in.Thumbnail.ContentType, "image/") {
			return model.Video{}, validation("thumbnail must be an image")
		}
		key := storage.Key("thumbnails", in.Thumbnail.Filename)
		url, err := s.media.Save(ctx, key, in.Thumbnail.Body, in.Thumbnail.ContentType)
		if err != nil {
			return model.Video{}, internal("upload thumbnail", err)
		}
		oldKey = v.ThumbnailKey
		v.ThumbnailKey, v.ThumbnailURL = key, url
	}

	if err := s.videos.UpdateDetails(ctx, v); err != nil {
		if oldKey != "" {
			s.discard(ctx, v.ThumbnailKey)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return model.Video{}, notFound("video not found")
		}
		return model.Video{}, internal("update video", err)
	}
	if oldKey != "" {
		s.discard(ctx, oldKey)
	}
	return s.loadVideo(ctx, videoID)
}

// DeleteVideo removes a video with its likes, its comments and their likes,
// and its media objects.  Watch history rows go with the video row.
func (s *Content) DeleteVideo(ctx context.Context, actorID, videoID uint64) error {
	v, err := s.ownedVideo(ctx, actorID, videoID)
	if err != nil {
		return err
	}
	if err := s.likes.DeleteForVideoComments(ctx, videoID); err != nil {
		return internal("delete comment likes", err)
	}
	if err := s.likes.DeleteForTarget(ctx, model.LikeVideo, videoID); err != nil {
		return internal("delete video likes", err)
	}
	if err := s.comments.DeleteForVideo(ctx, videoID); err != nil {
		return internal("delete comments", err)
	}
	if err := s.videos.Delete(ctx, videoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("video not found")
		}
		return internal("delete video", err)
	}
	s.discard(ctx, v.VideoKey, v.ThumbnailKey)
	return nil
}

// TogglePublish flips the published flag and returns the updated video.
func (s *Content) TogglePublish(ctx context.Context, actorID, videoID uint64) (model.Video, error) {
	v, err := s.ownedVideo(ctx, actorID, videoID)
	if err != nil {
		return model.Video{}, err
	}
	if err := s.videos.SetPublished(ctx, videoID, !v.IsPublished); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Video{}, notFound("video not found")
		}
		return model.Video{}, internal("toggle publish", err)
	}
	if !v.IsPublished {
		s.events.Publish(queue.EngagementEvent{
			Type: queue.VideoPublished, ActorID: actorID, TargetID: videoID, TargetKind: "video", Active: true,
		})
	}
	return s.loadVideo(ctx, videoID)
}

// AddComment stores a comment on a video the actor can see.
func (s *Content) AddComment(ctx context.Context, actorID, videoID uint64, content string) (model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, validation("content is required")
	}
	v, err := s.videos.GetByID(ctx, videoID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Comment{}, notFound("video not found")
	}
	if err != nil {
		return model.Comment{}, internal("load video", err)
	}
	if !v.IsPublished && v.OwnerID != actorID {
		return model.Comment{}, notFound("video not found")
	}

	c, err := s.comments.Create(ctx, videoID, actorID, content)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Comment{}, notFound("video not found")
	}
	if err != nil {
		return model.Comment{}, internal("create comment", err)
	}
	s.events.Publish(queue.EngagementEvent{
		Type: queue.CommentAdded, ActorID: actorID, TargetID: videoID, TargetKind: "video",
	})
	return c, nil
}

// UpdateComment rewrites a comment owned by the actor.
func (s *Content) UpdateComment(ctx context.Context, actorID, commentID uint64, content string) (model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, validation("content is required")
	}
	c, err := s.ownedComment(ctx, actorID, commentID)
	if err != nil {
		return model.Comment{}, err
	}
	at, err := s.comments.UpdateContent(ctx, commentID, content)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Comment{}, notFound("comment not found")
	}
	if err != nil {
		return model.Comment{}, internal("update comment", err)
	}
	c.Content, c.UpdatedAt = content, at
	return c, nil
}

// DeleteComment removes a comment owned by the actor and its likes.
func (s *Content) DeleteComment(ctx context.Context, actorID, commentID uint64) error {
	if _, err := s.ownedComment(ctx, actorID, commentID); err != nil {
		return err
	}
	if err := s.likes.DeleteForTarget(ctx, model.LikeComment, commentID); err != nil {
		return internal("delete comment likes", err)
	}
	err := s.comments.Delete(ctx, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("comment not found")
	}
	if err != nil {
		return internal("delete comment", err)
	}
	return nil
}

func (s *Content) ownedVideo(ctx context.Context, actorID, videoID uint64) (model.Video, error) {
	v, err := s.videos.GetByID(ctx, videoID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Video{}, notFound("video not found")
	}
	if err != nil {
		return model.Video{}, internal("load video", err)
	}
	if v.OwnerID != actorID {
		return model.Video{}, forbidden("only the owner can change this video")
	}
	return v, nil
}

func (s *Content) ownedComment(ctx context.Context, actorID, commentID uint64) (model.Comment, error) {
	c, err := s.comments.GetByID(ctx, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Comment{}, notFound("comment not found")
	}
	if err != nil {
		return model.Comment{}, internal("load comment", err)
	}
	if c.OwnerID != actorID {
		return model.Comment{}, forbidden("only the owner can change this comment")
	}
	return c, nil
}

func (s *Content) loadVideo(ctx context.Context, id uint64) (model.Video, error) {
	v, err := s.videos.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Video{}, notFound("video not found")
	}
	if err != nil {
		return model.Video{}, internal("load video", err)
	}
	return v, nil
}

// discard deletes media objects that are no longer referenced.  Failures
// leave orphaned objects behind and are only logged.
func (s *Content) discard(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.media.Delete(context.WithoutCancel(ctx), k); err != nil {
			logging.FromContext(ctx).Warn("delete media object", "key", k, "err", err)
		}
	}
}
