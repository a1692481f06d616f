// Package service holds the business rules of the platform: sessions, the
// relationship ledger, the read-side view composer, engagement recording
// and content management.  Services depend on the small store interfaces
// below; the repository package provides the SQL implementations.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/streamhub/internal/model"
	"github.com/iliyamo/streamhub/internal/queue"
	"github.com/iliyamo/streamhub/internal/repository"
)

// UserStore persists identities.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByLogin(ctx context.Context, usernameOrEmail string) (model.User, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	SetRefreshHash(ctx context.Context, id uint64, hash string) error
	RotateRefreshHash(ctx context.Context, id uint64, oldHash, newHash string) (bool, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	UpdateAccount(ctx context.Context, id uint64, fullName, email string) error
	UpdateAvatar(ctx context.Context, id uint64, url string) error
	UpdateCoverImage(ctx context.Context, id uint64, url string) error
}

// VideoStore persists videos.
type VideoStore interface {
	Create(ctx context.Context, v model.Video) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Video, error)
	UpdateDetails(ctx context.Context, v model.Video) error
	SetPublished(ctx context.Context, id uint64, published bool) error
	IncrementViews(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
	Feed(ctx context.Context, q repository.VideoFeedQuery) ([]model.VideoSummary, int64, error)
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, videoID, ownerID uint64, content string) (model.Comment, error)
	GetByID(ctx context.Context, id uint64) (model.Comment, error)
	UpdateContent(ctx context.Context, id uint64, content string) (time.Time, error)
	Delete(ctx context.Context, id uint64) error
	DeleteForVideo(ctx context.Context, videoID uint64) error
	CountByVideo(ctx context.Context, videoID uint64) (int64, error)
	ListByVideo(ctx context.Context, videoID, viewerID uint64, page, limit int) ([]model.CommentView, int64, error)
}

// SubscriptionStore holds subscriber -> channel edges.
type SubscriptionStore interface {
	Add(ctx context.Context, subscriberID, channelID uint64) error
	Remove(ctx context.Context, subscriberID, channelID uint64) (bool, error)
	Exists(ctx context.Context, subscriberID, channelID uint64) (bool, error)
	CountSubscribers(ctx context.Context, channelID uint64) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID uint64) (int64, error)
	ListSubscribers(ctx context.Context, channelID uint64, page, limit int) ([]model.ChannelSummary, int64, error)
	ListSubscribedChannels(ctx context.Context, subscriberID uint64, page, limit int) ([]model.ChannelSummary, int64, error)
}

// LikeStore holds actor -> video/comment edges.
type LikeStore interface {
	Add(ctx context.Context, actorID uint64, kind model.LikeTarget, targetID uint64) error
	Remove(ctx context.Context, actorID uint64, kind model.LikeTarget, targetID uint64) (bool, error)
	Exists(ctx context.Context, actorID uint64, kind model.LikeTarget, targetID uint64) (bool, error)
	Count(ctx context.Context, kind model.LikeTarget, targetID uint64) (int64, error)
	DeleteForTarget(ctx context.Context, kind model.LikeTarget, targetID uint64) error
	DeleteForVideoComments(ctx context.Context, videoID uint64) error
	ListLikedVideos(ctx context.Context, actorID uint64, page, limit int) ([]model.VideoSummary, int64, error)
}

// HistoryStore keeps watch histories.
type HistoryStore interface {
	Add(ctx context.Context, userID, videoID uint64) (bool, error)
	List(ctx context.Context, userID uint64, limit int) ([]model.VideoSummary, error)
}

// EventPublisher receives engagement events after a change is stored.
// Implementations must not block.
type EventPublisher interface {
	Publish(ev queue.EngagementEvent)
}

// SearchProvider resolves a free-text query to candidate video ids.  The
// feed falls back to a SQL LIKE filter when no provider is configured.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]uint64, error)
}
