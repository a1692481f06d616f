package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/streamhub/internal/logging"
	"github.com/iliyamo/streamhub/internal/metrics"
	"github.com/iliyamo/streamhub/internal/model"
	"github.com/iliyamo/streamhub/internal/queue"
	"github.com/iliyamo/streamhub/internal/repository"
)

// maxFlipAttempts bounds the delete/insert loop of a toggle.  Each retry
// requires another request to have flipped the same edge in between.
const maxFlipAttempts = 8

// SubscriptionToggle is the result of a subscription toggle.
type SubscriptionToggle struct {
	Subscribed       bool  `json:"subscribed"`
	SubscribersCount int64 `json:"subscribersCount"`
}

// LikeToggle is the result of a like toggle.
type LikeToggle struct {
	Liked      bool  `json:"isLiked"`
	LikesCount int64 `json:"likesCount"`
}

// Ledger toggles subscription and like edges.  An edge row's existence is
// the relationship state.  Toggles take no locks: the primary key on each
// edge table keeps at most one row, and a lost insert race is treated as
// "already present".
type Ledger struct {
	users    UserStore
	videos   VideoStore
	comments CommentStore
	subs     SubscriptionStore
	likes    LikeStore
	events   EventPublisher
}

func NewLedger(users UserStore, videos VideoStore, comments CommentStore, subs SubscriptionStore, likes LikeStore, events EventPublisher) *Ledger {
	if events == nil {
		events = queue.Discard{}
	}
	return &Ledger{users: users, videos: videos, comments: comments, subs: subs, likes: likes, events: events}
}

// ToggleSubscription flips the (viewer, channel) edge and returns the new
// state with the channel's subscriber count read after the change.
func (l *Ledger) ToggleSubscription(ctx context.Context, viewerID, channelID uint64) (SubscriptionToggle, error) {
	if viewerID == 0 {
		return SubscriptionToggle{}, unauthorized("unauthorized request")
	}
	if channelID == 0 {
		return SubscriptionToggle{}, validation("invalid channel id")
	}
	if viewerID == channelID {
		return SubscriptionToggle{}, validation("you cannot subscribe to your own channel")
	}
	ok, err := l.users.Exists(ctx, channelID)
	if err != nil {
		return SubscriptionToggle{}, internal("load channel", err)
	}
	if !ok {
		return SubscriptionToggle{}, notFound("channel not found")
	}

	on, err := flip(ctx, "subscription",
		func(ctx context.Context) (bool, error) { return l.subs.Remove(ctx, viewerID, channelID) },
		func(ctx context.Context) error { return l.subs.Add(ctx, viewerID, channelID) })
	if errors.Is(err, repository.ErrNotFound) {
		return SubscriptionToggle{}, notFound("channel not found")
	}
	if err != nil {
		return SubscriptionToggle{}, internal("toggle subscription", err)
	}

	n, err := l.subs.CountSubscribers(ctx, channelID)
	if err != nil {
		return SubscriptionToggle{}, internal("count subscribers", err)
	}
	l.events.Publish(queue.EngagementEvent{
		Type: queue.SubscriptionToggled, ActorID: viewerID, TargetID: channelID,
		TargetKind: "channel", Active: on, Count: n,
	})
	return SubscriptionToggle{Subscribed: on, SubscribersCount: n}, nil
}

// ToggleVideoLike flips the viewer's like on a video.  Unpublished videos
// can only be liked by their owner; to everyone else they do not exist.
func (l *Ledger) ToggleVideoLike(ctx context.Context, viewerID, videoID uint64) (LikeToggle, error) {
	if viewerID == 0 {
		return LikeToggle{}, unauthorized("unauthorized request")
	}
	v, err := l.videos.GetByID(ctx, videoID)
	if errors.Is(err, repository.ErrNotFound) {
		return LikeToggle{}, notFound("video not found")
	}
	if err != nil {
		return LikeToggle{}, internal("load video", err)
	}
	if !v.IsPublished && v.OwnerID != viewerID {
		return LikeToggle{}, notFound("video not found")
	}
	return l.toggleLike(ctx, viewerID, model.LikeVideo, videoID)
}

// ToggleCommentLike flips the viewer's like on a comment.  Comments under a
// video the viewer cannot see are reported as missing.
func (l *Ledger) ToggleCommentLike(ctx context.Context, viewerID, commentID uint64) (LikeToggle, error) {
	if viewerID == 0 {
		return LikeToggle{}, unauthorized("unauthorized request")
	}
	cm, err := l.comments.GetByID(ctx, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return LikeToggle{}, notFound("comment not found")
	}
	if err != nil {
		return LikeToggle{}, internal("load comment", err)
	}
	v, err := l.videos.GetByID(ctx, cm.VideoID)
	if errors.Is(err, repository.ErrNotFound) {
		return LikeToggle{}, notFound("comment not found")
	}
	if err != nil {
		return LikeToggle{}, internal("load video", err)
	}
	if !v.IsPublished && v.OwnerID != viewerID {
		return LikeToggle{}, notFound("comment not found")
	}
	return l.toggleLike(ctx, viewerID, model.LikeComment, commentID)
}

func (l *Ledger) toggleLike(ctx context.Context, viewerID uint64, kind model.LikeTarget, targetID uint64) (LikeToggle, error) {
	on, err := flip(ctx, string(kind)+"_like",
		func(ctx context.Context) (bool, error) { return l.likes.Remove(ctx, viewerID, kind, targetID) },
		func(ctx context.Context) error { return l.likes.Add(ctx, viewerID, kind, targetID) })
	if errors.Is(err, repository.ErrNotFound) {
		return LikeToggle{}, notFound(string(kind) + " not found")
	}
	if err != nil {
		return LikeToggle{}, internal("toggle like", err)
	}

	n, err := l.likes.Count(ctx, kind, targetID)
	if err != nil {
		return LikeToggle{}, internal("count likes", err)
	}
	l.events.Publish(queue.EngagementEvent{
		Type: queue.LikeToggled, ActorID: viewerID, TargetID: targetID,
		TargetKind: string(kind), Active: on, Count: n,
	})
	return LikeToggle{Liked: on, LikesCount: n}, nil
}

// flip performs exactly one state change on an edge and returns the new
// state.  A removed row means the edge was present.  Otherwise the insert
// is tried; ErrDuplicate means a concurrent request inserted the same edge
// between the two statements, so the edge counts as present and the loop
// goes back to removing it.
func flip(ctx context.Context, edge string,
	remove func(context.Context) (bool, error),
	add func(context.Context) error,
) (bool, error) {
	for attempt := 0; attempt < maxFlipAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if attempt > 0 {
			metrics.ToggleRetries.WithLabelValues(edge).Inc()
			logging.FromContext(ctx).Debug("toggle retry", "edge", edge, "attempt", attempt)
		}

		removed, err := remove(ctx)
		if err != nil {
			return false, err
		}
		if removed {
			metrics.Toggles.WithLabelValues(edge, metrics.State(false)).Inc()
			return false, nil
		}

		err = add(ctx)
		if err == nil {
			metrics.Toggles.WithLabelValues(edge, metrics.State(true)).Inc()
			return true, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return false, err
		}
	}
	return false, fmt.Errorf("%s toggle: too much contention after %d attempts", edge, maxFlipAttempts)
}
