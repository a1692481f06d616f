// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Event types published by the services.
const (
	UserRegistered      = "user.registered"
	VideoPublished      = "video.published"
	VideoViewed         = "video.viewed"
	LikeToggled         = "like.toggled"
	SubscriptionToggled = "subscription.toggled"
	CommentAdded        = "comment.added"
)

// EngagementEvent is published after a state change has been committed.
// Consumers use it for activity logs and analytics without querying the
// primary database.  Fields that do not apply to a type are left zero.
type EngagementEvent struct {
	Type       string    `json:"type"`
	ActorID    uint64    `json:"actor_id"`
	TargetID   uint64    `json:"target_id,omitempty"`
	TargetKind string    `json:"target_kind,omitempty"`
	Active     bool      `json:"active"`
	Count      int64     `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
