package model

import "time"

// LikeTarget names the kind of entity a like edge points at.
type LikeTarget string

const (
	LikeVideo   LikeTarget = "video"
	LikeComment LikeTarget = "comment"
)

// Subscription is an edge from a subscriber to a channel.  The row's
// existence is the subscribed state.
type Subscription struct {
	SubscriberID uint64
	ChannelID    uint64
	CreatedAt    time.Time
}

// Like is an edge from an actor to a video or a comment.  The row's
// existence is the liked state.
type Like struct {
	ActorID    uint64
	TargetKind LikeTarget
	TargetID   uint64
	CreatedAt  time.Time
}
