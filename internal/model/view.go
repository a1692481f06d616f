package model

import "time"

// The types below are read projections assembled per request.  None of
// their counts or flags is stored.

// ChannelProfile is the public view of a user's channel.
type ChannelProfile struct {
	ID                uint64    `json:"id"`
	Username          string    `json:"username"`
	FullName          string    `json:"fullName"`
	Email             string    `json:"email"`
	AvatarURL         string    `json:"avatar"`
	CoverImageURL     string    `json:"coverImage"`
	SubscribersCount  int64     `json:"subscribersCount"`
	SubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed      bool      `json:"isSubscribed"`
	CreatedAt         time.Time `json:"createdAt"`
}

// VideoOwner is the owner block embedded in VideoDetail.
type VideoOwner struct {
	ID               uint64 `json:"id"`
	Username         string `json:"username"`
	FullName         string `json:"fullName"`
	AvatarURL        string `json:"avatar"`
	SubscribersCount int64  `json:"subscribersCount"`
	IsSubscribed     bool   `json:"isSubscribed"`
}

// VideoDetail is the single-video page.
type VideoDetail struct {
	Video
	LikesCount    int64      `json:"likesCount"`
	IsLiked       bool       `json:"isLiked"`
	CommentsCount int64      `json:"commentsCount"`
	Owner         VideoOwner `json:"owner"`
}

// VideoSummary is one entry of a feed, a liked-videos list or the watch
// history.
type VideoSummary struct {
	ID           uint64       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	VideoURL     string       `json:"videoFile"`
	ThumbnailURL string       `json:"thumbnail"`
	Duration     float64      `json:"duration"`
	Views        int64        `json:"views"`
	IsPublished  bool         `json:"isPublished"`
	CreatedAt    time.Time    `json:"createdAt"`
	Owner        OwnerSummary `json:"owner"`
}

// CommentView is one entry of a comment feed.
type CommentView struct {
	ID         uint64       `json:"id"`
	VideoID    uint64       `json:"videoId"`
	Content    string       `json:"content"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	LikesCount int64        `json:"likesCount"`
	IsLiked    bool         `json:"isLiked"`
	Owner      OwnerSummary `json:"owner"`
}

// ChannelSummary is one entry of a subscriber or subscription list.
type ChannelSummary struct {
	OwnerSummary
	SubscribedAt time.Time `json:"subscribedAt"`
}
