package model

import "time"

// Video mirrors a row in the `videos` table.  OwnerID is written once on
// insert and no statement updates it afterwards.  The *Key fields hold the
// object-storage identifiers used to delete the media with the video.
type Video struct {
	ID           uint64    `json:"id"`
	OwnerID      uint64    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoFile"`
	VideoKey     string    `json:"-"`
	ThumbnailURL string    `json:"thumbnail"`
	ThumbnailKey string    `json:"-"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Comment mirrors a row in the `comments` table.
type Comment struct {
	ID        uint64    `json:"id"`
	VideoID   uint64    `json:"videoId"`
	OwnerID   uint64    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
