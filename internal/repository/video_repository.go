package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/streamhub/internal/model"
)

const videoColumns = "id,owner_id,title,description,video_url,video_key,thumbnail_url,thumbnail_key,duration_seconds,views,is_published,created_at,updated_at"

// VideoRepo persists videos.  No statement here writes owner_id after the
// insert.
type VideoRepo struct{ db *sql.DB }

func NewVideoRepo(db *sql.DB) *VideoRepo { return &VideoRepo{db: db} }

// Create inserts a video and returns its ID.
func (r *VideoRepo) Create(ctx context.Context, v model.Video) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO videos (owner_id,title,description,video_url,video_key,thumbnail_url,thumbnail_key,duration_seconds,views,is_published,created_at,updated_at)
		 VALUES (?,?,?,?,?,?,?,?,0,?,?,?)`,
		v.OwnerID, v.Title, v.Description, v.VideoURL, v.VideoKey, v.ThumbnailURL, v.ThumbnailKey,
		v.Duration, v.IsPublished, now, now)
	if err != nil {
		return 0, fmt.Errorf("insert video: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns the video regardless of its published flag.
func (r *VideoRepo) GetByID(ctx context.Context, id uint64) (model.Video, error) {
	var v model.Video
	err := r.db.QueryRowContext(ctx,
		"SELECT "+videoColumns+" FROM videos WHERE id=? LIMIT 1", id).Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.VideoKey,
		&v.ThumbnailURL, &v.ThumbnailKey, &v.Duration, &v.Views, &v.IsPublished,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return model.Video{}, notFound(err)
	}
	return v, nil
}

// Exists reports whether the video exists.
func (r *VideoRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM videos WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// UpdateDetails rewrites title, description and thumbnail.
func (r *VideoRepo) UpdateDetails(ctx context.Context, v model.Video) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE videos SET title=?, description=?, thumbnail_url=?, thumbnail_key=?, updated_at=?
		  WHERE id=?`,
		v.Title, v.Description, v.ThumbnailURL, v.ThumbnailKey, time.Now().UTC(), v.ID)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return requireRow(res)
}

// SetPublished flips the visibility flag.
func (r *VideoRepo) SetPublished(ctx context.Context, id uint64, published bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE videos SET is_published=?, updated_at=? WHERE id=?",
		published, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set published: %w", err)
	}
	return requireRow(res)
}

// IncrementViews adds exactly one view.  The increment happens in the
// database so concurrent readers never lose an update.
func (r *VideoRepo) IncrementViews(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE videos SET views = views + 1 WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return requireRow(res)
}

// Delete removes the video row.  Comments and history entries go with it
// through ON DELETE CASCADE; likes are polymorphic and removed by LikeRepo.
func (r *VideoRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM videos WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return requireRow(res)
}
