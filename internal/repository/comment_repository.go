package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/streamhub/internal/model"
)

type CommentRepo struct{ db *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

// Create inserts a comment and returns it with its ID and timestamps.
func (r *CommentRepo) Create(ctx context.Context, videoID, ownerID uint64, content string) (model.Comment, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (video_id, owner_id, content, created_at, updated_at) VALUES (?,?,?,?,?)",
		videoID, ownerID, content, now, now)
	if err != nil {
		if isMissingParent(err) {
			return model.Comment{}, ErrNotFound
		}
		return model.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	return model.Comment{
		ID: uint64(id), VideoID: videoID, OwnerID: ownerID, Content: content,
		CreatedAt: now, UpdatedAt: now,
	}, nil
}

// GetByID fetches one comment.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (model.Comment, error) {
	var c model.Comment
	err := r.db.QueryRowContext(ctx,
		"SELECT id, video_id, owner_id, content, created_at, updated_at FROM comments WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Comment{}, notFound(err)
	}
	return c, nil
}

// UpdateContent rewrites the comment text and returns the new updated_at.
func (r *CommentRepo) UpdateContent(ctx context.Context, id uint64, content string) (time.Time, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE comments SET content=?, updated_at=? WHERE id=?", content, now, id)
	if err != nil {
		return time.Time{}, fmt.Errorf("update comment: %w", err)
	}
	return now, requireRow(res)
}

// Delete removes one comment.
func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return requireRow(res)
}

// DeleteForVideo removes every comment on a video.
func (r *CommentRepo) DeleteForVideo(ctx context.Context, videoID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE video_id=?", videoID)
	return err
}

// CountByVideo returns the number of comments on a video.
func (r *CommentRepo) CountByVideo(ctx context.Context, videoID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE video_id=?", videoID).Scan(&n)
	return n, err
}

// ListByVideo returns one page of a video's comments, oldest first, with
// each comment's like count and whether viewerID liked it.  Viewer 0 matches
// no like row since ids start at 1.
func (r *CommentRepo) ListByVideo(ctx context.Context, videoID, viewerID uint64, page, limit int) ([]model.CommentView, int64, error) {
	total, err := r.CountByVideo(ctx, videoID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.video_id, c.content, c.created_at, c.updated_at,
		        u.id, u.username, u.avatar_url,
		        (SELECT COUNT(*) FROM likes l
		          WHERE l.target_kind = ? AND l.target_id = c.id) AS likes_count,
		        EXISTS(SELECT 1 FROM likes l
		          WHERE l.target_kind = ? AND l.target_id = c.id AND l.actor_id = ?) AS is_liked
		   FROM comments c
		   JOIN users u ON u.id = c.owner_id
		  WHERE c.video_id = ?
		  ORDER BY c.created_at ASC, c.id ASC
		  LIMIT ? OFFSET ?`,
		string(model.LikeComment), string(model.LikeComment), viewerID, videoID, limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.CommentView, 0, limit)
	for rows.Next() {
		var c model.CommentView
		if err := rows.Scan(&c.ID, &c.VideoID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&c.Owner.ID, &c.Owner.Username, &c.Owner.AvatarURL,
			&c.LikesCount, &c.IsLiked); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
