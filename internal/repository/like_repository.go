package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/streamhub/internal/model"
)

// LikeRepo stores actor -> video and actor -> comment edges in one table,
// keyed by (actor_id, target_kind, target_id).
type LikeRepo struct{ db *sql.DB }

func NewLikeRepo(db *sql.DB) *LikeRepo { return &LikeRepo{db: db} }

// Add inserts the edge.  ErrDuplicate means it already exists.
func (r *LikeRepo) Add(ctx context.Context, actorID uint64, kind model.LikeTarget, targetID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO likes (actor_id, target_kind, target_id, created_at) VALUES (?,?,?,?)",
		actorID, string(kind), targetID, time.Now().UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		if isMissingParent(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

// Remove deletes the edge and reports whether a row was present.
func (r *LikeRepo) Remove(ctx context.Context, actorID uint64, kind model.LikeTarget, targetID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM likes WHERE actor_id=? AND target_kind=? AND target_id=?",
		actorID, string(kind), targetID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Exists reports whether actorID likes the target.  Viewer 0 never does.
func (r *LikeRepo) Exists(ctx context.Context, actorID uint64, kind model.LikeTarget, targetID uint64) (bool, error) {
	if actorID == 0 {
		return false, nil
	}
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM likes WHERE actor_id=? AND target_kind=? AND target_id=? LIMIT 1",
		actorID, string(kind), targetID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Count returns the number of likes on the target.
func (r *LikeRepo) Count(ctx context.Context, kind model.LikeTarget, targetID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM likes WHERE target_kind=? AND target_id=?",
		string(kind), targetID).Scan(&n)
	return n, err
}

// DeleteForTarget removes every like on one target.
func (r *LikeRepo) DeleteForTarget(ctx context.Context, kind model.LikeTarget, targetID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM likes WHERE target_kind=? AND target_id=?", string(kind), targetID)
	return err
}

// DeleteForVideoComments removes the likes on every comment of a video.  It
// must run before the comments themselves are deleted.
func (r *LikeRepo) DeleteForVideoComments(ctx context.Context, videoID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM likes
		  WHERE target_kind = ?
		    AND target_id IN (SELECT id FROM comments WHERE video_id = ?)`,
		string(model.LikeComment), videoID)
	return err
}

// ListLikedVideos returns published videos liked by actorID, most recent
// like first.
func (r *LikeRepo) ListLikedVideos(ctx context.Context, actorID uint64, page, limit int) ([]model.VideoSummary, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*)
		   FROM likes l
		   JOIN videos v ON v.id = l.target_id
		  WHERE l.actor_id = ? AND l.target_kind = ? AND v.is_published = 1`,
		actorID, string(model.LikeVideo)).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+summaryColumns+`
		   FROM likes l
		   JOIN videos v ON v.id = l.target_id
		   JOIN users u ON u.id = v.owner_id
		  WHERE l.actor_id = ? AND l.target_kind = ? AND v.is_published = 1
		  ORDER BY l.created_at DESC, v.id DESC
		  LIMIT ? OFFSET ?`,
		actorID, string(model.LikeVideo), limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	out, err := scanSummaries(rows, limit)
	return out, total, err
}
