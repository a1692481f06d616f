package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/streamhub/internal/model"
)

// HistoryRepo keeps each user's watch history.  UNIQUE(user_id, video_id)
// makes re-adding a video a no-op; the autoincrement id records the order
// of first add.
type HistoryRepo struct{ db *sql.DB }

func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// Add appends videoID unless it is already in the history.  It reports
// whether a new entry was written.
func (r *HistoryRepo) Add(ctx context.Context, userID, videoID uint64) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO watch_history (user_id, video_id, added_at) VALUES (?,?,?)",
		userID, videoID, time.Now().UTC())
	if err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		if isMissingParent(err) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert history: %w", err)
	}
	return true, nil
}

// List returns up to limit watched videos in insertion order with their
// owners.  Deleted videos drop out with their history rows; videos that
// were unpublished after the visit are skipped unless the user owns them.
func (r *HistoryRepo) List(ctx context.Context, userID uint64, limit int) ([]model.VideoSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+summaryColumns+`
		   FROM watch_history h
		   JOIN videos v ON v.id = h.video_id
		   JOIN users u ON u.id = v.owner_id
		  WHERE h.user_id = ?
		    AND (v.is_published = 1 OR v.owner_id = h.user_id)
		  ORDER BY h.id ASC
		  LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows, limit)
}
