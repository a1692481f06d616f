package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/streamhub/internal/model"
)

// SubscriptionRepo stores subscriber -> channel edges.  The composite primary
// key guarantees at most one row per pair.
type SubscriptionRepo struct{ db *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// Add inserts the edge.  ErrDuplicate means it already exists.
func (r *SubscriptionRepo) Add(ctx context.Context, subscriberID, channelID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO subscriptions (subscriber_id, channel_id, created_at) VALUES (?,?,?)",
		subscriberID, channelID, time.Now().UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		if isMissingParent(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Remove deletes the edge and reports whether a row was present.
func (r *SubscriptionRepo) Remove(ctx context.Context, subscriberID, channelID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE subscriber_id=? AND channel_id=?",
		subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Exists reports whether subscriberID follows channelID.  Viewer 0 never does.
func (r *SubscriptionRepo) Exists(ctx context.Context, subscriberID, channelID uint64) (bool, error) {
	if subscriberID == 0 {
		return false, nil
	}
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM subscriptions WHERE subscriber_id=? AND channel_id=? LIMIT 1",
		subscriberID, channelID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// CountSubscribers counts edges pointing at channelID.
func (r *SubscriptionRepo) CountSubscribers(ctx context.Context, channelID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM subscriptions WHERE channel_id=?", channelID).Scan(&n)
	return n, err
}

// CountSubscribedTo counts edges leaving subscriberID.
func (r *SubscriptionRepo) CountSubscribedTo(ctx context.Context, subscriberID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM subscriptions WHERE subscriber_id=?", subscriberID).Scan(&n)
	return n, err
}

// ListSubscribers returns the users subscribed to channelID, newest first.
func (r *SubscriptionRepo) ListSubscribers(ctx context.Context, channelID uint64, page, limit int) ([]model.ChannelSummary, int64, error) {
	total, err := r.CountSubscribers(ctx, channelID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.username, u.full_name, u.avatar_url, s.created_at
		   FROM subscriptions s
		   JOIN users u ON u.id = s.subscriber_id
		  WHERE s.channel_id = ?
		  ORDER BY s.created_at DESC, u.id DESC
		  LIMIT ? OFFSET ?`,
		channelID, limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	out, err := scanChannels(rows, limit)
	return out, total, err
}

// ListSubscribedChannels returns the channels subscriberID follows, newest first.
func (r *SubscriptionRepo) ListSubscribedChannels(ctx context.Context, subscriberID uint64, page, limit int) ([]model.ChannelSummary, int64, error) {
	total, err := r.CountSubscribedTo(ctx, subscriberID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.username, u.full_name, u.avatar_url, s.created_at
		   FROM subscriptions s
		   JOIN users u ON u.id = s.channel_id
		  WHERE s.subscriber_id = ?
		  ORDER BY s.created_at DESC, u.id DESC
		  LIMIT ? OFFSET ?`,
		subscriberID, limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	out, err := scanChannels(rows, limit)
	return out, total, err
}

func scanChannels(rows *sql.Rows, capHint int) ([]model.ChannelSummary, error) {
	defer rows.Close()
	out := make([]model.ChannelSummary, 0, capHint)
	for rows.Next() {
		var c model.ChannelSummary
		if err := rows.Scan(&c.ID, &c.Username, &c.FullName, &c.AvatarURL, &c.SubscribedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
