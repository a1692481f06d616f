package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/streamhub/internal/model"
)

// VideoFeedQuery defines filters, ordering and pagination for the public
// video feed.
type VideoFeedQuery struct {
	Text     string   // LIKE filter on title/description, ignored when IDs is set
	IDs      []uint64 // restrict to these ids, as returned by a search provider
	OwnerID  uint64   // restrict to one channel when non-zero
	SortBy   string   // createdAt | views | duration | title
	SortDesc bool
	Page     int
	Limit    int
}

// sortColumns whitelists the sortable fields.  Anything else falls back to
// creation time.
var sortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration_seconds",
	"title":     "v.title",
}

// SortColumn reports whether the feed can be ordered by field.
func SortColumn(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

const summaryColumns = `v.id, v.title, v.description, v.video_url, v.thumbnail_url, v.duration_seconds,
		v.views, v.is_published, v.created_at, u.id, u.username, u.full_name, u.avatar_url`

// Feed lists published videos with their owners.  A query with an empty
// IDs slice that is non-nil matches nothing.
func (r *VideoRepo) Feed(ctx context.Context, q VideoFeedQuery) ([]model.VideoSummary, int64, error) {
	where := []string{"v.is_published = 1"}
	args := []any{}

	switch {
	case q.IDs != nil:
		if len(q.IDs) == 0 {
			return []model.VideoSummary{}, 0, nil
		}
		marks := strings.TrimSuffix(strings.Repeat("?,", len(q.IDs)), ",")
		where = append(where, "v.id IN ("+marks+")")
		for _, id := range q.IDs {
			args = append(args, id)
		}
	case strings.TrimSpace(q.Text) != "":
		where = append(where, "(LOWER(v.title) LIKE ? ESCAPE '!' OR LOWER(v.description) LIKE ? ESCAPE '!')")
		pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(q.Text))) + "%"
		args = append(args, pattern, pattern)
	}
	if q.OwnerID != 0 {
		where = append(where, "v.owner_id = ?")
		args = append(args, q.OwnerID)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*) FROM videos v WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col, q.SortDesc = "v.created_at", true
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}

	dataSQL := `SELECT ` + summaryColumns + `
		FROM videos v
		JOIN users u ON u.id = v.owner_id
		WHERE ` + cond + `
		ORDER BY ` + col + ` ` + dir + `, v.id ` + dir + `
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), q.Limit, offset(q.Page, q.Limit))

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanSummaries(rows, q.Limit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func scanSummaries(rows *sql.Rows, capHint int) ([]model.VideoSummary, error) {
	defer rows.Close()
	out := make([]model.VideoSummary, 0, capHint)
	for rows.Next() {
		var d model.VideoSummary
		if err := rows.Scan(
			&d.ID,
			&d.Title,
			&d.Description,
			&d.VideoURL,
			&d.ThumbnailURL,
			&d.Duration,
			&d.Views,
			&d.IsPublished,
			&d.CreatedAt,
			&d.Owner.ID,
			&d.Owner.Username,
			&d.Owner.FullName,
			&d.Owner.AvatarURL,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// escapeLike neutralizes LIKE wildcards in user input.  '!' is the escape
// character because it needs no quoting in either dialect.
func escapeLike(s string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(s)
}
