package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/streamhub/internal/config"
)

// Edge tables carry their uniqueness as the primary key; the relationship
// toggles rely on the resulting duplicate-key error.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL,
		email VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(1024) NOT NULL DEFAULT '',
		cover_image_url VARCHAR(1024) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		refresh_token_hash CHAR(64) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS videos (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		owner_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		video_url VARCHAR(1024) NOT NULL,
		video_key VARCHAR(512) NOT NULL,
		thumbnail_url VARCHAR(1024) NOT NULL,
		thumbnail_key VARCHAR(512) NOT NULL,
		duration_seconds DOUBLE NOT NULL DEFAULT 0,
		views BIGINT UNSIGNED NOT NULL DEFAULT 0,
		is_published TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_videos_owner (owner_id),
		KEY idx_videos_published_created (is_published, created_at),
		CONSTRAINT fk_videos_owner FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		video_id BIGINT UNSIGNED NOT NULL,
		owner_id BIGINT UNSIGNED NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_comments_video_created (video_id, created_at, id),
		CONSTRAINT fk_comments_video FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE,
		CONSTRAINT fk_comments_owner FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		subscriber_id BIGINT UNSIGNED NOT NULL,
		channel_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME(6) NOT NULL,
		PRIMARY KEY (subscriber_id, channel_id),
		KEY idx_subscriptions_channel (channel_id),
		CONSTRAINT fk_subscriptions_subscriber FOREIGN KEY (subscriber_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_subscriptions_channel FOREIGN KEY (channel_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS likes (
		actor_id BIGINT UNSIGNED NOT NULL,
		target_kind VARCHAR(16) NOT NULL,
		target_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME(6) NOT NULL,
		PRIMARY KEY (actor_id, target_kind, target_id),
		KEY idx_likes_target (target_kind, target_id),
		CONSTRAINT fk_likes_actor FOREIGN KEY (actor_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS watch_history (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		video_id BIGINT UNSIGNED NOT NULL,
		added_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_watch_history (user_id, video_id),
		CONSTRAINT fk_history_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_history_video FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		cover_image_url TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		refresh_token_hash TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		video_url TEXT NOT NULL,
		video_key TEXT NOT NULL,
		thumbnail_url TEXT NOT NULL,
		thumbnail_key TEXT NOT NULL,
		duration_seconds REAL NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		is_published INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_owner ON videos(owner_id)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_video_created ON comments(video_id, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		subscriber_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		channel_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (subscriber_id, channel_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_channel ON subscriptions(channel_id)`,
	`CREATE TABLE IF NOT EXISTS likes (
		actor_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		target_kind TEXT NOT NULL CHECK(target_kind IN ('video','comment')),
		target_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (actor_id, target_kind, target_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_target ON likes(target_kind, target_id)`,
	`CREATE TABLE IF NOT EXISTS watch_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		added_at DATETIME NOT NULL,
		UNIQUE(user_id, video_id)
	)`,
}

// Migrate creates every table the service needs.  Statements are idempotent
// so the command can run on each deploy.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case config.DriverMySQL:
		stmts = mysqlSchema
	case config.DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("database: unsupported driver %q", driver)
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
