package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/streamhub/internal/config"
	"github.com/iliyamo/streamhub/internal/database"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.Migrate(ctx, db, config.DriverSQLite))
	require.NoError(t, database.Migrate(ctx, db, config.DriverSQLite))

	for _, table := range []string{"users", "videos", "comments", "subscriptions", "likes", "watch_history"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestMigrateUnknownDriver(t *testing.T) {
	err := database.Migrate(context.Background(), nil, "postgres")
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := database.Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
