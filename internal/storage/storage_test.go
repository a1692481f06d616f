package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/media/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Save(ctx, "videos/a.mp4", strings.NewReader("data"), "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "/media/videos/a.mp4", url)

	b, err := os.ReadFile(filepath.Join(dir, "videos", "a.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))

	require.NoError(t, s.Delete(ctx, "videos/a.mp4"))
	require.NoError(t, s.Delete(ctx, "videos/a.mp4"), "deleting twice is fine")
	_, err = os.Stat(filepath.Join(dir, "videos", "a.mp4"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "media"), "/media")
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "../../escape.txt", strings.NewReader("x"), "")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "media", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageCancelledContext(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Save(ctx, "videos/b.mp4", strings.NewReader("data"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKey(t *testing.T) {
	k := Key("videos", `C:\clips\Holiday.MP4`)
	assert.True(t, strings.HasPrefix(k, "videos/"))
	assert.True(t, strings.HasSuffix(k, ".mp4"))
	assert.NotEqual(t, k, Key("videos", "Holiday.mp4"))
	assert.False(t, strings.Contains(Key("thumbnails", "x.p ng"), " "))
}
