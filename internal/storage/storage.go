// Package storage writes uploaded media to an object store and hands back a
// public URL plus the key needed to delete the object later.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/streamhub/internal/config"
)

// MediaStore is the object storage used for videos, thumbnails and profile
// images.
type MediaStore interface {
	// Save stores r under key and returns its public URL.
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// Delete removes the object.  Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// New returns the S3 store when a bucket is configured and the local disk
// store otherwise.
func New(ctx context.Context, cfg config.StorageConfig) (MediaStore, error) {
	if cfg.UseS3() {
		return NewS3Storage(ctx, cfg)
	}
	return NewLocalStorage(cfg.LocalDir, cfg.LocalBaseURL)
}

// Key builds a collision-free object key such as "videos/<uuid>.mp4".  Only
// the extension of the client's file name is kept.
func Key(folder, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " ?#%") {
		ext = ""
	}
	return fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), ext)
}
