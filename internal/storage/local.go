package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps media on the local disk for development and tests.
// The router serves Dir under BaseURL.
type LocalStorage struct {
	Dir     string
	BaseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return &LocalStorage{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// resolve maps a key onto a path inside Dir, rejecting traversal.
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimLeft(key, "/"))
	if clean == "/" {
		return "", fmt.Errorf("local storage: empty key")
	}
	return filepath.Join(s.Dir, filepath.FromSlash(clean)), nil
}

func (s *LocalStorage) Save(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	p, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("local storage: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("local storage: %w", err)
	}
	if _, err := io.Copy(f, readerWithContext{ctx: ctx, r: r}); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("local storage write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("local storage: %w", err)
	}
	return s.BaseURL + "/" + strings.TrimLeft(key, "/"), nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local storage delete %s: %w", key, err)
	}
	return nil
}

// readerWithContext stops a copy once the request is cancelled.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
