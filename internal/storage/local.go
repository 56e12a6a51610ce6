package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements ObjectStorage on the local filesystem. The default
// backend when no S3 endpoint is configured.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates a filesystem-backed storage rooted at dir.
// Parameters:
//   - dir: directory to store objects under; created if missing.
//
// Returns:
//   - *LocalStorage: initialized storage.
//   - error: non-nil if the directory cannot be created.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Upload writes the object to a file under the storage root.
func (s *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create object file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}
	return nil
}

// GetURL returns the filesystem path of an object.
func (s *LocalStorage) GetURL(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

// Exists checks if an object file exists.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
