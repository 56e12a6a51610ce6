package storage

import (
	"context"
	"io"
)

// ObjectStorage is where exported analysis reports land.
type ObjectStorage interface {
	// Upload stores an object under key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the URL (or path) for accessing an object.
	GetURL(key string) string

	// Exists checks if an object exists.
	Exists(ctx context.Context, key string) (bool, error)
}
