package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key does not exist in the backing store.
var ErrNotFound = errors.New("object not found")

// Storage defines the blob operations used for chat attachments.
type Storage interface {
	// Write stores content from r under key. size is -1 when unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read opens the content stored under key. The caller closes it.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a URL clients can fetch key from. S3 backends without a
	// public URL presign it for the given duration.
	GetURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Config selects and configures a storage backend.
type Config struct {
	Driver string      `mapstructure:"driver"` // "local", "s3"
	Local  LocalConfig `mapstructure:"local"`
	S3     S3Config    `mapstructure:"s3"`
}

// New creates the backend named by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	default:
		return NewLocalStorage(cfg.Local)
	}
}
