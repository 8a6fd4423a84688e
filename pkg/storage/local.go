package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalConfig holds configuration for local storage.
type LocalConfig struct {
	BasePath  string `mapstructure:"base_path"`
	PublicURL string `mapstructure:"public_url"` // URL prefix the base path is served under
}

// LocalStorage stores objects as files below a base directory.
type LocalStorage struct {
	basePath  string
	publicURL string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &LocalStorage{
		basePath:  absPath,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

// fullPath maps key below basePath; keys that would escape it are rejected.
func (s *LocalStorage) fullPath(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash("/" + key))
	p := filepath.Join(s.basePath, clean)
	if p != s.basePath && !strings.HasPrefix(p, s.basePath+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return p, nil
}

// Write stores r atomically through a temp file and rename.
func (s *LocalStorage) Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	p, err := s.fullPath(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Read opens the file stored under key.
func (s *LocalStorage) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the file stored under key.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	p, err := s.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists reports whether a file is stored under key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	p, err := s.fullPath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

// GetURL returns publicURL/key. expires is ignored.
func (s *LocalStorage) GetURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return s.publicURL + path.Clean("/"+key), nil
}

// BasePath returns the directory files are stored under.
func (s *LocalStorage) BasePath() string {
	return s.basePath
}
