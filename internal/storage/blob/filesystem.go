package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// ErrInvalidKey is returned for empty keys or keys that escape the base directory
var ErrInvalidKey = errors.New("invalid storage key")

// FilesystemStorage implements interfaces.BlobStorage on the local filesystem.
// Keys map directly to paths under the base directory, so the tenant prefix
// in "<tenant_id>/<document_id>.pdf" becomes a per-tenant subdirectory.
type FilesystemStorage struct {
	basePath string
	logger   arbor.ILogger
}

var _ interfaces.BlobStorage = (*FilesystemStorage)(nil)

// NewFilesystemStorage creates the base directory and returns the store
func NewFilesystemStorage(basePath string, logger arbor.ILogger) (*FilesystemStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &FilesystemStorage{basePath: basePath, logger: logger}, nil
}

// Save writes data at the given key, creating parent directories as needed
func (s *FilesystemStorage) Save(ctx context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Blob saved")
	return nil
}

// Get returns the data stored at the key
func (s *FilesystemStorage) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the data at the key. Missing keys are not an error.
func (s *FilesystemStorage) Delete(ctx context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return true, nil
}

// Exists reports whether the key holds data
func (s *FilesystemStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeletePrefix removes every key under the given prefix
func (s *FilesystemStorage) DeletePrefix(ctx context.Context, prefix string) error {
	path, err := s.resolve(prefix)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete prefix %s: %w", prefix, err)
	}
	return nil
}

// URLFor returns a file URL for the key
func (s *FilesystemStorage) URLFor(key string) string {
	path, err := s.resolve(key)
	if err != nil {
		return ""
	}
	return "file://" + filepath.ToSlash(path)
}

// resolve maps a key to an absolute path and rejects traversal attempts
func (s *FilesystemStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	cleaned := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return filepath.Join(s.basePath, cleaned), nil
}
