package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore stores objects as files under a base directory, one file per key.
type FileStore struct {
	// Base directory for stored objects
	baseDir string
	// Public base URL of this server; objects are served under /files/
	baseURL string
}

// NewFileStore creates a new FileStore.
func NewFileStore(baseDir, baseURL string) (*FileStore, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileStore{
		baseDir: baseDir,
		baseURL: baseURL,
	}, nil
}

// path maps a validated key onto the filesystem.
func (s *FileStore) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(key)), nil
}

// Put writes data atomically: a temp file in the target directory is
// renamed over the final path.
func (s *FileStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filePath, err := s.path(key)
	if err != nil {
		return "", err
	}

	dirPath := filepath.Dir(filePath)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dirPath, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write object data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	// Move temp file to final location
	if err := os.Rename(tmpFile.Name(), filePath); err != nil {
		return "", fmt.Errorf("failed to move file to storage: %w", err)
	}

	return localURL(s.baseURL, key), nil
}

// Get reads the object stored under key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Delete removes the object and prunes its directory once empty.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	filePath, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// Try to remove empty memory directory; fails harmlessly when not empty
	os.Remove(filepath.Dir(filePath))

	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

// BaseDir returns the storage root.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}
