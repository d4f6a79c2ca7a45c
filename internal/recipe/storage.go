package recipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for storing original recipe uploads
type Storage interface {
	// Save saves a file and returns the path/key it can be fetched with
	Save(ctx context.Context, filename string, data []byte) (string, error)

	// Get retrieves a file by path
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes a file
	Delete(ctx context.Context, path string) error
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save saves a file to local storage
func (l *LocalStorage) Save(_ context.Context, filename string, data []byte) (string, error) {
	name := filepath.Base(filename)
	if err := os.WriteFile(filepath.Join(l.basePath, name), data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(_ context.Context, path string) error {
	if err := os.Remove(filepath.Join(l.basePath, filepath.Base(path))); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
