package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File persists each key as a file under a base directory, so collections
// survive restarts without an external service.
type File struct {
	basePath string
}

// NewFile creates the base directory if missing.
func NewFile(basePath string) (*File, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("kvstore base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create kvstore dir: %w", err)
	}
	return &File{basePath: basePath}, nil
}

// Get reads the value stored for key.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read key %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes the value for key atomically via a temp file rename.
func (f *File) Set(_ context.Context, key, value string) error {
	target := f.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write key %s: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("commit key %s: %w", key, err)
	}
	return nil
}

// Delete removes the file for key.
func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	return nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.basePath, safeKey(key)+".json")
}

func safeKey(key string) string {
	key = filepath.Base(key)
	key = strings.ReplaceAll(key, string(os.PathSeparator), "_")
	key = strings.TrimSpace(key)
	if key == "" || key == "." {
		return "entry"
	}
	return key
}
