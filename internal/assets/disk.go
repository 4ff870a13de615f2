package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes objects below a local directory served under BaseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates dir when missing.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory, used to serve the files.
func (s *DiskStore) Dir() string { return s.dir }

// BaseURL returns the public prefix of stored objects.
func (s *DiskStore) BaseURL() string { return s.baseURL }

// Put writes body to dir/key.
func (s *DiskStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	target, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("assets: mkdir: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("assets: create temp: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("assets: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("assets: close: %w", err)
	}
	if err := os.Rename(f.Name(), target); err != nil {
		return "", fmt.Errorf("assets: rename: %w", err)
	}
	return s.baseURL + "/" + filepath.ToSlash(key), nil
}

// Delete removes dir/key. Missing files are not an error.
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("assets: delete: %w", err)
	}
	return nil
}

func (s *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("assets: invalid key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

var _ Store = (*DiskStore)(nil)
