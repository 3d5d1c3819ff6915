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

// ErrInvalidFilename is returned for names that would escape the upload directory.
var ErrInvalidFilename = errors.New("invalid filename")

// DiskStore implements port.FileStore on a local directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed and returns a store rooted at it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: upload directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %q: %w", abs, err)
	}
	return &DiskStore{dir: abs}, nil
}

// Dir returns the absolute upload directory.
func (s *DiskStore) Dir() string { return s.dir }

// Save writes r to a new file. Existing files are never overwritten.
func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader) (int64, error) {
	path, err := s.path(filename)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("storage: create file: %w", err)
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("storage: write file: %w", err)
	}

	return n, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *DiskStore) Delete(_ context.Context, filename string) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

func (s *DiskStore) path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) ||
		filename == "." || filename == ".." || strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return filepath.Join(s.dir, filename), nil
}
