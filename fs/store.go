package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.DocumentStore = (*Store)(nil)

// Store saves committed document content to a file. Writes go to a temporary
// file in the same directory and are renamed into place.
type Store struct {
	path string
}

// NewStore creates a Store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file the store writes to.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current file content.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("fs: load %s: %w", s.path, err)
	}
	return string(data), nil
}

// Save writes content atomically.
func (s *Store) Save(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("fs: save: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("fs: save: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("fs: save: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("fs: save: %w", err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmp, mode); err != nil {
		return fmt.Errorf("fs: save: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("fs: save: %w", err)
	}
	return nil
}
