package jsonl

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/fwojciec/redline"
)

// Store persists pending hunks so a review can be resumed later.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// SidecarPath returns the hunk file kept next to a document.
func SidecarPath(document string) string {
	dir, name := filepath.Split(document)
	return filepath.Join(dir, "."+name+".redline.jsonl")
}

// Load reads hunks from a JSONL file. Returns an empty slice if the file
// doesn't exist.
func (s *Store) Load(path string) ([]redline.Hunk, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	return decode[redline.Hunk](f)
}

// Save writes the pending hunks to a JSONL file. Decided and unresolved
// hunks are skipped; when none are pending the file is removed.
func (s *Store) Save(path string, hunks []redline.Hunk) error {
	var pending []redline.Hunk
	for _, h := range hunks {
		if h.Status == redline.Pending {
			pending = append(pending, h)
		}
	}
	if len(pending) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, h := range pending {
		if err := encode(f, h); err != nil {
			return err
		}
	}

	return f.Close()
}
