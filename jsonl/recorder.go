package jsonl

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.RoundRecorder = (*Recorder)(nil)

// Recorder appends RoundRecord records to a JSONL file.
type Recorder struct {
	mu   sync.Mutex
	path string
}

// NewRecorder creates a Recorder appending to path.
func NewRecorder(path string) *Recorder {
	return &Recorder{path: path}
}

// Record appends rec, creating parent directories if needed.
func (r *Recorder) Record(rec redline.RoundRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return encode(f, rec)
}
