// Package jsonl provides JSONL file handling for round diagnostics and
// pending suggestions.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.RoundLoader = (*Loader)(nil)

// Loader loads RoundRecord records from JSONL files.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// maxLineSize is the maximum size for a single JSONL line (4MB).
// Records can carry whole hunks of a long document.
const maxLineSize = 4 * 1024 * 1024

// Load reads a JSONL file and returns all RoundRecord records.
func (l *Loader) Load(path string) ([]redline.RoundRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decode[redline.RoundRecord](f)
}

// decode reads one JSON value per non-blank line.
func decode[T any](r io.Reader) ([]T, error) {
	var out []T
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var v T
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		out = append(out, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// encode writes v as one JSON line.
func encode(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
