// Package gitdiff converts unified diffs into CriticMarkup using
// bluekeyes/go-gitdiff.
package gitdiff

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.PatchConverter = (*Converter)(nil)

// Errors returned by Convert.
var (
	ErrNoChanges     = errors.New("gitdiff: patch contains no changes")
	ErrMultipleFiles = errors.New("gitdiff: patch touches more than one file")
	ErrBinary        = errors.New("gitdiff: binary patches are not supported")
)

// ConflictError reports a fragment whose old lines could not be found in the
// document.
type ConflictError struct {
	Fragment int // 1-based fragment index
	Line     int // Old start line from the fragment header
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("gitdiff: fragment %d (line %d) does not match the document", e.Fragment, e.Line)
}

// Converter applies a unified diff to a document and annotates the result.
type Converter struct {
	annotator redline.Annotator
}

// NewConverter creates a Converter that marks up the patched document with a.
func NewConverter(a redline.Annotator) *Converter {
	return &Converter{annotator: a}
}

// Convert returns document marked up with the changes described by patch.
func (c *Converter) Convert(document, patch string) (string, error) {
	patched, err := ApplyPatch(document, patch)
	if err != nil {
		return "", err
	}
	return c.annotator.Annotate(document, patched), nil
}

// ApplyPatch applies a single-file unified diff to document. Fragments are
// applied exactly when their line numbers are right and relocated to the
// nearest exact match of their old lines otherwise.
func ApplyPatch(document, patch string) (string, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(patch))
	if err != nil {
		return "", fmt.Errorf("gitdiff: parse: %w", err)
	}
	if len(files) == 0 {
		return "", ErrNoChanges
	}
	if len(files) > 1 {
		return "", ErrMultipleFiles
	}
	f := files[0]
	if f.IsBinary {
		return "", ErrBinary
	}
	if len(f.TextFragments) == 0 {
		return "", ErrNoChanges
	}

	var buf bytes.Buffer
	if err := gitdiff.Apply(&buf, strings.NewReader(document), f); err == nil {
		return buf.String(), nil
	}
	return relocate(document, f.TextFragments)
}

// relocate applies fragments by searching for their old lines.
func relocate(document string, frags []*gitdiff.TextFragment) (string, error) {
	lines := splitLines(document)
	out := make([]string, 0, len(lines))
	next := 0
	shift := 0

	for i, frag := range frags {
		old, repl := sides(frag)
		want := int(frag.OldPosition) - 1 + shift
		if len(old) == 0 {
			// Pure insertion: the header line number is all we have.
			want = int(frag.OldPosition) + shift
		}
		at := find(lines, old, next, want)
		if at < 0 {
			return "", &ConflictError{Fragment: i + 1, Line: int(frag.OldPosition)}
		}
		out = append(out, lines[next:at]...)
		out = append(out, repl...)
		next = at + len(old)
		if len(old) > 0 {
			shift = at - (int(frag.OldPosition) - 1)
		}
	}
	out = append(out, lines[next:]...)
	return strings.Join(out, ""), nil
}

// sides returns the old and new lines of a fragment.
func sides(frag *gitdiff.TextFragment) (old, repl []string) {
	for _, l := range frag.Lines {
		switch l.Op {
		case gitdiff.OpContext:
			old = append(old, l.Line)
			repl = append(repl, l.Line)
		case gitdiff.OpDelete:
			old = append(old, l.Line)
		case gitdiff.OpAdd:
			repl = append(repl, l.Line)
		}
	}
	return old, repl
}

// find returns the start of the match of old in lines at or after from that
// is closest to want, or -1. Trailing newline differences on the last
// document line are tolerated.
func find(lines, old []string, from, want int) int {
	if len(old) == 0 {
		return max(from, min(want, len(lines)))
	}
	best := -1
	for at := from; at+len(old) <= len(lines); at++ {
		if !matches(lines[at:at+len(old)], old) {
			continue
		}
		if best < 0 || abs(at-want) < abs(best-want) {
			best = at
		}
	}
	return best
}

func matches(got, want []string) bool {
	for i := range want {
		if got[i] != want[i] && strings.TrimSuffix(got[i], "\n") != strings.TrimSuffix(want[i], "\n") {
			return false
		}
	}
	return true
}

// splitLines splits s after each newline, keeping the terminators.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
