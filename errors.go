package redline

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine, history and session packages.
var (
	ErrUnknownHunk        = errors.New("unknown hunk")
	ErrHunkNotPending     = errors.New("hunk is not pending")
	ErrNothingPending     = errors.New("no pending hunks")
	ErrHistoryConflict    = errors.New("history entry conflicts with current document")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrNothingToRedo      = errors.New("nothing to redo")
	ErrRequestInFlight    = errors.New("a suggestion request is already in flight")
	ErrInvalidTransition  = errors.New("invalid session state transition")
	ErrPendingSuggestions = errors.New("document has pending suggestions")
	ErrEmptyResponse      = errors.New("empty suggestion response")
	ErrNoMarkup           = errors.New("suggestion response contains no changes in a known format")
	ErrEmptyPrompt        = errors.New("empty prompt")
)

// SaveBlockedReason is shown next to a disabled save or publish control.
const SaveBlockedReason = "Accept or reject AI suggestions before saving"

// HunkError reports an accept or reject call that could not be applied.
// The document is never modified when a HunkError is returned.
type HunkError struct {
	HunkID string
	Status HunkStatus // Current status, meaningful for ErrHunkNotPending
	Err    error      // ErrUnknownHunk or ErrHunkNotPending
}

// Error implements the error interface.
func (e *HunkError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnknownHunk):
		return fmt.Sprintf("hunk %q: unknown id", e.HunkID)
	case errors.Is(e.Err, ErrHunkNotPending):
		return fmt.Sprintf("hunk %q: already %s", e.HunkID, e.Status)
	default:
		return fmt.Sprintf("hunk %q: %v", e.HunkID, e.Err)
	}
}

// Unwrap returns the sentinel reason.
func (e *HunkError) Unwrap() error {
	return e.Err
}

// UnresolvedReason identifies why a hunk could not be anchored.
type UnresolvedReason string

// Unresolved reasons.
const (
	ReasonNone               UnresolvedReason = ""
	ReasonNoMatch            UnresolvedReason = "no_match"
	ReasonBelowTolerance     UnresolvedReason = "below_tolerance"
	ReasonStructuralConflict UnresolvedReason = "structural_conflict"
	ReasonOverlap            UnresolvedReason = "overlap"
	ReasonInvalid            UnresolvedReason = "invalid"
)

// ParseWarning describes markup that was kept as literal text.
type ParseWarning struct {
	Offset  int    // Byte offset of the offending delimiter in the markup
	Message string // e.g. "unterminated insertion"
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("offset %d: %s", w.Offset, w.Message)
}

// ExternalCallError wraps a failed suggestion request. The document is left
// untouched whenever one is returned.
type ExternalCallError struct {
	Err error
}

// Error implements the error interface.
func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("suggestion request failed: %v", e.Err)
}

// Unwrap returns the underlying failure.
func (e *ExternalCallError) Unwrap() error {
	return e.Err
}
