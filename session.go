package redline

import (
	"context"
	"time"
)

// State is the lifecycle state of a suggestion round.
type State int

// Session states.
const (
	StateIdle State = iota
	StateComposing
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComposing:
		return "composing"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session is one request/response round trip and the hunks it produced.
type Session struct {
	ID       string
	Round    int
	Prompt   string
	Snapshot string // Document content when the request was submitted
	Hunks    []Hunk
	State    State
	Err      error
	Warnings []ParseWarning
}

// RoundOutcome classifies how a round finished.
type RoundOutcome string

// Round outcomes.
const (
	OutcomeSuccess RoundOutcome = "success"
	OutcomeError   RoundOutcome = "error"
)

// RoundRecord is the diagnostic record of a finished round.
type RoundRecord struct {
	SessionID  string         `json:"session_id"`
	Round      int            `json:"round"`
	Prompt     string         `json:"prompt"`
	Outcome    RoundOutcome   `json:"outcome"`
	Error      string         `json:"error,omitempty"`
	Resolved   int            `json:"resolved"`
	Unresolved []HunkRecord   `json:"unresolved,omitempty"`
	Warnings   []ParseWarning `json:"warnings,omitempty"`
	FinishedAt time.Time      `json:"finished_at"`
}

// HunkRecord is the diagnostic form of an unresolved hunk.
type HunkRecord struct {
	ID       string           `json:"id"`
	Kind     string           `json:"kind"`
	Original string           `json:"original,omitempty"`
	Proposed string           `json:"proposed,omitempty"`
	Reason   UnresolvedReason `json:"reason"`
}

// RoundRecorder persists round diagnostics.
type RoundRecorder interface {
	Record(rec RoundRecord) error
}

// RoundLoader reads previously recorded rounds.
type RoundLoader interface {
	Load(path string) ([]RoundRecord, error)
}

// DocumentStore persists the committed document content.
type DocumentStore interface {
	Save(ctx context.Context, content string) error
}

// Observer receives session events for metrics.
type Observer interface {
	RoundFinished(outcome RoundOutcome)
	HunksResolved(resolved, unresolved int)
	Decided(op Operation, hunks int)
}
