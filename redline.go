// Package redline provides domain types for AI-suggested document edits:
// CriticMarkup hunks, structural anchors, and the transactions that accept
// or reject them against a live Markdown document.
package redline

import "fmt"

// HunkKind represents the type of change a hunk proposes.
type HunkKind int

// Hunk kinds.
const (
	Insertion HunkKind = iota
	Deletion
	Replacement
)

func (k HunkKind) String() string {
	switch k {
	case Insertion:
		return "insertion"
	case Deletion:
		return "deletion"
	case Replacement:
		return "replacement"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k HunkKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *HunkKind) UnmarshalText(text []byte) error {
	for _, c := range []HunkKind{Insertion, Deletion, Replacement} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown hunk kind %q", text)
}

// HunkStatus represents where a hunk is in its accept/reject lifecycle.
type HunkStatus int

// Hunk statuses.
const (
	Pending HunkStatus = iota
	Accepted
	Rejected
	Unresolved // could not be anchored; never rendered or counted
)

func (s HunkStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Unresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s HunkStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *HunkStatus) UnmarshalText(text []byte) error {
	for _, c := range []HunkStatus{Pending, Accepted, Rejected, Unresolved} {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown hunk status %q", text)
}

// RawHunk is a change as it appears in annotated markup, before it has been
// anchored against the live document.
type RawHunk struct {
	Kind     HunkKind
	Original string // Text removed (empty for insertions)
	Proposed string // Text added (empty for deletions)

	MarkupOffset   int // Byte offset of the opening delimiter in the markup
	OriginalOffset int // Byte offset in the reject-all view of the markup
	ProposedOffset int // Byte offset in the accept-all view of the markup

	// Fingerprint taken from the reject-all view around the change.
	Before string
	After  string
}

// Anchor is a structural position in the live document. Paths index into the
// Markdown block tree; Offset is a byte offset from the start of that block.
// Before and After are the fingerprint used to re-validate the position.
type Anchor struct {
	Path   []int  `json:"path,omitempty"`   // Block path, nil for the document root
	Offset int    `json:"offset"`           // Bytes from the start of the block
	Before string `json:"before,omitempty"` // Text immediately preceding the hunk
	After  string `json:"after,omitempty"`  // Text immediately following the hunk
}

// Hunk is a single proposed change anchored against the live document.
type Hunk struct {
	ID       string           `json:"id"`
	Kind     HunkKind         `json:"kind"`
	Original string           `json:"original,omitempty"`
	Proposed string           `json:"proposed,omitempty"`
	Anchor   Anchor           `json:"anchor"`
	Status   HunkStatus       `json:"status"`
	Reason   UnresolvedReason `json:"reason,omitempty"` // Set only when Status is Unresolved
}

// Valid reports whether the text fields agree with the hunk kind.
func (h Hunk) Valid() bool {
	switch h.Kind {
	case Insertion:
		return h.Proposed != "" && h.Original == ""
	case Deletion:
		return h.Original != "" && h.Proposed == ""
	case Replacement:
		return h.Original != "" && h.Proposed != ""
	default:
		return false
	}
}

// KindOf derives the hunk kind from its text fields.
func KindOf(original, proposed string) HunkKind {
	switch {
	case original == "":
		return Insertion
	case proposed == "":
		return Deletion
	default:
		return Replacement
	}
}

// Counts summarises pending hunks for badges and tests. A Replacement counts
// as one insertion and one deletion but only once in Total.
type Counts struct {
	Insertions int
	Deletions  int
	Total      int
}

// Marker locates a pending hunk within rendered markup so a caller can place
// accept/reject controls over it. Ranges are byte offsets into the rendered
// text and cover the delimiters; an empty range means the side is absent.
type Marker struct {
	HunkID      string
	Kind        HunkKind
	Start, End  int // Whole marker, including both sides of a replacement
	DeleteStart int
	DeleteEnd   int
	InsertStart int
	InsertEnd   int
}
