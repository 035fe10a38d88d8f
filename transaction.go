package redline

// Operation identifies which user action produced a transaction.
type Operation string

// Transaction operations.
const (
	OpAccept    Operation = "accept"
	OpReject    Operation = "reject"
	OpAcceptAll Operation = "accept_all"
	OpRejectAll Operation = "reject_all"
)

// Transaction is one reversible history entry. Steps are listed in the order
// they were applied; reverting walks them backwards.
type Transaction struct {
	Op    Operation
	Steps []Step
}

// Step records the effect of deciding a single hunk.
type Step struct {
	HunkID   string
	From     HunkStatus // Status before the step
	To       HunkStatus // Status after the step
	Pos      int        // Byte offset in the content where the step applied
	Removed  string     // Content removed at Pos
	Inserted string     // Content inserted at Pos

	// Leading lists pending insertions that sat at Pos ahead of Removed.
	// Reverting keeps them in front of the restored text.
	Leading []string
}

// HunkIDs returns the ids of every hunk the transaction touched.
func (t Transaction) HunkIDs() []string {
	ids := make([]string, len(t.Steps))
	for i, s := range t.Steps {
		ids[i] = s.HunkID
	}
	return ids
}

// Applier decides hunks and replays the resulting transactions.
type Applier interface {
	Accept(id string) (Transaction, error)
	Reject(id string) (Transaction, error)
	AcceptAll() (Transaction, error)
	RejectAll() (Transaction, error)

	// Revert undoes tx. It returns ErrHistoryConflict, leaving the document
	// unchanged, when tx no longer fits the current state.
	Revert(tx Transaction) error
	// Apply replays tx after it has been reverted.
	Apply(tx Transaction) error
}
