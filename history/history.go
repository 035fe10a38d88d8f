// Package history provides a linear undo/redo stack over engine transactions.
package history

import (
	"fmt"

	"github.com/fwojciec/redline"
)

// Manager records transactions produced by an Applier and replays them.
type Manager struct {
	applier redline.Applier
	undo    []redline.Transaction
	redo    []redline.Transaction
}

// New creates a Manager over a.
func New(a redline.Applier) *Manager {
	return &Manager{applier: a}
}

// Accept accepts a hunk and records the transaction.
func (m *Manager) Accept(id string) (redline.Transaction, error) {
	return m.record(m.applier.Accept(id))
}

// Reject rejects a hunk and records the transaction.
func (m *Manager) Reject(id string) (redline.Transaction, error) {
	return m.record(m.applier.Reject(id))
}

// AcceptAll accepts every pending hunk as one history entry.
func (m *Manager) AcceptAll() (redline.Transaction, error) {
	return m.record(m.applier.AcceptAll())
}

// RejectAll rejects every pending hunk as one history entry.
func (m *Manager) RejectAll() (redline.Transaction, error) {
	return m.record(m.applier.RejectAll())
}

func (m *Manager) record(tx redline.Transaction, err error) (redline.Transaction, error) {
	if err != nil {
		return redline.Transaction{}, err
	}
	m.undo = append(m.undo, tx)
	m.redo = nil
	return tx, nil
}

// Undo reverts the most recent transaction. On failure the transaction stays
// on the undo stack.
func (m *Manager) Undo() (redline.Transaction, error) {
	if len(m.undo) == 0 {
		return redline.Transaction{}, redline.ErrNothingToUndo
	}
	tx := m.undo[len(m.undo)-1]
	if err := m.applier.Revert(tx); err != nil {
		return redline.Transaction{}, fmt.Errorf("history: undo: %w", err)
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, tx)
	return tx, nil
}

// Redo re-applies the most recently undone transaction.
func (m *Manager) Redo() (redline.Transaction, error) {
	if len(m.redo) == 0 {
		return redline.Transaction{}, redline.ErrNothingToRedo
	}
	tx := m.redo[len(m.redo)-1]
	if err := m.applier.Apply(tx); err != nil {
		return redline.Transaction{}, fmt.Errorf("history: redo: %w", err)
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, tx)
	return tx, nil
}

// CanUndo reports whether Undo has an entry to revert.
func (m *Manager) CanUndo() bool {
	return len(m.undo) > 0
}

// CanRedo reports whether Redo has an entry to apply.
func (m *Manager) CanRedo() bool {
	return len(m.redo) > 0
}

// Clear drops both stacks.
func (m *Manager) Clear() {
	m.undo = nil
	m.redo = nil
}
