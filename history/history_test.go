package history_test

import (
	"testing"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/engine"
	"github.com/fwojciec/redline/history"
	"github.com/fwojciec/redline/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id string) redline.Transaction {
	return redline.Transaction{Op: redline.OpAccept, Steps: []redline.Step{{HunkID: id}}}
}

func TestManager(t *testing.T) {
	t.Parallel()

	t.Run("empty stacks report nothing to do", func(t *testing.T) {
		t.Parallel()

		m := history.New(&mock.Applier{})

		assert.False(t, m.CanUndo())
		assert.False(t, m.CanRedo())
		_, err := m.Undo()
		require.ErrorIs(t, err, redline.ErrNothingToUndo)
		_, err = m.Redo()
		require.ErrorIs(t, err, redline.ErrNothingToRedo)
	})

	t.Run("undo reverts and redo reapplies the latest entry", func(t *testing.T) {
		t.Parallel()

		var reverted, applied []string
		a := &mock.Applier{
			AcceptFn: func(id string) (redline.Transaction, error) { return tx(id), nil },
			RevertFn: func(got redline.Transaction) error {
				reverted = append(reverted, got.Steps[0].HunkID)
				return nil
			},
			ApplyFn: func(got redline.Transaction) error {
				applied = append(applied, got.Steps[0].HunkID)
				return nil
			},
		}
		m := history.New(a)

		_, err := m.Accept("a")
		require.NoError(t, err)
		_, err = m.Accept("b")
		require.NoError(t, err)

		undone, err := m.Undo()
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, undone.HunkIDs())
		assert.True(t, m.CanRedo())

		_, err = m.Redo()
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, reverted)
		assert.Equal(t, []string{"b"}, applied)
		assert.False(t, m.CanRedo())
	})

	t.Run("new decision truncates the redo stack", func(t *testing.T) {
		t.Parallel()

		a := &mock.Applier{
			AcceptFn: func(id string) (redline.Transaction, error) { return tx(id), nil },
			RejectFn: func(id string) (redline.Transaction, error) { return tx(id), nil },
			RevertFn: func(redline.Transaction) error { return nil },
		}
		m := history.New(a)

		_, err := m.Accept("a")
		require.NoError(t, err)
		_, err = m.Undo()
		require.NoError(t, err)
		require.True(t, m.CanRedo())

		_, err = m.Reject("b")
		require.NoError(t, err)
		assert.False(t, m.CanRedo())
	})

	t.Run("failed decision is not recorded", func(t *testing.T) {
		t.Parallel()

		a := &mock.Applier{
			AcceptAllFn: func() (redline.Transaction, error) {
				return redline.Transaction{}, redline.ErrNothingPending
			},
		}
		m := history.New(a)

		_, err := m.AcceptAll()
		require.ErrorIs(t, err, redline.ErrNothingPending)
		assert.False(t, m.CanUndo())
	})

	t.Run("failed undo keeps the entry", func(t *testing.T) {
		t.Parallel()

		a := &mock.Applier{
			RejectAllFn: func() (redline.Transaction, error) { return tx("a"), nil },
			RevertFn: func(redline.Transaction) error {
				return redline.ErrHistoryConflict
			},
		}
		m := history.New(a)

		_, err := m.RejectAll()
		require.NoError(t, err)
		_, err = m.Undo()
		require.ErrorIs(t, err, redline.ErrHistoryConflict)
		assert.True(t, m.CanUndo())
		assert.False(t, m.CanRedo())
	})

	t.Run("clear drops both stacks", func(t *testing.T) {
		t.Parallel()

		a := &mock.Applier{
			AcceptFn: func(id string) (redline.Transaction, error) { return tx(id), nil },
			RevertFn: func(redline.Transaction) error { return nil },
		}
		m := history.New(a)
		_, _ = m.Accept("a")
		_, _ = m.Accept("b")
		_, _ = m.Undo()

		m.Clear()

		assert.False(t, m.CanUndo())
		assert.False(t, m.CanRedo())
	})
}

func TestManager_Engine(t *testing.T) {
	t.Parallel()

	t.Run("undo then redo restores content and statuses", func(t *testing.T) {
		t.Parallel()

		e := newEngine(t, "Alpha {--one--} beta {++two ++}gamma {--x--}{++y++} end.")
		m := history.New(e)

		_, err := m.Accept("h1")
		require.NoError(t, err)
		_, err = m.Reject("h2")
		require.NoError(t, err)
		_, err = m.AcceptAll()
		require.NoError(t, err)

		content, hunks := e.Content(), e.Hunks()

		_, err = m.Undo()
		require.NoError(t, err)
		_, err = m.Redo()
		require.NoError(t, err)

		assert.Equal(t, content, e.Content())
		assert.Equal(t, hunks, e.Hunks())
	})

	t.Run("undoing everything restores the original document", func(t *testing.T) {
		t.Parallel()

		e := newEngine(t, "Alpha {--one--} beta {++two ++}gamma {--x--}{++y++} end.")
		original, rendered := e.Content(), e.Render()
		m := history.New(e)

		_, err := m.Accept("h3")
		require.NoError(t, err)
		_, err = m.Reject("h1")
		require.NoError(t, err)
		_, err = m.AcceptAll()
		require.NoError(t, err)

		for m.CanUndo() {
			_, err := m.Undo()
			require.NoError(t, err)
		}

		assert.Equal(t, original, e.Content())
		assert.Equal(t, rendered, e.Render())
		assert.Equal(t, 3, e.PendingCount())
	})
}

func newEngine(t *testing.T, markup string) *engine.Engine {
	t.Helper()

	e, err := engine.FromMarkup(markup)
	require.NoError(t, err)
	return e
}
