package engine_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/anchor"
	"github.com/fwojciec/redline/critic"
	"github.com/fwojciec/redline/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// load resolves markup against content and loads the result with ids
// prefixed by round.
func load(t *testing.T, e *engine.Engine, round int, markup string) []redline.Hunk {
	t.Helper()

	hunks := anchor.New().Resolve(critic.Parse(markup).Hunks, e.Content())
	for i := range hunks {
		hunks[i].ID = fmt.Sprintf("r%d-h%d", round, i+1)
	}
	loaded, err := e.Load(hunks)
	require.NoError(t, err)
	return loaded
}

func fromMarkup(t *testing.T, markup string) *engine.Engine {
	t.Helper()

	e, err := engine.FromMarkup(markup)
	require.NoError(t, err)
	return e
}

func TestEngine_AcceptReject(t *testing.T) {
	t.Parallel()

	const doc = "This is content."
	const markup = "This is {++new ++}content."

	t.Run("accepting an insertion commits the text", func(t *testing.T) {
		t.Parallel()

		e := engine.New(doc)
		load(t, e, 1, markup)
		assert.Equal(t, markup, e.Render())

		tx, err := e.Accept("r1-h1")
		require.NoError(t, err)

		assert.Equal(t, "This is new content.", e.Content())
		assert.Equal(t, "This is new content.", e.Render())
		assert.Equal(t, redline.OpAccept, tx.Op)
		assert.Equal(t, 0, e.PendingCount())
		h, ok := e.Hunk("r1-h1")
		require.True(t, ok)
		assert.Equal(t, redline.Accepted, h.Status)
	})

	t.Run("rejecting an insertion leaves the document unchanged", func(t *testing.T) {
		t.Parallel()

		e := engine.New(doc)
		load(t, e, 1, markup)

		_, err := e.Reject("r1-h1")
		require.NoError(t, err)

		assert.Equal(t, doc, e.Content())
		assert.Equal(t, doc, e.Render())
	})

	t.Run("deletion and replacement", func(t *testing.T) {
		t.Parallel()

		e := fromMarkup(t, "Keep {--this --}text and {--old--}{++new++} words.")

		_, err := e.Accept("h1")
		require.NoError(t, err)
		_, err = e.Reject("h2")
		require.NoError(t, err)

		assert.Equal(t, "Keep text and old words.", e.Content())
	})

	t.Run("unknown hunk is a caller error", func(t *testing.T) {
		t.Parallel()

		e := fromMarkup(t, markup)

		_, err := e.Accept("nope")

		var herr *redline.HunkError
		require.ErrorAs(t, err, &herr)
		require.ErrorIs(t, err, redline.ErrUnknownHunk)
		assert.Equal(t, "nope", herr.HunkID)
		assert.Equal(t, doc, e.Content())
	})

	t.Run("deciding twice is a caller error", func(t *testing.T) {
		t.Parallel()

		e := fromMarkup(t, markup)
		_, err := e.Reject("h1")
		require.NoError(t, err)

		_, err = e.Accept("h1")

		var herr *redline.HunkError
		require.ErrorAs(t, err, &herr)
		require.ErrorIs(t, err, redline.ErrHunkNotPending)
		assert.Equal(t, redline.Rejected, herr.Status)
		assert.Equal(t, doc, e.Content())
	})

	t.Run("bulk operation with nothing pending", func(t *testing.T) {
		t.Parallel()

		e := engine.New(doc)

		_, err := e.AcceptAll()
		require.ErrorIs(t, err, redline.ErrNothingPending)
		_, err = e.RejectAll()
		require.ErrorIs(t, err, redline.ErrNothingPending)
	})
}

func TestEngine_Bulk(t *testing.T) {
	t.Parallel()

	const markup = "# Notes\n\nOne {--two--}{++2++} three {++four ++}five.\n\n- item {--gone--}\n- other\n"

	t.Run("accept all equals accepting in descending order", func(t *testing.T) {
		t.Parallel()

		bulk := fromMarkup(t, markup)
		tx, err := bulk.AcceptAll()
		require.NoError(t, err)
		assert.Equal(t, redline.OpAcceptAll, tx.Op)
		assert.Equal(t, []string{"h3", "h2", "h1"}, tx.HunkIDs())

		single := fromMarkup(t, markup)
		markers := single.Markers()
		for i := len(markers) - 1; i >= 0; i-- {
			_, err := single.Accept(markers[i].HunkID)
			require.NoError(t, err)
		}

		assert.Equal(t, single.Content(), bulk.Content())
		assert.Equal(t, critic.Apply(markup), bulk.Content())
		assert.Equal(t, critic.Strip(bulk.Render()), bulk.Content())
	})

	t.Run("reject all then revert restores every marker", func(t *testing.T) {
		t.Parallel()

		e := fromMarkup(t, markup)
		rendered := e.Render()

		tx, err := e.RejectAll()
		require.NoError(t, err)
		assert.Equal(t, 0, e.PendingCount())
		assert.Equal(t, critic.Strip(markup), e.Render())

		require.NoError(t, e.Revert(tx))

		assert.Equal(t, 3, e.PendingCount())
		assert.Equal(t, rendered, e.Render())
	})

	t.Run("revert keeps an insertion ahead of an adjacent deletion", func(t *testing.T) {
		t.Parallel()

		const adjacent = "A {++new ++}{--old --}text."

		single := fromMarkup(t, adjacent)
		tx, err := single.Accept("h2")
		require.NoError(t, err)
		require.NoError(t, single.Revert(tx))
		assert.Equal(t, adjacent, single.Render())
		_, err = single.Accept("h1")
		require.NoError(t, err)
		assert.Equal(t, "A new old text.", single.Content())

		bulk := fromMarkup(t, adjacent)
		tx, err = bulk.AcceptAll()
		require.NoError(t, err)
		assert.Equal(t, "A new text.", bulk.Content())
		require.NoError(t, bulk.Revert(tx))
		assert.Equal(t, adjacent, bulk.Render())
		require.NoError(t, bulk.Apply(tx))
		assert.Equal(t, "A new text.", bulk.Content())
	})

	t.Run("revert keeps a later insertion after the deletion it follows", func(t *testing.T) {
		t.Parallel()

		e := engine.New("A old text.")
		load(t, e, 1, "A {--old --}text.")
		load(t, e, 2, "A old {++new ++}text.")
		rendered := e.Render()
		require.Equal(t, "A {--old --}{++new ++}text.", rendered)

		tx, err := e.Accept("r1-h1")
		require.NoError(t, err)
		require.NoError(t, e.Revert(tx))

		assert.Equal(t, rendered, e.Render())
	})

	t.Run("revert then apply restores the decided state", func(t *testing.T) {
		t.Parallel()

		e := fromMarkup(t, markup)
		tx, err := e.AcceptAll()
		require.NoError(t, err)
		content, hunks := e.Content(), e.Hunks()

		require.NoError(t, e.Revert(tx))
		require.NoError(t, e.Apply(tx))

		assert.Equal(t, content, e.Content())
		assert.Equal(t, hunks, e.Hunks())
	})
}

func TestEngine_Render(t *testing.T) {
	t.Parallel()

	t.Run("round trips annotated markup", func(t *testing.T) {
		t.Parallel()

		markup := "# Title\n\nThe {--old--}{++new++} value and {++more ++}text.\n\n- item {--gone--}\n- other\n"
		e := fromMarkup(t, markup)

		assert.Equal(t, markup, e.Render())
		assert.Equal(t, e.Content(), critic.Strip(e.Render()))
		rendered, err := engine.Render(e.Content(), e.Hunks())
		require.NoError(t, err)
		assert.Equal(t, markup, rendered)
	})

	t.Run("hunks without ids are a caller error", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("Some {++more ++}text.")
		hunks := anchor.New().Resolve(res.Hunks, res.Original)

		_, err := engine.Render(res.Original, hunks)

		require.Error(t, err)
	})

	t.Run("reports marker positions", func(t *testing.T) {
		t.Parallel()

		e := fromMarkup(t, "a {--b--}{++c++} d {++e++}")

		markers := e.Markers()
		require.Len(t, markers, 2)
		assert.Equal(t, redline.Marker{
			HunkID: "h1", Kind: redline.Replacement,
			Start: 2, End: 16,
			DeleteStart: 2, DeleteEnd: 9,
			InsertStart: 9, InsertEnd: 16,
		}, markers[0])
		assert.Equal(t, redline.Marker{
			HunkID: "h2", Kind: redline.Insertion,
			Start: 19, End: 26,
			DeleteStart: 19, DeleteEnd: 19,
			InsertStart: 19, InsertEnd: 26,
		}, markers[1])
	})

	t.Run("counts pending hunks", func(t *testing.T) {
		t.Parallel()

		e := fromMarkup(t, "a {++b++} c {--d--} e {--f--}{++g++} h")

		assert.Equal(t, redline.Counts{Insertions: 2, Deletions: 2, Total: 3}, e.Counts())

		_, err := e.Accept("h3")
		require.NoError(t, err)
		assert.Equal(t, redline.Counts{Insertions: 1, Deletions: 1, Total: 2}, e.Counts())
	})
}

func TestEngine_Structure(t *testing.T) {
	t.Parallel()

	t.Run("keeps list nesting for inserted items", func(t *testing.T) {
		t.Parallel()

		e := fromMarkup(t, "- top\n  - nested item{++\n- added++}\n- next\n")

		_, err := e.Accept("h1")
		require.NoError(t, err)

		assert.Equal(t, "- top\n  - nested item\n  - added\n- next\n", e.Content())
	})

	t.Run("never reflows code blocks", func(t *testing.T) {
		t.Parallel()

		markup := "```go\nfunc main() {\n{++\tfmt.Println(\"hi\")\n++}}\n```\n"
		e := fromMarkup(t, markup)

		_, err := e.AcceptAll()
		require.NoError(t, err)

		assert.Equal(t, "```go\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n```\n", e.Content())
	})
}

func TestEngine_Rounds(t *testing.T) {
	t.Parallel()

	t.Run("overlapping hunk from a later round is unresolved", func(t *testing.T) {
		t.Parallel()

		e := engine.New("The old value here.")
		load(t, e, 1, "The {--old value--} here.")

		loaded := load(t, e, 2, "The old {--value--}{++price++} here.")

		require.Len(t, loaded, 1)
		assert.Equal(t, redline.Unresolved, loaded[0].Status)
		assert.Equal(t, redline.ReasonOverlap, loaded[0].Reason)
		assert.Equal(t, 1, e.PendingCount())
	})

	t.Run("duplicate ids are rejected", func(t *testing.T) {
		t.Parallel()

		e := engine.New("The old value here.")
		load(t, e, 1, "The {--old--} value here.")

		hunks := anchor.New().Resolve(critic.Parse("The old {--value--} here.").Hunks, e.Content())
		hunks[0].ID = "r1-h1"
		_, err := e.Load(hunks)
		require.Error(t, err)
		assert.Equal(t, 1, e.PendingCount())
	})

	t.Run("revert conflicting with a later pending hunk changes nothing", func(t *testing.T) {
		t.Parallel()

		e := engine.New("The old value here.")
		load(t, e, 1, "The {--old--}{++new++} value here.")
		tx, err := e.Accept("r1-h1")
		require.NoError(t, err)
		load(t, e, 2, "The {--new --}value here.")
		rendered := e.Render()

		err = e.Revert(tx)

		require.ErrorIs(t, err, redline.ErrHistoryConflict)
		assert.Equal(t, "The new value here.", e.Content())
		assert.Equal(t, rendered, e.Render())
		h, ok := e.Hunk("r1-h1")
		require.True(t, ok)
		assert.Equal(t, redline.Accepted, h.Status)
	})

	t.Run("later round anchors against accepted text", func(t *testing.T) {
		t.Parallel()

		e := engine.New("The old value here.")
		load(t, e, 1, "The {--old--}{++new++} value here.")
		_, err := e.Accept("r1-h1")
		require.NoError(t, err)

		loaded := load(t, e, 2, "The new value {--here--}{++there++}.")

		require.Len(t, loaded, 1)
		assert.Equal(t, redline.Pending, loaded[0].Status)
		assert.Equal(t, "The new value {--here--}{++there++}.", e.Render())
	})
}

func TestEngine_Edit(t *testing.T) {
	t.Parallel()

	const markup = "Intro.\n\nThe {--old--}{++new++} value.\n"

	t.Run("re-anchors pending hunks after unrelated edits", func(t *testing.T) {
		t.Parallel()

		e := fromMarkup(t, markup)

		lost := e.Edit("Extra paragraph.\n\nIntro.\n\nThe old value.\n")

		assert.Empty(t, lost)
		assert.Equal(t, "Extra paragraph.\n\n"+markup, e.Render())
		_, err := e.Accept("h1")
		require.NoError(t, err)
		assert.Equal(t, "Extra paragraph.\n\nIntro.\n\nThe new value.\n", e.Content())
	})

	t.Run("unresolves hunks whose text was edited away", func(t *testing.T) {
		t.Parallel()

		e := fromMarkup(t, markup)

		lost := e.Edit("Intro.\n\nThe value.\n")

		require.Len(t, lost, 1)
		assert.Equal(t, "h1", lost[0].ID)
		assert.Equal(t, redline.ReasonNoMatch, lost[0].Reason)
		assert.Equal(t, 0, e.PendingCount())
		_, err := e.Accept("h1")
		require.ErrorIs(t, err, redline.ErrHunkNotPending)
	})
}

func TestEngine_Compact(t *testing.T) {
	t.Parallel()

	e := fromMarkup(t, "a {++b++} c {--d--}")
	_, err := e.Accept("h1")
	require.NoError(t, err)

	e.Compact()

	_, ok := e.Hunk("h1")
	assert.False(t, ok)
	_, ok = e.Hunk("h2")
	assert.True(t, ok)
}
