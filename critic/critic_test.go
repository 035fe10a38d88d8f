package critic_test

import (
	"testing"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/critic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("parses a single insertion", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("This is {++new ++}content.")

		require.Len(t, res.Hunks, 1)
		h := res.Hunks[0]
		assert.Equal(t, redline.Insertion, h.Kind)
		assert.Equal(t, "new ", h.Proposed)
		assert.Empty(t, h.Original)
		assert.Equal(t, 8, h.MarkupOffset)
		assert.Equal(t, 8, h.OriginalOffset)
		assert.Equal(t, 8, h.ProposedOffset)
		assert.Equal(t, "This is content.", res.Original)
		assert.Equal(t, "This is new content.", res.Proposed)
		assert.Equal(t, "This is ", h.Before)
		assert.Equal(t, "content.", h.After)
		assert.Empty(t, res.Warnings)
	})

	t.Run("parses a deletion", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("Keep {--this --}text.")

		require.Len(t, res.Hunks, 1)
		assert.Equal(t, redline.Deletion, res.Hunks[0].Kind)
		assert.Equal(t, "this ", res.Hunks[0].Original)
		assert.Equal(t, "Keep this text.", res.Original)
		assert.Equal(t, "Keep text.", res.Proposed)
	})

	t.Run("coalesces adjacent deletion and insertion into a replacement", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("The {--old--}{++new++} value.")

		require.Len(t, res.Hunks, 1)
		h := res.Hunks[0]
		assert.Equal(t, redline.Replacement, h.Kind)
		assert.Equal(t, "old", h.Original)
		assert.Equal(t, "new", h.Proposed)
		assert.Equal(t, "The old value.", res.Original)
		assert.Equal(t, "The new value.", res.Proposed)
	})

	t.Run("does not coalesce when text separates the markers", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("{--a--} {++b++}")

		require.Len(t, res.Hunks, 2)
		assert.Equal(t, redline.Deletion, res.Hunks[0].Kind)
		assert.Equal(t, redline.Insertion, res.Hunks[1].Kind)
	})

	t.Run("parses substitution syntax", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("a {~~cat~>dog~~} b")

		require.Len(t, res.Hunks, 1)
		assert.Equal(t, redline.Replacement, res.Hunks[0].Kind)
		assert.Equal(t, "cat", res.Hunks[0].Original)
		assert.Equal(t, "dog", res.Hunks[0].Proposed)
	})

	t.Run("treats unterminated marker as literal text", func(t *testing.T) {
		t.Parallel()

		input := "Text with {++unterminated marker"
		res := critic.Parse(input)

		assert.Empty(t, res.Hunks)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, 10, res.Warnings[0].Offset)
		assert.Contains(t, res.Warnings[0].Message, "unterminated insertion")
		assert.Equal(t, input, res.Original)
		assert.Equal(t, input, res.Proposed)
	})

	t.Run("continues parsing after a malformed marker", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("{++++} then {--gone--} here")

		require.Len(t, res.Hunks, 1)
		assert.Equal(t, "gone", res.Hunks[0].Original)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0].Message, "empty insertion")
		assert.Equal(t, "{++++} then gone here", res.Original)
	})

	t.Run("warns on substitution without separator", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("x {~~nothing~~} y")

		assert.Empty(t, res.Hunks)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, "x {~~nothing~~} y", res.Original)
	})

	t.Run("preserves whitespace and line breaks outside spans", func(t *testing.T) {
		t.Parallel()

		input := "# Title\n\n  - item {++one++}\n\tindented\n"
		res := critic.Parse(input)

		require.Len(t, res.Hunks, 1)
		assert.Equal(t, "# Title\n\n  - item \n\tindented\n", res.Original)
		assert.Equal(t, "# Title\n\n  - item one\n\tindented\n", res.Proposed)
	})

	t.Run("allows spans across paragraphs", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("First.{++\n\nSecond paragraph.++}\n")

		require.Len(t, res.Hunks, 1)
		assert.Equal(t, "\n\nSecond paragraph.", res.Hunks[0].Proposed)
	})

	t.Run("span opened in a code block must close before the fence", func(t *testing.T) {
		t.Parallel()

		input := "```go\nx := {++1\n```\nafter ++} text"
		res := critic.Parse(input)

		assert.Empty(t, res.Hunks)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, input, res.Original)
	})

	t.Run("parses markers inside code blocks", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("```go\nx := {--1--}{++2++}\n```\n")

		require.Len(t, res.Hunks, 1)
		assert.Equal(t, redline.Replacement, res.Hunks[0].Kind)
		assert.Equal(t, "```go\nx := 2\n```\n", res.Proposed)
	})

	t.Run("span opened in a table row must close on the same line", func(t *testing.T) {
		t.Parallel()

		input := "| a {++b | c |\n| d ++} |\n"
		res := critic.Parse(input)

		assert.Empty(t, res.Hunks)
		require.Len(t, res.Warnings, 1)
	})

	t.Run("parses markers inside table cells", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("| a | {--b--}{++c++} |\n")

		require.Len(t, res.Hunks, 1)
		assert.Equal(t, "| a | c |\n", res.Proposed)
	})

	t.Run("produces hunks in document order with offsets", func(t *testing.T) {
		t.Parallel()

		res := critic.Parse("{++A++}b{--c--}d{~~e~>E~~}")

		require.Len(t, res.Hunks, 3)
		assert.Equal(t, 0, res.Hunks[0].OriginalOffset)
		assert.Equal(t, 1, res.Hunks[1].OriginalOffset) // "b"
		assert.Equal(t, 2, res.Hunks[1].ProposedOffset) // "Ab"
		assert.Equal(t, 3, res.Hunks[2].OriginalOffset) // "bcd"
		assert.Equal(t, 3, res.Hunks[2].ProposedOffset) // "Abd"
		assert.Equal(t, "bcde", res.Original)
		assert.Equal(t, "AbdE", res.Proposed)
	})
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "{++x++}", critic.Format("", "x"))
	assert.Equal(t, "{--x--}", critic.Format("x", ""))
	assert.Equal(t, "{--x--}{++y++}", critic.Format("x", "y"))
}

func TestStripAndApply(t *testing.T) {
	t.Parallel()

	markup := "a {--b--}{++B++} c {++d++}"

	assert.Equal(t, "a b c ", critic.Strip(markup))
	assert.Equal(t, "a B c d", critic.Apply(markup))
	assert.True(t, critic.HasMarkup(markup))
	assert.False(t, critic.HasMarkup("plain {++ text"))
}
