package jsonl_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/jsonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	t.Run("loads valid JSONL file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "rounds.jsonl")
		content := `{"session_id":"s1","round":1,"prompt":"tighten","outcome":"success","resolved":2,"finished_at":"2026-01-02T03:04:05Z"}

{"session_id":"s1","round":2,"prompt":"again","outcome":"error","error":"boom","resolved":0,"finished_at":"2026-01-02T03:05:05Z"}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		records, err := jsonl.NewLoader().Load(path)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, redline.OutcomeSuccess, records[0].Outcome)
		assert.Equal(t, 2, records[0].Resolved)
		assert.Equal(t, redline.OutcomeError, records[1].Outcome)
		assert.Equal(t, "boom", records[1].Error)
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		t.Parallel()

		_, err := jsonl.NewLoader().Load(filepath.Join(t.TempDir(), "missing.jsonl"))

		assert.Error(t, err)
	})

	t.Run("returns error for malformed JSON line", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.jsonl")
		require.NoError(t, os.WriteFile(path, []byte("{\"round\":1}\nnot json\n"), 0o644))

		_, err := jsonl.NewLoader().Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})
}
