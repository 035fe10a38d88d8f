package clipboard_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os/exec"
	"testing"

	"github.com/fwojciec/redline/clipboard"
	"github.com/fwojciec/redline/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPBCopy_Copy(t *testing.T) {
	t.Parallel()

	cb := clipboard.NewPBCopy()
	if !cb.Available() {
		t.Skip("pbcopy not available, skipping clipboard test")
	}

	testContent := "test clipboard content from redline"
	require.NoError(t, cb.Copy(testContent))

	if _, err := exec.LookPath("pbpaste"); err != nil {
		t.Skip("pbpaste not available, cannot verify clipboard content")
	}
	out, err := exec.Command("pbpaste").Output()
	require.NoError(t, err)
	assert.Equal(t, testContent, string(out))
}

func TestCommand_Copy_Failure(t *testing.T) {
	t.Parallel()

	cb := clipboard.NewCommand("redline-no-such-clipboard-command")

	assert.False(t, cb.Available())
	err := cb.Copy("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redline-no-such-clipboard-command")
}

func TestOSC52_Copy(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, clipboard.NewOSC52(&buf).Copy("hello"))

	assert.Contains(t, buf.String(), "]52;c;"+base64.StdEncoding.EncodeToString([]byte("hello")))
}

func TestChain_Copy(t *testing.T) {
	t.Parallel()

	t.Run("stops at first success", func(t *testing.T) {
		t.Parallel()

		var got []string
		failing := &mock.Clipboard{CopyFn: func(string) error { return errors.New("no display") }}
		working := &mock.Clipboard{CopyFn: func(c string) error { got = append(got, c); return nil }}
		unused := &mock.Clipboard{CopyFn: func(string) error { t.Fatal("unexpected call"); return nil }}

		require.NoError(t, clipboard.Chain{failing, working, unused}.Copy("doc"))
		assert.Equal(t, []string{"doc"}, got)
	})

	t.Run("joins every failure", func(t *testing.T) {
		t.Parallel()

		first, second := errors.New("first"), errors.New("second")
		err := clipboard.Chain{
			&mock.Clipboard{CopyFn: func(string) error { return first }},
			&mock.Clipboard{CopyFn: func(string) error { return second }},
		}.Copy("doc")

		require.ErrorIs(t, err, first)
		require.ErrorIs(t, err, second)
	})

	t.Run("empty chain", func(t *testing.T) {
		t.Parallel()

		require.Error(t, clipboard.Chain{}.Copy("doc"))
	})
}
