// Package eval provides helpers for opt-in tests that call live suggestion
// providers.
package eval

import (
	"os"
	"testing"

	"github.com/fwojciec/redline/critic"
)

// EnvEvals enables live tests when set to any value.
const EnvEvals = "REDLINE_EVALS"

// SkipUnlessEvals skips the test unless REDLINE_EVALS is set.
// Use at the start of live tests to make them opt-in.
func SkipUnlessEvals(tb testing.TB) {
	tb.Helper()
	if os.Getenv(EnvEvals) == "" {
		tb.Skip(EnvEvals + " not set")
	}
}

// APIKey returns the value of env, skipping the test when it is empty.
func APIKey(tb testing.TB, env string) string {
	tb.Helper()
	key := os.Getenv(env)
	if key == "" {
		tb.Skip(env + " not set")
	}
	return key
}

// AssertMarkup checks that markup is usable as a suggestion round over
// document: it parses without warnings, proposes at least one change, and
// rejecting every change gives back document.
func AssertMarkup(tb testing.TB, document, markup string) {
	tb.Helper()

	res := critic.Parse(markup)
	for _, w := range res.Warnings {
		tb.Errorf("markup warning: %s", w)
	}
	if len(res.Hunks) == 0 {
		tb.Errorf("no changes proposed in %q", markup)
	}
	if res.Original != document {
		tb.Errorf("rejecting every change does not restore the document\nwant: %q\ngot:  %q", document, res.Original)
	}
}
