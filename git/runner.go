// Package git reads document revisions from a git work tree via shell
// commands.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.RevisionReader = (*Runner)(nil)

// Runner executes git commands in the directory holding the document.
type Runner struct{}

// NewRunner creates a new git runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Show returns the content of path at rev.
func (r *Runner) Show(ctx context.Context, path, rev string) (string, error) {
	dir, name := split(path)
	return r.run(ctx, dir, "show", rev+":./"+name)
}

// Diff returns the changes to path between rev and the working tree. The
// result is empty when the file is unchanged.
func (r *Runner) Diff(ctx context.Context, path, rev string) (string, error) {
	dir, name := split(path)
	return r.run(ctx, dir, "diff", "--no-color", "--no-ext-diff", rev, "--", name)
}

func (r *Runner) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s failed: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s failed: %w", args[0], err)
	}
	return string(output), nil
}

func split(path string) (dir, name string) {
	dir, name = filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return dir, name
}
