// Package clipboard provides clipboard operations via the system clipboard,
// platform commands, or OSC 52 terminal escapes.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	atotto "github.com/atotto/clipboard"
	"github.com/fwojciec/redline"
	"github.com/muesli/termenv"
)

// Compile-time interface verification.
var (
	_ redline.Clipboard = (*Command)(nil)
	_ redline.Clipboard = (*System)(nil)
	_ redline.Clipboard = (*OSC52)(nil)
	_ redline.Clipboard = Chain(nil)
)

// Command implements Clipboard by piping content to an external command
// such as pbcopy, wl-copy or xclip.
type Command struct {
	name string
	args []string
}

// NewCommand returns a clipboard that runs name with args.
func NewCommand(name string, args ...string) *Command {
	return &Command{name: name, args: args}
}

// NewPBCopy returns a clipboard backed by the macOS pbcopy command.
func NewPBCopy() *Command {
	return NewCommand("pbcopy")
}

// Available reports whether the command is on PATH.
func (c *Command) Available() bool {
	_, err := exec.LookPath(c.name)
	return err == nil
}

// Copy writes content to the command's stdin.
func (c *Command) Copy(content string) error {
	cmd := exec.Command(c.name, c.args...)
	cmd.Stdin = strings.NewReader(content)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("clipboard: %s: %w", c.name, err)
	}
	return nil
}

// System implements Clipboard with the platform clipboard library.
type System struct{}

// NewSystem returns the platform clipboard.
func NewSystem() *System {
	return &System{}
}

// Copy writes content to the system clipboard.
func (s *System) Copy(content string) error {
	if atotto.Unsupported {
		return errors.New("clipboard: no system clipboard utility found")
	}
	if err := atotto.WriteAll(content); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
}

// OSC52 implements Clipboard by asking the terminal to set its clipboard.
// It works over SSH where no local clipboard exists.
type OSC52 struct {
	out *termenv.Output
}

// NewOSC52 returns a clipboard writing escape sequences to w.
func NewOSC52(w io.Writer) *OSC52 {
	return &OSC52{out: termenv.NewOutput(w)}
}

// Copy emits the OSC 52 sequence for content.
func (o *OSC52) Copy(content string) error {
	o.out.Copy(content)
	return nil
}

// Chain tries each clipboard in order and returns nil on the first success.
type Chain []redline.Clipboard

// Copy implements Clipboard.
func (c Chain) Copy(content string) error {
	var errs []error
	for _, cb := range c {
		err := cb.Copy(content)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return errors.New("clipboard: none configured")
	}
	return errors.Join(errs...)
}
