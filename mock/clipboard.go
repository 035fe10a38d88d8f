package mock

import "github.com/fwojciec/redline"

// Compile-time interface verification.
var _ redline.Clipboard = (*Clipboard)(nil)

// Clipboard is a mock implementation of redline.Clipboard.
type Clipboard struct {
	CopyFn func(content string) error
}

func (c *Clipboard) Copy(content string) error {
	return c.CopyFn(content)
}
