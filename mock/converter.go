// Package mock provides test doubles for redline interfaces.
package mock

import (
	"context"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var (
	_ redline.PatchConverter = (*PatchConverter)(nil)
	_ redline.Annotator      = (*Annotator)(nil)
	_ redline.RevisionReader = (*RevisionReader)(nil)
)

// PatchConverter is a mock implementation of redline.PatchConverter.
type PatchConverter struct {
	ConvertFn func(document, patch string) (string, error)
}

func (c *PatchConverter) Convert(document, patch string) (string, error) {
	return c.ConvertFn(document, patch)
}

// Annotator is a mock implementation of redline.Annotator.
type Annotator struct {
	AnnotateFn func(old, new string) string
}

func (a *Annotator) Annotate(old, new string) string {
	return a.AnnotateFn(old, new)
}

// RevisionReader is a mock implementation of redline.RevisionReader.
type RevisionReader struct {
	ShowFn func(ctx context.Context, path, rev string) (string, error)
	DiffFn func(ctx context.Context, path, rev string) (string, error)
}

func (r *RevisionReader) Show(ctx context.Context, path, rev string) (string, error) {
	return r.ShowFn(ctx, path, rev)
}

func (r *RevisionReader) Diff(ctx context.Context, path, rev string) (string, error) {
	return r.DiffFn(ctx, path, rev)
}
