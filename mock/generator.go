package mock

import (
	"context"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.Generator = (*Generator)(nil)

// Generator is a mock implementation of redline.Generator.
type Generator struct {
	GenerateFn func(ctx context.Context, document, prompt string) (string, error)
}

func (g *Generator) Generate(ctx context.Context, document, prompt string) (string, error) {
	return g.GenerateFn(ctx, document, prompt)
}
