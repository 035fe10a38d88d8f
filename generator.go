package redline

import "context"

// Generator produces suggested edits for a document.
type Generator interface {
	// Generate returns the full document re-rendered with CriticMarkup
	// markers describing the edits requested by prompt. Implementations may
	// instead return a unified diff or a plain rewrite; the session converts
	// both to CriticMarkup.
	Generate(ctx context.Context, document, prompt string) (string, error)
}

// PatchConverter turns a unified diff against a document into CriticMarkup.
type PatchConverter interface {
	Convert(document, patch string) (string, error)
}

// Annotator derives CriticMarkup from an old and a new version of a text.
type Annotator interface {
	Annotate(old, new string) string
}

// RevisionReader reads earlier versions of a document from version control.
type RevisionReader interface {
	// Show returns the content of path at rev.
	Show(ctx context.Context, path, rev string) (string, error)
	// Diff returns a unified diff of path from rev to the working tree.
	Diff(ctx context.Context, path, rev string) (string, error)
}
