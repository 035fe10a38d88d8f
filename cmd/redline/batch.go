package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/fs"
	"github.com/fwojciec/redline/jsonl"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of documents processed concurrently.
const DefaultWorkers = 4

type batchFlags struct {
	prompt  string
	workers int
}

type batchResult struct {
	pending    int
	unresolved int
	err        error
}

func newBatchCmd(a *App) *cobra.Command {
	f := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Request suggestions for many documents and keep them for review",
		Long: `Send the same prompt for every document concurrently. Pending
suggestions are written to each document's sidecar file so that a later
review picks them up.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.batch(cmd.Context(), args, f)
		},
	}
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "what to change (required)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", DefaultWorkers, "documents processed concurrently")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func (a *App) batch(ctx context.Context, paths []string, f *batchFlags) error {
	if f.workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", f.workers)
	}
	gen, err := a.generator(ctx)
	if err != nil {
		return err
	}

	results := make([]batchResult, len(paths))
	sidecars := jsonl.NewStore()

	// Failures are reported per document and never cancel the others.
	var g errgroup.Group
	g.SetLimit(f.workers)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = a.suggestOne(ctx, gen, sidecars, path, f.prompt)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, path := range paths {
		r := results[i]
		if r.err != nil {
			failed++
			fmt.Fprintf(a.Stdout, "%s: error: %v\n", path, r.err)
			continue
		}
		fmt.Fprintf(a.Stdout, "%s: %s\n", path, summarize(r.pending, r.unresolved, 0))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(paths))
	}
	return nil
}

func (a *App) suggestOne(ctx context.Context, gen redline.Generator, sidecars *jsonl.Store, path, prompt string) batchResult {
	if err := ctx.Err(); err != nil {
		return batchResult{err: err}
	}
	content, err := fs.NewStore(path).Load()
	if err != nil {
		return batchResult{err: err}
	}
	c := a.controller(gen, path, content)
	if err := c.Compose(prompt); err != nil {
		return batchResult{err: err}
	}
	if err := c.Submit(ctx); err != nil {
		return batchResult{err: err}
	}
	hunks := c.Hunks()
	if err := sidecars.Save(jsonl.SidecarPath(path), hunks); err != nil {
		return batchResult{err: fmt.Errorf("save pending suggestions: %w", err)}
	}
	a.logger.Debug("document processed", slog.String("document", path), slog.Int("hunks", len(hunks)))
	return batchResult{pending: c.PendingCount(), unresolved: len(hunks) - c.PendingCount()}
}
