package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/bubbletea"
	"github.com/fwojciec/redline/chroma"
	"github.com/fwojciec/redline/clipboard"
	"github.com/fwojciec/redline/fs"
	"github.com/fwojciec/redline/jsonl"
	rltheme "github.com/fwojciec/redline/lipgloss"
	"github.com/fwojciec/redline/session"
	"github.com/spf13/cobra"
)

func newReviewCmd(a *App) *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "review <file>",
		Short: "Open a document in the interactive review view",
		Long: `Open a Markdown document, request suggestions with p and accept or
reject them one by one. Pending suggestions are kept in a sidecar file next
to the document and restored the next time it is reviewed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.review(cmd.Context(), args[0], prompt)
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "submit this prompt on start")
	return cmd
}

func (a *App) review(ctx context.Context, path, prompt string) error {
	content, err := fs.NewStore(path).Load()
	if err != nil {
		return err
	}
	gen, err := a.generator(ctx)
	if err != nil {
		return err
	}
	c := a.controller(gen, path, content)

	sidecars := jsonl.NewStore()
	sidecar := jsonl.SidecarPath(path)
	if a.cfg.Sidecar {
		if err := a.restore(c, sidecar); err != nil {
			return err
		}
	}

	theme := a.theme()
	tokenizer, err := chroma.NewTokenizer(chroma.StyleFromPalette(theme.Palette()))
	if err != nil {
		return err
	}
	m := bubbletea.NewReviewModel(c,
		bubbletea.WithContext(ctx),
		bubbletea.WithTheme(theme),
		bubbletea.WithLanguageDetector(chroma.NewDetector(chroma.WithContentAnalysis())),
		bubbletea.WithTokenizer(tokenizer),
		bubbletea.WithClipboard(clipboard.Chain{clipboard.NewSystem(), clipboard.NewOSC52(a.Stdout)}),
		bubbletea.WithInitialPrompt(prompt),
	)

	runErr := a.Review(ctx, m)
	if a.cfg.Sidecar {
		if err := sidecars.Save(sidecar, c.Hunks()); err != nil {
			return fmt.Errorf("save pending suggestions: %w", err)
		}
	}
	return runErr
}

// restore loads pending hunks left by an earlier review of the document.
func (a *App) restore(c *session.Controller, sidecar string) error {
	hunks, err := jsonl.NewStore().Load(sidecar)
	if err != nil {
		return fmt.Errorf("load pending suggestions: %w", err)
	}
	restored, err := c.Restore(hunks)
	if err != nil {
		return err
	}
	if len(restored) > 0 {
		a.logger.Info("resumed review", slog.String("sidecar", sidecar), slog.Int("hunks", len(restored)))
	}
	return nil
}

func (a *App) theme() redline.Theme {
	switch a.cfg.Theme {
	case "dark":
		return rltheme.DarkTheme()
	case "light":
		return rltheme.LightTheme()
	default:
		return rltheme.AdaptiveTheme(nil)
	}
}

type suggestFlags struct {
	prompt  string
	json    bool
	sidecar bool
}

func newSuggestCmd(a *App) *cobra.Command {
	f := &suggestFlags{}
	cmd := &cobra.Command{
		Use:   "suggest <file>",
		Short: "Request suggestions and print them without reviewing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.suggest(cmd.Context(), args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "what to change (required)")
	cmd.Flags().BoolVar(&f.json, "json", false, "print hunks as JSON instead of CriticMarkup")
	cmd.Flags().BoolVar(&f.sidecar, "sidecar", false, "keep pending hunks for a later review")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func (a *App) suggest(ctx context.Context, path string, f *suggestFlags) error {
	content, err := fs.NewStore(path).Load()
	if err != nil {
		return err
	}
	gen, err := a.generator(ctx)
	if err != nil {
		return err
	}
	c := a.controller(gen, path, content)
	if err := c.Compose(f.prompt); err != nil {
		return err
	}
	if err := c.Submit(ctx); err != nil {
		return err
	}

	hunks := c.Hunks()
	if f.json {
		enc := json.NewEncoder(a.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(hunks); err != nil {
			return err
		}
	} else {
		out := c.Render()
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		fmt.Fprint(a.Stdout, out)
	}
	fmt.Fprintln(a.Stderr, summarize(c.PendingCount(), len(hunks)-c.PendingCount(), len(c.Session().Warnings)))

	if f.sidecar {
		if err := jsonl.NewStore().Save(jsonl.SidecarPath(path), hunks); err != nil {
			return fmt.Errorf("save pending suggestions: %w", err)
		}
	}
	return nil
}

func summarize(pending, unresolved, warnings int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d suggestions", pending)
	if unresolved > 0 {
		fmt.Fprintf(&b, ", %d could not be placed", unresolved)
	}
	if warnings > 0 {
		fmt.Fprintf(&b, ", %d markup warnings", warnings)
	}
	return b.String()
}
