package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fwojciec/redline/critic"
	"github.com/fwojciec/redline/gitdiff"
	"github.com/fwojciec/redline/jsonl"
	"github.com/fwojciec/redline/worddiff"
	"github.com/spf13/cobra"
)

// ErrNoRoundLog is returned by rounds when no log path is known.
var ErrNoRoundLog = errors.New("no round log: pass a path or set round_log")

func newApplyCmd(a *App) *cobra.Command {
	var reject bool
	cmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Resolve CriticMarkup by accepting or rejecting every change",
		Long:  "Read CriticMarkup from file, or stdin when no file is given, and print the resolved text.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			markup, err := a.readInput(args)
			if err != nil {
				return err
			}
			for _, w := range critic.Parse(markup).Warnings {
				fmt.Fprintf(a.Stderr, "warning: offset %d: %s\n", w.Offset, w.Message)
			}
			if reject {
				fmt.Fprint(a.Stdout, critic.Strip(markup))
				return nil
			}
			fmt.Fprint(a.Stdout, critic.Apply(markup))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reject, "reject", false, "reject every change instead of accepting it")
	return cmd
}

func (a *App) readInput(args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(a.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return readFile(args[0])
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newAnnotateCmd(a *App) *cobra.Command {
	var rev string
	cmd := &cobra.Command{
		Use:   "annotate <old> <new> | annotate --rev <rev> <file>",
		Short: "Print the word-level CriticMarkup between two versions of a file",
		Args: func(cmd *cobra.Command, args []string) error {
			if rev != "" {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var old string
			var err error
			if rev != "" {
				old, err = a.Revisions.Show(cmd.Context(), args[0], rev)
			} else {
				old, err = readFile(args[0])
				args = args[1:]
			}
			if err != nil {
				return err
			}
			updated, err := readFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(a.Stdout, worddiff.NewAnnotator().Annotate(old, updated))
			return nil
		},
	}
	cmd.Flags().StringVar(&rev, "rev", "", "compare the file with this git revision")
	return cmd
}

func newConvertCmd(a *App) *cobra.Command {
	var rev string
	cmd := &cobra.Command{
		Use:   "convert <document> [patch]",
		Short: "Turn a unified diff against a document into CriticMarkup",
		Long: `Apply a unified diff to document and print the result as CriticMarkup.
The patch is read from the given file, from stdin when omitted, or from git
when --rev is set, in which case document is the committed version.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var document, patch string
			var err error
			if rev != "" {
				if document, err = a.Revisions.Show(cmd.Context(), args[0], rev); err != nil {
					return err
				}
				patch, err = a.Revisions.Diff(cmd.Context(), args[0], rev)
			} else {
				if document, err = readFile(args[0]); err != nil {
					return err
				}
				patch, err = a.readInput(args[1:])
			}
			if err != nil {
				return err
			}
			if strings.TrimSpace(patch) == "" {
				fmt.Fprint(a.Stdout, document)
				return nil
			}
			markup, err := gitdiff.NewConverter(worddiff.NewAnnotator()).Convert(document, patch)
			if err != nil {
				return err
			}
			fmt.Fprint(a.Stdout, markup)
			return nil
		},
	}
	cmd.Flags().StringVar(&rev, "rev", "", "convert the working tree changes since this git revision")
	return cmd
}

func newRoundsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rounds [log]",
		Short: "Summarize recorded suggestion rounds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.RoundLog
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return ErrNoRoundLog
			}
			records, err := jsonl.NewLoader().Load(path)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(a.Stdout, "no rounds recorded")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, r := range records {
				outcome := string(r.Outcome)
				if r.Error != "" {
					outcome += ": " + r.Error
				}
				rows = append(rows, []string{
					shortID(r.SessionID),
					strconv.Itoa(r.Round),
					outcome,
					strconv.Itoa(r.Resolved),
					strconv.Itoa(len(r.Unresolved)),
					strconv.Itoa(len(r.Warnings)),
					truncate(r.Prompt, 40),
				})
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("SESSION", "ROUND", "OUTCOME", "RESOLVED", "UNRESOLVED", "WARNINGS", "PROMPT").
				Rows(rows...)
			fmt.Fprintln(a.Stdout, t.String())
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
