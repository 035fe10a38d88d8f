package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/anchor"
	"github.com/fwojciec/redline/bubbletea"
	"github.com/fwojciec/redline/config"
	"github.com/fwojciec/redline/fs"
	"github.com/fwojciec/redline/gemini"
	"github.com/fwojciec/redline/git"
	"github.com/fwojciec/redline/gitdiff"
	"github.com/fwojciec/redline/jsonl"
	"github.com/fwojciec/redline/openai"
	"github.com/fwojciec/redline/prometheus"
	"github.com/fwojciec/redline/session"
	"github.com/fwojciec/redline/worddiff"
	"github.com/spf13/cobra"
)

// ErrMissingAPIKey is returned when the selected provider has no API key.
var ErrMissingAPIKey = errors.New("missing API key")

// GeneratorFunc builds the suggestion backend for cfg. The returned close
// function releases provider resources and may be nil.
type GeneratorFunc func(ctx context.Context, cfg config.Config, logger *slog.Logger) (redline.Generator, func() error, error)

// ReviewFunc displays the interactive review view until the user quits.
type ReviewFunc func(ctx context.Context, m bubbletea.ReviewModel) error

// App encapsulates the application logic for testing.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	NewGenerator GeneratorFunc
	Review       ReviewFunc
	Revisions    redline.RevisionReader

	cfg      config.Config
	logger   *slog.Logger
	recorder redline.RoundRecorder
	observer redline.Observer
	closers  []func() error
}

// Run executes the command line in args.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.close()
	cmd := NewRootCmd(a)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
	a.closers = nil
}

type rootFlags struct {
	config   string
	provider string
	model    string
	logFile  string
	logLevel string
	noCache  bool
}

// NewRootCmd builds the redline command tree over a.
func NewRootCmd(a *App) *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "redline",
		Short:         "Review AI-suggested edits to a Markdown document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, f)
		},
	}
	root.SetIn(a.Stdin)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "config file (default $XDG_CONFIG_HOME/redline/config.yaml)")
	pf.StringVar(&f.provider, "provider", "", "suggestion provider: gemini or openai")
	pf.StringVar(&f.model, "model", "", "model name, empty for the provider default")
	pf.StringVar(&f.logFile, "log-file", "", "write logs to this file")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&f.noCache, "no-cache", false, "bypass the response cache")

	root.AddCommand(
		newReviewCmd(a),
		newSuggestCmd(a),
		newBatchCmd(a),
		newApplyCmd(a),
		newAnnotateCmd(a),
		newConvertCmd(a),
		newRoundsCmd(a),
	)
	return root
}

func (a *App) setup(cmd *cobra.Command, f *rootFlags) error {
	path := f.config
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path, a.Getenv)
	if err != nil {
		return err
	}
	if f.provider != "" {
		cfg.Provider = f.provider
	}
	if f.model != "" {
		cfg.Model = f.model
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("no-cache") {
		cfg.NoCache = f.noCache
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	// The review view owns the terminal, so it only logs to a file.
	logger, err := a.openLogger(cmd.Name() == "review")
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *App) openLogger(interactive bool) (*slog.Logger, error) {
	level, err := a.cfg.Level()
	if err != nil {
		return nil, err
	}
	w := a.Stderr
	switch {
	case a.cfg.LogFile != "":
		f, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, f.Close)
		w = f
	case interactive:
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// generator builds the suggestion backend together with the round
// recorder and metrics observer shared by every controller.
func (a *App) generator(ctx context.Context) (redline.Generator, error) {
	gen, closeFn, err := a.NewGenerator(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	if closeFn != nil {
		a.closers = append(a.closers, closeFn)
	}
	if a.cfg.RoundLog != "" {
		a.recorder = jsonl.NewRecorder(a.cfg.RoundLog)
	}
	if a.cfg.MetricsAddr != "" {
		if err := a.serveMetrics(); err != nil {
			return nil, err
		}
	}
	return gen, nil
}

func (a *App) serveMetrics() error {
	obs, err := prometheus.NewObserver(nil)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", obs.Handler())
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	a.logger.Info("serving metrics", slog.String("addr", a.cfg.MetricsAddr))
	a.observer = obs
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	return nil
}

// controller creates a session over the document at path.
func (a *App) controller(gen redline.Generator, path, content string) *session.Controller {
	annotator := worddiff.NewAnnotator()
	opts := []session.Option{
		session.WithLogger(a.logger.With(slog.String("component", "session"), slog.String("document", path))),
		session.WithStore(fs.NewStore(path)),
		session.WithAnnotator(annotator),
		session.WithPatchConverter(gitdiff.NewConverter(annotator)),
		session.WithResolver(anchor.New(anchor.WithTolerance(a.cfg.Tolerance))),
	}
	if a.recorder != nil {
		opts = append(opts, session.WithRecorder(a.recorder))
	}
	if a.observer != nil {
		opts = append(opts, session.WithObserver(a.observer))
	}
	return session.New(gen, content, opts...)
}

// NewGenerator builds the configured provider, wrapped in the on-disk
// response cache unless caching is disabled.
func NewGenerator(ctx context.Context, cfg config.Config, logger *slog.Logger) (redline.Generator, func() error, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, cfg.APIKeyEnv())
	}

	var (
		gen     redline.Generator
		closeFn func() error
		model   = cfg.Model
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if model == "" {
			model = openai.DefaultModel
		}
		gen = openai.NewGenerator(openai.NewClient(key), model,
			openai.WithTimeout(cfg.Timeout),
			openai.WithLogger(logger.With(slog.String("component", "openai"))),
		)
	default:
		if model == "" {
			model = gemini.DefaultModel
		}
		client, err := gemini.NewClient(ctx, key)
		if err != nil {
			return nil, nil, err
		}
		closeFn = client.Close
		gen = gemini.NewGenerator(client, model,
			gemini.WithTimeout(cfg.Timeout),
			gemini.WithRetries(cfg.Retries, 2*time.Second),
		)
	}

	if cfg.NoCache {
		return gen, closeFn, nil
	}
	dir := cfg.CacheDir
	if dir == "" {
		dir = fs.DefaultCacheDir()
	}
	return fs.NewGenerator(gen, dir, cfg.Provider+"/"+model), closeFn, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := &App{
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Getenv:       os.Getenv,
		NewGenerator: NewGenerator,
		Review:       bubbletea.NewProgram().Run,
		Revisions:    git.NewRunner(),
	}

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
