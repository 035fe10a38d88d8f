// Package session drives suggestion rounds against a document.
//
// A Controller owns the engine and its history. Each round moves through
// Idle, Composing, Loading and then Success or Error. The generator is called
// without holding the controller lock, so hunks from earlier rounds can be
// accepted or rejected while a request is in flight.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/anchor"
	"github.com/fwojciec/redline/critic"
	"github.com/fwojciec/redline/engine"
	"github.com/fwojciec/redline/history"
	"github.com/google/uuid"
)

// Controller coordinates suggestion rounds, decisions and saving.
type Controller struct {
	mu sync.Mutex

	generator redline.Generator
	engine    *engine.Engine
	history   *history.Manager
	resolver  *anchor.Resolver

	id       string
	round    int
	restores int
	current  redline.Session

	logger    *slog.Logger
	observer  redline.Observer
	recorder  redline.RoundRecorder
	store     redline.DocumentStore
	patches   redline.PatchConverter
	annotator redline.Annotator
	now       func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o redline.Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithRecorder sets where round diagnostics are written.
func WithRecorder(r redline.RoundRecorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithStore sets the document store used by Save.
func WithStore(s redline.DocumentStore) Option {
	return func(c *Controller) {
		c.store = s
	}
}

// WithPatchConverter sets the converter for unified diff responses.
func WithPatchConverter(p redline.PatchConverter) Option {
	return func(c *Controller) {
		c.patches = p
	}
}

// WithAnnotator sets the annotator for plain rewrite responses.
func WithAnnotator(a redline.Annotator) Option {
	return func(c *Controller) {
		c.annotator = a
	}
}

// WithResolver sets the anchor resolver.
func WithResolver(r *anchor.Resolver) Option {
	return func(c *Controller) {
		c.resolver = r
	}
}

// WithClock sets the time source for round records.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New creates a Controller for content.
func New(gen redline.Generator, content string, opts ...Option) *Controller {
	c := &Controller{
		generator: gen,
		resolver:  anchor.New(),
		logger:    slog.Default().With(slog.String("component", "session")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.engine = engine.New(content, engine.WithResolver(c.resolver))
	c.history = history.New(c.engine)
	c.id = uuid.NewString()
	c.current = redline.Session{ID: c.id, State: redline.StateIdle}
	return c
}

// State returns the state of the current round.
func (c *Controller) State() redline.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.State
}

// Session returns the current round. Its hunks reflect their latest status.
func (c *Controller) Session() redline.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.current
	if len(s.Hunks) > 0 {
		hunks := make([]redline.Hunk, len(s.Hunks))
		for i, h := range s.Hunks {
			if latest, ok := c.engine.Hunk(h.ID); ok {
				h = latest
			}
			hunks[i] = h
		}
		s.Hunks = hunks
	}
	return s
}

// Compose starts or updates the prompt of the next round.
func (c *Controller) Compose(prompt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.current.State {
	case redline.StateLoading:
		return redline.ErrRequestInFlight
	case redline.StateIdle, redline.StateComposing, redline.StateSuccess, redline.StateError:
	default:
		return redline.ErrInvalidTransition
	}
	if strings.TrimSpace(prompt) == "" {
		return redline.ErrEmptyPrompt
	}
	c.current = redline.Session{ID: c.id, Round: c.round, Prompt: prompt, State: redline.StateComposing}
	return nil
}

// Submit sends the composed prompt and loads the resulting hunks. A second
// call while a request is in flight returns ErrRequestInFlight without
// calling the generator. When the request fails the document is unchanged
// and the returned error is an *redline.ExternalCallError.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.current.State {
	case redline.StateLoading:
		c.mu.Unlock()
		return redline.ErrRequestInFlight
	case redline.StateComposing:
	default:
		c.mu.Unlock()
		return redline.ErrInvalidTransition
	}
	c.round++
	round := c.round
	prompt := c.current.Prompt
	snapshot := c.engine.Content()
	c.current.Round = round
	c.current.Snapshot = snapshot
	c.current.State = redline.StateLoading
	c.mu.Unlock()

	c.logger.Info("submitting round", "session", c.id, "round", round)
	resp, err := c.generator.Generate(ctx, snapshot, prompt)

	c.mu.Lock()
	defer c.mu.Unlock()

	var markup string
	if err == nil {
		markup, err = c.normalise(snapshot, resp)
	}
	if err != nil {
		return c.fail(round, prompt, err)
	}

	res := critic.Parse(markup)
	for _, w := range res.Warnings {
		c.logger.Warn("parse warning", "round", round, "offset", w.Offset, "message", w.Message)
	}

	hunks := c.resolver.Resolve(res.Hunks, c.engine.Content())
	for i := range hunks {
		hunks[i].ID = fmt.Sprintf("r%d-h%d", round, i+1)
	}
	loaded, err := c.engine.Load(hunks)
	if err != nil {
		return c.fail(round, prompt, err)
	}

	c.current.Hunks = loaded
	c.current.Warnings = res.Warnings
	c.current.State = redline.StateSuccess
	c.current.Err = nil

	resolved, unresolved := split(loaded)
	for _, h := range unresolved {
		c.logger.Warn("unresolved hunk", "id", h.ID, "kind", h.Kind.String(), "reason", string(h.Reason))
	}
	c.logger.Info("round loaded", "round", round, "resolved", resolved, "unresolved", len(unresolved))
	if c.observer != nil {
		c.observer.HunksResolved(resolved, len(unresolved))
		c.observer.RoundFinished(redline.OutcomeSuccess)
	}
	c.record(redline.RoundRecord{
		SessionID:  c.id,
		Round:      round,
		Prompt:     prompt,
		Outcome:    redline.OutcomeSuccess,
		Resolved:   resolved,
		Unresolved: records(unresolved),
		Warnings:   res.Warnings,
		FinishedAt: c.now(),
	})
	return nil
}

// normalise turns a generator response into CriticMarkup.
func (c *Controller) normalise(snapshot, resp string) (string, error) {
	if strings.TrimSpace(resp) == "" {
		return "", redline.ErrEmptyResponse
	}
	switch {
	case critic.HasMarkup(resp):
		return resp, nil
	case c.patches != nil && isUnifiedDiff(resp):
		markup, err := c.patches.Convert(snapshot, resp)
		if err != nil {
			return "", fmt.Errorf("convert patch: %w", err)
		}
		return markup, nil
	case resp == snapshot:
		return resp, nil
	case c.annotator != nil:
		return c.annotator.Annotate(snapshot, resp), nil
	}
	return "", redline.ErrNoMarkup
}

func isUnifiedDiff(s string) bool {
	return (strings.HasPrefix(s, "--- ") || strings.Contains(s, "\n--- ")) &&
		strings.Contains(s, "\n+++ ") && strings.Contains(s, "\n@@ ")
}

func (c *Controller) fail(round int, prompt string, err error) error {
	callErr := &redline.ExternalCallError{Err: err}
	c.current.State = redline.StateError
	c.current.Err = callErr
	c.logger.Error("round failed", "round", round, "error", err)
	if c.observer != nil {
		c.observer.RoundFinished(redline.OutcomeError)
	}
	c.record(redline.RoundRecord{
		SessionID:  c.id,
		Round:      round,
		Prompt:     prompt,
		Outcome:    redline.OutcomeError,
		Error:      err.Error(),
		FinishedAt: c.now(),
	})
	return callErr
}

func (c *Controller) record(rec redline.RoundRecord) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(rec); err != nil {
		c.logger.Warn("record round", "round", rec.Round, "error", err)
	}
}

func split(hunks []redline.Hunk) (int, []redline.Hunk) {
	resolved := 0
	var unresolved []redline.Hunk
	for _, h := range hunks {
		if h.Status == redline.Unresolved {
			unresolved = append(unresolved, h)
			continue
		}
		resolved++
	}
	return resolved, unresolved
}

func records(hunks []redline.Hunk) []redline.HunkRecord {
	if len(hunks) == 0 {
		return nil
	}
	out := make([]redline.HunkRecord, len(hunks))
	for i, h := range hunks {
		out[i] = redline.HunkRecord{
			ID:       h.ID,
			Kind:     h.Kind.String(),
			Original: h.Original,
			Proposed: h.Proposed,
			Reason:   h.Reason,
		}
	}
	return out
}

// Reset returns a successful round to Idle.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.State != redline.StateSuccess {
		return redline.ErrInvalidTransition
	}
	c.current = redline.Session{ID: c.id, Round: c.round, State: redline.StateIdle}
	return nil
}

// Retry resubmits the prompt of a failed round.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.current.State != redline.StateError {
		c.mu.Unlock()
		return redline.ErrInvalidTransition
	}
	c.current.State = redline.StateComposing
	c.current.Err = nil
	c.mu.Unlock()
	return c.Submit(ctx)
}

// Accept accepts a pending hunk.
func (c *Controller) Accept(id string) error {
	return c.decide(func() (redline.Transaction, error) { return c.history.Accept(id) })
}

// Reject rejects a pending hunk.
func (c *Controller) Reject(id string) error {
	return c.decide(func() (redline.Transaction, error) { return c.history.Reject(id) })
}

// AcceptAll accepts every pending hunk in one history entry.
func (c *Controller) AcceptAll() error {
	return c.decide(c.history.AcceptAll)
}

// RejectAll rejects every pending hunk in one history entry.
func (c *Controller) RejectAll() error {
	return c.decide(c.history.RejectAll)
}

// Undo reverts the latest decision.
func (c *Controller) Undo() error {
	return c.decide(c.history.Undo)
}

// Redo re-applies the latest undone decision.
func (c *Controller) Redo() error {
	return c.decide(c.history.Redo)
}

func (c *Controller) decide(fn func() (redline.Transaction, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, err := fn()
	if err != nil {
		return err
	}
	c.logger.Debug("decided", "op", string(tx.Op), "hunks", len(tx.Steps))
	if c.observer != nil {
		c.observer.Decided(tx.Op, len(tx.Steps))
	}
	return nil
}

// CanUndo reports whether there is a decision to undo.
func (c *Controller) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanUndo()
}

// CanRedo reports whether there is a decision to redo.
func (c *Controller) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanRedo()
}

// PendingCount returns the number of pending hunks across all rounds.
func (c *Controller) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.PendingCount()
}

// CanSave reports whether the document may be saved, with the reason when
// it may not.
func (c *Controller) CanSave() (bool, string) {
	if c.PendingCount() > 0 {
		return false, redline.SaveBlockedReason
	}
	return true, ""
}

// Save persists the content and ends the editing session. It fails with
// ErrPendingSuggestions while any hunk is pending.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine.PendingCount() > 0 {
		return redline.ErrPendingSuggestions
	}
	if c.current.State == redline.StateLoading {
		return redline.ErrRequestInFlight
	}
	if c.store == nil {
		return errors.New("session: save: no document store")
	}
	if err := c.store.Save(ctx, c.engine.Content()); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	c.logger.Info("saved", "session", c.id, "rounds", c.round)

	c.history.Clear()
	c.engine.Compact()
	c.id = uuid.NewString()
	c.round = 0
	c.current = redline.Session{ID: c.id, State: redline.StateIdle}
	return nil
}

// Edit replaces the content after a manual edit. Pending hunks that no
// longer match are unresolved. History is cleared since recorded positions
// no longer apply.
func (c *Controller) Edit(text string) []redline.Hunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	if text == c.engine.Content() {
		return nil
	}
	lost := c.engine.Edit(text)
	for _, h := range lost {
		c.logger.Warn("hunk lost to manual edit", "id", h.ID, "reason", string(h.Reason))
	}
	c.history.Clear()
	return lost
}

// Restore loads pending hunks kept from an earlier editing session, such as
// those read back from a sidecar file. Decided hunks are skipped. Restored
// hunks get fresh ids; those that no longer anchor come back Unresolved.
func (c *Controller) Restore(hunks []redline.Hunk) ([]redline.Hunk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.State == redline.StateLoading {
		return nil, redline.ErrRequestInFlight
	}

	c.restores++
	var pending []redline.Hunk
	for _, h := range hunks {
		if h.Status != redline.Pending {
			continue
		}
		h.ID = fmt.Sprintf("s%d-h%d", c.restores, len(pending)+1)
		pending = append(pending, h)
	}
	if len(pending) == 0 {
		return nil, nil
	}
	loaded, err := c.engine.Load(pending)
	if err != nil {
		return nil, fmt.Errorf("session: restore: %w", err)
	}
	resolved, unresolved := split(loaded)
	c.logger.Info("restored hunks", "session", c.id, "resolved", resolved, "unresolved", len(unresolved))
	return loaded, nil
}

// Content returns the committed document text.
func (c *Controller) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Content()
}

// Render returns the document with pending hunks overlaid as CriticMarkup.
func (c *Controller) Render() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Render()
}

// Markers returns the positions of pending hunks within Render.
func (c *Controller) Markers() []redline.Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Markers()
}

// Counts summarises pending hunks.
func (c *Controller) Counts() redline.Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Counts()
}

// Hunks returns every hunk of the editing session.
func (c *Controller) Hunks() []redline.Hunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Hunks()
}
