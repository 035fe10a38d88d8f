// Package engine applies anchored hunks to a live document.
//
// The engine owns the committed document content and the spans of pending
// hunks within it. Pending hunks are never part of the content: a pending
// deletion covers text that is still present, a pending insertion is a
// zero-width span. Rendering overlays pending hunks as CriticMarkup. Accepting
// or rejecting a hunk returns a redline.Transaction that Revert and Apply can
// replay.
package engine

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/anchor"
	"github.com/fwojciec/redline/critic"
	"github.com/fwojciec/redline/markdown"
)

// Ensure Engine implements redline.Applier.
var _ redline.Applier = (*Engine)(nil)

// Engine holds a document and the hunks proposed against it.
type Engine struct {
	content  string
	entries  []*entry
	byID     map[string]*entry
	resolver *anchor.Resolver
}

type entry struct {
	hunk redline.Hunk
	pos  int // Start of the span in content; meaningful while pending
}

func (e *entry) end() int {
	return e.pos + len(e.hunk.Original)
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver sets the resolver used to re-anchor hunks after manual edits.
func WithResolver(r *anchor.Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// New creates an Engine over content.
func New(content string, opts ...Option) *Engine {
	e := &Engine{
		content:  content,
		byID:     make(map[string]*entry),
		resolver: anchor.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromMarkup creates an Engine over the reject-all view of markup with every
// change in it loaded as a pending hunk. Hunk ids are h1, h2 and so on.
func FromMarkup(markup string, opts ...Option) (*Engine, error) {
	res := critic.Parse(markup)
	e := New(res.Original, opts...)
	hunks := e.resolver.Resolve(res.Hunks, res.Original)
	for i := range hunks {
		hunks[i].ID = fmt.Sprintf("h%d", i+1)
	}
	if _, err := e.Load(hunks); err != nil {
		return nil, err
	}
	return e, nil
}

// Content returns the committed document text.
func (e *Engine) Content() string {
	return e.content
}

// Load adds anchored hunks. Pending hunks whose anchor no longer matches the
// content, or whose span overlaps a pending hunk, are stored as Unresolved.
// Proposed text landing in a list item is re-indented to keep its nesting.
// It returns the hunks as stored.
func (e *Engine) Load(hunks []redline.Hunk) ([]redline.Hunk, error) {
	seen := make(map[string]bool, len(hunks))
	for _, h := range hunks {
		if h.ID == "" {
			return nil, fmt.Errorf("engine: load: hunk without id")
		}
		if _, ok := e.byID[h.ID]; ok || seen[h.ID] {
			return nil, fmt.Errorf("engine: load: duplicate hunk id %q", h.ID)
		}
		seen[h.ID] = true
	}

	doc := markdown.Parse(e.content)
	out := make([]redline.Hunk, 0, len(hunks))
	for _, h := range hunks {
		ent := &entry{hunk: h}
		if h.Status == redline.Pending {
			e.place(doc, ent)
		}
		e.entries = append(e.entries, ent)
		e.byID[h.ID] = ent
		out = append(out, e.snapshot(doc, ent))
	}
	return out, nil
}

func (e *Engine) place(doc *markdown.Document, ent *entry) {
	h := &ent.hunk
	pos, ok := anchor.Offset(doc, h.Anchor)
	if !ok || pos+len(h.Original) > len(e.content) || e.content[pos:pos+len(h.Original)] != h.Original {
		located, err := e.resolver.Locate(e.content, *h)
		if err != nil {
			unresolve(h, err)
			return
		}
		pos = located
	}
	if e.collides(ent, pos, pos+len(h.Original)) {
		h.Status = redline.Unresolved
		h.Reason = redline.ReasonOverlap
		return
	}
	ent.pos = pos
	if h.Proposed != "" {
		h.Proposed = markdown.Reindent(doc, pos, h.Proposed)
	}
}

func unresolve(h *redline.Hunk, err error) {
	h.Status = redline.Unresolved
	h.Reason = redline.ReasonNoMatch
	var uerr *anchor.UnresolvedError
	if errors.As(err, &uerr) {
		h.Reason = uerr.Reason
	}
}

func (e *Engine) collides(self *entry, start, end int) bool {
	for _, other := range e.entries {
		if other == self || other.hunk.Status != redline.Pending {
			continue
		}
		if anchor.Overlaps(other.pos, other.end(), start, end) {
			return true
		}
	}
	return false
}

// Hunks returns every hunk in load order. Anchors of pending hunks reflect
// the current content.
func (e *Engine) Hunks() []redline.Hunk {
	doc := markdown.Parse(e.content)
	out := make([]redline.Hunk, len(e.entries))
	for i, ent := range e.entries {
		out[i] = e.snapshot(doc, ent)
	}
	return out
}

// Hunk returns the hunk with the given id.
func (e *Engine) Hunk(id string) (redline.Hunk, bool) {
	ent, ok := e.byID[id]
	if !ok {
		return redline.Hunk{}, false
	}
	return e.snapshot(markdown.Parse(e.content), ent), true
}

func (e *Engine) snapshot(doc *markdown.Document, ent *entry) redline.Hunk {
	h := ent.hunk
	if h.Status == redline.Pending {
		h.Anchor = anchor.At(doc, ent.pos, ent.end())
	}
	return h
}

// PendingCount returns the number of pending hunks.
func (e *Engine) PendingCount() int {
	n := 0
	for _, ent := range e.entries {
		if ent.hunk.Status == redline.Pending {
			n++
		}
	}
	return n
}

// Counts summarises pending hunks.
func (e *Engine) Counts() redline.Counts {
	var c redline.Counts
	for _, ent := range e.entries {
		if ent.hunk.Status != redline.Pending {
			continue
		}
		switch ent.hunk.Kind {
		case redline.Insertion:
			c.Insertions++
		case redline.Deletion:
			c.Deletions++
		case redline.Replacement:
			c.Insertions++
			c.Deletions++
		}
		c.Total++
	}
	return c
}

// pending returns pending entries in document order. At equal positions an
// insertion precedes a span starting there.
func (e *Engine) pending() []*entry {
	var out []*entry
	for _, ent := range e.entries {
		if ent.hunk.Status == redline.Pending {
			out = append(out, ent)
		}
	}
	slices.SortStableFunc(out, func(a, b *entry) int {
		return cmp.Or(cmp.Compare(a.pos, b.pos), cmp.Compare(a.end(), b.end()))
	})
	return out
}

// Render returns the content with pending hunks overlaid as CriticMarkup.
// Stripping the markup yields Content. A pending deletion that ends where a
// pending insertion starts renders as adjacent markers, which parse back as
// a single replacement.
func (e *Engine) Render() string {
	text, _ := e.render()
	return text
}

// Markers returns the position of every pending hunk within Render.
func (e *Engine) Markers() []redline.Marker {
	_, markers := e.render()
	return markers
}

func (e *Engine) render() (string, []redline.Marker) {
	var b strings.Builder
	var markers []redline.Marker
	cur := 0
	for _, ent := range e.pending() {
		h := ent.hunk
		b.WriteString(e.content[cur:ent.pos])
		m := redline.Marker{HunkID: h.ID, Kind: h.Kind, Start: b.Len()}
		m.DeleteStart, m.DeleteEnd = m.Start, m.Start
		if h.Original != "" {
			b.WriteString(critic.Delete(h.Original))
			m.DeleteEnd = b.Len()
		}
		m.InsertStart, m.InsertEnd = b.Len(), b.Len()
		if h.Proposed != "" {
			b.WriteString(critic.Insert(h.Proposed))
			m.InsertEnd = b.Len()
		}
		m.End = b.Len()
		markers = append(markers, m)
		cur = ent.end()
	}
	b.WriteString(e.content[cur:])
	return b.String(), markers
}

// Render overlays pending hunks on text without retaining any state. Every
// hunk needs a unique id.
func Render(text string, hunks []redline.Hunk) (string, error) {
	e := New(text)
	if _, err := e.Load(hunks); err != nil {
		return "", err
	}
	return e.Render(), nil
}

func (e *Engine) lookup(id string) (*entry, error) {
	ent, ok := e.byID[id]
	if !ok {
		return nil, &redline.HunkError{HunkID: id, Err: redline.ErrUnknownHunk}
	}
	if ent.hunk.Status != redline.Pending {
		return nil, &redline.HunkError{HunkID: id, Status: ent.hunk.Status, Err: redline.ErrHunkNotPending}
	}
	return ent, nil
}

// Accept commits a pending hunk to the content.
func (e *Engine) Accept(id string) (redline.Transaction, error) {
	ent, err := e.lookup(id)
	if err != nil {
		return redline.Transaction{}, err
	}
	return redline.Transaction{Op: redline.OpAccept, Steps: []redline.Step{e.accept(ent)}}, nil
}

// Reject discards a pending hunk. The content is unchanged.
func (e *Engine) Reject(id string) (redline.Transaction, error) {
	ent, err := e.lookup(id)
	if err != nil {
		return redline.Transaction{}, err
	}
	return redline.Transaction{Op: redline.OpReject, Steps: []redline.Step{e.reject(ent)}}, nil
}

// AcceptAll accepts every pending hunk, last position first.
func (e *Engine) AcceptAll() (redline.Transaction, error) {
	return e.all(redline.OpAcceptAll, e.accept)
}

// RejectAll rejects every pending hunk, last position first.
func (e *Engine) RejectAll() (redline.Transaction, error) {
	return e.all(redline.OpRejectAll, e.reject)
}

func (e *Engine) all(op redline.Operation, decide func(*entry) redline.Step) (redline.Transaction, error) {
	pending := e.pending()
	if len(pending) == 0 {
		return redline.Transaction{}, redline.ErrNothingPending
	}
	tx := redline.Transaction{Op: op, Steps: make([]redline.Step, 0, len(pending))}
	for i := len(pending) - 1; i >= 0; i-- {
		tx.Steps = append(tx.Steps, decide(pending[i]))
	}
	return tx, nil
}

func (e *Engine) accept(ent *entry) redline.Step {
	step := redline.Step{
		HunkID:   ent.hunk.ID,
		From:     redline.Pending,
		To:       redline.Accepted,
		Pos:      ent.pos,
		Removed:  ent.hunk.Original,
		Inserted: ent.hunk.Proposed,
	}
	if step.Removed != "" {
		step.Leading = e.insertionsAt(ent, step.Pos)
	}
	e.splice(ent, step.Pos, step.Removed, step.Inserted, nil)
	ent.hunk.Status = redline.Accepted
	return step
}

func (e *Engine) reject(ent *entry) redline.Step {
	ent.hunk.Status = redline.Rejected
	return redline.Step{
		HunkID: ent.hunk.ID,
		From:   redline.Pending,
		To:     redline.Rejected,
		Pos:    ent.pos,
	}
}

// insertionsAt returns the ids of pending insertions positioned at pos.
func (e *Engine) insertionsAt(self *entry, pos int) []string {
	var ids []string
	for _, other := range e.entries {
		if other != self && other.hunk.Status == redline.Pending && other.hunk.Original == "" && other.pos == pos {
			ids = append(ids, other.hunk.ID)
		}
	}
	return ids
}

// splice replaces removed with inserted at pos and shifts the pending spans
// that follow. Pending hunks named in leading stay at pos.
func (e *Engine) splice(self *entry, pos int, removed, inserted string, leading []string) {
	e.content = e.content[:pos] + inserted + e.content[pos+len(removed):]
	delta := len(inserted) - len(removed)
	for _, other := range e.entries {
		if other == self || other.hunk.Status != redline.Pending {
			continue
		}
		if other.pos == pos && slices.Contains(leading, other.hunk.ID) {
			continue
		}
		if other.pos >= pos+len(removed) {
			other.pos += delta
		}
	}
}

type saved struct {
	content string
	pos     []int
	status  []redline.HunkStatus
}

func (e *Engine) save() saved {
	s := saved{
		content: e.content,
		pos:     make([]int, len(e.entries)),
		status:  make([]redline.HunkStatus, len(e.entries)),
	}
	for i, ent := range e.entries {
		s.pos[i] = ent.pos
		s.status[i] = ent.hunk.Status
	}
	return s
}

func (e *Engine) restore(s saved) {
	e.content = s.content
	for i, ent := range e.entries {
		ent.pos = s.pos[i]
		ent.hunk.Status = s.status[i]
	}
}

// Revert undoes a transaction, walking its steps backwards. Reverted hunks
// regain their previous status and span. If any step no longer fits the
// current state nothing is changed and ErrHistoryConflict is returned.
func (e *Engine) Revert(tx redline.Transaction) error {
	s := e.save()
	for i := len(tx.Steps) - 1; i >= 0; i-- {
		if err := e.revertStep(tx.Steps[i]); err != nil {
			e.restore(s)
			return fmt.Errorf("engine: revert %s: %w", tx.Op, err)
		}
	}
	return nil
}

func (e *Engine) revertStep(step redline.Step) error {
	ent, ok := e.byID[step.HunkID]
	if !ok || ent.hunk.Status != step.To {
		return redline.ErrHistoryConflict
	}
	if !e.holds(step.Pos, step.Inserted) {
		return redline.ErrHistoryConflict
	}
	if step.Inserted != "" && e.collides(ent, step.Pos, step.Pos+len(step.Inserted)) {
		return redline.ErrHistoryConflict
	}
	e.splice(ent, step.Pos, step.Inserted, step.Removed, step.Leading)
	ent.hunk.Status = step.From
	if step.From == redline.Pending {
		ent.pos = step.Pos
		if e.collides(ent, ent.pos, ent.end()) {
			return redline.ErrHistoryConflict
		}
	}
	return nil
}

// Apply replays a transaction previously returned by the engine.
func (e *Engine) Apply(tx redline.Transaction) error {
	s := e.save()
	for _, step := range tx.Steps {
		if err := e.applyStep(step); err != nil {
			e.restore(s)
			return fmt.Errorf("engine: apply %s: %w", tx.Op, err)
		}
	}
	return nil
}

func (e *Engine) applyStep(step redline.Step) error {
	ent, ok := e.byID[step.HunkID]
	if !ok || ent.hunk.Status != step.From {
		return redline.ErrHistoryConflict
	}
	if step.From == redline.Pending && ent.pos != step.Pos {
		return redline.ErrHistoryConflict
	}
	if !e.holds(step.Pos, step.Removed) {
		return redline.ErrHistoryConflict
	}
	e.splice(ent, step.Pos, step.Removed, step.Inserted, nil)
	ent.hunk.Status = step.To
	return nil
}

func (e *Engine) holds(pos int, text string) bool {
	return pos >= 0 && pos+len(text) <= len(e.content) && e.content[pos:pos+len(text)] == text
}

// Edit replaces the content after a manual edit. Pending hunks are
// re-anchored by fingerprint; those that cannot be placed, or would overlap
// another pending hunk, become Unresolved and are returned.
func (e *Engine) Edit(text string) []redline.Hunk {
	old := markdown.Parse(e.content)
	pending := e.pending()
	anchored := make([]redline.Hunk, len(pending))
	for i, ent := range pending {
		anchored[i] = e.snapshot(old, ent)
	}

	e.content = text
	for _, ent := range pending {
		ent.hunk.Status = redline.Unresolved
	}
	var lost []redline.Hunk
	for i, ent := range pending {
		pos, err := e.resolver.Locate(text, anchored[i])
		if err != nil {
			unresolve(&ent.hunk, err)
			lost = append(lost, ent.hunk)
			continue
		}
		if e.collides(ent, pos, pos+len(ent.hunk.Original)) {
			ent.hunk.Reason = redline.ReasonOverlap
			lost = append(lost, ent.hunk)
			continue
		}
		ent.pos = pos
		ent.hunk.Status = redline.Pending
		ent.hunk.Reason = redline.ReasonNone
	}
	return lost
}

// Compact drops every hunk that is no longer pending.
func (e *Engine) Compact() {
	kept := e.entries[:0]
	for _, ent := range e.entries {
		if ent.hunk.Status == redline.Pending {
			kept = append(kept, ent)
			continue
		}
		delete(e.byID, ent.hunk.ID)
	}
	e.entries = kept
}
