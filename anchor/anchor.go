// Package anchor resolves raw CriticMarkup hunks against a live Markdown
// document.
//
// A hunk is located by searching the live text for its original content (or,
// for insertions, for its surrounding context) and scoring every candidate by
// how closely the text around it matches the hunk's fingerprint. Similarity is
// the go-difflib SequenceMatcher ratio over characters.
package anchor

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/markdown"
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultTolerance is the minimum fingerprint similarity a candidate needs.
const DefaultTolerance = 0.6

// probeLen is the length of the context probe used to find insertion points.
const probeLen = 24

// Resolver anchors hunks against live documents.
type Resolver struct {
	tolerance float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTolerance sets the minimum fingerprint similarity in [0, 1].
func WithTolerance(t float64) Option {
	return func(r *Resolver) {
		r.tolerance = t
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UnresolvedError reports an anchor that could not be placed.
type UnresolvedError struct {
	Reason redline.UnresolvedReason
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("anchor: unresolved: %s", e.Reason)
}

// Resolve anchors raw hunks against live. The result has one hunk per raw
// hunk, in the same order, with empty IDs. Hunks that cannot be placed have
// status Unresolved and a reason. Resolution is deterministic.
func (r *Resolver) Resolve(raw []redline.RawHunk, live string) []redline.Hunk {
	doc := markdown.Parse(live)
	out := make([]redline.Hunk, 0, len(raw))
	var taken []span

	prevEnd, prevRawEnd, havePrev := 0, 0, false
	for _, rh := range raw {
		h := redline.Hunk{
			Kind:     rh.Kind,
			Original: rh.Original,
			Proposed: rh.Proposed,
			Status:   redline.Unresolved,
		}
		if !h.Valid() {
			h.Reason = redline.ReasonInvalid
			out = append(out, h)
			continue
		}

		predicted := rh.OriginalOffset
		if havePrev {
			predicted = prevEnd + (rh.OriginalOffset - prevRawEnd)
		}
		q := query{
			original:  rh.Original,
			proposed:  rh.Proposed,
			before:    rh.Before,
			after:     rh.After,
			predicted: predicted,
		}
		pos, reason := r.place(doc, q, taken)
		if reason != redline.ReasonNone {
			h.Reason = reason
			out = append(out, h)
			continue
		}

		end := pos + len(rh.Original)
		taken = append(taken, span{pos, end})
		h.Status = redline.Pending
		h.Anchor = At(doc, pos, end)
		out = append(out, h)

		prevEnd, prevRawEnd, havePrev = end, rh.OriginalOffset+len(rh.Original), true
	}
	return out
}

// Locate returns the byte offset of a stored anchor in live. The block path is
// tried first and verified against the fingerprint; otherwise the fingerprint
// is searched for around the expected position.
func (r *Resolver) Locate(live string, h redline.Hunk) (int, error) {
	doc := markdown.Parse(live)
	expected, ok := Offset(doc, h.Anchor)
	if ok && expected+len(h.Original) <= len(live) && live[expected:expected+len(h.Original)] == h.Original {
		if r.score(live, expected, expected+len(h.Original), h.Anchor.Before, h.Anchor.After) >= r.tolerance &&
			!doc.Conflicts(expected, expected+len(h.Original), h.Proposed) {
			return expected, nil
		}
	}
	q := query{
		original:  h.Original,
		proposed:  h.Proposed,
		before:    h.Anchor.Before,
		after:     h.Anchor.After,
		predicted: expected,
	}
	pos, reason := r.place(doc, q, nil)
	if reason != redline.ReasonNone {
		return 0, &UnresolvedError{Reason: reason}
	}
	return pos, nil
}

// Offset converts an anchor to a byte offset in doc. It reports false when
// the block path does not exist.
func Offset(doc *markdown.Document, a redline.Anchor) (int, bool) {
	if a.Path == nil {
		return min(max(a.Offset, 0), len(doc.Text)), true
	}
	b, ok := doc.Block(a.Path)
	if !ok {
		return 0, false
	}
	pos := b.Start + a.Offset
	if pos < 0 || pos > len(doc.Text) {
		return 0, false
	}
	return pos, true
}

// At builds the anchor for the span doc.Text[start:end].
func At(doc *markdown.Document, start, end int) redline.Anchor {
	path, b := doc.Locate(start)
	offset := start
	if b != nil {
		offset = start - b.Start
	}
	before, after := redline.Fingerprint(doc.Text, start, end)
	return redline.Anchor{Path: path, Offset: offset, Before: before, After: after}
}

type span struct {
	start, end int
}

// Overlaps reports whether two spans collide. Zero-width spans collide with
// a span that strictly contains them, and with each other at the same
// position.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	switch {
	case aStart == aEnd && bStart == bEnd:
		return aStart == bStart
	case aStart == aEnd:
		return bStart < aStart && aStart < bEnd
	case bStart == bEnd:
		return aStart < bStart && bStart < aEnd
	default:
		return aStart < bEnd && bStart < aEnd
	}
}

type query struct {
	original  string
	proposed  string
	before    string
	after     string
	predicted int
}

type candidate struct {
	pos   int
	score float64
}

// place scores candidates nearest to the predicted offset first. Once an
// exact context match is found, farther candidates cannot win and are not
// scored.
func (r *Resolver) place(doc *markdown.Document, q query, taken []span) (int, redline.UnresolvedReason) {
	positions := candidates(doc.Text, q)
	if len(positions) == 0 {
		return 0, redline.ReasonNoMatch
	}
	slices.SortFunc(positions, func(a, b int) int {
		return cmp.Or(cmp.Compare(abs(a-q.predicted), abs(b-q.predicted)), cmp.Compare(a, b))
	})

	var (
		best     candidate
		found    bool
		scored   bool
		overlap  bool
		conflict bool
	)
	for _, p := range positions {
		if found && best.score >= 1-epsilon && abs(p-q.predicted) > abs(best.pos-q.predicted) {
			break
		}
		s := r.score(doc.Text, p, p+len(q.original), q.before, q.after)
		if s < r.tolerance {
			continue
		}
		scored = true
		c := candidate{pos: p, score: s}
		end := c.pos + len(q.original)
		if collides(taken, c.pos, end) {
			overlap = true
			continue
		}
		if doc.Conflicts(c.pos, end, q.proposed) {
			conflict = true
			continue
		}
		if !found || better(c, best, q.predicted) {
			best, found = c, true
		}
	}
	switch {
	case found:
		return best.pos, redline.ReasonNone
	case !scored:
		return 0, redline.ReasonBelowTolerance
	case overlap:
		return 0, redline.ReasonOverlap
	case conflict:
		return 0, redline.ReasonStructuralConflict
	}
	return 0, redline.ReasonNoMatch
}

const epsilon = 1e-9

func better(c, best candidate, predicted int) bool {
	if math.Abs(c.score-best.score) > epsilon {
		return c.score > best.score
	}
	dc, db := abs(c.pos-predicted), abs(best.pos-predicted)
	if dc != db {
		return dc < db
	}
	return c.pos < best.pos
}

func collides(taken []span, start, end int) bool {
	for _, s := range taken {
		if Overlaps(s.start, s.end, start, end) {
			return true
		}
	}
	return false
}

// candidates lists positions where the hunk could apply, in ascending order.
func candidates(live string, q query) []int {
	if q.original != "" {
		return occurrences(live, q.original)
	}

	seen := make(map[int]bool)
	var out []int
	add := func(p int) {
		if p >= 0 && p <= len(live) && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	if q.before != "" {
		probe := q.before[max(0, len(q.before)-probeLen):]
		for _, p := range occurrences(live, probe) {
			add(p + len(probe))
		}
	}
	if q.after != "" {
		probe := q.after[:min(len(q.after), probeLen)]
		for _, p := range occurrences(live, probe) {
			add(p)
		}
	}
	if q.before == "" && q.after == "" {
		add(min(max(q.predicted, 0), len(live)))
	}
	slices.Sort(out)
	return out
}

func occurrences(s, sub string) []int {
	var out []int
	for i := 0; i+len(sub) <= len(s); {
		idx := strings.Index(s[i:], sub)
		if idx < 0 {
			break
		}
		out = append(out, i+idx)
		i += idx + 1
	}
	return out
}

// score compares the context around live[start:end] with a fingerprint.
// Each side is weighted by its length.
func (r *Resolver) score(live string, start, end int, before, after string) float64 {
	if before == "" && after == "" {
		return 1
	}
	liveBefore := live[max(0, start-len(before)):start]
	liveAfter := live[end:min(len(live), end+len(after))]

	total := float64(len(before) + len(after))
	return (ratio(before, liveBefore)*float64(len(before)) + ratio(after, liveAfter)*float64(len(after))) / total
}

func ratio(a, b string) float64 {
	if a == "" {
		return 1
	}
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
