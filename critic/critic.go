// Package critic parses and formats CriticMarkup edit annotations.
//
// Recognised spans are insertions ({++text++}), deletions ({--text--}) and
// substitutions ({~~old~>new~~}). A deletion immediately followed by an
// insertion is read as one replacement. Anything that does not form a
// complete span is kept as literal text and reported as a warning.
package critic

import (
	"strings"

	"github.com/fwojciec/redline"
)

// Delimiters.
const (
	InsertOpen      = "{++"
	InsertClose     = "++}"
	DeleteOpen      = "{--"
	DeleteClose     = "--}"
	SubstituteOpen  = "{~~"
	SubstituteClose = "~~}"
	SubstituteSep   = "~>"
)

// Result is the outcome of parsing annotated markup.
type Result struct {
	Hunks    []redline.RawHunk      // In document order
	Warnings []redline.ParseWarning // Malformed spans kept as literal text
	Original string                 // Markup with every change rejected
	Proposed string                 // Markup with every change accepted
}

// Parse scans markup for CriticMarkup spans.
func Parse(markup string) Result {
	p := &parser{src: markup}
	p.run()
	original := p.orig.String()
	for i := range p.hunks {
		h := &p.hunks[i]
		h.Before, h.After = redline.Fingerprint(original, h.OriginalOffset, h.OriginalOffset+len(h.Original))
	}
	return Result{
		Hunks:    p.hunks,
		Warnings: p.warnings,
		Original: original,
		Proposed: p.prop.String(),
	}
}

// Strip removes all markers, keeping deleted text and dropping inserted text.
func Strip(markup string) string {
	return Parse(markup).Original
}

// Apply removes all markers, keeping inserted text and dropping deleted text.
func Apply(markup string) string {
	return Parse(markup).Proposed
}

// HasMarkup reports whether markup contains at least one well-formed span.
func HasMarkup(markup string) bool {
	return len(Parse(markup).Hunks) > 0
}

// Insert formats text as an insertion span.
func Insert(text string) string {
	return InsertOpen + text + InsertClose
}

// Delete formats text as a deletion span.
func Delete(text string) string {
	return DeleteOpen + text + DeleteClose
}

// Replace formats a replacement as an adjacent deletion and insertion.
func Replace(original, proposed string) string {
	return Delete(original) + Insert(proposed)
}

// Format renders a change in the span form matching its kind.
func Format(original, proposed string) string {
	switch redline.KindOf(original, proposed) {
	case redline.Insertion:
		return Insert(proposed)
	case redline.Deletion:
		return Delete(original)
	default:
		return Replace(original, proposed)
	}
}

type parser struct {
	src      string
	orig     strings.Builder
	prop     strings.Builder
	hunks    []redline.RawHunk
	warnings []redline.ParseWarning

	inFence   bool
	fenceMark string
}

func (p *parser) run() {
	i := 0
	for i < len(p.src) {
		if i == 0 || p.src[i-1] == '\n' {
			p.trackFence(i)
		}

		if p.src[i] == '{' {
			if next, ok := p.span(i); ok {
				i = next
				continue
			}
		}

		// Copy a run of literal text up to the next candidate delimiter or line break.
		end := i + 1
		for end < len(p.src) && p.src[end] != '{' && p.src[end-1] != '\n' {
			end++
		}
		p.literal(p.src[i:end])
		i = end
	}
}

func (p *parser) literal(s string) {
	p.orig.WriteString(s)
	p.prop.WriteString(s)
}

// span tries to consume a span starting at i. On malformed input it records a
// warning, writes the opening delimiter as literal text and returns the
// position after it.
func (p *parser) span(i int) (int, bool) {
	rest := p.src[i:]
	switch {
	case strings.HasPrefix(rest, InsertOpen):
		content, end, ok := p.body(i, InsertOpen, InsertClose, "insertion")
		if !ok {
			return p.malformed(i, InsertOpen), true
		}
		p.emit(i, "", content)
		return end, true

	case strings.HasPrefix(rest, DeleteOpen):
		original, end, ok := p.body(i, DeleteOpen, DeleteClose, "deletion")
		if !ok {
			return p.malformed(i, DeleteOpen), true
		}
		if strings.HasPrefix(p.src[end:], InsertOpen) {
			if proposed, insEnd, ok := p.peekBody(end, InsertOpen, InsertClose); ok {
				p.emit(i, original, proposed)
				return insEnd, true
			}
		}
		p.emit(i, original, "")
		return end, true

	case strings.HasPrefix(rest, SubstituteOpen):
		content, end, ok := p.body(i, SubstituteOpen, SubstituteClose, "substitution")
		if !ok {
			return p.malformed(i, SubstituteOpen), true
		}
		sep := strings.Index(content, SubstituteSep)
		if sep < 0 {
			p.warn(i, "substitution without "+SubstituteSep)
			return p.malformed(i, SubstituteOpen), true
		}
		original, proposed := content[:sep], content[sep+len(SubstituteSep):]
		if original == "" && proposed == "" {
			p.warn(i, "empty substitution")
			return p.malformed(i, SubstituteOpen), true
		}
		p.emit(i, original, proposed)
		return end, true
	}
	return i, false
}

// body returns the content of a span opened at i, recording a warning when
// the span is unterminated or empty.
func (p *parser) body(i int, open, close, name string) (string, int, bool) {
	content, end, ok := p.peekBody(i, open, close)
	if !ok {
		if end < 0 {
			p.warn(i, "unterminated "+name)
		} else {
			p.warn(i, "empty "+name)
		}
		return "", 0, false
	}
	return content, end, true
}

// peekBody finds the closing delimiter of a span opened at i without
// recording warnings. end is -1 when the span is unterminated.
func (p *parser) peekBody(i int, open, close string) (content string, end int, ok bool) {
	start := i + len(open)
	limit := p.limit(i)
	if start > limit {
		return "", -1, false
	}
	idx := strings.Index(p.src[start:limit], close)
	if idx < 0 {
		return "", -1, false
	}
	if idx == 0 {
		return "", start + len(close), false
	}
	return p.src[start : start+idx], start + idx + len(close), true
}

func (p *parser) malformed(i int, open string) int {
	p.literal(open)
	return i + len(open)
}

func (p *parser) warn(offset int, msg string) {
	p.warnings = append(p.warnings, redline.ParseWarning{Offset: offset, Message: msg})
}

func (p *parser) emit(markupOffset int, original, proposed string) {
	p.hunks = append(p.hunks, redline.RawHunk{
		Kind:           redline.KindOf(original, proposed),
		Original:       original,
		Proposed:       proposed,
		MarkupOffset:   markupOffset,
		OriginalOffset: p.orig.Len(),
		ProposedOffset: p.prop.Len(),
	})
	p.orig.WriteString(original)
	p.prop.WriteString(proposed)
}

// limit returns the position a span opened at i must close before: the
// closing fence of an enclosing code block, the end of an enclosing table
// row, or the end of the markup.
func (p *parser) limit(i int) int {
	if p.inFence {
		pos := strings.IndexByte(p.src[i:], '\n')
		for pos >= 0 {
			lineStart := i + pos + 1
			if lineStart >= len(p.src) {
				break
			}
			if strings.HasPrefix(strings.TrimLeft(p.src[lineStart:], " \t"), p.fenceMark) {
				return lineStart
			}
			next := strings.IndexByte(p.src[lineStart:], '\n')
			if next < 0 {
				break
			}
			pos = lineStart - i + next
		}
		return len(p.src)
	}

	lineStart := strings.LastIndexByte(p.src[:i], '\n') + 1
	if strings.HasPrefix(strings.TrimLeft(p.src[lineStart:], " \t"), "|") {
		if eol := strings.IndexByte(p.src[i:], '\n'); eol >= 0 {
			return i + eol
		}
	}
	return len(p.src)
}

// trackFence updates code fence state for a line of literal text starting at i.
func (p *parser) trackFence(i int) {
	line := strings.TrimLeft(p.src[i:], " \t")
	if p.inFence {
		if strings.HasPrefix(line, p.fenceMark) {
			p.inFence = false
		}
		return
	}
	for _, mark := range []string{"```", "~~~"} {
		if strings.HasPrefix(line, mark) {
			p.inFence = true
			p.fenceMark = mark
			return
		}
	}
}
