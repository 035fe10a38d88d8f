package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/markdown"
)

// tabWidth is the column interval of tab stops.
const tabWidth = 8

// delimiterWidth is the byte length of a CriticMarkup opening or closing
// delimiter.
const delimiterWidth = 3

type spanKind int

const (
	spanText spanKind = iota
	spanDeleted
	spanInserted
)

// span is a run of visible text. Start is its byte offset in the markup.
type span struct {
	text  string
	start int
	kind  spanKind
	hunk  string
}

// docLine is one line of the markup with its delimiters removed.
type docLine struct {
	start int
	spans []span
}

// piece is styled text ready for output.
type piece struct {
	text  string
	style lipgloss.Style
}

// renderConfig holds all rendering parameters for renderDocument.
type renderConfig struct {
	markup    string
	markers   []redline.Marker
	selected  string // Hunk id drawn with the selection style
	styles    redline.Styles
	renderer  *lipgloss.Renderer
	width     int
	detector  redline.LanguageDetector
	tokenizer redline.Tokenizer
}

// renderedDocument is the styled document together with the display row
// where each pending hunk starts.
type renderedDocument struct {
	content  string
	hunkRows map[string]int
	rows     int
}

// lineStyles are the lipgloss styles derived from redline.Styles.
type lineStyles struct {
	text     lipgloss.Style
	heading  lipgloss.Style
	code     lipgloss.Style
	deleted  lipgloss.Style
	inserted lipgloss.Style
	selected lipgloss.Style
}

func newLineStyles(s redline.Styles, r *lipgloss.Renderer) lineStyles {
	return lineStyles{
		text:     styleFromColorPair(s.Text, r),
		heading:  styleFromColorPair(s.Heading, r).Bold(true),
		code:     styleFromColorPair(s.CodeBlock, r),
		deleted:  styleFromColorPair(s.Deleted, r).Strikethrough(true),
		inserted: styleFromColorPair(s.Inserted, r),
		selected: styleFromColorPair(s.Selected, r),
	}
}

// renderDocument styles rendered markup for the terminal. Delimiters are
// hidden; deleted and inserted text is coloured instead. Headings and code
// blocks get their own styles and code is syntax highlighted when the
// language can be detected. Lines longer than the width are wrapped.
func renderDocument(cfg renderConfig) renderedDocument {
	styles := newLineStyles(cfg.styles, cfg.renderer)
	doc := markdown.Parse(cfg.markup)
	tokens := codeTokens(doc, cfg)

	lines, firstLine := splitLines(cfg.markup, spansOf(cfg.markup, cfg.markers))

	var sb strings.Builder
	lineRows := make([]int, len(lines))
	row := 0
	for i, l := range lines {
		lineRows[i] = row

		base := styles.text
		kind := markdown.Paragraph
		if b := doc.Innermost(l.start); b != nil {
			kind = b.Kind
		}
		switch kind {
		case markdown.Heading:
			base = styles.heading
		case markdown.CodeBlock:
			base = styles.code
		}

		var pieces []piece
		if toks, ok := tokens[l.start]; ok && kind == markdown.CodeBlock && plain(l.spans) && joinTokens(toks) == joinSpans(l.spans) {
			pieces = tokenPieces(toks, base)
		} else {
			pieces = spanPieces(l.spans, base, styles, cfg.selected)
		}

		for _, r := range wrap(pieces, cfg.width) {
			if row > 0 {
				sb.WriteString("\n")
			}
			width := 0
			for _, p := range r {
				sb.WriteString(p.style.Render(p.text))
				width += lipgloss.Width(p.text)
			}
			if kind == markdown.CodeBlock && width < cfg.width {
				sb.WriteString(base.Render(strings.Repeat(" ", cfg.width-width)))
			}
			row++
		}
	}

	hunkRows := make(map[string]int, len(firstLine))
	for id, line := range firstLine {
		hunkRows[id] = lineRows[line]
	}
	return renderedDocument{content: sb.String(), hunkRows: hunkRows, rows: row}
}

// spansOf splits markup into visible spans using the marker positions.
func spansOf(markup string, markers []redline.Marker) []span {
	var spans []span
	cur := 0
	for _, m := range markers {
		if m.Start > cur {
			spans = append(spans, span{text: markup[cur:m.Start], start: cur})
		}
		if m.DeleteEnd > m.DeleteStart {
			start := m.DeleteStart + delimiterWidth
			spans = append(spans, span{
				text:  markup[start : m.DeleteEnd-delimiterWidth],
				start: start,
				kind:  spanDeleted,
				hunk:  m.HunkID,
			})
		}
		if m.InsertEnd > m.InsertStart {
			start := m.InsertStart + delimiterWidth
			spans = append(spans, span{
				text:  markup[start : m.InsertEnd-delimiterWidth],
				start: start,
				kind:  spanInserted,
				hunk:  m.HunkID,
			})
		}
		cur = m.End
	}
	if cur < len(markup) {
		spans = append(spans, span{text: markup[cur:], start: cur})
	}
	return spans
}

// splitLines breaks spans at line breaks. It also returns the line on which
// each hunk starts.
func splitLines(markup string, spans []span) ([]docLine, map[string]int) {
	lines := []docLine{{}}
	firstLine := make(map[string]int)
	for _, s := range spans {
		if _, ok := firstLine[s.hunk]; s.hunk != "" && !ok {
			firstLine[s.hunk] = len(lines) - 1
		}
		text, off := s.text, s.start
		for {
			i := strings.IndexByte(text, '\n')
			if i < 0 {
				break
			}
			if i > 0 {
				last := &lines[len(lines)-1]
				last.spans = append(last.spans, span{text: text[:i], start: off, kind: s.kind, hunk: s.hunk})
			}
			lines = append(lines, docLine{start: off + i + 1})
			text, off = text[i+1:], off+i+1
		}
		if text != "" {
			last := &lines[len(lines)-1]
			last.spans = append(last.spans, span{text: text, start: off, kind: s.kind, hunk: s.hunk})
		}
	}
	if n := len(lines); n > 1 && len(lines[n-1].spans) == 0 && strings.HasSuffix(markup, "\n") {
		lines = lines[:n-1]
	}
	return lines, firstLine
}

// codeTokens tokenizes the body of every fenced code block whose language
// can be detected. Token lines are keyed by the markup offset of the line.
func codeTokens(doc *markdown.Document, cfg renderConfig) map[int][]redline.Token {
	if cfg.tokenizer == nil || cfg.detector == nil {
		return nil
	}
	out := make(map[int][]redline.Token)
	for _, leaf := range doc.Leaves() {
		b := leaf.Block
		if b.Kind != markdown.CodeBlock {
			continue
		}
		nl := strings.IndexByte(cfg.markup[b.Start:b.End], '\n')
		if nl < 0 {
			continue
		}
		bodyStart := b.Start + nl + 1
		body := cfg.markup[bodyStart:b.End]
		if i := strings.LastIndexByte(body, '\n'); i >= 0 && isFence(body[i+1:]) {
			body = body[:i+1]
		} else if i < 0 && isFence(body) {
			continue
		}

		language := cfg.detector.Detect(b.Info, body)
		if language == "" {
			continue
		}
		tokenLines := cfg.tokenizer.TokenizeLines(language, body)
		off := bodyStart
		for i, text := range strings.Split(strings.TrimSuffix(body, "\n"), "\n") {
			if i < len(tokenLines) {
				out[off] = tokenLines[i]
			}
			off += len(text) + 1
		}
	}
	return out
}

func isFence(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

func plain(spans []span) bool {
	for _, s := range spans {
		if s.kind != spanText {
			return false
		}
	}
	return true
}

func joinSpans(spans []span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.text)
	}
	return strings.TrimSuffix(sb.String(), "\r")
}

func joinTokens(tokens []redline.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return strings.TrimSuffix(sb.String(), "\r")
}

// tokenPieces gives each token its syntax foreground over the base style.
func tokenPieces(tokens []redline.Token, base lipgloss.Style) []piece {
	pieces := make([]piece, 0, len(tokens))
	for _, tok := range tokens {
		style := base
		if tok.Style.Foreground != "" {
			style = style.Foreground(lipgloss.Color(tok.Style.Foreground))
		}
		if tok.Style.Bold {
			style = style.Bold(true)
		}
		pieces = append(pieces, piece{text: tok.Text, style: style})
	}
	return pieces
}

func spanPieces(spans []span, base lipgloss.Style, styles lineStyles, selected string) []piece {
	pieces := make([]piece, 0, len(spans))
	for _, s := range spans {
		style := base
		switch s.kind {
		case spanDeleted:
			style = styles.deleted
		case spanInserted:
			style = styles.inserted
		}
		if s.hunk != "" && s.hunk == selected {
			style = styles.selected.Strikethrough(s.kind == spanDeleted)
		}
		pieces = append(pieces, piece{text: s.text, style: style})
	}
	return pieces
}

// wrap splits pieces into rows no wider than width, expanding tabs to the
// next tab stop. A width of zero disables wrapping.
func wrap(pieces []piece, width int) [][]piece {
	rows := [][]piece{nil}
	col := 0
	for _, p := range pieces {
		var sb strings.Builder
		flush := func() {
			if sb.Len() > 0 {
				rows[len(rows)-1] = append(rows[len(rows)-1], piece{text: sb.String(), style: p.style})
				sb.Reset()
			}
		}
		for _, r := range p.text {
			var s string
			switch r {
			case '\r':
				continue
			case '\t':
				s = strings.Repeat(" ", tabWidth-col%tabWidth)
			default:
				s = string(r)
			}
			w := lipgloss.Width(s)
			if width > 0 && col > 0 && col+w > width {
				flush()
				rows = append(rows, nil)
				col = 0
				if r == '\t' {
					s = strings.Repeat(" ", tabWidth)
					w = tabWidth
				}
			}
			sb.WriteString(s)
			col += w
		}
		flush()
	}
	return rows
}

// styleFromColorPair creates a lipgloss style from a ColorPair.
// If renderer is nil, uses the default lipgloss renderer.
func styleFromColorPair(cp redline.ColorPair, renderer *lipgloss.Renderer) lipgloss.Style {
	var style lipgloss.Style
	if renderer != nil {
		style = renderer.NewStyle()
	} else {
		style = lipgloss.NewStyle()
	}
	if cp.Foreground != "" {
		style = style.Foreground(lipgloss.Color(cp.Foreground))
	}
	if cp.Background != "" {
		style = style.Background(lipgloss.Color(cp.Background))
	}
	return style
}
