// Package markdown provides a block-level structural model of Markdown text.
//
// The model is deliberately shallow: it recognises the blocks an anchor can
// attach to (paragraphs, headings, list items, table cells, code blocks,
// block quotes, thematic breaks) and records their byte ranges. Inline
// syntax is not interpreted.
package markdown

import (
	"regexp"
	"sort"
	"strings"
)

// Kind identifies a block type.
type Kind int

// Block kinds. List, Table and TableRow are containers; everything else is
// addressable by an anchor. List items are both.
const (
	Paragraph Kind = iota
	Heading
	ListItem
	CodeBlock
	TableCell
	BlockQuote
	ThematicBreak
	List
	Table
	TableRow
)

func (k Kind) String() string {
	switch k {
	case Paragraph:
		return "paragraph"
	case Heading:
		return "heading"
	case ListItem:
		return "list_item"
	case CodeBlock:
		return "code_block"
	case TableCell:
		return "table_cell"
	case BlockQuote:
		return "block_quote"
	case ThematicBreak:
		return "thematic_break"
	case List:
		return "list"
	case Table:
		return "table"
	case TableRow:
		return "table_row"
	default:
		return "unknown"
	}
}

// Block is a node of the block tree. Start and End are byte offsets into the
// document text; End excludes the trailing line break.
type Block struct {
	Kind     Kind
	Start    int
	End      int
	Level    int    // Heading level
	Indent   int    // List item marker column
	Content  int    // List item content column
	Info     string // Code block info string
	Children []*Block
}

// Addressable reports whether an anchor may attach to the block.
func (b *Block) Addressable() bool {
	switch b.Kind {
	case List, Table, TableRow:
		return false
	}
	return true
}

// Contains reports whether pos lies within the block, end inclusive.
func (b *Block) Contains(pos int) bool {
	return pos >= b.Start && pos <= b.End
}

// Leaf is an addressable block together with its path from the root.
type Leaf struct {
	Path  []int
	Block *Block
}

// Document is parsed Markdown.
type Document struct {
	Text   string
	Blocks []*Block
	leaves []Leaf
}

// Block returns the block at path.
func (d *Document) Block(path []int) (*Block, bool) {
	if len(path) == 0 {
		return nil, false
	}
	blocks := d.Blocks
	var b *Block
	for _, idx := range path {
		if idx < 0 || idx >= len(blocks) {
			return nil, false
		}
		b = blocks[idx]
		blocks = b.Children
	}
	return b, true
}

// Leaves returns every addressable block in document order.
func (d *Document) Leaves() []Leaf {
	return d.leaves
}

// Locate returns the addressable block an offset belongs to: the innermost
// block containing pos, else the last block starting before it. A nil path
// means pos precedes every block.
func (d *Document) Locate(pos int) ([]int, *Block) {
	var found *Leaf
	for i := range d.leaves {
		l := &d.leaves[i]
		if l.Block.Start > pos {
			break
		}
		if l.Block.Contains(pos) {
			found = l
		}
	}
	if found == nil {
		for i := len(d.leaves) - 1; i >= 0; i-- {
			if d.leaves[i].Block.Start <= pos {
				found = &d.leaves[i]
				break
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	return clonePath(found.Path), found.Block
}

// Innermost returns the innermost addressable block containing pos.
func (d *Document) Innermost(pos int) *Block {
	var found *Block
	for _, l := range d.leaves {
		if l.Block.Start > pos {
			break
		}
		if l.Block.Contains(pos) {
			found = l.Block
		}
	}
	return found
}

// Conflicts reports whether replacing text[start:end] with proposed would
// cut across a rigid structure: a code fence boundary, or a table cell
// boundary within a row that is not replaced as a whole.
func (d *Document) Conflicts(start, end int, proposed string) bool {
	for _, b := range d.Blocks {
		switch b.Kind {
		case CodeBlock:
			if crosses(b, start, end) {
				return true
			}
		case Table:
			for _, row := range b.Children {
				if rowConflict(d.Text, row, start, end, proposed) {
					return true
				}
			}
		}
	}
	return false
}

func crosses(b *Block, start, end int) bool {
	startInside := start > b.Start && start < b.End
	endInside := end > b.Start && end < b.End
	return (startInside && end > b.End) || (endInside && start < b.Start)
}

func rowConflict(text string, row *Block, start, end int, proposed string) bool {
	if start >= row.End || end <= row.Start {
		if start != end || start <= row.Start || start >= row.End {
			return false
		}
	}
	if start <= row.Start && end >= row.End {
		return false // whole row
	}
	lo, hi := max(start, row.Start), min(end, row.End)
	if strings.ContainsAny(text[lo:hi], "|") || end > row.End || start < row.Start {
		return true
	}
	return strings.ContainsAny(unescapePipes(proposed), "|\n")
}

func unescapePipes(s string) string {
	return strings.ReplaceAll(s, `\|`, "")
}

// Parse builds the block tree for text.
func Parse(text string) *Document {
	p := &blockParser{text: text}
	p.run()
	d := &Document{Text: text, Blocks: p.blocks}
	d.collectLeaves(d.Blocks, nil)
	sort.SliceStable(d.leaves, func(i, j int) bool {
		return d.leaves[i].Block.Start < d.leaves[j].Block.Start
	})
	return d
}

func (d *Document) collectLeaves(blocks []*Block, prefix []int) {
	for i, b := range blocks {
		path := append(clonePath(prefix), i)
		if b.Addressable() {
			d.leaves = append(d.leaves, Leaf{Path: path, Block: b})
		}
		d.collectLeaves(b.Children, path)
	}
}

func clonePath(p []int) []int {
	if p == nil {
		return nil
	}
	out := make([]int, len(p))
	copy(out, p)
	return out
}

var (
	headingRe = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]|$)`)
	listRe    = regexp.MustCompile(`^( *)([-*+]|\d{1,9}[.)])( {1,4}|$)`)
	breakRe   = regexp.MustCompile(`^ {0,3}(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
)

type line struct {
	start, end int
	text       string
}

func (l line) blank() bool {
	return strings.TrimSpace(l.text) == ""
}

func (l line) indent() int {
	return len(l.text) - len(strings.TrimLeft(l.text, " "))
}

func (l line) trimmed() string {
	return strings.TrimLeft(l.text, " \t")
}

func splitLines(text string) []line {
	var lines []line
	start := 0
	for start <= len(text) {
		nl := strings.IndexByte(text[start:], '\n')
		if nl < 0 {
			if start < len(text) {
				lines = append(lines, line{start: start, end: len(text), text: text[start:]})
			}
			break
		}
		lines = append(lines, line{start: start, end: start + nl, text: text[start : start+nl]})
		start += nl + 1
	}
	return lines
}

type blockParser struct {
	text   string
	lines  []line
	blocks []*Block

	para  *Block
	list  *Block
	items []*Block // open list items, outermost first
	quote *Block
	table *Block

	blankBefore bool
}

func (p *blockParser) run() {
	p.lines = splitLines(p.text)
	for i := 0; i < len(p.lines); i++ {
		l := p.lines[i]

		if l.blank() {
			p.para = nil
			p.quote = nil
			p.table = nil
			p.blankBefore = true
			continue
		}

		if p.continuesList(l) {
			p.blankBefore = false
			continue
		}

		if mark := fenceMark(l.trimmed()); mark != "" {
			p.closeAll()
			i = p.fence(i, mark)
			p.blankBefore = false
			continue
		}

		switch t := l.trimmed(); {
		case headingRe.MatchString(l.text):
			p.closeAll()
			m := headingRe.FindStringSubmatch(l.text)
			p.add(&Block{Kind: Heading, Start: l.start, End: l.end, Level: len(m[1])})

		case breakRe.MatchString(l.text):
			p.closeAll()
			p.add(&Block{Kind: ThematicBreak, Start: l.start, End: l.end})

		case strings.HasPrefix(t, "|"):
			p.closeParagraph()
			p.closeList()
			p.quote = nil
			p.row(l)

		case strings.HasPrefix(t, ">"):
			p.closeParagraph()
			p.closeList()
			p.table = nil
			if p.quote != nil {
				p.quote.End = l.end
			} else {
				p.quote = &Block{Kind: BlockQuote, Start: l.start, End: l.end}
				p.add(p.quote)
			}

		case listRe.MatchString(l.text):
			p.para = nil
			p.quote = nil
			p.table = nil
			p.item(l)

		default:
			p.table = nil
			p.quote = nil
			if p.para != nil && !p.blankBefore {
				p.para.End = l.end
			} else {
				p.closeList()
				p.para = &Block{Kind: Paragraph, Start: l.start, End: l.end}
				p.add(p.para)
			}
		}
		p.blankBefore = false
	}
}

func (p *blockParser) add(b *Block) {
	p.blocks = append(p.blocks, b)
}

func (p *blockParser) closeParagraph() {
	p.para = nil
}

func (p *blockParser) closeList() {
	p.list = nil
	p.items = nil
}

func (p *blockParser) closeAll() {
	p.para = nil
	p.quote = nil
	p.table = nil
	p.closeList()
}

func fenceMark(trimmed string) string {
	for _, mark := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, mark) {
			return mark
		}
	}
	return ""
}

// fence consumes a fenced code block opening at line i and returns the index
// of its last line. An unclosed fence runs to the end of the text.
func (p *blockParser) fence(i int, mark string) int {
	open := p.lines[i]
	info := strings.TrimSpace(strings.TrimLeft(open.trimmed(), mark[:1]))
	b := &Block{Kind: CodeBlock, Start: open.start, End: open.end, Info: info}
	p.add(b)
	for j := i + 1; j < len(p.lines); j++ {
		b.End = p.lines[j].end
		if strings.HasPrefix(p.lines[j].trimmed(), mark) {
			return j
		}
	}
	return len(p.lines) - 1
}

func (p *blockParser) row(l line) {
	if p.table == nil {
		p.table = &Block{Kind: Table, Start: l.start, End: l.end}
		p.add(p.table)
	}
	p.table.End = l.end
	row := &Block{Kind: TableRow, Start: l.start, End: l.end}
	row.Children = cells(l)
	p.table.Children = append(p.table.Children, row)
}

// cells splits a table row on unescaped pipes. Each cell covers the bytes
// between two pipes.
func cells(l line) []*Block {
	var out []*Block
	lead := l.start + (len(l.text) - len(l.trimmed()))
	cellStart := -1
	for i := lead - l.start; i < len(l.text); i++ {
		c := l.text[i]
		if c == '\\' {
			i++
			continue
		}
		if c != '|' {
			continue
		}
		if cellStart >= 0 {
			out = append(out, &Block{Kind: TableCell, Start: l.start + cellStart, End: l.start + i})
		}
		cellStart = i + 1
	}
	if cellStart >= 0 && cellStart < len(l.text) && strings.TrimSpace(l.text[cellStart:]) != "" {
		out = append(out, &Block{Kind: TableCell, Start: l.start + cellStart, End: l.end})
	}
	return out
}

func (p *blockParser) item(l line) {
	m := listRe.FindStringSubmatch(l.text)
	indent := len(m[1])
	content := indent + len(m[2]) + len(m[3])
	if m[3] == "" {
		content = indent + len(m[2]) + 1
	}
	b := &Block{Kind: ListItem, Start: l.start, End: l.end, Indent: indent, Content: content}

	for len(p.items) > 0 && indent < p.items[len(p.items)-1].Content {
		p.items = p.items[:len(p.items)-1]
	}
	switch {
	case len(p.items) > 0:
		parent := p.items[len(p.items)-1]
		parent.Children = append(parent.Children, b)
	case p.list != nil:
		p.list.Children = append(p.list.Children, b)
		p.list.End = l.end
	default:
		p.list = &Block{Kind: List, Start: l.start, End: l.end}
		p.list.Children = []*Block{b}
		p.add(p.list)
	}
	p.items = append(p.items, b)
	p.list.End = l.end
}

// continuesList extends the innermost fitting list item with a continuation
// line. It reports false when l starts a new block.
func (p *blockParser) continuesList(l line) bool {
	if len(p.items) == 0 || listRe.MatchString(l.text) {
		return false
	}
	indent := l.indent()
	t := l.trimmed()
	if fenceMark(t) != "" || headingRe.MatchString(l.text) || breakRe.MatchString(l.text) {
		if indent < p.items[0].Content {
			return false
		}
	}
	for k := len(p.items) - 1; k >= 0; k-- {
		it := p.items[k]
		if indent >= it.Content || (!p.blankBefore && k == len(p.items)-1) {
			it.End = l.end
			p.list.End = l.end
			p.items = p.items[:k+1]
			return true
		}
	}
	return false
}

// Reindent adapts text inserted at pos so it keeps the nesting of the list
// item it lands in. Lines that start a new item are aligned with the item's
// marker; continuation lines are aligned with its content. Text landing in a
// code block or outside a list item is returned unchanged.
func Reindent(d *Document, pos int, text string) string {
	b := d.Innermost(pos)
	if b == nil || b.Kind != ListItem || !strings.Contains(text, "\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	for k := 1; k < len(lines); k++ {
		ln := line{text: lines[k]}
		if ln.blank() {
			continue
		}
		prevBlank := strings.TrimSpace(lines[k-1]) == "" && k > 1
		indent := ln.indent()
		switch {
		case listRe.MatchString(ln.text):
			if indent < b.Indent {
				lines[k] = strings.Repeat(" ", b.Indent-indent) + lines[k]
			}
		case !prevBlank && indent < b.Content:
			lines[k] = strings.Repeat(" ", b.Content-indent) + lines[k]
		}
	}
	return strings.Join(lines, "\n")
}
