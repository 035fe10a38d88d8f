package worddiff

import (
	"strings"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/critic"
	"github.com/pmezard/go-difflib/difflib"
)

// Compile-time interface verification.
var _ redline.Annotator = (*Annotator)(nil)

// Annotator marks up the differences between two texts. Lines are matched
// first; replaced line blocks are refined to words when they are similar
// enough.
type Annotator struct{}

// NewAnnotator creates a new Annotator.
func NewAnnotator() *Annotator {
	return &Annotator{}
}

// change is an aligned piece of the diff. Equal pieces have old == new.
type change struct {
	equal    bool
	old, new string
}

// Annotate returns old marked up so that accepting every change yields new.
func (a *Annotator) Annotate(old, new string) string {
	if old == new {
		return old
	}

	oldLines, newLines := splitLines(old), splitLines(new)
	var changes []change
	for _, op := range opcodes(oldLines, newLines) {
		o := strings.Join(oldLines[op.I1:op.I2], "")
		n := strings.Join(newLines[op.J1:op.J2], "")
		switch op.Tag {
		case 'e':
			changes = append(changes, change{equal: true, old: o, new: n})
		case 'r':
			changes = append(changes, refine(o, n)...)
		default:
			changes = append(changes, change{old: o, new: n})
		}
	}

	var sb strings.Builder
	sb.Grow(len(old) + len(new)/4)
	for _, c := range merge(changes) {
		if c.equal {
			sb.WriteString(c.old)
			continue
		}
		sb.WriteString(critic.Format(c.old, c.new))
	}
	return sb.String()
}

// refine diffs a replaced block word by word.
func refine(old, new string) []change {
	oldTokens, newTokens := Tokenize(old), Tokenize(new)
	if !hasSufficientSimilarity(oldTokens, newTokens) {
		return []change{{old: old, new: new}}
	}

	var changes []change
	for _, op := range opcodes(oldTokens, newTokens) {
		o := strings.Join(oldTokens[op.I1:op.I2], "")
		n := strings.Join(newTokens[op.J1:op.J2], "")
		changes = append(changes, change{equal: op.Tag == 'e', old: o, new: n})
	}
	return changes
}

// merge joins adjacent changes and folds a single space between two changes
// into one replacement so a rewritten phrase reads as one edit.
func merge(in []change) []change {
	var out []change
	for i := 0; i < len(in); i++ {
		c := in[i]
		if len(out) == 0 {
			out = append(out, c)
			continue
		}
		last := &out[len(out)-1]
		switch {
		case c.equal && last.equal:
			last.old += c.old
			last.new += c.new
		case !c.equal && !last.equal:
			last.old += c.old
			last.new += c.new
		case c.equal && !last.equal && c.old == " " && i+1 < len(in) && !in[i+1].equal:
			last.old += c.old + in[i+1].old
			last.new += c.new + in[i+1].new
			i++
		default:
			out = append(out, c)
		}
	}
	return out
}

func opcodes(a, b []string) []difflib.OpCode {
	return difflib.NewMatcherWithJunk(a, b, false, nil).GetOpCodes()
}

// splitLines splits s after each newline, keeping the terminators.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
