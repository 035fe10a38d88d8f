// Package chroma highlights fenced code blocks using the chroma library.
package chroma

import (
	"errors"
	"strings"

	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.Tokenizer = (*Tokenizer)(nil)

// StyleFunc maps chroma token types to redline styles.
type StyleFunc func(chromalib.TokenType) redline.Style

// Tokenizer extracts syntax tokens using chroma.
type Tokenizer struct {
	styleFunc StyleFunc
}

// NewTokenizer creates a new chroma-based tokenizer with the given style function.
// Use StyleFromPalette to create a style function from a redline.Palette.
func NewTokenizer(styleFunc StyleFunc) (*Tokenizer, error) {
	if styleFunc == nil {
		return nil, errors.New("chroma: styleFunc cannot be nil")
	}
	return &Tokenizer{styleFunc: styleFunc}, nil
}

// Tokenize splits source code into syntax-highlighted tokens for the given language.
// Returns nil if the language is not supported or an error occurs.
// Returns an empty slice for empty source.
func (t *Tokenizer) Tokenize(language, source string) []redline.Token {
	if source == "" {
		return []redline.Token{}
	}
	return t.tokens(language, source)
}

// TokenizeLines tokenizes a whole code block, then splits tokens by line so
// multi-line constructs like block comments keep their style on every line.
func (t *Tokenizer) TokenizeLines(language, source string) [][]redline.Token {
	if source == "" {
		return [][]redline.Token{}
	}
	tokens := t.tokens(language, source)
	if tokens == nil {
		return nil
	}
	return splitTokensByLine(tokens)
}

func (t *Tokenizer) tokens(language, source string) []redline.Token {
	l := lexer(language)
	if l == nil {
		return nil
	}
	iterator, err := l.Tokenise(nil, source)
	if err != nil {
		return nil
	}

	var tokens []redline.Token
	for token := iterator(); token != chromalib.EOF; token = iterator() {
		tokens = append(tokens, redline.Token{
			Text:  token.Value,
			Style: t.styleFunc(token.Type),
		})
	}
	return tokens
}

// splitTokensByLine splits a flat list of tokens into per-line token slices.
// A trailing newline does not open an extra empty line.
func splitTokensByLine(tokens []redline.Token) [][]redline.Token {
	var result [][]redline.Token
	var line []redline.Token

	for _, tok := range tokens {
		for {
			nl := strings.IndexByte(tok.Text, '\n')
			if nl < 0 {
				break
			}
			if nl > 0 {
				line = append(line, redline.Token{Text: tok.Text[:nl], Style: tok.Style})
			}
			result = append(result, line)
			line = nil
			tok.Text = tok.Text[nl+1:]
		}
		if tok.Text != "" {
			line = append(line, tok)
		}
	}
	if len(line) > 0 {
		result = append(result, line)
	}
	return result
}
