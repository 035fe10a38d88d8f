package redline

// Token represents a syntax-highlighted segment of code.
type Token struct {
	Text  string // The text content of this token
	Style Style  // Visual style to apply (colors, bold, etc.)
}

// Style represents the visual styling for a token.
type Style struct {
	Foreground string // Hex color code (e.g., "#ff0000") or empty for default
	Bold       bool   // Whether the text should be bold
}

// Tokenizer extracts syntax tokens from source code.
type Tokenizer interface {
	// Tokenize splits source code into syntax-highlighted tokens for the given language.
	// Returns nil if the language is not supported.
	Tokenize(language, source string) []Token
	// TokenizeLines tokenizes source and splits the tokens at line breaks.
	// A trailing newline does not produce an extra empty line.
	TokenizeLines(language, source string) [][]Token
}

// LanguageDetector determines the language of a fenced code block.
type LanguageDetector interface {
	// Detect returns the language name for a code block with the given info
	// string (the text after the opening fence) and body, or an empty string
	// if the language cannot be determined.
	Detect(info, source string) string
}

// Clipboard provides copy-to-clipboard functionality.
type Clipboard interface {
	Copy(content string) error
}
