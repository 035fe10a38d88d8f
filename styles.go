package redline

// Color is a hex color string in "#RRGGBB" format, or empty for the terminal
// default.
type Color string

// ColorPair represents a foreground and background color combination.
// Empty strings are valid and indicate no color override.
type ColorPair struct {
	Foreground string
	Background string
}

// Styles contains color pairs for all visual elements of the review view.
type Styles struct {
	Text       ColorPair // Committed document text
	Heading    ColorPair // Markdown headings
	CodeBlock  ColorPair // Fenced code block background
	Inserted   ColorPair // Pending insertion spans
	Deleted    ColorPair // Pending deletion spans
	Selected   ColorPair // The hunk under the cursor
	StatusBar  ColorPair // Bottom status line
	SaveBlock  ColorPair // Save gate warning
	PromptArea ColorPair // Prompt input
}

// Palette defines the semantic colors a theme is built from. Syntax colors
// feed the code-block tokenizer.
type Palette struct {
	Background Color
	Foreground Color

	Added   Color
	Deleted Color
	Accent  Color
	Muted   Color

	Keyword     Color
	String      Color
	Number      Color
	Comment     Color
	Operator    Color
	Function    Color
	Type        Color
	Constant    Color
	Punctuation Color
}

// Theme provides styles for rendering a document under review.
// Different implementations can provide light/dark variants.
type Theme interface {
	Styles() Styles
	Palette() Palette
}
