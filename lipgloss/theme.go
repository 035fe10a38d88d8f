// Package lipgloss provides theme implementations using the Lipgloss styling library.
package lipgloss

import (
	lg "github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.Theme = (*Theme)(nil)

// Theme implements redline.Theme with Lipgloss-compatible colors.
type Theme struct {
	styles  redline.Styles
	palette redline.Palette
}

// NewTheme builds a theme whose styles are derived from p. surface is the
// background used for bars and code blocks.
func NewTheme(p redline.Palette, surface redline.Color) *Theme {
	return &Theme{styles: stylesFor(p, surface), palette: p}
}

// Styles returns the color styles for this theme.
func (t *Theme) Styles() redline.Styles {
	return t.styles
}

// Palette returns the semantic color palette for this theme.
func (t *Theme) Palette() redline.Palette {
	return t.palette
}

// DefaultTheme returns the default theme (dark background optimized).
func DefaultTheme() *Theme {
	return DarkTheme()
}

// AdaptiveTheme picks the dark or light theme from the terminal background
// reported by r. A nil renderer uses the default renderer.
func AdaptiveTheme(r *lg.Renderer) *Theme {
	if r == nil {
		r = lg.DefaultRenderer()
	}
	if r.HasDarkBackground() {
		return DarkTheme()
	}
	return LightTheme()
}

// DarkTheme returns a theme optimized for dark terminal backgrounds
// (Catppuccin Mocha).
func DarkTheme() *Theme {
	return NewTheme(redline.Palette{
		Background: "#1e1e2e",
		Foreground: "#cdd6f4",

		Added:   "#a6e3a1",
		Deleted: "#f38ba8",
		Accent:  "#89b4fa",
		Muted:   "#6c7086",

		Keyword:     "#cba6f7",
		String:      "#a6e3a1",
		Number:      "#fab387",
		Comment:     "#6c7086",
		Operator:    "#89dceb",
		Function:    "#89b4fa",
		Type:        "#f9e2af",
		Constant:    "#fab387",
		Punctuation: "#9399b2",
	}, "#313244")
}

// LightTheme returns a theme optimized for light terminal backgrounds
// (Catppuccin Latte).
func LightTheme() *Theme {
	return NewTheme(redline.Palette{
		Background: "#eff1f5",
		Foreground: "#4c4f69",

		Added:   "#40a02b",
		Deleted: "#d20f39",
		Accent:  "#1e66f5",
		Muted:   "#9ca0b0",

		Keyword:     "#8839ef",
		String:      "#40a02b",
		Number:      "#fe640b",
		Comment:     "#9ca0b0",
		Operator:    "#04a5e5",
		Function:    "#1e66f5",
		Type:        "#df8e1d",
		Constant:    "#fe640b",
		Punctuation: "#6c6f85",
	}, "#e6e9ef")
}

func stylesFor(p redline.Palette, surface redline.Color) redline.Styles {
	return redline.Styles{
		Text:       redline.ColorPair{Foreground: string(p.Foreground)},
		Heading:    redline.ColorPair{Foreground: string(p.Accent)},
		CodeBlock:  redline.ColorPair{Background: string(surface)},
		Inserted:   redline.ColorPair{Foreground: string(p.Added)},
		Deleted:    redline.ColorPair{Foreground: string(p.Deleted)},
		Selected:   redline.ColorPair{Foreground: string(p.Background), Background: string(p.Accent)},
		StatusBar:  redline.ColorPair{Foreground: string(p.Muted), Background: string(surface)},
		SaveBlock:  redline.ColorPair{Foreground: string(p.Deleted), Background: string(surface)},
		PromptArea: redline.ColorPair{Foreground: string(p.Foreground)},
	}
}
