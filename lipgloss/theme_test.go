package lipgloss_test

import (
	"io"
	"testing"

	lg "github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTheme(t *testing.T) {
	t.Parallel()

	t.Run("implements Theme interface", func(t *testing.T) {
		t.Parallel()
		var _ redline.Theme = lipgloss.DefaultTheme()
	})

	t.Run("returns same styles as DarkTheme", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, lipgloss.DarkTheme().Styles(), lipgloss.DefaultTheme().Styles())
		assert.Equal(t, lipgloss.DarkTheme().Palette(), lipgloss.DefaultTheme().Palette())
	})
}

func TestNewTheme_DerivesStylesFromPalette(t *testing.T) {
	t.Parallel()

	p := redline.Palette{
		Background: "#000000",
		Foreground: "#ffffff",
		Added:      "#00ff00",
		Deleted:    "#ff0000",
		Accent:     "#0000ff",
		Muted:      "#888888",
	}
	styles := lipgloss.NewTheme(p, "#111111").Styles()

	assert.Equal(t, redline.ColorPair{Foreground: "#00ff00"}, styles.Inserted)
	assert.Equal(t, redline.ColorPair{Foreground: "#ff0000"}, styles.Deleted)
	assert.Equal(t, redline.ColorPair{Foreground: "#000000", Background: "#0000ff"}, styles.Selected)
	assert.Equal(t, redline.ColorPair{Background: "#111111"}, styles.CodeBlock)
	assert.Equal(t, redline.ColorPair{Foreground: "#888888", Background: "#111111"}, styles.StatusBar)
	assert.Equal(t, "#0000ff", styles.Heading.Foreground)
}

func TestThemes_HaveSyntaxColors(t *testing.T) {
	t.Parallel()

	for name, theme := range map[string]*lipgloss.Theme{
		"dark":  lipgloss.DarkTheme(),
		"light": lipgloss.LightTheme(),
	} {
		p := theme.Palette()
		for field, c := range map[string]redline.Color{
			"keyword": p.Keyword, "string": p.String, "number": p.Number,
			"comment": p.Comment, "function": p.Function, "type": p.Type,
		} {
			assert.NotEmpty(t, c, "%s theme %s color", name, field)
		}
	}
}

func TestLightTheme_DiffersFromDark(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, lipgloss.DarkTheme().Palette().Background, lipgloss.LightTheme().Palette().Background)
}

func TestAdaptiveTheme(t *testing.T) {
	t.Parallel()

	r := lg.NewRenderer(io.Discard)
	r.SetHasDarkBackground(false)
	assert.Equal(t, lipgloss.LightTheme().Palette(), lipgloss.AdaptiveTheme(r).Palette())

	r.SetHasDarkBackground(true)
	assert.Equal(t, lipgloss.DarkTheme().Palette(), lipgloss.AdaptiveTheme(r).Palette())
}
