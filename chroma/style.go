package chroma

import (
	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/fwojciec/redline"
)

// StyleFromPalette returns a function that maps chroma token types to
// redline styles using the palette's syntax colors.
func StyleFromPalette(p redline.Palette) StyleFunc {
	return func(tt chromalib.TokenType) redline.Style {
		switch {
		case tt == chromalib.KeywordType:
			return redline.Style{Foreground: string(p.Type), Bold: true}
		case tt.InCategory(chromalib.Keyword):
			return redline.Style{Foreground: string(p.Keyword), Bold: true}
		case tt.InCategory(chromalib.Comment):
			return redline.Style{Foreground: string(p.Comment)}
		case tt.InSubCategory(chromalib.LiteralString):
			return redline.Style{Foreground: string(p.String)}
		case tt.InSubCategory(chromalib.LiteralNumber):
			return redline.Style{Foreground: string(p.Number)}
		case tt.InCategory(chromalib.Operator):
			return redline.Style{Foreground: string(p.Operator)}
		case tt == chromalib.NameFunction, tt == chromalib.NameFunctionMagic:
			return redline.Style{Foreground: string(p.Function)}
		case tt == chromalib.NameBuiltin, tt == chromalib.NameClass:
			return redline.Style{Foreground: string(p.Type)}
		case tt == chromalib.NameConstant:
			return redline.Style{Foreground: string(p.Constant)}
		case tt == chromalib.Punctuation:
			return redline.Style{Foreground: string(p.Punctuation)}
		case tt == chromalib.GenericHeading, tt == chromalib.GenericSubheading:
			return redline.Style{Foreground: string(p.Keyword), Bold: true}
		default:
			return redline.Style{}
		}
	}
}
