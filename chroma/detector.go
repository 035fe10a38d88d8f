package chroma

import (
	"strings"

	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.LanguageDetector = (*Detector)(nil)

// Detector identifies the language of fenced code blocks using chroma.
type Detector struct {
	analyse bool
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithContentAnalysis makes the detector guess from the block body when the
// info string names no known language.
func WithContentAnalysis() DetectorOption {
	return func(d *Detector) {
		d.analyse = true
	}
}

// NewDetector creates a new chroma-based language detector.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the chroma lexer name for a code block. The first word of
// info is looked up by name, alias and file extension; attribute forms like
// "{.python}" and "js,linenos" are accepted.
func (d *Detector) Detect(info, source string) string {
	if lang := infoLanguage(info); lang != "" {
		if lexer := lexers.Get(lang); lexer != nil {
			return lexer.Config().Name
		}
	}
	if !d.analyse || strings.TrimSpace(source) == "" {
		return ""
	}
	lexer := lexers.Analyse(source)
	if lexer == nil || lexer == lexers.Fallback {
		return ""
	}
	return lexer.Config().Name
}

func infoLanguage(info string) string {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	lang := strings.Trim(fields[0], "{}")
	lang = strings.TrimPrefix(lang, ".")
	lang = strings.TrimPrefix(lang, "language-")
	if i := strings.IndexByte(lang, ','); i >= 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}

// lexer returns a coalescing lexer for language, or nil.
func lexer(language string) chromalib.Lexer {
	l := lexers.Get(language)
	if l == nil {
		return nil
	}
	return chromalib.Coalesce(l)
}
