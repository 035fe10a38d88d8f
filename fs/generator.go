package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.Generator = (*Generator)(nil)

// Generator wraps a redline.Generator with file-based caching keyed by the
// document and prompt.
type Generator struct {
	inner    redline.Generator
	cacheDir string
	model    string
}

// NewGenerator creates a new caching generator. model is folded into the
// cache key so switching models does not serve stale responses.
func NewGenerator(inner redline.Generator, cacheDir, model string) *Generator {
	return &Generator{
		inner:    inner,
		cacheDir: cacheDir,
		model:    model,
	}
}

type entry struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// Generate returns a cached response or delegates to the inner generator.
func (g *Generator) Generate(ctx context.Context, document, prompt string) (string, error) {
	hash := g.hash(document, prompt)

	if cached, err := g.load(hash); err == nil {
		return cached, nil
	}

	resp, err := g.inner.Generate(ctx, document, prompt)
	if err != nil {
		return "", err
	}

	// Best-effort.
	_ = g.save(hash, entry{Model: g.model, Prompt: prompt, Response: resp})

	return resp, nil
}

func (g *Generator) hash(document, prompt string) string {
	h := sha256.New()
	for _, s := range []string{g.model, prompt, document} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (g *Generator) path(hash string) string {
	return filepath.Join(g.cacheDir, hash+".json")
}

func (g *Generator) load(hash string) (string, error) {
	data, err := os.ReadFile(g.path(hash))
	if err != nil {
		return "", err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return "", err
	}
	if e.Response == "" {
		return "", os.ErrNotExist
	}

	return e.Response, nil
}

func (g *Generator) save(hash string, e entry) error {
	if err := os.MkdirAll(g.cacheDir, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return os.WriteFile(g.path(hash), data, 0644)
}
