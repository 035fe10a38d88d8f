package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/redline/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), env(nil))
		require.NoError(t, err)

		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
provider: openai
model: gpt-4o
timeout: 30s
retries: 0
tolerance: 0.75
theme: light
sidecar: false
round_log: /tmp/rounds.jsonl
metrics_addr: ":9090"
log_level: debug
`)
		cfg, err := config.Load(path, env(nil))
		require.NoError(t, err)

		assert.Equal(t, config.ProviderOpenAI, cfg.Provider)
		assert.Equal(t, "gpt-4o", cfg.Model)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, 0, cfg.Retries)
		assert.InDelta(t, 0.75, cfg.Tolerance, 1e-9)
		assert.Equal(t, "light", cfg.Theme)
		assert.False(t, cfg.Sidecar)
		assert.Equal(t, "/tmp/rounds.jsonl", cfg.RoundLog)
		assert.Equal(t, ":9090", cfg.MetricsAddr)
		level, err := cfg.Level()
		require.NoError(t, err)
		assert.Equal(t, slog.LevelDebug, level)
	})

	t.Run("empty file yields defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load(writeConfig(t, ""), env(nil))
		require.NoError(t, err)

		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(writeConfig(t, "providr: openai\n"), env(nil))
		require.Error(t, err)
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "provider: gemini\nmodel: file-model\n")
		cfg, err := config.Load(path, env(map[string]string{
			config.EnvProvider:     "openai",
			config.EnvModel:        "env-model",
			config.EnvOpenAIAPIKey: "sk-test",
			config.EnvCacheDir:     "/var/cache/redline",
			config.EnvLogFile:      "/tmp/redline.log",
			config.EnvTimeout:      "45",
		}))
		require.NoError(t, err)

		assert.Equal(t, config.ProviderOpenAI, cfg.Provider)
		assert.Equal(t, "env-model", cfg.Model)
		assert.Equal(t, "sk-test", cfg.APIKey())
		assert.Equal(t, config.EnvOpenAIAPIKey, cfg.APIKeyEnv())
		assert.Equal(t, "/var/cache/redline", cfg.CacheDir)
		assert.Equal(t, "/tmp/redline.log", cfg.LogFile)
		assert.Equal(t, 45*time.Second, cfg.Timeout)
	})

	t.Run("api keys are never read from the file", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(writeConfig(t, "gemini_api_key: secret\n"), env(nil))
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			content string
			env     map[string]string
		}{
			{name: "provider", content: "provider: claude\n"},
			{name: "theme", content: "theme: neon\n"},
			{name: "tolerance", content: "tolerance: 1.5\n"},
			{name: "retries", content: "retries: -1\n"},
			{name: "log level", content: "log_level: loud\n"},
			{name: "timeout env", env: map[string]string{config.EnvTimeout: "soon"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				_, err := config.Load(writeConfig(t, tt.content), env(tt.env))
				require.Error(t, err)
			})
		}
	})
}

func TestConfig_APIKey(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.GeminiAPIKey = "g"
	cfg.OpenAIAPIKey = "o"

	assert.Equal(t, "g", cfg.APIKey())
	assert.Equal(t, config.EnvGeminiAPIKey, cfg.APIKeyEnv())

	cfg.Provider = config.ProviderOpenAI
	assert.Equal(t, "o", cfg.APIKey())
}
