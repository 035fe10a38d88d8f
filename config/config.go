// Package config loads redline settings from a YAML file and the
// environment. Environment variables take precedence over the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Environment variables read by ApplyEnv.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvProvider     = "REDLINE_PROVIDER"
	EnvModel        = "REDLINE_MODEL"
	EnvCacheDir     = "REDLINE_CACHE_DIR"
	EnvLogFile      = "REDLINE_LOG_FILE"
	EnvLogLevel     = "REDLINE_LOG_LEVEL"
	EnvTimeout      = "REDLINE_TIMEOUT"
	EnvTheme        = "REDLINE_THEME"
)

// Config holds every tunable setting.
type Config struct {
	Provider string        `yaml:"provider"` // gemini or openai
	Model    string        `yaml:"model"`    // Empty selects the provider default
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`

	CacheDir string `yaml:"cache_dir"`
	NoCache  bool   `yaml:"no_cache"`

	// Tolerance is the minimum fingerprint similarity for relocating a hunk.
	Tolerance float64 `yaml:"tolerance"`

	Theme       string `yaml:"theme"`        // auto, dark or light
	Sidecar     bool   `yaml:"sidecar"`      // Keep pending hunks next to the document
	RoundLog    string `yaml:"round_log"`    // JSONL file of round diagnostics
	MetricsAddr string `yaml:"metrics_addr"` // Serve Prometheus metrics when set

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// API keys are only read from the environment.
	GeminiAPIKey string `yaml:"-"`
	OpenAIAPIKey string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:  ProviderGemini,
		Timeout:   90 * time.Second,
		Retries:   2,
		Tolerance: 0.6,
		Theme:     "auto",
		Sidecar:   true,
		LogLevel:  "info",
	}
}

// DefaultPath returns the config file location under the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate config dir: %w", err)
	}
	return filepath.Join(dir, "redline", "config.yaml"), nil
}

// Load reads path over the defaults, applies the environment and validates
// the result. A missing file is not an error.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(EnvGeminiAPIKey, &c.GeminiAPIKey)
	set(EnvOpenAIAPIKey, &c.OpenAIAPIKey)
	set(EnvProvider, &c.Provider)
	set(EnvModel, &c.Model)
	set(EnvCacheDir, &c.CacheDir)
	set(EnvLogFile, &c.LogFile)
	set(EnvLogLevel, &c.LogLevel)
	set(EnvTheme, &c.Theme)

	if v := strings.TrimSpace(getenv(EnvTimeout)); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// parseDuration accepts Go durations and plain seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	switch c.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("config: unknown theme %q", c.Theme)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("config: retries must not be negative, got %d", c.Retries)
	}
	if c.Tolerance <= 0 || c.Tolerance > 1 {
		return fmt.Errorf("config: tolerance must be in (0, 1], got %v", c.Tolerance)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return l, nil
}

// APIKey returns the key for the configured provider.
func (c Config) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// APIKeyEnv names the environment variable holding the provider's key.
func (c Config) APIKeyEnv() string {
	if c.Provider == ProviderOpenAI {
		return EnvOpenAIAPIKey
	}
	return EnvGeminiAPIKey
}
