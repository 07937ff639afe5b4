// Package config loads the sqlagent command configuration.
//
// Values are resolved in order, later sources winning:
//
//  1. Defaults
//  2. An optional YAML file
//  3. A .env file (missing file ignored; never overrides the real environment)
//  4. Environment variables
//
// Environment Variables:
//   - SQLAGENT_PROVIDER: googleai, openai, anthropic, ollama or github (default: googleai)
//   - SQLAGENT_MODEL: model name (default: provider default, gemini-2.5-flash for googleai)
//   - SQLAGENT_API_KEY: API key; falls back to GEMINI_API_KEY / GOOGLE_API_KEY,
//     OPENAI_API_KEY, ANTHROPIC_API_KEY or GITHUB_TOKEN depending on provider
//   - SQLAGENT_BASE_URL: endpoint override for openai-compatible servers and ollama
//   - SQLAGENT_DB_DRIVER: sqlite or postgres (default: sqlite)
//   - SQLAGENT_DB_DSN: database path or connection string (default: sample.db)
//   - SQLAGENT_MAX_STEPS: model calls per question (default: 10)
//   - SQLAGENT_TRANSCRIPT_WINDOW: transcript entries shown to the model (default: 6)
//   - SQLAGENT_MIN_SPACING: minimum time between model requests (default: 2s)
//   - SQLAGENT_MAX_RETRIES: attempts per model request (default: 3)
//   - SQLAGENT_BASE_BACKOFF: first rate-limit backoff (default: 10s)
//   - SQLAGENT_TRACE_DIR: directory for trace files (default: trace_logs)
//
// Durations accept Go syntax ("1500ms", "2s") or a plain number of seconds.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rickchristie/sqlagent/agents/react"
	"github.com/rickchristie/sqlagent/models"
	"github.com/rickchristie/sqlagent/store"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is the .env file read when Load is given none.
const DefaultEnvFile = ".env"

// Config holds the command configuration.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Database  DatabaseConfig  `yaml:"database"`
	Agent     AgentConfig     `yaml:"agent"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Trace     TraceConfig     `yaml:"trace"`
}

// ModelConfig selects the upstream language model.
type ModelConfig struct {
	Provider string `yaml:"provider"`
	Name     string `yaml:"name"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// DatabaseConfig selects the database the agent reads.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AgentConfig bounds each run.
type AgentConfig struct {
	MaxSteps         int `yaml:"max_steps"`
	TranscriptWindow int `yaml:"transcript_window"`
}

// RateLimitConfig configures request pacing and retry.
type RateLimitConfig struct {
	MinSpacing  time.Duration `yaml:"min_spacing"`
	MaxRetries  int           `yaml:"max_retries"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
}

// TraceConfig configures trace output.
type TraceConfig struct {
	Dir     string `yaml:"dir"`
	Console bool   `yaml:"console"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider: models.ProviderGoogleAI,
		},
		Database: DatabaseConfig{
			Driver: store.DriverSQLite,
			DSN:    "sample.db",
		},
		Agent: AgentConfig{
			MaxSteps:         react.DefaultMaxSteps,
			TranscriptWindow: react.DefaultTranscriptWindow,
		},
		RateLimit: RateLimitConfig{
			MinSpacing:  models.DefaultMinSpacing,
			MaxRetries:  models.DefaultMaxRetries,
			BaseBackoff: models.DefaultBaseBackoff,
		},
		Trace: TraceConfig{
			Dir:     "trace_logs",
			Console: true,
		},
	}
}

// Load resolves the configuration. path names an optional YAML file; an
// empty path skips it. envFiles default to DefaultEnvFile.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Model.Provider, "SQLAGENT_PROVIDER")
	setString(&c.Model.Name, "SQLAGENT_MODEL")
	setString(&c.Model.APIKey, "SQLAGENT_API_KEY")
	setString(&c.Model.BaseURL, "SQLAGENT_BASE_URL")
	setString(&c.Database.Driver, "SQLAGENT_DB_DRIVER")
	setString(&c.Database.DSN, "SQLAGENT_DB_DSN")
	setString(&c.Trace.Dir, "SQLAGENT_TRACE_DIR")

	if c.Model.APIKey == "" {
		for _, key := range providerKeyVars(c.Model.Provider) {
			if v := os.Getenv(key); v != "" {
				c.Model.APIKey = v
				break
			}
		}
	}

	var errs []error
	errs = append(errs,
		setInt(&c.Agent.MaxSteps, "SQLAGENT_MAX_STEPS"),
		setInt(&c.Agent.TranscriptWindow, "SQLAGENT_TRANSCRIPT_WINDOW"),
		setInt(&c.RateLimit.MaxRetries, "SQLAGENT_MAX_RETRIES"),
		setDuration(&c.RateLimit.MinSpacing, "SQLAGENT_MIN_SPACING"),
		setDuration(&c.RateLimit.BaseBackoff, "SQLAGENT_BASE_BACKOFF"),
	)
	return errors.Join(errs...)
}

// providerKeyVars lists the conventional API key variables of a provider.
func providerKeyVars(provider string) []string {
	switch provider {
	case models.ProviderGoogleAI, "":
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case models.ProviderOpenAI:
		return []string{"OPENAI_API_KEY"}
	case models.ProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	case models.ProviderGitHub:
		return []string{"GITHUB_TOKEN"}
	default:
		return nil
	}
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	var errs []error

	known := false
	for _, p := range models.Providers() {
		if c.Model.Provider == p {
			known = true
			break
		}
	}
	if !known {
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Model.Provider))
	}
	if _, ok := store.DialectFor(c.Database.Driver); !ok {
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.Agent.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("max steps must be at least 1, got %d", c.Agent.MaxSteps))
	}
	if c.Agent.TranscriptWindow < 0 {
		errs = append(errs, fmt.Errorf("transcript window must not be negative, got %d", c.Agent.TranscriptWindow))
	}
	if c.RateLimit.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("max retries must be at least 1, got %d", c.RateLimit.MaxRetries))
	}
	if c.RateLimit.MinSpacing < 0 {
		errs = append(errs, fmt.Errorf("min spacing must not be negative, got %s", c.RateLimit.MinSpacing))
	}
	if c.RateLimit.BaseBackoff < 0 {
		errs = append(errs, fmt.Errorf("base backoff must not be negative, got %s", c.RateLimit.BaseBackoff))
	}

	return errors.Join(errs...)
}

// ProviderConfig returns the model settings in the form models.New takes.
func (c *Config) ProviderConfig() models.ProviderConfig {
	return models.ProviderConfig{
		Provider: c.Model.Provider,
		Model:    c.Model.Name,
		APIKey:   c.Model.APIKey,
		BaseURL:  c.Model.BaseURL,
	}
}

// ModelName returns the configured model or the provider's default.
func (c *Config) ModelName() string {
	if c.Model.Name != "" {
		return c.Model.Name
	}
	return models.DefaultModel(c.Model.Provider)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// ParseDuration accepts Go duration syntax or a plain number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
