// Package config loads orchestrator tunables from standard locations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults for tunables the TOML file may override.
const (
	// DefaultMemoryPerWorker is the memory headroom assumed per concurrent
	// agent invocation. Tuned to one specific agent's footprint; override
	// in speckit.toml when yours differs.
	DefaultMemoryPerWorker = 2 << 30 // 2 GiB

	// DefaultConcurrencyCap bounds auto-detected concurrency regardless of
	// cores. The bottleneck is API concurrency, not CPU.
	DefaultConcurrencyCap = 5

	// DefaultTransientAttempts is the total number of agent invocation
	// attempts when failures classify as transient.
	DefaultTransientAttempts = 3

	// DefaultVerifyRounds is the total number of verification rounds,
	// including the first.
	DefaultVerifyRounds = 3

	// DefaultRetryBackoff is the initial backoff between transient retries.
	DefaultRetryBackoff = 2 * time.Second

	DefaultMaxTurns     = 30
	DefaultMaxBudgetUSD = 5.0
)

// Config holds the orchestrator's tunable settings.
type Config struct {
	// Provider selects the agent adapter: anthropic, openai, google.
	// Empty means infer from Model.
	Provider string `toml:"provider"`

	// Model is the default model passed to the agent collaborator.
	Model string `toml:"model"`

	// MaxTurns bounds the agent's turns per invocation.
	MaxTurns int `toml:"max_turns"`

	// MaxBudgetUSD bounds the agent's spend per invocation.
	MaxBudgetUSD float64 `toml:"max_budget_usd"`

	// MemoryPerWorkerBytes is the headroom assumed per concurrent worker
	// when auto-detecting concurrency.
	MemoryPerWorkerBytes int64 `toml:"memory_per_worker_bytes"`

	// ConcurrencyCap bounds auto-detected concurrency.
	ConcurrencyCap int `toml:"concurrency_cap"`

	// TransientAttempts is the total attempts for transient agent failures.
	TransientAttempts int `toml:"transient_attempts"`

	// VerifyRounds is the total verification rounds per spec.
	VerifyRounds int `toml:"verify_rounds"`

	// RetryBackoff is the initial transient-retry backoff.
	RetryBackoff duration `toml:"retry_backoff"`

	// ResultsDir overrides the default results directory
	// (<project>/.speckit/results).
	ResultsDir string `toml:"results_dir"`

	// Keys holds per-provider API keys. Environment variables win over
	// the file (ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY).
	Keys map[string]string `toml:"keys"`
}

// duration wraps time.Duration for TOML decoding of strings like "2s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Duration returns the wrapped time.Duration.
func (d duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		MemoryPerWorkerBytes: DefaultMemoryPerWorker,
		ConcurrencyCap:       DefaultConcurrencyCap,
		TransientAttempts:    DefaultTransientAttempts,
		VerifyRounds:         DefaultVerifyRounds,
		RetryBackoff:         duration(DefaultRetryBackoff),
		MaxTurns:             DefaultMaxTurns,
		MaxBudgetUSD:         DefaultMaxBudgetUSD,
	}
}

// StandardPaths returns the config file locations in order of priority.
func StandardPaths() []string {
	paths := []string{"speckit.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "speckit", "speckit.toml"))
		paths = append(paths, filepath.Join(home, ".speckit", "speckit.toml"))
	}

	return paths
}

// Load loads configuration from the first available standard location.
// A missing file is not an error; defaults are returned.
func Load() (*Config, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return cfg, path, nil
		}
	}
	return Default(), "", nil
}

// LoadFile loads configuration from a specific file, applying defaults for
// any field the file omits.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for impossible values.
func (c *Config) Validate() error {
	if c.MemoryPerWorkerBytes <= 0 {
		return fmt.Errorf("memory_per_worker_bytes must be positive")
	}
	if c.ConcurrencyCap < 1 {
		return fmt.Errorf("concurrency_cap must be at least 1")
	}
	if c.TransientAttempts < 1 {
		return fmt.Errorf("transient_attempts must be at least 1")
	}
	if c.VerifyRounds < 1 {
		return fmt.Errorf("verify_rounds must be at least 1")
	}
	if c.MaxBudgetUSD < 0 {
		return fmt.Errorf("max_budget_usd must not be negative")
	}
	return nil
}

// envKeyNames maps provider names to their conventional env var.
var envKeyNames = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"google":    "GEMINI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// APIKey resolves the API key for a provider: environment first, then the
// [keys] table. Returns empty string when neither is set.
func (c *Config) APIKey(provider string) string {
	provider = strings.ToLower(provider)
	if name, ok := envKeyNames[provider]; ok {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	if c.Keys != nil {
		return c.Keys[provider]
	}
	return ""
}
