// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/ppi-assistant/internal/llm"
	"github.com/jonathan/ppi-assistant/internal/reconcile"
)

// Defaults
const (
	DefaultPort              = 8080
	DefaultLogLevel          = "info"
	DefaultMaxSaveAttempts   = 3
	DefaultImportConcurrency = 4
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values come from the environment, then defaults.
type Config struct {
	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// LLM
	LLMProvider string `json:"llm_provider,omitempty"` // gemini, openai or anthropic
	APIKey      string `json:"api_key,omitempty"`      // Key for the selected provider
	LLMBaseURL  string `json:"llm_base_url,omitempty"` // Endpoint override (proxy, compatible gateway)
	Model       string `json:"model,omitempty"`        // Overrides the standard-tier model

	// Import
	AdminFieldPolicy  string `json:"admin_field_policy,omitempty"` // overwrite or fill-empty
	MaxSaveAttempts   int    `json:"max_save_attempts,omitempty"`  // Read-reconcile-write rounds per import
	ImportConcurrency int    `json:"import_concurrency,omitempty"` // Concurrent extractions per batch

	// Server
	Port int `json:"port,omitempty"`

	// Logging
	LogLevel string `json:"log_level,omitempty"` // debug, info, warn, error
	LogFile  string `json:"log_file,omitempty"`  // Log to this file instead of stderr
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. The API key is
// taken from the variable of the selected provider.
func FromEnv() Config {
	cfg := Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LLMProvider:      os.Getenv("LLM_PROVIDER"),
		LLMBaseURL:       os.Getenv("LLM_BASE_URL"),
		Model:            os.Getenv("LLM_MODEL"),
		AdminFieldPolicy: os.Getenv("ADMIN_FIELD_POLICY"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFile:          os.Getenv("LOG_FILE"),
		Port:             envInt("PORT"),
	}

	provider, err := llm.ParseProvider(cfg.LLMProvider)
	if err == nil {
		cfg.APIKey = os.Getenv(APIKeyEnv(provider))
	}

	return cfg
}

// APIKeyEnv returns the environment variable holding the key of a provider.
func APIKeyEnv(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LLMProvider:       string(llm.ProviderGemini),
		MaxSaveAttempts:   DefaultMaxSaveAttempts,
		ImportConcurrency: DefaultImportConcurrency,
		Port:              DefaultPort,
		LogLevel:          DefaultLogLevel,
	}
}

// Resolve loads the optional file at path, then fills gaps from the
// environment and the defaults, and validates the result.
func Resolve(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(FromEnv())
	merged = merged.MergeWithDefaults(Defaults())

	// A key read from the environment belongs to the provider chosen there;
	// re-read it when the file picked another provider.
	if cfg.APIKey == "" && cfg.LLMProvider != "" {
		if provider, err := llm.ParseProvider(merged.LLMProvider); err == nil {
			merged.APIKey = os.Getenv(APIKeyEnv(provider))
		}
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those depend on the
// command being run.
func (c *Config) Validate() error {
	if _, err := llm.ParseProvider(c.LLMProvider); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if _, err := reconcile.ParseAdminPolicy(c.AdminFieldPolicy); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.MaxSaveAttempts < 0 {
		return fmt.Errorf("config error: 'max_save_attempts' must be non-negative")
	}
	if c.ImportConcurrency < 0 {
		return fmt.Errorf("config error: 'import_concurrency' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config error: unknown log level %q", c.LogLevel)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LLMProvider == "" {
		result.LLMProvider = defaults.LLMProvider
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.LLMBaseURL == "" {
		result.LLMBaseURL = defaults.LLMBaseURL
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.AdminFieldPolicy == "" {
		result.AdminFieldPolicy = defaults.AdminFieldPolicy
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFile == "" {
		result.LogFile = defaults.LogFile
	}

	// Int fields: use default if zero
	if result.MaxSaveAttempts == 0 {
		result.MaxSaveAttempts = defaults.MaxSaveAttempts
	}
	if result.ImportConcurrency == 0 {
		result.ImportConcurrency = defaults.ImportConcurrency
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}

// Provider returns the parsed LLM provider. Call Validate first.
func (c *Config) Provider() llm.Provider {
	provider, _ := llm.ParseProvider(c.LLMProvider)
	return provider
}

// Policy returns the parsed administrative field policy. Call Validate first.
func (c *Config) Policy() reconcile.AdminPolicy {
	policy, _ := reconcile.ParseAdminPolicy(c.AdminFieldPolicy)
	return policy
}

// LLMConfig builds the model configuration for the selected provider.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.ConfigFor(c.Provider())
	if c.Model != "" {
		cfg = cfg.WithModel(llm.TierStandard, c.Model)
	}
	cfg.BaseURL = c.LLMBaseURL
	return cfg
}

func envInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
