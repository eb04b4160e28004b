package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/llm"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. SPREAD_HISTORY_MAX.
const EnvPrefix = "SPREAD"

// Config is the validated application configuration.
type Config struct {
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Display   DisplayConfig   `mapstructure:"display"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sources   []string        `mapstructure:"sources" validate:"min=1,dive,oneof=yahoo llm"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Precision PrecisionConfig `mapstructure:"precision"`
	History   HistoryConfig   `mapstructure:"history"`
}

// PrecisionConfig sets decimal places per field.
type PrecisionConfig struct {
	A   int32 `mapstructure:"a" validate:"min=0,max=8"`
	B   int32 `mapstructure:"b" validate:"min=0,max=8"`
	USD int32 `mapstructure:"usd" validate:"min=0,max=8"`
}

// RefreshConfig controls the periodic rate refresh.
type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"min=1m"`
	Retries  int           `mapstructure:"retries" validate:"min=0,max=10"`
	Enabled  bool          `mapstructure:"enabled"`
}

// HistoryConfig bounds the history log.
type HistoryConfig struct {
	Max int `mapstructure:"max" validate:"min=1,max=10000"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// DefaultsConfig holds the currencies used when nothing has been saved.
type DefaultsConfig struct {
	CurrencyA string `mapstructure:"currency_a" validate:"len=3,alpha"`
	CurrencyB string `mapstructure:"currency_b" validate:"len=3,alpha"`
}

// DisplayConfig controls amount rendering.
type DisplayConfig struct {
	GroupSeparator string `mapstructure:"group_separator" validate:"max=4"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// LLMConfig configures the LLM rate source.
type LLMConfig struct {
	Provider  string        `mapstructure:"provider" validate:"oneof=openai anthropic gemini"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url" validate:"omitempty,url"`
	RateLimit int           `mapstructure:"rate_limit" validate:"min=0"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" validate:"min=0"`
}

// ClientConfig converts to the llm package configuration.
func (c LLMConfig) ClientConfig(retries int) llm.Config {
	return llm.Config{
		Provider:   c.Provider,
		APIKey:     c.APIKey,
		Model:      c.Model,
		BaseURL:    c.BaseURL,
		RateLimit:  c.RateLimit,
		CacheTTL:   c.CacheTTL,
		MaxRetries: retries,
		RetryDelay: time.Second,
	}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("precision.a", 0)
	v.SetDefault("precision.b", 2)
	v.SetDefault("precision.usd", 2)
	v.SetDefault("refresh.interval", "10m")
	v.SetDefault("refresh.enabled", true)
	v.SetDefault("refresh.retries", 2)
	v.SetDefault("history.max", 50)
	v.SetDefault("database.path", "~/.local/share/spread/spread.db")
	v.SetDefault("defaults.currency_a", "IDR")
	v.SetDefault("defaults.currency_b", "RUB")
	v.SetDefault("display.group_separator", " ")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("sources", []string{"yahoo"})
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.rate_limit", 20)
	v.SetDefault("llm.cache_ttl", "5m")
}

// BindEnv enables SPREAD_* environment overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads .env files into the process environment. Missing
// files are ignored; existing variables are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(ExpandPath(p)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Defaults.CurrencyA = strings.ToUpper(strings.TrimSpace(cfg.Defaults.CurrencyA))
	cfg.Defaults.CurrencyB = strings.ToUpper(strings.TrimSpace(cfg.Defaults.CurrencyB))
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	for i, s := range cfg.Sources {
		cfg.Sources[i] = strings.ToLower(strings.TrimSpace(s))
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerAPIKey(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if c.UsesSource("llm") && c.LLM.APIKey == "" {
		return fmt.Errorf("%w: llm.api_key is required when the llm source is enabled", common.ErrMissingConfig)
	}
	return nil
}

// UsesSource reports whether name is among the configured rate sources.
func (c *Config) UsesSource(name string) bool {
	return slices.Contains(c.Sources, name)
}

// providerAPIKey falls back to the provider's conventional environment variable.
func providerAPIKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}
