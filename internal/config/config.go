// Package config loads novelsync settings from an optional config file,
// a .env file and NOVELSYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/chapter"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/chunker"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/orchestrator"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/translator"
)

// ErrMissingCredential is returned when a provider that needs an API key has
// none configured.
var ErrMissingCredential = errors.New("config: missing credential")

const envPrefix = "NOVELSYNC"

type Config struct {
	Backend     BackendConfig     `mapstructure:"backend"`
	Translation TranslationConfig `mapstructure:"translation"`
	Retry       RetryConfig       `mapstructure:"retry"`
	Store       StoreConfig       `mapstructure:"store"`
	LogLevel    string            `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// ProviderConfig selects one translation backend.
type ProviderConfig struct {
	Provider    string `mapstructure:"provider" validate:"required,oneof=gemini openai openrouter ollama google"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	BaseURL     string `mapstructure:"base_url" validate:"omitempty,url"`
	Credentials string `mapstructure:"credentials"`
}

// BackendConfig is the primary provider plus the ordered providers tried
// after it fails.
type BackendConfig struct {
	ProviderConfig `mapstructure:",squash"`
	Fallback       []ProviderConfig `mapstructure:"fallback" validate:"dive"`
}

type TranslationConfig struct {
	SourceLang     string `mapstructure:"source_lang" validate:"required"`
	TargetLang     string `mapstructure:"target_lang" validate:"required"`
	ChunkBudget    int    `mapstructure:"chunk_budget" validate:"gte=0"`
	ContextWords   int    `mapstructure:"context_words"`
	ValidateOutput bool   `mapstructure:"validate_output"`
	Refine         bool   `mapstructure:"refine"`
	RefinerModel   string `mapstructure:"refiner_model"`
	RefinerURL     string `mapstructure:"refiner_url" validate:"omitempty,url"`
}

type RetryConfig struct {
	MaxAttempts       int           `mapstructure:"max_attempts" validate:"gte=1"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"gte=0"`
}

type StoreConfig struct {
	Path     string `mapstructure:"path"`
	Disabled bool   `mapstructure:"disabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.provider", "gemini")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.model", "")
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.credentials", "")

	v.SetDefault("translation.source_lang", "auto")
	v.SetDefault("translation.target_lang", "en")
	v.SetDefault("translation.chunk_budget", chapter.DefaultChunkBudget)
	v.SetDefault("translation.context_words", chunker.DefaultContextWords)
	v.SetDefault("translation.validate_output", false)
	v.SetDefault("translation.refine", false)
	v.SetDefault("translation.refiner_model", "llama3.2")
	v.SetDefault("translation.refiner_url", translator.DefaultOllamaURL)

	v.SetDefault("retry.max_attempts", orchestrator.DefaultMaxAttempts)
	v.SetDefault("retry.retry_delay", orchestrator.DefaultRetryDelay)
	v.SetDefault("retry.timeout", 2*time.Minute)
	v.SetDefault("retry.requests_per_minute", 0)

	v.SetDefault("store.path", "./data/novelsync.db")
	v.SetDefault("store.disabled", false)

	v.SetDefault("log_level", "info")
}

// Load reads the configuration. With an empty path it looks for
// novelsync.{yaml,json,toml} in the working directory and
// $HOME/.config/novelsync; a missing file is not an error there.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Older deployments only set the bare Gemini key.
	if err := v.BindEnv("gemini_api_key", envPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("novelsync")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/novelsync")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Backend.Provider == "gemini" && cfg.Backend.APIKey == "" {
		cfg.Backend.APIKey = v.GetString("gemini_api_key")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Backend.ProviderConfig.applyDefaults()
	for i := range c.Backend.Fallback {
		c.Backend.Fallback[i].applyDefaults()
	}

	for _, p := range c.Providers() {
		if err := p.CheckCredential(); err != nil {
			return err
		}
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Providers returns the primary provider followed by the fallbacks.
func (c *Config) Providers() []ProviderConfig {
	out := make([]ProviderConfig, 0, 1+len(c.Backend.Fallback))
	out = append(out, c.Backend.ProviderConfig)
	return append(out, c.Backend.Fallback...)
}

func (p *ProviderConfig) applyDefaults() {
	p.Provider = strings.ToLower(strings.TrimSpace(p.Provider))
	switch p.Provider {
	case "gemini":
		if p.Model == "" {
			p.Model = translator.DefaultGeminiModel
		}
	case "openai":
		if p.Model == "" {
			p.Model = translator.DefaultOpenAIModel
		}
	case "openrouter":
		if p.Model == "" {
			p.Model = translator.DefaultOpenRouterModel
		}
		if p.BaseURL == "" {
			p.BaseURL = translator.DefaultOpenRouterURL
		}
	case "ollama":
		if p.Model == "" {
			p.Model = translator.DefaultOllamaModel
		}
		if p.BaseURL == "" {
			p.BaseURL = translator.DefaultOllamaURL
		}
	}
}

// CheckCredential reports ErrMissingCredential for API-key providers
// without a key.
func (p ProviderConfig) CheckCredential() error {
	switch p.Provider {
	case "gemini", "openai", "openrouter":
		if strings.TrimSpace(p.APIKey) == "" {
			return fmt.Errorf("%w: %s requires an api_key", ErrMissingCredential, p.Provider)
		}
	}
	return nil
}
