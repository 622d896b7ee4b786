package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/translator"
)

// clearEnv keeps credentials from the developer's shell out of the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY",
		"NOVELSYNC_GEMINI_API_KEY",
		"NOVELSYNC_BACKEND_PROVIDER",
		"NOVELSYNC_BACKEND_API_KEY",
		"NOVELSYNC_TRANSLATION_TARGET_LANG",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "novelsync.yaml", `
backend:
  provider: openrouter
  api_key: or-key
  fallback:
    - provider: ollama
translation:
  source_lang: zh
  chunk_budget: 2500
retry:
  max_attempts: 5
  retry_delay: 500ms
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend.Provider != "openrouter" || cfg.Backend.APIKey != "or-key" {
		t.Errorf("unexpected backend %+v", cfg.Backend.ProviderConfig)
	}
	if cfg.Backend.BaseURL != translator.DefaultOpenRouterURL || cfg.Backend.Model != translator.DefaultOpenRouterModel {
		t.Errorf("openrouter defaults not applied: %+v", cfg.Backend.ProviderConfig)
	}
	if len(cfg.Backend.Fallback) != 1 || cfg.Backend.Fallback[0].BaseURL != translator.DefaultOllamaURL {
		t.Errorf("unexpected fallback %+v", cfg.Backend.Fallback)
	}
	if cfg.Translation.SourceLang != "zh" || cfg.Translation.TargetLang != "en" || cfg.Translation.ChunkBudget != 2500 {
		t.Errorf("unexpected translation %+v", cfg.Translation)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.RetryDelay != 500*time.Millisecond {
		t.Errorf("unexpected retry %+v", cfg.Retry)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug, got %q", cfg.LogLevel)
	}
	if got := cfg.Providers(); len(got) != 2 || got[0].Provider != "openrouter" || got[1].Provider != "ollama" {
		t.Errorf("unexpected providers %+v", got)
	}
}

func TestLoad_MissingCredential(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
	}{
		{"gemini", "backend:\n  provider: gemini\n"},
		{"openai", "backend:\n  provider: openai\n"},
		{"fallback", "backend:\n  provider: ollama\n  fallback:\n    - provider: openrouter\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "novelsync.yaml", tt.content))
			if !errors.Is(err, ErrMissingCredential) {
				t.Errorf("expected ErrMissingCredential, got %v", err)
			}
		})
	}
}

func TestLoad_NoCredentialNeeded(t *testing.T) {
	clearEnv(t)

	for _, provider := range []string{"ollama", "google"} {
		cfg, err := Load(writeConfig(t, "novelsync.yaml", "backend:\n  provider: "+provider+"\n"))
		if err != nil {
			t.Errorf("%s: unexpected error %v", provider, err)
			continue
		}
		if cfg.Backend.Provider != provider {
			t.Errorf("expected %s, got %s", provider, cfg.Backend.Provider)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOVELSYNC_BACKEND_API_KEY", "env-key")
	t.Setenv("NOVELSYNC_TRANSLATION_TARGET_LANG", "de")

	cfg, err := Load(writeConfig(t, "novelsync.yaml", "backend:\n  provider: openai\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.APIKey != "env-key" {
		t.Errorf("expected env api key, got %q", cfg.Backend.APIKey)
	}
	if cfg.Translation.TargetLang != "de" {
		t.Errorf("expected target de, got %q", cfg.Translation.TargetLang)
	}
	if cfg.Backend.Model != translator.DefaultOpenAIModel {
		t.Errorf("expected default model, got %q", cfg.Backend.Model)
	}
}

func TestLoad_LegacyGeminiKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "legacy-key")

	cfg, err := Load(writeConfig(t, "novelsync.yaml", "log_level: warn\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.Provider != "gemini" || cfg.Backend.APIKey != "legacy-key" {
		t.Errorf("legacy key not picked up: %+v", cfg.Backend.ProviderConfig)
	}
}

func TestLoad_LegacyConfigKey(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, "novelsync.json", `{"gemini_api_key": "from-file"}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.APIKey != "from-file" {
		t.Errorf("expected key from legacy config entry, got %q", cfg.Backend.APIKey)
	}
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
	}{
		{"unknown provider", "backend:\n  provider: babelfish\n"},
		{"bad log level", "backend:\n  provider: ollama\nlog_level: loud\n"},
		{"zero attempts", "backend:\n  provider: ollama\nretry:\n  max_attempts: 0\n"},
		{"bad url", "backend:\n  provider: ollama\n  base_url: not a url\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "novelsync.yaml", tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if errors.Is(err, ErrMissingCredential) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
