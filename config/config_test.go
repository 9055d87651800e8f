package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("LLM.Provider = %q, want openai", cfg.LLM.Provider)
	}
	if cfg.Session.Backend != "memory" {
		t.Errorf("Session.Backend = %q, want memory", cfg.Session.Backend)
	}
	if cfg.Directory.RegistryURL == "" {
		t.Error("Directory.RegistryURL empty")
	}
	if cfg.Analytics.Backend != "none" {
		t.Errorf("Analytics.Backend = %q, want none", cfg.Analytics.Backend)
	}
}

func TestLoadRejectsUnknownAnalyticsBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("analytics:\n  backend: kafka\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should reject unknown analytics backend")
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: claude
  model: from-file
session:
  backend: redis
  redis:
    addr: redis.internal:6379
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CARECOST_LLM_MODEL", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Provider != "claude" {
		t.Errorf("LLM.Provider = %q, want claude from file", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "from-env" {
		t.Errorf("LLM.Model = %q, want env to override file", cfg.LLM.Model)
	}
	if cfg.Session.Backend != "redis" {
		t.Errorf("Session.Backend = %q, want redis", cfg.Session.Backend)
	}
	if cfg.Session.Redis.Addr != "redis.internal:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Session.Redis.Addr)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  provider: bogus\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should reject unknown provider")
	}
}

func TestValidatorOneOf(t *testing.T) {
	v := NewValidator().ValidateOneOf("field", "c", "a", "b")
	if !v.HasErrors() {
		t.Error("expected validation error for disallowed value")
	}
	v = NewValidator().ValidateOneOf("field", "a", "a", "b")
	if v.HasErrors() {
		t.Errorf("unexpected errors: %v", v.Errors())
	}
}

func TestAPIKeySelection(t *testing.T) {
	cfg := LLMConfig{
		Provider:        "claude",
		OpenAIAPIKey:    "openai-key",
		AnthropicAPIKey: "anthropic-key",
		GeminiAPIKey:    "gemini-key",
	}
	if got := cfg.APIKey(); got != "anthropic-key" {
		t.Errorf("APIKey() = %q, want anthropic-key", got)
	}
	cfg.Provider = "openai"
	if got := cfg.APIKey(); got != "openai-key" {
		t.Errorf("APIKey() = %q, want openai-key", got)
	}
}
