package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.Resolver.ChainPrefix != "resp_" {
		t.Errorf("expected default chain prefix resp_, got %q", cfg.Resolver.ChainPrefix)
	}
	if cfg.Resolver.VerifyHighlightElement {
		t.Error("highlight element check should be off by default")
	}
	if cfg.Scheduler.MaxConcurrent <= 0 {
		t.Errorf("expected positive max_concurrent, got %d", cfg.Scheduler.MaxConcurrent)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pagepilot.yml")

	original := DefaultConfig()
	original.Provider = ProviderAnthropic
	original.Model = "claude-haiku-4-5-20251001"
	original.Server.Port = 9090
	original.Scheduler.CallTimeout = 30 * time.Second
	original.Scheduler.MinSpacing = 100 * time.Millisecond
	original.Resolver.VerifyHighlightElement = true

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "call_timeout: 30s") {
		t.Errorf("durations should be written human-readable:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("server.port: got %d, want 9090", loaded.Server.Port)
	}
	if loaded.Scheduler.CallTimeout != 30*time.Second {
		t.Errorf("scheduler.call_timeout: got %v, want 30s", loaded.Scheduler.CallTimeout)
	}
	if loaded.Scheduler.MinSpacing != 100*time.Millisecond {
		t.Errorf("scheduler.min_spacing: got %v, want 100ms", loaded.Scheduler.MinSpacing)
	}
	if !loaded.Resolver.VerifyHighlightElement {
		t.Error("resolver.verify_highlight_element should round-trip")
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yml")
	if err := os.WriteFile(path, []byte("scheduler:\n  max_concurrent: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scheduler.MaxConcurrent != 7 {
		t.Errorf("max_concurrent = %d, want 7", cfg.Scheduler.MaxConcurrent)
	}
	if cfg.Scheduler.ReservoirTokens != DefaultConfig().Scheduler.ReservoirTokens {
		t.Errorf("reservoir_tokens should keep its default, got %d", cfg.Scheduler.ReservoirTokens)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("PAGEPILOT_PROVIDER", "ollama")
	t.Setenv("PAGEPILOT_SCHEDULER__MAX_CONCURRENT", "2")
	t.Setenv("PAGEPILOT_SCHEDULER__CALL_TIMEOUT", "5s")
	t.Setenv("PAGEPILOT_RESOLVER__CHAIN_PREFIX", "chain_")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOllama {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOllama)
	}
	if loaded.Scheduler.MaxConcurrent != 2 {
		t.Errorf("nested env override failed: got %d, want 2", loaded.Scheduler.MaxConcurrent)
	}
	if loaded.Scheduler.CallTimeout != 5*time.Second {
		t.Errorf("duration env override failed: got %v", loaded.Scheduler.CallTimeout)
	}
	if loaded.Resolver.ChainPrefix != "chain_" {
		t.Errorf("chain prefix override failed: got %q", loaded.Resolver.ChainPrefix)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"PAGEPILOT_PROVIDER":                  "provider",
		"PAGEPILOT_BASE_URL":                  "base_url",
		"PAGEPILOT_SERVER__ALLOW_ALL_ORIGINS": "server.allow_all_origins",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"invalid provider", func(c *Config) { c.Provider = "google" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"empty database", func(c *Config) { c.Database.Path = "" }},
		{"zero reservoir", func(c *Config) { c.Scheduler.ReservoirTokens = 0 }},
		{"zero refill", func(c *Config) { c.Scheduler.RefillInterval = 0 }},
		{"zero concurrency", func(c *Config) { c.Scheduler.MaxConcurrent = 0 }},
		{"negative spacing", func(c *Config) { c.Scheduler.MinSpacing = -time.Second }},
		{"output above reservoir", func(c *Config) { c.Resolver.MaxOutputTokens = c.Scheduler.ReservoirTokens + 1 }},
		{"temperature", func(c *Config) { c.Resolver.Temperature = 3 }},
		{"negative affordances", func(c *Config) { c.Resolver.MaxAffordances = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOpenAIChat, "OPENAI_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestSettingsConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduler.MaxConcurrent = 3
	cfg.Resolver.VerifyHighlightElement = true

	if got := cfg.SchedulerSettings().MaxConcurrent; got != 3 {
		t.Errorf("SchedulerSettings().MaxConcurrent = %d, want 3", got)
	}
	opts := cfg.ResolverOptions()
	if !opts.VerifyHighlightElement || opts.Model != cfg.Model {
		t.Errorf("ResolverOptions() = %+v", opts)
	}
}

func TestValidators(t *testing.T) {
	if validatePort("8080") != nil || validatePort("0") == nil || validatePort("x") == nil {
		t.Error("validatePort misbehaves")
	}
	if validatePositive("4") != nil || validatePositive("-1") == nil {
		t.Error("validatePositive misbehaves")
	}
}
