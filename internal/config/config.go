package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAGEPILOT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A double underscore separates nested keys:
// PAGEPILOT_SCHEDULER__MAX_CONCURRENT sets scheduler.max_concurrent.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps PAGEPILOT_SERVER__PORT to server.port.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI:     true,
	ProviderOpenAIChat: true,
	ProviderAnthropic:  true,
	ProviderOllama:     true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of openai, openai-chat, anthropic, ollama", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	s := c.Scheduler
	if s.ReservoirTokens <= 0 {
		return fmt.Errorf("scheduler.reservoir_tokens must be positive")
	}
	if s.RefillInterval <= 0 {
		return fmt.Errorf("scheduler.refill_interval must be positive")
	}
	if s.MaxConcurrent <= 0 {
		return fmt.Errorf("scheduler.max_concurrent must be positive")
	}
	if s.MinSpacing < 0 {
		return fmt.Errorf("scheduler.min_spacing must be non-negative")
	}
	if s.CallTimeout < 0 {
		return fmt.Errorf("scheduler.call_timeout must be non-negative")
	}

	r := c.Resolver
	if r.MaxOutputTokens <= 0 {
		return fmt.Errorf("resolver.max_output_tokens must be positive")
	}
	if r.MaxOutputTokens > s.ReservoirTokens {
		return fmt.Errorf("resolver.max_output_tokens (%d) exceeds scheduler.reservoir_tokens (%d)", r.MaxOutputTokens, s.ReservoirTokens)
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return fmt.Errorf("resolver.temperature must be between 0 and 2")
	}
	if r.MaxContextChars < 0 || r.MaxAffordances < 0 {
		return fmt.Errorf("resolver limits must be non-negative")
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI, ProviderOpenAIChat:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}
