package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	// ProviderOpenAI uses the Responses API, which supports response chaining.
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenAIChat ProviderType = "openai-chat"
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOllama     ProviderType = "ollama"
)

// Config is the top-level pagepilot configuration, corresponding to .pagepilot.yml.
type Config struct {
	Provider  ProviderType    `yaml:"provider" koanf:"provider"`
	Model     string          `yaml:"model" koanf:"model"`
	BaseURL   string          `yaml:"base_url,omitempty" koanf:"base_url"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	Database  DatabaseConfig  `yaml:"database" koanf:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler" koanf:"scheduler"`
	Resolver  ResolverConfig  `yaml:"resolver" koanf:"resolver"`
	Logging   LoggingConfig   `yaml:"logging" koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" koanf:"port"`
	AllowAllOrigins bool          `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	RequestTimeout  time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
}

// DatabaseConfig holds the ledger database location.
type DatabaseConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

// SchedulerConfig holds the admission limits for model calls.
type SchedulerConfig struct {
	ReservoirTokens int           `yaml:"reservoir_tokens" koanf:"reservoir_tokens"`
	RefillInterval  time.Duration `yaml:"refill_interval" koanf:"refill_interval"`
	MaxConcurrent   int           `yaml:"max_concurrent" koanf:"max_concurrent"`
	MinSpacing      time.Duration `yaml:"min_spacing" koanf:"min_spacing"`
	CallTimeout     time.Duration `yaml:"call_timeout" koanf:"call_timeout"`
}

// ResolverConfig tunes model requests and payload bounds.
type ResolverConfig struct {
	MaxOutputTokens        int     `yaml:"max_output_tokens" koanf:"max_output_tokens"`
	Temperature            float64 `yaml:"temperature" koanf:"temperature"`
	ChainPrefix            string  `yaml:"chain_prefix" koanf:"chain_prefix"`
	MaxContextChars        int     `yaml:"max_context_chars" koanf:"max_context_chars"`
	MaxAffordances         int     `yaml:"max_affordances" koanf:"max_affordances"`
	VerifyHighlightElement bool    `yaml:"verify_highlight_element" koanf:"verify_highlight_element"`
}

// LoggingConfig controls log level and the optional JSON log file.
type LoggingConfig struct {
	Level string `yaml:"level" koanf:"level"`
	File  string `yaml:"file,omitempty" koanf:"file"`
}
