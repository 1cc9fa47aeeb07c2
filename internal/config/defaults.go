package config

import (
	"time"

	"github.com/ziadkadry99/pagepilot/internal/resolver"
	"github.com/ziadkadry99/pagepilot/internal/scheduler"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".pagepilot.yml"

// defaultModels maps each provider to the model used when none is chosen.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI:     "gpt-4.1-mini",
	ProviderOpenAIChat: "gpt-4.1-mini",
	ProviderAnthropic:  "claude-haiku-4-5-20251001",
	ProviderOllama:     "llama3",
}

// DefaultModel returns the default model for a provider.
func DefaultModel(p ProviderType) string {
	return defaultModels[p]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	sched := scheduler.DefaultConfig()
	res := resolver.DefaultOptions()
	return &Config{
		Provider: ProviderOpenAI,
		Model:    defaultModels[ProviderOpenAI],
		Server: ServerConfig{
			Port:           8080,
			RequestTimeout: 90 * time.Second,
		},
		Database: DatabaseConfig{
			Path: ".pagepilot/pagepilot.db",
		},
		Scheduler: SchedulerConfig{
			ReservoirTokens: sched.Reservoir,
			RefillInterval:  sched.RefillInterval,
			MaxConcurrent:   sched.MaxConcurrent,
			MinSpacing:      sched.MinSpacing,
			CallTimeout:     sched.CallTimeout,
		},
		Resolver: ResolverConfig{
			MaxOutputTokens: res.MaxOutputTokens,
			Temperature:     res.Temperature,
			ChainPrefix:     res.ChainPrefix,
			MaxContextChars: res.MaxContextChars,
			MaxAffordances:  res.MaxAffordances,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SchedulerSettings converts the scheduler section.
func (c *Config) SchedulerSettings() scheduler.Config {
	return scheduler.Config{
		Reservoir:      c.Scheduler.ReservoirTokens,
		RefillInterval: c.Scheduler.RefillInterval,
		MaxConcurrent:  c.Scheduler.MaxConcurrent,
		MinSpacing:     c.Scheduler.MinSpacing,
		CallTimeout:    c.Scheduler.CallTimeout,
	}
}

// ResolverOptions converts the resolver section.
func (c *Config) ResolverOptions() resolver.Options {
	return resolver.Options{
		Model:                  c.Model,
		MaxOutputTokens:        c.Resolver.MaxOutputTokens,
		Temperature:            c.Resolver.Temperature,
		ChainPrefix:            c.Resolver.ChainPrefix,
		MaxContextChars:        c.Resolver.MaxContextChars,
		MaxAffordances:         c.Resolver.MaxAffordances,
		VerifyHighlightElement: c.Resolver.VerifyHighlightElement,
	}
}
