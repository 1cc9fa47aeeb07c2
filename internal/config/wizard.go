package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to pagepilot! Let's configure your deployment.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{
			string(ProviderOpenAI),
			string(ProviderOpenAIChat),
			string(ProviderAnthropic),
			string(ProviderOllama),
		},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: DefaultModel(cfg.Provider),
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 4. Concurrency.
	concurrencyPrompt := promptui.Prompt{
		Label:    "Maximum concurrent model calls",
		Default:  strconv.Itoa(cfg.Scheduler.MaxConcurrent),
		Validate: validatePositive,
	}
	concStr, err := concurrencyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("max concurrent: %w", err)
	}
	cfg.Scheduler.MaxConcurrent, _ = strconv.Atoi(concStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running pagepilot server.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func validatePositive(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}
