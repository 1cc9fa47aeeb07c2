package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a provider for the given type and model. baseURL is
// optional and overrides the provider's default endpoint.
// Supported provider types: "openai", "openai-chat", "anthropic", "ollama".
func NewProvider(providerType, model, baseURL string) (Provider, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewResponsesProvider(apiKey, model, baseURL), nil

	case "openai-chat":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model, baseURL), nil

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, model, baseURL), nil

	case "ollama":
		host := baseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = DefaultOllamaHost
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
