package llm

import (
	"context"
	"errors"
)

// ErrRateLimited marks a request the provider rejected for exceeding its
// rate or quota limits. Callers surface it; nothing in pagepilot retries it.
var ErrRateLimited = errors.New("llm: rate limited")

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
