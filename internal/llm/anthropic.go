package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicProvider implements Provider using the Anthropic Messages API via direct HTTP.
type AnthropicProvider struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey, model, baseURL string) *AnthropicProvider {
	url := anthropicAPIURL
	if baseURL != "" {
		url = strings.TrimRight(baseURL, "/") + "/messages"
	}
	return &AnthropicProvider{
		apiKey: apiKey,
		model:  model,
		url:    url,
		client: &http.Client{},
	}
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      anthropicUsage     `json:"usage"`
	Error      *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	// Separate system messages from user/assistant messages.
	var systemPrompt string
	var messages []anthropicMessage
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			if systemPrompt != "" {
				systemPrompt += "\n\n"
			}
			systemPrompt += msg.Content
		case RoleUser:
			messages = append(messages, anthropicMessage{Role: "user", Content: msg.Content})
		case RoleAssistant:
			messages = append(messages, anthropicMessage{Role: "assistant", Content: msg.Content})
		}
	}

	// The Messages API has no JSON mode; prefilling the assistant turn with
	// "{" keeps the reply an object.
	prefill := req.JSONMode && (len(messages) == 0 || messages[len(messages)-1].Role != "assistant")
	if prefill {
		messages = append(messages, anthropicMessage{Role: "assistant", Content: "{"})
	}

	apiReq := anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      systemPrompt,
		Messages:    messages,
	}

	var apiResp anthropicResponse
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}
	if err := postJSON(ctx, p.client, "anthropic", p.url, headers, apiReq, &apiResp); err != nil {
		return nil, err
	}

	if apiResp.Error != nil {
		if apiResp.Error.Type == "rate_limit_error" {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, apiResp.Error.Message)
		}
		return nil, fmt.Errorf("anthropic API error (%s): %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	var content strings.Builder
	if prefill {
		content.WriteString("{")
	}
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &CompletionResponse{
		ID:           apiResp.ID,
		Content:      content.String(),
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
		Model:        apiResp.Model,
		FinishReason: apiResp.StopReason,
	}, nil
}
