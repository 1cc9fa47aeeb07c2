package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const openAIResponsesURL = "https://api.openai.com/v1/responses"

// ResponseIDPrefix is the prefix of every identifier issued by the
// Responses API.
const ResponseIDPrefix = "resp_"

// ResponsesProvider implements Provider using the OpenAI Responses API via
// direct HTTP. It is the only provider that continues server-side chains
// through PreviousResponseID.
type ResponsesProvider struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

// NewResponsesProvider creates a Responses API provider. An empty baseURL
// selects the public OpenAI endpoint.
func NewResponsesProvider(apiKey, model, baseURL string) *ResponsesProvider {
	url := openAIResponsesURL
	if baseURL != "" {
		url = strings.TrimRight(baseURL, "/") + "/responses"
	}
	return &ResponsesProvider{
		apiKey: apiKey,
		model:  model,
		url:    url,
		client: &http.Client{},
	}
}

func (p *ResponsesProvider) Name() string {
	return "openai"
}

type responsesRequest struct {
	Model              string           `json:"model"`
	Instructions       string           `json:"instructions,omitempty"`
	Input              []responsesInput `json:"input"`
	MaxOutputTokens    int              `json:"max_output_tokens,omitempty"`
	Temperature        float64          `json:"temperature,omitempty"`
	PreviousResponseID string           `json:"previous_response_id,omitempty"`
	Text               *responsesText   `json:"text,omitempty"`
	Store              bool             `json:"store"`
}

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesText struct {
	Format responsesFormat `json:"format"`
}

type responsesFormat struct {
	Type string `json:"type"`
}

type responsesResponse struct {
	ID                string            `json:"id"`
	Model             string            `json:"model"`
	Status            string            `json:"status"`
	Output            []responsesOutput `json:"output"`
	Usage             responsesUsage    `json:"usage"`
	Error             *responsesError   `json:"error"`
	IncompleteDetails *struct {
		Reason string `json:"reason"`
	} `json:"incomplete_details"`
}

type responsesOutput struct {
	Type    string `json:"type"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type responsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type responsesError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (p *ResponsesProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	apiReq := responsesRequest{
		Model:              model,
		MaxOutputTokens:    req.MaxTokens,
		Temperature:        req.Temperature,
		PreviousResponseID: req.PreviousResponseID,
		Store:              true,
	}
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			if apiReq.Instructions != "" {
				apiReq.Instructions += "\n\n"
			}
			apiReq.Instructions += msg.Content
			continue
		}
		apiReq.Input = append(apiReq.Input, responsesInput{Role: string(msg.Role), Content: msg.Content})
	}
	if req.JSONMode {
		apiReq.Text = &responsesText{Format: responsesFormat{Type: "json_object"}}
	}

	var apiResp responsesResponse
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := postJSON(ctx, p.client, "openai", p.url, headers, apiReq, &apiResp); err != nil {
		return nil, err
	}

	if apiResp.Error != nil {
		if apiResp.Error.Code == "rate_limit_exceeded" {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, apiResp.Error.Message)
		}
		return nil, fmt.Errorf("openai API error (%s): %s", apiResp.Error.Code, apiResp.Error.Message)
	}

	var content strings.Builder
	for _, out := range apiResp.Output {
		if out.Type != "message" {
			continue
		}
		for _, c := range out.Content {
			if c.Type == "output_text" {
				content.WriteString(c.Text)
			}
		}
	}

	finish := apiResp.Status
	if apiResp.IncompleteDetails != nil && apiResp.IncompleteDetails.Reason != "" {
		finish = apiResp.IncompleteDetails.Reason
	}

	return &CompletionResponse{
		ID:           apiResp.ID,
		Content:      content.String(),
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
		Model:        apiResp.Model,
		FinishReason: finish,
	}, nil
}
