package llm

import "unicode/utf8"

// modelPricing holds per-model pricing in USD per 1M tokens.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// priceTable maps model identifiers to their pricing.
var priceTable = map[string]modelPricing{
	// OpenAI models
	"gpt-4.1":      {InputPerMillion: 2.00, OutputPerMillion: 8.00},
	"gpt-4.1-mini": {InputPerMillion: 0.40, OutputPerMillion: 1.60},
	"gpt-4o":       {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":  {InputPerMillion: 0.15, OutputPerMillion: 0.60},

	// Anthropic models
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
}

// EstimateCost returns the estimated cost in USD for the given model and token counts.
// Returns 0 if the model is not found in the price table.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := priceTable[model]
	if !ok {
		return 0
	}

	inputCost := float64(inputTokens) / 1_000_000.0 * pricing.InputPerMillion
	outputCost := float64(outputTokens) / 1_000_000.0 * pricing.OutputPerMillion
	return inputCost + outputCost
}

// charsPerToken is the rough number of characters in one token.
const charsPerToken = 4

// EstimateTokens provides a rough token count estimation for the given text.
// Uses the approximation of 1 token per 4 characters.
func EstimateTokens(text string) int {
	return tokensForChars(utf8.RuneCountInString(text))
}

// EstimateRequestTokens estimates the total token weight of a request: the
// character count of all messages divided once, plus the full output budget.
func EstimateRequestTokens(req CompletionRequest) int {
	chars := 0
	for _, msg := range req.Messages {
		chars += utf8.RuneCountInString(msg.Content)
	}
	return req.MaxTokens + tokensForChars(chars)
}

func tokensForChars(chars int) int {
	n := chars / charsPerToken
	if n == 0 && chars > 0 {
		return 1
	}
	return n
}
