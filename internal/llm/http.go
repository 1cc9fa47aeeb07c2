package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// postJSON sends body as JSON to url and decodes a 2xx reply into out.
// HTTP 429 is reported as ErrRateLimited.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", provider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", provider, err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s: %s", ErrRateLimited, provider, clip(respBody))
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return &StatusError{Provider: provider, StatusCode: httpResp.StatusCode, Body: clip(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", provider, err)
	}
	return nil
}

func clip(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
