package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/pagepilot/internal/llm"
	"github.com/ziadkadry99/pagepilot/internal/scheduler"
)

// maxBodyBytes bounds request bodies; page text is the largest field.
const maxBodyBytes = 4 << 20

// Spoken-safe failure messages.
const (
	msgRateLimited = "I am getting a lot of requests right now. Please try again in a moment."
	msgTimeout     = "That took too long. Please try again."
	msgUpstream    = "Something went wrong on my side. Please try again."
)

// ErrorBody is the JSON shape of every failed resolution.
type ErrorBody struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Classify maps a resolution error to an HTTP status and a body that is safe
// to read aloud.
func Classify(err error) (int, ErrorBody) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrorBody{Error: "validation", Field: ve.Field, Message: ve.Message}
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorBody{Error: "rate_limited", Message: msgRateLimited}
	case errors.Is(err, scheduler.ErrCallTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorBody{Error: "timeout", Message: msgTimeout}
	default:
		return http.StatusBadGateway, ErrorBody{Error: "upstream", Message: msgUpstream}
	}
}

// RegisterRoutes mounts the action and research endpoints.
func RegisterRoutes(r chi.Router, res *Resolver) {
	r.Route("/api/actions", func(r chi.Router) {
		r.Post("/navigate", handleIntent(res, IntentNavigate))
		r.Post("/click", handleIntent(res, IntentClick))
		r.Post("/highlight", handleIntent(res, IntentHighlight))
	})
	r.Route("/api/research", func(r chi.Router) {
		r.Post("/analyze", handleIntent(res, IntentAnalyze))
		r.Post("/organize", handleIntent(res, IntentOrganize))
	})
}

// RegisterLive mounts the WebSocket endpoint. It is kept apart from
// RegisterRoutes so request timeouts never apply to long-lived sockets.
func RegisterLive(r chi.Router, res *Resolver) {
	r.Get("/api/live", res.handleLive)
}

func handleIntent(res *Resolver, intent Intent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "validation", Message: "request body is too large or unreadable"})
			return
		}

		out, err := res.Dispatch(r.Context(), intent, body)
		if err != nil {
			status, eb := Classify(err)
			if status != http.StatusBadRequest {
				res.logger.Error("resolution failed", "intent", intent, "error", err)
			}
			// The router's request timeout answers 504 itself once its
			// deadline has passed.
			if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
				return
			}
			writeJSON(w, status, eb)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
