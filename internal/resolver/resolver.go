// Package resolver turns a visitor question plus the page's affordances into
// one validated action. Every intent runs the same flow: validate the
// request, record conversation stats, call the model, parse and accept its
// output or fall back, then append a turn to the ledger.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ziadkadry99/pagepilot/internal/ledger"
	"github.com/ziadkadry99/pagepilot/internal/llm"
)

// LocalResponsePrefix marks response ids minted here when the provider
// issued none. The chain rule never forwards them.
const LocalResponsePrefix = "local_"

// Ledger is the write side of the conversation ledger.
type Ledger interface {
	RecordStats(ctx context.Context, conversationID string) error
	AppendTurn(ctx context.Context, turn ledger.Turn) (string, error)
}

// Options tunes model calls and payload bounds.
type Options struct {
	Model           string
	MaxOutputTokens int
	Temperature     float64
	ChainPrefix     string
	// MaxContextChars bounds page text and research context in the payload.
	MaxContextChars int
	// MaxAffordances caps how many links or buttons are sent to the model.
	MaxAffordances int
	// VerifyHighlightElement rejects highlight words that do not sit inside
	// a single element of the page markup.
	VerifyHighlightElement bool
}

// DefaultOptions returns the defaults used when no config overrides them.
func DefaultOptions() Options {
	return Options{
		MaxOutputTokens: 512,
		Temperature:     0.2,
		ChainPrefix:     DefaultChainPrefix,
		MaxContextChars: 12_000,
		MaxAffordances:  100,
	}
}

// Resolver resolves intents against a model provider.
type Resolver struct {
	provider llm.Provider
	ledger   Ledger
	chain    ChainRule
	opts     Options
	logger   *slog.Logger
}

// New creates a Resolver. provider is normally an llm.ScheduledProvider so
// every call is admitted by the shared scheduler.
func New(provider llm.Provider, store Ledger, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultOptions().MaxOutputTokens
	}
	return &Resolver{
		provider: provider,
		ledger:   store,
		chain:    ChainRule{Prefix: opts.ChainPrefix},
		opts:     opts,
		logger:   logger,
	}
}

// call describes one model round trip for execute.
type call struct {
	intent         Intent
	conversationID string
	priorID        string
	prompt         string
}

// request builds the completion request sent for c.
func (r *Resolver) request(c call) llm.CompletionRequest {
	prev := r.chain.Forward(c.priorID)
	if prev == "" && c.priorID != "" {
		r.logger.Debug("dropping foreign response id", "intent", c.intent, "response_id", c.priorID)
	}
	return llm.CompletionRequest{
		Model: r.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt(c.intent)},
			{Role: llm.RoleUser, Content: c.prompt},
		},
		MaxTokens:          r.opts.MaxOutputTokens,
		Temperature:        r.opts.Temperature,
		JSONMode:           true,
		PreviousResponseID: prev,
	}
}

// execute records stats, calls the model and hands its raw text to accept.
// It returns the outcome and the response id to hand back to the caller.
func execute[T any](ctx context.Context, r *Resolver, c call, accept func(raw string) Outcome[T]) (Outcome[T], string, error) {
	if err := r.ledger.RecordStats(ctx, c.conversationID); err != nil {
		r.logger.Warn("recording conversation stats failed",
			"intent", c.intent, "conversation_id", c.conversationID, "error", err)
	}

	resp, err := r.provider.Complete(ctx, r.request(c))
	if err != nil {
		return Outcome[T]{}, "", &CallError{Intent: c.intent, Err: err}
	}

	out := accept(resp.Content)
	if out.Fallback {
		r.logger.Warn("model output rejected, using fallback",
			"intent", c.intent, "conversation_id", c.conversationID, "error", out.Cause)
	}

	id := resp.ID
	if id == "" {
		id = LocalResponsePrefix + uuid.New().String()
	}
	return out, id, nil
}

// persist appends a turn. Failures are logged and never reach the caller;
// the write also outlives a caller that has already gone away.
func (r *Resolver) persist(ctx context.Context, turn ledger.Turn) {
	if _, err := r.ledger.AppendTurn(context.WithoutCancel(ctx), turn); err != nil {
		r.logger.Warn("appending turn failed",
			"kind", turn.Kind, "conversation_id", turn.ConversationID, "error", err)
	}
}

// Dispatch decodes a JSON request for intent and resolves it. Malformed JSON
// is reported as a ValidationError.
func (r *Resolver) Dispatch(ctx context.Context, intent Intent, payload json.RawMessage) (any, error) {
	switch intent {
	case IntentNavigate:
		return dispatch(ctx, payload, r.Navigate)
	case IntentClick:
		return dispatch(ctx, payload, r.Click)
	case IntentHighlight:
		return dispatch(ctx, payload, r.Highlight)
	case IntentAnalyze:
		return dispatch(ctx, payload, r.Analyze)
	case IntentOrganize:
		return dispatch(ctx, payload, r.Organize)
	}
	return nil, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown intent %q", intent)}
}

func dispatch[Req, Res any](ctx context.Context, payload json.RawMessage, fn func(context.Context, Req) (*Res, error)) (any, error) {
	var req Req
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, &ValidationError{Message: "request body is not valid JSON: " + err.Error()}
	}
	res, err := fn(ctx, req)
	if err != nil {
		return nil, err
	}
	return res, nil
}
