package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ziadkadry99/pagepilot/internal/config"
	"github.com/ziadkadry99/pagepilot/internal/db"
	"github.com/ziadkadry99/pagepilot/internal/ledger"
	"github.com/ziadkadry99/pagepilot/internal/llm"
	"github.com/ziadkadry99/pagepilot/internal/resolver"
	"github.com/ziadkadry99/pagepilot/internal/scheduler"
)

// app holds the components shared by server, mcp and resolve.
type app struct {
	db       *db.DB
	ledger   *ledger.Store
	sched    *scheduler.Scheduler
	resolver *resolver.Resolver
}

// Close stops the scheduler and closes the database.
func (a *app) Close() error {
	a.sched.Close()
	return a.db.Close()
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(string(cfg.Provider), cfg.Model, cfg.BaseURL)
}

// buildApp validates cfg and wires database, ledger, scheduler, provider and
// resolver together. The caller must Close the result.
func buildApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := ledger.NewStore(database)
	sched := scheduler.New(cfg.SchedulerSettings(), logger)
	res := resolver.New(llm.NewScheduledProvider(provider, sched), store, cfg.ResolverOptions(), logger)

	return &app{db: database, ledger: store, sched: sched, resolver: res}, nil
}

// readPayload reads a JSON request body from path, or stdin when path is
// empty or "-".
func readPayload(path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	if !json.Valid(data) {
		return nil, errors.New("request is not valid JSON")
	}
	return data, nil
}

// parseIntentArg resolves a CLI intent argument.
func parseIntentArg(name string) (resolver.Intent, error) {
	intent, ok := resolver.ParseIntent(name)
	if !ok {
		return "", fmt.Errorf("unknown intent %q: must be one of navigate, click, highlight, analyze, organize", name)
	}
	return intent, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ensureConversation creates the conversation named in payload so one-shot
// CLI calls work without a prior POST /api/conversations.
func ensureConversation(ctx context.Context, store *ledger.Store, payload json.RawMessage) error {
	var head struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(payload, &head); err != nil || head.ConversationID == "" {
		return nil
	}
	_, err := store.CreateConversation(ctx, head.ConversationID)
	return err
}
