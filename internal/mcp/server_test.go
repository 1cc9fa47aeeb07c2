package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/pagepilot/internal/db"
	"github.com/ziadkadry99/pagepilot/internal/ledger"
	"github.com/ziadkadry99/pagepilot/internal/llm"
	"github.com/ziadkadry99/pagepilot/internal/resolver"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	content string
	err     error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{ID: "resp_mock", Content: m.content}, nil
}

func newTestServer(t *testing.T, p llm.Provider) (*Server, *ledger.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := ledger.NewStore(database)
	res := resolver.New(p, store, resolver.DefaultOptions(), nil)
	return NewServer(res, store), store
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"start_conversation", startConversationTool, "start_conversation"},
		{"navigate_page", navigatePageTool, "navigate_page"},
		{"click_button", clickButtonTool, "click_button"},
		{"highlight_text", highlightTextTool, "highlight_text"},
		{"analyze_page", analyzePageTool, "analyze_page"},
		{"organize_links", organizeLinksTool, "organize_links"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv, store := newTestServer(t, &mockProvider{})

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.ledger != store {
		t.Error("ledger not set correctly")
	}
}

func TestHandleStartConversation(t *testing.T) {
	srv, store := newTestServer(t, &mockProvider{})
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"id": "tab-7"}

	result, err := srv.handleStartConversation(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	var conv ledger.Conversation
	if err := json.Unmarshal([]byte(resultText(t, result)), &conv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if conv.ID != "tab-7" {
		t.Errorf("id = %q, want tab-7", conv.ID)
	}
	if _, err := store.Conversation(ctx, "tab-7"); err != nil {
		t.Errorf("conversation not stored: %v", err)
	}
}

func TestHandleClickButton(t *testing.T) {
	srv, store := newTestServer(t, &mockProvider{
		content: `{"answer":"Adding it now.","actionType":"click","buttonText":"Add to cart","buttonId":"add"}`,
	})
	ctx := context.Background()
	if _, err := store.CreateConversation(ctx, "c1"); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"conversationId": "c1",
		"question":       "add this to my cart",
		"answer":         "Sure.",
		"buttonData": []any{
			map[string]any{"text": "Add to cart", "id": "add"},
			map[string]any{"text": "Wishlist", "id": "wish"},
		},
	}

	result, err := srv.intentHandler(resolver.IntentClick)(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	var out resolver.ClickResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ButtonID != "add" {
		t.Errorf("buttonId = %q, want add", out.ButtonID)
	}
	if out.ResponseID != "resp_mock" {
		t.Errorf("responseId = %q, want resp_mock", out.ResponseID)
	}

	turns, err := store.Turns(ctx, "c1", 0)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 1 {
		t.Errorf("turns = %d, want 1", len(turns))
	}
}

func TestIntentHandlerErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing field", func(t *testing.T) {
		srv, _ := newTestServer(t, &mockProvider{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"conversationId": "c1"}

		result, err := srv.intentHandler(resolver.IntentAnalyze)(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Fatal("expected tool error for missing question")
		}
		if got := resultText(t, result); got == "" {
			t.Error("expected an error message")
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		srv, store := newTestServer(t, &mockProvider{err: llm.ErrRateLimited})
		if _, err := store.CreateConversation(ctx, "c1"); err != nil {
			t.Fatalf("CreateConversation: %v", err)
		}
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"conversationId": "c1",
			"question":       "where is pricing",
			"answer":         "Let me look.",
			"links":          []any{"/pricing"},
		}

		result, err := srv.intentHandler(resolver.IntentNavigate)(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Fatal("expected tool error")
		}
		_, want := resolver.Classify(llm.ErrRateLimited)
		if got := resultText(t, result); got != want.Message {
			t.Errorf("message = %q, want %q", got, want.Message)
		}
	})
}
