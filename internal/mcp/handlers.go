package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/pagepilot/internal/resolver"
)

// handleStartConversation creates a conversation, or confirms an existing one.
func (s *Server) handleStartConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conv, err := s.ledger.CreateConversation(ctx, request.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start conversation: %v", err)), nil
	}
	return jsonResult(conv)
}

// intentHandler forwards the tool arguments to the resolver as the intent's
// request body. Failures become tool errors carrying the spoken-safe message.
func (s *Server) intentHandler(intent resolver.Intent) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		out, err := s.resolver.Dispatch(ctx, intent, payload)
		if err != nil {
			_, body := resolver.Classify(err)
			if body.Field != "" {
				return mcp.NewToolResultError(fmt.Sprintf("%s: %s", body.Field, body.Message)), nil
			}
			return mcp.NewToolResultError(body.Message), nil
		}
		return jsonResult(out)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
