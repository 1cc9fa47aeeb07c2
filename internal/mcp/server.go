package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/pagepilot/internal/ledger"
	"github.com/ziadkadry99/pagepilot/internal/resolver"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the page assistant intents as tools.
type Server struct {
	resolver *resolver.Resolver
	ledger   *ledger.Store
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(res *resolver.Resolver, store *ledger.Store) *Server {
	s := &Server{
		resolver: res,
		ledger:   store,
	}

	s.mcp = server.NewMCPServer(
		"pagepilot",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(startConversationTool, s.handleStartConversation)
	s.mcp.AddTool(navigatePageTool, s.intentHandler(resolver.IntentNavigate))
	s.mcp.AddTool(clickButtonTool, s.intentHandler(resolver.IntentClick))
	s.mcp.AddTool(highlightTextTool, s.intentHandler(resolver.IntentHighlight))
	s.mcp.AddTool(analyzePageTool, s.intentHandler(resolver.IntentAnalyze))
	s.mcp.AddTool(organizeLinksTool, s.intentHandler(resolver.IntentOrganize))
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
