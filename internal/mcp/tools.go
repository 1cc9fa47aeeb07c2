package mcp

import "github.com/mark3labs/mcp-go/mcp"

const (
	conversationIDDesc = "Conversation that owns this turn (from start_conversation)"
	responseIDDesc     = "responseId returned by the previous call, to continue the model's chain"
)

// startConversationTool defines the start_conversation MCP tool.
var startConversationTool = mcp.NewTool("start_conversation",
	mcp.WithDescription("Start (or reuse) a conversation. Every other tool records its turn against a conversation id."),
	mcp.WithString("id",
		mcp.Description("Conversation id to create; a new one is generated when omitted"),
	),
)

// navigatePageTool defines the navigate_page MCP tool.
var navigatePageTool = mcp.NewTool("navigate_page",
	mcp.WithDescription("Pick the page URL that best answers the visitor's request from the links on the current page."),
	mcp.WithString("conversationId", mcp.Required(), mcp.Description(conversationIDDesc)),
	mcp.WithString("responseId", mcp.Description(responseIDDesc)),
	mcp.WithString("question", mcp.Required(), mcp.Description("What the visitor asked")),
	mcp.WithString("answer", mcp.Required(), mcp.Description("What the assistant already said")),
	mcp.WithArray("links",
		mcp.Required(),
		mcp.Description("Candidate URLs found on the page"),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

// clickButtonTool defines the click_button MCP tool.
var clickButtonTool = mcp.NewTool("click_button",
	mcp.WithDescription("Pick the button to click for the visitor's request."),
	mcp.WithString("conversationId", mcp.Required(), mcp.Description(conversationIDDesc)),
	mcp.WithString("responseId", mcp.Description(responseIDDesc)),
	mcp.WithString("question", mcp.Required(), mcp.Description("What the visitor asked")),
	mcp.WithString("answer", mcp.Required(), mcp.Description("What the assistant already said")),
	mcp.WithArray("buttonData",
		mcp.Required(),
		mcp.Description("Clickable elements on the page"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
				"id":   map[string]any{"type": "string"},
			},
			"required": []string{"text", "id"},
		}),
	),
)

// highlightTextTool defines the highlight_text MCP tool.
var highlightTextTool = mcp.NewTool("highlight_text",
	mcp.WithDescription("Pick a verbatim passage of the page to highlight for the visitor."),
	mcp.WithString("conversationId", mcp.Required(), mcp.Description(conversationIDDesc)),
	mcp.WithString("responseId", mcp.Description(responseIDDesc)),
	mcp.WithString("question", mcp.Required(), mcp.Description("What the visitor asked")),
	mcp.WithString("answer", mcp.Required(), mcp.Description("What the assistant already said")),
	mcp.WithString("pageText", mcp.Required(), mcp.Description("Page markup or visible text")),
)

// analyzePageTool defines the analyze_page MCP tool.
var analyzePageTool = mcp.NewTool("analyze_page",
	mcp.WithDescription("Answer a research question from one page's content and report whether the answer was found."),
	mcp.WithString("conversationId", mcp.Required(), mcp.Description(conversationIDDesc)),
	mcp.WithString("responseId", mcp.Description(responseIDDesc)),
	mcp.WithString("question", mcp.Required(), mcp.Description("The research question")),
	mcp.WithString("context", mcp.Description("Findings gathered so far")),
	mcp.WithString("pageData", mcp.Required(), mcp.Description("Content of the page being analyzed")),
)

// organizeLinksTool defines the organize_links MCP tool.
var organizeLinksTool = mcp.NewTool("organize_links",
	mcp.WithDescription("Rank candidate pages by how likely they are to answer a research question."),
	mcp.WithString("conversationId", mcp.Required(), mcp.Description(conversationIDDesc)),
	mcp.WithString("responseId", mcp.Description(responseIDDesc)),
	mcp.WithString("question", mcp.Required(), mcp.Description("The research question")),
	mcp.WithString("context", mcp.Description("Findings gathered so far")),
	mcp.WithArray("links",
		mcp.Required(),
		mcp.Description("Candidate pages"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":         map[string]any{"type": "string"},
				"title":       map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
			},
			"required": []string{"url"},
		}),
	),
)
