package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sayeesx/folio/internal/intent"
	"github.com/sayeesx/folio/internal/profile"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Profiles  ProfileProvider
	Responder Responder
	Topics    []intent.Topic
	Version   string
}

// NewMCPServer creates an MCP server exposing the portfolio assistant.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"folio",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("folio answers questions about a portfolio owner: education, skills, projects, background and contact links."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Ask the portfolio assistant a question and get its reply, category and suggested page."),
			mcp.WithString("message", mcp.Description("The visitor's question"), mcp.Required()),
		),
		mcpAsk(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"portfolio://profile",
			"Portfolio Profile",
			mcp.WithResourceDescription("The portfolio owner's profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"portfolio://topics",
			"Conversation Topics",
			mcp.WithResourceDescription("Topics the assistant recognises, in match order, with their keywords"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceTopics(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"portfolio://summary",
			"Profile Summary",
			mcp.WithResourceDescription("One-paragraph summary of the portfolio owner"),
			mcp.WithMIMEType("text/plain"),
		),
		mcpResourceSummary(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil || strings.TrimSpace(message) == "" {
			return mcpError("message is required"), nil
		}

		reply := deps.Responder.Respond(ctx, strings.TrimSpace(message))

		b, err := json.Marshal(reply)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal reply: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := deps.Profiles.GetProfile()
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

type topicInfo struct {
	Key      string   `json:"key"`
	Keywords []string `json:"keywords"`
}

func mcpResourceTopics(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		topics := make([]topicInfo, len(deps.Topics))
		for i, t := range deps.Topics {
			topics[i] = topicInfo{Key: t.Key, Keywords: t.Keywords}
		}

		b, err := json.Marshal(topics)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal topics: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceSummary(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := deps.Profiles.GetProfile()
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     profile.Summarize(p),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
