package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/memory"
)

var (
	findToolName    = "memory_find"
	findDescription = "Search long-term agent memory for stored information. Returns the facts most similar to the query, ranked by relevance. Use this to recall what the user told you in earlier sessions."
)

// FindInput represents the input arguments for the memory_find tool.
type FindInput struct {
	Query string `json:"query" jsonschema:"the search query text to find relevant facts"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of facts to return (default: 3)"`
}

// FindOutput represents the structured output of a find.
type FindOutput struct {
	Query   string          `json:"query"`
	Results []memory.Result `json:"results"`
	Count   int             `json:"count"`
}

// handleFind processes a memory search request via MCP.
func (s *Server) handleFind(ctx context.Context, _ *mcp.CallToolRequest, input FindInput) (*mcp.CallToolResult, FindOutput, error) {
	if input.Query == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "query is required"},
			},
		}, FindOutput{}, nil
	}

	s.config.Logger.Debug("MCP find request",
		zap.String("query", input.Query),
		zap.Int("topK", input.TopK),
	)

	results, err := s.config.MemoryDriver.Find(ctx, input.Query, input.TopK)
	if err != nil {
		s.config.Logger.Error("failed to search memory", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Memory search failed: %v", err)},
			},
		}, FindOutput{}, nil
	}

	if results == nil {
		results = []memory.Result{}
	}

	output := FindOutput{
		Query:   input.Query,
		Results: results,
		Count:   len(results),
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, FindOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
