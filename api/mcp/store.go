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
	storeToolName    = "memory_store"
	storeDescription = "Store a piece of information in long-term agent memory. The information persists across sessions and can later be recalled with memory_find. Use this to remember facts the user tells you."
)

// StoreInput represents the input arguments for the memory_store tool.
type StoreInput struct {
	Information string `json:"information" jsonschema:"the information to remember"`
}

// StoreOutput represents the structured output of a store.
type StoreOutput struct {
	Fact memory.Fact `json:"fact"`
}

// handleStore processes a memory store request via MCP.
func (s *Server) handleStore(ctx context.Context, _ *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, StoreOutput, error) {
	if input.Information == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "information is required"},
			},
		}, StoreOutput{}, nil
	}

	s.config.Logger.Debug("MCP store request",
		zap.Int("length", len(input.Information)),
	)

	fact, err := s.config.MemoryDriver.Store(ctx, input.Information)
	if err != nil {
		s.config.Logger.Error("failed to store fact", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Memory store failed: %v", err)},
			},
		}, StoreOutput{}, nil
	}

	output := StoreOutput{Fact: fact}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize result: %v", err)},
			},
		}, StoreOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
