// Package democmder provides the demo command that exercises cross-session
// agent memory over MCP.
package democmder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/logger"
	"github.com/caselode/caselode/pkg/utils"
)

const demoLongDesc string = `Demonstrate cross-session agent memory.

Connects to a running caselode server twice, as two fully independent MCP
sessions. The first session stores a fact with the memory_store tool and
disconnects. The second session, which shares no state with the first, recalls
the fact with the memory_find tool. Recall succeeding in the second session
shows that memory lives in the vector store, not in the session.

Examples:
  caselode demo
  caselode demo --information "the dog is called buddy" --query "what is the dog called?"`

const demoShortDesc string = "Demonstrate cross-session memory over MCP"

const (
	defaultTarget      = "http://localhost:8081/mcp"
	defaultInformation = "the dog is called buddy"
	defaultQuery       = "what is the dog called?"
)

type DemoCommander struct {
	target      string
	information string
	query       string
	debug       bool

	logger *zap.Logger
}

func NewDemoCmd() *cobra.Command {
	cmder := &DemoCommander{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: demoShortDesc,
		Long:  demoLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.target, "target", "t", defaultTarget, "MCP endpoint of a running caselode server")
	cmd.Flags().StringVarP(&cmder.information, "information", "i", defaultInformation, "Fact to store in the first session")
	cmd.Flags().StringVarP(&cmder.query, "query", "q", defaultQuery, "Query to recall with in the second session")

	return cmd
}

func (c *DemoCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	// Session 1: store the fact, then disconnect completely.
	fmt.Printf("Session 1: storing %q\n", c.information)
	stored, err := c.store(ctx)
	if err != nil {
		return fmt.Errorf("session 1: %w", err)
	}
	fmt.Printf("Session 1: stored fact %s, disconnecting\n\n", stored)

	// Session 2: a fresh connection that shares nothing with session 1.
	fmt.Printf("Session 2: asking %q\n", c.query)
	results, err := c.find(ctx)
	if err != nil {
		return fmt.Errorf("session 2: %w", err)
	}

	if len(results) == 0 {
		return fmt.Errorf("session 2: nothing recalled for %q", c.query)
	}
	for _, r := range results {
		fmt.Printf("Session 2: recalled %q (score %.4f)\n", r.Information, r.Score)
	}
	return nil
}

// connect opens a fresh MCP session against the target endpoint.
func (c *DemoCommander) connect(ctx context.Context) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "caselode-demo",
		Version: utils.Version,
	}, nil)

	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: c.target,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.target, err)
	}
	return session, nil
}

func (c *DemoCommander) store(ctx context.Context) (string, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "memory_store",
		Arguments: map[string]any{
			"information": c.information,
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling memory_store: %w", err)
	}
	if result.IsError {
		return "", fmt.Errorf("memory_store failed: %s", toolText(result))
	}

	var output struct {
		Fact struct {
			ID string `json:"id"`
		} `json:"fact"`
	}
	if err := json.Unmarshal([]byte(toolText(result)), &output); err != nil {
		return "", fmt.Errorf("decoding memory_store result: %w", err)
	}
	return output.Fact.ID, nil
}

type recalledFact struct {
	Information string  `json:"information"`
	Score       float32 `json:"score"`
}

func (c *DemoCommander) find(ctx context.Context) ([]recalledFact, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "memory_find",
		Arguments: map[string]any{
			"query": c.query,
			"top_k": 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calling memory_find: %w", err)
	}
	if result.IsError {
		return nil, fmt.Errorf("memory_find failed: %s", toolText(result))
	}

	var output struct {
		Results []recalledFact `json:"results"`
	}
	if err := json.Unmarshal([]byte(toolText(result)), &output); err != nil {
		return nil, fmt.Errorf("decoding memory_find result: %w", err)
	}
	return output.Results, nil
}

// toolText extracts the first text content block from a tool result.
func toolText(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
