package kb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"neuroseven/app/config"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tmc/langchaingo/tools"
)

// Retriever exposes an external MCP retrieval server as a search tool. The
// embedding/vector-store side lives entirely behind the server; from here it
// is an opaque "query in, context out" collaborator.
type Retriever struct {
	client client.MCPClient
	tool   mcp.Tool
}

var _ tools.Tool = (*Retriever)(nil)

// NewRetriever starts the configured MCP server and binds its first
// advertised tool. Returns nil without error when no server is configured.
func NewRetriever(cfg config.MCPServer) (*Retriever, error) {
	if cfg.Command == "" {
		return nil, nil
	}

	mcpClient, err := client.NewStdioMCPClient(cfg.Command, nil, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "neuroseven-kb",
		Version: "1.0.0",
	}

	if _, err = mcpClient.Initialize(ctx, initRequest); err != nil {
		return nil, fmt.Errorf("failed to initialize MCP client: %w", err)
	}

	toolsResponse, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list MCP tools: %w", err)
	}
	if len(toolsResponse.Tools) == 0 {
		return nil, fmt.Errorf("MCP server advertises no tools")
	}

	return &Retriever{
		client: mcpClient,
		tool:   toolsResponse.Tools[0],
	}, nil
}

func (r *Retriever) Name() string {
	return "search_kb"
}

func (r *Retriever) Description() string {
	return "Ищет в базе знаний контекст по запросу. " +
		"Вход: текст запроса. Выход: найденные фрагменты базы знаний."
}

func (r *Retriever) Call(ctx context.Context, input string) (string, error) {
	callRequest := mcp.CallToolRequest{
		Request: mcp.Request{
			Method: "tools/call",
		},
	}
	callRequest.Params.Name = r.tool.Name

	args := map[string]interface{}{"query": input}
	if len(r.tool.InputSchema.Properties) > 0 {
		if _, ok := r.tool.InputSchema.Properties["query"]; !ok {
			for propName := range r.tool.InputSchema.Properties {
				args = map[string]interface{}{propName: input}
				break
			}
		}
	}
	callRequest.Params.Arguments = args

	response, err := r.client.CallTool(ctx, callRequest)
	if err != nil {
		return "", fmt.Errorf("MCP tool call failed: %w", err)
	}

	var result strings.Builder
	for _, content := range response.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			result.WriteString(textContent.Text)
			result.WriteString("\n")
		}
	}

	if result.Len() == 0 {
		return "No matching information found.", nil
	}
	return strings.TrimSpace(result.String()), nil
}

func (r *Retriever) Close() error {
	return r.client.Close()
}
