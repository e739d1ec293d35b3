package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
)

// MCPClient implements contract.ToolGateway over an MCP session.
type MCPClient struct {
	c         *client.Client
	closeOnce sync.Once
}

// NewStdioMCPClient spawns command as a tool server and talks MCP over its
// stdio.
func NewStdioMCPClient(ctx context.Context, command string, env []string, args ...string) (*MCPClient, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("tool server command is required")
	}
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("start tool server %q: %w", command, err)
	}
	return initialize(ctx, c)
}

// NewInProcessMCPClient connects to srv without leaving the process.
func NewInProcessMCPClient(ctx context.Context, srv *server.MCPServer) (*MCPClient, error) {
	if srv == nil {
		return nil, errors.New("mcp server is required")
	}
	c, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("create in-process mcp client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start in-process mcp client: %w", err)
	}
	return initialize(ctx, c)
}

func initialize(ctx context.Context, c *client.Client) (*MCPClient, error) {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "chative-retail-assistant",
		Version: "1.0.0",
	}
	res, err := c.Initialize(ctx, req)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}
	log.Info().
		Str("server", res.ServerInfo.Name).
		Str("protocol", res.ProtocolVersion).
		Msg("tool gateway connected")
	return &MCPClient{c: c}, nil
}

func (m *MCPClient) Call(ctx context.Context, name contractx.ToolName, args map[string]any) (json.RawMessage, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = string(name)
	req.Params.Arguments = args

	res, err := m.c.CallTool(ctx, req)
	if err != nil {
		return nil, &contractx.ToolError{Tool: name, Message: err.Error(), Err: err}
	}

	text := resultText(res)
	if res.IsError {
		return nil, &contractx.ToolError{Tool: name, Message: strings.TrimPrefix(text, "Error: ")}
	}
	if !json.Valid([]byte(text)) {
		return nil, &contractx.ToolError{Tool: name, Message: "tool returned non-JSON content"}
	}
	return json.RawMessage(text), nil
}

// ListTools returns the names advertised by the server.
func (m *MCPClient) ListTools(ctx context.Context) ([]string, error) {
	res, err := m.c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	names := make([]string, 0, len(res.Tools))
	for _, t := range res.Tools {
		names = append(names, t.Name)
	}
	return names, nil
}

func (m *MCPClient) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = m.c.Close()
	})
	return err
}

func resultText(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, content := range res.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}
