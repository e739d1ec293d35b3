package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
)

const ServerName = "chative-retail-tools"

// NewMCPServer exposes every catalog tool of local over MCP. Tool failures
// are reported in-band as isError results, never as protocol errors.
func NewMCPServer(local *Local, version string) (*server.MCPServer, error) {
	if local == nil {
		return nil, errors.New("local gateway is required")
	}

	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	for _, spec := range local.Catalog().Specs() {
		raw, err := spec.RawSchema()
		if err != nil {
			return nil, err
		}
		s.AddTool(mcp.NewToolWithRawSchema(string(spec.Name), spec.Desc, raw), toolHandler(local, spec.Name))
	}
	return s, nil
}

func toolHandler(local *Local, name contractx.ToolName) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := local.Call(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error: %s", toolMessage(err))), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func toolMessage(err error) string {
	var te *contractx.ToolError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return err.Error()
}
