package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates the MCP protocol server with the full tool catalog
// registered against the given dispatcher.
func NewServer(d *Dispatcher) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "lnbits-mcp-server",
		Version: "0.1.0",
	}, nil)

	for _, t := range Catalog() {
		tool := t // capture
		server.AddTool(
			&sdkmcp.Tool{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			},
			func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
				var args map[string]any
				if req.Params.Arguments != nil {
					if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
						return errorResult(fmt.Sprintf("ValidationError: invalid arguments: %v", err)), nil
					}
				}

				result, err := d.Dispatch(ctx, tool.Name, args)
				if err != nil {
					return errorResult(fmt.Sprintf("%s: %v", ErrorKind(err), err)), nil
				}

				data, err := json.Marshal(result)
				if err != nil {
					return errorResult(fmt.Sprintf("InternalError: encode result: %v", err)), nil
				}
				return &sdkmcp.CallToolResult{
					Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
				}, nil
			},
		)
	}

	return server
}

func errorResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
		IsError: true,
	}
}
