package mcp

import (
	"context"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// RunStdio serves the MCP server over stdin/stdout until ctx is cancelled.
// This is the single-user local deployment mode.
func RunStdio(ctx context.Context, server *sdkmcp.Server) error {
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}

// NewSSEHandler creates an SSE transport handler for the MCP server,
// suitable for mounting on a chi router.
func NewSSEHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewSSEHandler(func(r *http.Request) *sdkmcp.Server {
		return server
	}, nil)
}

// NewStreamableHTTPHandler creates a Streamable HTTP transport handler,
// suitable for mounting on a chi router.
func NewStreamableHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(r *http.Request) *sdkmcp.Server {
		return server
	}, nil)
}
