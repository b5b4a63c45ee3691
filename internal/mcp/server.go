package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/pkweb/internal/config"
	"github.com/ziadkadry99/pkweb/internal/pkapi"
	"github.com/ziadkadry99/pkweb/internal/view"
)

// Version is set via ldflags at build time.
var Version = "dev"

// API is the part of the PluralKit client the tools use.
type API interface {
	view.Fetcher
	OwnSystem(ctx context.Context, token string) (*pkapi.System, error)
}

// TokenSource returns the stored PluralKit token, or "" when none is set.
type TokenSource func() string

// Server wraps an MCP server that exposes PluralKit system lookups.
type Server struct {
	api    API
	loader *view.Loader
	token  TokenSource
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(api API, strategy config.MemberStrategy, token TokenSource) *Server {
	if token == nil {
		token = func() string { return "" }
	}
	s := &Server{
		api:    api,
		loader: view.NewLoader(api, strategy, nil),
		token:  token,
	}

	s.mcp = server.NewMCPServer(
		"pkweb",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(getSystemTool, s.handleGetSystem)
	s.mcp.AddTool(listMembersTool, s.handleListMembers)
	s.mcp.AddTool(getOwnSystemTool, s.handleGetOwnSystem)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
