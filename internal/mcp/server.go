package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/selimcan/tagsense/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes tag and search tools over
// stdio, so AI agents can query and maintain the local file index.
type Server struct {
	engine *engine.Engine
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server backed by the engine.
func NewServer(e *engine.Engine) *Server {
	s := &Server{engine: e}

	s.mcp = server.NewMCPServer(
		"tagsense",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchFilesTool, s.handleSearchFiles)
	s.mcp.AddTool(searchByTagsTool, s.handleSearchByTags)
	s.mcp.AddTool(suggestTagsTool, s.handleSuggestTags)
	s.mcp.AddTool(indexFileTool, s.handleIndexFile)
	s.mcp.AddTool(listTagsTool, s.handleListTags)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP
// protocol messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
