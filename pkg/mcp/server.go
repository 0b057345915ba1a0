// Package mcp exposes the reconstruction passes as MCP tools over stdio,
// so agentic clients can repair recovered trees interactively.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/unbundle/pkg/pipeline"
	"github.com/gnana997/unbundle/pkg/reconstructor"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server, exposing index reconstruction, export
// resolution, cascade resolution, and reporting tools.
type Server struct {
	mcpServer *server.MCPServer
	pipeline  *pipeline.Pipeline
	aliases   []reconstructor.AliasMapping
}

// NewServer creates an MCP server over an already-wired pipeline. Aliases
// apply to every tool call; per-call aliases are not supported.
func NewServer(p *pipeline.Pipeline, aliases []reconstructor.AliasMapping) *Server {
	s := &Server{pipeline: p, aliases: aliases}

	s.mcpServer = server.NewMCPServer(
		"unbundle",
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: reconstructIndexesTool(), Handler: s.handleReconstructIndexes},
		server.ServerTool{Tool: resolveExportsTool(), Handler: s.handleResolveExports},
		server.ServerTool{Tool: cascadeResolveTool(), Handler: s.handleCascadeResolve},
		server.ServerTool{Tool: missingReportTool(), Handler: s.handleMissingReport},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
