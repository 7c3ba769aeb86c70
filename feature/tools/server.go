package tools

import (
	"batch-engine/feature/bulk"
	"batch-engine/feature/query"
	"batch-engine/feature/system"

	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// All returns every tool backed by the given engines.
func All(q *query.Engine, b *bulk.Engine, sys *system.Service) []Tool {
	tools := []Tool{
		NewStatusTool(q),
		NewExistenceTool(q),
		NewProgressTool(q),
		NewCountTool(q),
		NewHealthTool(sys),
		NewBulkUpdateTool(b),
		NewCompareTool(b),
	}
	for _, t := range NewMaintenanceTools(sys) {
		tools = append(tools, t)
	}
	return tools
}

// NewServer creates the MCP server with every tool registered.
func NewServer(q *query.Engine, b *bulk.Engine, sys *system.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"batch-engine",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	for _, t := range All(q, b, sys) {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}
