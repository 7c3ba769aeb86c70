package tools

import (
	"context"

	"batch-engine/feature/system"

	"github.com/mark3labs/mcp-go/mcp"
)

// HealthTool handles health_check.
type HealthTool struct {
	service *system.Service
}

// NewHealthTool creates a HealthTool.
func NewHealthTool(service *system.Service) *HealthTool {
	return &HealthTool{service: service}
}

// Definition returns the MCP tool definition for health_check.
func (t *HealthTool) Definition() mcp.Tool {
	return mcp.NewTool("health_check",
		mcp.WithDescription("Probe the entity backend, the cache and memory."),
	)
}

// Handle processes the health_check tool call.
func (t *HealthTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.service.Health(ctx))
}

// MaintenanceTool handles one of the cache, metrics and GC maintenance calls.
type MaintenanceTool struct {
	name        string
	description string
	run         func() any
}

// Definition returns the MCP tool definition.
func (t *MaintenanceTool) Definition() mcp.Tool {
	return mcp.NewTool(t.name, mcp.WithDescription(t.description))
}

// Handle runs the maintenance call.
func (t *MaintenanceTool) Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.run())
}

// NewMaintenanceTools returns clear_cache, clear_metrics and force_gc.
func NewMaintenanceTools(service *system.Service) []*MaintenanceTool {
	return []*MaintenanceTool{
		{
			name:        "clear_cache",
			description: "Drop every cached query result.",
			run:         func() any { return service.ClearCache() },
		},
		{
			name:        "clear_metrics",
			description: "Reset operation metrics and cache counters.",
			run: func() any {
				service.ClearMetrics()
				return map[string]bool{"cleared": true}
			},
		},
		{
			name:        "force_gc",
			description: "Run a garbage collection and report freed memory.",
			run:         func() any { return service.ForceGC() },
		},
		{
			name:        "get_stats",
			description: "Show operation timings, cache statistics and memory usage.",
			run:         func() any { return service.Stats() },
		},
	}
}
