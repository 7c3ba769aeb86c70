package tools

import (
	"context"

	"batch-engine/feature/query"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles check_multiple_status.
type StatusTool struct {
	engine *query.Engine
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(engine *query.Engine) *StatusTool {
	return &StatusTool{engine: engine}
}

// Definition returns the MCP tool definition for check_multiple_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("check_multiple_status",
		mcp.WithDescription("Summarize the status of many entities with batched lookups."),
		entityTypeArg(),
		idsParam(query.MaxStatusIDs),
	)
}

// Handle processes the check_multiple_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := idsArg(req)
	if err != nil {
		return errorResult(err)
	}
	res, err := t.engine.CheckMultipleStatus(ctx, req.GetString("entity_type", ""), ids)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

// ExistenceTool handles validate_existence.
type ExistenceTool struct {
	engine *query.Engine
}

// NewExistenceTool creates an ExistenceTool.
func NewExistenceTool(engine *query.Engine) *ExistenceTool {
	return &ExistenceTool{engine: engine}
}

// Definition returns the MCP tool definition for validate_existence.
func (t *ExistenceTool) Definition() mcp.Tool {
	return mcp.NewTool("validate_existence",
		mcp.WithDescription("Split ids into existing and missing entities."),
		entityTypeArg(),
		idsParam(query.MaxExistenceIDs),
	)
}

// Handle processes the validate_existence tool call.
func (t *ExistenceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := idsArg(req)
	if err != nil {
		return errorResult(err)
	}
	res, err := t.engine.ValidateExistence(ctx, req.GetString("entity_type", ""), ids)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

// ProgressTool handles track_batch_progress.
type ProgressTool struct {
	engine *query.Engine
}

// NewProgressTool creates a ProgressTool.
func NewProgressTool(engine *query.Engine) *ProgressTool {
	return &ProgressTool{engine: engine}
}

// Definition returns the MCP tool definition for track_batch_progress.
func (t *ProgressTool) Definition() mcp.Tool {
	return mcp.NewTool("track_batch_progress",
		mcp.WithDescription(
			"Count how many entities satisfy a completion marker. "+
				"The marker is a custom field name, 'status:<value>', '<field>:<value>' or a field that must be truthy.",
		),
		entityTypeArg(),
		idsParam(query.MaxStatusIDs),
		mcp.WithString("marker",
			mcp.Required(),
			mcp.Description("Completion marker"),
		),
		mcp.WithBoolean("include_details",
			mcp.Description("Include one entry per entity"),
		),
		mcp.WithString("group_by",
			mcp.Description("Group ids by 'status' or 'completion'"),
			mcp.Enum(query.GroupByStatus, query.GroupByCompletion),
		),
	)
}

// Handle processes the track_batch_progress tool call.
func (t *ProgressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := idsArg(req)
	if err != nil {
		return errorResult(err)
	}
	res, err := t.engine.TrackBatchProgress(ctx, req.GetString("entity_type", ""), ids, query.ProgressOptions{
		Marker:         req.GetString("marker", ""),
		IncludeDetails: boolArg(req, "include_details", false),
		GroupBy:        req.GetString("group_by", ""),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

// CountTool handles get_entity_count.
type CountTool struct {
	engine *query.Engine
}

// NewCountTool creates a CountTool.
func NewCountTool(engine *query.Engine) *CountTool {
	return &CountTool{engine: engine}
}

// Definition returns the MCP tool definition for get_entity_count.
func (t *CountTool) Definition() mcp.Tool {
	return mcp.NewTool("get_entity_count",
		mcp.WithDescription("Count entities matching filters without paging through them."),
		entityTypeArg(),
		mcp.WithObject("filters",
			mcp.Description("Backend filters, e.g. {\"status\": \"done\"}"),
		),
	)
}

// Handle processes the get_entity_count tool call.
func (t *CountTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filters map[string]any
	if err := bindArg(req, "filters", &filters); err != nil {
		return errorResult(err)
	}
	res, err := t.engine.GetEntityCount(ctx, req.GetString("entity_type", ""), filters)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}
