package tools

import (
	"context"

	"batch-engine/feature/bulk"

	"github.com/mark3labs/mcp-go/mcp"
)

// formatParam adds the optional text rendering of diffs.
func formatParam() mcp.ToolOption {
	return mcp.WithString("format",
		mcp.Description("Also render diffs as text"),
		mcp.Enum(string(bulk.FormatSummary), string(bulk.FormatCompact), string(bulk.FormatDetailed)),
	)
}

// diffResult wraps a result with an optional text rendering of diffs.
func diffResult(v any, diffs []bulk.EntityDiff, format string) (*mcp.CallToolResult, error) {
	if format == "" {
		return jsonResult(v)
	}
	return jsonResult(map[string]any{
		"result":    v,
		"formatted": bulk.FormatDiffs(diffs, bulk.ParseFormat(format)),
	})
}

// BulkUpdateTool handles bulk_update.
type BulkUpdateTool struct {
	engine *bulk.Engine
}

// NewBulkUpdateTool creates a BulkUpdateTool.
func NewBulkUpdateTool(engine *bulk.Engine) *BulkUpdateTool {
	return &BulkUpdateTool{engine: engine}
}

// Definition returns the MCP tool definition for bulk_update.
func (t *BulkUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("bulk_update",
		mcp.WithDescription(
			"Apply up to 500 updates in batches. Items whose entity is missing are skipped; "+
				"other failures are listed per item. Successful updates are not rolled back.",
		),
		entityTypeArg(),
		mcp.WithArray("updates",
			mcp.Required(),
			mcp.Description("Updates as {id, changes, expectedVersion?}"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithBoolean("track_changes", mcp.Description("Record before/after snapshots and diffs")),
		mcp.WithBoolean("validate_before_update", mcp.Description("Reject the whole call if any item is malformed")),
		mcp.WithBoolean("continue_on_error", mcp.Description("Keep going after a failed item (default true)")),
		mcp.WithNumber("batch_size", mcp.Description("Updates per batch (max 50)")),
		mcp.WithNumber("concurrency", mcp.Description("Batches in flight")),
		formatParam(),
	)
}

// Handle processes the bulk_update tool call.
func (t *BulkUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var updates []bulk.Update
	if err := bindArg(req, "updates", &updates); err != nil {
		return errorResult(err)
	}
	continueOnError := boolArg(req, "continue_on_error", true)

	res, err := t.engine.PerformBulkUpdate(ctx, bulk.UpdateRequest{
		EntityType: req.GetString("entity_type", ""),
		Updates:    updates,
		Options: bulk.UpdateOptions{
			BatchSize:            intArg(req, "batch_size", 0),
			Concurrency:          intArg(req, "concurrency", 0),
			TrackChanges:         boolArg(req, "track_changes", false),
			ValidateBeforeUpdate: boolArg(req, "validate_before_update", false),
			ContinueOnError:      &continueOnError,
		},
	})
	if err != nil {
		return errorResult(err)
	}

	diffs := make([]bulk.EntityDiff, len(res.Changes))
	for i, c := range res.Changes {
		diffs[i] = c.Diff
	}
	return diffResult(res, diffs, req.GetString("format", ""))
}

// CompareTool handles compare_entities.
type CompareTool struct {
	engine *bulk.Engine
}

// NewCompareTool creates a CompareTool.
func NewCompareTool(engine *bulk.Engine) *CompareTool {
	return &CompareTool{engine: engine}
}

// Definition returns the MCP tool definition for compare_entities.
func (t *CompareTool) Definition() mcp.Tool {
	return mcp.NewTool("compare_entities",
		mcp.WithDescription("Preview proposed changes against the current state without writing."),
		entityTypeArg(),
		mcp.WithArray("comparisons",
			mcp.Required(),
			mcp.Description("Proposed changes as {id, changes}"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithBoolean("significant_only", mcp.Description("Only keep diffs touching significant fields")),
		formatParam(),
	)
}

// Handle processes the compare_entities tool call.
func (t *CompareTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var comparisons []bulk.Comparison
	if err := bindArg(req, "comparisons", &comparisons); err != nil {
		return errorResult(err)
	}

	res, err := t.engine.CompareEntities(ctx, req.GetString("entity_type", ""), comparisons)
	if err != nil {
		return errorResult(err)
	}
	if boolArg(req, "significant_only", false) {
		res.Diffs = bulk.FilterSignificant(res.Diffs)
	}
	return diffResult(res, res.Diffs, req.GetString("format", ""))
}
