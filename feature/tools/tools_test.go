package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"batch-engine/core/batch"
	"batch-engine/core/cache"
	"batch-engine/core/database"
	"batch-engine/core/metrics"
	"batch-engine/feature/bulk"
	"batch-engine/feature/entities"
	"batch-engine/feature/query"
	"batch-engine/feature/system"
	"batch-engine/feature/tools"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	query  *query.Engine
	bulk   *bulk.Engine
	system *system.Service
	store  *entities.Store
}

func setup(t *testing.T) env {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	store := entities.NewStore(db, zap.NewNop())
	require.NoError(t, store.Migrate(context.Background()))

	for _, f := range []map[string]any{
		{"id": "f1", "name": "Login", "status": "done"},
		{"id": "f2", "name": "Search", "status": "in_progress"},
		{"id": "f3", "name": "Export", "status": "done", "customFields": map[string]any{"shipped": true}},
	} {
		_, err := store.Create(context.Background(), "features", f)
		require.NoError(t, err)
	}

	c, err := cache.New[any](cache.Config{})
	require.NoError(t, err)
	collector := metrics.NewCollector("test")
	q := query.NewEngine(store, c, collector, nil, zap.NewNop(), query.Options{})
	b := bulk.NewEngine(store, collector, zap.NewNop(), batch.Config{})
	return env{query: q, bulk: b, system: system.NewService(q, collector, nil, zap.NewNop()), store: store}
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decode(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, r.IsError, resultText(r))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &out))
	return out
}

func TestAll_Definitions(t *testing.T) {
	e := setup(t)

	names := map[string]bool{}
	for _, tool := range tools.All(e.query, e.bulk, e.system) {
		names[tool.Definition().Name] = true
	}
	for _, want := range []string{
		"check_multiple_status", "validate_existence", "track_batch_progress", "get_entity_count",
		"health_check", "bulk_update", "compare_entities", "clear_cache", "clear_metrics", "force_gc", "get_stats",
	} {
		assert.True(t, names[want], want)
	}

	def := tools.NewProgressTool(e.query).Definition()
	assert.Contains(t, def.InputSchema.Properties, "marker")
	assert.Contains(t, def.InputSchema.Required, "entity_type")
}

func TestStatusTool(t *testing.T) {
	e := setup(t)
	res, err := tools.NewStatusTool(e.query).Handle(context.Background(), makeReq(map[string]any{
		"entity_type": "features",
		"ids":         []any{"f1", "f2", "f3"},
	}))
	require.NoError(t, err)

	out := decode(t, res)
	assert.Equal(t, "3 features: 2 done, 1 in_progress", out["summary"])
}

func TestStatusTool_Validation(t *testing.T) {
	e := setup(t)
	res, err := tools.NewStatusTool(e.query).Handle(context.Background(), makeReq(map[string]any{
		"entity_type": "features",
		"ids":         []any{},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "validation error")
}

func TestExistenceTool(t *testing.T) {
	e := setup(t)
	res, err := tools.NewExistenceTool(e.query).Handle(context.Background(), makeReq(map[string]any{
		"entity_type": "features",
		"ids":         []any{"f1", "nope"},
	}))
	require.NoError(t, err)

	out := decode(t, res)
	assert.Equal(t, []any{"f1"}, out["existing"])
	assert.Equal(t, []any{"nope"}, out["missing"])
}

func TestProgressTool(t *testing.T) {
	e := setup(t)
	res, err := tools.NewProgressTool(e.query).Handle(context.Background(), makeReq(map[string]any{
		"entity_type": "features",
		"ids":         []any{"f1", "f2", "f3"},
		"marker":      "shipped",
		"group_by":    "completion",
	}))
	require.NoError(t, err)

	out := decode(t, res)
	assert.Equal(t, float64(1), out["completed"])
	assert.Equal(t, "33.3%", out["percentage"])
}

func TestCountTool(t *testing.T) {
	e := setup(t)
	res, err := tools.NewCountTool(e.query).Handle(context.Background(), makeReq(map[string]any{
		"entity_type": "features",
		"filters":     map[string]any{"status": "done"},
	}))
	require.NoError(t, err)

	out := decode(t, res)
	assert.Equal(t, float64(2), out["count"])
	assert.Equal(t, false, out["estimated"])
}

func TestHealthTool(t *testing.T) {
	e := setup(t)
	res, err := tools.NewHealthTool(e.system).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)

	out := decode(t, res)
	assert.Equal(t, query.StatusHealthy, out["status"])
}

func TestBulkUpdateTool(t *testing.T) {
	e := setup(t)
	res, err := tools.NewBulkUpdateTool(e.bulk).Handle(context.Background(), makeReq(map[string]any{
		"entity_type": "features",
		"updates": []any{
			map[string]any{"id": "f2", "changes": map[string]any{"status": "done"}, "expectedVersion": float64(1)},
			map[string]any{"id": "missing", "changes": map[string]any{"status": "done"}},
		},
		"track_changes": true,
		"format":        "compact",
	}))
	require.NoError(t, err)

	out := decode(t, res)
	result := out["result"].(map[string]any)
	assert.Equal(t, []any{"f2"}, result["successful"])
	assert.Equal(t, []any{"missing"}, result["skipped"])
	assert.Contains(t, out["formatted"], "f2: ")

	status, err := tools.NewStatusTool(e.query).Handle(context.Background(), makeReq(map[string]any{
		"entity_type": "features",
		"ids":         []any{"f2"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "1 features: 1 done", decode(t, status)["summary"])
}

func TestBulkUpdateTool_VersionConflict(t *testing.T) {
	e := setup(t)
	res, err := tools.NewBulkUpdateTool(e.bulk).Handle(context.Background(), makeReq(map[string]any{
		"entity_type": "features",
		"updates": []any{
			map[string]any{"id": "f1", "changes": map[string]any{"status": "todo"}, "expectedVersion": float64(7)},
		},
	}))
	require.NoError(t, err)

	out := decode(t, res)
	failed := out["failed"].([]any)
	require.Len(t, failed, 1)
	assert.Equal(t, "validation", failed[0].(map[string]any)["kind"])
}

func TestBulkUpdateTool_BadArguments(t *testing.T) {
	e := setup(t)
	res, err := tools.NewBulkUpdateTool(e.bulk).Handle(context.Background(), makeReq(map[string]any{
		"entity_type": "features",
		"updates":     "not a list",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestCompareTool(t *testing.T) {
	e := setup(t)
	res, err := tools.NewCompareTool(e.bulk).Handle(context.Background(), makeReq(map[string]any{
		"entity_type": "features",
		"comparisons": []any{
			map[string]any{"id": "f1", "changes": map[string]any{"name": "Sign in"}},
			map[string]any{"id": "f2", "changes": map[string]any{"color": "blue"}},
		},
		"significant_only": true,
	}))
	require.NoError(t, err)

	out := decode(t, res)
	diffs := out["diffs"].([]any)
	require.Len(t, diffs, 1)
	assert.Equal(t, "f1", diffs[0].(map[string]any)["id"])
}

func TestMaintenanceTools(t *testing.T) {
	e := setup(t)
	_, err := e.query.CheckMultipleStatus(context.Background(), "features", []string{"f1"})
	require.NoError(t, err)

	byName := map[string]*tools.MaintenanceTool{}
	for _, tool := range tools.NewMaintenanceTools(e.system) {
		byName[tool.Definition().Name] = tool
	}

	res, err := byName["clear_cache"].Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.Equal(t, float64(1), decode(t, res)["removed"])

	res, err = byName["clear_metrics"].Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.Equal(t, true, decode(t, res)["cleared"])

	res, err = byName["force_gc"].Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.Contains(t, decode(t, res), "freed")
}

func TestNewServer(t *testing.T) {
	e := setup(t)
	assert.NotNil(t, tools.NewServer(e.query, e.bulk, e.system))
}
