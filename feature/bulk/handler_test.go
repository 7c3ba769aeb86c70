package bulk_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"batch-engine/core/batch"
	"batch-engine/feature/bulk"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBulkApp(t *testing.T, e *bulk.Engine) *fiber.App {
	t.Helper()
	app := fiber.New()
	feature := bulk.NewFeature(e, zap.NewNop(), true)
	require.NoError(t, feature.Load(app))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestHandleUpdate(t *testing.T) {
	app := newBulkApp(t, newBulkEngine(newMemBackend("a", "b"), batch.Config{}))

	code, body := do(t, app, "POST", "/bulk/update", `{
		"entityType": "features",
		"updates": [{"id": "a", "changes": {"status": "done"}}, {"id": "missing", "changes": {"status": "done"}}],
		"options": {"trackChanges": true}
	}`)
	assert.Equal(t, 200, code)
	assert.Equal(t, []any{"a"}, body["successful"])
	assert.Equal(t, []any{"missing"}, body["skipped"])
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["changedCount"])
}

func TestHandleUpdate_Validation(t *testing.T) {
	app := newBulkApp(t, newBulkEngine(newMemBackend(), batch.Config{}))

	code, body := do(t, app, "POST", "/bulk/update", `{"entityType":"features","updates":[]}`)
	assert.Equal(t, 400, code)
	assert.Equal(t, "validation", body["kind"])
}

func TestHandleUpdate_AbortedIncludesResult(t *testing.T) {
	b := newMemBackend("a", "b")
	b.failPut["a"] = assert.AnError
	app := newBulkApp(t, newBulkEngine(b, batch.Config{}))

	code, body := do(t, app, "POST", "/bulk/update", `{
		"entityType": "features",
		"updates": [{"id": "a", "changes": {"status": "done"}}, {"id": "b", "changes": {"status": "done"}}],
		"options": {"continueOnError": false}
	}`)
	assert.Equal(t, 500, code)
	require.Contains(t, body, "result")
	result := body["result"].(map[string]any)
	assert.Len(t, result["failed"], 2)
	assert.Empty(t, result["successful"])
}

func TestHandleCompare(t *testing.T) {
	app := newBulkApp(t, newBulkEngine(newMemBackend("a", "b"), batch.Config{}))

	code, body := do(t, app, "POST", "/bulk/compare", `{
		"entityType": "features",
		"comparisons": [{"id": "a", "changes": {"status": "done"}}, {"id": "b", "changes": {"notes": "x"}}],
		"format": "compact",
		"significantOnly": true
	}`)
	assert.Equal(t, 200, code)
	assert.Equal(t, "a: 1 changes [status]", body["formatted"])
	result := body["result"].(map[string]any)
	assert.Len(t, result["diffs"], 1)
}

func TestHandleReports_ArchiveDisabled(t *testing.T) {
	app := newBulkApp(t, newBulkEngine(newMemBackend(), batch.Config{}))

	code, _ := do(t, app, "GET", "/bulk/reports", "")
	assert.Equal(t, 404, code)
	code, _ = do(t, app, "GET", "/bulk/reports/features/r1", "")
	assert.Equal(t, 404, code)
}

func TestBulkLoader(t *testing.T) {
	feature := bulk.NewFeature(newBulkEngine(newMemBackend(), batch.Config{}), zap.NewNop(), true)
	assert.Equal(t, "bulk", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NoError(t, feature.Load(fiber.New()))
}
