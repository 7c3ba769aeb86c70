package query_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"batch-engine/feature/query"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, b *backend) *fiber.App {
	t.Helper()
	e := newEngine(t, b, query.Options{}, nil)
	app := fiber.New()
	feature := query.NewFeature(e, true)
	require.NoError(t, feature.Load(app))
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
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

func TestHandleStatus(t *testing.T) {
	app := newApp(t, newBackend(feature("1", "done", ""), feature("2", "todo", "")))

	code, body := post(t, app, "/query/status", `{"entityType":"features","ids":["1","2"]}`)
	assert.Equal(t, 200, code)
	assert.Equal(t, "2 features: 1 done, 1 todo", body["summary"])
	assert.Equal(t, false, body["partial"])
}

func TestHandleStatus_Validation(t *testing.T) {
	app := newApp(t, newBackend())

	code, body := post(t, app, "/query/status", `{"entityType":"features","ids":[]}`)
	assert.Equal(t, 400, code)
	assert.Equal(t, "validation", body["kind"])

	code, _ = post(t, app, "/query/status", `not json`)
	assert.Equal(t, 400, code)
}

func TestHandleExistence(t *testing.T) {
	app := newApp(t, newBackend(feature("1", "done", "")))

	code, body := post(t, app, "/query/existence", `{"entityType":"features","ids":["1","9"]}`)
	assert.Equal(t, 200, code)
	assert.Equal(t, []any{"1"}, body["existing"])
	assert.Equal(t, []any{"9"}, body["missing"])
}

func TestHandleProgress(t *testing.T) {
	app := newApp(t, newBackend(feature("1", "done", ""), feature("2", "todo", "")))

	code, body := post(t, app, "/query/progress", `{"entityType":"features","ids":["1","2"],"marker":"status:done","groupBy":"completion"}`)
	assert.Equal(t, 200, code)
	assert.Equal(t, "50.0%", body["percentage"])
	assert.Contains(t, body, "groups")
}

func TestHandleCount(t *testing.T) {
	app := newApp(t, newBackend(feature("1", "done", ""), feature("2", "todo", "")))

	code, body := post(t, app, "/query/count", `{"entityType":"features","filters":{"status":"todo"}}`)
	assert.Equal(t, 200, code)
	assert.Equal(t, float64(2), body["count"])
}

func TestLoader(t *testing.T) {
	e := newEngine(t, newBackend(), query.Options{}, nil)
	feature := query.NewFeature(e, false)

	assert.Equal(t, "query", feature.Name())
	assert.False(t, feature.IsEnabled())
	assert.NoError(t, feature.Load(fiber.New()))
}
