package rayid_test

import (
	"net/http/httptest"
	"testing"

	"batch-engine/core/logger"
	"batch-engine/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRayID(t *testing.T) {
	app := fiber.New()
	app.Use(rayid.New())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(logger.RayIDKey).(string))
	})

	t.Run("Generated", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)

		id := resp.Header.Get(rayid.Header)
		_, parseErr := uuid.Parse(id)
		assert.NoError(t, parseErr)
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(rayid.Header, "caller-supplied")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "caller-supplied", resp.Header.Get(rayid.Header))
	})
}
