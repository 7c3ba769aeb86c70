package system

import (
	"batch-engine/feature/query"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler handles HTTP requests for system endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the system routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/system")
	group.Get("/health", h.HandleHealth)
	group.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.service.Collector().Registry(), promhttp.HandlerOpts{})))
	group.Get("/stats", h.HandleStats)
	group.Delete("/cache", h.HandleClearCache)
	group.Delete("/metrics", h.HandleClearMetrics)
	group.Post("/gc", h.HandleForceGC)
}

// HandleHealth reports service health.
// @Summary Health Check
// @Description Probe the entity backend, the cache and memory.
// @Tags system
// @Produce json
// @Success 200 {object} query.HealthReport
// @Failure 503 {object} query.HealthReport "Unhealthy"
// @Router /system/health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	report := h.service.Health(c.Context())
	if report.Status == query.StatusUnhealthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(report)
	}
	return c.JSON(report)
}

// HandleStats returns operation, cache and memory statistics.
// @Summary Stats
// @Tags system
// @Produce json
// @Success 200 {object} Stats
// @Router /system/stats [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.service.Stats())
}

// HandleClearCache empties the query cache.
// @Summary Clear Cache
// @Tags system
// @Produce json
// @Success 200 {object} CacheClearResult
// @Router /system/cache [delete]
func (h *Handler) HandleClearCache(c *fiber.Ctx) error {
	return c.JSON(h.service.ClearCache())
}

// HandleClearMetrics resets collected metrics.
// @Summary Clear Metrics
// @Tags system
// @Success 204
// @Router /system/metrics [delete]
func (h *Handler) HandleClearMetrics(c *fiber.Ctx) error {
	h.service.ClearMetrics()
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleForceGC runs a garbage collection.
// @Summary Force GC
// @Tags system
// @Produce json
// @Success 200 {object} metrics.GCReport
// @Router /system/gc [post]
func (h *Handler) HandleForceGC(c *fiber.Ctx) error {
	return c.JSON(h.service.ForceGC())
}
