package query

import (
	"batch-engine/core/entity"
	"batch-engine/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// IDsRequest is the body of the status and existence endpoints.
type IDsRequest struct {
	EntityType string   `json:"entityType"`
	IDs        []string `json:"ids"`
}

// ProgressRequest is the body of the progress endpoint.
type ProgressRequest struct {
	EntityType string   `json:"entityType"`
	IDs        []string `json:"ids"`
	ProgressOptions
}

// CountRequest is the body of the count endpoint.
type CountRequest struct {
	EntityType string         `json:"entityType"`
	Filters    map[string]any `json:"filters"`
}

// Handler handles HTTP requests for batch queries.
type Handler struct {
	engine *Engine
}

// NewHandler creates a new HTTP handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes registers the query routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/query")
	group.Post("/status", h.HandleStatus)
	group.Post("/existence", h.HandleExistence)
	group.Post("/progress", h.HandleProgress)
	group.Post("/count", h.HandleCount)
}

// HandleStatus summarizes the status of many entities.
// @Summary Check Multiple Status
// @Description Fetch up to 500 entities in batches and return a status histogram.
// @Tags query
// @Accept json
// @Produce json
// @Param request body IDsRequest true "Entity type and ids"
// @Success 200 {object} StatusSummary
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /query/status [post]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	var req IDsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	res, err := h.engine.CheckMultipleStatus(c.Context(), req.EntityType, req.IDs)
	if err != nil {
		return h.fail(c, "Status check failed", err)
	}
	return c.JSON(res)
}

// HandleExistence partitions ids into existing and missing.
// @Summary Validate Existence
// @Description Check which of up to 1000 ids exist.
// @Tags query
// @Accept json
// @Produce json
// @Param request body IDsRequest true "Entity type and ids"
// @Success 200 {object} ExistenceResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /query/existence [post]
func (h *Handler) HandleExistence(c *fiber.Ctx) error {
	var req IDsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	res, err := h.engine.ValidateExistence(c.Context(), req.EntityType, req.IDs)
	if err != nil {
		return h.fail(c, "Existence check failed", err)
	}
	return c.JSON(res)
}

// HandleProgress reports completion against a marker.
// @Summary Track Batch Progress
// @Description Count entities satisfying a completion marker.
// @Tags query
// @Accept json
// @Produce json
// @Param request body ProgressRequest true "Entity type, ids and marker"
// @Success 200 {object} ProgressResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /query/progress [post]
func (h *Handler) HandleProgress(c *fiber.Ctx) error {
	var req ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	res, err := h.engine.TrackBatchProgress(c.Context(), req.EntityType, req.IDs, req.ProgressOptions)
	if err != nil {
		return h.fail(c, "Progress check failed", err)
	}
	return c.JSON(res)
}

// HandleCount returns the number of entities matching filters.
// @Summary Get Entity Count
// @Description Count entities with a single limit=1 request.
// @Tags query
// @Accept json
// @Produce json
// @Param request body CountRequest true "Entity type and filters"
// @Success 200 {object} CountResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /query/count [post]
func (h *Handler) HandleCount(c *fiber.Ctx) error {
	var req CountRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	res, err := h.engine.GetEntityCount(c.Context(), req.EntityType, req.Filters)
	if err != nil {
		return h.fail(c, "Count failed", err)
	}
	return c.JSON(res)
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	l := logger.WithRayID(h.engine.logger, c)
	status := entity.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Info(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"kind":  entity.KindOf(err),
	})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid request body",
	})
}
