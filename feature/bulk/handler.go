package bulk

import (
	"batch-engine/core/entity"
	"batch-engine/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CompareRequest is the body of the compare endpoint.
type CompareRequest struct {
	EntityType  string       `json:"entityType"`
	Comparisons []Comparison `json:"comparisons"`
	// Format adds a rendered text of the diffs: summary, compact or detailed.
	Format string `json:"format,omitempty"`
	// SignificantOnly drops diffs without significant changes.
	SignificantOnly bool `json:"significantOnly,omitempty"`
}

// Handler handles HTTP requests for bulk updates.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// RegisterRoutes registers the bulk routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/bulk")
	group.Post("/update", h.HandleUpdate)
	group.Post("/compare", h.HandleCompare)
	group.Get("/reports", h.HandleListReports)
	group.Get("/reports/:type/:id", h.HandleGetReport)
}

// HandleUpdate applies a bulk update.
// @Summary Perform Bulk Update
// @Description Apply up to 500 updates in batches and report per-item outcomes.
// @Tags bulk
// @Accept json
// @Produce json
// @Param request body UpdateRequest true "Updates and options"
// @Success 200 {object} UpdateResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 500 {object} map[string]any "Aborted, partial result included"
// @Router /bulk/update [post]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	res, err := h.engine.PerformBulkUpdate(c.Context(), req)
	if err != nil {
		body := fiber.Map{"error": err.Error(), "kind": entity.KindOf(err)}
		if res != nil {
			body["result"] = res
		}
		return h.respondErr(c, "Bulk update failed", err, body)
	}
	return c.JSON(res)
}

// HandleCompare previews changes without writing them.
// @Summary Compare Entities
// @Description Diff proposed changes against the current state.
// @Tags bulk
// @Accept json
// @Produce json
// @Param request body CompareRequest true "Comparisons"
// @Success 200 {object} CompareResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /bulk/compare [post]
func (h *Handler) HandleCompare(c *fiber.Ctx) error {
	var req CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	res, err := h.engine.CompareEntities(c.Context(), req.EntityType, req.Comparisons)
	if err != nil {
		return h.respondErr(c, "Comparison failed", err, fiber.Map{"error": err.Error(), "kind": entity.KindOf(err)})
	}
	if req.SignificantOnly {
		res.Diffs = FilterSignificant(res.Diffs)
	}
	if req.Format == "" {
		return c.JSON(res)
	}
	return c.JSON(fiber.Map{
		"result":    res,
		"formatted": FormatDiffs(res.Diffs, ParseFormat(req.Format)),
	})
}

// HandleListReports lists archived bulk reports.
// @Summary List Bulk Reports
// @Tags bulk
// @Produce json
// @Param type query string false "Entity type"
// @Success 200 {array} ReportInfo
// @Failure 404 {object} map[string]string "Archive disabled"
// @Router /bulk/reports [get]
func (h *Handler) HandleListReports(c *fiber.Ctx) error {
	archive := h.engine.Archive()
	if archive == nil {
		return archiveDisabled(c)
	}
	reports, err := archive.List(c.Context(), c.Query("type"))
	if err != nil {
		return h.respondErr(c, "Listing reports failed", err, fiber.Map{"error": err.Error()})
	}
	if reports == nil {
		reports = []ReportInfo{}
	}
	return c.JSON(reports)
}

// HandleGetReport returns one archived report.
// @Summary Get Bulk Report
// @Tags bulk
// @Produce json
// @Param type path string true "Entity type"
// @Param id path string true "Report id"
// @Success 200 {object} Report
// @Failure 404 {object} map[string]string "Not found"
// @Router /bulk/reports/{type}/{id} [get]
func (h *Handler) HandleGetReport(c *fiber.Ctx) error {
	archive := h.engine.Archive()
	if archive == nil {
		return archiveDisabled(c)
	}
	report, err := archive.Get(c.Context(), c.Params("type"), c.Params("id"))
	if err != nil {
		return h.respondErr(c, "Loading report failed", err, fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

func (h *Handler) respondErr(c *fiber.Ctx, msg string, err error, body fiber.Map) error {
	l := logger.WithRayID(h.logger, c)
	status := entity.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Info(msg, zap.Error(err))
	}
	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid request body",
	})
}

func archiveDisabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "report archive is disabled",
	})
}
