package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"feed-engine-service/internal/app/service"
)

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	stats  *service.StatsService
	logger *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(stats *service.StatsService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		stats:  stats,
		logger: logger,
	}
}

// Render handles GET /dashboard
// Renders the dashboard HTML page using Fiber's template engine.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	stats, err := h.stats.Collect(c.Context())
	if err != nil {
		h.logger.Warn("stats collection failed, rendering empty dashboard", zap.Error(err))
		stats = &service.Stats{}
	}

	return c.Render("pages/dashboard", fiber.Map{
		"Title":            "Feed Engine Dashboard",
		"ContentCount":     stats.Contents,
		"InteractionCount": stats.Interactions,
	}, "layouts/base")
}
