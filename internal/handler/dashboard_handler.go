package handler

import (
	"net/http"
	"time"

	"refurbstock/internal/middleware"
	"refurbstock/internal/permission"
	"refurbstock/internal/service"
	"refurbstock/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	gate             *middleware.Gate
}

func NewDashboardHandler(dashboardService service.DashboardService, gate *middleware.Gate) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, gate: gate}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.gate.Require(permission.Product, permission.List), h.GetDashboard)
}

// GetDashboard returns inventory counters
// @Summary      Get dashboard counters
// @Description  Totals by status and warehouse plus check-ins and check-outs since a point in time
// @Tags         dashboard
// @Produce      json
// @Param        since  query     string  false  "RFC3339 start for movement counts (default: start of current month)"
// @Success      200    {object}  response.Response{data=model.DashboardStats}
// @Failure      400    {object}  response.Response
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	now := time.Now()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, response.CodeValidationFailed, "invalid since format, expected RFC3339"))
			return
		}
		since = parsed
	}

	stats, err := h.dashboardService.GetDashboard(c.Request.Context(), since)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
