package handler

import (
	"net/http"

	"refurbstock/internal/middleware"
	"refurbstock/internal/permission"
	"refurbstock/internal/service"
	"refurbstock/pkg/pagination"
	"refurbstock/pkg/response"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService service.ActivityService
	gate            *middleware.Gate
}

func NewActivityHandler(activityService service.ActivityService, gate *middleware.Gate) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, gate: gate}
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/activity-logs")
	group.Use(h.gate.Require(permission.ActivityLog, permission.Assign))
	{
		group.GET("", h.GetActivityLogs)
	}
}

// GetActivityLogs retrieves paginated records, newest first
// @Summary      Get activity logs
// @Description  Who changed what and when
// @Tags         activity
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Param        entity_type  query     string  false  "product, user, role, permission, warehouse or device"
// @Success      200          {object}  response.Response{data=response.Paginated{items=[]service.ActivityLogResponse}}
// @Router       /activity-logs [get]
func (h *ActivityHandler) GetActivityLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.activityService.GetActivityLogs(c.Request.Context(), p.Page, p.Limit, c.Query("entity_type"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Result(logs, total)))
}
