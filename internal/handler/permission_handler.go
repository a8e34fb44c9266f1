package handler

import (
	"net/http"

	"refurbstock/internal/middleware"
	"refurbstock/internal/service"
	"refurbstock/pkg/response"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	permService service.PermissionService
	gate        *middleware.Gate
}

func NewPermissionHandler(permService service.PermissionService, gate *middleware.Gate) *PermissionHandler {
	return &PermissionHandler{permService: permService, gate: gate}
}

func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	perms := router.Group("/permissions")
	{
		perms.GET("", h.gate.RequirePrivileged(), h.ListAll)
		perms.GET("/catalog", h.gate.Authenticate(), h.Catalog)
		perms.GET("/:roleId", h.gate.RequirePrivilegedOrOwnRole("roleId"), h.GetMatrix)
		perms.POST("/assign", h.gate.RequirePrivileged(), h.Assign)
		perms.PUT("/:roleId/all", h.gate.RequirePrivileged(), h.SetAll)
	}
}

// @Summary      List all permission matrices
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RolePermissionResponse}
// @Failure      403  {object}  response.Response
// @Router       /permissions [get]
func (h *PermissionHandler) ListAll(c *gin.Context) {
	rows, err := h.permService.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// @Summary      Permission catalog
// @Description  The fixed categories and the actions each one carries
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]permission.CategorySpec}
// @Router       /permissions/catalog [get]
func (h *PermissionHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.permService.Catalog()))
}

// @Summary      Get a role's matrix
// @Description  A role without a matrix returns configured=false and null permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        roleId  path      string  true  "Role ID"
// @Success      200     {object}  response.Response{data=service.RolePermissionResponse}
// @Failure      404     {object}  response.Response
// @Router       /permissions/{roleId} [get]
func (h *PermissionHandler) GetMatrix(c *gin.Context) {
	resp, err := h.permService.GetMatrix(c.Request.Context(), c.Param("roleId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, resp))
}

// @Summary      Replace a role's matrix
// @Description  Unknown categories and actions are dropped; only literal true grants
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AssignPermissionsRequest  true  "Matrix"
// @Success      200      {object}  response.Response{data=service.RolePermissionResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /permissions/assign [post]
func (h *PermissionHandler) Assign(c *gin.Context) {
	var req service.AssignPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.permService.SetMatrix(c.Request.Context(), req.RoleID, req.Permissions)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, resp))
}

// @Summary      Grant or revoke everything
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        roleId   path      string                            true  "Role ID"
// @Param        payload  body      service.SetAllPermissionsRequest  true  "Enabled"
// @Success      200      {object}  response.Response{data=service.RolePermissionResponse}
// @Router       /permissions/{roleId}/all [put]
func (h *PermissionHandler) SetAll(c *gin.Context) {
	var req service.SetAllPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.permService.SetAll(c.Request.Context(), c.Param("roleId"), *req.Enabled)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, resp))
}
