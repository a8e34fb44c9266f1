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

type WarehouseHandler struct {
	warehouseService service.WarehouseService
	gate             *middleware.Gate
}

func NewWarehouseHandler(warehouseService service.WarehouseService, gate *middleware.Gate) *WarehouseHandler {
	return &WarehouseHandler{warehouseService: warehouseService, gate: gate}
}

func (h *WarehouseHandler) RegisterRoutes(router *gin.RouterGroup) {
	warehouses := router.Group("/warehouses")
	{
		warehouses.GET("", h.gate.Require(permission.Warehouse, permission.List), h.ListWarehouses)
		warehouses.GET("/:id", h.gate.Require(permission.Warehouse, permission.List), h.GetWarehouse)
		warehouses.POST("", h.gate.Require(permission.Warehouse, permission.Create), h.CreateWarehouse)
		warehouses.PUT("/:id", h.gate.Require(permission.Warehouse, permission.Edit), h.UpdateWarehouse)
		warehouses.DELETE("/:id", h.gate.Require(permission.Warehouse, permission.Delete), h.DeleteWarehouse)
	}
}

// @Summary      List warehouses
// @Tags         warehouses
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Param        search  query     string  false  "Name or address"
// @Success      200     {object}  response.Response{data=response.Paginated{items=[]model.Warehouse}}
// @Router       /warehouses [get]
func (h *WarehouseHandler) ListWarehouses(c *gin.Context) {
	p := pagination.Parse(c)
	rows, total, err := h.warehouseService.ListWarehouses(c.Request.Context(), p.Page, p.Limit, p.Search)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Result(rows, total)))
}

// @Summary      Get warehouse
// @Tags         warehouses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Warehouse ID"
// @Success      200  {object}  response.Response{data=model.Warehouse}
// @Failure      404  {object}  response.Response
// @Router       /warehouses/{id} [get]
func (h *WarehouseHandler) GetWarehouse(c *gin.Context) {
	w, err := h.warehouseService.GetWarehouse(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, w))
}

// @Summary      Create warehouse
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.WarehouseRequest  true  "Warehouse"
// @Success      201      {object}  response.Response{data=model.Warehouse}
// @Failure      400      {object}  response.Response
// @Router       /warehouses [post]
func (h *WarehouseHandler) CreateWarehouse(c *gin.Context) {
	var req service.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	w, err := h.warehouseService.CreateWarehouse(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, w))
}

// @Summary      Update warehouse
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Warehouse ID"
// @Param        payload  body      service.WarehouseRequest  true  "Warehouse"
// @Success      200      {object}  response.Response{data=model.Warehouse}
// @Router       /warehouses/{id} [put]
func (h *WarehouseHandler) UpdateWarehouse(c *gin.Context) {
	var req service.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	w, err := h.warehouseService.UpdateWarehouse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, w))
}

// @Summary      Delete warehouse
// @Tags         warehouses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Warehouse ID"
// @Success      200  {object}  response.Response
// @Router       /warehouses/{id} [delete]
func (h *WarehouseHandler) DeleteWarehouse(c *gin.Context) {
	if err := h.warehouseService.DeleteWarehouse(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Warehouse deleted"}))
}
