package handler

import (
	"net/http"

	"refurbstock/internal/middleware"
	"refurbstock/internal/service"
	"refurbstock/pkg/response"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	deviceService service.DeviceService
	gate          *middleware.Gate
}

func NewDeviceHandler(deviceService service.DeviceService, gate *middleware.Gate) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService, gate: gate}
}

func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.GET("", h.gate.Authenticate(), h.ListDevices)
		devices.GET("/:id", h.gate.Authenticate(), h.GetDevice)
		devices.POST("", h.gate.RequirePrivileged(), h.CreateDevice)
		devices.PUT("/:id", h.gate.RequirePrivileged(), h.UpdateDevice)
		devices.DELETE("/:id", h.gate.RequirePrivileged(), h.DeleteDevice)
	}
}

// @Summary      List device types
// @Tags         devices
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Available, Inactive or Maintenance"
// @Success      200     {object}  response.Response{data=[]model.Device}
// @Router       /devices [get]
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	rows, err := h.deviceService.ListDevices(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// @Summary      Get device type
// @Tags         devices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  response.Response{data=model.Device}
// @Router       /devices/{id} [get]
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	d, err := h.deviceService.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, d))
}

// @Summary      Create device type
// @Tags         devices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.DeviceRequest  true  "Device"
// @Success      201      {object}  response.Response{data=model.Device}
// @Failure      403      {object}  response.Response
// @Router       /devices [post]
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var req service.DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	d, err := h.deviceService.CreateDevice(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, d))
}

// @Summary      Update device type
// @Tags         devices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Device ID"
// @Param        payload  body      service.DeviceRequest  true  "Device"
// @Success      200      {object}  response.Response{data=model.Device}
// @Router       /devices/{id} [put]
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	var req service.DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	d, err := h.deviceService.UpdateDevice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, d))
}

// @Summary      Delete device type
// @Tags         devices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  response.Response
// @Router       /devices/{id} [delete]
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	if err := h.deviceService.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Device deleted"}))
}
