package handler

import (
	"net/http"

	"refurbstock/internal/middleware"
	"refurbstock/internal/service"
	"refurbstock/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	gate        *middleware.Gate
}

func NewAuthHandler(authService service.AuthService, gate *middleware.Gate) *AuthHandler {
	return &AuthHandler{authService: authService, gate: gate}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.GET("/current", h.gate.Authenticate(), h.Current)
	}
}

// Login verifies credentials and issues a session token
// @Summary      Log in
// @Description  Returns a bearer token and the caller's identity with its permission matrix
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.Session}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.authService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// Current returns the caller resolved from the bearer token
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.Identity}
// @Failure      401  {object}  response.Response
// @Router       /auth/current [get]
func (h *AuthHandler) Current(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, id))
}
