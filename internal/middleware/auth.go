package middleware

import (
	"errors"
	"net/http"
	"strings"

	"refurbstock/internal/logger"
	"refurbstock/internal/service"
	"refurbstock/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const identityKey = "identity"

// Gate authenticates requests and enforces the role permission matrix per route.
// Identities are resolved from the database on every request.
type Gate struct {
	auth service.AuthService
	log  *logger.Logger
}

func NewGate(auth service.AuthService, log *logger.Logger) *Gate {
	return &Gate{auth: auth, log: log.With("component", "Gate")}
}

// IdentityFrom returns the caller stored by the gate.
func IdentityFrom(c *gin.Context) (*service.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*service.Identity)
	return id, ok && id != nil
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, response.Error(status, code, msg))
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// resolve loads the caller once per request. It aborts and returns false on failure.
func (g *Gate) resolve(c *gin.Context) (*service.Identity, bool) {
	if id, ok := IdentityFrom(c); ok {
		return id, true
	}

	token, ok := bearerToken(c)
	if !ok {
		abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authorization is missing. Expected 'Bearer <token>'")
		return nil, false
	}

	id, err := g.auth.ResolveSession(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			abort(c, http.StatusUnauthorized, response.CodeInvalidOrExpiredToken, "Invalid or expired token")
			return nil, false
		}
		g.log.Error("Failed to resolve session", "path", c.FullPath(), "error", err)
		abort(c, http.StatusInternalServerError, response.CodeInternal, "Failed to verify session")
		return nil, false
	}

	c.Set(identityKey, id)
	c.Request = c.Request.WithContext(service.WithIdentity(c.Request.Context(), id))
	return id, true
}

// Authenticate only requires a valid session.
func (g *Gate) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.resolve(c); !ok {
			return
		}
		c.Next()
	}
}

// allow aborts unless the caller is privileged or their matrix grants category.action.
func (g *Gate) allow(c *gin.Context, category, action string) bool {
	id, ok := g.resolve(c)
	if !ok {
		return false
	}
	if !id.Privileged && !id.PermissionsConfigured {
		abort(c, http.StatusForbidden, response.CodePermissionsNotConfigured, "Permissions are not configured for your role")
		return false
	}
	if !id.Allows(category, action) {
		g.log.Debug("Access denied", "user_id", id.UserID, "role", id.RoleName, "permission", category+"."+action)
		abort(c, http.StatusForbidden, response.CodeForbidden, "Access denied: missing permission '"+category+"."+action+"'")
		return false
	}
	return true
}

// Require admits the privileged role and callers whose matrix grants category.action.
func (g *Gate) Require(category, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.allow(c, category, action) {
			c.Next()
		}
	}
}

// RequireStatusChange picks the permission from the target status in the JSON body:
// checkOut.checkout for checkedout, checkIn.checkin otherwise.
// Handlers read the body again with ShouldBindBodyWith.
func (g *Gate) RequireStatusChange() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.resolve(c); !ok {
			return
		}
		var req service.UpdateStatusRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			abort(c, http.StatusBadRequest, response.CodeValidationFailed, err.Error())
			return
		}
		category, action := service.StatusPermission(*req.Status)
		if g.allow(c, category, action) {
			c.Next()
		}
	}
}

// RequirePrivileged admits only the privileged role.
func (g *Gate) RequirePrivileged() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := g.resolve(c)
		if !ok {
			return
		}
		if !id.Privileged {
			abort(c, http.StatusForbidden, response.CodeForbidden, "Access denied: privileged role required")
			return
		}
		c.Next()
	}
}

// RequirePrivilegedOrOwnRole admits the privileged role and callers reading their own role, named by param.
func (g *Gate) RequirePrivilegedOrOwnRole(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := g.resolve(c)
		if !ok {
			return
		}
		if !id.Privileged && !strings.EqualFold(c.Param(param), id.RoleID.String()) {
			abort(c, http.StatusForbidden, response.CodeForbidden, "Access denied: not your role")
			return
		}
		c.Next()
	}
}
