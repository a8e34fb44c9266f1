package handler

import (
	"errors"
	"net/http"

	"refurbstock/internal/service"
	"refurbstock/pkg/response"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.CodeInvalidCredentials},
	{service.ErrInvalidOrExpiredToken, http.StatusUnauthorized, response.CodeInvalidOrExpiredToken},
	{service.ErrUnauthorized, http.StatusUnauthorized, response.CodeUnauthorized},
	{service.ErrPermissionsNotConfigured, http.StatusForbidden, response.CodePermissionsNotConfigured},
	{service.ErrForbidden, http.StatusForbidden, response.CodeForbidden},
	{service.ErrNotFound, http.StatusNotFound, response.CodeNotFound},
	{service.ErrValidation, http.StatusBadRequest, response.CodeValidationFailed},
	{service.ErrConflict, http.StatusConflict, response.CodeConflict},
	{service.ErrUpstreamAsset, http.StatusBadGateway, response.CodeUpstreamAssetFailure},
}

// writeError maps service errors onto status codes. Unknown errors are reported as internal
// without leaking their text.
func writeError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, response.Error(e.status, e.code, err.Error()))
			return
		}
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, response.CodeInternal, "Internal server error"))
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, response.CodeValidationFailed, "Invalid request payload: "+err.Error()))
}
