package response

// Error codes returned to clients
const (
	CodeInvalidCredentials       = "INVALID_CREDENTIALS"
	CodeInvalidOrExpiredToken    = "INVALID_OR_EXPIRED_TOKEN"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeForbidden                = "FORBIDDEN"
	CodePermissionsNotConfigured = "PERMISSIONS_NOT_CONFIGURED"
	CodeNotFound                 = "NOT_FOUND"
	CodeValidationFailed         = "VALIDATION_FAILED"
	CodeConflict                 = "CONFLICT"
	CodeUpstreamAssetFailure     = "UPSTREAM_ASSET_FAILURE"
	CodeInternal                 = "INTERNAL"
)

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Code       string      `json:"code,omitempty"`
}

// Paginated wraps a page of results
type Paginated struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, code, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
		Code:       code,
	}
}
