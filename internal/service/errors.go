package service

import (
	"errors"
	"fmt"

	"refurbstock/internal/repository"
)

var (
	ErrInvalidCredentials       = errors.New("invalid username or password")
	ErrInvalidOrExpiredToken    = errors.New("invalid or expired token")
	ErrUnauthorized             = errors.New("authentication required")
	ErrForbidden                = errors.New("access denied")
	ErrPermissionsNotConfigured = errors.New("permissions are not configured for this role")
	ErrNotFound                 = errors.New("not found")
	ErrValidation               = errors.New("validation failed")
	ErrUpstreamAsset            = errors.New("asset host failure")
	ErrConflict                 = errors.New("conflict")
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// mapRepoErr lifts repository sentinels into the service taxonomy.
func mapRepoErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound(what)
	case errors.Is(err, repository.ErrDuplicate):
		return conflictf("%s already exists", what)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
