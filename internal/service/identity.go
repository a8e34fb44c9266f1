package service

import (
	"context"

	"refurbstock/internal/permission"

	"github.com/google/uuid"
)

// Identity is the authenticated caller, resolved from the database on every request.
type Identity struct {
	UserID                uuid.UUID         `json:"id"`
	Username              string            `json:"username"`
	FirstName             string            `json:"first_name"`
	LastName              string            `json:"last_name"`
	EmployeeID            string            `json:"employee_id"`
	ImageURL              string            `json:"image_url"`
	RoleID                uuid.UUID         `json:"role_id"`
	RoleName              string            `json:"role"`
	Privileged            bool              `json:"privileged"`
	Permissions           permission.Matrix `json:"permissions"`
	PermissionsConfigured bool              `json:"permissions_configured"`
}

// Allows applies the privileged bypass and otherwise the role's matrix.
func (i *Identity) Allows(category, action string) bool {
	if i == nil {
		return false
	}
	if i.Privileged {
		return true
	}
	return i.Permissions.Allows(category, action)
}

type identityKey struct{}

// WithIdentity returns a context carrying the caller.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extracts the caller placed by WithIdentity.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// requireAllowed checks a secondary permission inside a service operation.
func requireAllowed(ctx context.Context, category, action string) error {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !id.Privileged && !id.PermissionsConfigured {
		return ErrPermissionsNotConfigured
	}
	if !id.Allows(category, action) {
		return ErrForbidden
	}
	return nil
}

func actorOf(ctx context.Context) (*uuid.UUID, string) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return nil, "System"
	}
	uid := id.UserID
	return &uid, id.Username
}
