package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"refurbstock/internal/logger"
	"refurbstock/internal/model"
	"refurbstock/internal/permission"
	"refurbstock/internal/repository"

	"github.com/google/uuid"
)

type AssignPermissionsRequest struct {
	RoleID      string                 `json:"role_id" binding:"required"`
	Permissions map[string]interface{} `json:"permissions" binding:"required"`
}

type SetAllPermissionsRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// RolePermissionResponse carries a role's matrix. Permissions is null when none is configured.
type RolePermissionResponse struct {
	RoleID      string            `json:"role_id"`
	RoleName    string            `json:"role_name"`
	Configured  bool              `json:"configured"`
	Permissions permission.Matrix `json:"permissions"`
	Message     string            `json:"message,omitempty"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
}

const notConfiguredMessage = "Assign permission for the role"

type PermissionService interface {
	GetMatrix(ctx context.Context, roleID string) (*RolePermissionResponse, error)
	SetMatrix(ctx context.Context, roleID string, raw map[string]interface{}) (*RolePermissionResponse, error)
	SetAll(ctx context.Context, roleID string, enabled bool) (*RolePermissionResponse, error)
	CheckPermission(ctx context.Context, roleID string, category, action string) (bool, error)
	ListAll(ctx context.Context) ([]RolePermissionResponse, error)
	Catalog() []permission.CategorySpec
}

type permissionService struct {
	txManager repository.TransactionManager
	roles     repository.RoleRepository
	perms     repository.PermissionRepository
	activity  ActivityService
	log       *logger.Logger
}

func NewPermissionService(
	txManager repository.TransactionManager,
	roles repository.RoleRepository,
	perms repository.PermissionRepository,
	activity ActivityService,
	log *logger.Logger,
) PermissionService {
	return &permissionService{
		txManager: txManager,
		roles:     roles,
		perms:     perms,
		activity:  activity,
		log:       log.With("service", "PermissionService"),
	}
}

func toRolePermissionResponse(rp *model.RolePermission) RolePermissionResponse {
	updated := rp.UpdatedAt
	return RolePermissionResponse{
		RoleID:      rp.RoleID.String(),
		RoleName:    rp.Role.Name,
		Configured:  true,
		Permissions: rp.Matrix(),
		UpdatedAt:   &updated,
	}
}

func (s *permissionService) findRole(ctx context.Context, raw string) (*model.Role, error) {
	id, err := parseID(raw, "role")
	if err != nil {
		return nil, err
	}
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "role")
	}
	return role, nil
}

// GetMatrix returns the stored matrix. A role without one is reported as not configured, not as an error.
func (s *permissionService) GetMatrix(ctx context.Context, roleID string) (*RolePermissionResponse, error) {
	role, err := s.findRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	rp, err := s.perms.FindByRoleID(ctx, role.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &RolePermissionResponse{
				RoleID:   role.ID.String(),
				RoleName: role.Name,
				Message:  notConfiguredMessage,
			}, nil
		}
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}

	resp := toRolePermissionResponse(rp)
	return &resp, nil
}

// SetMatrix sanitizes and replaces the whole matrix of a role.
func (s *permissionService) SetMatrix(ctx context.Context, roleID string, raw map[string]interface{}) (*RolePermissionResponse, error) {
	return s.replace(ctx, roleID, permission.Sanitize(raw))
}

func (s *permissionService) SetAll(ctx context.Context, roleID string, enabled bool) (*RolePermissionResponse, error) {
	return s.replace(ctx, roleID, permission.All(enabled))
}

func (s *permissionService) replace(ctx context.Context, roleID string, matrix permission.Matrix) (*RolePermissionResponse, error) {
	var stored *model.RolePermission
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.findRole(txCtx, roleID)
		if err != nil {
			return err
		}

		stored, err = s.perms.Upsert(txCtx, role.ID, matrix)
		if err != nil {
			return fmt.Errorf("failed to save permissions: %w", err)
		}

		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionAssignPermissions,
			EntityType: model.EntityPermission,
			EntityID:   role.ID.String(),
			EntityName: role.Name,
			Details:    map[string]interface{}{"granted": matrix.Granted()},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Permissions replaced", "role_id", stored.RoleID, "granted", len(matrix.Granted()))
	resp := toRolePermissionResponse(stored)
	return &resp, nil
}

// CheckPermission is a pure matrix lookup: no bypass, false unless explicitly granted.
func (s *permissionService) CheckPermission(ctx context.Context, roleID string, category, action string) (bool, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return false, nil
	}
	rp, err := s.perms.FindByRoleID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load permissions: %w", err)
	}
	return rp.Matrix().Allows(category, action), nil
}

func (s *permissionService) ListAll(ctx context.Context) ([]RolePermissionResponse, error) {
	rows, err := s.perms.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	res := make([]RolePermissionResponse, 0, len(rows))
	for i := range rows {
		res = append(res, toRolePermissionResponse(&rows[i]))
	}
	return res, nil
}

func (s *permissionService) Catalog() []permission.CategorySpec {
	return permission.Catalog()
}
