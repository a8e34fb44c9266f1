package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"refurbstock/internal/logger"
	"refurbstock/internal/model"
	"refurbstock/internal/permission"
	"refurbstock/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name   string `json:"name" binding:"required"`
	Status string `json:"status"`
}

type UpdateRoleRequest struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

type RoleResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	IsSystem  bool   `json:"is_system"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	// EnsurePrivilegedRole seeds the privileged system role and returns it.
	EnsurePrivilegedRole(ctx context.Context) (*model.Role, error)
}

type roleService struct {
	txManager      repository.TransactionManager
	roles          repository.RoleRepository
	users          repository.UserRepository
	perms          repository.PermissionRepository
	activity       ActivityService
	privilegedRole string
	log            *logger.Logger
}

func NewRoleService(
	txManager repository.TransactionManager,
	roles repository.RoleRepository,
	users repository.UserRepository,
	perms repository.PermissionRepository,
	activity ActivityService,
	privilegedRole string,
	log *logger.Logger,
) RoleService {
	return &roleService{
		txManager:      txManager,
		roles:          roles,
		users:          users,
		perms:          perms,
		activity:       activity,
		privilegedRole: privilegedRole,
		log:            log.With("service", "RoleService"),
	}
}

func toRoleResponse(r model.Role) RoleResponse {
	return RoleResponse{
		ID:        r.ID.String(),
		Name:      r.Name,
		Status:    r.Status,
		IsSystem:  r.IsSystem,
		CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: r.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func normalizeRoleStatus(status string) (string, error) {
	switch strings.TrimSpace(status) {
	case "", model.RoleStatusActive:
		return model.RoleStatusActive, nil
	case model.RoleStatusInactive:
		return model.RoleStatusInactive, nil
	default:
		return "", validationf("status must be %s or %s", model.RoleStatusActive, model.RoleStatusInactive)
	}
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, validationf("invalid %s id", what)
	}
	return id, nil
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := parseID(id, "role")
	if err != nil {
		return nil, err
	}

	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, mapRepoErr(err, "role")
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationf("role name is required")
	}
	if strings.EqualFold(name, s.privilegedRole) {
		return nil, conflictf("role name %q is reserved", name)
	}
	status, err := normalizeRoleStatus(req.Status)
	if err != nil {
		return nil, err
	}

	role := model.Role{Name: name, Status: status}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.Create(txCtx, &role); err != nil {
			return mapRepoErr(err, "role")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionCreateRole,
			EntityType: model.EntityRole,
			EntityID:   role.ID.String(),
			EntityName: role.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Role created", "role_id", role.ID, "name", role.Name)
	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := parseID(id, "role")
	if err != nil {
		return nil, err
	}

	var role *model.Role
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err = s.roles.FindByID(txCtx, roleID)
		if err != nil {
			return mapRepoErr(err, "role")
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return validationf("role name is required")
			}
			if name != role.Name {
				if role.IsSystem {
					return conflictf("system role %q cannot be renamed", role.Name)
				}
				if strings.EqualFold(name, s.privilegedRole) {
					return conflictf("role name %q is reserved", name)
				}
				role.Name = name
			}
		}
		if req.Status != nil {
			status, err := normalizeRoleStatus(*req.Status)
			if err != nil {
				return err
			}
			role.Status = status
		}

		if err := s.roles.Update(txCtx, role); err != nil {
			return mapRepoErr(err, "role")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionUpdateRole,
			EntityType: model.EntityRole,
			EntityID:   role.ID.String(),
			EntityName: role.Name,
			Details:    req,
		})
	})
	if err != nil {
		return nil, err
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

// DeleteRole removes a role and its matrix together. Roles still assigned to users are kept.
func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := parseID(id, "role")
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.roles.FindByID(txCtx, roleID)
		if err != nil {
			return mapRepoErr(err, "role")
		}
		if role.IsSystem || role.Name == s.privilegedRole {
			return conflictf("cannot delete system role %q", role.Name)
		}

		inUse, err := s.users.CountByRole(txCtx, roleID)
		if err != nil {
			return fmt.Errorf("failed to count role users: %w", err)
		}
		if inUse > 0 {
			return conflictf("role %q is assigned to %d user(s)", role.Name, inUse)
		}

		if err := s.perms.DeleteByRoleID(txCtx, roleID); err != nil {
			return fmt.Errorf("failed to delete role permissions: %w", err)
		}
		if err := s.roles.Delete(txCtx, roleID); err != nil {
			return mapRepoErr(err, "role")
		}

		s.log.Info("Role deleted", "role_id", roleID, "name", role.Name)
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionDeleteRole,
			EntityType: model.EntityRole,
			EntityID:   roleID.String(),
			EntityName: role.Name,
		})
	})
}

func (s *roleService) EnsurePrivilegedRole(ctx context.Context) (*model.Role, error) {
	role, err := s.roles.FindByName(ctx, s.privilegedRole)
	if err == nil {
		if !role.IsSystem {
			role.IsSystem = true
			if err := s.roles.Update(ctx, role); err != nil {
				return nil, fmt.Errorf("failed to mark privileged role: %w", err)
			}
		}
		return role, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up privileged role: %w", err)
	}

	role = &model.Role{Name: s.privilegedRole, Status: model.RoleStatusActive, IsSystem: true}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.Create(txCtx, role); err != nil {
			return mapRepoErr(err, "role")
		}
		// Stored for completeness; the privileged role bypasses matrix checks.
		if _, err := s.perms.Upsert(txCtx, role.ID, permission.All(true)); err != nil {
			return fmt.Errorf("failed to seed privileged matrix: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Seeded privileged role", "name", role.Name, "role_id", role.ID)
	return role, nil
}
