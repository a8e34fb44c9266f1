package repository

import (
	"context"
	"time"

	"refurbstock/internal/model"
	"refurbstock/internal/permission"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PermissionRepository stores the 0..1 permission matrix of each role.
type PermissionRepository interface {
	FindByRoleID(ctx context.Context, roleID uuid.UUID) (*model.RolePermission, error)
	Upsert(ctx context.Context, roleID uuid.UUID, matrix permission.Matrix) (*model.RolePermission, error)
	DeleteByRoleID(ctx context.Context, roleID uuid.UUID) error
	ListAll(ctx context.Context) ([]model.RolePermission, error)
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) FindByRoleID(ctx context.Context, roleID uuid.UUID) (*model.RolePermission, error) {
	var rp model.RolePermission
	if err := GetDB(ctx, r.db).Preload("Role").Where("role_id = ?", roleID).First(&rp).Error; err != nil {
		return nil, translate(err)
	}
	return &rp, nil
}

// Upsert replaces the whole matrix of a role, creating the row on first write.
func (r *permissionRepository) Upsert(ctx context.Context, roleID uuid.UUID, matrix permission.Matrix) (*model.RolePermission, error) {
	rp := model.RolePermission{
		RoleID:      roleID,
		Permissions: datatypes.NewJSONType(matrix),
		UpdatedAt:   time.Now(),
	}
	err := GetDB(ctx, r.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "role_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"permissions", "updated_at"}),
		}).
		Create(&rp).Error
	if err != nil {
		return nil, translate(err)
	}
	return r.FindByRoleID(ctx, roleID)
}

func (r *permissionRepository) DeleteByRoleID(ctx context.Context, roleID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("role_id = ?", roleID).Delete(&model.RolePermission{}).Error
}

func (r *permissionRepository) ListAll(ctx context.Context) ([]model.RolePermission, error) {
	var rows []model.RolePermission
	if err := GetDB(ctx, r.db).Preload("Role").Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
