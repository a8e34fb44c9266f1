package model

import (
	"time"

	"refurbstock/internal/permission"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleStatusActive   = "Active"
	RoleStatusInactive = "Inactive"
)

// Role is a named bundle of permissions assigned to users
type Role struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Status    string    `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	IsSystem  bool      `gorm:"default:false" json:"is_system"` // Seeded privileged role, cannot be renamed or deleted
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RolePermission holds at most one permission matrix per role
type RolePermission struct {
	ID          uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	RoleID      uuid.UUID                             `gorm:"type:uuid;uniqueIndex;not null" json:"role_id"`
	Role        Role                                  `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"role"`
	Permissions datatypes.JSONType[permission.Matrix] `gorm:"not null" json:"permissions"`
	CreatedAt   time.Time                             `json:"created_at"`
	UpdatedAt   time.Time                             `json:"updated_at"`
}

func (p *RolePermission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Matrix returns the stored matrix completed over the catalog.
func (p *RolePermission) Matrix() permission.Matrix {
	return permission.Normalize(p.Permissions.Data())
}
