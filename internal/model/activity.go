package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreateProduct      = "CREATE_PRODUCT"
	ActionUpdateProduct      = "UPDATE_PRODUCT"
	ActionDeleteProduct      = "DELETE_PRODUCT"
	ActionCheckInProduct     = "CHECKIN_PRODUCT"
	ActionCheckOutProduct    = "CHECKOUT_PRODUCT"
	ActionResetProductStatus = "RESET_PRODUCT_STATUS"
	ActionAddProductImages   = "ADD_PRODUCT_IMAGES"
	ActionRemoveProductImage = "REMOVE_PRODUCT_IMAGE"
	ActionCreateUser         = "CREATE_USER"
	ActionUpdateUser         = "UPDATE_USER"
	ActionDeleteUser         = "DELETE_USER"
	ActionCreateRole         = "CREATE_ROLE"
	ActionUpdateRole         = "UPDATE_ROLE"
	ActionDeleteRole         = "DELETE_ROLE"
	ActionAssignPermissions  = "ASSIGN_PERMISSIONS"
	ActionCreateWarehouse    = "CREATE_WAREHOUSE"
	ActionUpdateWarehouse    = "UPDATE_WAREHOUSE"
	ActionDeleteWarehouse    = "DELETE_WAREHOUSE"
	ActionCreateDevice       = "CREATE_DEVICE"
	ActionUpdateDevice       = "UPDATE_DEVICE"
	ActionDeleteDevice       = "DELETE_DEVICE"
)

// Entity types recorded on activity entries
const (
	EntityProduct    = "product"
	EntityUser       = "user"
	EntityRole       = "role"
	EntityPermission = "permission"
	EntityWarehouse  = "warehouse"
	EntityDevice     = "device"
)

// ActivityLog tracks who changed what and when
type ActivityLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"` // Nil for system actions such as seeding
	Username   string         `gorm:"type:varchar(255)" json:"username"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID   string         `gorm:"type:varchar(100);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
