package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a staff member who signs in and acts under one role
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName      string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName       string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Username       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	EmployeeID     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"employee_id"`
	Contact        string    `gorm:"type:varchar(100);not null" json:"contact"`
	Password       string    `gorm:"type:varchar(255);not null" json:"-"`
	RoleID         uuid.UUID `gorm:"type:uuid;not null;index" json:"role_id"`
	Role           Role      `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"role"`
	ImageURL       string    `gorm:"type:text" json:"image_url"`
	ImageStorageID string    `gorm:"type:varchar(255)" json:"image_storage_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
