package database

import (
	"fmt"

	"refurbstock/internal/logger"
	"refurbstock/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM and migrates the schema
func NewConnection(dsn string, log *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := Migrate(db); err != nil {
		log.Warn("Failed to auto-migrate models", "error", err)
	}

	return db, nil
}

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.RolePermission{},
		&model.User{},
		&model.Warehouse{},
		&model.Device{},
		&model.Product{},
		&model.ProductMovement{},
		&model.ActivityLog{},
	)
}
