package repository

import (
	"context"
	"fmt"

	"refurbstock/internal/model"

	"gorm.io/gorm"
)

// Totals holds row counts for the dashboard.
type Totals struct {
	Users      int64
	Warehouses int64
	Devices    int64
}

type StatisticsRepository interface {
	Totals(ctx context.Context) (Totals, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.User{}).Count(&t.Users).Error; err != nil {
		return t, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&model.Warehouse{}).Count(&t.Warehouses).Error; err != nil {
		return t, fmt.Errorf("failed to count warehouses: %w", err)
	}
	if err := db.Model(&model.Device{}).Count(&t.Devices).Error; err != nil {
		return t, fmt.Errorf("failed to count devices: %w", err)
	}
	return t, nil
}
