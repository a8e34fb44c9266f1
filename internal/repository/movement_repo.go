package repository

import (
	"context"
	"time"

	"refurbstock/internal/model"

	"gorm.io/gorm"
)

// MovementRepository keeps the check-in/check-out history of products.
type MovementRepository interface {
	Record(ctx context.Context, m *model.ProductMovement) error
	ListBySerial(ctx context.Context, serial string, limit int) ([]model.ProductMovement, error)
	CountSince(ctx context.Context, toStatus string, since time.Time) (int64, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Record(ctx context.Context, m *model.ProductMovement) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *movementRepository) ListBySerial(ctx context.Context, serial string, limit int) ([]model.ProductMovement, error) {
	var rows []model.ProductMovement
	if err := GetDB(ctx, r.db).Where("serial_number = ?", serial).Order("created_at desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *movementRepository) CountSince(ctx context.Context, toStatus string, since time.Time) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.ProductMovement{}).
		Where("to_status = ? AND created_at >= ?", toStatus, since).
		Count(&n).Error
	return n, err
}
