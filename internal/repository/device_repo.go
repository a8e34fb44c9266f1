package repository

import (
	"context"

	"refurbstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeviceRepository interface {
	Create(ctx context.Context, d *model.Device) error
	Update(ctx context.Context, d *model.Device) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Device, error)
	List(ctx context.Context, status string) ([]model.Device, error)
}

type deviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) Create(ctx context.Context, d *model.Device) error {
	return translate(GetDB(ctx, r.db).Create(d).Error)
}

func (r *deviceRepository) Update(ctx context.Context, d *model.Device) error {
	return translate(GetDB(ctx, r.db).Save(d).Error)
}

func (r *deviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Device{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *deviceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Device, error) {
	var d model.Device
	if err := GetDB(ctx, r.db).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// List returns the whole catalog, optionally narrowed to one status.
func (r *deviceRepository) List(ctx context.Context, status string) ([]model.Device, error) {
	var rows []model.Device
	db := GetDB(ctx, r.db)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Order("name asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
