package repository

import (
	"context"

	"refurbstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WarehouseRepository interface {
	Create(ctx context.Context, w *model.Warehouse) error
	Update(ctx context.Context, w *model.Warehouse) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Warehouse, int64, error)
}

type warehouseRepository struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) WarehouseRepository {
	return &warehouseRepository{db: db}
}

func (r *warehouseRepository) Create(ctx context.Context, w *model.Warehouse) error {
	return translate(GetDB(ctx, r.db).Create(w).Error)
}

func (r *warehouseRepository) Update(ctx context.Context, w *model.Warehouse) error {
	return translate(GetDB(ctx, r.db).Save(w).Error)
}

func (r *warehouseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Warehouse{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *warehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	var w model.Warehouse
	if err := GetDB(ctx, r.db).First(&w, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *warehouseRepository) List(ctx context.Context, page, limit int, search string) ([]model.Warehouse, int64, error) {
	var rows []model.Warehouse
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Warehouse{})
	if search != "" {
		p := likePattern(search)
		db = db.Where("LOWER(name) LIKE ? OR LOWER(address) LIKE ?", p, p)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("name asc").Offset(offsetFor(page, limit)).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
