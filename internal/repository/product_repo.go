package repository

import (
	"context"

	"refurbstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFilter narrows product listings. A nil Status matches every status.
type ProductFilter struct {
	Search     string
	Status     *string
	Warehouse  string
	DeviceType string
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindBySerial(ctx context.Context, serial string) (*model.Product, error)
	List(ctx context.Context, page, limit int, filter ProductFilter) ([]model.Product, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountByWarehouse(ctx context.Context) ([]model.GroupCount, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return translate(GetDB(ctx, r.db).Create(product).Error)
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return translate(GetDB(ctx, r.db).Omit(clause.Associations).Save(product).Error)
}

func (r *productRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) FindBySerial(ctx context.Context, serial string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("serial_number = ?", serial).First(&product).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Where("LOWER(serial_number) LIKE ? OR LOWER(model_number) LIKE ? OR LOWER(identifier) LIKE ?", p, p, p)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Warehouse != "" {
		db = db.Where("warehouse = ?", filter.Warehouse)
	}
	if filter.DeviceType != "" {
		db = db.Where("device_type = ?", filter.DeviceType)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("created_at desc").Offset(offsetFor(page, limit)).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := GetDB(ctx, r.db).Model(&model.Product{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] += row.Count
	}
	return counts, nil
}

func (r *productRepository) CountByWarehouse(ctx context.Context) ([]model.GroupCount, error) {
	var rows []model.GroupCount
	if err := GetDB(ctx, r.db).Model(&model.Product{}).
		Select("warehouse as label, COUNT(*) as count").
		Group("warehouse").
		Order("count desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
