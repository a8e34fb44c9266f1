package service

import (
	"context"
	"fmt"

	"refurbstock/internal/logger"
	"refurbstock/internal/model"
	"refurbstock/internal/repository"
)

type WarehouseRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
}

type WarehouseService interface {
	ListWarehouses(ctx context.Context, page, limit int, search string) ([]model.Warehouse, int64, error)
	GetWarehouse(ctx context.Context, id string) (*model.Warehouse, error)
	CreateWarehouse(ctx context.Context, req WarehouseRequest) (*model.Warehouse, error)
	UpdateWarehouse(ctx context.Context, id string, req WarehouseRequest) (*model.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id string) error
}

type warehouseService struct {
	txManager  repository.TransactionManager
	warehouses repository.WarehouseRepository
	activity   ActivityService
	log        *logger.Logger
}

func NewWarehouseService(txManager repository.TransactionManager, warehouses repository.WarehouseRepository, activity ActivityService, log *logger.Logger) WarehouseService {
	return &warehouseService{
		txManager:  txManager,
		warehouses: warehouses,
		activity:   activity,
		log:        log.With("service", "WarehouseService"),
	}
}

func (req *WarehouseRequest) normalize() error {
	var err error
	if req.Name, err = required("name", req.Name); err != nil {
		return err
	}
	if req.Address, err = required("address", req.Address); err != nil {
		return err
	}
	return nil
}

func (s *warehouseService) ListWarehouses(ctx context.Context, page, limit int, search string) ([]model.Warehouse, int64, error) {
	rows, total, err := s.warehouses.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch warehouses: %w", err)
	}
	return rows, total, nil
}

func (s *warehouseService) GetWarehouse(ctx context.Context, id string) (*model.Warehouse, error) {
	wid, err := parseID(id, "warehouse")
	if err != nil {
		return nil, err
	}
	w, err := s.warehouses.FindByID(ctx, wid)
	if err != nil {
		return nil, mapRepoErr(err, "warehouse")
	}
	return w, nil
}

func (s *warehouseService) CreateWarehouse(ctx context.Context, req WarehouseRequest) (*model.Warehouse, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	w := &model.Warehouse{Name: req.Name, Address: req.Address}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.warehouses.Create(txCtx, w); err != nil {
			return mapRepoErr(err, "warehouse")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionCreateWarehouse,
			EntityType: model.EntityWarehouse,
			EntityID:   w.ID.String(),
			EntityName: w.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *warehouseService) UpdateWarehouse(ctx context.Context, id string, req WarehouseRequest) (*model.Warehouse, error) {
	wid, err := parseID(id, "warehouse")
	if err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}

	var w *model.Warehouse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		w, err = s.warehouses.FindByID(txCtx, wid)
		if err != nil {
			return mapRepoErr(err, "warehouse")
		}
		w.Name, w.Address = req.Name, req.Address
		if err := s.warehouses.Update(txCtx, w); err != nil {
			return mapRepoErr(err, "warehouse")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionUpdateWarehouse,
			EntityType: model.EntityWarehouse,
			EntityID:   w.ID.String(),
			EntityName: w.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *warehouseService) DeleteWarehouse(ctx context.Context, id string) error {
	wid, err := parseID(id, "warehouse")
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.warehouses.FindByID(txCtx, wid)
		if err != nil {
			return mapRepoErr(err, "warehouse")
		}
		if err := s.warehouses.Delete(txCtx, wid); err != nil {
			return mapRepoErr(err, "warehouse")
		}
		s.log.Info("Warehouse deleted", "warehouse_id", wid, "name", w.Name)
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionDeleteWarehouse,
			EntityType: model.EntityWarehouse,
			EntityID:   wid.String(),
			EntityName: w.Name,
		})
	})
}
