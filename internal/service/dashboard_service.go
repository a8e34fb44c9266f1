package service

import (
	"context"
	"fmt"
	"time"

	"refurbstock/internal/model"
	"refurbstock/internal/repository"
)

type DashboardService interface {
	// GetDashboard returns inventory counters plus movement counts since the given time.
	GetDashboard(ctx context.Context, since time.Time) (*model.DashboardStats, error)
}

type dashboardService struct {
	products  repository.ProductRepository
	movements repository.MovementRepository
	stats     repository.StatisticsRepository
}

func NewDashboardService(products repository.ProductRepository, movements repository.MovementRepository, stats repository.StatisticsRepository) DashboardService {
	return &dashboardService{products: products, movements: movements, stats: stats}
}

func (s *dashboardService) GetDashboard(ctx context.Context, since time.Time) (*model.DashboardStats, error) {
	byStatus, err := s.products.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	perWarehouse, err := s.products.CountByWarehouse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products per warehouse: %w", err)
	}
	totals, err := s.stats.Totals(ctx)
	if err != nil {
		return nil, err
	}

	res := &model.DashboardStats{
		CheckedInProducts:  byStatus[model.ProductStatusCheckedIn],
		CheckedOutProducts: byStatus[model.ProductStatusCheckedOut],
		UnsetProducts:      byStatus[model.ProductStatusUnset],
		TotalUsers:         totals.Users,
		TotalWarehouses:    totals.Warehouses,
		TotalDevices:       totals.Devices,
		PerWarehouse:       perWarehouse,
		Since:              since,
	}
	for _, n := range byStatus {
		res.TotalProducts += n
	}
	if res.PerWarehouse == nil {
		res.PerWarehouse = []model.GroupCount{}
	}

	if res.RecentCheckIns, err = s.movements.CountSince(ctx, model.ProductStatusCheckedIn, since); err != nil {
		return nil, fmt.Errorf("failed to count check-ins: %w", err)
	}
	if res.RecentCheckOuts, err = s.movements.CountSince(ctx, model.ProductStatusCheckedOut, since); err != nil {
		return nil, fmt.Errorf("failed to count check-outs: %w", err)
	}

	return res, nil
}
