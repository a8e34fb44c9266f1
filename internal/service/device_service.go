package service

import (
	"context"
	"fmt"
	"strings"

	"refurbstock/internal/logger"
	"refurbstock/internal/model"
	"refurbstock/internal/repository"
)

type DeviceRequest struct {
	Name   string `json:"name" binding:"required"`
	Status string `json:"status"`
}

// DeviceService manages the catalog of device types. Mutations are limited to the privileged role.
type DeviceService interface {
	ListDevices(ctx context.Context, status string) ([]model.Device, error)
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	CreateDevice(ctx context.Context, req DeviceRequest) (*model.Device, error)
	UpdateDevice(ctx context.Context, id string, req DeviceRequest) (*model.Device, error)
	DeleteDevice(ctx context.Context, id string) error
}

type deviceService struct {
	txManager repository.TransactionManager
	devices   repository.DeviceRepository
	activity  ActivityService
	log       *logger.Logger
}

func NewDeviceService(txManager repository.TransactionManager, devices repository.DeviceRepository, activity ActivityService, log *logger.Logger) DeviceService {
	return &deviceService{
		txManager: txManager,
		devices:   devices,
		activity:  activity,
		log:       log.With("service", "DeviceService"),
	}
}

func normalizeDeviceStatus(status string) (string, error) {
	switch s := strings.TrimSpace(status); s {
	case "":
		return model.DeviceStatusAvailable, nil
	case model.DeviceStatusAvailable, model.DeviceStatusInactive, model.DeviceStatusMaintenance:
		return s, nil
	default:
		return "", validationf("status must be one of %s, %s, %s",
			model.DeviceStatusAvailable, model.DeviceStatusInactive, model.DeviceStatusMaintenance)
	}
}

func requirePrivileged(ctx context.Context) error {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !id.Privileged {
		return ErrForbidden
	}
	return nil
}

func (s *deviceService) ListDevices(ctx context.Context, status string) ([]model.Device, error) {
	if status != "" {
		if _, err := normalizeDeviceStatus(status); err != nil {
			return nil, err
		}
	}
	rows, err := s.devices.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}
	return rows, nil
}

func (s *deviceService) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	did, err := parseID(id, "device")
	if err != nil {
		return nil, err
	}
	d, err := s.devices.FindByID(ctx, did)
	if err != nil {
		return nil, mapRepoErr(err, "device")
	}
	return d, nil
}

func (s *deviceService) CreateDevice(ctx context.Context, req DeviceRequest) (*model.Device, error) {
	if err := requirePrivileged(ctx); err != nil {
		return nil, err
	}
	name, err := required("name", req.Name)
	if err != nil {
		return nil, err
	}
	status, err := normalizeDeviceStatus(req.Status)
	if err != nil {
		return nil, err
	}

	d := &model.Device{Name: name, Status: status}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.devices.Create(txCtx, d); err != nil {
			return mapRepoErr(err, "device")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionCreateDevice,
			EntityType: model.EntityDevice,
			EntityID:   d.ID.String(),
			EntityName: d.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *deviceService) UpdateDevice(ctx context.Context, id string, req DeviceRequest) (*model.Device, error) {
	if err := requirePrivileged(ctx); err != nil {
		return nil, err
	}
	did, err := parseID(id, "device")
	if err != nil {
		return nil, err
	}
	name, err := required("name", req.Name)
	if err != nil {
		return nil, err
	}
	status, err := normalizeDeviceStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var d *model.Device
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		d, err = s.devices.FindByID(txCtx, did)
		if err != nil {
			return mapRepoErr(err, "device")
		}
		d.Name, d.Status = name, status
		if err := s.devices.Update(txCtx, d); err != nil {
			return mapRepoErr(err, "device")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionUpdateDevice,
			EntityType: model.EntityDevice,
			EntityID:   d.ID.String(),
			EntityName: d.Name,
			Details:    map[string]string{"status": d.Status},
		})
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *deviceService) DeleteDevice(ctx context.Context, id string) error {
	if err := requirePrivileged(ctx); err != nil {
		return err
	}
	did, err := parseID(id, "device")
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		d, err := s.devices.FindByID(txCtx, did)
		if err != nil {
			return mapRepoErr(err, "device")
		}
		if err := s.devices.Delete(txCtx, did); err != nil {
			return mapRepoErr(err, "device")
		}
		s.log.Info("Device deleted", "device_id", did, "name", d.Name)
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionDeleteDevice,
			EntityType: model.EntityDevice,
			EntityID:   did.String(),
			EntityName: d.Name,
		})
	})
}
