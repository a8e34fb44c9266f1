package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"refurbstock/internal/logger"
	"refurbstock/internal/media"
	"refurbstock/internal/model"
	"refurbstock/internal/permission"
	"refurbstock/internal/repository"
	"refurbstock/internal/storage"

	"gorm.io/datatypes"
)

// Activity stream event names
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
	EventProductStatus  = "product.status"
)

// EventPublisher fans product events out to connected clients.
type EventPublisher interface {
	Publish(event string, data interface{})
}

// DTOs
type ProductRequest struct {
	SerialNumber    string               `json:"serial_number" binding:"required"`
	Year            string               `json:"year"`
	DeviceSize      string               `json:"device_size"`
	DeviceType      string               `json:"device_type"`
	EMCNumber       string               `json:"emc_number"`
	CPU             string               `json:"cpu"`
	GPU             string               `json:"gpu"`
	ModelNumber     string               `json:"model_number"`
	Identifier      string               `json:"identifier"`
	Memory          string               `json:"memory"`
	StorageType     string               `json:"storage_type"`
	BatteryCapacity string               `json:"battery_capacity"`
	BatteryCycles   string               `json:"battery_cycles"`
	StorageSize     string               `json:"storage_size"`
	Source          string               `json:"source"`
	Warehouse       string               `json:"warehouse"`
	Marketplace     string               `json:"marketplace"`
	Status          string               `json:"status"`
	ImageURLs       []string             `json:"image_urls"`
	StorageIDs      []string             `json:"storage_ids"`
	FullUnitGrade   string               `json:"full_unit_grade"`
	TopCaseGrade    string               `json:"top_case_grade"`
	LCDGrade        string               `json:"lcd_grade"`
	Notes           string               `json:"notes"`
	TechnicalNotes  string               `json:"technical_notes"`
	TechnicalCheck  model.TechnicalCheck `json:"technical_check"`
}

// UpdateProductRequest changes only the fields present in the request.
// Nil image arrays keep the current images.
type UpdateProductRequest struct {
	SerialNumber    *string               `json:"serial_number"`
	Year            *string               `json:"year"`
	DeviceSize      *string               `json:"device_size"`
	DeviceType      *string               `json:"device_type"`
	EMCNumber       *string               `json:"emc_number"`
	CPU             *string               `json:"cpu"`
	GPU             *string               `json:"gpu"`
	ModelNumber     *string               `json:"model_number"`
	Identifier      *string               `json:"identifier"`
	Memory          *string               `json:"memory"`
	StorageType     *string               `json:"storage_type"`
	BatteryCapacity *string               `json:"battery_capacity"`
	BatteryCycles   *string               `json:"battery_cycles"`
	StorageSize     *string               `json:"storage_size"`
	Source          *string               `json:"source"`
	Warehouse       *string               `json:"warehouse"`
	Marketplace     *string               `json:"marketplace"`
	Status          *string               `json:"status"`
	ImageURLs       []string              `json:"image_urls"`
	StorageIDs      []string              `json:"storage_ids"`
	FullUnitGrade   *string               `json:"full_unit_grade"`
	TopCaseGrade    *string               `json:"top_case_grade"`
	LCDGrade        *string               `json:"lcd_grade"`
	Notes           *string               `json:"notes"`
	TechnicalNotes  *string               `json:"technical_notes"`
	TechnicalCheck  *model.TechnicalCheck `json:"technical_check"`
}

type UpdateStatusRequest struct {
	Status *string `json:"status" binding:"required"`
}

// Upload is one image file received from a client.
type Upload struct {
	Name   string
	Reader io.Reader
}

type ProductService interface {
	CreateProduct(ctx context.Context, req ProductRequest) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int, filter repository.ProductFilter) ([]model.Product, int64, error)
	GetProduct(ctx context.Context, serial string) (*model.Product, error)
	UpdateProduct(ctx context.Context, serial string, req UpdateProductRequest) (*model.Product, error)
	UpdateStatus(ctx context.Context, serial string, status string) (*model.Product, error)
	DeleteProduct(ctx context.Context, serial string) error
	AddImages(ctx context.Context, serial string, files []Upload) (*model.Product, error)
	RemoveImage(ctx context.Context, serial string, index int) (*model.Product, error)
	History(ctx context.Context, serial string, limit int) ([]model.ProductMovement, error)
}

type productService struct {
	txManager  repository.TransactionManager
	products   repository.ProductRepository
	movements  repository.MovementRepository
	assets     storage.AssetHost
	normalizer *media.Normalizer
	activity   ActivityService
	events     EventPublisher
	log        *logger.Logger
}

// NewProductService wires the product catalog. events may be nil.
func NewProductService(
	txManager repository.TransactionManager,
	products repository.ProductRepository,
	movements repository.MovementRepository,
	assets storage.AssetHost,
	normalizer *media.Normalizer,
	activity ActivityService,
	events EventPublisher,
	log *logger.Logger,
) ProductService {
	return &productService{
		txManager:  txManager,
		products:   products,
		movements:  movements,
		assets:     assets,
		normalizer: normalizer,
		activity:   activity,
		events:     events,
		log:        log.With("service", "ProductService"),
	}
}

var (
	validGrades    = []string{"", "A", "B", "C", "F"}
	validOnOff     = []string{"", "ON", "OFF"}
	validYesNo     = []string{"", "YES", "NO"}
	validStatusSet = []string{model.ProductStatusUnset, model.ProductStatusCheckedIn, model.ProductStatusCheckedOut}
)

func oneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return validationf("%s must be one of %q", field, allowed)
}

type enumCheck struct {
	field   string
	value   string
	allowed []string
}

func checkEnums(checks []enumCheck) error {
	for _, c := range checks {
		if err := oneOf(c.field, c.value, c.allowed); err != nil {
			return err
		}
	}
	return nil
}

func technicalCheckEnums(tc model.TechnicalCheck) []enumCheck {
	return []enumCheck{
		{"technical_check.find_my_mac", tc.FindMyMac, validOnOff},
		{"technical_check.mdm", tc.MDM, validYesNo},
		{"technical_check.apple_care", tc.AppleCare, validYesNo},
	}
}

func validateProduct(req *ProductRequest) error {
	req.SerialNumber = strings.TrimSpace(req.SerialNumber)
	if req.SerialNumber == "" {
		return validationf("serial_number is required")
	}
	checks := append([]enumCheck{
		{"status", req.Status, validStatusSet},
		{"full_unit_grade", req.FullUnitGrade, validGrades},
		{"top_case_grade", req.TopCaseGrade, validGrades},
		{"lcd_grade", req.LCDGrade, validGrades},
	}, technicalCheckEnums(req.TechnicalCheck)...)
	if err := checkEnums(checks); err != nil {
		return err
	}
	if len(req.ImageURLs) != len(req.StorageIDs) {
		return validationf("image_urls and storage_ids must have the same length")
	}
	return nil
}

func validateUpdate(req *UpdateProductRequest) error {
	if req.SerialNumber != nil {
		serial := strings.TrimSpace(*req.SerialNumber)
		if serial == "" {
			return validationf("serial_number cannot be empty")
		}
		req.SerialNumber = &serial
	}
	var checks []enumCheck
	for _, c := range []struct {
		field   string
		value   *string
		allowed []string
	}{
		{"status", req.Status, validStatusSet},
		{"full_unit_grade", req.FullUnitGrade, validGrades},
		{"top_case_grade", req.TopCaseGrade, validGrades},
		{"lcd_grade", req.LCDGrade, validGrades},
	} {
		if c.value != nil {
			checks = append(checks, enumCheck{c.field, *c.value, c.allowed})
		}
	}
	if req.TechnicalCheck != nil {
		checks = append(checks, technicalCheckEnums(*req.TechnicalCheck)...)
	}
	if err := checkEnums(checks); err != nil {
		return err
	}
	if (req.ImageURLs != nil || req.StorageIDs != nil) && len(req.ImageURLs) != len(req.StorageIDs) {
		return validationf("image_urls and storage_ids must have the same length")
	}
	return nil
}

// StatusPermission names the grant needed to move a product into status.
func StatusPermission(status string) (category, action string) {
	if status == model.ProductStatusCheckedOut {
		return permission.CheckOut, permission.Checkout
	}
	return permission.CheckIn, permission.Checkin
}

func requireStatusPermission(ctx context.Context, status string) error {
	category, action := StatusPermission(status)
	return requireAllowed(ctx, category, action)
}

func applyProductRequest(p *model.Product, req ProductRequest) {
	p.SerialNumber = req.SerialNumber
	p.Year = req.Year
	p.DeviceSize = req.DeviceSize
	p.DeviceType = req.DeviceType
	p.EMCNumber = req.EMCNumber
	p.CPU = req.CPU
	p.GPU = req.GPU
	p.ModelNumber = req.ModelNumber
	p.Identifier = req.Identifier
	p.Memory = req.Memory
	p.StorageType = req.StorageType
	p.BatteryCapacity = req.BatteryCapacity
	p.BatteryCycles = req.BatteryCycles
	p.StorageSize = req.StorageSize
	p.Source = req.Source
	p.Warehouse = strings.TrimSpace(req.Warehouse)
	p.Marketplace = req.Marketplace
	p.Status = req.Status
	p.FullUnitGrade = req.FullUnitGrade
	p.TopCaseGrade = req.TopCaseGrade
	p.LCDGrade = req.LCDGrade
	p.Notes = req.Notes
	p.TechnicalNotes = req.TechnicalNotes
	p.TechnicalCheck = datatypes.NewJSONType(req.TechnicalCheck)
}

// applyUpdate copies the provided fields onto p. Status is left to the caller.
func applyUpdate(p *model.Product, req UpdateProductRequest) {
	for _, f := range []struct {
		value *string
		dst   *string
	}{
		{req.SerialNumber, &p.SerialNumber},
		{req.Year, &p.Year},
		{req.DeviceSize, &p.DeviceSize},
		{req.DeviceType, &p.DeviceType},
		{req.EMCNumber, &p.EMCNumber},
		{req.CPU, &p.CPU},
		{req.GPU, &p.GPU},
		{req.ModelNumber, &p.ModelNumber},
		{req.Identifier, &p.Identifier},
		{req.Memory, &p.Memory},
		{req.StorageType, &p.StorageType},
		{req.BatteryCapacity, &p.BatteryCapacity},
		{req.BatteryCycles, &p.BatteryCycles},
		{req.StorageSize, &p.StorageSize},
		{req.Source, &p.Source},
		{req.Marketplace, &p.Marketplace},
		{req.FullUnitGrade, &p.FullUnitGrade},
		{req.TopCaseGrade, &p.TopCaseGrade},
		{req.LCDGrade, &p.LCDGrade},
		{req.Notes, &p.Notes},
		{req.TechnicalNotes, &p.TechnicalNotes},
	} {
		if f.value != nil {
			*f.dst = *f.value
		}
	}
	if req.Warehouse != nil {
		p.Warehouse = strings.TrimSpace(*req.Warehouse)
	}
	if req.TechnicalCheck != nil {
		p.TechnicalCheck = datatypes.NewJSONType(*req.TechnicalCheck)
	}
}

func (s *productService) recordMovement(ctx context.Context, p *model.Product, from string) error {
	userID, username := actorOf(ctx)
	err := s.movements.Record(ctx, &model.ProductMovement{
		ProductID:    p.ID,
		SerialNumber: p.SerialNumber,
		FromStatus:   from,
		ToStatus:     p.Status,
		UserID:       userID,
		PerformedBy:  username,
	})
	if err != nil {
		return fmt.Errorf("failed to record movement: %w", err)
	}
	return nil
}

func (s *productService) publish(event string, data interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(event, data)
}

func (s *productService) findBySerial(ctx context.Context, serial string) (*model.Product, error) {
	p, err := s.products.FindBySerial(ctx, strings.TrimSpace(serial))
	if err != nil {
		return nil, mapRepoErr(err, "product")
	}
	return p, nil
}

func (s *productService) CreateProduct(ctx context.Context, req ProductRequest) (*model.Product, error) {
	if err := validateProduct(&req); err != nil {
		return nil, err
	}
	if req.Status != model.ProductStatusUnset {
		if err := requireStatusPermission(ctx, req.Status); err != nil {
			return nil, err
		}
	}

	_, createdBy := actorOf(ctx)
	product := &model.Product{
		ImageURLs:  datatypes.JSONSlice[string](append([]string{}, req.ImageURLs...)),
		StorageIDs: datatypes.JSONSlice[string](append([]string{}, req.StorageIDs...)),
		CreatedBy:  createdBy,
	}
	applyProductRequest(product, req)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.products.Create(txCtx, product); err != nil {
			return mapRepoErr(err, "product with this serial number")
		}
		if product.Status != model.ProductStatusUnset {
			if err := s.recordMovement(txCtx, product, model.ProductStatusUnset); err != nil {
				return err
			}
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionCreateProduct,
			EntityType: model.EntityProduct,
			EntityID:   product.SerialNumber,
			EntityName: product.ModelNumber,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Product created", "serial", product.SerialNumber, "status", product.Status)
	s.publish(EventProductCreated, product)
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, page, limit int, filter repository.ProductFilter) ([]model.Product, int64, error) {
	if filter.Status != nil && !model.ValidProductStatus(*filter.Status) {
		return nil, 0, validationf("unknown status %q", *filter.Status)
	}
	products, total, err := s.products.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

func (s *productService) GetProduct(ctx context.Context, serial string) (*model.Product, error) {
	return s.findBySerial(ctx, serial)
}

// UpdateProduct changes the provided fields only; an omitted status stays as it is.
func (s *productService) UpdateProduct(ctx context.Context, serial string, req UpdateProductRequest) (*model.Product, error) {
	if err := validateUpdate(&req); err != nil {
		return nil, err
	}

	var product *model.Product
	var dropped []string
	var from string
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.findBySerial(txCtx, serial)
		if err != nil {
			return err
		}
		from = product.Status
		if req.Status != nil && *req.Status != from {
			if err := requireStatusPermission(txCtx, *req.Status); err != nil {
				return err
			}
			product.Status = *req.Status
		}

		if req.ImageURLs != nil || req.StorageIDs != nil {
			dropped = missingFrom(product.StorageIDs, req.StorageIDs)
			product.ImageURLs = datatypes.JSONSlice[string](append([]string{}, req.ImageURLs...))
			product.StorageIDs = datatypes.JSONSlice[string](append([]string{}, req.StorageIDs...))
		}
		applyUpdate(product, req)

		if err := s.products.Update(txCtx, product); err != nil {
			return mapRepoErr(err, "product with this serial number")
		}
		if product.Status != from {
			if err := s.recordMovement(txCtx, product, from); err != nil {
				return err
			}
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionUpdateProduct,
			EntityType: model.EntityProduct,
			EntityID:   product.SerialNumber,
			EntityName: product.ModelNumber,
		})
	})
	if err != nil {
		return nil, err
	}

	s.discardAssets(ctx, dropped)
	s.publish(EventProductUpdated, product)
	if product.Status != from {
		s.publish(EventProductStatus, statusEvent(product, from))
	}
	return product, nil
}

func statusEvent(p *model.Product, from string) map[string]interface{} {
	return map[string]interface{}{
		"serial_number": p.SerialNumber,
		"from":          from,
		"to":            p.Status,
		"warehouse":     p.Warehouse,
	}
}

func statusAction(status string) string {
	switch status {
	case model.ProductStatusCheckedIn:
		return model.ActionCheckInProduct
	case model.ProductStatusCheckedOut:
		return model.ActionCheckOutProduct
	default:
		return model.ActionResetProductStatus
	}
}

func (s *productService) UpdateStatus(ctx context.Context, serial string, status string) (*model.Product, error) {
	if !model.ValidProductStatus(status) {
		return nil, validationf("status must be one of %q", validStatusSet)
	}
	if err := requireStatusPermission(ctx, status); err != nil {
		return nil, err
	}

	var product *model.Product
	var from string
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.findBySerial(txCtx, serial)
		if err != nil {
			return err
		}
		from = product.Status
		if from == status {
			return nil
		}

		if err := s.products.UpdateStatus(txCtx, product.ID, status); err != nil {
			return mapRepoErr(err, "product")
		}
		product.Status = status
		if err := s.recordMovement(txCtx, product, from); err != nil {
			return err
		}
		return s.activity.Record(txCtx, Activity{
			Action:     statusAction(status),
			EntityType: model.EntityProduct,
			EntityID:   product.SerialNumber,
			EntityName: product.ModelNumber,
			Details:    map[string]string{"from": from, "to": status},
		})
	})
	if err != nil {
		return nil, err
	}

	if from != status {
		s.log.Info("Product status changed", "serial", product.SerialNumber, "from", from, "to", status)
		s.publish(EventProductStatus, statusEvent(product, from))
	}
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, serial string) error {
	var product *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.findBySerial(txCtx, serial)
		if err != nil {
			return err
		}
		if err := s.products.Delete(txCtx, product.ID); err != nil {
			return mapRepoErr(err, "product")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionDeleteProduct,
			EntityType: model.EntityProduct,
			EntityID:   product.SerialNumber,
			EntityName: product.ModelNumber,
		})
	})
	if err != nil {
		return err
	}

	s.discardAssets(ctx, product.StorageIDs)
	s.log.Info("Product deleted", "serial", product.SerialNumber)
	s.publish(EventProductDeleted, map[string]string{"serial_number": product.SerialNumber})
	return nil
}

// AddImages uploads every file before touching the record. Any failure leaves the product unchanged.
func (s *productService) AddImages(ctx context.Context, serial string, files []Upload) (*model.Product, error) {
	if len(files) == 0 {
		return nil, validationf("at least one image is required")
	}
	if _, err := s.findBySerial(ctx, serial); err != nil {
		return nil, err
	}

	images := make([]*media.Normalized, 0, len(files))
	for _, f := range files {
		img, err := s.normalizer.Normalize(f.Name, f.Reader)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrValidation, f.Name, err)
		}
		images = append(images, img)
	}

	uploaded := make([]storage.Asset, 0, len(images))
	for _, img := range images {
		asset, err := s.assets.Upload(ctx, img.Name, img.Data, img.ContentType)
		if err != nil {
			s.log.Error("Image upload failed, rolling back uploaded assets", "serial", serial, "uploaded", len(uploaded), "error", err)
			s.discardAssets(ctx, assetIDs(uploaded))
			return nil, fmt.Errorf("%w: %v", ErrUpstreamAsset, err)
		}
		uploaded = append(uploaded, asset)
	}

	var product *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.findBySerial(txCtx, serial)
		if err != nil {
			return err
		}
		for _, a := range uploaded {
			product.ImageURLs = append(product.ImageURLs, a.URL)
			product.StorageIDs = append(product.StorageIDs, a.ID)
		}
		if err := s.products.Update(txCtx, product); err != nil {
			return mapRepoErr(err, "product")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionAddProductImages,
			EntityType: model.EntityProduct,
			EntityID:   product.SerialNumber,
			EntityName: product.ModelNumber,
			Details:    map[string]interface{}{"storage_ids": assetIDs(uploaded)},
		})
	})
	if err != nil {
		s.discardAssets(ctx, assetIDs(uploaded))
		return nil, err
	}

	s.publish(EventProductUpdated, product)
	return product, nil
}

func (s *productService) RemoveImage(ctx context.Context, serial string, index int) (*model.Product, error) {
	var product *model.Product
	var removed string
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.findBySerial(txCtx, serial)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(product.StorageIDs) || index >= len(product.ImageURLs) {
			return validationf("image index %d out of range", index)
		}

		removed = product.StorageIDs[index]
		product.ImageURLs = append(append(datatypes.JSONSlice[string]{}, product.ImageURLs[:index]...), product.ImageURLs[index+1:]...)
		product.StorageIDs = append(append(datatypes.JSONSlice[string]{}, product.StorageIDs[:index]...), product.StorageIDs[index+1:]...)

		if err := s.products.Update(txCtx, product); err != nil {
			return mapRepoErr(err, "product")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionRemoveProductImage,
			EntityType: model.EntityProduct,
			EntityID:   product.SerialNumber,
			EntityName: product.ModelNumber,
			Details:    map[string]interface{}{"index": index, "storage_id": removed},
		})
	})
	if err != nil {
		return nil, err
	}

	s.discardAssets(ctx, []string{removed})
	s.publish(EventProductUpdated, product)
	return product, nil
}

func (s *productService) History(ctx context.Context, serial string, limit int) ([]model.ProductMovement, error) {
	product, err := s.findBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	rows, err := s.movements.ListBySerial(ctx, product.SerialNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movements: %w", err)
	}
	return rows, nil
}

func (s *productService) discardAssets(ctx context.Context, ids []string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := s.assets.Delete(ctx, id); err != nil {
			s.log.Error("Failed to delete asset", "storage_id", id, "error", err)
		}
	}
}

func assetIDs(assets []storage.Asset) []string {
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID)
	}
	return ids
}

// missingFrom returns the ids of before that are absent from after.
func missingFrom(before, after []string) []string {
	keep := make(map[string]struct{}, len(after))
	for _, id := range after {
		keep[id] = struct{}{}
	}
	var out []string
	for _, id := range before {
		if _, ok := keep[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
