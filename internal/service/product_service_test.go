package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"refurbstock/internal/model"
	"refurbstock/internal/permission"
	"refurbstock/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()

	tests := []struct {
		name string
		req  ProductRequest
	}{
		{"missing serial", ProductRequest{SerialNumber: " "}},
		{"bad grade", ProductRequest{SerialNumber: "S1", LCDGrade: "Z"}},
		{"bad status", ProductRequest{SerialNumber: "S1", Status: "sold"}},
		{"bad mdm", ProductRequest{SerialNumber: "S1", TechnicalCheck: model.TechnicalCheck{MDM: "MAYBE"}}},
		{"uneven images", ProductRequest{SerialNumber: "S1", ImageURLs: []string{"u"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.productSvc.CreateProduct(ctx, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := f.productSvc.CreateProduct(ctx, ProductRequest{SerialNumber: "S1", FullUnitGrade: "A"})
	require.NoError(t, err)
	_, err = f.productSvc.CreateProduct(ctx, ProductRequest{SerialNumber: "S1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestStatusTransitionsNeedMatchingPermission(t *testing.T) {
	f := newFixture(t)
	_, err := f.productSvc.CreateProduct(adminCtx(), ProductRequest{SerialNumber: "C02X"})
	require.NoError(t, err)

	checkInOnly := callerWith([2]string{permission.CheckIn, permission.Checkin})

	_, err = f.productSvc.UpdateStatus(checkInOnly, "C02X", model.ProductStatusCheckedOut)
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := f.productSvc.UpdateStatus(checkInOnly, "C02X", model.ProductStatusCheckedIn)
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusCheckedIn, p.Status)

	checkOutOnly := callerWith([2]string{permission.CheckOut, permission.Checkout})
	_, err = f.productSvc.UpdateStatus(checkOutOnly, "C02X", model.ProductStatusUnset)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.productSvc.UpdateStatus(checkOutOnly, "C02X", model.ProductStatusCheckedOut)
	require.NoError(t, err)

	_, err = f.productSvc.UpdateStatus(context.Background(), "C02X", model.ProductStatusCheckedIn)
	assert.ErrorIs(t, err, ErrUnauthorized)

	history, err := f.productSvc.History(adminCtx(), "C02X", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Contains(t, f.events.names, EventProductStatus)
}

func TestCreateIntoCheckedInRequiresPermission(t *testing.T) {
	f := newFixture(t)
	editor := callerWith([2]string{permission.Product, permission.Create})

	_, err := f.productSvc.CreateProduct(editor, ProductRequest{SerialNumber: "S9", Status: model.ProductStatusCheckedIn})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.productSvc.CreateProduct(editor, ProductRequest{SerialNumber: "S9"})
	require.NoError(t, err)
}

func TestAddImagesFailureLeavesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	_, err := f.productSvc.CreateProduct(ctx, ProductRequest{SerialNumber: "IMG1"})
	require.NoError(t, err)
	f.assets.FailAfter = 1

	files := []Upload{
		{Name: "a.png", Reader: bytes.NewReader(pngData(t))},
		{Name: "b.png", Reader: bytes.NewReader(pngData(t))},
	}
	_, err = f.productSvc.AddImages(ctx, "IMG1", files)
	assert.ErrorIs(t, err, ErrUpstreamAsset)

	p, err := f.productSvc.GetProduct(ctx, "IMG1")
	require.NoError(t, err)
	assert.Empty(t, p.ImageURLs)
	assert.Empty(t, p.StorageIDs)
	assert.Equal(t, []string{"asset-1"}, f.assets.DeletedIDs(), "partial uploads are cleaned up")
}

func TestImagesAppendAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	_, err := f.productSvc.CreateProduct(ctx, ProductRequest{SerialNumber: "IMG2"})
	require.NoError(t, err)

	p, err := f.productSvc.AddImages(ctx, "IMG2", []Upload{
		{Name: "a.png", Reader: bytes.NewReader(pngData(t))},
		{Name: "b.png", Reader: bytes.NewReader(pngData(t))},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"asset-1", "asset-2"}, []string(p.StorageIDs))
	assert.Len(t, p.ImageURLs, 2)

	_, err = f.productSvc.RemoveImage(ctx, "IMG2", 5)
	assert.ErrorIs(t, err, ErrValidation)

	p, err = f.productSvc.RemoveImage(ctx, "IMG2", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"asset-2"}, []string(p.StorageIDs))
	assert.Equal(t, []string{"https://cdn.test/asset-2"}, []string(p.ImageURLs))
	assert.Equal(t, []string{"asset-1"}, f.assets.DeletedIDs())

	require.NoError(t, f.productSvc.DeleteProduct(ctx, "IMG2"))
	assert.Equal(t, []string{"asset-1", "asset-2"}, f.assets.DeletedIDs())
}

func TestUpdateProductDeletesDroppedImages(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	_, err := f.productSvc.CreateProduct(ctx, ProductRequest{
		SerialNumber: "UPD1",
		ImageURLs:    []string{"u1", "u2"},
		StorageIDs:   []string{"s1", "s2"},
	})
	require.NoError(t, err)

	north := "North"
	p, err := f.productSvc.UpdateProduct(ctx, "UPD1", UpdateProductRequest{
		Warehouse:  &north,
		ImageURLs:  []string{"u2"},
		StorageIDs: []string{"s2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "North", p.Warehouse)
	assert.Equal(t, []string{"s1"}, f.assets.DeletedIDs())

	notes := "scratched"
	p, err = f.productSvc.UpdateProduct(ctx, "UPD1", UpdateProductRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, []string(p.StorageIDs), "omitted image arrays are kept")

	_, err = f.productSvc.UpdateProduct(ctx, "UPD1", UpdateProductRequest{ImageURLs: []string{"u3"}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProductKeepsOmittedFields(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	_, err := f.productSvc.CreateProduct(ctx, ProductRequest{
		SerialNumber:  "SN1",
		ModelNumber:   "A2338",
		Warehouse:     "North",
		Status:        model.ProductStatusCheckedIn,
		FullUnitGrade: "B",
	})
	require.NoError(t, err)
	eventsBefore := len(f.events.names)

	notes := "edited"
	p, err := f.productSvc.UpdateProduct(ctx, "SN1", UpdateProductRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusCheckedIn, p.Status)
	assert.Equal(t, "A2338", p.ModelNumber)
	assert.Equal(t, "North", p.Warehouse)
	assert.Equal(t, "B", p.FullUnitGrade)
	assert.Equal(t, "edited", p.Notes)
	assert.Equal(t, []string{EventProductUpdated}, f.events.names[eventsBefore:])

	history, err := f.productSvc.History(ctx, "SN1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the create moved the product")

	bad := "Z"
	_, err = f.productSvc.UpdateProduct(ctx, "SN1", UpdateProductRequest{LCDGrade: &bad})
	assert.ErrorIs(t, err, ErrValidation)
	blank := " "
	_, err = f.productSvc.UpdateProduct(ctx, "SN1", UpdateProductRequest{SerialNumber: &blank})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProductStatusChangeNeedsPermission(t *testing.T) {
	f := newFixture(t)
	_, err := f.productSvc.CreateProduct(adminCtx(), ProductRequest{SerialNumber: "SN2", Status: model.ProductStatusCheckedIn})
	require.NoError(t, err)

	editor := callerWith([2]string{permission.Product, permission.Edit})
	out := model.ProductStatusCheckedOut
	_, err = f.productSvc.UpdateProduct(editor, "SN2", UpdateProductRequest{Status: &out})
	assert.ErrorIs(t, err, ErrForbidden)

	same := model.ProductStatusCheckedIn
	notes := "kept in"
	p, err := f.productSvc.UpdateProduct(editor, "SN2", UpdateProductRequest{Status: &same, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusCheckedIn, p.Status)
}

func TestListProductsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	for _, req := range []ProductRequest{
		{SerialNumber: "A1", Warehouse: "North", Status: model.ProductStatusCheckedIn},
		{SerialNumber: "A2", Warehouse: "North"},
		{SerialNumber: "B1", Warehouse: "South", Status: model.ProductStatusCheckedOut},
	} {
		_, err := f.productSvc.CreateProduct(ctx, req)
		require.NoError(t, err)
	}

	unset := model.ProductStatusUnset
	rows, total, err := f.productSvc.ListProducts(ctx, 1, 10, repository.ProductFilter{Status: &unset})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "A2", rows[0].SerialNumber)

	_, total, err = f.productSvc.ListProducts(ctx, 1, 10, repository.ProductFilter{Warehouse: "North"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	bogus := "sold"
	_, _, err = f.productSvc.ListProducts(ctx, 1, 10, repository.ProductFilter{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDashboardCounts(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	for _, req := range []ProductRequest{
		{SerialNumber: "D1", Warehouse: "North", Status: model.ProductStatusCheckedIn},
		{SerialNumber: "D2", Warehouse: "North", Status: model.ProductStatusCheckedIn},
		{SerialNumber: "D3", Warehouse: "South"},
	} {
		_, err := f.productSvc.CreateProduct(ctx, req)
		require.NoError(t, err)
	}

	dash := NewDashboardService(f.products, f.movements, repository.NewStatisticsRepository(f.db))
	stats, err := dash.GetDashboard(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalProducts)
	assert.Equal(t, int64(2), stats.CheckedInProducts)
	assert.Equal(t, int64(1), stats.UnsetProducts)
	assert.Equal(t, int64(2), stats.RecentCheckIns)
	assert.Zero(t, stats.RecentCheckOuts)
	require.NotEmpty(t, stats.PerWarehouse)
	assert.Equal(t, model.GroupCount{Label: "North", Count: 2}, stats.PerWarehouse[0])
}

func TestStatusChangeWithoutMatrix(t *testing.T) {
	f := newFixture(t)
	_, err := f.productSvc.CreateProduct(adminCtx(), ProductRequest{SerialNumber: "NM1"})
	require.NoError(t, err)

	orphan := WithIdentity(context.Background(), &Identity{Username: "new", RoleName: "Intern"})
	_, err = f.productSvc.UpdateStatus(orphan, "NM1", model.ProductStatusCheckedIn)
	assert.ErrorIs(t, err, ErrPermissionsNotConfigured)
}
