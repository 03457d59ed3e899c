package services

import (
	"context"
	"testing"
	"time"

	"procurement-backend/database"
	"procurement-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *database.TenantDB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serializes
	// concurrent transactions in tests.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Partner{},
		&models.Product{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderLine{},
		&models.VendorBill{},
		&models.VendorBillLine{},
		&models.IdempotencyRecord{},
	))
	return database.NewTenantDB(db)
}

func contextWithoutTenant() context.Context {
	return context.Background()
}

func newTenantContext() context.Context {
	return database.WithTenant(context.Background(), database.TenantContext{
		TenantID: uuid.NewString(),
		UserID:   uuid.NewString(),
	})
}

func seedPartner(t *testing.T, db *database.TenantDB, ctx context.Context, name string) *models.Partner {
	t.Helper()
	scoped, err := db.Scoped(ctx)
	require.NoError(t, err)
	partner := models.Partner{Name: name, Active: true}
	require.NoError(t, scoped.Create(&partner).Error)
	return &partner
}

func seedProduct(t *testing.T, db *database.TenantDB, ctx context.Context, name string, price float64) *models.Product {
	t.Helper()
	scoped, err := db.Scoped(ctx)
	require.NoError(t, err)
	product := models.Product{
		Name:      name,
		UnitPrice: decimal.NewFromFloat(price),
		Uom:       "unit",
		Active:    true,
	}
	require.NoError(t, scoped.Create(&product).Error)
	return &product
}

func seedBill(t *testing.T, db *database.TenantDB, ctx context.Context, partnerID string, total, paid float64, due *time.Time, status models.VendorBillStatus) *models.VendorBill {
	t.Helper()
	scoped, err := db.Scoped(ctx)
	require.NoError(t, err)
	bill := models.VendorBill{
		BillReference: newDocumentNumber("VB"),
		PartnerID:     partnerID,
		Type:          models.VendorBillTypeBill,
		Status:        status,
		ReceivedAt:    time.Now().UTC(),
		DueDate:       due,
		TotalAmount:   decimal.NewFromFloat(total),
		AmountPaid:    decimal.NewFromFloat(paid),
	}
	require.NoError(t, scoped.Create(&bill).Error)
	return &bill
}
