package database

import (
	"fmt"
	"log"
	"os"

	"procurement-backend/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB *gorm.DB
	// Tenant is the tenant-scoped handle every repository call goes through.
	Tenant *TenantDB
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Connect() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on process environment")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		envOr("DB_HOST", "db"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), envOr("DB_PORT", "5432"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	DB = db
	Tenant = NewTenantDB(db)
}

// AutoMigrate provisions all tables. Tenant-owned tables carry a tenant_id
// column; isolation is the tenant_id predicate, not separate schemas.
func AutoMigrate() {
	if err := DB.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Partner{},
		&models.Product{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderLine{},
		&models.VendorBill{},
		&models.VendorBillLine{},
		&models.IdempotencyRecord{},
	); err != nil {
		log.Fatalf("automigrate failed: %v", err)
	}
}
