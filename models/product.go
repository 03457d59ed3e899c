package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a purchasable item. Like Partner it is a shared reference,
// looked up by document lines but never owned by them.
type Product struct {
	Id          string          `json:"id" gorm:"primaryKey"`
	TenantID    string          `json:"-" gorm:"type:uuid;not null;index:idx_products_tenant_name,unique,priority:1"`
	Name        string          `json:"name" gorm:"not null;index:idx_products_tenant_name,unique,priority:2"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2)"`
	Uom         string          `json:"uom" gorm:"size:20;default:'unit'"`
	Active      bool            `json:"-" gorm:"default:true"`
}

func (Product) TenantScoped() {}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if product.Id == "" {
		product.Id = uuid.NewString()
	}
	return
}
