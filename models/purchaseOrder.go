package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrderStatus is the lifecycle state of a purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusRFQ       PurchaseOrderStatus = "RFQ"
	PurchaseOrderStatusRFQSent   PurchaseOrderStatus = "RFQ_SENT"
	PurchaseOrderStatusToApprove PurchaseOrderStatus = "TO_APPROVE"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "PURCHASE_ORDER"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusBilled    PurchaseOrderStatus = "BILLED"
	PurchaseOrderStatusLocked    PurchaseOrderStatus = "LOCKED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusRFQ, PurchaseOrderStatusRFQSent, PurchaseOrderStatusToApprove,
		PurchaseOrderStatusConfirmed, PurchaseOrderStatusReceived, PurchaseOrderStatusBilled,
		PurchaseOrderStatusLocked, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the status may move to target. The machine
// only moves forward; LOCKED and CANCELLED are terminal.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderStatusRFQ:
		return target == PurchaseOrderStatusRFQSent || target == PurchaseOrderStatusToApprove ||
			target == PurchaseOrderStatusConfirmed || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusRFQSent:
		return target == PurchaseOrderStatusToApprove || target == PurchaseOrderStatusConfirmed ||
			target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusToApprove:
		return target == PurchaseOrderStatusConfirmed || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusConfirmed:
		return target == PurchaseOrderStatusReceived || target == PurchaseOrderStatusBilled ||
			target == PurchaseOrderStatusLocked || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusReceived:
		return target == PurchaseOrderStatusBilled || target == PurchaseOrderStatusLocked
	case PurchaseOrderStatusBilled:
		return target == PurchaseOrderStatusLocked
	case PurchaseOrderStatusLocked, PurchaseOrderStatusCancelled:
		return false
	}
	return false
}

// PurchaseOrder is the procurement document that precedes a vendor bill.
// TotalAmount is always derived from the lines, never set by callers.
type PurchaseOrder struct {
	Id          string              `json:"id" gorm:"primaryKey"`
	TenantID    string              `json:"-" gorm:"type:uuid;not null;index:idx_orders_tenant_number,unique,priority:1"`
	OrderNumber string              `json:"order_number" gorm:"size:32;not null;index:idx_orders_tenant_number,unique,priority:2"`
	PartnerID   string              `json:"partner_id" gorm:"not null;index"`
	Partner     *Partner            `json:"partner,omitempty" gorm:"foreignKey:PartnerID;references:Id"`
	OrderDate   time.Time           `json:"order_date"`
	Status      PurchaseOrderStatus `json:"status" gorm:"size:20;not null"`
	TotalAmount decimal.Decimal     `json:"total_amount" gorm:"type:numeric(12,2)"`
	Lines       []PurchaseOrderLine `json:"lines" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	// LockVersion guards read-modify-write transitions. Every status change
	// must bump it and match the version it read.
	LockVersion int `json:"-" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (PurchaseOrder) TenantScoped() {}

func (order *PurchaseOrder) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if order.Id == "" {
		order.Id = uuid.NewString()
	}
	return
}

type PurchaseOrderLine struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	TenantID  string          `json:"-" gorm:"type:uuid;not null;index"`
	OrderID   string          `json:"-" gorm:"not null;index"`
	ProductID string          `json:"product_id" gorm:"not null;index"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:numeric(12,2);not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Uom       string          `json:"uom" gorm:"size:20"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2)"`
}

func (PurchaseOrderLine) TenantScoped() {}
