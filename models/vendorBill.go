package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VendorBillStatus string

const (
	VendorBillStatusDraft     VendorBillStatus = "DRAFT"
	VendorBillStatusPosted    VendorBillStatus = "POSTED"
	VendorBillStatusPaid      VendorBillStatus = "PAID"
	VendorBillStatusCancelled VendorBillStatus = "CANCELLED"
)

func (s VendorBillStatus) IsValid() bool {
	switch s {
	case VendorBillStatusDraft, VendorBillStatusPosted, VendorBillStatusPaid, VendorBillStatusCancelled:
		return true
	}
	return false
}

func (s VendorBillStatus) String() string {
	return string(s)
}

func (s VendorBillStatus) CanTransitionTo(target VendorBillStatus) bool {
	switch s {
	case VendorBillStatusDraft:
		return target == VendorBillStatusPosted || target == VendorBillStatusCancelled
	case VendorBillStatusPosted:
		return target == VendorBillStatusPaid || target == VendorBillStatusCancelled
	case VendorBillStatusPaid, VendorBillStatusCancelled:
		return false
	}
	return false
}

type VendorBillType string

const (
	VendorBillTypeBill       VendorBillType = "BILL"
	VendorBillTypeCreditNote VendorBillType = "CREDIT_NOTE"
	VendorBillTypeDebitNote  VendorBillType = "DEBIT_NOTE"
)

// VendorBill is an obligation towards a partner. Credit and debit notes
// point back at the bill they correct via OriginalBillID; the reference is
// an id only, never a loaded object graph, so the relation stays acyclic.
type VendorBill struct {
	Id            string  `json:"id" gorm:"primaryKey"`
	TenantID      string  `json:"-" gorm:"type:uuid;not null;index:idx_bills_tenant_ref,unique,priority:1"`
	BillReference string  `json:"bill_reference" gorm:"size:64;not null;index:idx_bills_tenant_ref,unique,priority:2"`
	PartnerID     string  `json:"partner_id" gorm:"not null;index"`
	Partner       *Partner `json:"partner,omitempty" gorm:"foreignKey:PartnerID;references:Id"`

	PurchaseOrderID *string `json:"purchase_order_id,omitempty" gorm:"index"`
	OriginalBillID  *string `json:"original_bill_id,omitempty" gorm:"index"`

	Type   VendorBillType   `json:"type" gorm:"size:20;not null"`
	Status VendorBillStatus `json:"status" gorm:"size:20;not null"`

	ReceivedAt time.Time  `json:"received_at"`
	DueDate    *time.Time `json:"due_date"`

	NetAmount   decimal.Decimal `json:"net_amount" gorm:"type:numeric(12,2)"`
	TaxAmount   decimal.Decimal `json:"tax_amount" gorm:"type:numeric(12,2)"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2)"`
	AmountPaid  decimal.Decimal `json:"amount_paid" gorm:"type:numeric(12,2)"`

	Lines []VendorBillLine `json:"lines" gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE"`

	LockVersion int `json:"-" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (VendorBill) TenantScoped() {}

func (bill *VendorBill) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if bill.Id == "" {
		bill.Id = uuid.NewString()
	}
	return
}

// BalanceDue is the outstanding amount on the bill.
func (bill *VendorBill) BalanceDue() decimal.Decimal {
	return bill.TotalAmount.Sub(bill.AmountPaid)
}

// IsOverdue reports whether the bill is unpaid past its due date.
func (bill *VendorBill) IsOverdue(now time.Time) bool {
	return bill.Status != VendorBillStatusPaid && bill.DueDate != nil && bill.DueDate.Before(now)
}

type VendorBillLine struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	TenantID    string          `json:"-" gorm:"type:uuid;not null;index"`
	BillID      string          `json:"-" gorm:"not null;index"`
	ProductID   string          `json:"product_id" gorm:"not null;index"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:numeric(12,2);not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Discount    decimal.Decimal `json:"discount" gorm:"type:numeric(12,2)"`
	TaxAmount   decimal.Decimal `json:"tax_amount" gorm:"type:numeric(12,2)"`
	LineTotal   decimal.Decimal `json:"line_total" gorm:"type:numeric(12,2)"`
}

func (VendorBillLine) TenantScoped() {}
