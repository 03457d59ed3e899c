package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement-backend/apperrors"
	"procurement-backend/database"
	"procurement-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VATRate is the fixed value-added tax applied to bill line net amounts.
var VATRate = decimal.NewFromFloat(0.14)

// defaultPaymentTermDays is the net payment term applied to new bills.
const defaultPaymentTermDays = 30

// RFQLineInput is one requested line of a new RFQ.
type RFQLineInput struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Uom       string
}

// CreateRFQInput carries the validated input for CreateRFQ.
type CreateRFQInput struct {
	PartnerID string
	OrderDate time.Time
	Lines     []RFQLineInput
}

// ProcurementWorkflow drives the purchase-order → vendor-bill lifecycle.
// Every transition is a read-modify-write inside one transaction, guarded
// by the document's lock_version so concurrent calls serialize: the loser
// observes zero affected rows and fails instead of silently re-applying.
type ProcurementWorkflow struct {
	db *database.TenantDB
}

func NewProcurementWorkflow(db *database.TenantDB) *ProcurementWorkflow {
	return &ProcurementWorkflow{db: db}
}

// newDocumentNumber generates a reference like PO-9F3A2B1C4D.
func newDocumentNumber(prefix string) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s", prefix, raw[:10])
}

// CreateRFQ creates a new purchase order in state RFQ. The order total is
// derived from the lines; callers cannot set it.
func (w *ProcurementWorkflow) CreateRFQ(ctx context.Context, in CreateRFQInput) (*models.PurchaseOrder, error) {
	if in.PartnerID == "" {
		return nil, apperrors.Validation("partner_id is required")
	}
	if len(in.Lines) == 0 {
		return nil, apperrors.Validation("at least one order line is required")
	}
	for i, l := range in.Lines {
		if l.ProductID == "" {
			return nil, apperrors.Validation(fmt.Sprintf("line %d: product_id is required", i))
		}
		if !l.Quantity.IsPositive() {
			return nil, apperrors.Validation(fmt.Sprintf("line %d: quantity must be positive", i))
		}
		if l.UnitPrice.IsNegative() {
			return nil, apperrors.Validation(fmt.Sprintf("line %d: unit price cannot be negative", i))
		}
	}
	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}

	var order models.PurchaseOrder
	err := w.db.Transaction(ctx, func(tx *gorm.DB) error {
		var partner models.Partner
		if err := tx.First(&partner, "id = ?", in.PartnerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Validation("unknown partner")
			}
			return err
		}

		total := decimal.Zero
		lines := make([]models.PurchaseOrderLine, 0, len(in.Lines))
		for _, l := range in.Lines {
			var product models.Product
			if err := tx.First(&product, "id = ?", l.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.Validation("unknown product " + l.ProductID)
				}
				return err
			}
			uom := l.Uom
			if uom == "" {
				uom = product.Uom
			}
			subtotal := l.Quantity.Mul(l.UnitPrice).Round(2)
			total = total.Add(subtotal)
			lines = append(lines, models.PurchaseOrderLine{
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
				Uom:       uom,
				Subtotal:  subtotal,
			})
		}

		order = models.PurchaseOrder{
			OrderNumber: newDocumentNumber("PO"),
			PartnerID:   in.PartnerID,
			OrderDate:   orderDate,
			Status:      models.PurchaseOrderStatusRFQ,
			TotalAmount: total,
			Lines:       lines,
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ConfirmOrder moves an order from RFQ/RFQ_SENT to PURCHASE_ORDER. Of two
// concurrent confirmations exactly one succeeds; the other fails with an
// invalid-state error instead of silently confirming twice.
func (w *ProcurementWorkflow) ConfirmOrder(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := w.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("purchase order")
			}
			return err
		}
		if order.Status != models.PurchaseOrderStatusRFQ && order.Status != models.PurchaseOrderStatusRFQSent {
			return apperrors.InvalidState("purchase order", order.Status.String(), models.PurchaseOrderStatusConfirmed.String())
		}
		res := tx.Model(&models.PurchaseOrder{}).
			Where("id = ? AND lock_version = ?", id, order.LockVersion).
			Updates(map[string]any{
				"status":       models.PurchaseOrderStatusConfirmed,
				"lock_version": order.LockVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent transition already consumed this version.
			return apperrors.InvalidState("purchase order", order.Status.String(), models.PurchaseOrderStatusConfirmed.String())
		}
		order.Status = models.PurchaseOrderStatusConfirmed
		order.LockVersion++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateBillFromOrder turns a confirmed (or received) order into a DRAFT
// vendor bill. Header, lines, totals and the order's move to BILLED all
// commit in one transaction; any failure rolls every step back.
//
// Orders in RECEIVED are accepted alongside PURCHASE_ORDER: whether a
// goods receipt should be mandatory before billing is an open product
// decision, so billing stays permissive for now.
func (w *ProcurementWorkflow) CreateBillFromOrder(ctx context.Context, orderID, vendorReference string) (*models.VendorBill, error) {
	var bill models.VendorBill
	err := w.db.Transaction(ctx, func(tx *gorm.DB) error {
		var order models.PurchaseOrder
		if err := tx.Preload("Lines").First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("purchase order")
			}
			return err
		}
		if order.Status != models.PurchaseOrderStatusConfirmed && order.Status != models.PurchaseOrderStatusReceived {
			return apperrors.InvalidState("purchase order", order.Status.String(), models.PurchaseOrderStatusBilled.String())
		}

		ref := strings.TrimSpace(vendorReference)
		if ref == "" {
			ref = newDocumentNumber("VB")
		}
		now := time.Now().UTC()
		due := now.AddDate(0, 0, defaultPaymentTermDays)

		bill = models.VendorBill{
			BillReference:   ref,
			PartnerID:       order.PartnerID,
			PurchaseOrderID: &order.Id,
			Type:            models.VendorBillTypeBill,
			Status:          models.VendorBillStatusDraft,
			ReceivedAt:      now,
			DueDate:         &due,
		}
		if err := tx.Create(&bill).Error; err != nil {
			return err
		}

		net := decimal.Zero
		tax := decimal.Zero
		for _, line := range order.Lines {
			var product models.Product
			if err := tx.First(&product, "id = ?", line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.Validation("order line references unknown product " + line.ProductID)
				}
				return err
			}
			lineNet := line.Quantity.Mul(line.UnitPrice).Round(2)
			lineTax := lineNet.Mul(VATRate).Round(2)
			billLine := models.VendorBillLine{
				BillID:      bill.Id,
				ProductID:   line.ProductID,
				Description: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				TaxAmount:   lineTax,
				LineTotal:   lineNet.Add(lineTax),
			}
			if err := tx.Create(&billLine).Error; err != nil {
				return err
			}
			bill.Lines = append(bill.Lines, billLine)
			net = net.Add(lineNet)
			tax = tax.Add(lineTax)
		}

		total := net.Add(tax)
		if err := tx.Model(&models.VendorBill{}).
			Where("id = ?", bill.Id).
			Updates(map[string]any{
				"net_amount":   net,
				"tax_amount":   tax,
				"total_amount": total,
			}).Error; err != nil {
			return err
		}
		bill.NetAmount = net
		bill.TaxAmount = tax
		bill.TotalAmount = total

		res := tx.Model(&models.PurchaseOrder{}).
			Where("id = ? AND lock_version = ?", order.Id, order.LockVersion).
			Updates(map[string]any{
				"status":       models.PurchaseOrderStatusBilled,
				"lock_version": order.LockVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.InvalidState("purchase order", order.Status.String(), models.PurchaseOrderStatusBilled.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// PostBill moves a bill from DRAFT to POSTED. Two concurrent posts on the
// same draft resolve to exactly one POSTED outcome.
func (w *ProcurementWorkflow) PostBill(ctx context.Context, id string) (*models.VendorBill, error) {
	var bill models.VendorBill
	err := w.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&bill, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("vendor bill")
			}
			return err
		}
		if bill.Status != models.VendorBillStatusDraft {
			return apperrors.InvalidState("vendor bill", bill.Status.String(), models.VendorBillStatusPosted.String())
		}
		res := tx.Model(&models.VendorBill{}).
			Where("id = ? AND lock_version = ?", id, bill.LockVersion).
			Updates(map[string]any{
				"status":       models.VendorBillStatusPosted,
				"lock_version": bill.LockVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.InvalidState("vendor bill", bill.Status.String(), models.VendorBillStatusPosted.String())
		}
		bill.Status = models.VendorBillStatusPosted
		bill.LockVersion++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// GetOrder fetches one order with its lines and partner. Rows belonging to
// another tenant are indistinguishable from absent rows.
func (w *ProcurementWorkflow) GetOrder(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	db, err := w.db.Scoped(ctx)
	if err != nil {
		return nil, err
	}
	var order models.PurchaseOrder
	if err := db.Preload("Lines").Preload("Partner").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("purchase order")
		}
		return nil, err
	}
	return &order, nil
}

// GetBill fetches one bill with its lines and partner.
func (w *ProcurementWorkflow) GetBill(ctx context.Context, id string) (*models.VendorBill, error) {
	db, err := w.db.Scoped(ctx)
	if err != nil {
		return nil, err
	}
	var bill models.VendorBill
	if err := db.Preload("Lines").Preload("Partner").First(&bill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("vendor bill")
		}
		return nil, err
	}
	return &bill, nil
}
