package services

import (
	"context"
	"sync"
	"testing"

	"procurement-backend/apperrors"
	"procurement-backend/database"
	"procurement-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedConfirmedOrder(t *testing.T, db *database.TenantDB, ctx context.Context, qty, price float64) *models.PurchaseOrder {
	t.Helper()
	partner := seedPartner(t, db, ctx, "Acme Supplies")
	product := seedProduct(t, db, ctx, "Steel Bolt M8", price)

	wf := NewProcurementWorkflow(db)
	order, err := wf.CreateRFQ(ctx, CreateRFQInput{
		PartnerID: partner.Id,
		Lines: []RFQLineInput{{
			ProductID: product.Id,
			Quantity:  decimal.NewFromFloat(qty),
			UnitPrice: decimal.NewFromFloat(price),
		}},
	})
	require.NoError(t, err)
	confirmed, err := wf.ConfirmOrder(ctx, order.Id)
	require.NoError(t, err)
	return confirmed
}

func TestCreateRFQ(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	partner := seedPartner(t, db, ctx, "Acme Supplies")
	product := seedProduct(t, db, ctx, "Steel Bolt M8", 50)

	wf := NewProcurementWorkflow(db)
	order, err := wf.CreateRFQ(ctx, CreateRFQInput{
		PartnerID: partner.Id,
		Lines: []RFQLineInput{
			{ProductID: product.Id, Quantity: decimal.NewFromInt(100), UnitPrice: decimal.NewFromInt(50)},
			{ProductID: product.Id, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromFloat(1.25)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PurchaseOrderStatusRFQ, order.Status)
	assert.NotEmpty(t, order.OrderNumber)
	require.Len(t, order.Lines, 2)
	assert.True(t, order.Lines[0].Subtotal.Equal(decimal.NewFromInt(5000)),
		"got %s", order.Lines[0].Subtotal)
	assert.True(t, order.Lines[1].Subtotal.Equal(decimal.NewFromFloat(2.5)))
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(5002.5)),
		"total derived from lines, got %s", order.TotalAmount)
	// unit of measure defaults from the product
	assert.Equal(t, "unit", order.Lines[0].Uom)
}

func TestCreateRFQ_Validation(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	partner := seedPartner(t, db, ctx, "Acme Supplies")
	product := seedProduct(t, db, ctx, "Steel Bolt M8", 50)
	wf := NewProcurementWorkflow(db)

	tests := []struct {
		name string
		in   CreateRFQInput
	}{
		{"missing partner", CreateRFQInput{Lines: []RFQLineInput{{ProductID: product.Id, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}}}},
		{"no lines", CreateRFQInput{PartnerID: partner.Id}},
		{"zero quantity", CreateRFQInput{PartnerID: partner.Id, Lines: []RFQLineInput{{ProductID: product.Id, Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(1)}}}},
		{"negative price", CreateRFQInput{PartnerID: partner.Id, Lines: []RFQLineInput{{ProductID: product.Id, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-1)}}}},
		{"unknown partner", CreateRFQInput{PartnerID: "nope", Lines: []RFQLineInput{{ProductID: product.Id, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}}}},
		{"unknown product", CreateRFQInput{PartnerID: partner.Id, Lines: []RFQLineInput{{ProductID: "nope", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wf.CreateRFQ(ctx, tt.in)
			var ae *apperrors.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperrors.CodeValidation, ae.Code)
		})
	}
}

func TestConfirmOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	partner := seedPartner(t, db, ctx, "Acme Supplies")
	product := seedProduct(t, db, ctx, "Steel Bolt M8", 50)
	wf := NewProcurementWorkflow(db)

	order, err := wf.CreateRFQ(ctx, CreateRFQInput{
		PartnerID: partner.Id,
		Lines:     []RFQLineInput{{ProductID: product.Id, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)

	confirmed, err := wf.ConfirmOrder(ctx, order.Id)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseOrderStatusConfirmed, confirmed.Status)

	// persisted, not just returned
	reloaded, err := wf.GetOrder(ctx, order.Id)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseOrderStatusConfirmed, reloaded.Status)

	// confirming again is an invalid transition
	_, err = wf.ConfirmOrder(ctx, order.Id)
	var ae *apperrors.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperrors.CodeInvalidState, ae.Code)
}

func TestConfirmOrder_FromLockedFails(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	order := seedConfirmedOrder(t, db, ctx, 1, 10)

	scoped, err := db.Scoped(ctx)
	require.NoError(t, err)
	require.NoError(t, scoped.Model(&models.PurchaseOrder{}).
		Where("id = ?", order.Id).
		Update("status", models.PurchaseOrderStatusLocked).Error)

	wf := NewProcurementWorkflow(db)
	_, err = wf.ConfirmOrder(ctx, order.Id)
	var ae *apperrors.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperrors.CodeInvalidState, ae.Code)
	assert.Equal(t, "LOCKED", ae.Details["from"])
}

func TestConfirmOrder_NotFoundAndCrossTenant(t *testing.T) {
	db := newTestDB(t)
	ctxA := newTenantContext()
	ctxB := newTenantContext()
	partner := seedPartner(t, db, ctxA, "Acme Supplies")
	product := seedProduct(t, db, ctxA, "Steel Bolt M8", 50)
	wf := NewProcurementWorkflow(db)

	order, err := wf.CreateRFQ(ctxA, CreateRFQInput{
		PartnerID: partner.Id,
		Lines:     []RFQLineInput{{ProductID: product.Id, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)

	// Cross-tenant access reads exactly like a missing row.
	_, err = wf.ConfirmOrder(ctxB, order.Id)
	var ae *apperrors.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperrors.CodeNotFound, ae.Code)

	_, err = wf.ConfirmOrder(ctxA, "does-not-exist")
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperrors.CodeNotFound, ae.Code)
}

func TestCreateBillFromOrder_Totals(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	order := seedConfirmedOrder(t, db, ctx, 100, 50)

	wf := NewProcurementWorkflow(db)
	bill, err := wf.CreateBillFromOrder(ctx, order.Id, "")
	require.NoError(t, err)

	assert.True(t, bill.NetAmount.Equal(decimal.NewFromInt(5000)), "net %s", bill.NetAmount)
	assert.True(t, bill.TaxAmount.Equal(decimal.NewFromInt(700)), "tax %s", bill.TaxAmount)
	assert.True(t, bill.TotalAmount.Equal(decimal.NewFromInt(5700)), "total %s", bill.TotalAmount)
	assert.Equal(t, models.VendorBillStatusDraft, bill.Status)
	assert.Equal(t, models.VendorBillTypeBill, bill.Type)
	require.NotNil(t, bill.PurchaseOrderID)
	assert.Equal(t, order.Id, *bill.PurchaseOrderID)
	assert.NotNil(t, bill.DueDate)
	assert.NotEmpty(t, bill.BillReference, "vendor reference defaulted when omitted")
	require.Len(t, bill.Lines, 1)
	assert.Equal(t, "Steel Bolt M8", bill.Lines[0].Description, "description defaults from product name")
	assert.True(t, bill.Lines[0].TaxAmount.Equal(decimal.NewFromInt(700)))
	assert.True(t, bill.Lines[0].LineTotal.Equal(decimal.NewFromInt(5700)))

	// source order moved to BILLED
	reloaded, err := wf.GetOrder(ctx, order.Id)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseOrderStatusBilled, reloaded.Status)
}

func TestCreateBillFromOrder_UsesSuppliedVendorReference(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	order := seedConfirmedOrder(t, db, ctx, 1, 10)

	wf := NewProcurementWorkflow(db)
	bill, err := wf.CreateBillFromOrder(ctx, order.Id, "INV-2026-042")
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-042", bill.BillReference)
}

func TestCreateBillFromOrder_InvalidStates(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	partner := seedPartner(t, db, ctx, "Acme Supplies")
	product := seedProduct(t, db, ctx, "Steel Bolt M8", 50)
	wf := NewProcurementWorkflow(db)

	// unconfirmed order cannot be billed
	rfq, err := wf.CreateRFQ(ctx, CreateRFQInput{
		PartnerID: partner.Id,
		Lines:     []RFQLineInput{{ProductID: product.Id, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	_, err = wf.CreateBillFromOrder(ctx, rfq.Id, "")
	var ae *apperrors.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperrors.CodeInvalidState, ae.Code)
}

func TestCreateBillFromOrder_SecondBillRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	order := seedConfirmedOrder(t, db, ctx, 100, 50)
	wf := NewProcurementWorkflow(db)

	_, err := wf.CreateBillFromOrder(ctx, order.Id, "")
	require.NoError(t, err)

	// The order now shows BILLED, so a second bill is refused.
	_, err = wf.CreateBillFromOrder(ctx, order.Id, "")
	var ae *apperrors.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperrors.CodeInvalidState, ae.Code)
	assert.Equal(t, "BILLED", ae.Details["from"])
}

func TestCreateBillFromOrder_RollsBackCompletely(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	order := seedConfirmedOrder(t, db, ctx, 100, 50)

	// Break step 3: the line's product vanishes after order creation, so
	// bill-line creation fails mid-transaction.
	scoped, err := db.Scoped(ctx)
	require.NoError(t, err)
	require.NoError(t, scoped.Where("name = ?", "Steel Bolt M8").Delete(&models.Product{}).Error)

	wf := NewProcurementWorkflow(db)
	_, err = wf.CreateBillFromOrder(ctx, order.Id, "")
	require.Error(t, err)

	// Neither the bill header nor any line survived.
	var billCount, lineCount int64
	require.NoError(t, scoped.Model(&models.VendorBill{}).Count(&billCount).Error)
	require.NoError(t, scoped.Model(&models.VendorBillLine{}).Count(&lineCount).Error)
	assert.Zero(t, billCount)
	assert.Zero(t, lineCount)

	// And the order status is untouched.
	reloaded, err := wf.GetOrder(ctx, order.Id)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseOrderStatusConfirmed, reloaded.Status)
}

func TestPostBill(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	order := seedConfirmedOrder(t, db, ctx, 100, 50)
	wf := NewProcurementWorkflow(db)

	bill, err := wf.CreateBillFromOrder(ctx, order.Id, "")
	require.NoError(t, err)

	posted, err := wf.PostBill(ctx, bill.Id)
	require.NoError(t, err)
	assert.Equal(t, models.VendorBillStatusPosted, posted.Status)

	// a second post is rejected
	_, err = wf.PostBill(ctx, bill.Id)
	var ae *apperrors.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperrors.CodeInvalidState, ae.Code)
	assert.Equal(t, "POSTED", ae.Details["from"])
}

func TestPostBill_ConcurrentPostsResolveToOne(t *testing.T) {
	db := newTestDB(t)
	ctx := newTenantContext()
	order := seedConfirmedOrder(t, db, ctx, 100, 50)
	wf := NewProcurementWorkflow(db)

	bill, err := wf.CreateBillFromOrder(ctx, order.Id, "")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := wf.PostBill(ctx, bill.Id)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			var ae *apperrors.Error
			if assert.ErrorAs(t, err, &ae) {
				assert.Equal(t, apperrors.CodeInvalidState, ae.Code)
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one POSTED outcome")
	assert.Equal(t, 1, rejected)
}

func TestGetBill_NotFoundAcrossTenants(t *testing.T) {
	db := newTestDB(t)
	ctxA := newTenantContext()
	ctxB := newTenantContext()
	order := seedConfirmedOrder(t, db, ctxA, 1, 10)
	wf := NewProcurementWorkflow(db)

	bill, err := wf.CreateBillFromOrder(ctxA, order.Id, "")
	require.NoError(t, err)

	_, err = wf.GetBill(ctxB, bill.Id)
	var ae *apperrors.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperrors.CodeNotFound, ae.Code)
}
