package controllers

import (
	"strings"
	"time"

	"procurement-backend/database"
	"procurement-backend/middlewares"
	"procurement-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type RFQLineDTO struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
	Uom       string          `json:"uom" validate:"omitempty,max=20"`
}

type RFQCreateDTO struct {
	PartnerID string       `json:"partner_id" validate:"required"`
	OrderDate *time.Time   `json:"order_date" validate:"omitempty"`
	Lines     []RFQLineDTO `json:"lines" validate:"required,min=1,dive"`
}

type CreateBillDTO struct {
	VendorReference string `json:"vendor_reference" validate:"omitempty,max=64"`
}

// POST /api/purchase-orders  (idempotent — guarded by Idempotency-Key)
func CreatePurchaseOrder(c *fiber.Ctx) error {
	var in RFQCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	input := services.CreateRFQInput{PartnerID: strings.TrimSpace(in.PartnerID)}
	if in.OrderDate != nil {
		input.OrderDate = *in.OrderDate
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, services.RFQLineInput{
			ProductID: strings.TrimSpace(l.ProductID),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Uom:       strings.TrimSpace(l.Uom),
		})
	}

	wf := services.NewProcurementWorkflow(database.Tenant)
	order, err := wf.CreateRFQ(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// POST /api/purchase-orders/:id/confirm
func ConfirmPurchaseOrder(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing order id in path")
	}

	wf := services.NewProcurementWorkflow(database.Tenant)
	order, err := wf.ConfirmOrder(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// POST /api/purchase-orders/:id/bill
func CreateVendorBill(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing order id in path")
	}

	var in CreateBillDTO
	if len(c.Body()) > 0 {
		if err := middlewares.BindAndValidate(c, &in); err != nil {
			return err
		}
	}

	wf := services.NewProcurementWorkflow(database.Tenant)
	bill, err := wf.CreateBillFromOrder(c.UserContext(), id, in.VendorReference)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(bill)
}

// GET /api/purchase-orders/:id
func GetPurchaseOrder(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing order id in path")
	}

	wf := services.NewProcurementWorkflow(database.Tenant)
	order, err := wf.GetOrder(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(order)
}
