package controllers

import (
	"strings"
	"time"

	"procurement-backend/database"
	"procurement-backend/services"

	"github.com/gofiber/fiber/v2"
)

// POST /api/vendor-bills/:id/post
func PostVendorBill(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing bill id in path")
	}

	wf := services.NewProcurementWorkflow(database.Tenant)
	bill, err := wf.PostBill(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(bill)
}

// GET /api/vendor-bills/:id
func GetVendorBill(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing bill id in path")
	}

	wf := services.NewProcurementWorkflow(database.Tenant)
	bill, err := wf.GetBill(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"bill":        bill,
		"balance_due": bill.BalanceDue(),
		"overdue":     bill.IsOverdue(time.Now().UTC()),
	})
}
