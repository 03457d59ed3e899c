package controllers

import (
	"strings"
	"time"

	"procurement-backend/database"
	"procurement-backend/services"

	"github.com/gofiber/fiber/v2"
)

// GET /api/reports/ap-aging?partner_id=&as_of=2026-08-28
func GetAgingReport(c *fiber.Ctx) error {
	partnerID := strings.TrimSpace(c.Query("partner_id"))

	var asOf time.Time
	if raw := strings.TrimSpace(c.Query("as_of")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "as_of must be formatted as YYYY-MM-DD")
		}
		asOf = parsed
	}

	engine := services.NewAgingReportEngine(database.Tenant)
	rows, err := engine.GetAgingReport(c.UserContext(), partnerID, asOf)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"rows": rows})
}
