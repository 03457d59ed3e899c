package routes

import (
	"github.com/gofiber/fiber/v2"

	"procurement-backend/controllers"
	"procurement-backend/database"
	"procurement-backend/middlewares"
	"procurement-backend/services"
)

// idempotentOperations statically declares which operations require an
// Idempotency-Key. The guard consults this registry instead of any
// reflective per-route metadata.
var idempotentOperations = map[string]bool{
	"POST /api/purchase-orders": true,
}

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)

	// Protected endpoints (JWT auth binds the TenantContext)
	protected := api.Group("")
	protected.Use(middlewares.Authenticated())

	// Idempotency guard runs after auth (it needs the tenant) and before
	// any handler so replays never reach the workflow.
	protected.Use(middlewares.IdempotencyGuard(
		services.NewIdempotencyService(database.Tenant),
		idempotentOperations,
	))

	// Partners & products (shared references)
	protected.Post("/partners", controllers.CreatePartner)
	protected.Get("/partners", controllers.GetPartners)
	protected.Get("/partners/:id", controllers.GetPartner)
	protected.Post("/products", controllers.CreateProduct)
	protected.Get("/products", controllers.GetProducts)

	// Procurement workflow
	protected.Post("/purchase-orders", controllers.CreatePurchaseOrder)
	protected.Get("/purchase-orders/:id", controllers.GetPurchaseOrder)
	protected.Post("/purchase-orders/:id/confirm", controllers.ConfirmPurchaseOrder)
	protected.Post("/purchase-orders/:id/bill", controllers.CreateVendorBill)

	// Vendor bills
	protected.Post("/vendor-bills/:id/post", controllers.PostVendorBill)
	protected.Get("/vendor-bills/:id", controllers.GetVendorBill)

	// Reports
	protected.Get("/reports/ap-aging", controllers.GetAgingReport)
}
