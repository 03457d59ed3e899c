package middlewares

import (
	"errors"
	"log"

	"procurement-backend/apperrors"
	"procurement-backend/database"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Domain errors carry their own code and status mapping
	var ae *apperrors.Error
	if errors.As(err, &ae) {
		body := fiber.Map{"code": ae.Code, "message": ae.Message}
		if len(ae.Details) > 0 {
			body["details"] = ae.Details
		}
		return c.Status(ae.HTTPStatus()).JSON(body)
	}

	// 2) Missing tenant context means the request never authenticated
	if errors.Is(err, database.ErrTenantRequired) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "tenant context missing"})
	}

	// 3) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 4) Validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 5) Unknown errors (500)
	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
