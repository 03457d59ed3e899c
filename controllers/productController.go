package controllers

import (
	"errors"
	"strings"

	"procurement-backend/apperrors"
	"procurement-backend/database"
	"procurement-backend/middlewares"
	"procurement-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductCreateDTO struct {
	Name        string          `json:"name" validate:"required,min=1"`
	Description string          `json:"description" validate:"omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Uom         string          `json:"uom" validate:"omitempty,max=20"`
}

// POST /api/products
func CreateProduct(c *fiber.Ctx) error {
	var in ProductCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.UnitPrice.IsNegative() {
		return apperrors.Validation("unit price cannot be negative")
	}

	db, err := database.Tenant.Scoped(c.UserContext())
	if err != nil {
		return err
	}

	uom := strings.TrimSpace(in.Uom)
	if uom == "" {
		uom = "unit"
	}
	product := models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		UnitPrice:   in.UnitPrice.Round(2),
		Uom:         uom,
		Active:      true,
	}
	if err := db.Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Validation("a product with this name already exists")
		}
		return fiber.NewError(fiber.StatusBadRequest, "could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// GET /api/products
func GetProducts(c *fiber.Ctx) error {
	db, err := database.Tenant.Scoped(c.UserContext())
	if err != nil {
		return err
	}
	var products []models.Product
	if err := db.Order("name").Find(&products).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(products)
}
