package controllers

import (
	"errors"
	"strings"

	"procurement-backend/apperrors"
	"procurement-backend/database"
	"procurement-backend/middlewares"
	"procurement-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PartnerCreateDTO struct {
	Name        string `json:"name" validate:"required,min=1"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number" validate:"omitempty"`
	Address     string `json:"address" validate:"omitempty"`
	City        string `json:"city" validate:"omitempty"`
	Country     string `json:"country" validate:"omitempty"`
	Zip         string `json:"zip" validate:"omitempty"`
}

// POST /api/partners
func CreatePartner(c *fiber.Ctx) error {
	var in PartnerCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.Tenant.Scoped(c.UserContext())
	if err != nil {
		return err
	}

	partner := models.Partner{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		Country:     strings.TrimSpace(in.Country),
		Zip:         strings.TrimSpace(in.Zip),
		Active:      true,
	}
	if err := db.Create(&partner).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Validation("a partner with this name already exists")
		}
		return fiber.NewError(fiber.StatusBadRequest, "could not create partner")
	}
	return c.Status(fiber.StatusCreated).JSON(partner)
}

// GET /api/partners
func GetPartners(c *fiber.Ctx) error {
	db, err := database.Tenant.Scoped(c.UserContext())
	if err != nil {
		return err
	}
	var partners []models.Partner
	if err := db.Order("name").Find(&partners).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(partners)
}

// GET /api/partners/:id
func GetPartner(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing partner id in path")
	}
	db, err := database.Tenant.Scoped(c.UserContext())
	if err != nil {
		return err
	}
	var partner models.Partner
	if err := db.First(&partner, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("partner")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(partner)
}
