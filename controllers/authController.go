package controllers

import (
	"strings"

	"procurement-backend/database"
	"procurement-backend/middlewares"
	"procurement-backend/models"

	"github.com/gofiber/fiber/v2"
)

type RegisterDTO struct {
	CompanyName     string `json:"company_name" validate:"required,min=1"`
	Country         string `json:"country" validate:"omitempty"`
	FirstName       string `json:"first_name" validate:"required,min=1"`
	LastName        string `json:"last_name" validate:"required,min=1"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/registration
// Creates a new tenant partition and its first user. These writes hit the
// public tables, so they use the raw handle, not the tenant-scoped one.
func Register(c *fiber.Ctx) error {
	var in RegisterDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Password != in.PasswordConfirm {
		return fiber.NewError(fiber.StatusBadRequest, "passwords do not match")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	var mailExist models.User
	database.DB.Where("email = ?", email).First(&mailExist)
	if mailExist.Email != "" {
		return fiber.NewError(fiber.StatusBadRequest, "email already exists")
	}

	tx := database.DB.Begin()

	tenant := models.Tenant{
		CompanyName: strings.TrimSpace(in.CompanyName),
		Country:     strings.TrimSpace(in.Country),
	}
	if err := tx.Create(&tenant).Error; err != nil {
		tx.Rollback()
		return fiber.NewError(fiber.StatusBadRequest, "could not create tenant")
	}

	user := models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		TenantID:  tenant.Id,
	}
	user.SetPassword(in.Password)
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return fiber.NewError(fiber.StatusBadRequest, "could not create user")
	}

	if err := tx.Commit().Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"tenant_id": tenant.Id,
		"user":      user,
	})
}

// POST /api/login
func Login(c *fiber.Ctx) error {
	var in LoginDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	var user models.User
	database.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(in.Email))).First(&user)
	if user.Id == "" || user.ComparePassword(in.Password) != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := middlewares.GenerateJWT(user.Id, user.TenantID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(fiber.Map{"token": token})
}
