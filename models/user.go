package models

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Tenant is the isolated organization partition every document belongs to.
// It lives outside the tenant-scoped tables; its id is the isolation key.
type Tenant struct {
	Id          string `json:"id" gorm:"primaryKey"`
	CompanyName string `json:"company_name" gorm:"not null;unique"`
	Country     string `json:"country"`
}

func (tenant *Tenant) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if tenant.Id == "" {
		tenant.Id = uuid.NewString()
	}
	return
}

// User authenticates against the public tables; lookups by email happen
// before any tenant context exists, so User deliberately does not implement
// TenantScoped.
type User struct {
	Id        string `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name" gorm:"not null"`
	LastName  string `json:"last_name" gorm:"not null"`
	Password  []byte `json:"-" gorm:"not null"`
	Email     string `json:"email" gorm:"unique;not null"`
	TenantID  string `json:"-" gorm:"type:uuid;not null;index"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	return
}

func (user *User) SetPassword(password string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), 12)
	user.Password = hashedPassword
}

func (user *User) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(user.Password, []byte(password))
}
