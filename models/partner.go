package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Partner is a vendor/supplier the tenant trades with. Partners are shared
// references: many documents point at one partner, none owns it.
type Partner struct {
	Id          string `json:"id" gorm:"primaryKey"`
	TenantID    string `json:"-" gorm:"type:uuid;not null;index:idx_partners_tenant_name,unique,priority:1"`
	Name        string `json:"name" gorm:"not null;index:idx_partners_tenant_name,unique,priority:2"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Zip         string `json:"zip"`
	Active      bool   `json:"-" gorm:"default:true"`
}

func (Partner) TenantScoped() {}

func (partner *Partner) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if partner.Id == "" {
		partner.Id = uuid.NewString()
	}
	return
}
