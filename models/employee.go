package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Employee is a lab technician. DefaultCommission is only a form default;
// the percentage actually applied is entered per order.
type Employee struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key"`
	LabID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name              string          `gorm:"not null"`
	Phone             string
	Role              string          `gorm:"default:'technician'"`
	DefaultCommission decimal.Decimal `gorm:"type:decimal(5,2);default:0"`
	IsActive          bool            `gorm:"default:true"`

	gorm.Model
}

func (e *Employee) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
