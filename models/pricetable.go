package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceTable is a named set of client-specific price overrides layered on top
// of standard catalog prices. A service with no item here keeps its standard
// price; items with a custom price of zero or below are never stored.
type PriceTable struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key"`
	LabID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name string `gorm:"not null"`

	Items []PriceTableItem `gorm:"foreignKey:PriceTableID"`

	gorm.Model
}

type PriceTableItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	PriceTableID uuid.UUID       `gorm:"type:uuid;index;not null"`
	ServiceID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	CustomPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (p *PriceTable) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

func (i *PriceTableItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
