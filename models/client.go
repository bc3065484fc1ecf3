package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a dentist or clinic the lab produces for. PriceTableID is a weak
// reference: a dangling or absent value means standard catalog prices apply.
type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	LabID           uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name    string `gorm:"not null"`
	Phone   string `gorm:"not null;uniqueIndex:idx_lab_client_phone,priority:2"`
	Email   string
	Address string
	Notes   string

	PriceTableID *uuid.UUID `gorm:"type:uuid;index"`

	IsActive bool `gorm:"default:true"`

	Orders       []ServiceOrder `gorm:"foreignKey:ClientID"`
	Transactions []Transaction  `gorm:"foreignKey:ClientID"`

	gorm.Model
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
