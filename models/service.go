package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a catalog entry (a prosthesis type the lab produces).
// Material is a grouping tag for the resolved price list.
type Service struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key"`
	LabID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name          string          `gorm:"not null"`
	Material      string          `gorm:"default:'General'"`
	StandardPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IsActive      bool            `gorm:"default:true"`

	gorm.Model
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
