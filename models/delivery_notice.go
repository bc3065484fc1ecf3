// models/delivery_notice.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryNotice struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	LabID        uuid.UUID `gorm:"type:uuid;index;not null"`
	OrderID      uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID     uuid.UUID `gorm:"type:uuid;index;not null"`
	Kind         string    `gorm:"type:varchar(20)"` // due_today, completed
	Message      string    `gorm:"type:text"`
	Status       string    `gorm:"type:varchar(20)"` // sent, failed
	ErrorMessage string    `gorm:"type:text"`
	Channel      string    `gorm:"type:varchar(20)"` // whatsapp, sms
	SentAt       time.Time
	gorm.Model
}

func (d *DeliveryNotice) BeforeCreate(tx *gorm.DB) (err error) {
	d.ID = uuid.New()
	return
}
