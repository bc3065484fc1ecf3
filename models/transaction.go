package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionDebit  = "debit"
	TransactionCredit = "credit"
)

// Transaction is a client ledger entry. Debits are generated from completed
// orders (OrderID set); credits are manual payments and never reference an
// order. A single order never has more than one outstanding debit.
type Transaction struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key"`
	LabID uuid.UUID `gorm:"type:uuid;index;not null"`

	ClientID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientName string    `gorm:"not null"`

	Type        string          `gorm:"type:varchar(10);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Date        time.Time       `gorm:"not null"`
	Description string

	OrderID *uuid.UUID `gorm:"type:uuid;index"`

	gorm.Model
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
