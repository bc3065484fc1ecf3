package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// ServiceOrder is the work ticket aggregate. Client name, item prices and
// employee names are snapshots taken at authoring time so billed amounts stay
// historically accurate even if the source records change later.
type ServiceOrder struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	LabID           uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Number      int       `gorm:"index:idx_lab_order_number;not null"`
	ClientID    uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientName  string    `gorm:"not null"`
	PatientName string

	OpenDate       time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	DeliveryDate   *time.Time
	CompletionDate *time.Time

	Status string `gorm:"type:varchar(20);default:'pending'"`

	Items     []ServiceOrderItem `gorm:"foreignKey:OrderID"`
	Employees []OrderEmployee    `gorm:"foreignKey:OrderID"`

	TotalValue      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CommissionValue decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	IsPaid       bool `gorm:"default:false"`
	Observations string

	gorm.Model
}

// ServiceOrderItem is a priced line. Price is the unit price resolved for the
// order's client when the service was selected, not a live catalog reference.
type ServiceOrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	ServiceID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	ServiceName string          `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity    int             `gorm:"default:1"`
	ToothNumber string
	Color       string
}

// OrderEmployee is a commission split. CommissionValue is computed and
// snapshotted at save time from the order total and the entered percentage.
type OrderEmployee struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID              uuid.UUID       `gorm:"type:uuid;index;not null"`
	EmployeeID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	EmployeeName         string          `gorm:"not null"`
	CommissionPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	CommissionValue      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (o *ServiceOrder) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}

func (i *ServiceOrderItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (e *OrderEmployee) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
