// services/composer.go
package services

import (
	"fmt"

	"prosthelab-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var oneHundred = decimal.NewFromInt(100)

// LineInput is a selected service with its unit price already resolved.
// The price is whatever was snapshotted at selection time: the client's
// display price for a new line, or the stored price when re-saving an
// existing line, so later catalog edits never change an order being built.
type LineInput struct {
	Service     models.Service
	UnitPrice   decimal.Decimal
	Quantity    int
	ToothNumber string
	Color       string
}

// AssignmentInput pairs an employee with the percentage entered for this
// order. The employee's default percentage is a form hint only.
type AssignmentInput struct {
	Employee   models.Employee
	Percentage decimal.Decimal
}

// ComposedOrder carries the snapshot rows and derived totals for an order
// about to be persisted.
type ComposedOrder struct {
	Items           []models.ServiceOrderItem
	Employees       []models.OrderEmployee
	TotalValue      decimal.Decimal
	CommissionValue decimal.Decimal
}

// ComposeOrder turns selected lines and commission assignments into snapshot
// rows with derived totals. It is pure and performs all order-level
// validation before anything touches the store.
func ComposeOrder(lines []LineInput, assignments []AssignmentInput) (*ComposedOrder, error) {
	if len(lines) == 0 {
		return nil, &ValidationError{Message: "at least one service line is required"}
	}
	if len(assignments) == 0 {
		return nil, &ValidationError{Message: "at least one employee must be assigned"}
	}

	composed := &ComposedOrder{
		TotalValue:      decimal.Zero,
		CommissionValue: decimal.Zero,
	}

	for _, line := range lines {
		qty := NormalizeQuantity(line.Quantity)
		item := models.ServiceOrderItem{
			ServiceID:   line.Service.ID,
			ServiceName: line.Service.Name,
			Price:       line.UnitPrice,
			Quantity:    qty,
			ToothNumber: line.ToothNumber,
			Color:       line.Color,
		}
		composed.Items = append(composed.Items, item)
		composed.TotalValue = composed.TotalValue.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(qty))))
	}

	seen := make(map[uuid.UUID]bool)
	for _, assignment := range assignments {
		if seen[assignment.Employee.ID] {
			return nil, &ValidationError{
				Message: fmt.Sprintf("employee %s is already assigned to this order", assignment.Employee.Name),
			}
		}
		seen[assignment.Employee.ID] = true

		pct := assignment.Percentage
		if pct.IsNegative() || pct.GreaterThan(oneHundred) {
			return nil, &ValidationError{
				Message: fmt.Sprintf("commission percentage for %s must be between 0 and 100", assignment.Employee.Name),
			}
		}

		value := CommissionFor(composed.TotalValue, pct)
		composed.Employees = append(composed.Employees, models.OrderEmployee{
			EmployeeID:           assignment.Employee.ID,
			EmployeeName:         assignment.Employee.Name,
			CommissionPercentage: pct,
			CommissionValue:      value,
		})
		composed.CommissionValue = composed.CommissionValue.Add(value)
	}

	return composed, nil
}

// NormalizeQuantity coerces a line quantity to an integer >= 1.
func NormalizeQuantity(quantity int) int {
	if quantity < 1 {
		return 1
	}
	return quantity
}

// CommissionFor computes an employee's cut of the order total.
func CommissionFor(total, percentage decimal.Decimal) decimal.Decimal {
	return total.Mul(percentage).Div(oneHundred).Round(2)
}

// NextOrderNumber assigns lab-scoped sequential order numbers. The max runs
// over soft-deleted orders too, so a number is never reused.
func NextOrderNumber(tx *gorm.DB, labID uuid.UUID) (int, error) {
	var current int
	err := tx.Unscoped().Model(&models.ServiceOrder{}).
		Where("lab_id = ?", labID).
		Select("COALESCE(MAX(number), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}
