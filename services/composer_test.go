package services

import (
	"testing"

	"prosthelab-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComposeOrder(t *testing.T) {
	crown := models.Service{ID: uuid.New(), Name: "Zirconia Crown"}
	bridge := models.Service{ID: uuid.New(), Name: "Acrylic Bridge"}
	anna := models.Employee{ID: uuid.New(), Name: "Anna"}
	bruno := models.Employee{ID: uuid.New(), Name: "Bruno"}

	t.Run("totals and commission splits", func(t *testing.T) {
		lines := []LineInput{
			{Service: crown, UnitPrice: decimal.NewFromInt(80), Quantity: 2},
			{Service: bridge, UnitPrice: decimal.NewFromInt(40), Quantity: 1},
		}
		assignments := []AssignmentInput{
			{Employee: anna, Percentage: decimal.NewFromInt(20)},
			{Employee: bruno, Percentage: decimal.NewFromInt(10)},
		}

		composed, err := ComposeOrder(lines, assignments)
		assert.NoError(t, err)

		assert.True(t, composed.TotalValue.Equal(decimal.NewFromInt(200)))
		assert.Len(t, composed.Items, 2)
		assert.Equal(t, "Zirconia Crown", composed.Items[0].ServiceName)
		assert.True(t, composed.Items[0].Price.Equal(decimal.NewFromInt(80)))

		assert.Len(t, composed.Employees, 2)
		assert.True(t, composed.Employees[0].CommissionValue.Equal(decimal.NewFromInt(40)))
		assert.True(t, composed.Employees[1].CommissionValue.Equal(decimal.NewFromInt(20)))
		assert.True(t, composed.CommissionValue.Equal(decimal.NewFromInt(60)))
	})

	t.Run("zero or missing quantity counts as one", func(t *testing.T) {
		lines := []LineInput{
			{Service: crown, UnitPrice: decimal.NewFromInt(80)},
		}
		assignments := []AssignmentInput{
			{Employee: anna, Percentage: decimal.NewFromInt(10)},
		}

		composed, err := ComposeOrder(lines, assignments)
		assert.NoError(t, err)
		assert.Equal(t, 1, composed.Items[0].Quantity)
		assert.True(t, composed.TotalValue.Equal(decimal.NewFromInt(80)))
	})

	t.Run("requires at least one line", func(t *testing.T) {
		_, err := ComposeOrder(nil, []AssignmentInput{{Employee: anna}})
		assert.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("requires at least one employee", func(t *testing.T) {
		lines := []LineInput{{Service: crown, UnitPrice: decimal.NewFromInt(80), Quantity: 1}}
		_, err := ComposeOrder(lines, nil)
		assert.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("rejects duplicate employee assignment", func(t *testing.T) {
		lines := []LineInput{{Service: crown, UnitPrice: decimal.NewFromInt(80), Quantity: 1}}
		assignments := []AssignmentInput{
			{Employee: anna, Percentage: decimal.NewFromInt(10)},
			{Employee: anna, Percentage: decimal.NewFromInt(20)},
		}
		_, err := ComposeOrder(lines, assignments)
		assert.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("rejects percentage outside 0..100", func(t *testing.T) {
		lines := []LineInput{{Service: crown, UnitPrice: decimal.NewFromInt(80), Quantity: 1}}

		_, err := ComposeOrder(lines, []AssignmentInput{{Employee: anna, Percentage: decimal.NewFromInt(101)}})
		assert.True(t, IsValidation(err))

		_, err = ComposeOrder(lines, []AssignmentInput{{Employee: anna, Percentage: decimal.NewFromInt(-1)}})
		assert.True(t, IsValidation(err))
	})

	t.Run("zero percentage yields zero commission", func(t *testing.T) {
		lines := []LineInput{{Service: crown, UnitPrice: decimal.NewFromInt(80), Quantity: 1}}
		composed, err := ComposeOrder(lines, []AssignmentInput{{Employee: anna, Percentage: decimal.Zero}})
		assert.NoError(t, err)
		assert.True(t, composed.CommissionValue.IsZero())
	})
}

func TestCommissionFor(t *testing.T) {
	// 333.33 * 15% rounds to 50.00 at two decimal places
	total := decimal.RequireFromString("333.33")
	got := CommissionFor(total, decimal.NewFromInt(15))
	assert.True(t, got.Equal(decimal.RequireFromString("50.00")), "got %s", got)
}
