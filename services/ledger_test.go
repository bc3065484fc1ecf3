package services

import (
	"errors"
	"testing"
	"time"

	"prosthelab-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixedClock struct{ day time.Time }

func (f fixedClock) Today() time.Time { return f.day }

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Client{},
		&models.ServiceOrder{},
		&models.ServiceOrderItem{},
		&models.OrderEmployee{},
		&models.Transaction{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func seedOrder(t *testing.T, db *gorm.DB, labID uuid.UUID, total int64) *models.ServiceOrder {
	client := models.Client{LabID: labID, CreatedByUserID: labID, Name: "Dr. Silva", Phone: "+5511999990000"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("Failed to seed client: %v", err)
	}

	order := models.ServiceOrder{
		LabID:           labID,
		CreatedByUserID: labID,
		Number:          1,
		ClientID:        client.ID,
		ClientName:      client.Name,
		PatientName:     "Maria",
		Status:          models.OrderStatusPending,
		TotalValue:      decimal.NewFromInt(total),
		CommissionValue: decimal.Zero,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	return &order
}

func countDebits(t *testing.T, db *gorm.DB, orderID uuid.UUID) int64 {
	var n int64
	if err := db.Model(&models.Transaction{}).
		Where("order_id = ? AND type = ?", orderID, models.TransactionDebit).
		Count(&n).Error; err != nil {
		t.Fatalf("Failed to count debits: %v", err)
	}
	return n
}

func TestApplyStatusChangeCompletionPostsDebit(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger := NewLedgerService(fixedClock{day: testDay})
	labID := uuid.New()
	order := seedOrder(t, db, labID, 200)

	err := ledger.ApplyStatusChange(db, order, models.OrderStatusCompleted, nil)
	assert.NoError(t, err)

	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	if assert.NotNil(t, order.CompletionDate) {
		assert.True(t, order.CompletionDate.Equal(testDay))
	}

	var debit models.Transaction
	err = db.Where("order_id = ?", order.ID).First(&debit).Error
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionDebit, debit.Type)
	assert.True(t, debit.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, order.ClientID, debit.ClientID)
	assert.Equal(t, "Service order #1 - Maria", debit.Description)
	assert.True(t, debit.Date.Equal(testDay))
}

func TestApplyStatusChangeCompletionIsIdempotent(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger := NewLedgerService(fixedClock{day: testDay})
	order := seedOrder(t, db, uuid.New(), 200)

	assert.NoError(t, ledger.ApplyStatusChange(db, order, models.OrderStatusCompleted, nil))
	assert.NoError(t, ledger.ApplyStatusChange(db, order, models.OrderStatusCompleted, nil))

	assert.Equal(t, int64(1), countDebits(t, db, order.ID))
}

func TestApplyStatusChangeSuppliedCompletionDateWins(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger := NewLedgerService(fixedClock{day: testDay})
	order := seedOrder(t, db, uuid.New(), 200)

	supplied := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, ledger.ApplyStatusChange(db, order, models.OrderStatusCompleted, &supplied))

	if assert.NotNil(t, order.CompletionDate) {
		assert.True(t, order.CompletionDate.Equal(supplied))
	}

	var debit models.Transaction
	assert.NoError(t, db.Where("order_id = ?", order.ID).First(&debit).Error)
	assert.True(t, debit.Date.Equal(supplied))
}

func TestApplyStatusChangeLeavingCompletedRetractsDebit(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger := NewLedgerService(fixedClock{day: testDay})
	order := seedOrder(t, db, uuid.New(), 200)

	assert.NoError(t, ledger.ApplyStatusChange(db, order, models.OrderStatusCompleted, nil))
	assert.Equal(t, int64(1), countDebits(t, db, order.ID))

	assert.NoError(t, ledger.ApplyStatusChange(db, order, models.OrderStatusPending, nil))
	assert.Nil(t, order.CompletionDate)
	assert.Equal(t, int64(0), countDebits(t, db, order.ID))

	// The round trip re-posts exactly one fresh debit
	assert.NoError(t, ledger.ApplyStatusChange(db, order, models.OrderStatusCompleted, nil))
	assert.Equal(t, int64(1), countDebits(t, db, order.ID))
}

func TestApplyStatusChangeZeroTotalPostsNothing(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger := NewLedgerService(fixedClock{day: testDay})
	order := seedOrder(t, db, uuid.New(), 0)

	assert.NoError(t, ledger.ApplyStatusChange(db, order, models.OrderStatusCompleted, nil))
	assert.Equal(t, int64(0), countDebits(t, db, order.ID))
}

func TestApplyStatusChangeRejectsUnknownStatus(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger := NewLedgerService(fixedClock{day: testDay})
	order := seedOrder(t, db, uuid.New(), 200)

	err := ledger.ApplyStatusChange(db, order, "shipped", nil)
	assert.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCancelAndRetract(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger := NewLedgerService(fixedClock{day: testDay})
	order := seedOrder(t, db, uuid.New(), 200)

	assert.NoError(t, ledger.ApplyStatusChange(db, order, models.OrderStatusCompleted, nil))
	assert.NoError(t, ledger.CancelAndRetract(db, order))

	var stored models.ServiceOrder
	assert.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Nil(t, stored.CompletionDate)
	assert.Equal(t, int64(0), countDebits(t, db, order.ID))
}

func TestRecordPayment(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger := NewLedgerService(fixedClock{day: testDay})
	labID := uuid.New()
	client := models.Client{LabID: labID, CreatedByUserID: labID, Name: "Dr. Silva", Phone: "+5511999990000"}
	assert.NoError(t, db.Create(&client).Error)

	t.Run("defaults date and description", func(t *testing.T) {
		credit, err := ledger.RecordPayment(db, labID, client, decimal.NewFromInt(150), nil, "")
		assert.NoError(t, err)
		assert.Equal(t, models.TransactionCredit, credit.Type)
		assert.True(t, credit.Date.Equal(testDay))
		assert.Equal(t, "Payment received", credit.Description)
		assert.Nil(t, credit.OrderID)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := ledger.RecordPayment(db, labID, client, decimal.Zero, nil, "")
		assert.True(t, IsValidation(err))

		_, err = ledger.RecordPayment(db, labID, client, decimal.NewFromInt(-10), nil, "")
		assert.True(t, IsValidation(err))
	})
}

func TestDeleteTransaction(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger := NewLedgerService(fixedClock{day: testDay})
	labID := uuid.New()
	order := seedOrder(t, db, labID, 100)

	assert.NoError(t, ledger.ApplyStatusChange(db, order, models.OrderStatusCompleted, nil))

	var debit models.Transaction
	assert.NoError(t, db.Where("order_id = ?", order.ID).First(&debit).Error)

	t.Run("debits are refused", func(t *testing.T) {
		err := ledger.DeleteTransaction(db, labID, debit.ID)
		assert.True(t, errors.Is(err, ErrDebitNotDeletable))
		assert.Equal(t, int64(1), countDebits(t, db, order.ID))
	})

	t.Run("credits delete", func(t *testing.T) {
		client := models.Client{ID: order.ClientID}
		credit, err := ledger.RecordPayment(db, labID, client, decimal.NewFromInt(50), nil, "")
		assert.NoError(t, err)

		assert.NoError(t, ledger.DeleteTransaction(db, labID, credit.ID))
		err = db.First(&models.Transaction{}, "id = ?", credit.ID).Error
		assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	})

	t.Run("unknown transaction is not found", func(t *testing.T) {
		err := ledger.DeleteTransaction(db, labID, uuid.New())
		assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	})
}

func TestAccountStatement(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledger := NewLedgerService(fixedClock{day: testDay})
	labID := uuid.New()
	clientID := uuid.New()

	mk := func(kind string, amount int64, day int) {
		txn := models.Transaction{
			LabID:      labID,
			ClientID:   clientID,
			ClientName: "Dr. Silva",
			Type:       kind,
			Amount:     decimal.NewFromInt(amount),
			Date:       testDay.AddDate(0, 0, day),
		}
		assert.NoError(t, db.Create(&txn).Error)
	}

	mk(models.TransactionDebit, 100, 0)
	mk(models.TransactionCredit, 150, 1)
	mk(models.TransactionDebit, 30, 2)

	transactions, balance, err := ledger.AccountStatement(db, labID, clientID)
	assert.NoError(t, err)
	assert.Len(t, transactions, 3)

	// Oldest first
	assert.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, transactions[2].Amount.Equal(decimal.NewFromInt(30)))

	// 150 - 100 - 30
	assert.True(t, balance.Equal(decimal.NewFromInt(20)), "balance %s", balance)
}

func TestBalanceEmptySetIsZero(t *testing.T) {
	assert.True(t, Balance(nil).IsZero())
}
