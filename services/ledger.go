// services/ledger.go
package services

import (
	"fmt"
	"time"

	"prosthelab-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService keeps a client's ledger consistent with the lifecycle of
// their orders: completing an order posts its debit exactly once, moving it
// away from completed retracts the debit, manual payments post credits.
type LedgerService struct {
	clock Clock
}

func NewLedgerService(clock Clock) *LedgerService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &LedgerService{clock: clock}
}

func ValidOrderStatus(status string) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusInProgress,
		models.OrderStatusCompleted, models.OrderStatusCancelled:
		return true
	}
	return false
}

// ApplyStatusChange moves an order to newStatus inside the caller's
// transaction, posting or retracting the client debit as needed. The order
// struct is updated in place; on transaction rollback no state changes.
//
// completionDate is an optional operator-supplied date used only when the
// order becomes completed; when absent, today is stamped.
func (s *LedgerService) ApplyStatusChange(tx *gorm.DB, order *models.ServiceOrder, newStatus string, completionDate *time.Time) error {
	if !ValidOrderStatus(newStatus) {
		return &ValidationError{Message: fmt.Sprintf("invalid order status %q", newStatus)}
	}

	order.Status = newStatus

	if newStatus == models.OrderStatusCompleted {
		if completionDate != nil {
			order.CompletionDate = completionDate
		} else if order.CompletionDate == nil {
			today := s.clock.Today()
			order.CompletionDate = &today
		}
		if err := s.postDebit(tx, order); err != nil {
			return err
		}
	} else {
		order.CompletionDate = nil
		if err := s.retractDebit(tx, order.ID); err != nil {
			return err
		}
	}

	return tx.Model(&models.ServiceOrder{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":          order.Status,
			"completion_date": order.CompletionDate,
		}).Error
}

// postDebit creates the order's debit unless one is already outstanding.
// An existing debit is authoritative: repeating the transition is a no-op,
// never a duplicate.
func (s *LedgerService) postDebit(tx *gorm.DB, order *models.ServiceOrder) error {
	if !order.TotalValue.IsPositive() {
		return nil
	}

	var existing int64
	err := tx.Model(&models.Transaction{}).
		Where("order_id = ? AND type = ?", order.ID, models.TransactionDebit).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	debit := models.Transaction{
		LabID:       order.LabID,
		ClientID:    order.ClientID,
		ClientName:  order.ClientName,
		Type:        models.TransactionDebit,
		Amount:      order.TotalValue,
		Date:        *order.CompletionDate,
		Description: fmt.Sprintf("Service order #%d - %s", order.Number, order.PatientName),
		OrderID:     &order.ID,
	}
	return tx.Create(&debit).Error
}

func (s *LedgerService) retractDebit(tx *gorm.DB, orderID uuid.UUID) error {
	return tx.Where("order_id = ? AND type = ?", orderID, models.TransactionDebit).
		Delete(&models.Transaction{}).Error
}

// CancelAndRetract cancels a completed order and removes its debit as one
// all-or-nothing unit, so the ledger never observes a cancelled order with a
// stale debit outstanding.
func (s *LedgerService) CancelAndRetract(db *gorm.DB, order *models.ServiceOrder) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := s.ApplyStatusChange(tx, order, models.OrderStatusCancelled, nil); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// RecordPayment posts a manual credit to a client's ledger. Payments are
// never linked to an order.
func (s *LedgerService) RecordPayment(db *gorm.DB, labID uuid.UUID, client models.Client, amount decimal.Decimal, date *time.Time, description string) (models.Transaction, error) {
	if !amount.IsPositive() {
		return models.Transaction{}, &ValidationError{Message: "payment amount must be greater than zero"}
	}

	when := s.clock.Today()
	if date != nil {
		when = *date
	}
	if description == "" {
		description = "Payment received"
	}

	credit := models.Transaction{
		LabID:       labID,
		ClientID:    client.ID,
		ClientName:  client.Name,
		Type:        models.TransactionCredit,
		Amount:      amount,
		Date:        when,
		Description: description,
	}
	if err := db.Create(&credit).Error; err != nil {
		return models.Transaction{}, err
	}
	return credit, nil
}

// DeleteTransaction removes a manual credit. Debits are refused: they are
// only removed through status transitions or cancellation.
func (s *LedgerService) DeleteTransaction(db *gorm.DB, labID, transactionID uuid.UUID) error {
	var txn models.Transaction
	err := db.Where("lab_id = ? AND id = ?", labID, transactionID).First(&txn).Error
	if err != nil {
		return err
	}

	if txn.Type == models.TransactionDebit {
		return ErrDebitNotDeletable
	}

	return db.Delete(&txn).Error
}

// AccountStatement returns a client's transactions oldest-first with the
// running balance, recomputed live from the full transaction set.
// Balance = credits - debits; negative means the client owes the lab.
func (s *LedgerService) AccountStatement(db *gorm.DB, labID, clientID uuid.UUID) ([]models.Transaction, decimal.Decimal, error) {
	var transactions []models.Transaction
	err := db.Where("lab_id = ? AND client_id = ?", labID, clientID).
		Order("date asc, created_at asc").
		Find(&transactions).Error
	if err != nil {
		return nil, decimal.Zero, err
	}

	return transactions, Balance(transactions), nil
}

// Balance folds credits minus debits over a transaction set.
func Balance(transactions []models.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, txn := range transactions {
		switch txn.Type {
		case models.TransactionCredit:
			balance = balance.Add(txn.Amount)
		case models.TransactionDebit:
			balance = balance.Sub(txn.Amount)
		}
	}
	return balance
}
