// controllers/ledger.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"prosthelab-backend/models"
	"prosthelab-backend/services"
	"prosthelab-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerController struct {
	DB     *gorm.DB
	Ledger *services.LedgerService
}

// RecordPaymentInput defines the expected JSON structure for a manual payment
type RecordPaymentInput struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Date        *time.Time      `json:"date"`
	Description string          `json:"description"`
}

// GetClientAccount returns a client's transactions oldest-first with the
// live-computed balance (credits minus debits)
func (lc *LedgerController) GetClientAccount(c *gin.Context) {
	labID, exists := c.Get("labId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Lab ID not found in context")
		return
	}

	labUUID, err := uuid.Parse(labID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid lab ID format")
		return
	}

	clientID := c.Param("id")
	clientUUID, err := uuid.Parse(clientID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var client models.Client
	if err := lc.DB.Where("lab_id = ? AND id = ?", labUUID, clientUUID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	transactions, balance, err := lc.Ledger.AccountStatement(lc.DB, labUUID, clientUUID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client":       gin.H{"id": client.ID, "name": client.Name},
		"transactions": transactions,
		"balance":      balance,
	})
}

// RecordPayment posts a manual credit to the client's ledger
func (lc *LedgerController) RecordPayment(c *gin.Context) {
	labID, exists := c.Get("labId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Lab ID not found in context")
		return
	}

	labUUID, err := uuid.Parse(labID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid lab ID format")
		return
	}

	clientID := c.Param("id")
	clientUUID, err := uuid.Parse(clientID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var input RecordPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var client models.Client
	if err := lc.DB.Where("lab_id = ? AND id = ?", labUUID, clientUUID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	credit, err := lc.Ledger.RecordPayment(lc.DB, labUUID, client, input.Amount, input.Date, input.Description)
	if err != nil {
		if services.IsValidation(err) {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to record payment")
		}
		return
	}

	c.JSON(http.StatusCreated, credit)
}

// DeleteTransaction deletes a manual credit. Debits are refused: they only
// leave the ledger through order status transitions.
func (lc *LedgerController) DeleteTransaction(c *gin.Context) {
	labID, exists := c.Get("labId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Lab ID not found in context")
		return
	}

	labUUID, err := uuid.Parse(labID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid lab ID format")
		return
	}

	transactionID := c.Param("id")
	transactionUUID, err := uuid.Parse(transactionID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid transaction ID format")
		return
	}

	if err := lc.Ledger.DeleteTransaction(lc.DB, labUUID, transactionUUID); err != nil {
		if errors.Is(err, services.ErrDebitNotDeletable) {
			utils.RespondWithError(c, http.StatusConflict, err.Error())
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Transaction not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete transaction")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// CancelOrder cancels a completed order from the client-account view and
// retracts its debit as one all-or-nothing operation
func (lc *LedgerController) CancelOrder(c *gin.Context) {
	labID, exists := c.Get("labId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Lab ID not found in context")
		return
	}

	labUUID, err := uuid.Parse(labID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid lab ID format")
		return
	}

	orderID := c.Param("id")
	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var order models.ServiceOrder
	if err := lc.DB.Where("lab_id = ? AND id = ?", labUUID, orderUUID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Order not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := lc.Ledger.CancelAndRetract(lc.DB, &order); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel order")
		return
	}

	c.JSON(http.StatusOK, order)
}
