// controllers/order.go
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

type OrderController struct {
	DB       *gorm.DB
	Ledger   *services.LedgerService
	Notifier *services.NotificationService
}

// OrderItemInput defines the structure for an order line
type OrderItemInput struct {
	ServiceID   uuid.UUID `json:"serviceId" binding:"required"`
	Quantity    int       `json:"quantity"`
	ToothNumber string    `json:"toothNumber"`
	Color       string    `json:"color"`
}

// OrderEmployeeInput defines the structure for a commission assignment
type OrderEmployeeInput struct {
	EmployeeID           uuid.UUID       `json:"employeeId" binding:"required"`
	CommissionPercentage decimal.Decimal `json:"commissionPercentage"`
}

// CreateOrderInput defines the expected JSON structure for creating an order
type CreateOrderInput struct {
	ClientID     uuid.UUID            `json:"clientId" binding:"required"`
	PatientName  string               `json:"patientName"`
	OpenDate     *time.Time           `json:"openDate"`
	DeliveryDate *time.Time           `json:"deliveryDate"`
	Items        []OrderItemInput     `json:"items" binding:"required,min=1"`
	Employees    []OrderEmployeeInput `json:"employees" binding:"required,min=1"`
	IsPaid       bool                 `json:"isPaid"`
	Observations string               `json:"observations"`
}

// UpdateOrderInput defines the expected JSON structure for updating an order.
// Status changes go through the dedicated status endpoint.
type UpdateOrderInput struct {
	PatientName  *string               `json:"patientName"`
	DeliveryDate *time.Time            `json:"deliveryDate"`
	Items        *[]OrderItemInput     `json:"items"`
	Employees    *[]OrderEmployeeInput `json:"employees"`
	IsPaid       *bool                 `json:"isPaid"`
	Observations *string               `json:"observations"`
}

// UpdateOrderStatusInput drives the ledger reconciliation state machine
type UpdateOrderStatusInput struct {
	Status         string     `json:"status" binding:"required,oneof=pending in_progress completed cancelled"`
	CompletionDate *time.Time `json:"completionDate"`
}

// buildLines resolves each selected service and its snapshot unit price.
// Lines already on the order keep their stored price; new services take the
// price currently resolved for the client.
func (oc *OrderController) buildLines(tx *gorm.DB, labID uuid.UUID, client models.Client, inputs []OrderItemInput, existing []models.ServiceOrderItem) ([]services.LineInput, string, error) {
	var catalog []models.Service
	if err := tx.Where("lab_id = ?", labID).Find(&catalog).Error; err != nil {
		return nil, "Database error", err
	}

	var tables []models.PriceTable
	if err := tx.Preload("Items").Where("lab_id = ?", labID).Find(&tables).Error; err != nil {
		return nil, "Database error", err
	}

	byID := make(map[uuid.UUID]models.Service, len(catalog))
	for _, svc := range catalog {
		byID[svc.ID] = svc
	}

	snapshotted := make(map[uuid.UUID]decimal.Decimal, len(existing))
	for _, item := range existing {
		snapshotted[item.ServiceID] = item.Price
	}

	prices := services.EffectivePrices(client, catalog, tables)

	var lines []services.LineInput
	for _, input := range inputs {
		svc, ok := byID[input.ServiceID]
		if !ok {
			return nil, "Service not found: " + input.ServiceID.String(), gorm.ErrRecordNotFound
		}

		price, ok := snapshotted[input.ServiceID]
		if !ok {
			price = prices[input.ServiceID]
		}

		lines = append(lines, services.LineInput{
			Service:     svc,
			UnitPrice:   price,
			Quantity:    input.Quantity,
			ToothNumber: input.ToothNumber,
			Color:       input.Color,
		})
	}
	return lines, "", nil
}

func (oc *OrderController) buildAssignments(tx *gorm.DB, labID uuid.UUID, inputs []OrderEmployeeInput) ([]services.AssignmentInput, string, error) {
	var assignments []services.AssignmentInput
	for _, input := range inputs {
		var employee models.Employee
		if err := tx.Where("lab_id = ? AND id = ?", labID, input.EmployeeID).
			First(&employee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "Employee not found: " + input.EmployeeID.String(), err
			}
			return nil, "Database error", err
		}
		assignments = append(assignments, services.AssignmentInput{
			Employee:   employee,
			Percentage: input.CommissionPercentage,
		})
	}
	return assignments, "", nil
}

// CreateOrder creates a new service order. Orders always start pending;
// completion goes through the status endpoint so the ledger stays in step.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	labID, exists := c.Get("labId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Lab ID not found in context")
		return
	}
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	labUUID, err := uuid.Parse(labID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid lab ID format")
		return
	}

	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate client exists in the same lab
	var client models.Client
	if err := oc.DB.Where("lab_id = ? AND id = ?", labUUID, input.ClientID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	lines, msg, err := oc.buildLines(oc.DB, labUUID, client, input.Items, nil)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = http.StatusBadRequest
		}
		utils.RespondWithError(c, status, msg)
		return
	}

	assignments, msg, err := oc.buildAssignments(oc.DB, labUUID, input.Employees)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = http.StatusBadRequest
		}
		utils.RespondWithError(c, status, msg)
		return
	}

	composed, err := services.ComposeOrder(lines, assignments)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	openDate := time.Now()
	if input.OpenDate != nil {
		openDate = *input.OpenDate
	}

	// Start transaction
	tx := oc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	number, err := services.NextOrderNumber(tx, labUUID)
	if err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to assign order number")
		return
	}

	order := models.ServiceOrder{
		ID:              uuid.New(),
		LabID:           labUUID,
		CreatedByUserID: uuid.Must(uuid.Parse(userID.(string))),
		Number:          number,
		ClientID:        client.ID,
		ClientName:      client.Name,
		PatientName:     input.PatientName,
		OpenDate:        openDate,
		DeliveryDate:    input.DeliveryDate,
		Status:          models.OrderStatusPending,
		Items:           composed.Items,
		Employees:       composed.Employees,
		TotalValue:      composed.TotalValue,
		CommissionValue: composed.CommissionValue,
		IsPaid:          input.IsPaid,
		Observations:    input.Observations,
	}

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create order")
		return
	}

	tx.Commit()

	c.JSON(http.StatusCreated, order)
}

// GetOrders retrieves all orders for the lab, optionally filtered by status
// or client
func (oc *OrderController) GetOrders(c *gin.Context) {
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

	query := oc.DB.Preload("Items").Preload("Employees").Where("lab_id = ?", labUUID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID := c.Query("clientId"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	var orders []models.ServiceOrder
	if err := query.Order("number desc").Find(&orders).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder retrieves a specific order by ID
func (oc *OrderController) GetOrder(c *gin.Context) {
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
	if err := oc.DB.Preload("Items").Preload("Employees").
		Where("lab_id = ? AND id = ?", labUUID, orderUUID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Order not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateOrder updates an order being authored. Completed orders are frozen
// except for status transitions.
func (oc *OrderController) UpdateOrder(c *gin.Context) {
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

	var input UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Start transaction
	tx := oc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Retrieve existing order
	var order models.ServiceOrder
	if err := tx.Preload("Items").Preload("Employees").
		Where("lab_id = ? AND id = ?", labUUID, orderUUID).
		First(&order).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Order not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if order.Status == models.OrderStatusCompleted {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusConflict, "Completed orders can only change status")
		return
	}

	if input.PatientName != nil {
		order.PatientName = *input.PatientName
	}
	if input.DeliveryDate != nil {
		order.DeliveryDate = input.DeliveryDate
	}
	if input.IsPaid != nil {
		order.IsPaid = *input.IsPaid
	}
	if input.Observations != nil {
		order.Observations = *input.Observations
	}

	// If lines or assignments change, recompose the whole order so totals and
	// every commission value stay consistent
	if input.Items != nil || input.Employees != nil {
		itemInputs := make([]OrderItemInput, 0)
		if input.Items != nil {
			itemInputs = *input.Items
		} else {
			for _, item := range order.Items {
				itemInputs = append(itemInputs, OrderItemInput{
					ServiceID:   item.ServiceID,
					Quantity:    item.Quantity,
					ToothNumber: item.ToothNumber,
					Color:       item.Color,
				})
			}
		}

		employeeInputs := make([]OrderEmployeeInput, 0)
		if input.Employees != nil {
			employeeInputs = *input.Employees
		} else {
			for _, assigned := range order.Employees {
				employeeInputs = append(employeeInputs, OrderEmployeeInput{
					EmployeeID:           assigned.EmployeeID,
					CommissionPercentage: assigned.CommissionPercentage,
				})
			}
		}

		var client models.Client
		if err := tx.Where("lab_id = ? AND id = ?", labUUID, order.ClientID).
			First(&client).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}

		lines, msg, err := oc.buildLines(tx, labUUID, client, itemInputs, order.Items)
		if err != nil {
			tx.Rollback()
			status := http.StatusInternalServerError
			if errors.Is(err, gorm.ErrRecordNotFound) {
				status = http.StatusBadRequest
			}
			utils.RespondWithError(c, status, msg)
			return
		}

		assignments, msg, err := oc.buildAssignments(tx, labUUID, employeeInputs)
		if err != nil {
			tx.Rollback()
			status := http.StatusInternalServerError
			if errors.Is(err, gorm.ErrRecordNotFound) {
				status = http.StatusBadRequest
			}
			utils.RespondWithError(c, status, msg)
			return
		}

		composed, err := services.ComposeOrder(lines, assignments)
		if err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}

		// Delete existing items and assignments
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.ServiceOrderItem{}).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear existing items")
			return
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderEmployee{}).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear existing assignments")
			return
		}

		for i := range composed.Items {
			composed.Items[i].OrderID = order.ID
		}
		for i := range composed.Employees {
			composed.Employees[i].OrderID = order.ID
		}

		order.Items = composed.Items
		order.Employees = composed.Employees
		order.TotalValue = composed.TotalValue
		order.CommissionValue = composed.CommissionValue
	}

	// Save updated order
	if err := tx.Save(&order).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update order")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus applies a status transition, keeping the client ledger in
// step: becoming completed posts the debit, leaving completed retracts it.
// The order update and the ledger mutation commit or roll back together.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
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

	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Start transaction
	tx := oc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var order models.ServiceOrder
	if err := tx.Where("lab_id = ? AND id = ?", labUUID, orderUUID).
		First(&order).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Order not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	wasCompleted := order.Status == models.OrderStatusCompleted

	if err := oc.Ledger.ApplyStatusChange(tx, &order, input.Status, input.CompletionDate); err != nil {
		tx.Rollback()
		if services.IsValidation(err) {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update order status")
		}
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update order status")
		return
	}

	if oc.Notifier != nil && !wasCompleted && order.Status == models.OrderStatusCompleted {
		oc.Notifier.NotifyOrderCompleted(labUUID, order)
	}

	c.JSON(http.StatusOK, order)
}

// DeleteOrder removes an order with its lines, assignments and any
// outstanding debit, all in one transaction so the ledger never keeps a
// debit for an order that no longer exists.
func (oc *OrderController) DeleteOrder(c *gin.Context) {
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

	// Start transaction
	tx := oc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var order models.ServiceOrder
	if err := tx.Where("lab_id = ? AND id = ?", labUUID, orderUUID).
		First(&order).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Order not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := tx.Where("order_id = ?", order.ID).Delete(&models.ServiceOrderItem{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete order items")
		return
	}
	if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderEmployee{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete order assignments")
		return
	}
	if err := tx.Where("order_id = ? AND type = ?", order.ID, models.TransactionDebit).
		Delete(&models.Transaction{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retract order debit")
		return
	}
	if err := tx.Delete(&order).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
