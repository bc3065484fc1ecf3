// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"prosthelab-backend/models"
	"prosthelab-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportController handles all reporting functions. Every report is a
// read-only filter + fold over the live order/transaction rows; nothing is
// materialized.
type ReportController struct {
	DB *gorm.DB
}

// CommissionRow is one completed order an employee earned commission on
type CommissionRow struct {
	OrderNumber    int             `json:"orderNumber"`
	ClientName     string          `json:"clientName"`
	PatientName    string          `json:"patientName"`
	CompletionDate time.Time       `json:"completionDate"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	Percentage     decimal.Decimal `json:"percentage"`
	Commission     decimal.Decimal `json:"commission"`
}

// ClientOrderRow is one service line of a client's completed order
type ClientOrderRow struct {
	OrderNumber    int             `json:"orderNumber"`
	PatientName    string          `json:"patientName"`
	CompletionDate time.Time       `json:"completionDate"`
	ServiceName    string          `json:"serviceName"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// parsePeriod reads the inclusive ?start=YYYY-MM-DD&end=YYYY-MM-DD range and
// widens it to whole calendar days in the lab's local time
func parsePeriod(c *gin.Context) (time.Time, time.Time, bool) {
	const layout = "2006-01-02"

	start, err := time.ParseInLocation(layout, c.Query("start"), time.Local)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid or missing start date (expected YYYY-MM-DD)")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.ParseInLocation(layout, c.Query("end"), time.Local)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid or missing end date (expected YYYY-MM-DD)")
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		utils.RespondWithError(c, http.StatusBadRequest, "End date precedes start date")
		return time.Time{}, time.Time{}, false
	}

	return utils.BeginningOfDay(start), utils.EndOfDay(end), true
}

func (rc *ReportController) completedInPeriod(labID uuid.UUID, start, end time.Time) ([]models.ServiceOrder, error) {
	var orders []models.ServiceOrder
	err := rc.DB.Preload("Items").Preload("Employees").
		Where("lab_id = ? AND status = ? AND completion_date BETWEEN ? AND ?",
			labID, models.OrderStatusCompleted, start, end).
		Order("completion_date asc, number asc").
		Find(&orders).Error
	return orders, err
}

// GetCompletedOrders lists completed orders in the period with revenue and
// commission totals
func (rc *ReportController) GetCompletedOrders(c *gin.Context) {
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

	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	orders, err := rc.completedInPeriod(labUUID, start, end)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	totalRevenue := decimal.Zero
	totalCommission := decimal.Zero
	for _, order := range orders {
		totalRevenue = totalRevenue.Add(order.TotalValue)
		totalCommission = totalCommission.Add(order.CommissionValue)
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":          orders,
		"count":           len(orders),
		"totalRevenue":    totalRevenue,
		"totalCommission": totalCommission,
	})
}

// GetEmployeeCommissions reports one employee's commission across completed
// orders in the period
func (rc *ReportController) GetEmployeeCommissions(c *gin.Context) {
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

	employeeUUID, err := uuid.Parse(c.Query("employeeId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid or missing employee ID")
		return
	}

	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	var employee models.Employee
	if err := rc.DB.Where("lab_id = ? AND id = ?", labUUID, employeeUUID).
		First(&employee).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		return
	}

	orders, err := rc.completedInPeriod(labUUID, start, end)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	rows := make([]CommissionRow, 0)
	totalCommission := decimal.Zero
	for _, order := range orders {
		for _, assigned := range order.Employees {
			if assigned.EmployeeID != employeeUUID {
				continue
			}
			rows = append(rows, CommissionRow{
				OrderNumber:    order.Number,
				ClientName:     order.ClientName,
				PatientName:    order.PatientName,
				CompletionDate: *order.CompletionDate,
				TotalValue:     order.TotalValue,
				Percentage:     assigned.CommissionPercentage,
				Commission:     assigned.CommissionValue,
			})
			totalCommission = totalCommission.Add(assigned.CommissionValue)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"employee":        gin.H{"id": employee.ID, "name": employee.Name},
		"rows":            rows,
		"totalCommission": totalCommission,
	})
}

// GetClientOrders flattens a client's completed orders in the period into
// per-service rows with computed subtotals
func (rc *ReportController) GetClientOrders(c *gin.Context) {
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

	clientUUID, err := uuid.Parse(c.Query("clientId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid or missing client ID")
		return
	}

	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	var client models.Client
	if err := rc.DB.Where("lab_id = ? AND id = ?", labUUID, clientUUID).
		First(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	orders, err := rc.completedInPeriod(labUUID, start, end)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	rows := make([]ClientOrderRow, 0)
	total := decimal.Zero
	for _, order := range orders {
		if order.ClientID != clientUUID {
			continue
		}
		for _, item := range order.Items {
			subtotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			rows = append(rows, ClientOrderRow{
				OrderNumber:    order.Number,
				PatientName:    order.PatientName,
				CompletionDate: *order.CompletionDate,
				ServiceName:    item.ServiceName,
				Quantity:       item.Quantity,
				Price:          item.Price,
				Subtotal:       subtotal,
			})
			total = total.Add(subtotal)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"client": gin.H{"id": client.ID, "name": client.Name},
		"rows":   rows,
		"total":  total,
	})
}
