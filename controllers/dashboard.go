package controllers

import (
	"fmt"
	"net/http"
	"time"

	"prosthelab-backend/models"
	"prosthelab-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardController struct {
	DB *gorm.DB
}

type UpcomingDelivery struct {
	OrderNumber int    `json:"orderNumber"`
	ClientName  string `json:"clientName"`
	PatientName string `json:"patientName"`
	Due         string `json:"due"` // e.g. "Today", "Tomorrow", "3 days"
}

type RecentOrder struct {
	OrderNumber int             `json:"orderNumber"`
	ClientName  string          `json:"clientName"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	Completed   string          `json:"completed"` // e.g. "Today", "Yesterday"
}

func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
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

	// Total clients
	var totalClients int64
	dc.DB.Model(&models.Client{}).Where("lab_id = ?", labUUID).Count(&totalClients)

	// Open orders by status
	var pendingOrders int64
	dc.DB.Model(&models.ServiceOrder{}).
		Where("lab_id = ? AND status = ?", labUUID, models.OrderStatusPending).Count(&pendingOrders)
	var inProgressOrders int64
	dc.DB.Model(&models.ServiceOrder{}).
		Where("lab_id = ? AND status = ?", labUUID, models.OrderStatusInProgress).Count(&inProgressOrders)

	// This month's completed revenue, folded from live rows
	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var completedThisMonth []models.ServiceOrder
	dc.DB.Where("lab_id = ? AND status = ? AND completion_date >= ?",
		labUUID, models.OrderStatusCompleted, firstOfMonth).Find(&completedThisMonth)

	monthlyRevenue := decimal.Zero
	for _, order := range completedThisMonth {
		monthlyRevenue = monthlyRevenue.Add(order.TotalValue)
	}

	// Deliveries due in the next 7 days
	var dueOrders []models.ServiceOrder
	dc.DB.Where("lab_id = ? AND status IN ? AND delivery_date BETWEEN ? AND ?",
		labUUID,
		[]string{models.OrderStatusPending, models.OrderStatusInProgress},
		utils.BeginningOfDay(now), utils.EndOfDay(now.AddDate(0, 0, 6))).
		Order("delivery_date asc").
		Limit(7).
		Find(&dueOrders)

	upcomingDeliveries := make([]UpcomingDelivery, 0, len(dueOrders))
	for _, order := range dueOrders {
		daysUntil := utils.DaysBetween(now, *order.DeliveryDate)
		var due string
		switch daysUntil {
		case 0:
			due = "Today"
		case 1:
			due = "Tomorrow"
		default:
			due = fmt.Sprintf("%d days", daysUntil)
		}
		upcomingDeliveries = append(upcomingDeliveries, UpcomingDelivery{
			OrderNumber: order.Number,
			ClientName:  order.ClientName,
			PatientName: order.PatientName,
			Due:         due,
		})
	}

	// Recently completed orders
	var recent []models.ServiceOrder
	dc.DB.Where("lab_id = ? AND status = ?", labUUID, models.OrderStatusCompleted).
		Order("completion_date desc").
		Limit(3).
		Find(&recent)

	recentOrders := make([]RecentOrder, 0, len(recent))
	for _, order := range recent {
		daysAgo := utils.DaysBetween(*order.CompletionDate, now)
		var completed string
		switch daysAgo {
		case 0:
			completed = "Today"
		case 1:
			completed = "Yesterday"
		default:
			completed = fmt.Sprintf("%d days ago", daysAgo)
		}
		recentOrders = append(recentOrders, RecentOrder{
			OrderNumber: order.Number,
			ClientName:  order.ClientName,
			TotalValue:  order.TotalValue,
			Completed:   completed,
		})
	}

	// Compose response
	c.JSON(http.StatusOK, gin.H{
		"totalClients":       totalClients,
		"monthlyRevenue":     monthlyRevenue,
		"pendingOrders":      pendingOrders,
		"inProgressOrders":   inProgressOrders,
		"upcomingDeliveries": upcomingDeliveries,
		"recentOrders":       recentOrders,
	})
}
