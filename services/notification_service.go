// services/notification_service.go
package services

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"prosthelab-backend/models"
	"prosthelab-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// NotificationService sends delivery reminders and completion notices to
// clients over SMS/WhatsApp. It never touches orders or the ledger; a failed
// send is logged and does not block any workflow.
type NotificationService struct {
	db     *gorm.DB
	client *twilio.RestClient
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	// Initialize Twilio client
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &NotificationService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

func (s *NotificationService) StartScheduler() {
	c := cron.New()

	// Run every day at 8 AM
	c.AddFunc("0 8 * * *", func() {
		s.SendDailyDeliveryReminders()
	})

	c.Start()
	log.Println("Delivery reminder scheduler started")
}

func (s *NotificationService) SendDailyDeliveryReminders() {
	log.Println("Starting daily delivery reminder processing...")

	// Get all active labs with delivery reminders enabled
	var labs []models.User
	if err := s.db.Find(&labs, "is_active = ? AND delivery_reminders = ?", true, true).Error; err != nil {
		log.Printf("Failed to fetch labs: %v", err)
		return
	}

	for _, lab := range labs {
		s.ProcessLabDeliveries(lab)
	}

	log.Println("Daily delivery reminder processing completed")
}

// ProcessLabDeliveries notifies clients of open orders whose delivery date
// falls today.
func (s *NotificationService) ProcessLabDeliveries(lab models.User) {
	now := time.Now()
	start := utils.BeginningOfDay(now)
	end := utils.EndOfDay(now)

	var orders []models.ServiceOrder
	err := s.db.Where("lab_id = ? AND delivery_date BETWEEN ? AND ? AND status IN ?",
		lab.ID, start, end,
		[]string{models.OrderStatusPending, models.OrderStatusInProgress}).
		Find(&orders).Error
	if err != nil {
		log.Printf("Lab %s: Failed to get due orders: %v", lab.ID, err)
		return
	}

	for _, order := range orders {
		message := fmt.Sprintf("Hi %s, service order #%d (%s) from %s is due for delivery today.",
			order.ClientName, order.Number, order.PatientName, lab.LabName)
		s.send(lab, order, "due_today", message)
	}
}

// NotifyOrderCompleted tells the client their work is ready for pickup.
// Called after the completion transaction commits; failures are only logged.
func (s *NotificationService) NotifyOrderCompleted(labID uuid.UUID, order models.ServiceOrder) {
	var lab models.User
	if err := s.db.First(&lab, "id = ?", labID).Error; err != nil {
		log.Printf("Lab %s: not found for completion notice: %v", labID, err)
		return
	}
	if !lab.CompletionNotices {
		return
	}

	message := fmt.Sprintf("Hi %s, service order #%d (%s) is ready for pickup at %s.",
		order.ClientName, order.Number, order.PatientName, lab.LabName)
	s.send(lab, order, "completed", message)
}

func (s *NotificationService) send(lab models.User, order models.ServiceOrder, kind, message string) {
	var client models.Client
	if err := s.db.Where("lab_id = ? AND id = ?", lab.ID, order.ClientID).First(&client).Error; err != nil {
		log.Printf("Lab %s: client %s not found for notice: %v", lab.ID, order.ClientID, err)
		return
	}

	// Determine channel (WhatsApp if available, else SMS)
	channel := "sms"
	var to string

	// Use WhatsApp if phone is in E.164 format and starts with '+'
	if lab.WhatsAppNotifications && strings.HasPrefix(client.Phone, "+") {
		to = "whatsapp:" + client.Phone
		channel = "whatsapp"
	} else {
		to = client.Phone
	}

	// Send message via Twilio
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetBody(message)

	if channel == "whatsapp" {
		params.SetFrom("whatsapp:" + os.Getenv("TWILIO_WHATSAPP_NUMBER"))
	} else {
		params.SetFrom(os.Getenv("TWILIO_PHONE_NUMBER"))
	}

	resp, err := s.client.Api.CreateMessage(params)
	status := "sent"
	errorMsg := ""

	if err != nil {
		log.Printf("Failed to send notice to %s: %v", client.Phone, err)
		status = "failed"
		errorMsg = err.Error()
	} else if resp.Sid != nil {
		log.Printf("Notice sent to %s, SID: %s", client.Phone, *resp.Sid)
	} else {
		log.Printf("Notice sent to %s, but no SID returned", client.Phone)
	}

	// Log the notice
	notice := models.DeliveryNotice{
		LabID:        lab.ID,
		OrderID:      order.ID,
		ClientID:     client.ID,
		Kind:         kind,
		Message:      message,
		Status:       status,
		ErrorMessage: errorMsg,
		Channel:      channel,
		SentAt:       time.Now(),
	}

	if err := s.db.Create(&notice).Error; err != nil {
		log.Printf("Failed to log notice for order %s: %v", order.ID, err)
	}
}
