package controllers

import (
	"net/http"

	"prosthelab-backend/models"
	"prosthelab-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProfileController struct {
	DB *gorm.DB
}

type UpdateProfileInput struct {
	LabName    string `json:"labName"`
	LabAddress string `json:"labAddress"`
	LabPhone   string `json:"labPhone"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var user models.User
	if err := pc.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"labName":               user.LabName,
		"labAddress":            user.LabAddress,
		"labPhone":              user.LabPhone,
		"phone":                 user.Phone,
		"email":                 user.Email,
		"workingHours":          user.WorkingHours,
		"deliveryReminders":     user.DeliveryReminders,
		"completionNotices":     user.CompletionNotices,
		"whatsAppNotifications": user.WhatsAppNotifications,
		"smsNotifications":      user.SMSNotifications,
	})
}

func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var user models.User
	if err := pc.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	// Update fields
	user.LabName = input.LabName
	user.LabAddress = input.LabAddress
	user.LabPhone = input.LabPhone
	user.Phone = input.Phone
	user.Email = input.Email

	if err := pc.DB.Save(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

func (pc *ProfileController) UpdateWorkingHours(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var input struct {
		WorkingHours models.JSONB `json:"workingHours"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := pc.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("working_hours", input.WorkingHours).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update working hours")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Working hours updated"})
}

func (pc *ProfileController) UpdateNotificationSettings(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var input struct {
		DeliveryReminders     bool `json:"deliveryReminders"`
		CompletionNotices     bool `json:"completionNotices"`
		WhatsAppNotifications bool `json:"whatsAppNotifications"`
		SMSNotifications      bool `json:"smsNotifications"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := pc.DB.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"delivery_reminders":     input.DeliveryReminders,
			"completion_notices":     input.CompletionNotices,
			"whats_app_notifications": input.WhatsAppNotifications,
			"sms_notifications":      input.SMSNotifications,
		}).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update notification settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification settings updated"})
}
