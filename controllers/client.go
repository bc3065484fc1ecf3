package controllers

import (
	"errors"
	"net/http"

	"prosthelab-backend/models"
	"prosthelab-backend/services"
	"prosthelab-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientController struct {
	DB *gorm.DB
}

// CreateClientInput defines the expected JSON structure for creating a client
type CreateClientInput struct {
	Name         string     `json:"name" binding:"required"`
	Phone        string     `json:"phone" binding:"required"`
	Email        *string    `json:"email"`
	Address      string     `json:"address"`
	Notes        string     `json:"notes"`
	PriceTableID *uuid.UUID `json:"priceTableId"`
}

// UpdateClientInput defines the expected JSON structure for updating a client
type UpdateClientInput struct {
	Name         *string    `json:"name"`
	Phone        *string    `json:"phone"`
	Email        *string    `json:"email"`
	Address      *string    `json:"address"`
	Notes        *string    `json:"notes"`
	PriceTableID *uuid.UUID `json:"priceTableId"`
	IsActive     *bool      `json:"isActive"`
}

// CreateClient creates a new client for the lab
func (cc *ClientController) CreateClient(c *gin.Context) {
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

	var input CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate phone format
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	// Check if phone already exists for this lab
	var existingClient models.Client
	if err := cc.DB.Where("lab_id = ? AND phone = ?", labUUID, input.Phone).
		First(&existingClient).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Client with this phone number already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	// A price table reference must point at an existing table in this lab
	if input.PriceTableID != nil {
		var table models.PriceTable
		if err := cc.DB.Where("lab_id = ? AND id = ?", labUUID, *input.PriceTableID).
			First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Price table not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
	}

	// Create new client
	client := models.Client{
		ID:              uuid.New(),
		LabID:           labUUID,
		CreatedByUserID: uuid.Must(uuid.Parse(userID.(string))),
		Name:            input.Name,
		Phone:           input.Phone,
		Address:         input.Address,
		Notes:           input.Notes,
		PriceTableID:    input.PriceTableID,
		IsActive:        true,
	}

	if input.Email != nil {
		client.Email = *input.Email
	}

	if err := cc.DB.Create(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, client)
}

// GetClients retrieves all clients for the lab
func (cc *ClientController) GetClients(c *gin.Context) {
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

	var clients []models.Client
	if err := cc.DB.Where("lab_id = ?", labUUID).Find(&clients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	c.JSON(http.StatusOK, clients)
}

// GetClient retrieves a specific client by ID
func (cc *ClientController) GetClient(c *gin.Context) {
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
	if err := cc.DB.Where("lab_id = ? AND id = ?", labUUID, clientUUID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, client)
}

// GetClientPrices returns the effective price list this client sees,
// grouped by material
func (cc *ClientController) GetClientPrices(c *gin.Context) {
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
	if err := cc.DB.Where("lab_id = ? AND id = ?", labUUID, clientUUID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var catalog []models.Service
	if err := cc.DB.Where("lab_id = ? AND is_active = ?", labUUID, true).Find(&catalog).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve services")
		return
	}

	var tables []models.PriceTable
	if err := cc.DB.Preload("Items").Where("lab_id = ?", labUUID).Find(&tables).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve price tables")
		return
	}

	c.JSON(http.StatusOK, services.ResolveClientPrices(client, catalog, tables))
}

// UpdateClient updates an existing client
func (cc *ClientController) UpdateClient(c *gin.Context) {
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

	var input UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Retrieve existing client
	var client models.Client
	if err := cc.DB.Where("lab_id = ? AND id = ?", labUUID, clientUUID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	// Update fields if provided
	if input.Name != nil {
		client.Name = *input.Name
	}
	if input.Phone != nil {
		// Validate phone format
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}

		// Check if phone is being changed to another existing client
		if client.Phone != *input.Phone {
			var existingClient models.Client
			if err := cc.DB.Where("lab_id = ? AND phone = ?", labUUID, *input.Phone).
				First(&existingClient).Error; err == nil {
				utils.RespondWithError(c, http.StatusConflict, "Another client with this phone number already exists")
				return
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
				return
			}
		}
		client.Phone = *input.Phone
	}
	if input.Email != nil {
		client.Email = *input.Email
	}
	if input.Address != nil {
		client.Address = *input.Address
	}
	if input.Notes != nil {
		client.Notes = *input.Notes
	}
	if input.PriceTableID != nil {
		var table models.PriceTable
		if err := cc.DB.Where("lab_id = ? AND id = ?", labUUID, *input.PriceTableID).
			First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Price table not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
		client.PriceTableID = input.PriceTableID
	}
	if input.IsActive != nil {
		client.IsActive = *input.IsActive
	}

	if err := cc.DB.Save(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient soft deletes a client
func (cc *ClientController) DeleteClient(c *gin.Context) {
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

	result := cc.DB.Where("lab_id = ? AND id = ?", labUUID, clientUUID).
		Delete(&models.Client{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete client")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}
