// controllers/pricetable.go
package controllers

import (
	"errors"
	"net/http"

	"prosthelab-backend/models"
	"prosthelab-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PriceTableController struct {
	DB *gorm.DB
}

// PriceOverrideInput is one service override inside a price table
type PriceOverrideInput struct {
	ServiceID   uuid.UUID       `json:"serviceId" binding:"required"`
	CustomPrice decimal.Decimal `json:"customPrice"`
}

// CreatePriceTableInput defines the expected JSON structure for creating a price table
type CreatePriceTableInput struct {
	Name      string               `json:"name" binding:"required"`
	Overrides []PriceOverrideInput `json:"overrides"`
}

// UpdatePriceTableInput defines the expected JSON structure for updating a price table
type UpdatePriceTableInput struct {
	Name      *string               `json:"name"`
	Overrides *[]PriceOverrideInput `json:"overrides"`
}

// buildItems keeps only positive overrides; a zero or negative custom price
// means "no override" and is never stored.
func buildItems(tableID uuid.UUID, overrides []PriceOverrideInput) []models.PriceTableItem {
	var items []models.PriceTableItem
	for _, override := range overrides {
		if !override.CustomPrice.IsPositive() {
			continue
		}
		items = append(items, models.PriceTableItem{
			PriceTableID: tableID,
			ServiceID:    override.ServiceID,
			CustomPrice:  override.CustomPrice,
		})
	}
	return items
}

// CreatePriceTable creates a new price table for the lab
func (pc *PriceTableController) CreatePriceTable(c *gin.Context) {
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

	var input CreatePriceTableInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	table := models.PriceTable{
		ID:    uuid.New(),
		LabID: labUUID,
		Name:  input.Name,
	}
	table.Items = buildItems(table.ID, input.Overrides)

	if err := pc.DB.Create(&table).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create price table")
		return
	}

	c.JSON(http.StatusCreated, table)
}

// GetPriceTables retrieves all price tables for the lab
func (pc *PriceTableController) GetPriceTables(c *gin.Context) {
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

	var tables []models.PriceTable
	if err := pc.DB.Preload("Items").Where("lab_id = ?", labUUID).Find(&tables).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve price tables")
		return
	}

	c.JSON(http.StatusOK, tables)
}

// GetPriceTable retrieves a specific price table by ID
func (pc *PriceTableController) GetPriceTable(c *gin.Context) {
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

	tableID := c.Param("id")
	tableUUID, err := uuid.Parse(tableID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid price table ID format")
		return
	}

	var table models.PriceTable
	if err := pc.DB.Preload("Items").Where("lab_id = ? AND id = ?", labUUID, tableUUID).
		First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Price table not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, table)
}

// UpdatePriceTable updates an existing price table, replacing its overrides
// when a new set is supplied
func (pc *PriceTableController) UpdatePriceTable(c *gin.Context) {
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

	tableID := c.Param("id")
	tableUUID, err := uuid.Parse(tableID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid price table ID format")
		return
	}

	var input UpdatePriceTableInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Start transaction
	tx := pc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var table models.PriceTable
	if err := tx.Preload("Items").Where("lab_id = ? AND id = ?", labUUID, tableUUID).
		First(&table).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Price table not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		table.Name = *input.Name
	}

	if input.Overrides != nil {
		// Delete existing overrides
		if err := tx.Where("price_table_id = ?", table.ID).Delete(&models.PriceTableItem{}).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear existing overrides")
			return
		}
		table.Items = buildItems(table.ID, *input.Overrides)
	}

	if err := tx.Save(&table).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update price table")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, table)
}

// DeletePriceTable soft deletes a price table. Clients referencing it fall
// back to standard prices.
func (pc *PriceTableController) DeletePriceTable(c *gin.Context) {
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

	tableID := c.Param("id")
	tableUUID, err := uuid.Parse(tableID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid price table ID format")
		return
	}

	result := pc.DB.Where("lab_id = ? AND id = ?", labUUID, tableUUID).
		Delete(&models.PriceTable{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete price table")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Price table not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Price table deleted successfully"})
}
