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

type EmployeeController struct {
	DB *gorm.DB
}

// CreateEmployeeInput defines the expected JSON structure for creating an employee
type CreateEmployeeInput struct {
	Name              string          `json:"name" binding:"required"`
	Phone             string          `json:"phone"`
	Role              string          `json:"role"`
	DefaultCommission decimal.Decimal `json:"defaultCommission"`
}

// UpdateEmployeeInput defines the expected JSON structure for updating an employee
type UpdateEmployeeInput struct {
	Name              *string          `json:"name"`
	Phone             *string          `json:"phone"`
	Role              *string          `json:"role"`
	DefaultCommission *decimal.Decimal `json:"defaultCommission"`
	IsActive          *bool            `json:"isActive"`
}

// CreateEmployee creates a new employee for the lab
func (ec *EmployeeController) CreateEmployee(c *gin.Context) {
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

	var input CreateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.DefaultCommission.IsNegative() || input.DefaultCommission.GreaterThan(decimal.NewFromInt(100)) {
		utils.RespondWithError(c, http.StatusBadRequest, "Default commission must be between 0 and 100")
		return
	}

	employee := models.Employee{
		LabID:             labUUID,
		Name:              input.Name,
		Phone:             input.Phone,
		Role:              input.Role,
		DefaultCommission: input.DefaultCommission,
		IsActive:          true,
	}
	if employee.Role == "" {
		employee.Role = "technician"
	}

	if err := ec.DB.Create(&employee).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create employee")
		return
	}

	c.JSON(http.StatusCreated, employee)
}

// GetEmployees retrieves all employees for the lab
func (ec *EmployeeController) GetEmployees(c *gin.Context) {
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

	var employees []models.Employee
	if err := ec.DB.Where("lab_id = ?", labUUID).Find(&employees).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve employees")
		return
	}

	c.JSON(http.StatusOK, employees)
}

// GetEmployee retrieves a specific employee by ID
func (ec *EmployeeController) GetEmployee(c *gin.Context) {
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

	employeeID := c.Param("id")
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	var employee models.Employee
	if err := ec.DB.Where("lab_id = ? AND id = ?", labUUID, employeeUUID).
		First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, employee)
}

// UpdateEmployee updates an existing employee
func (ec *EmployeeController) UpdateEmployee(c *gin.Context) {
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

	employeeID := c.Param("id")
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	var input UpdateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var employee models.Employee
	if err := ec.DB.Where("lab_id = ? AND id = ?", labUUID, employeeUUID).
		First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	// Update fields if provided
	if input.Name != nil {
		employee.Name = *input.Name
	}
	if input.Phone != nil {
		employee.Phone = *input.Phone
	}
	if input.Role != nil {
		employee.Role = *input.Role
	}
	if input.DefaultCommission != nil {
		if input.DefaultCommission.IsNegative() || input.DefaultCommission.GreaterThan(decimal.NewFromInt(100)) {
			utils.RespondWithError(c, http.StatusBadRequest, "Default commission must be between 0 and 100")
			return
		}
		employee.DefaultCommission = *input.DefaultCommission
	}
	if input.IsActive != nil {
		employee.IsActive = *input.IsActive
	}

	if err := ec.DB.Save(&employee).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update employee")
		return
	}

	c.JSON(http.StatusOK, employee)
}

// DeleteEmployee soft deletes an employee
func (ec *EmployeeController) DeleteEmployee(c *gin.Context) {
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

	employeeID := c.Param("id")
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	result := ec.DB.Where("lab_id = ? AND id = ?", labUUID, employeeUUID).
		Delete(&models.Employee{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete employee")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Employee deleted successfully"})
}
