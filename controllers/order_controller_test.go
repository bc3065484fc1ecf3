package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"prosthelab-backend/models"
	"prosthelab-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testClock struct{ day time.Time }

func (c testClock) Today() time.Time { return c.day }

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Client{},
		&models.Employee{},
		&models.Service{},
		&models.PriceTable{},
		&models.PriceTableItem{},
		&models.ServiceOrder{},
		&models.ServiceOrderItem{},
		&models.OrderEmployee{},
		&models.Transaction{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// mockAuthMiddleware injects the lab and user identity that the JWT
// middleware would normally resolve from the token
func mockAuthMiddleware(labID, userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("labId", labID.String())
		c.Set("userId", userID.String())
		c.Next()
	}
}

func setupOrderRouter(db *gorm.DB, labID, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)

	ledger := services.NewLedgerService(testClock{day: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)})
	oc := &OrderController{DB: db, Ledger: ledger}
	lc := &LedgerController{DB: db, Ledger: ledger}

	r := gin.New()
	api := r.Group("/api")
	api.Use(mockAuthMiddleware(labID, userID))
	{
		api.POST("/orders", oc.CreateOrder)
		api.GET("/orders", oc.GetOrders)
		api.GET("/orders/:id", oc.GetOrder)
		api.PUT("/orders/:id", oc.UpdateOrder)
		api.PATCH("/orders/:id/status", oc.UpdateOrderStatus)
		api.DELETE("/orders/:id", oc.DeleteOrder)
		api.GET("/clients/:id/account", lc.GetClientAccount)
	}
	return r
}

type orderFixture struct {
	labID    uuid.UUID
	userID   uuid.UUID
	client   models.Client
	crown    models.Service
	bridge   models.Service
	anna     models.Employee
	bruno    models.Employee
	router   *gin.Engine
	database *gorm.DB
}

// seedOrderFixture builds a lab with a two-service catalog, a price table
// overriding the crown price from 60 to 50, and a client assigned to it
func seedOrderFixture(t *testing.T) *orderFixture {
	db := setupOrderTestDB(t)

	f := &orderFixture{
		labID:    uuid.New(),
		userID:   uuid.New(),
		database: db,
	}

	f.crown = models.Service{LabID: f.labID, Name: "Zirconia Crown", Material: "Ceramics", StandardPrice: decimal.NewFromInt(60)}
	f.bridge = models.Service{LabID: f.labID, Name: "Acrylic Bridge", Material: "Acrylics", StandardPrice: decimal.NewFromInt(40)}
	if err := db.Create(&f.crown).Error; err != nil {
		t.Fatalf("Failed to seed service: %v", err)
	}
	if err := db.Create(&f.bridge).Error; err != nil {
		t.Fatalf("Failed to seed service: %v", err)
	}

	table := models.PriceTable{LabID: f.labID, Name: "Clinic Partner"}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("Failed to seed price table: %v", err)
	}
	item := models.PriceTableItem{PriceTableID: table.ID, ServiceID: f.crown.ID, CustomPrice: decimal.NewFromInt(50)}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("Failed to seed price table item: %v", err)
	}

	f.client = models.Client{
		LabID:           f.labID,
		CreatedByUserID: f.userID,
		Name:            "Dr. Silva",
		Phone:           "+5511999990000",
		PriceTableID:    &table.ID,
	}
	if err := db.Create(&f.client).Error; err != nil {
		t.Fatalf("Failed to seed client: %v", err)
	}

	f.anna = models.Employee{LabID: f.labID, Name: "Anna", DefaultCommission: decimal.NewFromInt(20)}
	f.bruno = models.Employee{LabID: f.labID, Name: "Bruno", DefaultCommission: decimal.NewFromInt(10)}
	if err := db.Create(&f.anna).Error; err != nil {
		t.Fatalf("Failed to seed employee: %v", err)
	}
	if err := db.Create(&f.bruno).Error; err != nil {
		t.Fatalf("Failed to seed employee: %v", err)
	}

	f.router = setupOrderRouter(db, f.labID, f.userID)
	return f
}

func (f *orderFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *orderFixture) createOrder(t *testing.T) models.ServiceOrder {
	body := map[string]interface{}{
		"clientId":    f.client.ID,
		"patientName": "Maria",
		"items": []map[string]interface{}{
			{"serviceId": f.crown.ID, "quantity": 2},
			{"serviceId": f.bridge.ID},
		},
		"employees": []map[string]interface{}{
			{"employeeId": f.anna.ID, "commissionPercentage": "20"},
			{"employeeId": f.bruno.ID, "commissionPercentage": "10"},
		},
	}
	w := f.do(t, http.MethodPost, "/api/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create order: %d %s", w.Code, w.Body.String())
	}

	var order models.ServiceOrder
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("Failed to decode order: %v", err)
	}
	return order
}

func TestCreateOrder(t *testing.T) {
	f := seedOrderFixture(t)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
	}{
		{
			name: "Successfully create order",
			body: map[string]interface{}{
				"clientId":    f.client.ID,
				"patientName": "Maria",
				"items": []map[string]interface{}{
					{"serviceId": f.crown.ID, "quantity": 2},
					{"serviceId": f.bridge.ID, "quantity": 1},
				},
				"employees": []map[string]interface{}{
					{"employeeId": f.anna.ID, "commissionPercentage": "20"},
					{"employeeId": f.bruno.ID, "commissionPercentage": "10"},
				},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Fail with no items",
			body: map[string]interface{}{
				"clientId":  f.client.ID,
				"items":     []map[string]interface{}{},
				"employees": []map[string]interface{}{{"employeeId": f.anna.ID}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Fail with no employees",
			body: map[string]interface{}{
				"clientId":  f.client.ID,
				"items":     []map[string]interface{}{{"serviceId": f.crown.ID}},
				"employees": []map[string]interface{}{},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Fail with unknown client",
			body: map[string]interface{}{
				"clientId":  uuid.New(),
				"items":     []map[string]interface{}{{"serviceId": f.crown.ID}},
				"employees": []map[string]interface{}{{"employeeId": f.anna.ID}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Fail with unknown service",
			body: map[string]interface{}{
				"clientId":  f.client.ID,
				"items":     []map[string]interface{}{{"serviceId": uuid.New()}},
				"employees": []map[string]interface{}{{"employeeId": f.anna.ID}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Fail with commission over 100",
			body: map[string]interface{}{
				"clientId":  f.client.ID,
				"items":     []map[string]interface{}{{"serviceId": f.crown.ID}},
				"employees": []map[string]interface{}{{"employeeId": f.anna.ID, "commissionPercentage": "150"}},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/orders", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var order models.ServiceOrder
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
			assert.Equal(t, models.OrderStatusPending, order.Status)
			assert.Equal(t, "Dr. Silva", order.ClientName)

			// Crown takes the table override: 2x50 + 1x40
			assert.True(t, order.TotalValue.Equal(decimal.NewFromInt(140)), "total %s", order.TotalValue)
			// 20% + 10% of 140
			assert.True(t, order.CommissionValue.Equal(decimal.NewFromInt(42)), "commission %s", order.CommissionValue)

			assert.Len(t, order.Items, 2)
			assert.Len(t, order.Employees, 2)
			assert.Equal(t, "Anna", order.Employees[0].EmployeeName)
			assert.True(t, order.Employees[0].CommissionValue.Equal(decimal.NewFromInt(28)))
		})
	}
}

func TestOrderNumbersAreSequentialPerLab(t *testing.T) {
	f := seedOrderFixture(t)

	first := f.createOrder(t)
	second := f.createOrder(t)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 2, second.Number)

	// Deleting an order never frees its number
	w := f.do(t, http.MethodDelete, "/api/orders/"+second.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	third := f.createOrder(t)
	assert.Equal(t, 3, third.Number)
}

func TestUpdateOrderStatusReconcilesLedger(t *testing.T) {
	f := seedOrderFixture(t)
	order := f.createOrder(t)

	// Completing posts the debit
	w := f.do(t, http.MethodPatch, "/api/orders/"+order.ID.String()+"/status",
		map[string]interface{}{"status": "completed"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var debits int64
	f.database.Model(&models.Transaction{}).
		Where("order_id = ? AND type = ?", order.ID, models.TransactionDebit).
		Count(&debits)
	assert.Equal(t, int64(1), debits)

	// Moving back to pending retracts it
	w = f.do(t, http.MethodPatch, "/api/orders/"+order.ID.String()+"/status",
		map[string]interface{}{"status": "pending"})
	assert.Equal(t, http.StatusOK, w.Code)

	f.database.Model(&models.Transaction{}).
		Where("order_id = ?", order.ID).
		Count(&debits)
	assert.Equal(t, int64(0), debits)

	// Unknown status is rejected at binding
	w = f.do(t, http.MethodPatch, "/api/orders/"+order.ID.String()+"/status",
		map[string]interface{}{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientAccountReflectsCompletedOrders(t *testing.T) {
	f := seedOrderFixture(t)
	order := f.createOrder(t)

	w := f.do(t, http.MethodPatch, "/api/orders/"+order.ID.String()+"/status",
		map[string]interface{}{"status": "completed"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/clients/"+f.client.ID.String()+"/account", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	transactions := response["transactions"].([]interface{})
	assert.Len(t, transactions, 1)
	// The client owes the full order total
	assert.Equal(t, "-140", fmt.Sprint(response["balance"]))
}

func TestUpdateOrderFrozenWhenCompleted(t *testing.T) {
	f := seedOrderFixture(t)
	order := f.createOrder(t)

	w := f.do(t, http.MethodPatch, "/api/orders/"+order.ID.String()+"/status",
		map[string]interface{}{"status": "completed"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPut, "/api/orders/"+order.ID.String(),
		map[string]interface{}{"patientName": "Changed"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateOrderKeepsSnapshottedPrices(t *testing.T) {
	f := seedOrderFixture(t)
	order := f.createOrder(t)

	// Catalog price changes after authoring
	assert.NoError(t, f.database.Model(&models.Service{}).
		Where("id = ?", f.crown.ID).
		Update("standard_price", decimal.NewFromInt(999)).Error)

	// Re-saving the same lines keeps the stored unit prices
	w := f.do(t, http.MethodPut, "/api/orders/"+order.ID.String(),
		map[string]interface{}{
			"items": []map[string]interface{}{
				{"serviceId": f.crown.ID, "quantity": 2},
				{"serviceId": f.bridge.ID, "quantity": 1},
			},
		})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.ServiceOrder
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.True(t, updated.TotalValue.Equal(decimal.NewFromInt(140)), "total %s", updated.TotalValue)
}

func TestDeleteOrderRetractsDebit(t *testing.T) {
	f := seedOrderFixture(t)
	order := f.createOrder(t)

	w := f.do(t, http.MethodPatch, "/api/orders/"+order.ID.String()+"/status",
		map[string]interface{}{"status": "completed"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/api/orders/"+order.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var remaining int64
	f.database.Model(&models.Transaction{}).Where("order_id = ?", order.ID).Count(&remaining)
	assert.Equal(t, int64(0), remaining)
}

func TestGetOrdersFilters(t *testing.T) {
	f := seedOrderFixture(t)
	first := f.createOrder(t)
	_ = f.createOrder(t)

	w := f.do(t, http.MethodPatch, "/api/orders/"+first.ID.String()+"/status",
		map[string]interface{}{"status": "in_progress"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/orders?status=in_progress", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var orders []models.ServiceOrder
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)
	assert.Equal(t, first.ID, orders[0].ID)
}
