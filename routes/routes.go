package routes

import (
	"prosthelab-backend/config"
	"prosthelab-backend/controllers"
	"prosthelab-backend/services"
	"prosthelab-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, notifier *services.NotificationService) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	ledgerService := services.NewLedgerService(services.SystemClock{})

	authController := &controllers.AuthController{DB: db}
	profileController := &controllers.ProfileController{DB: db}
	clientController := &controllers.ClientController{DB: db}
	employeeController := &controllers.EmployeeController{DB: db}
	serviceController := &controllers.ServiceController{DB: db}
	priceTableController := &controllers.PriceTableController{DB: db}
	orderController := &controllers.OrderController{DB: db, Ledger: ledgerService, Notifier: notifier}
	ledgerController := &controllers.LedgerController{DB: db, Ledger: ledgerService}
	reportController := &controllers.ReportController{DB: db}
	dashboardController := &controllers.DashboardController{DB: db}

	auth := r.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", authController.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Client routes
		clients := api.Group("/clients")
		{
			clients.POST("", clientController.CreateClient)
			clients.GET("", clientController.GetClients)
			clients.GET("/:id", clientController.GetClient)
			clients.PUT("/:id", clientController.UpdateClient)
			clients.DELETE("/:id", clientController.DeleteClient)

			// Resolved price list and financial account
			clients.GET("/:id/prices", clientController.GetClientPrices)
			clients.GET("/:id/account", ledgerController.GetClientAccount)
			clients.POST("/:id/payments", ledgerController.RecordPayment)
		}

		// Employee routes
		employees := api.Group("/employees")
		{
			employees.POST("", employeeController.CreateEmployee)
			employees.GET("", employeeController.GetEmployees)
			employees.GET("/:id", employeeController.GetEmployee)
			employees.PUT("/:id", employeeController.UpdateEmployee)
			employees.DELETE("/:id", employeeController.DeleteEmployee)
		}

		// Catalog service routes
		catalog := api.Group("/services")
		{
			catalog.POST("", serviceController.CreateService)
			catalog.GET("", serviceController.GetServices)
			catalog.GET("/:id", serviceController.GetService)
			catalog.PUT("/:id", serviceController.UpdateService)
			catalog.DELETE("/:id", serviceController.DeleteService)
		}

		// Price table routes
		priceTables := api.Group("/price-tables")
		{
			priceTables.POST("", priceTableController.CreatePriceTable)
			priceTables.GET("", priceTableController.GetPriceTables)
			priceTables.GET("/:id", priceTableController.GetPriceTable)
			priceTables.PUT("/:id", priceTableController.UpdatePriceTable)
			priceTables.DELETE("/:id", priceTableController.DeletePriceTable)
		}

		// Order routes
		orders := api.Group("/orders")
		{
			orders.POST("", orderController.CreateOrder)
			orders.GET("", orderController.GetOrders)
			orders.GET("/:id", orderController.GetOrder)
			orders.PUT("/:id", orderController.UpdateOrder)
			orders.PATCH("/:id/status", orderController.UpdateOrderStatus)
			orders.POST("/:id/cancel", ledgerController.CancelOrder)
			orders.DELETE("/:id", orderController.DeleteOrder)
		}

		// Ledger transaction routes
		api.DELETE("/transactions/:id", ledgerController.DeleteTransaction)

		// Report routes
		reports := api.Group("/reports")
		{
			reports.GET("/completed", reportController.GetCompletedOrders)
			reports.GET("/commissions", reportController.GetEmployeeCommissions)
			reports.GET("/client-orders", reportController.GetClientOrders)
		}

		// Dashboard routes
		api.GET("/dashboard", dashboardController.GetDashboardOverview)

		// Settings routes
		profile := api.Group("/profile")
		{
			profile.GET("", profileController.GetProfile)
			profile.PUT("", profileController.UpdateProfile)
			profile.PUT("/working-hours", profileController.UpdateWorkingHours)
			profile.PUT("/notifications", profileController.UpdateNotificationSettings)
		}
	}

	return r
}
