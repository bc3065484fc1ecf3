package main

import (
	"fmt"
	"log"
	"os"

	"prosthelab-backend/config"
	"prosthelab-backend/models"
	"prosthelab-backend/routes"
	"prosthelab-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Employee{},
		&models.Service{},
		&models.PriceTable{},
		&models.PriceTableItem{},
		&models.ServiceOrder{},
		&models.ServiceOrderItem{},
		&models.OrderEmployee{},
		&models.Transaction{},
		&models.DeliveryNotice{},
	)

	notifier := services.NewNotificationService(db)
	notifier.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter(db, notifier)
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
