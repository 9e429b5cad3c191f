package main

import (
	"context"
	"log"
	"os"
	"time"

	"chemtrack-backend/controllers"
	"chemtrack-backend/models"
	"chemtrack-backend/routes"
	"chemtrack-backend/services"
	"chemtrack-backend/storage"
	"chemtrack-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	db, err := models.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	db.AutoMigrate(&models.Chemical{}, &models.InventoryLevel{}, &models.ChangeHistory{})

	blobs, err := storage.Open(context.Background())
	if err != nil {
		log.Fatal("Failed to open blob storage:", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
				"code":    code,
			})
		},
	})

	app.Use(logger.New())

	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:5173,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Receipts written by the local driver are served straight from disk.
	if local, ok := blobs.(*storage.LocalStore); ok {
		app.Static("/uploads/receipts", local.Root())
	}

	verifier := utils.NewGoogleVerifier(os.Getenv("GOOGLE_CLIENT_ID"))

	ledgerService := services.NewLedgerService(db, blobs)
	historyService := services.NewHistoryService(db)

	hub := services.NewHub()
	go hub.Run()

	authController := controllers.NewAuthController(verifier, os.Getenv("ALLOWED_EMAIL_DOMAIN"))
	chemicalController := controllers.NewChemicalController(db)
	inventoryController := controllers.NewInventoryController(db, ledgerService, hub)
	historyController := controllers.NewHistoryController(db, historyService, ledgerService)

	routes.SetupAuthRoutes(app, authController)
	routes.SetupChemicalRoutes(app, chemicalController)
	routes.SetupInventoryRoutes(app, inventoryController)
	routes.SetupHistoryRoutes(app, historyController)

	// Live change feed; clients refetch levels and history on each event.
	app.Get("/ws", func(c *fiber.Ctx) error {
		if _, err := utils.ValidateJWT(c.Query("token")); err != nil {
			return c.Status(401).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}
		return websocket.New(func(conn *websocket.Conn) {
			hub.HandleWebSocket(conn)
		})(c)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"message":   "ChemTrack Backend is running",
			"timestamp": time.Now().Unix(),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(app.Listen(":" + port))
}
