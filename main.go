package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/SkyTrip-Labs/skytrip-backend/database"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/bot"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/flows"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/routes"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/services"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	// Initialize storage
	var store storage.Store
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		db, err := database.Connect()
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		log.Println("🔄 Running database migrations...")
		if err := db.AutoMigrate(
			&models.Itinerary{},
			&models.ConversationSession{},
		); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewGormStore(db)
		log.Println("✅ Using PostgreSQL database storage")
	}

	// External services
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Fatal("Failed to initialize Twilio service:", err)
	}
	log.Println("✅ Twilio service initialized")

	amadeusService, err := services.NewAmadeusService()
	if err != nil {
		log.Fatal("Failed to initialize Amadeus service:", err)
	}
	log.Println("✅ Amadeus service initialized")

	stripeService, err := services.NewStripeService()
	if err != nil {
		log.Fatal("Failed to initialize Stripe service:", err)
	}
	log.Println("✅ Stripe service initialized")

	intentService, err := services.NewIntentService()
	if err != nil {
		log.Fatal("Failed to initialize intent service:", err)
	}
	log.Println("✅ Intent service initialized")

	translatorService := services.NewTranslatorService()

	// Dialog engine
	dialogSet := dialog.NewSet()
	flows.Register(dialogSet, flows.Deps{
		Flights:  amadeusService,
		Payments: stripeService,
		Store:    store,
	})

	stateManager := bot.NewStateManager(store)
	chatBot, err := bot.NewBot(dialogSet, stateManager, translatorService, intentService)
	if err != nil {
		log.Fatal("Failed to initialize bot:", err)
	}
	log.Println("✅ Dialog engine initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "SkyTrip Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, chatBot, store, twilioService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 SkyTrip Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", storageType())
	log.Println("📱 WhatsApp webhook: /webhook/whatsapp")
	log.Println("========================================")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "in-memory"
	}
	return "postgresql"
}
