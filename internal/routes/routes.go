package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/bot"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/handlers"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/middleware"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/services"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, chatBot *bot.Bot, store storage.Store, twilioService *services.TwilioService) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to SkyTrip Backend!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":      "/health",
				"webhook":     "/webhook/whatsapp",
				"chat":        "/test/chat",
				"itineraries": "/api/itineraries",
			},
		})
	})

	healthHandler := handlers.NewHealthHandler("1.0.0")
	app.Get("/health", healthHandler.Check)

	// WhatsApp webhook, signed by Twilio
	whatsappHandler := handlers.NewWhatsAppHandler(chatBot, twilioService)
	app.Post("/webhook/whatsapp", middleware.ValidateTwilioSignature(), whatsappHandler.HandleWebhook)

	// Local test endpoint that echoes replies instead of sending them
	chatHandler := handlers.NewChatHandler(chatBot)
	app.Post("/test/chat", chatHandler.HandleChat)

	// REST access to booked itineraries
	api := app.Group("/api")
	itineraryHandler := handlers.NewItineraryHandler(store)
	api.Get("/itineraries", itineraryHandler.GetByEmail)
	api.Delete("/itineraries/:pnr", itineraryHandler.Cancel)
}
