package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/flows"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/storage"
)

// ItineraryHandler serves booked itineraries over plain REST, for
// integrations that bypass the chat channel
type ItineraryHandler struct {
	store storage.Store
}

// NewItineraryHandler creates a new itinerary handler
func NewItineraryHandler(store storage.Store) *ItineraryHandler {
	return &ItineraryHandler{store: store}
}

// GetByEmail returns all bookings under an email, grouped by booking
// reference
func (h *ItineraryHandler) GetByEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email query parameter is required",
		})
	}

	matching, err := h.store.FindItinerariesByEmail(email)
	if err != nil {
		log.Printf("❌ Itinerary lookup failed for %s: %v", email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch itineraries",
		})
	}

	var pnrs []string
	seen := make(map[string]bool)
	for _, row := range matching {
		if !seen[row.PNR] {
			seen[row.PNR] = true
			pnrs = append(pnrs, row.PNR)
		}
	}

	all, err := h.store.FindItinerariesByReferences(pnrs)
	if err != nil {
		log.Printf("❌ Itinerary lookup by references failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch itineraries",
		})
	}

	groups := flows.GroupItineraries(all)
	return c.JSON(fiber.Map{
		"count":       len(groups),
		"itineraries": groups,
	})
}

// Cancel deletes every row of a booking reference
func (h *ItineraryHandler) Cancel(c *fiber.Ctx) error {
	pnr := c.Params("pnr")
	if pnr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "pnr is required",
		})
	}

	rows, err := h.store.FindItinerariesByReferences([]string{pnr})
	if err != nil {
		log.Printf("❌ Itinerary lookup failed for PNR %s: %v", pnr, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch booking",
		})
	}
	if len(rows) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Booking not found",
		})
	}

	if err := h.store.DeleteItinerariesByReference(pnr); err != nil {
		log.Printf("❌ Failed to cancel PNR %s: %v", pnr, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel booking",
		})
	}

	return c.JSON(fiber.Map{
		"message":           "Booking cancelled",
		"pnr":               pnr,
		"refundable_amount": rows[0].RefundableAmount,
	})
}
