package storage

import (
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// Store defines the interface for storage operations
type Store interface {
	// Itinerary operations
	InsertItinerarySegments(rows []*models.Itinerary) error
	FindItinerariesByEmail(email string) ([]*models.Itinerary, error)
	FindItinerariesByReferences(refs []string) ([]*models.Itinerary, error)
	DeleteItinerariesByReference(pnr string) error

	// Conversation session operations
	SaveConversationSession(session *models.ConversationSession) error
	GetConversationSession(conversationID string) (*models.ConversationSession, error)
}
