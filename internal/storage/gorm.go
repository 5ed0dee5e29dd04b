package storage

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// GormStore persists itineraries and conversation sessions in PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open database handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// InsertItinerarySegments writes all rows of a booking in one batch
func (s *GormStore) InsertItinerarySegments(rows []*models.Itinerary) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.Create(&rows).Error
}

// FindItinerariesByEmail returns every itinerary row booked under an email
func (s *GormStore) FindItinerariesByEmail(email string) ([]*models.Itinerary, error) {
	var rows []*models.Itinerary
	err := s.db.Where("email = ?", email).
		Order("pnr, segment_number").
		Find(&rows).Error
	return rows, err
}

// FindItinerariesByReferences returns all rows for the given booking
// references, across every traveler on those bookings
func (s *GormStore) FindItinerariesByReferences(refs []string) ([]*models.Itinerary, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	var rows []*models.Itinerary
	err := s.db.Where("pnr IN ?", refs).
		Order("pnr, segment_number").
		Find(&rows).Error
	return rows, err
}

// DeleteItinerariesByReference removes every row of a booking
func (s *GormStore) DeleteItinerariesByReference(pnr string) error {
	return s.db.Where("pnr = ?", pnr).Delete(&models.Itinerary{}).Error
}

// SaveConversationSession upserts the per-conversation snapshot
func (s *GormStore) SaveConversationSession(session *models.ConversationSession) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"language", "previous_intent", "expecting_language", "dialog_state", "last_active", "updated_at",
		}),
	}).Create(session).Error
}

// GetConversationSession loads a conversation snapshot, or nil when the
// conversation has never been seen
func (s *GormStore) GetConversationSession(conversationID string) (*models.ConversationSession, error) {
	var session models.ConversationSession
	err := s.db.Where("conversation_id = ?", conversationID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
