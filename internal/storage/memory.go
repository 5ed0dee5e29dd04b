package storage

import (
	"sync"
	"time"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// MemoryStore holds all data in memory for local development and tests
type MemoryStore struct {
	itineraries []*models.Itinerary
	sessions    map[string]*models.ConversationSession

	itineraryMu sync.RWMutex
	sessionMu   sync.RWMutex

	itineraryCounter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.ConversationSession),
	}
}

// InsertItinerarySegments stores all rows of a booking
func (m *MemoryStore) InsertItinerarySegments(rows []*models.Itinerary) error {
	m.itineraryMu.Lock()
	defer m.itineraryMu.Unlock()

	now := time.Now()
	for _, row := range rows {
		m.itineraryCounter++
		row.ID = m.itineraryCounter
		row.CreatedAt = now
		row.UpdatedAt = now
		m.itineraries = append(m.itineraries, row)
	}
	return nil
}

// FindItinerariesByEmail returns every itinerary row booked under an email
func (m *MemoryStore) FindItinerariesByEmail(email string) ([]*models.Itinerary, error) {
	m.itineraryMu.RLock()
	defer m.itineraryMu.RUnlock()

	var rows []*models.Itinerary
	for _, row := range m.itineraries {
		if row.Email == email {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// FindItinerariesByReferences returns all rows for the given booking references
func (m *MemoryStore) FindItinerariesByReferences(refs []string) ([]*models.Itinerary, error) {
	m.itineraryMu.RLock()
	defer m.itineraryMu.RUnlock()

	wanted := make(map[string]bool, len(refs))
	for _, ref := range refs {
		wanted[ref] = true
	}

	var rows []*models.Itinerary
	for _, row := range m.itineraries {
		if wanted[row.PNR] {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// DeleteItinerariesByReference removes every row of a booking
func (m *MemoryStore) DeleteItinerariesByReference(pnr string) error {
	m.itineraryMu.Lock()
	defer m.itineraryMu.Unlock()

	kept := m.itineraries[:0]
	for _, row := range m.itineraries {
		if row.PNR != pnr {
			kept = append(kept, row)
		}
	}
	m.itineraries = kept
	return nil
}

// SaveConversationSession upserts the per-conversation snapshot
func (m *MemoryStore) SaveConversationSession(session *models.ConversationSession) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	copied := *session
	copied.UpdatedAt = time.Now()
	m.sessions[session.ConversationID] = &copied
	return nil
}

// GetConversationSession loads a conversation snapshot, or nil when the
// conversation has never been seen
func (m *MemoryStore) GetConversationSession(conversationID string) (*models.ConversationSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	session, exists := m.sessions[conversationID]
	if !exists {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}
