package bot

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// SessionStore is the durable side of conversation state
type SessionStore interface {
	SaveConversationSession(session *models.ConversationSession) error
	GetConversationSession(conversationID string) (*models.ConversationSession, error)
}

// Session holds everything the bot knows about one conversation between
// turns: language preference, the active dialog stack and scratch values
// such as the last set of flight offers shown.
type Session struct {
	ConversationID    string         `json:"conversation_id"`
	Language          string         `json:"language"`
	ExpectingLanguage bool           `json:"expecting_language"`
	PreviousIntent    string         `json:"previous_intent"`
	Stack             *dialog.Stack  `json:"stack"`
	Scratch           map[string]any `json:"scratch"`
	CreatedAt         time.Time      `json:"created_at"`
	LastActive        time.Time      `json:"last_active"`
}

// StateManager keeps conversation sessions in memory and snapshots them
// to the store once per turn
type StateManager struct {
	store      SessionStore
	sessions   map[string]*Session
	mu         sync.RWMutex
	sessionTTL time.Duration
}

// NewStateManager creates a state manager with a background cleanup of
// idle sessions
func NewStateManager(store SessionStore) *StateManager {
	sm := &StateManager{
		store:      store,
		sessions:   make(map[string]*Session),
		sessionTTL: 30 * time.Minute,
	}

	go sm.cleanupIdleSessions()

	return sm
}

// Get returns the session for a conversation, creating one if needed.
// New sessions are seeded from the durable snapshot when one exists, so
// an in-flight dialog survives a process restart.
func (sm *StateManager) Get(conversationID string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[conversationID]; exists {
		session.LastActive = time.Now()
		return session
	}

	session := &Session{
		ConversationID: conversationID,
		Language:       "en",
		Stack:          &dialog.Stack{},
		Scratch:        make(map[string]any),
		CreatedAt:      time.Now(),
		LastActive:     time.Now(),
	}

	if sm.store != nil {
		if snapshot, err := sm.store.GetConversationSession(conversationID); err == nil && snapshot != nil {
			session.Language = snapshot.Language
			session.PreviousIntent = snapshot.PreviousIntent
			session.ExpectingLanguage = snapshot.ExpectingLanguage
			if snapshot.DialogState != "" {
				var frames []*dialog.Frame
				if err := json.Unmarshal([]byte(snapshot.DialogState), &frames); err != nil {
					log.Printf("⚠️ Dropping unreadable dialog state for %s: %v", conversationID, err)
				} else {
					for _, f := range frames {
						if f.Values == nil {
							f.Values = make(map[string]any)
						}
					}
					session.Stack.Frames = frames
				}
			}
		}
	}
	if session.Language == "" {
		session.Language = "en"
	}

	sm.sessions[conversationID] = session
	return session
}

// Save writes one durable snapshot of the session. Called once at the
// end of each turn rather than after every state change.
func (sm *StateManager) Save(conversationID string) error {
	sm.mu.RLock()
	session, exists := sm.sessions[conversationID]
	sm.mu.RUnlock()
	if !exists || sm.store == nil {
		return nil
	}

	dialogState := ""
	if session.Stack.Depth() > 0 {
		raw, err := json.Marshal(session.Stack.Frames)
		if err != nil {
			log.Printf("⚠️ Could not serialize dialog state for %s: %v", conversationID, err)
		} else {
			dialogState = string(raw)
		}
	}

	return sm.store.SaveConversationSession(&models.ConversationSession{
		ConversationID:    session.ConversationID,
		Language:          session.Language,
		PreviousIntent:    session.PreviousIntent,
		ExpectingLanguage: session.ExpectingLanguage,
		DialogState:       dialogState,
		LastActive:        session.LastActive,
	})
}

// Reset clears the dialog state of a conversation after a flow finishes
// or is abandoned, keeping the language preference.
func (s *Session) Reset() {
	s.Stack.Clear()
	s.PreviousIntent = ""
	s.ExpectingLanguage = false
}

func (sm *StateManager) cleanupIdleSessions() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		sm.mu.Lock()
		now := time.Now()
		for id, session := range sm.sessions {
			if now.Sub(session.LastActive) > sm.sessionTTL {
				delete(sm.sessions, id)
				log.Printf("🧹 Session expired for conversation %s", id)
			}
		}
		sm.mu.Unlock()
	}
}

// ActiveSessions returns the number of sessions currently held in memory
func (sm *StateManager) ActiveSessions() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
