package bot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/storage"
)

func TestStateManager_NewSessionDefaults(t *testing.T) {
	sm := NewStateManager(storage.NewMemoryStore())

	session := sm.Get("conv-1")
	require.Equal(t, "en", session.Language)
	require.Equal(t, 0, session.Stack.Depth())
	require.NotNil(t, session.Scratch)

	// same conversation yields the same session
	session.Scratch["k"] = "v"
	require.Equal(t, "v", sm.Get("conv-1").Scratch["k"])
	require.Equal(t, 1, sm.ActiveSessions())
}

func TestStateManager_SaveAndRestoreSnapshot(t *testing.T) {
	store := storage.NewMemoryStore()

	sm := NewStateManager(store)
	session := sm.Get("conv-1")
	session.Language = "hi"
	session.PreviousIntent = "SearchFlight"
	session.Stack.Frames = []*dialog.Frame{{
		DialogID:  "SearchFlight",
		StepIndex: 3,
		Values:    map[string]any{"from": "DEL", "adults": 2},
	}}
	require.NoError(t, sm.Save("conv-1"))

	// a fresh manager over the same store picks the mid-flow state back up
	restored := NewStateManager(store).Get("conv-1")
	require.Equal(t, "hi", restored.Language)
	require.Equal(t, "SearchFlight", restored.PreviousIntent)
	require.Equal(t, 1, restored.Stack.Depth())
	frame := restored.Stack.Active()
	require.Equal(t, "SearchFlight", frame.DialogID)
	require.Equal(t, 3, frame.StepIndex)
	require.Equal(t, "DEL", frame.Values["from"])
}

func TestStateManager_SaveUnknownConversationIsNoop(t *testing.T) {
	sm := NewStateManager(storage.NewMemoryStore())
	require.NoError(t, sm.Save("never-seen"))
}

func TestStateManager_CorruptSnapshotFallsBackToFreshStack(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.SaveConversationSession(&models.ConversationSession{
		ConversationID: "conv-1",
		Language:       "fr",
		DialogState:    "{not json",
	}))

	session := NewStateManager(store).Get("conv-1")
	require.Equal(t, "fr", session.Language)
	require.Equal(t, 0, session.Stack.Depth())
}

func TestSessionReset_KeepsLanguage(t *testing.T) {
	sm := NewStateManager(storage.NewMemoryStore())
	session := sm.Get("conv-1")
	session.Language = "ta"
	session.PreviousIntent = "FilterFlight"
	session.ExpectingLanguage = true
	session.Stack.Frames = []*dialog.Frame{{DialogID: "FilterFlight"}}

	session.Reset()
	require.Equal(t, "ta", session.Language)
	require.Empty(t, session.PreviousIntent)
	require.False(t, session.ExpectingLanguage)
	require.Equal(t, 0, session.Stack.Depth())
}
