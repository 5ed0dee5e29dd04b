package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/flows"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// Classifier resolves a user utterance (already in English) into an
// intent plus extracted entities
type Classifier interface {
	Classify(ctx context.Context, text string) (*models.IntentResult, error)
}

// IntentChangeLanguage switches the conversation language instead of
// starting a flow
const IntentChangeLanguage = "ChangeLanguage"

// flowByIntent is the closed mapping from recognized intents to the
// dialog each one starts. Any intent outside this map (and outside
// IntentChangeLanguage) falls back to the help menu.
var flowByIntent = map[string]string{
	"SearchFlight":    flows.SearchFlowID,
	"PriceCompare":    flows.CompareFlowID,
	"FilterFlight":    flows.FilterFlowID,
	"ManageItinerary": flows.ItineraryFlowID,
}

// languageAliases maps spelled-out language names to translator codes
var languageAliases = map[string]string{
	"english": "en",
	"hindi":   "hi",
	"tamil":   "ta",
	"telugu":  "te",
	"kannada": "kn",
	"french":  "fr",
	"spanish": "es",
	"german":  "de",
}

// Turn is one inbound message from a conversation channel
type Turn struct {
	ConversationID string
	Text           string
	ButtonPayload  string
}

// Bot dispatches inbound turns: it resumes the active dialog when one is
// suspended, otherwise classifies the message and starts the matching flow.
type Bot struct {
	set        *dialog.Set
	state      *StateManager
	translator dialog.Translator
	classifier Classifier
}

// NewBot wires the dispatcher and verifies that every dialog the intent
// mapping can start is actually registered, so a routing gap fails at
// startup instead of mid-conversation.
func NewBot(set *dialog.Set, state *StateManager, translator dialog.Translator, classifier Classifier) (*Bot, error) {
	required := []string{flows.BookingFlowID, flows.TravelerFlowID, flows.PaymentFlowID}
	for _, id := range flowByIntent {
		required = append(required, id)
	}
	for _, id := range required {
		if !set.Has(id) {
			return nil, fmt.Errorf("dialog %q mapped but not registered", id)
		}
	}

	return &Bot{
		set:        set,
		state:      state,
		translator: translator,
		classifier: classifier,
	}, nil
}

// ProcessTurn handles one inbound message end to end. All user-facing
// failures are reported on the channel; the returned error is reserved
// for transport-level problems the caller must surface.
func (b *Bot) ProcessTurn(ctx context.Context, turn Turn, responder dialog.Responder) error {
	session := b.state.Get(turn.ConversationID)

	tc := &dialog.TurnContext{
		Ctx:            ctx,
		ConversationID: turn.ConversationID,
		Message:        turn.Text,
		Language:       session.Language,
		Responder:      responder,
		Translator:     b.translator,
		Remember:       func(key string, value any) { session.Scratch[key] = value },
		Recall:         func(key string) any { return session.Scratch[key] },
	}
	dc := b.set.CreateContext(tc, session.Stack)

	defer func() {
		if err := b.state.Save(turn.ConversationID); err != nil {
			log.Printf("❌ Failed to persist session for %s: %v", turn.ConversationID, err)
		}
	}()

	if session.ExpectingLanguage {
		b.applyLanguage(tc, session, turn.Text)
		return nil
	}

	if strings.HasPrefix(turn.ButtonPayload, "book_flight:") {
		return b.beginBooking(tc, dc, session, strings.TrimPrefix(turn.ButtonPayload, "book_flight:"))
	}

	if session.Stack.Depth() > 0 {
		result, err := dc.Continue()
		if err != nil {
			return b.finishTurn(tc, session, result, err)
		}
		switch result.Status {
		case dialog.StatusWaiting:
			return nil
		case dialog.StatusComplete:
			session.Reset()
			b.sendMenu(tc)
			return nil
		}
		// StatusEmpty: no dialog consumed the turn, classify it below
	}

	english := tc.TranslateIn(strings.TrimSpace(turn.Text))
	intent, err := b.classifier.Classify(ctx, english)
	if err != nil {
		log.Printf("❌ Intent classification failed for %s: %v", turn.ConversationID, err)
		tc.Say("⚠️ Sorry, I'm having trouble understanding right now. Please try again in a moment.")
		return nil
	}

	if intent.TopIntent == IntentChangeLanguage {
		session.ExpectingLanguage = true
		tc.Say("🌐 Please enter your preferred language (e.g., en, hi, ta, fr):")
		return nil
	}

	if flowID, ok := flowByIntent[intent.TopIntent]; ok {
		session.PreviousIntent = intent.TopIntent
		result, err := dc.Begin(flowID, intent.Entities)
		return b.finishTurn(tc, session, result, err)
	}

	dc.CancelAll()
	session.Reset()
	tc.Say("🤔 Sorry, I didn't understand that. Here's what I can help you with:")
	b.sendMenu(tc)
	return nil
}

// beginBooking starts the booking dialog for an offer the user selected
// off a previously shown result card
func (b *Bot) beginBooking(tc *dialog.TurnContext, dc *dialog.Context, session *Session, rawIndex string) error {
	offers, _ := session.Scratch[flows.KeyLastOffers].([]models.FlightOffer)
	index, err := strconv.Atoi(strings.TrimSpace(rawIndex))
	if err != nil || index < 0 || index >= len(offers) {
		tc.Say("⚠️ That flight is no longer available. Please search again.")
		return nil
	}

	dc.CancelAll()
	result, beginErr := dc.Begin(flows.BookingFlowID, flows.BookingOptions{SelectedFlight: &offers[index]})
	return b.finishTurn(tc, session, result, beginErr)
}

// applyLanguage consumes the turn after a ChangeLanguage request as the
// new language choice
func (b *Bot) applyLanguage(tc *dialog.TurnContext, session *Session, text string) {
	code := strings.ToLower(strings.TrimSpace(text))
	if alias, ok := languageAliases[code]; ok {
		code = alias
	}
	if code == "" {
		code = "en"
	}

	session.Language = code
	session.ExpectingLanguage = false
	tc.Language = code

	log.Printf("🌐 Conversation %s switched to language %q", tc.ConversationID, code)
	tc.Say("✅ Language updated! How can I help you?")
	b.sendMenu(tc)
}

func (b *Bot) finishTurn(tc *dialog.TurnContext, session *Session, result dialog.Result, err error) error {
	if err != nil {
		log.Printf("❌ Dialog error for %s: %v", tc.ConversationID, err)
		session.Reset()
		tc.Say("⚠️ Something went wrong. Let's start over.")
		b.sendMenu(tc)
		return nil
	}
	if result.Status == dialog.StatusComplete {
		session.Reset()
		b.sendMenu(tc)
	}
	return nil
}

func (b *Bot) sendMenu(tc *dialog.TurnContext) {
	tc.SendCard(dialog.Card{
		Title: "✈️ SkyTrip Flight Assistant",
		Body:  []string{"I can help you with:"},
		Buttons: []dialog.CardButton{
			{Title: "🔍 Search Flights", Payload: "I want to search for flights"},
			{Title: "💰 Compare Prices", Payload: "Compare flight prices"},
			{Title: "🎯 Filter Flights", Payload: "Filter flights"},
			{Title: "🧳 Manage Itinerary", Payload: "Manage my itinerary"},
			{Title: "🌐 Change Language", Payload: "Change language"},
		},
	})
}
