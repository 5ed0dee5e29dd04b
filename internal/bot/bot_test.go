package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/flows"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/storage"
)

type fakeFlights struct {
	offers    []models.FlightOffer
	airports  map[string]string
	booked    *models.BookingConfirmation
	lastQuery models.OfferQuery
}

func (f *fakeFlights) SearchOffers(_ context.Context, q models.OfferQuery) ([]models.FlightOffer, error) {
	f.lastQuery = q
	return f.offers, nil
}

func (f *fakeFlights) ResolveAirportCode(_ context.Context, keyword string) (string, error) {
	return f.airports[strings.ToLower(keyword)], nil
}

func (f *fakeFlights) PriceAndBook(_ context.Context, offer *models.FlightOffer, _ []*models.Traveler) (*models.BookingConfirmation, error) {
	if f.booked != nil {
		return f.booked, nil
	}
	return &models.BookingConfirmation{Reference: "PNRTEST", ConfirmedOffer: offer}, nil
}

type fakePayments struct {
	unpaid    bool
	verifyErr error
}

func (*fakePayments) CreateCheckoutSession(_ context.Context, _, _ string) (string, string, error) {
	return "https://pay.example/session", "cs_test_1", nil
}

func (f *fakePayments) IsSessionPaid(_ context.Context, _ string) (bool, error) {
	return !f.unpaid, f.verifyErr
}

type fakeClassifier struct {
	byText map[string]*models.IntentResult
	calls  int
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (*models.IntentResult, error) {
	f.calls++
	if result, ok := f.byText[text]; ok {
		return result, nil
	}
	return &models.IntentResult{TopIntent: "None"}, nil
}

type recordingTranslator struct {
	toLangs []string
}

func (r *recordingTranslator) Translate(_ context.Context, text, toLang, _ string) string {
	r.toLangs = append(r.toLangs, toLang)
	return text
}

type recordingResponder struct {
	texts []string
	cards []dialog.Card
}

func (r *recordingResponder) SendText(text string) error {
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingResponder) SendCard(card dialog.Card) error {
	r.cards = append(r.cards, card)
	return nil
}

func (r *recordingResponder) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, r.texts)
	return r.texts[len(r.texts)-1]
}

func sampleOffer() models.FlightOffer {
	return models.FlightOffer{
		ID:                    "1",
		NumberOfBookableSeats: 4,
		Price:                 models.OfferPrice{Currency: "INR", Total: "5320.00", GrandTotal: "5320.00"},
		Itineraries: []models.FlightItinerary{{
			Duration: "PT2H10M",
			Segments: []models.FlightSegment{{
				CarrierCode: "AI",
				Number:      "101",
				Departure:   models.SegmentPoint{IataCode: "DEL", Terminal: "3", At: "2025-12-25T08:00:00"},
				Arrival:     models.SegmentPoint{IataCode: "BOM", Terminal: "2", At: "2025-12-25T10:10:00"},
				Duration:    "PT2H10M",
			}},
		}},
		TravelerPricings: []models.TravelerPricing{{
			TravelerID: "1",
			Price:      models.FarePrice{Total: "5320.00", RefundableTaxes: "500.00"},
			FareDetailsBySegment: []models.FareDetail{{
				Cabin: "ECONOMY",
				Class: "E",
			}},
		}},
	}
}

type testHarness struct {
	bot        *Bot
	classifier *fakeClassifier
	translator *recordingTranslator
	flights    *fakeFlights
	payments   *fakePayments
	store      *storage.MemoryStore
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	return newTestHarnessWithStore(t, storage.NewMemoryStore())
}

// newTestHarnessWithStore builds a fresh bot over an existing store, the
// way a restarted process would come up
func newTestHarnessWithStore(t *testing.T, store *storage.MemoryStore) *testHarness {
	t.Helper()

	flights := &fakeFlights{
		offers: []models.FlightOffer{sampleOffer()},
		airports: map[string]string{
			"delhi":  "DEL",
			"mumbai": "BOM",
		},
	}
	payments := &fakePayments{}

	set := dialog.NewSet()
	flows.Register(set, flows.Deps{
		Flights:  flights,
		Payments: payments,
		Store:    store,
	})

	classifier := &fakeClassifier{byText: map[string]*models.IntentResult{
		"book a flight from delhi to mumbai": {
			TopIntent: "SearchFlight",
			Entities: []models.Entity{
				{Category: "fromLocation", Text: "Delhi"},
				{Category: "toLocation", Text: "Mumbai"},
				{Category: "departureDate", Text: "2025-12-25"},
				{Category: "passengers", Text: "2"},
			},
		},
		"search flights":  {TopIntent: "SearchFlight"},
		"change language": {TopIntent: "ChangeLanguage"},
	}}
	translator := &recordingTranslator{}

	b, err := NewBot(set, NewStateManager(store), translator, classifier)
	require.NoError(t, err)

	return &testHarness{bot: b, classifier: classifier, translator: translator, flights: flights, payments: payments, store: store}
}

func (h *testHarness) turn(t *testing.T, conv, text, payload string) *recordingResponder {
	t.Helper()
	responder := &recordingResponder{}
	err := h.bot.ProcessTurn(context.Background(), Turn{
		ConversationID: conv,
		Text:           text,
		ButtonPayload:  payload,
	}, responder)
	require.NoError(t, err)
	return responder
}

// driveToPaymentWait runs a booking for one traveler up to the stage
// where the flow waits for the user to type done
func (h *testHarness) driveToPaymentWait(t *testing.T, conv string) {
	t.Helper()
	h.turn(t, conv, "book a flight from delhi to mumbai", "")
	h.turn(t, conv, "yes", "")
	h.turn(t, conv, "", "book_flight:0")
	answers := []string{"Asha", "Rao", "1990-05-12", "P1234567", "asha@example.com", "9876543210", "FEMALE"}
	for _, answer := range answers {
		h.turn(t, conv, answer, "")
	}
	r := h.turn(t, conv, "yes", "")
	require.Contains(t, r.lastText(t), "type done")
}

func TestProcessTurn_FullyPrefilledSearchAsksOnlyForConfirmation(t *testing.T) {
	h := newTestHarness(t)

	r := h.turn(t, "user1", "book a flight from delhi to mumbai", "")
	require.Len(t, r.texts, 2)
	require.Contains(t, r.texts[0], "From: DEL")
	require.Contains(t, r.texts[0], "To: BOM")
	require.Contains(t, r.texts[0], "Passengers: 2")
	require.Contains(t, r.texts[0], "Date: 2025-12-25")
	require.Contains(t, r.texts[1], "Are you sure you want to search")

	r = h.turn(t, "user1", "yes", "")
	require.Contains(t, r.texts[0], "Found 1 flights")
	require.Len(t, r.cards, 2) // one offer card plus the menu
	require.Equal(t, "book_flight:0", r.cards[0].Buttons[0].Payload)

	// the confirmation turn was consumed by the suspended flow, not classified
	require.Equal(t, 1, h.classifier.calls)
}

func TestProcessTurn_MissingSlotsArePromptedInOrder(t *testing.T) {
	h := newTestHarness(t)

	r := h.turn(t, "user1", "search flights", "")
	require.Contains(t, r.lastText(t), "departure city")

	r = h.turn(t, "user1", "Delhi", "")
	require.Contains(t, r.lastText(t), "destination city")

	r = h.turn(t, "user1", "Mumbai", "")
	require.Contains(t, r.lastText(t), "How many passengers")

	r = h.turn(t, "user1", "2", "")
	require.Contains(t, r.lastText(t), "which date")

	// mid-flow, free text feeds the active prompt instead of reclassifying
	require.Equal(t, 1, h.classifier.calls)
}

func TestProcessTurn_UnknownCityRepromptsAirport(t *testing.T) {
	h := newTestHarness(t)

	h.turn(t, "user1", "search flights", "")
	r := h.turn(t, "user1", "Atlantis", "")
	require.Contains(t, r.texts[0], "Invalid city")
	require.Contains(t, r.lastText(t), "departure city")
}

func TestProcessTurn_UnknownIntentShowsMenu(t *testing.T) {
	h := newTestHarness(t)

	r := h.turn(t, "user1", "flarglebargle", "")
	require.Contains(t, r.texts[0], "didn't understand")
	require.Len(t, r.cards, 1)
	require.Len(t, r.cards[0].Buttons, 5)

	// nothing left suspended
	require.Equal(t, 0, h.bot.state.Get("user1").Stack.Depth())
}

func TestProcessTurn_DeclinedSearchEndsFlow(t *testing.T) {
	h := newTestHarness(t)

	h.turn(t, "user1", "book a flight from delhi to mumbai", "")
	r := h.turn(t, "user1", "no", "")
	require.Contains(t, r.texts[0], "chose not to search")
	require.Equal(t, 0, h.bot.state.Get("user1").Stack.Depth())
}

func TestProcessTurn_ChangeLanguage(t *testing.T) {
	h := newTestHarness(t)

	r := h.turn(t, "user1", "change language", "")
	require.Contains(t, r.texts[0], "preferred language")

	r = h.turn(t, "user1", "hindi", "")
	require.Contains(t, r.texts[0], "Language updated")
	require.Equal(t, "hi", h.bot.state.Get("user1").Language)

	// subsequent replies are translated into the chosen language
	h.turn(t, "user1", "flarglebargle", "")
	require.Contains(t, h.translator.toLangs, "hi")
}

func TestProcessTurn_BookButtonStartsBooking(t *testing.T) {
	h := newTestHarness(t)

	h.turn(t, "user1", "book a flight from delhi to mumbai", "")
	h.turn(t, "user1", "yes", "")

	r := h.turn(t, "user1", "", "book_flight:0")
	require.Contains(t, r.texts[0], "traveler 1 of 1")
	require.Contains(t, r.lastText(t), "First name:")
}

func TestProcessTurn_BookButtonWithStaleIndex(t *testing.T) {
	h := newTestHarness(t)

	r := h.turn(t, "user1", "", "book_flight:7")
	require.Contains(t, r.texts[0], "no longer available")
}

func TestProcessTurn_BookingEndToEnd(t *testing.T) {
	h := newTestHarness(t)

	h.turn(t, "user1", "book a flight from delhi to mumbai", "")
	h.turn(t, "user1", "yes", "")
	h.turn(t, "user1", "", "book_flight:0")

	answers := []string{"Asha", "Rao", "1990-05-12", "P1234567", "asha@example.com", "9876543210"}
	for _, answer := range answers {
		h.turn(t, "user1", answer, "")
	}

	r := h.turn(t, "user1", "FEMALE", "")
	require.Contains(t, r.texts[0], "Proceed to payment")
	require.Contains(t, r.lastText(t), "Do you want to continue")

	r = h.turn(t, "user1", "yes", "")
	require.NotEmpty(t, r.cards)
	require.Equal(t, "https://pay.example/session", r.cards[0].Buttons[0].URL)
	require.Contains(t, r.lastText(t), "type done")

	r = h.turn(t, "user1", "done", "")
	confirmation := strings.Join(r.texts, "\n")
	require.Contains(t, confirmation, "Booking Confirmed")
	require.Contains(t, confirmation, "PNRTEST")

	// one row per traveler per segment was persisted
	rows, err := h.store.FindItinerariesByEmail("asha@example.com")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "PNRTEST", rows[0].PNR)
	require.Equal(t, "AI101", rows[0].FlightNumber)
	require.Equal(t, "Asha Rao", rows[0].TravelerName)
}

func TestProcessTurn_SessionsAreIsolatedByConversation(t *testing.T) {
	h := newTestHarness(t)

	h.turn(t, "user1", "search flights", "")
	r := h.turn(t, "user2", "flarglebargle", "")
	require.Contains(t, r.texts[0], "didn't understand")

	// user1's flow is still waiting on its prompt
	r = h.turn(t, "user1", "Delhi", "")
	require.Contains(t, r.lastText(t), "destination city")
}

func TestProcessTurn_BookingRequiresDoneReply(t *testing.T) {
	h := newTestHarness(t)
	h.driveToPaymentWait(t, "user1")

	r := h.turn(t, "user1", "paid it", "")
	require.Contains(t, r.texts[0], "Please type done")
	require.Equal(t, 0, h.bot.state.Get("user1").Stack.Depth())

	rows, err := h.store.FindItinerariesByEmail("asha@example.com")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestProcessTurn_BookingPaymentNotVerified(t *testing.T) {
	h := newTestHarness(t)
	h.payments.unpaid = true
	h.driveToPaymentWait(t, "user1")

	r := h.turn(t, "user1", "done", "")
	require.Contains(t, r.texts[0], "Payment not verified")
	require.Equal(t, 0, h.bot.state.Get("user1").Stack.Depth())

	rows, err := h.store.FindItinerariesByEmail("asha@example.com")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestProcessTurn_BookingPaymentVerificationError(t *testing.T) {
	h := newTestHarness(t)
	h.payments.verifyErr = errors.New("provider unavailable")
	h.driveToPaymentWait(t, "user1")

	r := h.turn(t, "user1", "done", "")
	require.Contains(t, r.texts[0], "Payment not verified")

	rows, err := h.store.FindItinerariesByEmail("asha@example.com")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestProcessTurn_BookingTwoTravelers(t *testing.T) {
	h := newTestHarness(t)
	offer := sampleOffer()
	offer.TravelerPricings = append(offer.TravelerPricings, models.TravelerPricing{
		TravelerID:           "2",
		Price:                models.FarePrice{Total: "5320.00", RefundableTaxes: "500.00"},
		FareDetailsBySegment: []models.FareDetail{{Cabin: "ECONOMY", Class: "E"}},
	})
	h.flights.offers = []models.FlightOffer{offer}

	h.turn(t, "user1", "book a flight from delhi to mumbai", "")
	h.turn(t, "user1", "yes", "")
	r := h.turn(t, "user1", "", "book_flight:0")
	require.Contains(t, r.texts[0], "traveler 1 of 2")

	for _, answer := range []string{"Asha", "Rao", "1990-05-12", "P1234567", "asha@example.com", "9876543210"} {
		h.turn(t, "user1", answer, "")
	}
	r = h.turn(t, "user1", "FEMALE", "")
	require.Contains(t, r.texts[0], "traveler 2 of 2")

	for _, answer := range []string{"Vikram", "Rao", "1988-02-02", "P7654321", "vikram@example.com", "9123456780"} {
		h.turn(t, "user1", answer, "")
	}
	r = h.turn(t, "user1", "MALE", "")
	require.Contains(t, r.texts[0], "Booking for 2 traveler(s)")

	h.turn(t, "user1", "yes", "")
	r = h.turn(t, "user1", "done", "")
	require.Contains(t, strings.Join(r.texts, "\n"), "Booking Confirmed")

	rows, err := h.store.FindItinerariesByReferences([]string{"PNRTEST"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.ElementsMatch(t,
		[]string{"Asha Rao", "Vikram Rao"},
		[]string{rows[0].TravelerName, rows[1].TravelerName})
}

func TestProcessTurn_BookingConfirmationWithoutItineraries(t *testing.T) {
	h := newTestHarness(t)
	h.flights.booked = &models.BookingConfirmation{
		Reference:      "PNRBARE",
		ConfirmedOffer: &models.FlightOffer{Price: models.OfferPrice{Total: "5320.00"}},
	}
	h.driveToPaymentWait(t, "user1")

	r := h.turn(t, "user1", "done", "")
	confirmation := strings.Join(r.texts, "\n")
	require.Contains(t, confirmation, "Booking Confirmed")
	require.Contains(t, confirmation, "PNRBARE")

	// segments fall back to the offer the user selected
	rows, err := h.store.FindItinerariesByReferences([]string{"PNRBARE"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "AI101", rows[0].FlightNumber)
}

func TestProcessTurn_SearchResumesAfterRestart(t *testing.T) {
	h := newTestHarness(t)
	h.turn(t, "user1", "search flights", "")
	h.turn(t, "user1", "Delhi", "")
	h.turn(t, "user1", "Mumbai", "")
	r := h.turn(t, "user1", "2", "")
	require.Contains(t, r.lastText(t), "which date")

	// a fresh process over the same store picks the flow up mid-stream
	h2 := newTestHarnessWithStore(t, h.store)
	r = h2.turn(t, "user1", "2025-12-25", "")
	require.Contains(t, r.texts[0], "From: DEL")
	require.Contains(t, r.texts[0], "Passengers: 2")
	require.Contains(t, r.lastText(t), "Are you sure you want to search")

	r = h2.turn(t, "user1", "yes", "")
	require.Contains(t, r.texts[0], "Found 1 flights")
	require.Equal(t, "DEL", h2.flights.lastQuery.Origin)
	require.Equal(t, "BOM", h2.flights.lastQuery.Destination)
	require.Equal(t, 2, h2.flights.lastQuery.Adults)

	// the resumed turns never went through the classifier
	require.Equal(t, 0, h2.classifier.calls)
}

func TestProcessTurn_BookButtonInterruptsActiveFlow(t *testing.T) {
	h := newTestHarness(t)
	h.turn(t, "user1", "book a flight from delhi to mumbai", "")
	h.turn(t, "user1", "yes", "")

	// a second flow is mid-prompt when the card button arrives
	r := h.turn(t, "user1", "search flights", "")
	require.Contains(t, r.lastText(t), "departure city")

	r = h.turn(t, "user1", "", "book_flight:0")
	require.Contains(t, r.texts[0], "traveler 1 of 1")
	require.Contains(t, r.lastText(t), "First name:")
}
