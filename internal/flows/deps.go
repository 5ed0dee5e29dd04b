package flows

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// Dialog ids for every flow and nested dialog the bot registers
const (
	SearchFlowID    = "SearchFlight"
	CompareFlowID   = "PriceCompare"
	FilterFlowID    = "FilterFlight"
	BookingFlowID   = "BookingDialog"
	ItineraryFlowID = "ManageItinerary"
	TravelerFlowID  = "TravelerDetails"
	PaymentFlowID   = "PaymentDialog"

	showFlightsID    = "ShowFlights"
	showComparisonID = "ShowComparison"
	showFilteredID   = "ShowFiltered"
	showBookingID    = "ShowBooking"

	textPromptID     = "TextPrompt"
	numberPromptID   = "NumberPrompt"
	confirmPromptID  = "ConfirmPrompt"
	dateTimePromptID = "DateTimePrompt"
	choicePromptID   = "ChoicePrompt"
	airportPromptID  = "AirportPrompt"
)

// KeyLastOffers is the conversation scratch key under which result
// dialogs remember the offers they displayed, so a later card-button
// selection can reference one by index.
const KeyLastOffers = "last_offers"

// FlightClient is the travel-supplier surface the flows consume
type FlightClient interface {
	SearchOffers(ctx context.Context, q models.OfferQuery) ([]models.FlightOffer, error)
	ResolveAirportCode(ctx context.Context, keyword string) (string, error)
	PriceAndBook(ctx context.Context, offer *models.FlightOffer, travelers []*models.Traveler) (*models.BookingConfirmation, error)
}

// PaymentClient creates and verifies checkout sessions
type PaymentClient interface {
	CreateCheckoutSession(ctx context.Context, amount, currency string) (url, sessionID string, err error)
	IsSessionPaid(ctx context.Context, sessionID string) (bool, error)
}

// ItineraryStore persists and retrieves finalized itinerary rows
type ItineraryStore interface {
	InsertItinerarySegments(rows []*models.Itinerary) error
	FindItinerariesByEmail(email string) ([]*models.Itinerary, error)
	FindItinerariesByReferences(refs []string) ([]*models.Itinerary, error)
	DeleteItinerariesByReference(pnr string) error
}

// Deps bundles the external collaborators shared by all flows
type Deps struct {
	Flights  FlightClient
	Payments PaymentClient
	Store    ItineraryStore
}

// Register adds every flow, nested dialog and prompt primitive to the set
func Register(set *dialog.Set, deps Deps) {
	set.Add(dialog.NewTextPrompt(textPromptID))
	set.Add(dialog.NewNumberPrompt(numberPromptID))
	set.Add(dialog.NewConfirmPrompt(confirmPromptID))
	set.Add(dialog.NewChoicePrompt(choicePromptID))
	set.Add(newDateTimePrompt())
	set.Add(newAirportPrompt(deps.Flights))

	set.Add(NewSearchFlow(deps))
	set.Add(NewCompareFlow(deps))
	set.Add(NewFilterFlow(deps))
	set.Add(NewBookingFlow(deps))
	set.Add(NewTravelerFlow())
	set.Add(NewPaymentFlow(deps))
	set.Add(NewItineraryFlow(deps))

	set.Add(newShowFlightsDialog(deps))
	set.Add(newShowComparisonDialog(deps))
	set.Add(newShowFilteredDialog(deps))
	set.Add(newShowBookingDialog(deps))
}

// newDateTimePrompt interprets free-text dates into candidates; the
// downstream step takes the first candidate's value
func newDateTimePrompt() *dialog.Prompt {
	return dialog.NewPrompt(dateTimePromptID, func(_ *dialog.TurnContext, _ dialog.PromptOptions, input string) (any, bool) {
		candidates := ResolveDateInput(input, time.Now())
		if len(candidates) == 0 {
			return nil, false
		}
		return candidates, true
	})
}

// newAirportPrompt validates free text against the supplier's airport
// lookup. Input is translated to English first when the conversation
// runs in another language; lookup errors are reported to the user and
// treated as failed validation, never as a crash.
func newAirportPrompt(flights FlightClient) *dialog.Prompt {
	return dialog.NewPrompt(airportPromptID, func(tc *dialog.TurnContext, _ dialog.PromptOptions, input string) (any, bool) {
		city := strings.TrimSpace(input)
		if city == "" {
			return nil, false
		}
		city = tc.TranslateIn(city)

		code, err := flights.ResolveAirportCode(tc.Ctx, city)
		if err != nil {
			log.Printf("❌ Airport lookup failed for %q: %v", city, err)
			tc.Say("⚠️ Something went wrong while checking the city. Please try again.")
			return nil, false
		}
		if len(code) != 3 {
			tc.Say("❌ Invalid city. Please enter a valid airport city.")
			return nil, false
		}
		return strings.ToUpper(code), true
	})
}
