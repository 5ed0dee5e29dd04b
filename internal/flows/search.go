package flows

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// SearchQuery is the option bundle handed to the result dialogs
type SearchQuery struct {
	From   string
	To     string
	Date   string
	Adults int
}

type searchFlow struct {
	deps Deps
}

// NewSearchFlow builds the search-and-book waterfall: prefill from
// extracted entities, ask only for the missing slots, confirm, then
// search and show bookable result cards.
func NewSearchFlow(deps Deps) *dialog.Waterfall {
	f := &searchFlow{deps: deps}
	return dialog.NewWaterfall(SearchFlowID,
		f.firstStep,
		f.getFrom,
		f.getTo,
		f.getAdults,
		f.getDate,
		f.confirmStep,
		f.summaryStep,
	)
}

// firstStep pre-fills slots from the entities extracted off the original
// free-text message, so a message answering several questions at once
// only gets prompted for what's missing
func (f *searchFlow) firstStep(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	entities, _ := sc.Options().([]models.Entity)

	prefillAirport(sc, tc, f.deps.Flights, entities, "fromLocation", "from")
	prefillAirport(sc, tc, f.deps.Flights, entities, "toLocation", "to")
	prefillDate(sc, entities)
	prefillPassengers(sc, entities)

	return sc.Next(nil)
}

func (f *searchFlow) getFrom(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("from") {
		return sc.Prompt(airportPromptID, tc.Translate("What is your departure city (valid airport city)?"))
	}
	return sc.Next(nil)
}

func (f *searchFlow) getTo(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("from") {
		sc.SetValue("from", sc.Result())
	}
	if !sc.HasValue("to") {
		return sc.Prompt(airportPromptID, tc.Translate("What is your destination city (valid airport city)?"))
	}
	return sc.Next(nil)
}

func (f *searchFlow) getAdults(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("to") {
		sc.SetValue("to", sc.Result())
	}
	if !sc.HasValue("adults") {
		return sc.Prompt(numberPromptID, tc.Translate("How many passengers (1-150)?"))
	}
	return sc.Next(nil)
}

func (f *searchFlow) getDate(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("adults") {
		sc.SetValue("adults", sc.Result())
	}
	if !sc.HasValue("date") {
		return sc.Prompt(dateTimePromptID, tc.Translate(`On which date do you want to search the flight (MM-DD-YYYY, YYYY-MM-DD)? You can also type "today" or "tomorrow".`))
	}
	return sc.Next(nil)
}

func (f *searchFlow) confirmStep(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	absorbDate(sc)

	tc.Say(fmt.Sprintf("You have entered the following:\n\nFrom: %v\nTo: %v\nPassengers: %v\nDate: %v",
		sc.Value("from"), sc.Value("to"), sc.Value("adults"), sc.Value("date")))

	return sc.Prompt(confirmPromptID, tc.Translate("Are you sure you want to search for flights? (yes/no)"))
}

func (f *searchFlow) summaryStep(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if confirmed, _ := sc.Result().(bool); !confirmed {
		tc.Say("No problem! You chose not to search for a flight.")
		return sc.End(nil)
	}

	return sc.Begin(showFlightsID, SearchQuery{
		From:   sc.StringValue("from"),
		To:     sc.StringValue("to"),
		Date:   sc.StringValue("date"),
		Adults: sc.IntValue("adults"),
	})
}

// newShowFlightsDialog searches and presents up to five offers as
// bookable cards, remembering them for a later card-button selection
func newShowFlightsDialog(deps Deps) *dialog.Waterfall {
	return dialog.NewWaterfall(showFlightsID, func(sc *dialog.StepContext) (dialog.Result, error) {
		tc := sc.Context()
		q := sc.Options().(SearchQuery)

		offers, err := deps.Flights.SearchOffers(tc.Ctx, models.OfferQuery{
			Origin:        q.From,
			Destination:   q.To,
			DepartureDate: q.Date,
			Adults:        q.Adults,
			Max:           5,
			CurrencyCode:  "INR",
		})
		if err != nil {
			log.Printf("❌ Flight search failed (%s → %s on %s): %v", q.From, q.To, q.Date, err)
			tc.Say("⚠️ An error occurred while fetching flights. Please try again later.")
			return sc.End(nil)
		}
		if len(offers) == 0 {
			tc.Say(fmt.Sprintf("❌ Sorry, no flights found from %s to %s on %s.", q.From, q.To, q.Date))
			return sc.End(nil)
		}

		tc.Say(fmt.Sprintf("✅ Found %d flights ✈️ from %s to %s on %s:", len(offers), q.From, q.To, q.Date))
		tc.Remember(KeyLastOffers, offers)
		for i, offer := range offers {
			tc.SendCard(OfferCard(offer, i))
		}
		return sc.End(nil)
	})
}

// prefillAirport resolves a city entity to an airport code into the slot.
// Resolution failure leaves the slot empty; the airport prompt will ask.
func prefillAirport(sc *dialog.StepContext, tc *dialog.TurnContext, flights FlightClient, entities []models.Entity, category, slot string) {
	city := models.EntityText(entities, category)
	if city == "" {
		return
	}
	code, err := flights.ResolveAirportCode(tc.Ctx, city)
	if err != nil {
		log.Printf("⚠️ Could not resolve %q to an airport code: %v", city, err)
		return
	}
	if len(code) == 3 {
		sc.SetValue(slot, strings.ToUpper(code))
	}
}

func prefillDate(sc *dialog.StepContext, entities []models.Entity) {
	if raw := models.EntityText(entities, "departureDate"); raw != "" {
		if d := ParseUserDate(raw, time.Now()); d != "" {
			sc.SetValue("date", d)
		}
	}
}

func prefillPassengers(sc *dialog.StepContext, entities []models.Entity) {
	if raw := models.EntityText(entities, "passengers"); raw != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 && n <= dialog.NumberPromptMax {
			sc.SetValue("adults", n)
		}
	}
}

// absorbDate fills the date slot from the date prompt's candidate list,
// taking the first candidate's value
func absorbDate(sc *dialog.StepContext) {
	if sc.HasValue("date") {
		return
	}
	if candidates, ok := sc.Result().([]DateCandidate); ok && len(candidates) > 0 {
		sc.SetValue("date", candidates[0].Value)
	}
}
