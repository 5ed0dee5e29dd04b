package flows

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// FilterQuery is the option bundle for the filtered-search result dialog
type FilterQuery struct {
	From               string
	To                 string
	Date               string
	Adults             int
	Airline            string // comma-separated IATA codes, empty = any
	MaxPrice           int    // 0 = no cap
	NonStop            bool
	MaxDurationMinutes int // 0 = no limit
	TravelClass        string
}

var travelClassChoices = []string{"ALL", "ECONOMY", "PREMIUM_ECONOMY", "BUSINESS", "FIRST"}

var nonDigits = regexp.MustCompile(`[^\d]`)

type filterFlow struct {
	deps Deps
}

// NewFilterFlow builds the filtered-search waterfall: the common route
// slots plus optional airline, budget, nonstop, duration and cabin
// constraints.
func NewFilterFlow(deps Deps) *dialog.Waterfall {
	f := &filterFlow{deps: deps}
	return dialog.NewWaterfall(FilterFlowID,
		f.firstStep,
		f.getFrom,
		f.getTo,
		f.getAdults,
		f.getDate,
		f.askAirline,
		f.askMaxPrice,
		f.askNonstop,
		f.askMaxDuration,
		f.askTravelClass,
		f.confirmStep,
		f.summaryStep,
	)
}

func (f *filterFlow) firstStep(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	entities, _ := sc.Options().([]models.Entity)

	prefillAirport(sc, tc, f.deps.Flights, entities, "fromLocation", "from")
	prefillAirport(sc, tc, f.deps.Flights, entities, "toLocation", "to")
	prefillDate(sc, entities)
	prefillPassengers(sc, entities)

	if airline := models.EntityText(entities, "airline"); airline != "" {
		sc.SetValue("airline", strings.ToUpper(strings.TrimSpace(airline)))
	}
	if raw := models.EntityText(entities, "maxPrice"); raw != "" {
		if n, err := strconv.Atoi(nonDigits.ReplaceAllString(raw, "")); err == nil && n > 0 {
			sc.SetValue("maxPrice", n)
		}
	}

	return sc.Next(nil)
}

func (f *filterFlow) getFrom(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("from") {
		return sc.Prompt(airportPromptID, tc.Translate("What is your departure city (valid airport city)?"))
	}
	return sc.Next(nil)
}

func (f *filterFlow) getTo(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("from") {
		sc.SetValue("from", sc.Result())
	}
	if !sc.HasValue("to") {
		return sc.Prompt(airportPromptID, tc.Translate("What is your destination city (valid airport city)?"))
	}
	return sc.Next(nil)
}

func (f *filterFlow) getAdults(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("to") {
		sc.SetValue("to", sc.Result())
	}
	if !sc.HasValue("adults") {
		return sc.Prompt(numberPromptID, tc.Translate("How many passengers (1-150)?"))
	}
	return sc.Next(nil)
}

func (f *filterFlow) getDate(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("adults") {
		sc.SetValue("adults", sc.Result())
	}
	if !sc.HasValue("date") {
		return sc.Prompt(dateTimePromptID, tc.Translate(`On which date do you want to filter the flight (MM-DD-YYYY, YYYY-MM-DD)? You can also type "today" or "tomorrow".`))
	}
	return sc.Next(nil)
}

func (f *filterFlow) askAirline(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	absorbDate(sc)
	if !sc.HasValue("airline") {
		return sc.Prompt(textPromptID, tc.Translate(`Optional: Filter by airline IATA codes (comma-separated, e.g., AI, EK) or type "no" to skip.`))
	}
	return sc.Next(nil)
}

func (f *filterFlow) askMaxPrice(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("airline") {
		answer, _ := sc.Result().(string)
		if strings.EqualFold(strings.TrimSpace(answer), "no") {
			sc.SetValue("airline", "")
		} else {
			sc.SetValue("airline", strings.ToUpper(strings.TrimSpace(answer)))
		}
	}
	if !sc.HasValue("maxPrice") {
		return sc.Prompt(textPromptID, tc.Translate(`Optional: Enter your maximum budget in INR (e.g., 10000), or type "no" to skip.`))
	}
	return sc.Next(nil)
}

func (f *filterFlow) askNonstop(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("maxPrice") {
		answer, _ := sc.Result().(string)
		n, err := strconv.Atoi(nonDigits.ReplaceAllString(answer, ""))
		if err != nil || strings.EqualFold(strings.TrimSpace(answer), "no") {
			n = 0
		}
		sc.SetValue("maxPrice", n)
	}
	return sc.Prompt(confirmPromptID, tc.Translate("Would you like to see only direct flights (no layovers)? (yes/no)"))
}

func (f *filterFlow) askMaxDuration(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	nonstop, _ := sc.Result().(bool)
	sc.SetValue("nonstop", nonstop)
	return sc.Prompt(textPromptID, tc.Translate(`Optional: Enter max travel duration (e.g., 5h, 6h 30m), or type "no" to skip.`))
}

func (f *filterFlow) askTravelClass(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	answer, _ := sc.Result().(string)
	maxMinutes := 0
	if d := ParseUserDuration(answer); d != nil {
		maxMinutes = *d
	}
	sc.SetValue("maxDuration", maxMinutes)
	return sc.PromptChoice(choicePromptID, tc.Translate("Please select a travel class:"), travelClassChoices)
}

func (f *filterFlow) confirmStep(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	travelClass, _ := sc.Result().(string)
	sc.SetValue("travelClass", travelClass)

	maxDuration := "Not specified"
	if d := sc.IntValue("maxDuration"); d > 0 {
		maxDuration = fmt.Sprintf("%d mins", d)
	}
	airline := "Any"
	if a := sc.StringValue("airline"); a != "" {
		airline = a
	}
	maxPrice := "Not specified"
	if p := sc.IntValue("maxPrice"); p > 0 {
		maxPrice = fmt.Sprintf("₹%d", p)
	}

	tc.Say(fmt.Sprintf("You have entered the following:\n\nFrom: %v\nTo: %v\nPassengers: %v\nDate: %v\nAirline: %s\nMax Price: %s\nNonStop: %v\nMax Duration: %s\nTravel Class: %s",
		sc.Value("from"), sc.Value("to"), sc.Value("adults"), sc.Value("date"),
		airline, maxPrice, sc.Value("nonstop"), maxDuration, travelClass))

	return sc.Prompt(confirmPromptID, tc.Translate("Are you sure you want to filter flights? (yes/no)"))
}

func (f *filterFlow) summaryStep(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if confirmed, _ := sc.Result().(bool); !confirmed {
		tc.Say("No problem! You chose not to filter the flights.")
		return sc.End(nil)
	}

	return sc.Begin(showFilteredID, FilterQuery{
		From:               sc.StringValue("from"),
		To:                 sc.StringValue("to"),
		Date:               sc.StringValue("date"),
		Adults:             sc.IntValue("adults"),
		Airline:            sc.StringValue("airline"),
		MaxPrice:           sc.IntValue("maxPrice"),
		NonStop:            sc.BoolValue("nonstop"),
		MaxDurationMinutes: sc.IntValue("maxDuration"),
		TravelClass:        sc.StringValue("travelClass"),
	})
}

// newShowFilteredDialog runs the constrained search and presents the
// matches. The duration cap is applied here; the supplier API has no
// parameter for it.
func newShowFilteredDialog(deps Deps) *dialog.Waterfall {
	return dialog.NewWaterfall(showFilteredID, func(sc *dialog.StepContext) (dialog.Result, error) {
		tc := sc.Context()
		q := sc.Options().(FilterQuery)

		query := models.OfferQuery{
			Origin:        q.From,
			Destination:   q.To,
			DepartureDate: q.Date,
			Adults:        q.Adults,
			Max:           50,
			CurrencyCode:  "INR",
			NonStop:       q.NonStop,
			AirlineCodes:  q.Airline,
			MaxPrice:      q.MaxPrice,
		}
		if q.TravelClass != "" && q.TravelClass != "ALL" {
			query.TravelClass = q.TravelClass
		}

		offers, err := deps.Flights.SearchOffers(tc.Ctx, query)
		if err != nil {
			log.Printf("❌ Filtered search failed (%s → %s on %s): %v", q.From, q.To, q.Date, err)
			tc.Say("⚠️ An error occurred while fetching flights. Please check your filters and try again.")
			return sc.End(nil)
		}

		if q.MaxDurationMinutes > 0 {
			offers = FilterByDuration(offers, q.MaxDurationMinutes)
		}

		if len(offers) == 0 {
			tc.Say(fmt.Sprintf("❌ Sorry, no flights matched your filters from %s to %s on %s.", q.From, q.To, q.Date))
			return sc.End(nil)
		}

		tc.Say(fmt.Sprintf("✅ Found %d flights ✈️ matching your filters from %s to %s on %s:", len(offers), q.From, q.To, q.Date))
		tc.Remember(KeyLastOffers, offers)
		for i, offer := range offers {
			tc.SendCard(OfferCard(offer, i))
		}
		return sc.End(nil)
	})
}

// FilterByDuration keeps offers whose total itinerary duration does not
// exceed maxMinutes
func FilterByDuration(offers []models.FlightOffer, maxMinutes int) []models.FlightOffer {
	var kept []models.FlightOffer
	for _, offer := range offers {
		if len(offer.Itineraries) == 0 {
			continue
		}
		if ParseISOMinutes(offer.Itineraries[0].Duration) <= maxMinutes {
			kept = append(kept, offer)
		}
	}
	return kept
}
