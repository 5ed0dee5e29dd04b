package flows

import (
	"fmt"
	"log"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

type compareFlow struct {
	deps Deps
}

// NewCompareFlow builds the best-value comparison waterfall. Same slot
// sequence as the search flow, but the result dialog pulls a large
// offer pool and ranks it.
func NewCompareFlow(deps Deps) *dialog.Waterfall {
	f := &compareFlow{deps: deps}
	s := &searchFlow{deps: deps}
	return dialog.NewWaterfall(CompareFlowID,
		s.firstStep,
		s.getFrom,
		s.getTo,
		s.getAdults,
		f.getDate,
		f.confirmStep,
		f.summaryStep,
	)
}

func (f *compareFlow) getDate(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if !sc.HasValue("adults") {
		sc.SetValue("adults", sc.Result())
	}
	if !sc.HasValue("date") {
		return sc.Prompt(dateTimePromptID, tc.Translate(`On which date would you like to see the best value flights? (Format: MM-DD-YYYY or YYYY-MM-DD) You can also type "today" or "tomorrow".`))
	}
	return sc.Next(nil)
}

func (f *compareFlow) confirmStep(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	absorbDate(sc)

	tc.Say(fmt.Sprintf("You have entered the following:\nFrom: %v\nTo: %v\nPassengers: %v\nDate: %v",
		sc.Value("from"), sc.Value("to"), sc.Value("adults"), sc.Value("date")))

	return sc.Prompt(confirmPromptID, tc.Translate("Are you sure you want to search for best value flights? (yes/no)"))
}

func (f *compareFlow) summaryStep(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if confirmed, _ := sc.Result().(bool); !confirmed {
		tc.Say("No problem! You chose not to search for a flight.")
		return sc.End(nil)
	}

	return sc.Begin(showComparisonID, SearchQuery{
		From:   sc.StringValue("from"),
		To:     sc.StringValue("to"),
		Date:   sc.StringValue("date"),
		Adults: sc.IntValue("adults"),
	})
}

// newShowComparisonDialog searches a pool of up to 100 offers, ranks
// them by the linear value score, and presents the top five
func newShowComparisonDialog(deps Deps) *dialog.Waterfall {
	return dialog.NewWaterfall(showComparisonID, func(sc *dialog.StepContext) (dialog.Result, error) {
		tc := sc.Context()
		q := sc.Options().(SearchQuery)

		offers, err := deps.Flights.SearchOffers(tc.Ctx, models.OfferQuery{
			Origin:        q.From,
			Destination:   q.To,
			DepartureDate: q.Date,
			Adults:        q.Adults,
			Max:           100,
			CurrencyCode:  "INR",
		})
		if err != nil {
			log.Printf("❌ Comparison search failed (%s → %s on %s): %v", q.From, q.To, q.Date, err)
			tc.Say("⚠️ An error occurred while fetching flights. Please try again later.")
			return sc.End(nil)
		}
		if len(offers) == 0 {
			tc.Say(fmt.Sprintf("❌ Sorry, no flights found from %s to %s on %s.", q.From, q.To, q.Date))
			return sc.End(nil)
		}

		best := RankOffers(offers, 5)
		tc.Say(fmt.Sprintf("✅ Found %d best value flights ✈️ from %s to %s on %s:", len(best), q.From, q.To, q.Date))
		tc.Remember(KeyLastOffers, best)
		for i, offer := range best {
			tc.SendCard(OfferCard(offer, i))
		}
		return sc.End(nil)
	})
}
