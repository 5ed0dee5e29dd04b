package flows

import (
	"fmt"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// OfferCard renders one flight offer as a structured card whose Book Now
// button carries the machine-readable selection payload
func OfferCard(offer models.FlightOffer, index int) dialog.Card {
	var body []string
	var totalDuration string

	if len(offer.Itineraries) > 0 {
		itinerary := offer.Itineraries[0]
		totalDuration = itinerary.Duration
		for _, seg := range itinerary.Segments {
			body = append(body, fmt.Sprintf(
				"✈️ %s%s | %s (T%s) → %s (T%s)\n🕓 Dep: %s | Arr: %s\n🕒 Duration: %s",
				seg.CarrierCode, seg.Number,
				seg.Departure.IataCode, terminalOr(seg.Departure.Terminal),
				seg.Arrival.IataCode, terminalOr(seg.Arrival.Terminal),
				formatSegmentTime(seg.Departure.At), formatSegmentTime(seg.Arrival.At),
				prettyISODuration(seg.Duration)))
		}
	}

	fareClass := "N/A"
	baggage := "N/A"
	if len(offer.TravelerPricings) > 0 && len(offer.TravelerPricings[0].FareDetailsBySegment) > 0 {
		fare := offer.TravelerPricings[0].FareDetailsBySegment[0]
		if fare.Class != "" {
			fareClass = fare.Class
		}
		if fare.IncludedCheckedBags != nil && fare.IncludedCheckedBags.Weight > 0 {
			baggage = fmt.Sprintf("%d%s", fare.IncludedCheckedBags.Weight, fare.IncludedCheckedBags.WeightUnit)
		}
	}

	body = append(body,
		fmt.Sprintf("🕒 Total Duration: %s", prettyISODuration(totalDuration)),
		fmt.Sprintf("💺 Fare Class: %s, Seats: %d", fareClass, offer.NumberOfBookableSeats),
		fmt.Sprintf("💰 Price: %s %s", offer.Price.Currency, offer.Price.Total),
		fmt.Sprintf("🧳 Baggage: %s", baggage),
	)

	return dialog.Card{
		Body: body,
		Buttons: []dialog.CardButton{
			{Title: "Book Now ✈️", Payload: fmt.Sprintf("book_flight:%d", index)},
		},
	}
}

func terminalOr(terminal string) string {
	if terminal == "" {
		return "N/A"
	}
	return terminal
}
