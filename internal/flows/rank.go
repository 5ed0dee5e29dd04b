package flows

import (
	"sort"
	"strconv"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

var travelClassRank = map[string]int{
	"ECONOMY":         1,
	"PREMIUM_ECONOMY": 2,
	"BUSINESS":        3,
	"FIRST":           4,
}

// OfferScore computes the best-value ranking score for one offer:
// price + durationHours*10 - travelClassRank*5, lower is better.
// A simple linear scalarization, not a Pareto-optimal search.
func OfferScore(offer models.FlightOffer) float64 {
	price, _ := strconv.ParseFloat(offer.Price.Total, 64)

	var durationHours float64
	if len(offer.Itineraries) > 0 {
		durationHours = ISOHours(offer.Itineraries[0].Duration)
	}

	rank := 1 // unknown cabin ranks as economy
	if len(offer.TravelerPricings) > 0 && len(offer.TravelerPricings[0].FareDetailsBySegment) > 0 {
		if r, ok := travelClassRank[offer.TravelerPricings[0].FareDetailsBySegment[0].Cabin]; ok {
			rank = r
		}
	}

	return price + durationHours*10 - float64(rank)*5
}

// RankOffers sorts offers ascending by score and keeps the first top
func RankOffers(offers []models.FlightOffer, top int) []models.FlightOffer {
	ranked := make([]models.FlightOffer, len(offers))
	copy(ranked, offers)
	sort.SliceStable(ranked, func(i, j int) bool {
		return OfferScore(ranked[i]) < OfferScore(ranked[j])
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}
