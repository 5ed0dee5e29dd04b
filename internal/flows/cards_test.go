package flows

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

func TestOfferCard_RendersWithoutItineraries(t *testing.T) {
	offer := models.FlightOffer{Price: models.OfferPrice{Currency: "INR", Total: "4200.00"}}

	card := OfferCard(offer, 3)

	require.Equal(t, "book_flight:3", card.Buttons[0].Payload)
	joined := strings.Join(card.Body, "\n")
	require.Contains(t, joined, "Price: INR 4200.00")
}
