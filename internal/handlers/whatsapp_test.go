package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
)

func TestTextSelectionPayload(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"book 1", "book_flight:0"},
		{"Book 3", "book_flight:2"},
		{"  BOOK 10 ", "book_flight:9"},
		{"book 0", ""},
		{"book", ""},
		{"booking help", ""},
		{"yes", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.want, textSelectionPayload(tt.input))
		})
	}
}

func TestRenderCardText(t *testing.T) {
	card := dialog.Card{
		Title: "Secure Payment",
		Body:  []string{"Click below to pay."},
		Buttons: []dialog.CardButton{
			{Title: "Pay Now", URL: "https://pay.example/s1"},
		},
	}

	text := RenderCardText(card)
	require.Contains(t, text, "*Secure Payment*")
	require.Contains(t, text, "Click below to pay.")
	require.Contains(t, text, "👉 Pay Now: https://pay.example/s1")
}

func TestRenderCardText_BookButtonGetsReplyHint(t *testing.T) {
	card := dialog.Card{
		Body: []string{"✈️ AI101 | DEL → BOM"},
		Buttons: []dialog.CardButton{
			{Title: "Book Now ✈️", Payload: "book_flight:0"},
		},
	}

	text := RenderCardText(card)
	require.Contains(t, text, `👉 Reply "book 1" to Book Now ✈️`)
}

func TestRenderCardText_MenuButtons(t *testing.T) {
	card := dialog.Card{
		Title: "Menu",
		Buttons: []dialog.CardButton{
			{Title: "Search Flights", Payload: "I want to search for flights"},
			{Title: "Change Language", Payload: "Change language"},
		},
	}

	text := RenderCardText(card)
	require.Contains(t, text, "🔹 Search Flights")
	require.Contains(t, text, "🔹 Change Language")
}
