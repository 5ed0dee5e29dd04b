package models

import (
	"time"

	"gorm.io/gorm"
)

// Itinerary is one persisted (traveler x flight segment) row of a booking
type Itinerary struct {
	gorm.Model
	UserID              string `json:"user_id" gorm:"index"`
	PNR                 string `json:"pnr" gorm:"index;column:pnr"`
	TravelerName        string `json:"traveler_name"`
	Email               string `json:"email" gorm:"index"`
	Phone               string `json:"phone"`
	Price               string `json:"price"`
	RefundableAmount    string `json:"refundable_amount"`
	TravelClass         string `json:"travel_class"`
	FlightNumber        string `json:"flight_number"`
	Origin              string `json:"origin"`
	OriginTerminal      string `json:"origin_terminal"`
	Destination         string `json:"destination"`
	DestinationTerminal string `json:"destination_terminal"`
	DepartureTime       string `json:"departure_time"`
	ArrivalTime         string `json:"arrival_time"`
	Duration            string `json:"duration"`
	SegmentNumber       int    `json:"segment_number"`
}

// ConversationSession stores the durable per-conversation bits between turns
type ConversationSession struct {
	gorm.Model
	ConversationID    string    `json:"conversation_id" gorm:"uniqueIndex"`
	Language          string    `json:"language"`
	PreviousIntent    string    `json:"previous_intent"`
	ExpectingLanguage bool      `json:"expecting_language"`
	DialogState       string    `json:"dialog_state" gorm:"type:text"`
	LastActive        time.Time `json:"last_active"`
}
