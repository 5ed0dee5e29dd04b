package models

// FlightOffer mirrors the supplier's flight-offers search response shape
type FlightOffer struct {
	ID                    string            `json:"id"`
	NumberOfBookableSeats int               `json:"numberOfBookableSeats"`
	Itineraries           []FlightItinerary `json:"itineraries"`
	Price                 OfferPrice        `json:"price"`
	TravelerPricings      []TravelerPricing `json:"travelerPricings"`
}

// OfferPrice is the total price of an offer for all travelers
type OfferPrice struct {
	Currency   string `json:"currency"`
	Total      string `json:"total"`
	GrandTotal string `json:"grandTotal"`
}

// FlightItinerary is one ordered sequence of segments
type FlightItinerary struct {
	Duration string          `json:"duration"` // ISO-8601, e.g. "PT5H30M"
	Segments []FlightSegment `json:"segments"`
}

// FlightSegment is a single leg of an itinerary
type FlightSegment struct {
	CarrierCode string       `json:"carrierCode"`
	Number      string       `json:"number"`
	Departure   SegmentPoint `json:"departure"`
	Arrival     SegmentPoint `json:"arrival"`
	Duration    string       `json:"duration"`
}

// SegmentPoint is an airport endpoint with terminal and timestamp
type SegmentPoint struct {
	IataCode string `json:"iataCode"`
	Terminal string `json:"terminal"`
	At       string `json:"at"` // RFC3339-ish local timestamp
}

// TravelerPricing is the per-traveler fare breakdown of an offer
type TravelerPricing struct {
	TravelerID           string       `json:"travelerId"`
	Price                FarePrice    `json:"price"`
	FareDetailsBySegment []FareDetail `json:"fareDetailsBySegment"`
}

// FarePrice carries per-traveler totals
type FarePrice struct {
	Total           string `json:"total"`
	RefundableTaxes string `json:"refundableTaxes"`
}

// FareDetail describes cabin, fare class and baggage for one segment
type FareDetail struct {
	Cabin               string       `json:"cabin"` // ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST
	Class               string       `json:"class"`
	IncludedCheckedBags *CheckedBags `json:"includedCheckedBags,omitempty"`
}

// CheckedBags is the baggage allowance for a fare segment
type CheckedBags struct {
	Weight     int    `json:"weight"`
	WeightUnit string `json:"weightUnit"`
}

// OfferQuery parameterizes a flight-offers search
type OfferQuery struct {
	Origin        string
	Destination   string
	DepartureDate string // YYYY-MM-DD
	Adults        int
	Max           int
	CurrencyCode  string
	NonStop       bool
	AirlineCodes  string // comma-separated IATA codes, empty = any
	MaxPrice      int    // 0 = no cap
	TravelClass   string // empty = all cabins
}

// BookingConfirmation is the supplier's response to a flight order
type BookingConfirmation struct {
	Reference      string       // PNR issued by the supplier
	ConfirmedOffer *FlightOffer // repriced offer as booked
}
