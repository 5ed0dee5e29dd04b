package flows

import (
	"fmt"
	"log"
	"strings"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// BookingOptions starts the booking flow with the offer the user
// selected from a result card
type BookingOptions struct {
	SelectedFlight *models.FlightOffer
}

// bookingResult is handed to the finalization dialog once payment clears
type bookingResult struct {
	Travelers      []*models.Traveler
	SelectedFlight *models.FlightOffer
}

type bookingFlow struct {
	deps Deps
}

// NewBookingFlow builds the booking waterfall: collect every traveler,
// confirm the total, take payment, verify it, then book with the
// supplier and persist the itinerary.
func NewBookingFlow(deps Deps) *dialog.Waterfall {
	f := &bookingFlow{deps: deps}
	return dialog.NewWaterfall(BookingFlowID,
		f.firstStep,
		f.collectTravelers,
		f.askConfirm,
		f.takePayment,
		f.waitForDone,
		f.verifyPayment,
		f.finalize,
	)
}

func (f *bookingFlow) firstStep(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	opts, _ := sc.Options().(BookingOptions)
	if opts.SelectedFlight == nil {
		tc.Say("⚠️ I lost track of the flight you selected. Please search again.")
		return sc.End(nil)
	}

	sc.SetValue("selectedFlight", opts.SelectedFlight)
	sc.SetValue("amount", opts.SelectedFlight.Price.GrandTotal)
	sc.SetValue("travelerCount", len(opts.SelectedFlight.TravelerPricings))
	return sc.Next(nil)
}

func (f *bookingFlow) collectTravelers(sc *dialog.StepContext) (dialog.Result, error) {
	return sc.Begin(TravelerFlowID, TravelerOptions{Count: sc.IntValue("travelerCount")})
}

func (f *bookingFlow) askConfirm(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	travelers, _ := sc.Result().([]*models.Traveler)
	if len(travelers) == 0 {
		tc.Say("❌ Booking cancelled.")
		return sc.End(nil)
	}
	sc.SetValue("travelers", travelers)

	tc.Say(fmt.Sprintf("✈️ Booking for %d traveler(s)\n💵 Total Amount: ₹ %v\n\nProceed to payment?",
		len(travelers), sc.Value("amount")))
	return sc.Prompt(confirmPromptID, tc.Translate("Do you want to continue? (yes/no)"))
}

func (f *bookingFlow) takePayment(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if confirmed, _ := sc.Result().(bool); !confirmed {
		tc.Say("❌ Booking cancelled.")
		return sc.End(nil)
	}
	return sc.Begin(PaymentFlowID, PaymentOptions{Amount: sc.StringValue("amount")})
}

func (f *bookingFlow) waitForDone(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	receipt, _ := sc.Result().(*PaymentReceipt)
	if receipt == nil {
		// payment dialog already told the user what went wrong
		return sc.End(nil)
	}
	sc.SetValue("sessionId", receipt.SessionID)
	return sc.Prompt(textPromptID, tc.Translate("✅ Once you've completed the payment, type done to continue."))
}

func (f *bookingFlow) verifyPayment(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	confirmation, _ := sc.Result().(string)
	if strings.ToLower(strings.TrimSpace(confirmation)) != "done" {
		tc.Say("❗ Please type done after completing the payment.")
		return sc.End(nil)
	}

	sessionID := sc.StringValue("sessionId")
	paid, err := f.deps.Payments.IsSessionPaid(tc.Ctx, sessionID)
	if err != nil {
		log.Printf("❌ Payment verification failed for session %s: %v", sessionID, err)
		tc.Say("⚠️ Payment not verified. Please try again later.")
		return sc.End(nil)
	}
	if !paid {
		tc.Say("⚠️ Payment not verified. Please try again later.")
		return sc.End(nil)
	}
	return sc.Next(nil)
}

func (f *bookingFlow) finalize(sc *dialog.StepContext) (dialog.Result, error) {
	var travelers []*models.Traveler
	sc.DecodeValue("travelers", &travelers)
	var selected *models.FlightOffer
	sc.DecodeValue("selectedFlight", &selected)
	return sc.Begin(showBookingID, bookingResult{Travelers: travelers, SelectedFlight: selected})
}

// newShowBookingDialog prices and books the offer with the supplier,
// persists one itinerary row per traveler and segment, and confirms.
// The supplier booking is the source of truth: a persistence failure is
// logged for reconciliation, never rolled back.
func newShowBookingDialog(deps Deps) *dialog.Waterfall {
	return dialog.NewWaterfall(showBookingID, func(sc *dialog.StepContext) (dialog.Result, error) {
		tc := sc.Context()
		res := sc.Options().(bookingResult)
		if res.SelectedFlight == nil {
			tc.Say("⚠️ I lost track of the flight you selected. Please search again.")
			return sc.End(nil)
		}

		confirmation, err := deps.Flights.PriceAndBook(tc.Ctx, res.SelectedFlight, res.Travelers)
		if err != nil {
			log.Printf("❌ Booking failed: %v", err)
			tc.Say("❌ Booking failed due to an internal error. Please try again.")
			return sc.End(nil)
		}

		booked := confirmation.ConfirmedOffer
		if booked == nil {
			booked = res.SelectedFlight
		}

		totalPrice := booked.Price.Total
		refundable := ""
		travelClass := ""
		if len(booked.TravelerPricings) > 0 {
			tp := booked.TravelerPricings[0]
			totalPrice = tp.Price.Total
			refundable = tp.Price.RefundableTaxes
			if len(tp.FareDetailsBySegment) > 0 {
				travelClass = tp.FareDetailsBySegment[0].Cabin
			}
		}

		// a confirmed offer can come back without itineraries; fall
		// back to the segments of the offer the user selected
		var segments []models.FlightSegment
		if len(booked.Itineraries) > 0 {
			segments = booked.Itineraries[0].Segments
		} else if len(res.SelectedFlight.Itineraries) > 0 {
			segments = res.SelectedFlight.Itineraries[0].Segments
		}
		var segmentLines []string
		for i, seg := range segments {
			segmentLines = append(segmentLines, fmt.Sprintf(
				"✈️ Segment %d: %s%s\n📍 %s (T%s) → %s (T%s)\n🛫 Departure: %s\n🛬 Arrival: %s\n🕒 Duration: %s",
				i+1, seg.CarrierCode, seg.Number,
				seg.Departure.IataCode, terminalOr(seg.Departure.Terminal),
				seg.Arrival.IataCode, terminalOr(seg.Arrival.Terminal),
				formatSegmentTime(seg.Departure.At), formatSegmentTime(seg.Arrival.At),
				prettyISODuration(seg.Duration)))
		}

		var travelerLines []string
		for i, t := range res.Travelers {
			travelerLines = append(travelerLines, fmt.Sprintf(
				"👤 Traveler %d:\n- Name: %s\n- DOB: %s\n- Email: %s\n- Mobile: %s\n- Gender: %s\n- Passport: %s",
				i+1, t.FullName(), t.DateOfBirth, t.Email, t.Mobile, t.Gender, t.Passport))
		}

		tc.Say(fmt.Sprintf("✅ Booking Confirmed!\n\n📄 Booking ID (PNR): %s\n\n%s\n\n💰 Total Price: ₹%s\n💸 Refundable Amount: ₹%s\n\n%s",
			confirmation.Reference,
			strings.Join(travelerLines, "\n\n"),
			totalPrice, refundable,
			strings.Join(segmentLines, "\n\n")))

		rows := itineraryRows(tc.ConversationID, confirmation.Reference, res.Travelers, segments, totalPrice, refundable, travelClass)
		if err := deps.Store.InsertItinerarySegments(rows); err != nil {
			// booking already confirmed upstream; flag for reconciliation
			log.Printf("❌ Failed to persist %d itinerary rows for PNR %s: %v", len(rows), confirmation.Reference, err)
		}

		return sc.End(nil)
	})
}

// itineraryRows builds one row per (traveler x segment) for persistence
func itineraryRows(userID, pnr string, travelers []*models.Traveler, segments []models.FlightSegment, price, refundable, travelClass string) []*models.Itinerary {
	var rows []*models.Itinerary
	for _, t := range travelers {
		for i, seg := range segments {
			rows = append(rows, &models.Itinerary{
				UserID:              userID,
				PNR:                 pnr,
				TravelerName:        t.FullName(),
				Email:               t.Email,
				Phone:               t.Mobile,
				Price:               price,
				RefundableAmount:    refundable,
				TravelClass:         travelClass,
				FlightNumber:        seg.CarrierCode + seg.Number,
				Origin:              seg.Departure.IataCode,
				OriginTerminal:      terminalOr(seg.Departure.Terminal),
				Destination:         seg.Arrival.IataCode,
				DestinationTerminal: terminalOr(seg.Arrival.Terminal),
				DepartureTime:       formatSegmentTime(seg.Departure.At),
				ArrivalTime:         formatSegmentTime(seg.Arrival.At),
				Duration:            prettyISODuration(seg.Duration),
				SegmentNumber:       i + 1,
			})
		}
	}
	return rows
}
