package flows

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// ItineraryGroup is one booking reference with its deduplicated
// segments and travelers
type ItineraryGroup struct {
	PNR       string
	Segments  []*models.Itinerary
	Travelers []GroupTraveler
}

// GroupTraveler is the traveler identity shown when listing a booking
type GroupTraveler struct {
	Name  string
	Email string
	Phone string
}

// GroupItineraries groups rows by booking reference, deduplicating
// segments by (segment number, flight number, origin, destination,
// departure, arrival) and travelers by (name, email, phone). Group
// order follows first appearance in rows.
func GroupItineraries(rows []*models.Itinerary) []ItineraryGroup {
	var order []string
	byPNR := make(map[string]*ItineraryGroup)
	segmentSeen := make(map[string]map[string]bool)
	travelerSeen := make(map[string]map[string]bool)

	for _, row := range rows {
		group, ok := byPNR[row.PNR]
		if !ok {
			group = &ItineraryGroup{PNR: row.PNR}
			byPNR[row.PNR] = group
			segmentSeen[row.PNR] = make(map[string]bool)
			travelerSeen[row.PNR] = make(map[string]bool)
			order = append(order, row.PNR)
		}

		segKey := fmt.Sprintf("%d_%s_%s_%s_%s_%s",
			row.SegmentNumber, row.FlightNumber, row.Origin, row.Destination, row.DepartureTime, row.ArrivalTime)
		if !segmentSeen[row.PNR][segKey] {
			segmentSeen[row.PNR][segKey] = true
			group.Segments = append(group.Segments, row)
		}

		travKey := row.TravelerName + "_" + row.Email + "_" + row.Phone
		if !travelerSeen[row.PNR][travKey] {
			travelerSeen[row.PNR][travKey] = true
			group.Travelers = append(group.Travelers, GroupTraveler{
				Name:  row.TravelerName,
				Email: row.Email,
				Phone: row.Phone,
			})
		}
	}

	groups := make([]ItineraryGroup, 0, len(order))
	for _, pnr := range order {
		groups = append(groups, *byPNR[pnr])
	}
	return groups
}

type itineraryFlow struct {
	deps Deps
}

// NewItineraryFlow builds the itinerary-management waterfall: look up
// bookings by email, display them grouped by booking reference, and
// optionally cancel one.
func NewItineraryFlow(deps Deps) *dialog.Waterfall {
	f := &itineraryFlow{deps: deps}
	return dialog.NewWaterfall(ItineraryFlowID,
		f.promptEmail,
		f.showItineraries,
		f.selectItinerary,
		f.cancelItinerary,
	)
}

func (f *itineraryFlow) promptEmail(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	return sc.Prompt(textPromptID, tc.Translate("📧 Please enter your email address to retrieve your itinerary:"))
}

func (f *itineraryFlow) showItineraries(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	email, _ := sc.Result().(string)
	sc.SetValue("email", email)

	matching, err := f.deps.Store.FindItinerariesByEmail(email)
	if err != nil {
		log.Printf("❌ Itinerary lookup failed for %s: %v", email, err)
		tc.Say("⚠️ Could not retrieve your itineraries right now. Please try again later.")
		return sc.End(nil)
	}

	var pnrs []string
	seen := make(map[string]bool)
	for _, row := range matching {
		if !seen[row.PNR] {
			seen[row.PNR] = true
			pnrs = append(pnrs, row.PNR)
		}
	}
	if len(pnrs) == 0 {
		tc.Say("😔 No itineraries found for this email.")
		return sc.End(nil)
	}

	all, err := f.deps.Store.FindItinerariesByReferences(pnrs)
	if err != nil {
		log.Printf("❌ Itinerary lookup by references failed: %v", err)
		tc.Say("⚠️ Could not retrieve your itineraries right now. Please try again later.")
		return sc.End(nil)
	}

	groups := GroupItineraries(all)
	sc.SetValue("groups", groups)

	for i, group := range groups {
		tc.Say(f.renderGroup(i, group))
	}

	return sc.Prompt(confirmPromptID, tc.Translate("❓ Do you want to cancel a flight from these itineraries? (yes/no)"))
}

func (f *itineraryFlow) renderGroup(index int, group ItineraryGroup) string {
	var travelerLines []string
	for i, t := range group.Travelers {
		travelerLines = append(travelerLines, fmt.Sprintf(
			"👤 Traveler %d:\n- Name: %s\n- Email: %s\n- Mobile: %s", i+1, t.Name, t.Email, t.Phone))
	}

	var segmentLines []string
	for i, seg := range group.Segments {
		segmentLines = append(segmentLines, fmt.Sprintf(
			"✈️ Segment %d: %s\n📍 %s (T%s) → %s (T%s)\n🛫 Departure: %s\n🛬 Arrival: %s\n🕒 Duration: %s",
			i+1, seg.FlightNumber,
			seg.Origin, terminalOr(seg.OriginTerminal),
			seg.Destination, terminalOr(seg.DestinationTerminal),
			seg.DepartureTime, seg.ArrivalTime, seg.Duration))
	}

	shared := group.Segments[0]
	return fmt.Sprintf("✅ ✉️ Itinerary #%d\n\n📄 Booking ID (PNR): %s\n\n%s\n\n💰 Total Price: ₹%s\n💸 Refundable Amount: ₹%s\n\n%s",
		index, group.PNR,
		strings.Join(travelerLines, "\n\n"),
		shared.Price, shared.RefundableAmount,
		strings.Join(segmentLines, "\n\n"))
}

func (f *itineraryFlow) selectItinerary(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	if cancel, _ := sc.Result().(bool); !cancel {
		tc.Say("✅ Glad we could help you view your itinerary.\nFeel free to reach out if you need further assistance.")
		return sc.End(nil)
	}
	return sc.Prompt(textPromptID, tc.Translate("✏️ Please enter the itinerary number (e.g., 0, 1, 2) you want to cancel:"))
}

func (f *itineraryFlow) cancelItinerary(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	answer, _ := sc.Result().(string)
	var groups []ItineraryGroup
	sc.DecodeValue("groups", &groups)

	index, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || index < 0 || index >= len(groups) {
		tc.Say("❌ Invalid selection. Please start again.")
		return sc.End(nil)
	}

	group := groups[index]
	if err := f.deps.Store.DeleteItinerariesByReference(group.PNR); err != nil {
		log.Printf("❌ Failed to cancel PNR %s: %v", group.PNR, err)
		tc.Say("⚠️ Could not cancel this booking right now. Please try again later.")
		return sc.End(nil)
	}

	tc.Say(fmt.Sprintf("✅ Your flight with PNR %s has been successfully cancelled.\n💸 Refund of ₹%s has been initiated.\n\nThank you for using our service! ✨",
		group.PNR, group.Segments[0].RefundableAmount))
	return sc.End(nil)
}
