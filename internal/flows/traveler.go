package flows

import (
	"fmt"
	"strconv"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// TravelerOptions drives one iteration of the traveler-collection loop
type TravelerOptions struct {
	Index     int
	Count     int
	Travelers []*models.Traveler
}

var genderChoices = []string{"MALE", "FEMALE", "OTHER"}

// NewTravelerFlow builds the per-traveler collection loop: seven
// prompts per traveler, then the flow replaces itself for the next
// traveler until the target count is reached and the full list is
// returned to the caller. A record is only appended after every field
// passed its prompt.
func NewTravelerFlow() *dialog.Waterfall {
	f := &travelerFlow{}
	return dialog.NewWaterfall(TravelerFlowID,
		f.initStep,
		f.askFirstName,
		f.askLastName,
		f.askDOB,
		f.askPassport,
		f.askEmail,
		f.askMobile,
		f.askGender,
		f.storeAndLoop,
	)
}

type travelerFlow struct{}

func (f *travelerFlow) initStep(sc *dialog.StepContext) (dialog.Result, error) {
	tc := sc.Context()
	opts, _ := sc.Options().(TravelerOptions)
	if opts.Count <= 0 {
		opts.Count = 1
	}
	sc.SetValue("index", opts.Index)
	sc.SetValue("count", opts.Count)
	sc.SetValue("travelers", opts.Travelers)

	tc.Say(fmt.Sprintf("✍️ Entering details for traveler %d of %d", opts.Index+1, opts.Count))
	return sc.Next(nil)
}

func (f *travelerFlow) askFirstName(sc *dialog.StepContext) (dialog.Result, error) {
	return sc.Prompt(textPromptID, sc.Context().Translate("First name:"))
}

func (f *travelerFlow) askLastName(sc *dialog.StepContext) (dialog.Result, error) {
	sc.SetValue("firstName", sc.Result())
	return sc.Prompt(textPromptID, sc.Context().Translate("Last name:"))
}

func (f *travelerFlow) askDOB(sc *dialog.StepContext) (dialog.Result, error) {
	sc.SetValue("lastName", sc.Result())
	return sc.Prompt(textPromptID, sc.Context().Translate("Date of birth (YYYY-MM-DD):"))
}

func (f *travelerFlow) askPassport(sc *dialog.StepContext) (dialog.Result, error) {
	sc.SetValue("dateOfBirth", sc.Result())
	return sc.Prompt(textPromptID, sc.Context().Translate("Passport number:"))
}

func (f *travelerFlow) askEmail(sc *dialog.StepContext) (dialog.Result, error) {
	sc.SetValue("passport", sc.Result())
	return sc.Prompt(textPromptID, sc.Context().Translate("Email address:"))
}

func (f *travelerFlow) askMobile(sc *dialog.StepContext) (dialog.Result, error) {
	sc.SetValue("email", sc.Result())
	return sc.Prompt(textPromptID, sc.Context().Translate("Mobile number:"))
}

func (f *travelerFlow) askGender(sc *dialog.StepContext) (dialog.Result, error) {
	sc.SetValue("mobile", sc.Result())
	// closed choice so an unrecognized entry re-prompts instead of
	// silently defaulting
	return sc.PromptChoice(choicePromptID, sc.Context().Translate("Gender:"), genderChoices)
}

func (f *travelerFlow) storeAndLoop(sc *dialog.StepContext) (dialog.Result, error) {
	gender, _ := sc.Result().(string)
	index := sc.IntValue("index")
	count := sc.IntValue("count")
	var travelers []*models.Traveler
	sc.DecodeValue("travelers", &travelers)

	str := sc.StringValue

	traveler := &models.Traveler{
		ID:          strconv.Itoa(index + 1),
		FirstName:   str("firstName"),
		LastName:    str("lastName"),
		DateOfBirth: str("dateOfBirth"),
		Gender:      gender,
		Passport:    str("passport"),
		Email:       str("email"),
		Mobile:      str("mobile"),
	}
	traveler.Contact = models.TravelerContact{
		EmailAddress: traveler.Email,
		Phones: []models.TravelerPhone{{
			DeviceType:         "MOBILE",
			CountryCallingCode: "91",
			Number:             traveler.Mobile,
		}},
	}
	traveler.Documents = []models.TravelerDocument{{
		DocumentType:    "PASSPORT",
		Number:          traveler.Passport,
		ExpiryDate:      "2030-01-01",
		IssuanceCountry: "IN",
		Nationality:     "IN",
		Holder:          true,
	}}

	travelers = append(travelers, traveler)
	index++

	if index < count {
		return sc.Replace(TravelerOptions{Index: index, Count: count, Travelers: travelers})
	}
	return sc.End(travelers)
}
