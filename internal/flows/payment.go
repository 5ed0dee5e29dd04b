package flows

import (
	"log"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
)

// PaymentOptions carries the amount to collect, in the offer's currency
type PaymentOptions struct {
	Amount string
}

// PaymentReceipt is yielded back to the caller once the checkout
// session exists; verification happens later in the booking flow
type PaymentReceipt struct {
	SessionID string
}

// NewPaymentFlow builds the single-step payment dialog: create an
// external checkout session, present the payment link, and end
// immediately with the session id.
func NewPaymentFlow(deps Deps) *dialog.Waterfall {
	return dialog.NewWaterfall(PaymentFlowID, func(sc *dialog.StepContext) (dialog.Result, error) {
		tc := sc.Context()
		opts, _ := sc.Options().(PaymentOptions)

		url, sessionID, err := deps.Payments.CreateCheckoutSession(tc.Ctx, opts.Amount, "INR")
		if err != nil {
			log.Printf("❌ Could not create checkout session for amount %s: %v", opts.Amount, err)
			tc.Say("⚠️ Could not start the payment. Please try again later.")
			return sc.End((*PaymentReceipt)(nil))
		}

		tc.SendCard(dialog.Card{
			Title: "Secure Payment",
			Body:  []string{"Click the button below to complete your payment."},
			Buttons: []dialog.CardButton{
				{Title: "Pay Now", URL: url},
			},
		})

		return sc.End(&PaymentReceipt{SessionID: sessionID})
	})
}
