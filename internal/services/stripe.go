package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// StripeService creates hosted checkout sessions and verifies their
// payment status
type StripeService struct {
	secretKey  string
	successURL string
	cancelURL  string
	client     *http.Client
}

// NewStripeService builds the payment client from environment variables
func NewStripeService() (*StripeService, error) {
	secretKey := os.Getenv("STRIPE_SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("missing STRIPE_SECRET_KEY in environment variables")
	}

	successURL := os.Getenv("STRIPE_SUCCESS_URL")
	if successURL == "" {
		successURL = "https://example.com/payment/success"
	}
	cancelURL := os.Getenv("STRIPE_CANCEL_URL")
	if cancelURL == "" {
		cancelURL = "https://example.com/payment/cancel"
	}

	return &StripeService{
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type checkoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

// CreateCheckoutSession creates a hosted payment page for the given
// amount (major units, e.g. "5320.00") and returns its URL and session id
func (s *StripeService) CreateCheckoutSession(ctx context.Context, amount, currency string) (string, string, error) {
	major, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid payment amount %q: %w", amount, err)
	}
	minorUnits := int64(math.Round(major * 100))

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", s.successURL)
	form.Set("cancel_url", s.cancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(minorUnits, 10))
	form.Set("line_items[0][price_data][product_data][name]", "Flight Booking")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.stripe.com/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", err
	}
	req.SetBasicAuth(s.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("checkout session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("checkout session returned status %d", resp.StatusCode)
	}

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", "", fmt.Errorf("failed to decode checkout session: %w", err)
	}
	return session.URL, session.ID, nil
}

// IsSessionPaid reports whether a checkout session has been paid
func (s *StripeService) IsSessionPaid(ctx context.Context, sessionID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.stripe.com/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return false, err
	}
	req.SetBasicAuth(s.secretKey, "")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("session lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("session lookup returned status %d", resp.StatusCode)
	}

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return false, fmt.Errorf("failed to decode session: %w", err)
	}
	return session.PaymentStatus == "paid", nil
}
