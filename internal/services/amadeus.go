package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// AmadeusService talks to the Amadeus self-service APIs: flight-offer
// search, airport lookup, offer pricing and order creation.
type AmadeusService struct {
	baseURL      string
	clientID     string
	clientSecret string
	client       *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewAmadeusService builds the supplier client from environment variables
func NewAmadeusService() (*AmadeusService, error) {
	clientID := os.Getenv("AMADEUS_CLIENT_ID")
	clientSecret := os.Getenv("AMADEUS_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("missing Amadeus credentials in environment variables")
	}

	baseURL := os.Getenv("AMADEUS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://test.api.amadeus.com"
	}

	return &AmadeusService{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a cached OAuth token, refreshing it shortly before
// expiry
func (s *AmadeusService) accessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Add(30*time.Second).Before(s.tokenExpiry) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	s.token = token.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return s.token, nil
}

func (s *AmadeusService) doAuthorized(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return s.client.Do(req)
}

// SearchOffers queries flight offers matching the given parameters
func (s *AmadeusService) SearchOffers(ctx context.Context, q models.OfferQuery) ([]models.FlightOffer, error) {
	query := url.Values{}
	query.Set("originLocationCode", q.Origin)
	query.Set("destinationLocationCode", q.Destination)
	query.Set("departureDate", q.DepartureDate)
	query.Set("adults", strconv.Itoa(q.Adults))
	if q.Max > 0 {
		query.Set("max", strconv.Itoa(q.Max))
	}
	if q.CurrencyCode != "" {
		query.Set("currencyCode", q.CurrencyCode)
	}
	if q.NonStop {
		query.Set("nonStop", "true")
	}
	if q.AirlineCodes != "" {
		query.Set("includedAirlineCodes", q.AirlineCodes)
	}
	if q.MaxPrice > 0 {
		query.Set("maxPrice", strconv.Itoa(q.MaxPrice))
	}
	if q.TravelClass != "" {
		query.Set("travelClass", q.TravelClass)
	}

	resp, err := s.doAuthorized(ctx, http.MethodGet, "/v2/shopping/flight-offers", query, nil)
	if err != nil {
		return nil, fmt.Errorf("flight search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flight search returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Data []models.FlightOffer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode flight offers: %w", err)
	}
	return decoded.Data, nil
}

// ResolveAirportCode finds the IATA code for a city or airport keyword.
// An unknown keyword yields an empty code without an error.
func (s *AmadeusService) ResolveAirportCode(ctx context.Context, keyword string) (string, error) {
	query := url.Values{}
	query.Set("subType", "CITY,AIRPORT")
	query.Set("keyword", keyword)
	query.Set("page[limit]", "1")

	resp, err := s.doAuthorized(ctx, http.MethodGet, "/v1/reference-data/locations", query, nil)
	if err != nil {
		return "", fmt.Errorf("airport lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("airport lookup returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Data []struct {
			IataCode string `json:"iataCode"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode airport lookup: %w", err)
	}
	if len(decoded.Data) == 0 {
		return "", nil
	}
	return decoded.Data[0].IataCode, nil
}

// amadeusTraveler is the traveler shape the flight-orders API expects
type amadeusTraveler struct {
	ID          string `json:"id"`
	DateOfBirth string `json:"dateOfBirth"`
	Name        struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"name"`
	Gender    string                    `json:"gender"`
	Contact   models.TravelerContact    `json:"contact"`
	Documents []models.TravelerDocument `json:"documents"`
}

// PriceAndBook reprices the selected offer and creates a flight order
// for the given travelers. The repriced offer is sent to the order API
// verbatim, since pricing may adjust fares and add supplier metadata.
func (s *AmadeusService) PriceAndBook(ctx context.Context, offer *models.FlightOffer, travelers []*models.Traveler) (*models.BookingConfirmation, error) {
	pricedRaw, pricedOffer, err := s.priceOffer(ctx, offer)
	if err != nil {
		return nil, err
	}

	orderTravelers := make([]amadeusTraveler, 0, len(travelers))
	for i, t := range travelers {
		at := amadeusTraveler{
			ID:          strconv.Itoa(i + 1),
			DateOfBirth: t.DateOfBirth,
			Gender:      t.Gender,
			Contact:     t.Contact,
			Documents:   t.Documents,
		}
		at.Name.FirstName = t.FirstName
		at.Name.LastName = t.LastName
		orderTravelers = append(orderTravelers, at)
	}

	orderBody, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"type":         "flight-order",
			"flightOffers": []json.RawMessage{pricedRaw},
			"travelers":    orderTravelers,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build flight order: %w", err)
	}

	resp, err := s.doAuthorized(ctx, http.MethodPost, "/v1/booking/flight-orders", nil, orderBody)
	if err != nil {
		return nil, fmt.Errorf("flight order failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		log.Printf("❌ Flight order returned status %d: %s", resp.StatusCode, string(raw))
		return nil, fmt.Errorf("flight order returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Data struct {
			AssociatedRecords []struct {
				Reference string `json:"reference"`
			} `json:"associatedRecords"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode flight order: %w", err)
	}
	if len(decoded.Data.AssociatedRecords) == 0 {
		return nil, fmt.Errorf("flight order confirmed without a booking reference")
	}

	return &models.BookingConfirmation{
		Reference:      decoded.Data.AssociatedRecords[0].Reference,
		ConfirmedOffer: pricedOffer,
	}, nil
}

// priceOffer confirms the offer's current fare. It returns the repriced
// offer both as raw JSON (for the order request) and decoded (for
// display and persistence).
func (s *AmadeusService) priceOffer(ctx context.Context, offer *models.FlightOffer) (json.RawMessage, *models.FlightOffer, error) {
	body, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": []*models.FlightOffer{offer},
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build pricing request: %w", err)
	}

	resp, err := s.doAuthorized(ctx, http.MethodPost, "/v1/shopping/flight-offers/pricing", nil, body)
	if err != nil {
		return nil, nil, fmt.Errorf("offer pricing failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("offer pricing returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Data struct {
			FlightOffers []json.RawMessage `json:"flightOffers"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, nil, fmt.Errorf("failed to decode pricing response: %w", err)
	}
	if len(decoded.Data.FlightOffers) == 0 {
		return nil, nil, fmt.Errorf("offer is no longer available")
	}

	priced := &models.FlightOffer{}
	if err := json.Unmarshal(decoded.Data.FlightOffers[0], priced); err != nil {
		return nil, nil, fmt.Errorf("failed to decode priced offer: %w", err)
	}
	return decoded.Data.FlightOffers[0], priced, nil
}
