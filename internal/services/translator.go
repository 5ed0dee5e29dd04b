package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
)

// TranslatorService converts text between languages using the Azure
// Translator REST API. It deliberately never returns an error: responses
// to the user must go out even when translation is down, so any failure
// falls back to the original text.
type TranslatorService struct {
	endpoint string
	key      string
	region   string
	client   *http.Client
}

// NewTranslatorService builds the translator from environment variables.
// With no key configured it degrades to a pass-through, which keeps
// English-only deployments working without Azure credentials.
func NewTranslatorService() *TranslatorService {
	endpoint := os.Getenv("TRANSLATOR_ENDPOINT")
	if endpoint == "" {
		endpoint = "https://api.cognitive.microsofttranslator.com"
	}

	return &TranslatorService{
		endpoint: endpoint,
		key:      os.Getenv("TRANSLATOR_KEY"),
		region:   os.Getenv("TRANSLATOR_REGION"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type translateRequest struct {
	Text string `json:"Text"`
}

type translateResponse struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Translate converts text from one language to another. On any failure
// the original text is returned unchanged.
func (s *TranslatorService) Translate(ctx context.Context, text, toLang, fromLang string) string {
	if text == "" || toLang == fromLang || s.key == "" {
		return text
	}

	body, err := json.Marshal([]translateRequest{{Text: text}})
	if err != nil {
		return text
	}

	endpoint := s.endpoint + "/translate?api-version=3.0&to=" + url.QueryEscape(toLang)
	if fromLang != "" {
		endpoint += "&from=" + url.QueryEscape(fromLang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return text
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Ocp-Apim-Subscription-Region", s.region)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ClientTraceId", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("⚠️ Translation request failed: %v", err)
		return text
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ Translation failed with status %d", resp.StatusCode)
		return text
	}

	var results []translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		log.Printf("⚠️ Could not decode translation response: %v", err)
		return text
	}
	if len(results) == 0 || len(results[0].Translations) == 0 {
		return text
	}
	return results[0].Translations[0].Text
}
