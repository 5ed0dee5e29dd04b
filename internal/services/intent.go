package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/models"
)

// IntentService classifies utterances with an Azure Conversational
// Language Understanding project
type IntentService struct {
	endpoint   string
	key        string
	project    string
	deployment string
	client     *http.Client
}

// NewIntentService builds the classifier from environment variables
func NewIntentService() (*IntentService, error) {
	endpoint := os.Getenv("CLU_ENDPOINT")
	key := os.Getenv("CLU_KEY")
	project := os.Getenv("CLU_PROJECT_NAME")
	deployment := os.Getenv("CLU_DEPLOYMENT_NAME")

	if endpoint == "" || key == "" || project == "" || deployment == "" {
		return nil, fmt.Errorf("missing CLU credentials in environment variables")
	}

	return &IntentService{
		endpoint:   endpoint,
		key:        key,
		project:    project,
		deployment: deployment,
		client:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type cluRequest struct {
	Kind          string `json:"kind"`
	AnalysisInput struct {
		ConversationItem struct {
			ID            string `json:"id"`
			ParticipantID string `json:"participantId"`
			Text          string `json:"text"`
		} `json:"conversationItem"`
	} `json:"analysisInput"`
	Parameters struct {
		ProjectName     string `json:"projectName"`
		DeploymentName  string `json:"deploymentName"`
		StringIndexType string `json:"stringIndexType"`
	} `json:"parameters"`
}

type cluResponse struct {
	Result struct {
		Prediction struct {
			TopIntent string `json:"topIntent"`
			Entities  []struct {
				Category string `json:"category"`
				Text     string `json:"text"`
			} `json:"entities"`
		} `json:"prediction"`
	} `json:"result"`
}

// Classify resolves one utterance into its top intent and entities
func (s *IntentService) Classify(ctx context.Context, text string) (*models.IntentResult, error) {
	payload := cluRequest{Kind: "Conversation"}
	payload.AnalysisInput.ConversationItem.ID = "1"
	payload.AnalysisInput.ConversationItem.ParticipantID = "1"
	payload.AnalysisInput.ConversationItem.Text = text
	payload.Parameters.ProjectName = s.project
	payload.Parameters.DeploymentName = s.deployment
	payload.Parameters.StringIndexType = "TextElement_V8"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to build CLU request: %w", err)
	}

	endpoint := s.endpoint + "/language/:analyze-conversations?api-version=2022-10-01-preview"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("CLU request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CLU returned status %d", resp.StatusCode)
	}

	var decoded cluResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode CLU response: %w", err)
	}

	result := &models.IntentResult{TopIntent: decoded.Result.Prediction.TopIntent}
	for _, e := range decoded.Result.Prediction.Entities {
		result.Entities = append(result.Entities, models.Entity{Category: e.Category, Text: e.Text})
	}
	return result, nil
}
