package models

import "strings"

// Entity is one typed span extracted from a user message
type Entity struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// IntentResult is the outcome of intent classification
type IntentResult struct {
	TopIntent string   `json:"topIntent"`
	Entities  []Entity `json:"entities"`
}

// EntityText returns the first entity text matching category (case-insensitive)
func EntityText(entities []Entity, category string) string {
	want := strings.ToLower(strings.TrimSpace(category))
	for _, e := range entities {
		if strings.ToLower(strings.TrimSpace(e.Category)) == want {
			return e.Text
		}
	}
	return ""
}
