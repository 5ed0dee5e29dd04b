package dialog

import (
	"context"
	"log"
)

// Responder delivers outbound messages for the current turn
type Responder interface {
	SendText(text string) error
	SendCard(card Card) error
}

// Translator converts text between languages. Implementations must never
// fail: on any error the original text is returned unchanged.
type Translator interface {
	Translate(ctx context.Context, text, toLang, fromLang string) string
}

// Card is a structured outbound message: text blocks plus action buttons
type Card struct {
	Title   string
	Body    []string
	Buttons []CardButton
}

// CardButton is one actionable button on a card. Payload carries a
// machine-readable action (e.g. a book-this-offer selection), URL an
// external link.
type CardButton struct {
	Title   string
	Payload string
	URL     string
}

// TurnContext is the per-inbound-message handle passed through the engine
type TurnContext struct {
	Ctx            context.Context
	ConversationID string
	Message        string // inbound text for this turn
	Language       string // conversation language, "en" default
	Responder      Responder
	Translator     Translator

	// Remember/Recall stash per-conversation working data that must
	// survive across turns outside any dialog frame (e.g. the offers
	// last shown, so a card button can reference one later).
	Remember func(key string, value any)
	Recall   func(key string) any
}

// Send delivers text as-is, without translation
func (tc *TurnContext) Send(text string) {
	if err := tc.Responder.SendText(text); err != nil {
		log.Printf("❌ Failed to send message to %s: %v", tc.ConversationID, err)
	}
}

// Say translates text from English to the conversation language and sends it
func (tc *TurnContext) Say(text string) {
	tc.Send(tc.Translate(text))
}

// Translate converts English text to the conversation language
func (tc *TurnContext) Translate(text string) string {
	if tc.Language == "" || tc.Language == "en" {
		return text
	}
	return tc.Translator.Translate(tc.Ctx, text, tc.Language, "en")
}

// TranslateIn converts user input from the conversation language to English
func (tc *TurnContext) TranslateIn(text string) string {
	if tc.Language == "" || tc.Language == "en" {
		return text
	}
	return tc.Translator.Translate(tc.Ctx, text, "en", tc.Language)
}

// SendCard delivers a card, translating its text blocks
func (tc *TurnContext) SendCard(card Card) {
	translated := Card{Title: tc.Translate(card.Title)}
	for _, b := range card.Body {
		translated.Body = append(translated.Body, tc.Translate(b))
	}
	for _, btn := range card.Buttons {
		translated.Buttons = append(translated.Buttons, CardButton{
			Title:   tc.Translate(btn.Title),
			Payload: btn.Payload,
			URL:     btn.URL,
		})
	}
	if err := tc.Responder.SendCard(translated); err != nil {
		log.Printf("❌ Failed to send card to %s: %v", tc.ConversationID, err)
	}
}
