package handlers

import (
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/bot"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
)

// ChatRequest is the JSON body of the local test endpoint
type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	ButtonPayload  string `json:"button_payload"`
}

// ChatHandler exposes the bot over a plain JSON endpoint, used for
// local development without a Twilio number
type ChatHandler struct {
	bot *bot.Bot
}

// NewChatHandler creates a new chat handler
func NewChatHandler(b *bot.Bot) *ChatHandler {
	return &ChatHandler{bot: b}
}

// HandleChat runs one turn and returns every reply the bot produced
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ConversationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "conversation_id is required",
		})
	}

	turn := bot.Turn{
		ConversationID: req.ConversationID,
		Text:           req.Text,
		ButtonPayload:  req.ButtonPayload,
	}
	if turn.ButtonPayload == "" {
		turn.ButtonPayload = textSelectionPayload(req.Text)
	}

	responder := &CollectingResponder{}
	if err := h.bot.ProcessTurn(c.Context(), turn, responder); err != nil {
		log.Printf("❌ Error processing chat turn for %s: %v", req.ConversationID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process message",
		})
	}

	return c.JSON(fiber.Map{
		"replies": responder.Replies(),
	})
}

// CollectingResponder buffers outbound messages instead of sending them
type CollectingResponder struct {
	mu      sync.Mutex
	replies []string
}

func (r *CollectingResponder) SendText(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
	return nil
}

func (r *CollectingResponder) SendCard(card dialog.Card) error {
	return r.SendText(RenderCardText(card))
}

// Replies returns everything sent so far
func (r *CollectingResponder) Replies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.replies...)
}
