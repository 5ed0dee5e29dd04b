package handlers

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/SkyTrip-Labs/skytrip-backend/internal/bot"
	"github.com/SkyTrip-Labs/skytrip-backend/internal/dialog"
)

// TwilioWebhookPayload is the form body Twilio posts for inbound
// WhatsApp messages
type TwilioWebhookPayload struct {
	From          string `form:"From"`
	Body          string `form:"Body"`
	ButtonPayload string `form:"ButtonPayload"`
	ProfileName   string `form:"ProfileName"`
}

// MessageSender delivers one outbound WhatsApp message
type MessageSender interface {
	SendWhatsAppMessage(to string, message string) error
}

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	bot    *bot.Bot
	sender MessageSender
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(b *bot.Bot, sender MessageSender) *WhatsAppHandler {
	return &WhatsAppHandler{bot: b, sender: sender}
}

// bookReply matches the plain-text fallback for a card's Book Now button
var bookReply = regexp.MustCompile(`(?i)^\s*book\s+(\d+)\s*$`)

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("❌ Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	if payload.From == "" || (payload.Body == "" && payload.ButtonPayload == "") {
		// Status callbacks and other non-message events
		return c.SendStatus(fiber.StatusOK)
	}

	from := strings.TrimPrefix(payload.From, "whatsapp:")
	log.Printf("📱 WhatsApp message from %s: %s", from, payload.Body)

	turn := bot.Turn{
		ConversationID: from,
		Text:           payload.Body,
		ButtonPayload:  payload.ButtonPayload,
	}
	if turn.ButtonPayload == "" {
		turn.ButtonPayload = textSelectionPayload(payload.Body)
	}

	responder := &whatsappResponder{sender: h.sender, to: from}
	if err := h.bot.ProcessTurn(c.Context(), turn, responder); err != nil {
		log.Printf("❌ Error processing message from %s: %v", from, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// textSelectionPayload maps a typed "book N" reply to the payload the
// card button would have carried, since plain WhatsApp text messages
// cannot click buttons
func textSelectionPayload(body string) string {
	m := bookReply.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return ""
	}
	return fmt.Sprintf("book_flight:%d", n-1)
}

// whatsappResponder delivers dialog output over Twilio WhatsApp
type whatsappResponder struct {
	sender MessageSender
	to     string
}

func (r *whatsappResponder) SendText(text string) error {
	return r.sender.SendWhatsAppMessage(r.to, text)
}

// SendCard renders a structured card as a WhatsApp text message with
// reply hints for each button
func (r *whatsappResponder) SendCard(card dialog.Card) error {
	return r.sender.SendWhatsAppMessage(r.to, RenderCardText(card))
}

// RenderCardText flattens a card into plain text for channels without
// native button support
func RenderCardText(card dialog.Card) string {
	var lines []string
	if card.Title != "" {
		lines = append(lines, "*"+card.Title+"*")
	}
	lines = append(lines, card.Body...)

	for _, btn := range card.Buttons {
		switch {
		case btn.URL != "":
			lines = append(lines, fmt.Sprintf("👉 %s: %s", btn.Title, btn.URL))
		case strings.HasPrefix(btn.Payload, "book_flight:"):
			index, err := strconv.Atoi(strings.TrimPrefix(btn.Payload, "book_flight:"))
			if err != nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("👉 Reply \"book %d\" to %s", index+1, btn.Title))
		default:
			lines = append(lines, fmt.Sprintf("🔹 %s", btn.Title))
		}
	}
	return strings.Join(lines, "\n")
}
