package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pedeja/pedeja-backend/internal/bot"
	"github.com/pedeja/pedeja-backend/internal/models"
)

// TwilioWebhookPayload is the form body Twilio posts for inbound WhatsApp
// events. Location shares arrive as Latitude/Longitude fields with an empty
// body.
type TwilioWebhookPayload struct {
	MessageSid  string `form:"MessageSid"`
	AccountSid  string `form:"AccountSid"`
	From        string `form:"From"` // whatsapp:+5511999999999
	To          string `form:"To"`
	Body        string `form:"Body"`
	ProfileName string `form:"ProfileName"`
	Latitude    string `form:"Latitude"`
	Longitude   string `form:"Longitude"`
	NumMedia    string `form:"NumMedia"`
}

// WhatsAppHandler feeds inbound webhook events to the ordering engine.
type WhatsAppHandler struct {
	engine  *bot.Engine
	storeID string
	log     *zap.Logger
}

// NewWhatsAppHandler creates the webhook handler. storeID is the tenant
// served by this deployment's WhatsApp number.
func NewWhatsAppHandler(engine *bot.Engine, storeID string, log *zap.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{engine: engine, storeID: storeID, log: log}
}

// HandleWebhook processes one inbound WhatsApp event. The webhook is always
// acknowledged with 200: Twilio retries on anything else and the engine
// already leaves the previous session state intact on failure.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		h.log.Warn("invalid webhook payload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid webhook payload",
		})
	}

	from := strings.TrimPrefix(payload.From, "whatsapp:")
	if from == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	in := bot.Inbound{
		StoreID:     h.storeID,
		From:        from,
		ProfileName: payload.ProfileName,
		Body:        payload.Body,
		Location:    parseLocation(payload.Latitude, payload.Longitude),
	}

	if in.Body == "" && in.Location == nil {
		// Status callbacks and media-only events carry nothing to process.
		return c.SendStatus(fiber.StatusOK)
	}

	if err := h.engine.HandleInbound(in); err != nil {
		h.log.Error("turn failed", zap.String("from", from), zap.Error(err))
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload lets development exercise the flow without Twilio.
type TestWebhookPayload struct {
	From      string   `json:"from"`
	Name      string   `json:"name"`
	Message   string   `json:"message"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// HandleTestWebhook processes a JSON test message (development only).
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid test payload",
		})
	}

	in := bot.Inbound{
		StoreID:     h.storeID,
		From:        payload.From,
		ProfileName: payload.Name,
		Body:        payload.Message,
	}
	if payload.Latitude != nil && payload.Longitude != nil {
		in.Location = &models.Coordinates{Lat: *payload.Latitude, Lng: *payload.Longitude}
	}

	if err := h.engine.HandleInbound(in); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

func parseLocation(latStr, lngStr string) *models.Coordinates {
	if latStr == "" || lngStr == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil
	}
	return &models.Coordinates{Lat: lat, Lng: lng}
}
