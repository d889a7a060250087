package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pedeja/pedeja-backend/internal/bot"
	"github.com/pedeja/pedeja-backend/internal/models"
	"github.com/pedeja/pedeja-backend/internal/storage"
)

// ConversationHandler is the back-office surface over the chat channel:
// listing conversations, letting an agent reply, and toggling the bot.
type ConversationHandler struct {
	store     storage.Store
	messenger bot.Messenger
	storeID   string
	log       *zap.Logger
}

// NewConversationHandler creates the operator API handler.
func NewConversationHandler(store storage.Store, messenger bot.Messenger, storeID string, log *zap.Logger) *ConversationHandler {
	return &ConversationHandler{store: store, messenger: messenger, storeID: storeID, log: log}
}

// List returns the tenant's conversations.
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	convs, err := h.store.ListConversations(h.storeID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list conversations",
		})
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

type sendMessageInput struct {
	Body string `json:"body"`
}

// SendMessage lets a human agent reply in a conversation. Sending a manual
// message pauses the bot so the agent keeps the floor.
func (h *ConversationHandler) SendMessage(c *fiber.Ctx) error {
	conv, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	var input sendMessageInput
	if err := c.BodyParser(&input); err != nil || input.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message body is required",
		})
	}

	if err := h.messenger.SendText(conv.RemoteJID, input.Body); err != nil {
		h.log.Error("agent message failed", zap.Uint("conversation", conv.ID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "failed to deliver message",
		})
	}

	if err := h.store.SaveMessage(&models.Message{
		ConversationID: conv.ID,
		Body:           input.Body,
		FromMe:         true,
	}); err != nil {
		h.log.Error("failed to log agent message", zap.Error(err))
	}

	if conv.BotEnabled {
		if err := h.store.SetBotEnabled(conv.ID, false); err != nil {
			h.log.Error("failed to pause bot", zap.Uint("conversation", conv.ID), zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

type setBotInput struct {
	Enabled bool `json:"enabled"`
}

// SetBot enables or disables the ordering bot for a conversation. This is
// the operator action that reactivates a conversation after a handoff.
func (h *ConversationHandler) SetBot(c *fiber.Ctx) error {
	conv, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	var input setBotInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}

	if err := h.store.SetBotEnabled(conv.ID, input.Enabled); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update conversation",
		})
	}

	h.log.Info("bot toggled by operator",
		zap.Uint("conversation", conv.ID), zap.Bool("enabled", input.Enabled))
	return c.JSON(fiber.Map{"success": true, "bot_enabled": input.Enabled})
}

func (h *ConversationHandler) loadConversation(c *fiber.Ctx) (*models.Conversation, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid conversation id",
		})
	}
	conv, err := h.store.GetConversation(uint(id))
	if err == storage.ErrNotFound {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "conversation not found",
		})
	}
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load conversation",
		})
	}
	return conv, nil
}
