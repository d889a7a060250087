package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pedeja/pedeja-backend/internal/bot"
)

// OrderHandler exposes the order-side operator actions.
type OrderHandler struct {
	engine *bot.Engine
	log    *zap.Logger
}

// NewOrderHandler creates the order handler.
func NewOrderHandler(engine *bot.Engine, log *zap.Logger) *OrderHandler {
	return &OrderHandler{engine: engine, log: log}
}

type notifyDriverInput struct {
	DriverPhone string `json:"driver_phone"`
}

// NotifyDriver sends an order's delivery summary to a driver's WhatsApp.
func (h *OrderHandler) NotifyDriver(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	var input notifyDriverInput
	if err := c.BodyParser(&input); err != nil || input.DriverPhone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "driver_phone is required",
		})
	}

	if err := h.engine.NotifyDriver(uint(id), input.DriverPhone); err != nil {
		h.log.Error("driver notification failed", zap.Uint64("order", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "failed to notify driver",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
