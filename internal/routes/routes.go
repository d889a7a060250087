package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pedeja/pedeja-backend/internal/bot"
	"github.com/pedeja/pedeja-backend/internal/config"
	"github.com/pedeja/pedeja-backend/internal/handlers"
	"github.com/pedeja/pedeja-backend/internal/middleware"
	"github.com/pedeja/pedeja-backend/internal/storage"
)

// Setup wires all HTTP routes.
func Setup(app *fiber.App, cfg *config.Config, store storage.Store, engine *bot.Engine, messenger bot.Messenger, log *zap.Logger) {
	whatsapp := handlers.NewWhatsAppHandler(engine, cfg.App.DefaultStoreID, log)
	conversations := handlers.NewConversationHandler(store, messenger, cfg.App.DefaultStoreID, log)
	orders := handlers.NewOrderHandler(engine, log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	// Twilio posts inbound WhatsApp events here. Signature validation is
	// skipped in development so ngrok tunnels work.
	webhooks := app.Group("/webhook")
	if cfg.IsProduction() && !cfg.Twilio.SkipValidation {
		webhooks.Post("/whatsapp",
			middleware.ValidateTwilioSignature(cfg.Twilio.AuthToken),
			whatsapp.HandleWebhook)
	} else {
		log.Warn("webhook signature validation disabled")
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
	}

	if !cfg.IsProduction() {
		app.Post("/test/whatsapp", whatsapp.HandleTestWebhook)
	}

	// Back-office API consumed by the operator panel.
	api := app.Group("/api")
	api.Get("/conversations", conversations.List)
	api.Post("/conversations/:id/messages", conversations.SendMessage)
	api.Put("/conversations/:id/bot", conversations.SetBot)
	api.Post("/orders/:id/notify-driver", orders.NotifyDriver)
}
