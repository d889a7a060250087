package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/pedeja/pedeja-backend/database"
	"github.com/pedeja/pedeja-backend/internal/bot"
	"github.com/pedeja/pedeja-backend/internal/config"
	"github.com/pedeja/pedeja-backend/internal/logger"
	"github.com/pedeja/pedeja-backend/internal/models"
	"github.com/pedeja/pedeja-backend/internal/routes"
	"github.com/pedeja/pedeja-backend/internal/services"
	"github.com/pedeja/pedeja-backend/internal/storage"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.App.LogFilePath, cfg.IsProduction())
	defer log.Sync()

	// Storage: Postgres in normal operation, memory for tests and demos.
	var store storage.Store
	if cfg.App.UseMemoryStore {
		log.Warn("using in-memory storage (not for production)")
		store = storage.NewMemoryStore()
	} else {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		if err := db.AutoMigrate(
			&models.Client{},
			&models.Conversation{},
			&models.Message{},
			&models.Product{},
			&models.StoreSettings{},
			&models.Order{},
			&models.OrderItem{},
		); err != nil {
			log.Fatal("database migration failed", zap.Error(err))
		}
		store = storage.NewDatabaseStore(db)
		log.Info("connected to postgres")
	}

	// Transport: Twilio when configured, log-only otherwise.
	var messenger bot.Messenger
	twilioService, err := services.NewTwilioService(cfg.Twilio, log)
	if err != nil {
		log.Warn("Twilio not configured, outbound messages go to the log", zap.Error(err))
		messenger = services.NewNoopMessenger(log)
	} else {
		messenger = twilioService
	}

	engine := bot.NewEngine(store, messenger, bot.NewHeuristicMatcher(), log)

	app := fiber.New(fiber.Config{
		AppName: "PedeJa Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	routes.Setup(app, cfg, store, engine, messenger, log)

	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()
	log.Info("server started", zap.String("port", cfg.App.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
