package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"facebook-ingest/config"
	"facebook-ingest/handlers"
	"facebook-ingest/services"
	"facebook-ingest/webhooks"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	// Initialize structured logger
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(logHandler))

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := services.InitMongoDB(ctx, cfg.MongoURI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer db.Disconnect(context.Background())

	// Initialize services
	services.InitServices(db, cfg.DatabaseName)

	// Wire the pipeline
	guard := services.NewMongoIdempotencyGuard(cfg.DedupRetention)
	activity := services.NewMongoActivityTracker()
	store := services.NewMongoInteractionStore()
	conversions := services.NewGraphConversionTracker(cfg.ConversionsPixelID, cfg.PageAccessToken)
	messenger := services.NewGraphMessenger(cfg.PageAccessToken)

	var replier services.ReplyGenerator
	if claudeReplier := services.NewClaudeReplier(cfg.ReplyAPIKey); claudeReplier.Enabled() {
		replier = claudeReplier
		slog.Info("AI reply collaborator enabled")
	}

	dispatcher := services.NewDispatcher(guard, cfg.HandlerTimeout)
	handlers.New(store, conversions, messenger, replier).RegisterAll(dispatcher)
	pipeline := webhooks.NewPipeline(cfg, dispatcher, activity)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("Request error", "error", err, "status", code)
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path}\n",
	}))

	// Register webhook routes
	webhooks.RegisterRoutes(app, cfg, pipeline)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "facebook-ingest",
		})
	})

	// Shut down cleanly on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("Shutting down")
		if err := app.Shutdown(); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
	}()

	slog.Info("Server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
