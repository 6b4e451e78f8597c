package webhooks

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"facebook-ingest/config"
	"facebook-ingest/middleware"
	"facebook-ingest/models"
	"facebook-ingest/services"
)

// Pipeline wires the classifier to the dispatcher and activity tracker
// for one webhook endpoint
type Pipeline struct {
	cfg        *config.Config
	dispatcher *services.Dispatcher
	activity   services.ActivityTracker
}

// NewPipeline creates the processing pipeline behind POST /webhook
func NewPipeline(cfg *config.Config, dispatcher *services.Dispatcher, activity services.ActivityTracker) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		dispatcher: dispatcher,
		activity:   activity,
	}
}

// RegisterRoutes mounts the webhook endpoints. The signature check runs
// as middleware on POST, before any parsing.
func RegisterRoutes(app *fiber.App, cfg *config.Config, pipeline *Pipeline) {
	webhook := app.Group("/webhook")

	// Webhook verification endpoint
	webhook.Get("/", verifyWebhook(cfg))

	// Webhook event handler
	webhook.Post("/", middleware.VerifySignature(cfg.AppSecret), handleWebhookEvent(pipeline))
}

// verifyWebhook handles the Facebook subscription handshake
func verifyWebhook(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mode := c.Query("hub.mode")
		token := c.Query("hub.verify_token")
		challenge := c.Query("hub.challenge")

		if mode == "subscribe" && cfg.VerifyToken != "" && token == cfg.VerifyToken {
			slog.Info("Webhook verified successfully")
			return c.SendString(challenge)
		}

		slog.Warn("Webhook verification failed", "mode", mode)
		return c.SendStatus(fiber.StatusForbidden)
	}
}

// handleWebhookEvent accepts a verified delivery and processes it
// asynchronously. The response is always 200 EVENT_RECEIVED: anything
// other than a signature failure must not trigger an upstream redeliver,
// or already-processed sibling sub-events come back with it.
func handleWebhookEvent(pipeline *Pipeline) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var delivery models.WebhookEvent
		if err := json.Unmarshal(c.Body(), &delivery); err != nil {
			slog.Error("Malformed webhook body, acking to stop redelivery", "error", err)
			return c.SendString("EVENT_RECEIVED")
		}

		// Process the delivery in its own goroutine and ack immediately
		go pipeline.ProcessDelivery(&delivery, time.Now())

		return c.SendString("EVENT_RECEIVED")
	}
}

// ProcessDelivery runs every sub-event of one delivery through the
// dispatcher, in array order, then records activity for each entry.
// Separate deliveries run concurrently with no ordering between them.
func (p *Pipeline) ProcessDelivery(delivery *models.WebhookEvent, receivedAt time.Time) {
	deliveryID := uuid.NewString()
	logger := slog.With("deliveryID", deliveryID, "object", delivery.Object)

	events := Classify(delivery, receivedAt)
	logger.Info("Processing webhook delivery", "entries", len(delivery.Entry), "events", len(events))

	ctx := context.Background()

	for _, event := range events {
		p.logUnsubscribedField(logger, event)
		p.dispatcher.Dispatch(ctx, event)
	}

	for _, entry := range delivery.Entry {
		entryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := p.activity.TouchResource(entryCtx, entry.ID, receivedAt); err != nil {
			logger.Error("Failed to record subscription activity", "resourceID", entry.ID, "error", err)
		}
		cancel()
	}
}

// logUnsubscribedField flags changes arriving for fields the app never
// subscribed to. Classification is unaffected; this is operational
// signal only.
func (p *Pipeline) logUnsubscribedField(logger *slog.Logger, event models.NormalizedEvent) {
	if event.Field == "" || p.cfg.SubscribedFields[event.Field] {
		return
	}
	logger.Warn("Change received for unsubscribed field",
		"field", event.Field,
		"resourceID", event.ResourceID,
	)
}
