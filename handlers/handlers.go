package handlers

import (
	"context"
	"log/slog"

	"facebook-ingest/models"
	"facebook-ingest/services"
)

// Handlers bundles the category side-effect functions with their
// collaborators. Every method absorbs what it can and returns an error
// only when the sub-event should be marked failed.
type Handlers struct {
	store       services.InteractionStore
	conversions services.ConversionTracker
	messenger   services.OutboundMessenger
	replier     services.ReplyGenerator
}

// New creates the handler set. replier may be nil when no reply
// collaborator is configured.
func New(store services.InteractionStore, conversions services.ConversionTracker, messenger services.OutboundMessenger, replier services.ReplyGenerator) *Handlers {
	return &Handlers{
		store:       store,
		conversions: conversions,
		messenger:   messenger,
		replier:     replier,
	}
}

// RegisterAll binds every page-event category to its handler
func (h *Handlers) RegisterAll(d *services.Dispatcher) {
	d.Register("page", models.CategoryMessage, h.HandleMessage)
	d.Register("page", models.CategoryPostback, h.HandlePostback)
	d.Register("page", models.CategoryComment, h.HandleComment)
	d.Register("page", models.CategoryReaction, h.HandleReaction)
	d.Register("page", models.CategoryRating, h.HandleRating)
	d.Register("page", models.CategoryFeed, h.HandleFeedChange)
	d.Register("page", models.CategoryLiveVideo, h.HandleLiveVideo)

	for _, object := range []string{"user", "permissions", "application"} {
		d.Register(object, models.CategoryAccount, h.HandleAccountEvent)
	}
}

// HandleAccountEvent logs account-level notifications; they carry no
// customer interaction to persist
func (h *Handlers) HandleAccountEvent(ctx context.Context, event models.NormalizedEvent) error {
	slog.Info("Account event received",
		"object", event.Object,
		"resourceID", event.ResourceID,
		"eventID", event.EventID,
	)
	return nil
}
