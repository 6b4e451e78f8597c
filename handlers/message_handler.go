package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"facebook-ingest/models"
)

// HandleMessage persists an inbound message as a customer interaction
// and, when a reply collaborator is configured, sends an automated reply
func (h *Handlers) HandleMessage(ctx context.Context, event models.NormalizedEvent) error {
	messaging := event.Messaging
	if messaging == nil || messaging.Message == nil {
		return fmt.Errorf("message event %s has no message payload", event.EventID)
	}

	senderID := messaging.Sender.ID
	pageID := event.ResourceID

	// Message echoes from the page itself are not customer interactions
	if senderID == pageID {
		slog.Info("Skipping page's own message", "pageID", pageID, "mid", messaging.Message.MID)
		return nil
	}

	slog.Info("Handling message",
		"senderID", senderID,
		"pageID", pageID,
		"mid", messaging.Message.MID,
	)

	interaction := &models.CustomerInteraction{
		EventID:    event.EventID,
		CustomerID: senderID,
		PageID:     pageID,
		Kind:       "message",
		Message:    messaging.Message.Text,
		Timestamp:  time.UnixMilli(messaging.Timestamp),
	}

	if _, err := h.store.CreateInteraction(ctx, interaction); err != nil {
		return fmt.Errorf("persist message interaction: %w", err)
	}

	h.maybeReply(ctx, senderID, messaging.Message.Text)

	return nil
}

// HandlePostback persists a postback button press
func (h *Handlers) HandlePostback(ctx context.Context, event models.NormalizedEvent) error {
	messaging := event.Messaging
	if messaging == nil || messaging.Postback == nil {
		return fmt.Errorf("postback event %s has no postback payload", event.EventID)
	}

	slog.Info("Handling postback",
		"senderID", messaging.Sender.ID,
		"pageID", event.ResourceID,
		"payload", messaging.Postback.Payload,
	)

	interaction := &models.CustomerInteraction{
		EventID:    event.EventID,
		CustomerID: messaging.Sender.ID,
		PageID:     event.ResourceID,
		Kind:       "postback",
		Message:    messaging.Postback.Payload,
		Timestamp:  time.UnixMilli(messaging.Timestamp),
	}

	if _, err := h.store.CreateInteraction(ctx, interaction); err != nil {
		return fmt.Errorf("persist postback interaction: %w", err)
	}

	return nil
}

// maybeReply runs the optional reply path. Reply failures are logged and
// dropped: the interaction is already persisted and the messenger
// contract is fire-and-forget.
func (h *Handlers) maybeReply(ctx context.Context, senderID, text string) {
	if h.replier == nil || h.messenger == nil {
		return
	}

	reply, err := h.replier.GenerateReply(ctx, senderID, text)
	if err != nil {
		slog.Error("Failed to generate reply", "senderID", senderID, "error", err)
		return
	}
	if reply == "" {
		return
	}

	if err := h.messenger.Send(ctx, senderID, reply); err != nil {
		slog.Error("Failed to send reply", "senderID", senderID, "error", err)
	}
}
