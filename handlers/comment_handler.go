package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"facebook-ingest/models"
)

// HandleComment persists a comment interaction and emits a conversion
// event for it
func (h *Handlers) HandleComment(ctx context.Context, event models.NormalizedEvent) error {
	change := event.Feed
	if change == nil {
		return fmt.Errorf("comment event %s has no change payload", event.EventID)
	}

	pageID := event.ResourceID
	senderID := change.SenderID
	senderName := change.SenderName

	// Prefer the From field when present (Facebook's primary structure)
	if change.From != nil {
		if change.From.ID != "" {
			senderID = change.From.ID
		}
		if change.From.Name != "" {
			senderName = change.From.Name
		}
	}

	if senderID == "" {
		slog.Error("No sender ID found in comment change",
			"commentID", change.CommentID,
			"hasFromField", change.From != nil,
		)
		return nil
	}

	// Comments the page leaves on its own posts are not customer
	// interactions and must never trigger a conversion
	if senderID == pageID {
		slog.Info("Skipping page's own comment",
			"commentID", change.CommentID,
			"pageID", pageID,
		)
		return nil
	}

	slog.Info("Handling comment",
		"commentID", change.CommentID,
		"postID", change.PostID,
		"senderID", senderID,
		"pageID", pageID,
	)

	interaction := &models.CustomerInteraction{
		EventID:      event.EventID,
		CustomerID:   senderID,
		CustomerName: senderName,
		PageID:       pageID,
		Kind:         "comment",
		Message:      change.Message,
		Timestamp:    time.Unix(change.CreatedTime, 0),
	}

	if _, err := h.store.CreateInteraction(ctx, interaction); err != nil {
		return fmt.Errorf("persist comment interaction: %w", err)
	}

	err := h.conversions.TrackEvent(ctx, senderID, "Comment", map[string]interface{}{
		"post_id":    change.PostID,
		"comment_id": change.CommentID,
		"weight":     1,
	})
	if err != nil {
		return fmt.Errorf("track comment conversion: %w", err)
	}

	return nil
}
