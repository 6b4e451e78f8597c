package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"facebook-ingest/models"
)

// HandleReaction persists a reaction interaction and emits a conversion
// event for it
func (h *Handlers) HandleReaction(ctx context.Context, event models.NormalizedEvent) error {
	change := event.Feed
	if change == nil {
		return fmt.Errorf("reaction event %s has no change payload", event.EventID)
	}

	senderID := change.SenderID
	if change.From != nil && change.From.ID != "" {
		senderID = change.From.ID
	}
	if senderID == event.ResourceID {
		slog.Info("Skipping page's own reaction", "postID", change.PostID, "pageID", event.ResourceID)
		return nil
	}

	slog.Info("Handling reaction",
		"postID", change.PostID,
		"senderID", senderID,
		"reactionType", change.ReactionType,
		"verb", change.Verb,
	)

	interaction := &models.CustomerInteraction{
		EventID:    event.EventID,
		CustomerID: senderID,
		PageID:     event.ResourceID,
		Kind:       "reaction",
		Message:    change.ReactionType,
		Timestamp:  time.Unix(change.CreatedTime, 0),
	}

	if _, err := h.store.CreateInteraction(ctx, interaction); err != nil {
		return fmt.Errorf("persist reaction interaction: %w", err)
	}

	err := h.conversions.TrackEvent(ctx, senderID, "Reaction", map[string]interface{}{
		"post_id":       change.PostID,
		"reaction_type": change.ReactionType,
		"weight":        1,
	})
	if err != nil {
		return fmt.Errorf("track reaction conversion: %w", err)
	}

	return nil
}

// HandleRating persists a rating interaction and emits a conversion
// event weighted by the star count
func (h *Handlers) HandleRating(ctx context.Context, event models.NormalizedEvent) error {
	rating := event.Rating
	if rating == nil {
		return fmt.Errorf("rating event %s has no rating payload", event.EventID)
	}

	var senderID, senderName string
	if rating.From != nil {
		senderID = rating.From.ID
		senderName = rating.From.Name
	}

	slog.Info("Handling rating",
		"reviewID", rating.ReviewID,
		"senderID", senderID,
		"rating", rating.Rating,
	)

	interaction := &models.CustomerInteraction{
		EventID:      event.EventID,
		CustomerID:   senderID,
		CustomerName: senderName,
		PageID:       event.ResourceID,
		Kind:         "rating",
		Message:      rating.ReviewText,
		Rating:       rating.Rating,
		Timestamp:    time.Unix(rating.CreatedTime, 0),
	}

	if _, err := h.store.CreateInteraction(ctx, interaction); err != nil {
		return fmt.Errorf("persist rating interaction: %w", err)
	}

	err := h.conversions.TrackEvent(ctx, senderID, "Rating", map[string]interface{}{
		"review_id": rating.ReviewID,
		"weight":    rating.Rating,
	})
	if err != nil {
		return fmt.Errorf("track rating conversion: %w", err)
	}

	return nil
}

// HandleFeedChange emits a content-publish conversion for new posts;
// other feed mutations are logged only
func (h *Handlers) HandleFeedChange(ctx context.Context, event models.NormalizedEvent) error {
	change := event.Feed
	if change == nil {
		return fmt.Errorf("feed event %s has no change payload", event.EventID)
	}

	if change.Verb != "add" || (change.Item != "post" && change.Item != "status") {
		slog.Info("Feed change without publish semantics",
			"item", change.Item,
			"verb", change.Verb,
			"postID", change.PostID,
		)
		return nil
	}

	slog.Info("Handling content publish", "postID", change.PostID, "pageID", event.ResourceID)

	err := h.conversions.TrackEvent(ctx, event.ResourceID, "ContentPublished", map[string]interface{}{
		"post_id": change.PostID,
		"item":    change.Item,
	})
	if err != nil {
		return fmt.Errorf("track publish conversion: %w", err)
	}

	return nil
}

// HandleLiveVideo persists a live-video status change
func (h *Handlers) HandleLiveVideo(ctx context.Context, event models.NormalizedEvent) error {
	video := event.LiveVideo
	if video == nil {
		return fmt.Errorf("live video event %s has no payload", event.EventID)
	}

	slog.Info("Handling live video change",
		"videoID", video.ID,
		"status", video.Status,
		"pageID", event.ResourceID,
	)

	interaction := &models.CustomerInteraction{
		EventID:    event.EventID,
		CustomerID: event.ResourceID,
		PageID:     event.ResourceID,
		Kind:       "live_video",
		Message:    video.Status,
		Timestamp:  event.ReceivedAt,
	}

	if _, err := h.store.CreateInteraction(ctx, interaction); err != nil {
		return fmt.Errorf("persist live video interaction: %w", err)
	}

	return nil
}
