package webhooks

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"facebook-ingest/models"
)

// Classify flattens a webhook delivery into normalized events, one per
// sub-event, preserving entry and sub-event order. It never fails:
// sub-events it cannot make sense of come back as CategoryUnhandled so
// new upstream event types flow through without breaking the pipeline.
func Classify(delivery *models.WebhookEvent, receivedAt time.Time) []models.NormalizedEvent {
	var events []models.NormalizedEvent

	if delivery.Object != "page" {
		// user / permissions / application objects carry account-level
		// notifications we only log
		for _, entry := range delivery.Entry {
			events = append(events, models.NormalizedEvent{
				EventID:    syntheticID(delivery.Object, entry),
				ResourceID: entry.ID,
				Object:     delivery.Object,
				Category:   models.CategoryAccount,
				ReceivedAt: receivedAt,
			})
		}
		return events
	}

	for _, entry := range delivery.Entry {
		for i := range entry.Messaging {
			messaging := entry.Messaging[i]
			events = append(events, classifyMessaging(entry.ID, messaging, receivedAt))
		}

		for _, change := range entry.Changes {
			events = append(events, classifyChange(entry.ID, change, receivedAt))
		}
	}

	return events
}

func classifyMessaging(resourceID string, messaging models.Messaging, receivedAt time.Time) models.NormalizedEvent {
	event := models.NormalizedEvent{
		ResourceID: resourceID,
		Object:     "page",
		ReceivedAt: receivedAt,
		Messaging:  &messaging,
	}

	switch {
	case messaging.Message != nil:
		event.Category = models.CategoryMessage
		event.EventID = messaging.Message.MID
	case messaging.Postback != nil:
		event.Category = models.CategoryPostback
		// Postbacks carry no upstream id; sender+timestamp+payload is
		// stable across redelivery of the same press
		sum := sha256.Sum256([]byte(messaging.Postback.Payload))
		event.EventID = fmt.Sprintf("postback:%s:%d:%s",
			messaging.Sender.ID, messaging.Timestamp, hex.EncodeToString(sum[:8]))
	default:
		event.Category = models.CategoryUnhandled
	}

	if event.EventID == "" {
		raw, _ := json.Marshal(messaging)
		event.EventID = hashID("page", resourceID, raw)
	}

	return event
}

func classifyChange(resourceID string, change models.Change, receivedAt time.Time) models.NormalizedEvent {
	event := models.NormalizedEvent{
		ResourceID: resourceID,
		Object:     "page",
		ReceivedAt: receivedAt,
		Field:      change.Field,
		RawValue:   change.Value,
	}

	switch change.Field {
	case "feed":
		var value models.FeedValue
		if err := json.Unmarshal(change.Value, &value); err != nil {
			slog.Warn("Undecodable feed change value", "resourceID", resourceID, "error", err)
			event.Category = models.CategoryUnhandled
			break
		}
		event.Feed = &value
		switch value.Item {
		case "comment":
			event.Category = models.CategoryComment
			event.EventID = value.CommentID
		case "reaction":
			event.Category = models.CategoryReaction
			event.EventID = reactionID(&value)
		default:
			event.Category = models.CategoryFeed
			if value.PostID != "" {
				event.EventID = fmt.Sprintf("feed:%s:%s:%s", value.PostID, value.Item, value.Verb)
			}
		}

	case "comments":
		var value models.FeedValue
		if err := json.Unmarshal(change.Value, &value); err != nil {
			slog.Warn("Undecodable comments change value", "resourceID", resourceID, "error", err)
			event.Category = models.CategoryUnhandled
			break
		}
		event.Feed = &value
		event.Category = models.CategoryComment
		event.EventID = value.CommentID

	case "reactions":
		var value models.FeedValue
		if err := json.Unmarshal(change.Value, &value); err != nil {
			slog.Warn("Undecodable reactions change value", "resourceID", resourceID, "error", err)
			event.Category = models.CategoryUnhandled
			break
		}
		event.Feed = &value
		event.Category = models.CategoryReaction
		event.EventID = reactionID(&value)

	case "ratings":
		var value models.RatingValue
		if err := json.Unmarshal(change.Value, &value); err != nil {
			slog.Warn("Undecodable ratings change value", "resourceID", resourceID, "error", err)
			event.Category = models.CategoryUnhandled
			break
		}
		event.Rating = &value
		event.Category = models.CategoryRating
		event.EventID = value.ReviewID

	case "live_videos":
		var value models.LiveVideoValue
		if err := json.Unmarshal(change.Value, &value); err != nil {
			slog.Warn("Undecodable live_videos change value", "resourceID", resourceID, "error", err)
			event.Category = models.CategoryUnhandled
			break
		}
		event.LiveVideo = &value
		event.Category = models.CategoryLiveVideo
		if value.ID != "" {
			event.EventID = fmt.Sprintf("live:%s:%s", value.ID, value.Status)
		}

	default:
		event.Category = models.CategoryUnhandled
	}

	if event.EventID == "" {
		// No natural id: hash the raw value so byte-identical redelivery
		// still dedups. Redelivery with mutated metadata will not.
		event.EventID = hashID("page", resourceID, change.Value)
	}

	return event
}

func reactionID(value *models.FeedValue) string {
	from := value.SenderID
	if value.From != nil && value.From.ID != "" {
		from = value.From.ID
	}
	if value.PostID == "" || from == "" {
		return ""
	}
	return fmt.Sprintf("reaction:%s:%s:%s:%s", value.PostID, value.CommentID, from, value.Verb)
}

func syntheticID(object string, entry models.Entry) string {
	raw, _ := json.Marshal(entry)
	return hashID(object, entry.ID, raw)
}

func hashID(object, resourceID string, raw []byte) string {
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%s:%s", object, resourceID, hex.EncodeToString(sum[:16]))
}
