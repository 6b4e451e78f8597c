package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"facebook-ingest/models"
)

type recordingStore struct {
	interactions []models.CustomerInteraction
	err          error
}

func (s *recordingStore) CreateInteraction(_ context.Context, interaction *models.CustomerInteraction) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.interactions = append(s.interactions, *interaction)
	return "i1", nil
}

type recordingTracker struct {
	names   []string
	weights []interface{}
	err     error
}

func (t *recordingTracker) TrackEvent(_ context.Context, _, eventName string, customData map[string]interface{}) error {
	if t.err != nil {
		return t.err
	}
	t.names = append(t.names, eventName)
	t.weights = append(t.weights, customData["weight"])
	return nil
}

type recordingMessenger struct {
	sent []string
	err  error
}

func (m *recordingMessenger) Send(_ context.Context, _, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, text)
	return nil
}

type scriptedReplier struct {
	reply string
	err   error
}

func (r *scriptedReplier) GenerateReply(context.Context, string, string) (string, error) {
	return r.reply, r.err
}

func messageEvent(mid, senderID, pageID, text string) models.NormalizedEvent {
	return models.NormalizedEvent{
		EventID:    mid,
		ResourceID: pageID,
		Object:     "page",
		Category:   models.CategoryMessage,
		ReceivedAt: time.Now(),
		Messaging: &models.Messaging{
			Sender:    models.User{ID: senderID},
			Recipient: models.User{ID: pageID},
			Timestamp: 1700000000000,
			Message:   &models.Message{MID: mid, Text: text},
		},
	}
}

func TestHandleMessagePersistsAndReplies(t *testing.T) {
	store := &recordingStore{}
	messenger := &recordingMessenger{}
	h := New(store, &recordingTracker{}, messenger, &scriptedReplier{reply: "hello back"})

	err := h.HandleMessage(context.Background(), messageEvent("m1", "u1", "p1", "hi"))
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if len(store.interactions) != 1 {
		t.Fatalf("got %d interactions, want 1", len(store.interactions))
	}
	got := store.interactions[0]
	if got.CustomerID != "u1" || got.Message != "hi" || got.Kind != "message" {
		t.Fatalf("interaction = %+v", got)
	}

	if len(messenger.sent) != 1 || messenger.sent[0] != "hello back" {
		t.Fatalf("sent = %v, want the generated reply", messenger.sent)
	}
}

func TestHandleMessageStoreFailureReported(t *testing.T) {
	store := &recordingStore{err: errors.New("mongo down")}
	messenger := &recordingMessenger{}
	h := New(store, &recordingTracker{}, messenger, &scriptedReplier{reply: "hello back"})

	if err := h.HandleMessage(context.Background(), messageEvent("m1", "u1", "p1", "hi")); err == nil {
		t.Fatal("expected persistence failure to surface")
	}
	if len(messenger.sent) != 0 {
		t.Fatal("reply sent despite failed persistence")
	}
}

func TestHandleMessageReplyFailureAbsorbed(t *testing.T) {
	store := &recordingStore{}
	h := New(store, &recordingTracker{}, &recordingMessenger{err: errors.New("send failed")}, &scriptedReplier{reply: "hello back"})

	if err := h.HandleMessage(context.Background(), messageEvent("m1", "u1", "p1", "hi")); err != nil {
		t.Fatalf("reply failure must not fail the handler: %v", err)
	}
	if len(store.interactions) != 1 {
		t.Fatal("interaction not persisted")
	}
}

func TestHandleMessageSkipsPageEcho(t *testing.T) {
	store := &recordingStore{}
	h := New(store, &recordingTracker{}, &recordingMessenger{}, nil)

	if err := h.HandleMessage(context.Background(), messageEvent("m1", "p1", "p1", "echo")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(store.interactions) != 0 {
		t.Fatal("page echo persisted as a customer interaction")
	}
}

func TestHandleMessageNoReplierConfigured(t *testing.T) {
	store := &recordingStore{}
	messenger := &recordingMessenger{}
	h := New(store, &recordingTracker{}, messenger, nil)

	if err := h.HandleMessage(context.Background(), messageEvent("m1", "u1", "p1", "hi")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(messenger.sent) != 0 {
		t.Fatal("reply sent without a configured replier")
	}
}

func TestHandleRatingWeight(t *testing.T) {
	tracker := &recordingTracker{}
	h := New(&recordingStore{}, tracker, &recordingMessenger{}, nil)

	event := models.NormalizedEvent{
		EventID:    "r1",
		ResourceID: "p1",
		Object:     "page",
		Category:   models.CategoryRating,
		ReceivedAt: time.Now(),
		Rating: &models.RatingValue{
			ReviewID:   "r1",
			Rating:     5,
			ReviewText: "excellent",
			From:       &models.FacebookUser{ID: "u1", Name: "Ann"},
		},
	}

	if err := h.HandleRating(context.Background(), event); err != nil {
		t.Fatalf("HandleRating: %v", err)
	}
	if len(tracker.names) != 1 || tracker.names[0] != "Rating" {
		t.Fatalf("conversions = %v, want [Rating]", tracker.names)
	}
	if tracker.weights[0] != 5 {
		t.Fatalf("weight = %v, want 5 stars", tracker.weights[0])
	}
}

func TestHandleFeedChangePublishOnly(t *testing.T) {
	tests := []struct {
		name            string
		item, verb      string
		wantConversions int
	}{
		{name: "new post converts", item: "post", verb: "add", wantConversions: 1},
		{name: "new status converts", item: "status", verb: "add", wantConversions: 1},
		{name: "post edit does not", item: "post", verb: "edited", wantConversions: 0},
		{name: "post delete does not", item: "post", verb: "remove", wantConversions: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &recordingTracker{}
			h := New(&recordingStore{}, tracker, &recordingMessenger{}, nil)

			event := models.NormalizedEvent{
				EventID:    "f1",
				ResourceID: "p1",
				Object:     "page",
				Category:   models.CategoryFeed,
				ReceivedAt: time.Now(),
				Feed:       &models.FeedValue{Item: tt.item, Verb: tt.verb, PostID: "po1"},
			}

			if err := h.HandleFeedChange(context.Background(), event); err != nil {
				t.Fatalf("HandleFeedChange: %v", err)
			}
			if len(tracker.names) != tt.wantConversions {
				t.Fatalf("got %d conversions, want %d", len(tracker.names), tt.wantConversions)
			}
		})
	}
}

func TestHandleCommentMissingPayload(t *testing.T) {
	h := New(&recordingStore{}, &recordingTracker{}, &recordingMessenger{}, nil)

	event := models.NormalizedEvent{
		EventID:  "c1",
		Object:   "page",
		Category: models.CategoryComment,
	}
	if err := h.HandleComment(context.Background(), event); err == nil {
		t.Fatal("expected an error for a comment event without payload")
	}
}
