package services

import (
	"context"
	"testing"

	"github.com/h2non/gock"
)

func TestTrackEventSuccess(t *testing.T) {
	defer gock.Off()

	gock.New("https://graph.facebook.com").
		Post("/v18.0/pix1/events").
		Reply(200).
		JSON(map[string]int{"events_received": 1})

	tracker := NewGraphConversionTracker("pix1", "token")
	gock.InterceptClient(tracker.client)
	defer gock.RestoreClient(tracker.client)

	err := tracker.TrackEvent(context.Background(), "u1", "Comment", map[string]interface{}{"weight": 1})
	if err != nil {
		t.Fatalf("TrackEvent: %v", err)
	}
	if !gock.IsDone() {
		t.Fatal("conversion request was not sent")
	}
}

func TestTrackEventRetriesServerErrors(t *testing.T) {
	defer gock.Off()

	gock.New("https://graph.facebook.com").
		Post("/v18.0/pix1/events").
		Reply(500).
		BodyString("upstream hiccup")
	gock.New("https://graph.facebook.com").
		Post("/v18.0/pix1/events").
		Reply(200).
		JSON(map[string]int{"events_received": 1})

	tracker := NewGraphConversionTracker("pix1", "token")
	gock.InterceptClient(tracker.client)
	defer gock.RestoreClient(tracker.client)

	err := tracker.TrackEvent(context.Background(), "u1", "Rating", map[string]interface{}{"weight": 5})
	if err != nil {
		t.Fatalf("TrackEvent should succeed after retry: %v", err)
	}
	if !gock.IsDone() {
		t.Fatal("expected both attempts to be consumed")
	}
}

func TestTrackEventClientErrorNotRetried(t *testing.T) {
	defer gock.Off()

	gock.New("https://graph.facebook.com").
		Post("/v18.0/pix1/events").
		Reply(400).
		BodyString(`{"error":{"message":"bad pixel"}}`)

	tracker := NewGraphConversionTracker("pix1", "token")
	gock.InterceptClient(tracker.client)
	defer gock.RestoreClient(tracker.client)

	err := tracker.TrackEvent(context.Background(), "u1", "Comment", nil)
	if err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if !gock.IsDone() {
		t.Fatal("request not sent")
	}
}

func TestTrackEventUnconfiguredPixelDropsSilently(t *testing.T) {
	tracker := NewGraphConversionTracker("", "token")
	if err := tracker.TrackEvent(context.Background(), "u1", "Comment", nil); err != nil {
		t.Fatalf("unconfigured pixel should drop the event, got %v", err)
	}
}
