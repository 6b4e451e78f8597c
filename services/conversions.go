package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const fbGraphAPI = "https://graph.facebook.com/v18.0"

// ConversionTracker emits conversion/attribution events for processed
// interactions
type ConversionTracker interface {
	TrackEvent(ctx context.Context, userRef, eventName string, customData map[string]interface{}) error
}

// GraphConversionTracker posts server events to the Graph conversions
// endpoint. Transient failures are retried with backoff here; the
// dispatcher itself never retries.
type GraphConversionTracker struct {
	baseURL     string
	pixelID     string
	accessToken string
	client      *http.Client
}

// NewGraphConversionTracker creates a tracker for the given pixel
func NewGraphConversionTracker(pixelID, accessToken string) *GraphConversionTracker {
	return &GraphConversionTracker{
		baseURL:     fbGraphAPI,
		pixelID:     pixelID,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// TrackEvent sends one named conversion event attributed to userRef
func (t *GraphConversionTracker) TrackEvent(ctx context.Context, userRef, eventName string, customData map[string]interface{}) error {
	if t.pixelID == "" {
		slog.Debug("Conversion pixel not configured, dropping event", "eventName", eventName)
		return nil
	}

	payload := map[string]interface{}{
		"data": []map[string]interface{}{
			{
				"event_name": eventName,
				"event_time": time.Now().Unix(),
				"user_data": map[string]string{
					"external_id": userRef,
				},
				"custom_data":   customData,
				"action_source": "business_messaging",
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/events?access_token=%s", t.baseURL, t.pixelID, t.accessToken)

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			body, _ := io.ReadAll(resp.Body)
			slog.Warn("Conversion API server error, retrying",
				"status", resp.StatusCode,
				"body", string(body))
			return retry.RetryableError(fmt.Errorf("conversion API: %s", resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			slog.Error("Failed to track conversion event",
				"status", resp.StatusCode,
				"body", string(body))
			return fmt.Errorf("conversion API: %s", resp.Status)
		}

		return nil
	})
}
