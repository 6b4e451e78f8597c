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
)

// OutboundMessenger sends replies back to a customer
type OutboundMessenger interface {
	Send(ctx context.Context, recipientID, text string) error
}

// GraphMessenger sends messages through the Graph send API
type GraphMessenger struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

// NewGraphMessenger creates a messenger using the page access token
func NewGraphMessenger(accessToken string) *GraphMessenger {
	return &GraphMessenger{
		baseURL:     fbGraphAPI,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers a text message to recipientID. Fire-and-forget: failures
// are logged by the caller, never retried.
func (m *GraphMessenger) Send(ctx context.Context, recipientID, text string) error {
	url := fmt.Sprintf("%s/me/messages?access_token=%s", m.baseURL, m.accessToken)

	payload := map[string]interface{}{
		"recipient": map[string]string{
			"id": recipientID,
		},
		"message": map[string]string{
			"text": text,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("Failed to send messenger reply", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("failed to send message: %s", resp.Status)
	}

	return nil
}
