package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const replyAPIURL = "https://api.anthropic.com/v1/messages"

// ReplyGenerator produces an automated reply for an inbound message.
// Returning an empty string means no reply should be sent.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, senderID, text string) (string, error)
}

// ClaudeReplier generates replies through the Anthropic messages API
type ClaudeReplier struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClaudeReplier creates a replier; an empty apiKey disables it
func NewClaudeReplier(apiKey string) *ClaudeReplier {
	return &ClaudeReplier{
		apiKey: apiKey,
		model:  "claude-3-5-haiku-20241022",
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether an API key is configured
func (r *ClaudeReplier) Enabled() bool {
	return r.apiKey != ""
}

type replyRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	Messages  []replyMessage `json:"messages"`
}

type replyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type replyResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// GenerateReply returns a short reply to the customer's message
func (r *ClaudeReplier) GenerateReply(ctx context.Context, senderID, text string) (string, error) {
	if !r.Enabled() {
		return "", nil
	}

	reqBody := replyRequest{
		Model:     r.model,
		MaxTokens: 512,
		Messages: []replyMessage{
			{Role: "user", Content: text},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", replyAPIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reply API: %s: %s", resp.Status, string(body))
	}

	var reply replyResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", err
	}

	for _, block := range reply.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", nil
}
