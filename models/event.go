package models

import (
	"encoding/json"
	"time"
)

// WebhookEvent represents the main webhook payload from Facebook
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents one subscribed resource's events in the webhook
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging,omitempty"`
	Changes   []Change    `json:"changes,omitempty"`
}

// Messaging represents a messaging event
type Messaging struct {
	Sender    User      `json:"sender"`
	Recipient User      `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Postback  *Postback `json:"postback,omitempty"`
}

// User represents a Facebook user
type User struct {
	ID string `json:"id"`
}

// Message represents a message
type Message struct {
	MID         string       `json:"mid"`
	Text        string       `json:"text"`
	QuickReply  *QuickReply  `json:"quick_reply,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Postback represents a postback button press
type Postback struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// QuickReply represents a quick reply
type QuickReply struct {
	Payload string `json:"payload"`
}

// Attachment represents a message attachment
type Attachment struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload"`
}

// Payload represents attachment payload
type Payload struct {
	URL string `json:"url"`
}

// Change represents a field-level change notification. The value shape
// depends on the field, so it stays raw until the classifier decodes it.
type Change struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// FeedValue is the decoded value of a feed/comments/reactions change
type FeedValue struct {
	Item         string        `json:"item"`
	Verb         string        `json:"verb"`
	CommentID    string        `json:"comment_id"`
	PostID       string        `json:"post_id"`
	ParentID     string        `json:"parent_id"`
	SenderID     string        `json:"sender_id"`
	SenderName   string        `json:"sender_name"`
	From         *FacebookUser `json:"from,omitempty"`
	Message      string        `json:"message"`
	ReactionType string        `json:"reaction_type,omitempty"`
	CreatedTime  int64         `json:"created_time"` // Unix timestamp from Facebook
}

// RatingValue is the decoded value of a ratings change
type RatingValue struct {
	ReviewID    string        `json:"open_graph_story_id"`
	Rating      int           `json:"rating"`
	ReviewText  string        `json:"review_text"`
	From        *FacebookUser `json:"from,omitempty"`
	CreatedTime int64         `json:"created_time"`
}

// LiveVideoValue is the decoded value of a live_videos change
type LiveVideoValue struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// FacebookUser represents a Facebook user in webhook payloads
type FacebookUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category identifies the kind of a normalized event
type Category string

const (
	CategoryMessage   Category = "message_received"
	CategoryPostback  Category = "postback_received"
	CategoryComment   Category = "comment_added"
	CategoryReaction  Category = "reaction_added"
	CategoryRating    Category = "rating_added"
	CategoryLiveVideo Category = "live_video_changed"
	CategoryFeed      Category = "feed_changed"
	CategoryAccount   Category = "account_event"
	CategoryUnhandled Category = "unhandled"
)

// NormalizedEvent is the canonical internal shape every sub-event is
// reduced to before dispatch. Exactly one of the typed payload fields is
// set, matching Category.
type NormalizedEvent struct {
	EventID    string
	ResourceID string
	Object     string
	Category   Category
	ReceivedAt time.Time

	Messaging *Messaging
	Feed      *FeedValue
	Rating    *RatingValue
	LiveVideo *LiveVideoValue

	// RawValue keeps the undecoded change payload for unhandled fields
	RawValue json.RawMessage
	Field    string
}
