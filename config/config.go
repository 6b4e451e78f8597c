package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// MongoDB configuration
	MongoURI     string
	DatabaseName string

	// Webhook configuration
	VerifyToken string
	AppSecret   string

	// Graph API configuration
	PageAccessToken    string
	ConversionsPixelID string

	// The Change.field values this app is subscribed to. Changes on other
	// fields are still classified; they just get a warning in the logs.
	SubscribedFields map[string]bool

	// Pipeline tuning
	DedupRetention time.Duration
	HandlerTimeout time.Duration

	// Optional AI reply collaborator
	ReplyAPIKey string

	// Server configuration
	Port string
}

func LoadConfig() *Config {
	cfg := &Config{
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:       getEnv("MONGO_DB_NAME", "facebook_ingest"),
		VerifyToken:        getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		AppSecret:          getEnv("FB_APP_SECRET", ""),
		PageAccessToken:    getEnv("PAGE_ACCESS_TOKEN", ""),
		ConversionsPixelID: getEnv("CONVERSIONS_PIXEL_ID", ""),
		SubscribedFields:   parseFields(getEnv("SUBSCRIBED_FIELDS", "feed,comments,reactions,ratings,live_videos")),
		DedupRetention:     time.Duration(getEnvInt("DEDUP_RETENTION_HOURS", 48)) * time.Hour,
		HandlerTimeout:     time.Duration(getEnvInt("HANDLER_TIMEOUT_SECONDS", 15)) * time.Second,
		ReplyAPIKey:        getEnv("REPLY_API_KEY", ""),
		Port:               getEnv("PORT", "8080"),
	}

	// Validate required configuration
	if cfg.AppSecret == "" {
		slog.Error("FB_APP_SECRET not set, all deliveries will be rejected")
	}
	if cfg.VerifyToken == "" {
		slog.Error("WEBHOOK_VERIFY_TOKEN not set, subscription handshake will fail")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer env value, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func parseFields(raw string) map[string]bool {
	fields := make(map[string]bool)
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields[f] = true
		}
	}
	return fields
}
