package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const signatureHeader = "X-Hub-Signature-256"

// VerifySignature rejects any POST delivery whose X-Hub-Signature-256
// header does not match the HMAC-SHA256 of the raw body. It must run
// before the body is parsed: nothing downstream may touch an unverified
// payload.
func VerifySignature(appSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Fail closed: without a secret we cannot authenticate anything
		if appSecret == "" {
			slog.Error("App secret not configured, rejecting delivery")
			return c.SendStatus(fiber.StatusForbidden)
		}

		header := c.Get(signatureHeader)
		if !ValidSignature(c.Body(), header, appSecret) {
			slog.Warn("Invalid webhook signature",
				"hasHeader", header != "",
				"bodyLength", len(c.Body()),
			)
			return c.SendStatus(fiber.StatusForbidden)
		}

		return c.Next()
	}
}

// ValidSignature checks a "sha256=<hex>" signature against the raw body.
// The comparison runs over decoded MAC bytes in constant time.
func ValidSignature(body []byte, header, appSecret string) bool {
	if appSecret == "" || header == "" {
		return false
	}

	encoded, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}

	got, err := hex.DecodeString(encoded)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
