package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestValidSignature(t *testing.T) {
	secret := "app_secret"
	body := []byte(`{"object":"page","entry":[]}`)

	tests := []struct {
		name   string
		body   []byte
		header string
		secret string
		want   bool
	}{
		{
			name:   "valid signature",
			body:   body,
			header: signBody(secret, body),
			secret: secret,
			want:   true,
		},
		{
			name:   "empty secret fails closed",
			body:   body,
			header: signBody(secret, body),
			secret: "",
			want:   false,
		},
		{
			name:   "missing header",
			body:   body,
			header: "",
			secret: secret,
			want:   false,
		},
		{
			name:   "missing sha256 prefix",
			body:   body,
			header: strings.TrimPrefix(signBody(secret, body), "sha256="),
			secret: secret,
			want:   false,
		},
		{
			name:   "wrong secret",
			body:   body,
			header: signBody("other_secret", body),
			secret: secret,
			want:   false,
		},
		{
			name:   "invalid hex",
			body:   body,
			header: "sha256=not-hex-at-all",
			secret: secret,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidSignature(tt.body, tt.header, tt.secret); got != tt.want {
				t.Fatalf("ValidSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidSignature_SingleByteMutation(t *testing.T) {
	secret := "app_secret"
	body := []byte(`{"object":"page","entry":[{"id":"p1"}]}`)
	header := signBody(secret, body)

	if !ValidSignature(body, header, secret) {
		t.Fatal("unmutated body should verify")
	}

	for i := range body {
		mutated := make([]byte, len(body))
		copy(mutated, body)
		mutated[i] ^= 0x01

		if ValidSignature(mutated, header, secret) {
			t.Fatalf("mutation at byte %d should fail verification", i)
		}
	}
}

func TestVerifySignatureMiddleware(t *testing.T) {
	secret := "app_secret"
	body := `{"object":"page","entry":[]}`

	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
	}{
		{
			name:       "valid signature passes through",
			secret:     secret,
			header:     signBody(secret, []byte(body)),
			wantStatus: fiber.StatusOK,
		},
		{
			name:       "invalid signature rejected",
			secret:     secret,
			header:     signBody("wrong", []byte(body)),
			wantStatus: fiber.StatusForbidden,
		},
		{
			name:       "no header rejected",
			secret:     secret,
			wantStatus: fiber.StatusForbidden,
		},
		{
			name:       "unconfigured secret rejects signed request",
			secret:     "",
			header:     signBody(secret, []byte(body)),
			wantStatus: fiber.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			handled := false
			app.Post("/webhook", VerifySignature(tt.secret), func(c *fiber.Ctx) error {
				handled = true
				return c.SendString("EVENT_RECEIVED")
			})

			req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set(signatureHeader, tt.header)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != fiber.StatusOK && handled {
				t.Fatal("handler ran despite rejected signature")
			}
		})
	}
}
