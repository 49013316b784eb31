package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// Signature header names the provider is known to use.
const (
	headerPolarSignature   = "x-polar-signature"
	headerWebhookSignature = "webhook-signature"
)

// ExtractSignature pulls the webhook signature from the request headers.
// Returns "" when no signature header is present.
func ExtractSignature(h http.Header) string {
	if v := h.Get(headerPolarSignature); v != "" {
		return v
	}
	return h.Get(headerWebhookSignature)
}

// VerifySignature validates a hex-encoded HMAC-SHA256 of the raw body.
// hmac.Equal gives the constant-time comparison; verification happens
// before any payload parsing.
func VerifySignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, sigBytes)
}

// Sign computes the hex signature for a body. Used by tests and outbound
// redelivery tooling.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
