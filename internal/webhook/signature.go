package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader carries the gateway's hex HMAC-SHA512 of the raw body.
// AltSignatureHeader is accepted for senders that use the generic name.
const (
	SignatureHeader    = "X-Paystack-Signature"
	AltSignatureHeader = "X-Gateway-Signature"
)

// Sign returns the hex-encoded HMAC-SHA512 of payload keyed by secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the HMAC-SHA512 of payload under secret.
// An empty secret or signature never verifies.
func Verify(payload []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
