package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body when the
// partner has a callback secret configured.
const SignatureHeader = "X-Webhook-Signature"

// Signature computes the hex HMAC-SHA256 of body under secret. This is the
// standard webhook-signing convention, unrelated to the settlement network's
// bespoke scheme.
func Signature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a presented signature against the body in constant
// time.
func VerifySignature(body []byte, signature, secret string) bool {
	want := Signature(body, secret)
	return hmac.Equal([]byte(want), []byte(signature))
}
