// Package settlement implements the message-integrity scheme mandated by the
// external settlement network. The scheme is fixed by the network's
// interface: it is deterministic and salt-free, so an intercepted envelope is
// replayable verbatim. Replay protection, where required, must come from
// reference fields inside the payload itself.
package settlement

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Signature sampling: every 8th hex character of the SHA-512 digest from
// index 0 through 120 inclusive, 16 characters total.
const (
	sampleStep = 8
	sampleLast = 120
)

// Sign computes the network's 16-character signature over the canonical
// payload bytes:
//
//	base64(reverse(payload) + reverse(secret)) -> SHA-512 hex -> sample -> upper
//
// Deterministic for fixed (payload, secret); never fails for valid inputs.
func Sign(payload []byte, secret string) string {
	combined := make([]byte, 0, len(payload)+len(secret))
	combined = append(combined, reverseBytes(payload)...)
	combined = append(combined, reverseBytes([]byte(secret))...)

	encoded := base64.StdEncoding.EncodeToString(combined)
	digest := sha512.Sum512([]byte(encoded))
	hexDigest := hex.EncodeToString(digest[:])

	var b strings.Builder
	b.Grow(sampleLast/sampleStep + 1)
	for i := 0; i <= sampleLast; i += sampleStep {
		b.WriteByte(hexDigest[i])
	}
	return strings.ToUpper(b.String())
}

// Verify recomputes the signature over payload and compares it to the
// presented value, case-insensitively.
func Verify(payload []byte, signature string, secret string) bool {
	want := Sign(payload, secret)
	got := strings.ToUpper(signature)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func reverseBytes(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[len(in)-1-i] = b
	}
	return out
}
