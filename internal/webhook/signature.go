package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Sign computes the provider's signature for a payload: an HMAC-SHA256 over
// the exact raw bytes, hex encoded and prefixed with "sha256=".
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the x-hub-signature-256 header against the raw
// request bytes. The body must be the exact bytes as received: re-serialized
// JSON is not guaranteed byte-identical and would break verification.
// Returns false for a missing, malformed, or mismatched header; the three
// cases are deliberately indistinguishable to the caller.
func VerifySignature(body []byte, header, secret string) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
