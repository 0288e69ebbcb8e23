package util

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HmacSha256Hash returns the HMAC-SHA256 digest of message keyed by
// secret.
func HmacSha256Hash(message, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return mac.Sum(nil)
}
