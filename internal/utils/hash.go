package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

func HashString(s string) string {
	hasher := sha256.New()
	hasher.Write([]byte(s))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Fingerprint digests request content into a cache key. When a user ID is
// given the digest is scoped to that user so identical content from
// different users never shares an entry.
func Fingerprint(content, userID string) string {
	if userID != "" {
		return HashString(userID + ":" + content)
	}
	return HashString(content)
}
