package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns the hex sha256 of s. Used for rate limit keys and prompt fingerprints
// so raw client addresses and prompt text never reach a store or a log line.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
