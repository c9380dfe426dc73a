package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashOwner returns a filesystem-safe identifier for an object owner, the
// session ID.
func HashOwner(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
