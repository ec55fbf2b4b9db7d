// Package blindindex computes deterministic HMAC-SHA256 hashes of sensitive
// field values. The hash is stored alongside the encrypted value so exact-match
// lookups (e.g. "find the account with this email") work without decrypting
// every row. The index key must be distinct from any encryption key.
package blindindex

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hasher produces blind-index hashes with a fixed key.
type Hasher struct {
	key []byte
}

// New creates a Hasher. The key should be at least 32 bytes.
func New(key []byte) *Hasher {
	return &Hasher{key: key}
}

// Sum returns the hex-encoded HMAC-SHA256 of value (64 characters), or ""
// for an empty value so blank fields never produce an indexable hash.
func (h *Hasher) Sum(value string) string {
	if value == "" {
		return ""
	}
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// SumNormalized trims and lowercases the value before hashing, for fields
// like email where lookups must be case-insensitive.
func (h *Hasher) SumNormalized(value string) string {
	return h.Sum(strings.ToLower(strings.TrimSpace(value)))
}
