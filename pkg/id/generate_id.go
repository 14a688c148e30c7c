package id

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// TokenBytes is the entropy carried by NewToken.
const TokenBytes = 32

// NewToken returns an unguessable URL-safe token (unpadded base64url, 43 chars).
// Every call draws fresh randomness; tokens are never derived from one another.
func NewToken() string {
	b := make([]byte, TokenBytes)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
