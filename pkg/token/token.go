// Package token generates and hashes opaque invite tokens.
//
// Tokens are capabilities, not containers: nothing is encoded in them,
// and all authoritative invite data lives in the store keyed by the
// token's hash. Raw tokens are shown to the issuer once and never
// persisted.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// DefaultLength is the number of random bytes in a generated token
// (256 bits, well above the 128-bit unguessability floor).
const DefaultLength = 32

// Generate produces a cryptographically random, URL-safe token.
func Generate() (string, error) {
	return GenerateN(DefaultLength)
}

// GenerateN produces a URL-safe token from n random bytes.
func GenerateN(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash returns the hex-encoded SHA-256 of a raw token. Stores key
// invites by this hash so a database leak does not leak live
// credentials.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
