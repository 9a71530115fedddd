package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierBytes is the entropy of a generated code verifier. 48 bytes encode
// to 64 base64url characters, inside the 43-128 range RFC 7636 requires, and
// base64url output is a subset of the RFC's unreserved character set.
const verifierBytes = 48

// verifierAlphabet is the RFC 7636 unreserved character set.
const verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// GenerateVerifier produces a cryptographically random PKCE code verifier.
func GenerateVerifier() (string, error) {
	buf := make([]byte, verifierBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// DeriveChallenge computes the S256 code challenge for a verifier:
// base64url(SHA-256(verifier)) without padding.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState produces a random anti-CSRF state value for the
// authorization round trip.
func GenerateState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
