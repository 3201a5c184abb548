package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// GenerateState produces a fresh unguessable state parameter. Never reused
// across flows.
func GenerateState() (string, error) {
	return randomURLToken(16)
}

// GenerateCodeVerifier produces a PKCE code verifier per RFC 7636
func GenerateCodeVerifier() (string, error) {
	return randomURLToken(32)
}

func randomURLToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ChallengeS256 derives the code challenge from a verifier.
// S256: base64url(sha256(verifier))
func ChallengeS256(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
