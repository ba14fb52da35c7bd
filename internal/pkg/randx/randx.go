/*
Package randx provides cryptographically secure random tokens and identifiers.

It generates opaque session tokens, OAuth state values, anonymous display
names, and UUID message IDs.
*/
package randx

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

const (
	// sessionTokenBytes is the entropy of a session token before encoding.
	sessionTokenBytes = 16

	// oauthStateBytes is the entropy of an OAuth state value before encoding.
	oauthStateBytes = 8

	// anonymousNameBytes is the entropy behind the hex suffix of an anonymous name.
	anonymousNameBytes = 3

	// AnonymousNamePrefix starts every synthesized display name.
	AnonymousNamePrefix = "Usuario_"
)

// SessionToken generates a high-entropy opaque session token
// (URL-safe base64, no padding).
func SessionToken() (string, error) {
	return urlSafeToken(sessionTokenBytes)
}

// OAuthState generates a random state value for the OAuth redirect.
func OAuthState() (string, error) {
	return urlSafeToken(oauthStateBytes)
}

func urlSafeToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes for token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AnonymousName generates a human-readable display name for connections
// that present no resolvable session, e.g. "Usuario_a3f9c1".
func AnonymousName() (string, error) {
	buf := make([]byte, anonymousNameBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes for anonymous name: %w", err)
	}

	return AnonymousNamePrefix + hex.EncodeToString(buf), nil
}

// MessageID generates a UUID v4 string to serve as a unique message identifier.
func MessageID() string {
	return uuid.New().String()
}
