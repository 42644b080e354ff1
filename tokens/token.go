package tokens

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenBytes gives 128 bits of entropy, encoding to 22 URL-safe characters.
const tokenBytes = 16

// NewToken generates a fresh URL-safe token from a cryptographically
// secure source.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("tokens: generate: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
