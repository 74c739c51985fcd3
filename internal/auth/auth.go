// Package auth holds the small credential helpers the relay needs:
// extracting bearer tokens from caller requests and comparing the webhook
// verify token.
package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
)

// ExtractBearer returns the bearer token from the Authorization header.
func ExtractBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("unsupported authorization scheme %q", parts[0])
	}
	if parts[1] == "" {
		return "", fmt.Errorf("empty bearer token")
	}
	return parts[1], nil
}

// TokenMatches compares a provided token against the expected one in
// constant time. An empty expected token never matches.
func TokenMatches(expected, provided string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
