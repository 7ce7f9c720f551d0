// Package tokens builds and parses prefixed bearer tokens.
package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FromAuthorizationHeader extracts the credential from a "Bearer <token>" header value.
func FromAuthorizationHeader(header string) (string, bool) {
	const scheme = "Bearer "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	return strings.TrimSpace(header[len(scheme):]), true
}

// ParseToken strips prefix from raw and returns the secret behind it.
func ParseToken(raw, prefix string) (secret string, ok bool) {
	if !strings.HasPrefix(raw, prefix) || len(raw) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(raw, prefix), true
}

func Format(prefix, secret string) string {
	return prefix + secret
}

// HMAC256Hex is the indexed lookup key of a secret: 64 hex chars.
func HMAC256Hex(pepper, secret string) string {
	m := hmac.New(sha256.New, []byte(pepper))
	m.Write([]byte(secret))
	return hex.EncodeToString(m.Sum(nil))
}
