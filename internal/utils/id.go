package utils

import (
	"crypto/rand"
	"encoding/base64"
	"path/filepath"
	"strings"
)

const shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const ShortIDLength = 8

// GenerateSecureToken creates a cryptographically secure random token.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewShortID returns an 8-character URL-safe identifier. Uniqueness is
// enforced by the unique index on drops.short_id; callers retry on a
// duplicate-key error.
func NewShortID() (string, error) {
	b := make([]byte, ShortIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	// 64-character alphabet, so masking a byte keeps the draw uniform.
	for i := range b {
		b[i] = shortIDAlphabet[b[i]&63]
	}
	return string(b), nil
}

// NewStorageName returns a randomized on-disk filename for an uploaded file:
// a 16-character token plus the lower-cased extension of the original name.
// Nothing else from the client-supplied name is used.
func NewStorageName(originalName string) (string, error) {
	token, err := GenerateSecureToken(12) // 12 bytes -> 16 base64url chars
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	return token + ext, nil
}
