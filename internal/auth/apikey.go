package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
	"time"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateKey creates a new service API key with the format:
// metadesc-{env}-{32 random alphanumeric chars}
func GenerateKey(env string) (string, error) {
	random, err := randomString(32)
	if err != nil {
		return "", fmt.Errorf("generate random: %w", err)
	}
	return fmt.Sprintf("metadesc-%s-%s", env, random), nil
}

// HashKey returns the SHA-256 hex digest of an API key. Only the hash is
// stored; the raw key is shown once at creation time.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// KeyPrefix extracts a display-safe prefix from a key: metadesc-{env}-{first 8 chars}
func KeyPrefix(key string) string {
	if len(key) < 16 {
		return key
	}
	// Find the position after the second dash
	dashes := 0
	for i, c := range key {
		if c == '-' {
			dashes++
			if dashes == 2 {
				end := i + 9 // dash + 8 chars
				if end > len(key) {
					end = len(key)
				}
				return key[:end]
			}
		}
	}
	return key[:16]
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b), nil
}

// KeyMetadata holds the cached metadata for a service API key.
type KeyMetadata struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	TeamID         string    `json:"team_id"`
	Name           string    `json:"name"`
	// AllowedProviders limits which vendors this key may generate with.
	// Empty means all registered providers.
	AllowedProviders []string  `json:"allowed_providers"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// AllowsProvider reports whether the key may use the named provider.
func (km *KeyMetadata) AllowsProvider(name string) bool {
	if len(km.AllowedProviders) == 0 {
		return true
	}
	for _, p := range km.AllowedProviders {
		if p == name {
			return true
		}
	}
	return false
}

// ParseDuration parses a duration string like "365d", "30d", "24h".
func ParseDuration(s string) (time.Duration, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("empty duration")
	}
	last := s[len(s)-1]
	if last == 'd' {
		var days int
		_, err := fmt.Sscanf(s, "%dd", &days)
		if err != nil {
			return 0, fmt.Errorf("parse days: %w", err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
