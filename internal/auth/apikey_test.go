package auth

import (
	"strings"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey("prod")
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	if !strings.HasPrefix(key, "metadesc-prod-") {
		t.Errorf("key should start with 'metadesc-prod-', got: %s", key)
	}

	// metadesc-prod- is 14 chars, plus 32 random = 46 total
	if len(key) != 46 {
		t.Errorf("expected key length 46, got %d: %s", len(key), key)
	}

	// Ensure randomness: two keys should differ
	key2, _ := GenerateKey("prod")
	if key == key2 {
		t.Error("two generated keys should not be identical")
	}
}

func TestGenerateKey_DifferentEnv(t *testing.T) {
	key, err := GenerateKey("dev")
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if !strings.HasPrefix(key, "metadesc-dev-") {
		t.Errorf("key should start with 'metadesc-dev-', got: %s", key)
	}
}

func TestHashKey(t *testing.T) {
	key := "metadesc-prod-abcdefghijklmnopqrstuvwxyz012345"
	hash := HashKey(key)

	// SHA-256 produces 64-char hex string
	if len(hash) != 64 {
		t.Errorf("expected hash length 64, got %d", len(hash))
	}

	// Same input should produce same hash
	hash2 := HashKey(key)
	if hash != hash2 {
		t.Error("same key should produce same hash")
	}

	// Different input should produce different hash
	hash3 := HashKey("metadesc-prod-different")
	if hash == hash3 {
		t.Error("different keys should produce different hashes")
	}
}

func TestKeyPrefix(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"metadesc-prod-abcdefghijklmnopqrstuvwxyz012345", "metadesc-prod-abcdefgh"},
		{"metadesc-dev-12345678901234567890123456789012", "metadesc-dev-12345678"},
		{"short", "short"},
	}

	for _, tt := range tests {
		got := KeyPrefix(tt.key)
		if got != tt.expected {
			t.Errorf("KeyPrefix(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}

func TestAllowsProvider(t *testing.T) {
	open := &KeyMetadata{}
	if !open.AllowsProvider("openai") || !open.AllowsProvider("anthropic") {
		t.Error("empty grant list should allow all providers")
	}

	restricted := &KeyMetadata{AllowedProviders: []string{"anthropic"}}
	if restricted.AllowsProvider("openai") {
		t.Error("openai should not be allowed")
	}
	if !restricted.AllowsProvider("anthropic") {
		t.Error("anthropic should be allowed")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
		hours   float64
	}{
		{"365d", false, 365 * 24},
		{"30d", false, 30 * 24},
		{"24h", false, 24},
		{"1h", false, 1},
		{"", true, 0},
	}

	for _, tt := range tests {
		dur, err := ParseDuration(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q) should have errored", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if dur.Hours() != tt.hours {
			t.Errorf("ParseDuration(%q) = %v hours, want %v", tt.input, dur.Hours(), tt.hours)
		}
	}
}
