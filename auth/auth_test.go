// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
			// Verify it's valid hex
			for _, c := range id {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateID() contains invalid hex char: %c", c)
				}
			}
		})
	}

	// Test randomness - two IDs should be different
	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestGenerateAdminKey(t *testing.T) {
	tests := []struct {
		name       string
		electionID string
		salt       string
	}{
		{"standard", "election123", "secret-salt"},
		{"empty election id", "", "salt"},
		{"empty salt", "election456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateAdminKey(tt.electionID, tt.salt)

			if key == "" {
				t.Error("GenerateAdminKey() returned empty string")
			}

			key2 := GenerateAdminKey(tt.electionID, tt.salt)
			if key != key2 {
				t.Error("GenerateAdminKey() is not deterministic")
			}

			if tt.electionID != "" && tt.salt != "" {
				differentKey := GenerateAdminKey(tt.electionID+"x", tt.salt)
				if key == differentKey {
					t.Error("GenerateAdminKey() produced same key for different election IDs")
				}
			}

			if strings.Contains(key, "=") {
				t.Error("GenerateAdminKey() contains padding characters")
			}
		})
	}
}

func TestValidateAdminKey(t *testing.T) {
	electionID := "test-election-123"
	salt := "test-salt"
	validKey := GenerateAdminKey(electionID, salt)

	tests := []struct {
		name       string
		electionID string
		adminKey   string
		salt       string
		wantErr    bool
	}{
		{"valid key", electionID, validKey, salt, false},
		{"wrong key", electionID, "wrong-key", salt, true},
		{"wrong election id", "different-election", validKey, salt, true},
		{"wrong salt", electionID, validKey, "different-salt", true},
		{"empty key", electionID, "", salt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.electionID, tt.adminKey, tt.salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

func TestSessionRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Session{
		CredentialID: "cred-1",
		ElectionID:   "election-1",
		ExpiresAt:    now.Add(10 * time.Minute),
	}

	proof := SignSession(s, "secret")
	if strings.Contains(proof, "=") {
		t.Error("SignSession() contains padding characters")
	}

	got, err := VerifySession(proof, "secret", now)
	if err != nil {
		t.Fatalf("VerifySession() error = %v", err)
	}
	if got.CredentialID != s.CredentialID || got.ElectionID != s.ElectionID {
		t.Errorf("VerifySession() = %+v, want %+v", got, s)
	}
	if !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Errorf("VerifySession() expiry = %v, want %v", got.ExpiresAt, s.ExpiresAt)
	}
}

func TestVerifySessionRejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	valid := SignSession(Session{
		CredentialID: "cred-1",
		ElectionID:   "election-1",
		ExpiresAt:    now.Add(time.Minute),
	}, "secret")

	payload, mac, _ := strings.Cut(valid, ".")
	forged := SignSession(Session{
		CredentialID: "cred-2",
		ElectionID:   "election-1",
		ExpiresAt:    now.Add(time.Minute),
	}, "other-secret")
	forgedPayload, _, _ := strings.Cut(forged, ".")

	tests := []struct {
		name    string
		proof   string
		secret  string
		now     time.Time
		wantErr error
	}{
		{"wrong secret", valid, "not-the-secret", now, ErrInvalidSession},
		{"no separator", payload + mac, "secret", now, ErrInvalidSession},
		{"swapped payload", forgedPayload + "." + mac, "secret", now, ErrInvalidSession},
		{"garbage", "!!!.???", "secret", now, ErrInvalidSession},
		{"empty", "", "secret", now, ErrInvalidSession},
		{"at expiry", valid, "secret", now.Add(time.Minute), ErrSessionExpired},
		{"after expiry", valid, "secret", now.Add(time.Hour), ErrSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifySession(tt.proof, tt.secret, tt.now)
			if err != tt.wantErr {
				t.Errorf("VerifySession() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		salt string
	}{
		{"IPv4", "192.168.1.1", "ip-salt"},
		{"IPv6", "2001:0db8:85a3::8a2e:0370:7334", "ip-salt"},
		{"localhost", "127.0.0.1", "ip-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashIP(tt.ip, tt.salt)

			// Should be 16 hex characters (8 bytes * 2)
			if len(hash) != 16 {
				t.Errorf("HashIP() length = %d, want 16", len(hash))
			}

			for _, c := range hash {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("HashIP() contains invalid hex char: %c", c)
				}
			}

			if hash != HashIP(tt.ip, tt.salt) {
				t.Error("HashIP() is not deterministic")
			}
		})
	}

	if HashIP("192.168.1.1", "salt") == HashIP("192.168.1.2", "salt") {
		t.Error("HashIP() produced same hash for different IPs")
	}
	if HashIP("192.168.1.1", "salt1") == HashIP("192.168.1.1", "salt2") {
		t.Error("HashIP() produced same hash for different salts")
	}
}

// Benchmark tests
func BenchmarkGenerateAdminKey(b *testing.B) {
	electionID := "test-election-123"
	salt := "test-salt"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GenerateAdminKey(electionID, salt)
	}
}

func BenchmarkVerifySession(b *testing.B) {
	now := time.Now()
	proof := SignSession(Session{CredentialID: "c", ElectionID: "e", ExpiresAt: now.Add(time.Hour)}, "secret")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VerifySession(proof, "secret", now)
	}
}
