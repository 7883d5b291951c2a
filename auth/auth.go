// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidSession  = errors.New("invalid session proof")
	ErrSessionExpired  = errors.New("session proof expired")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAdminKey creates an HMAC-based admin key for an election
// This is deterministic and verifiable
func GenerateAdminKey(electionID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(electionID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the election
func ValidateAdminKey(electionID, adminKey, salt string) error {
	expected := GenerateAdminKey(electionID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// Session is what a successful validation hands back to the voter: the
// right to commit one vote for ElectionID by consuming CredentialID before
// ExpiresAt. It is never persisted.
type Session struct {
	CredentialID string
	ElectionID   string
	ExpiresAt    time.Time
}

// SignSession encodes s as payload.mac, both URL-safe base64 without padding.
func SignSession(s Session, secret string) string {
	payload := s.CredentialID + "|" + s.ElectionID + "|" + strconv.FormatInt(s.ExpiresAt.Unix(), 10)
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(payload)) + "." + enc.EncodeToString(sessionMAC([]byte(payload), secret))
}

// VerifySession checks the signature and expiry of a proof made by SignSession.
func VerifySession(proof, secret string, now time.Time) (Session, error) {
	enc := base64.RawURLEncoding

	rawPayload, rawMAC, ok := strings.Cut(proof, ".")
	if !ok {
		return Session{}, ErrInvalidSession
	}
	payload, err := enc.DecodeString(rawPayload)
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	mac, err := enc.DecodeString(rawMAC)
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	if !hmac.Equal(mac, sessionMAC(payload, secret)) {
		return Session{}, ErrInvalidSession
	}

	parts := strings.Split(string(payload), "|")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Session{}, ErrInvalidSession
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Session{}, ErrInvalidSession
	}

	s := Session{
		CredentialID: parts[0],
		ElectionID:   parts[1],
		ExpiresAt:    time.Unix(exp, 0).UTC(),
	}
	if !now.Before(s.ExpiresAt) {
		return Session{}, ErrSessionExpired
	}
	return s, nil
}

func sessionMAC(payload []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte("session:"+secret))
	h.Write(payload)
	return h.Sum(nil)
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
