// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package credentials

import (
	"crypto/hmac"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/PedroGGomess/lions-clube-gaia/models"
)

// Hasher computes the stored form of a credential. The scheme (normalization,
// MAC, key, encoding) is part of the persisted contract: changing any of it
// makes outstanding credentials unredeemable.
type Hasher struct {
	key []byte
}

// NewHasher returns a hasher for the current scheme, keyed by pepper.
func NewHasher(pepper string) *Hasher {
	return &Hasher{key: []byte(pepper)}
}

// Scheme is stored next to each hash.
func (h *Hasher) Scheme() string {
	return models.HashSchemeV1
}

// Hash returns HMAC-SHA3-256(pepper, Normalize(plaintext)) as 64 hex chars.
func (h *Hasher) Hash(plaintext string) string {
	mac := hmac.New(sha3.New256, h.key)
	mac.Write([]byte(Normalize(plaintext)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Normalize upper-cases and drops spaces and dashes, so "abcd-2345" and
// "ABCD 2345" name the same credential.
func Normalize(plaintext string) string {
	var b strings.Builder
	b.Grow(len(plaintext))
	for _, r := range strings.ToUpper(plaintext) {
		if r == ' ' || r == '-' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
