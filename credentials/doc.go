// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package credentials generates single-use voting credentials and computes
their stored hash.

# Generation

	codes, err := credentials.NewGenerator().Generate(100, credentials.DefaultLength)

Codes are drawn from Alphabet with crypto/rand and are distinct within the
batch. Uniqueness against already stored credentials is checked by the
caller before persisting.

# Hashing

	h := credentials.NewHasher(cfg.CredentialPepper)
	hash := h.Hash(code) // 64 hex chars

Scheme v1 is HMAC-SHA3-256 over the normalized code. Only the hash and the
scheme name are stored; the plaintext is returned once to the issuer.
*/
package credentials
