// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package credentials

import (
	"crypto/rand"
	"fmt"
	"io"
	"math"
)

// Alphabet is uppercase letters and digits without I, O, 0 and 1.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	DefaultLength = 8
	MaxBatch      = 1000

	defaultMaxCollisions = 1000
)

// ExhaustedSpaceError reports that n distinct credentials could not be drawn.
type ExhaustedSpaceError struct {
	Requested int
	Produced  int
	Length    int
}

func (e *ExhaustedSpaceError) Error() string {
	return fmt.Sprintf("credential space exhausted: produced %d of %d distinct credentials of length %d",
		e.Produced, e.Requested, e.Length)
}

// Generator draws credentials from Alphabet using a cryptographically
// secure source. It has no side effects; persisting is the caller's job.
type Generator struct {
	rand          io.Reader
	maxCollisions int
}

func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader, maxCollisions: defaultMaxCollisions}
}

// Generate returns n distinct plaintext credentials of the given length.
// Collisions within the batch are redrawn; after maxCollisions redraws it
// gives up with *ExhaustedSpaceError.
func (g *Generator) Generate(n, length int) ([]string, error) {
	if n < 0 || length < 1 {
		return nil, fmt.Errorf("invalid credential batch: n=%d length=%d", n, length)
	}
	if spaceSize(length) < float64(n) {
		return nil, &ExhaustedSpaceError{Requested: n, Length: length}
	}

	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	collisions := 0

	for len(out) < n {
		code, err := g.draw(length)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			collisions++
			if collisions > g.maxCollisions {
				return nil, &ExhaustedSpaceError{Requested: n, Produced: len(out), Length: length}
			}
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}

// draw uses rejection sampling so every symbol is equally likely for any
// alphabet size. With 32 symbols no byte is ever rejected.
func (g *Generator) draw(length int) (string, error) {
	limit := 256 - 256%len(Alphabet)
	code := make([]byte, 0, length)
	buf := make([]byte, length)

	for len(code) < length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, Alphabet[int(b)%len(Alphabet)])
			if len(code) == length {
				break
			}
		}
	}

	return string(code), nil
}

func spaceSize(length int) float64 {
	return math.Pow(float64(len(Alphabet)), float64(length))
}
