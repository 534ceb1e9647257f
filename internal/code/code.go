// Package code generates short human-typeable room join codes.
package code

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Alphabet excludes easily-confused characters (0/O, 1/I).
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length of a generated room code.
const Length = 6

// Generate returns a random fixed-length code drawn from Alphabet.
// Uniqueness is the caller's concern (check-and-retry against the store).
func Generate() (string, error) {
	b := make([]byte, Length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}
	for i := range b {
		b[i] = Alphabet[int(b[i])%len(Alphabet)]
	}
	return string(b), nil
}

// Normalize uppercases a caller-supplied code so lookups are
// case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
