// Package security holds the credential hasher and the session token service.
package security

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost = 12

	// bcrypt ignores everything past 72 bytes and x/crypto rejects longer input.
	maxPasswordBytes = 72
)

// Hasher hashes passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher validates cost and runs a self-test so misconfiguration fails at startup.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	h := &Hasher{cost: cost}

	probe, err := bcrypt.GenerateFromPassword([]byte("self-test"), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt self-test: %w", err)
	}
	if bcrypt.CompareHashAndPassword(probe, []byte("self-test")) != nil {
		return nil, fmt.Errorf("bcrypt self-test: round trip failed")
	}
	return h, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(normalizePassword(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. Malformed hashes yield false.
func (h *Hasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), normalizePassword(password)) == nil
}

// normalizePassword cuts p to at most 72 bytes without splitting a UTF-8 sequence.
func normalizePassword(p string) []byte {
	if len(p) <= maxPasswordBytes {
		return []byte(p)
	}
	n := 0
	for n < len(p) {
		_, size := utf8.DecodeRuneInString(p[n:])
		if n+size > maxPasswordBytes {
			break
		}
		n += size
	}
	return []byte(p[:n])
}
