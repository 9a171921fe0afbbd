package security

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"infocripto/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestHasher_RoundTrip(t *testing.T) {
	h := newTestHasher(t)

	for _, p := range []string{"", "secret123", "pässwörd-ção", strings.Repeat("a", 200)} {
		hash, err := h.Hash(p)
		require.NoError(t, err)
		assert.True(t, h.Verify(p, hash), "verify(%q)", p)
	}

	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.False(t, h.Verify("secret124", hash))
}

func TestHasher_SaltedHashesDiffer(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("secret123")
	require.NoError(t, err)
	b, err := h.Hash("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHasher_LongMultibyteInput(t *testing.T) {
	h := newTestHasher(t)

	// 2-byte runes after a 1-byte prefix: the 36th rune straddles byte 72
	p := "a" + strings.Repeat("é", 40)
	hash, err := h.Hash(p)
	require.NoError(t, err)
	assert.True(t, h.Verify(p, hash))

	n := normalizePassword(p)
	assert.LessOrEqual(t, len(n), maxPasswordBytes)
	assert.True(t, utf8.Valid(n))
	assert.Len(t, n, 71)

	// anything beyond the cut does not matter
	assert.True(t, h.Verify(p+"tail", hash))
}

func TestHasher_MalformedHash(t *testing.T) {
	h := newTestHasher(t)

	assert.False(t, h.Verify("secret123", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("secret123", ""))
}

func TestNewHasher_RejectsBadCost(t *testing.T) {
	_, err := NewHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}

func TestTokenService_IssueVerify(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	tok, err := svc.Issue("c7a3e0f2-1111-4444-8888-000000000001")
	require.NoError(t, err)

	sub, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "c7a3e0f2-1111-4444-8888-000000000001", sub)
}

func TestTokenService_Expired(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Minute)
	require.NoError(t, err)

	issuedAt := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }
	tok, err := svc.Issue("user-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenService_Rejections(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenService("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue("user-1")
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not.a.jwt",
		"empty":        "",
		"wrong secret": foreign,
		"no subject":   noSubject,
		"no expiry":    noExpiry,
		"other alg":    hs512,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(tok)
			assert.ErrorIs(t, err, apperr.ErrInvalidToken)
		})
	}
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)
}
