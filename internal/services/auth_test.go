package services

import (
	"context"
	"strings"
	"testing"

	"infocripto/internal/apperr"
	"infocripto/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) (*AuthService, *memUserRepo, *security.TokenService) {
	t.Helper()
	repo := newMemUserRepo()
	tokens, err := security.NewTokenService("test-secret", 0)
	require.NoError(t, err)
	svc, err := NewAuthService(repo, newTestHasher(t), tokens)
	require.NoError(t, err)
	return svc, repo, tokens
}

func TestRegister_StoresHashNotPassword(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	name := "Ana"

	user, err := svc.Register(context.Background(), "  Ana@Example.com ", "s3cret-pass", &name)
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ana@example.com", user.Email)
	stored, err := repo.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "s3cret-pass", *stored.PasswordHash)
	assert.True(t, strings.HasPrefix(*stored.PasswordHash, "$2"))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dup@example.com", "password1", nil)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "DUP@example.com", "password2", nil)
	assert.ErrorIs(t, err, apperr.ErrEmailAlreadyRegistered)
}

func TestLogin(t *testing.T) {
	svc, repo, tokens := newTestAuth(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, "joao@example.com", "correct-horse", nil)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		token, err := svc.Login(ctx, "joao@example.com", "correct-horse")
		require.NoError(t, err)
		sub, err := tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, sub)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "joao@example.com", "wrong")
		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "correct-horse")
		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	})

	t.Run("user without password", func(t *testing.T) {
		repo.mu.Lock()
		repo.users[user.ID].PasswordHash = nil
		repo.mu.Unlock()

		_, err := svc.Login(ctx, "joao@example.com", "correct-horse")
		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	})
}

func TestLogin_LongPasswordTruncatedSymmetrically(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()
	long := strings.Repeat("x", 72)

	_, err := svc.Register(ctx, "long@example.com", long+"-suffix-a", nil)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "long@example.com", long+"-suffix-b")
	assert.NoError(t, err)
}

func TestListUsers(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "a@example.com", "password1", nil)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "b@example.com", "password1", nil)
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
