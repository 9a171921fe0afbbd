package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"infocripto/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resetFixture struct {
	auth   *AuthService
	svc    *PasswordService
	users  *memUserRepo
	resets *memResetRepo
	mail   *recordingDispatcher
	clock  time.Time
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	auth, users, _ := newTestAuth(t)
	f := &resetFixture{
		auth:   auth,
		users:  users,
		resets: &memResetRepo{users: users},
		mail:   &recordingDispatcher{},
		clock:  time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewPasswordService(users, f.resets, newTestHasher(t), f.mail, "http://localhost:3000/resetar-senha", 0)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	tok := u.Query().Get("token")
	require.NotEmpty(t, tok)
	return tok
}

func TestRequestReset_UnknownEmailIsSilent(t *testing.T) {
	f := newResetFixture(t)

	out := f.svc.RequestReset(context.Background(), "ghost@example.com", DeliverQueued)

	assert.False(t, out.Issued)
	assert.Empty(t, f.resets.all())
	assert.Empty(t, f.mail.queued)
}

func TestRequestReset_StoresOnlyHash(t *testing.T) {
	f := newResetFixture(t)
	name := "Maria"
	_, err := f.auth.Register(context.Background(), "maria@example.com", "old-password", &name)
	require.NoError(t, err)

	out := f.svc.RequestReset(context.Background(), "maria@example.com", DeliverQueued)
	require.True(t, out.Issued)
	assert.Equal(t, "queued", out.EmailStatus)

	raw := tokenFromLink(t, out.Link)
	assert.Len(t, raw, 43)

	rows := f.resets.all()
	require.Len(t, rows, 1)
	assert.Equal(t, HashResetToken(raw), rows[0].TokenHash)
	assert.NotEqual(t, raw, rows[0].TokenHash)
	assert.Equal(t, f.clock.Add(30*time.Minute), rows[0].ExpiresAt)

	require.Len(t, f.mail.queued, 1)
	assert.Equal(t, "maria@example.com", f.mail.queued[0].To)
	assert.Contains(t, f.mail.queued[0].HTML, "Maria")
}

func TestRequestReset_QueueFullStillIssues(t *testing.T) {
	f := newResetFixture(t)
	_, err := f.auth.Register(context.Background(), "full@example.com", "old-password", nil)
	require.NoError(t, err)
	f.mail.full = true

	out := f.svc.RequestReset(context.Background(), "full@example.com", DeliverQueued)

	assert.True(t, out.Issued)
	assert.Equal(t, "dropped", out.EmailStatus)
	assert.Len(t, f.resets.all(), 1)
}

func TestRequestReset_SyncDeliveryReportsError(t *testing.T) {
	f := newResetFixture(t)
	_, err := f.auth.Register(context.Background(), "sync@example.com", "old-password", nil)
	require.NoError(t, err)
	f.mail.failWith = errors.New("dial tcp: connection refused")

	out := f.svc.RequestReset(context.Background(), "sync@example.com", DeliverSync)

	assert.True(t, out.Issued)
	assert.Equal(t, "error", out.EmailStatus)
	assert.Contains(t, out.EmailError, "connection refused")
}

func TestResetPassword_Lifecycle(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "ciclo@example.com", "old-password", nil)
	require.NoError(t, err)

	out := f.svc.RequestReset(ctx, "ciclo@example.com", DeliverQueued)
	raw := tokenFromLink(t, out.Link)

	require.NoError(t, f.svc.ResetPassword(ctx, raw, "new-password"))

	_, err = f.auth.Login(ctx, "ciclo@example.com", "new-password")
	assert.NoError(t, err)
	_, err = f.auth.Login(ctx, "ciclo@example.com", "old-password")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	err = f.svc.ResetPassword(ctx, raw, "another-password")
	assert.ErrorIs(t, err, apperr.ErrInvalidOrExpiredToken)
}

func TestResetPassword_Expired(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "exp@example.com", "old-password", nil)
	require.NoError(t, err)

	raw := tokenFromLink(t, f.svc.RequestReset(ctx, "exp@example.com", DeliverQueued).Link)
	f.clock = f.clock.Add(31 * time.Minute)

	err = f.svc.ResetPassword(ctx, raw, "new-password")
	assert.ErrorIs(t, err, apperr.ErrInvalidOrExpiredToken)
}

func TestResetPassword_UsingOneTokenInvalidatesSiblings(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "irmaos@example.com", "old-password", nil)
	require.NoError(t, err)

	first := tokenFromLink(t, f.svc.RequestReset(ctx, "irmaos@example.com", DeliverQueued).Link)
	f.clock = f.clock.Add(time.Minute)
	second := tokenFromLink(t, f.svc.RequestReset(ctx, "irmaos@example.com", DeliverQueued).Link)
	require.NotEqual(t, first, second)

	require.NoError(t, f.svc.ResetPassword(ctx, second, "new-password"))

	err = f.svc.ResetPassword(ctx, first, "other-password")
	assert.ErrorIs(t, err, apperr.ErrInvalidOrExpiredToken)
	for _, r := range f.resets.all() {
		assert.NotNil(t, r.UsedAt)
	}
}

func TestResetPassword_UnknownToken(t *testing.T) {
	f := newResetFixture(t)

	err := f.svc.ResetPassword(context.Background(), "not-a-real-token", "new-password")
	assert.ErrorIs(t, err, apperr.ErrInvalidOrExpiredToken)
}

func TestResetLink_KeepsExistingQuery(t *testing.T) {
	f := newResetFixture(t)
	f.svc.resetURL = "https://app.example.com/reset?lang=pt"

	link, err := f.svc.resetLink("abc")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "pt", u.Query().Get("lang"))
	assert.Equal(t, "abc", u.Query().Get("token"))
}

func TestHashResetToken(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashResetToken("abc"))
}
