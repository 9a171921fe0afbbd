package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"infocripto/internal/apperr"
	"infocripto/internal/models"
	"infocripto/internal/security"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *security.Hasher {
	t.Helper()
	h, err := security.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*models.User{}}
}

func (m *memUserRepo) IsEmailTaken(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	if taken, _ := m.IsEmailTaken(ctx, user.Email); taken {
		return apperr.ErrEmailAlreadyRegistered
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uuid.NewString()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now().UTC()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memUserRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetAllUsers(context.Context) ([]models.UserListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.UserListItem, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, models.UserListItem{Name: u.Name, Email: u.Email})
	}
	return out, nil
}

func (m *memUserRepo) setPassword(id, hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].PasswordHash = &hash
}

// resetRow is one row of password_resets as the tests see it.
type resetRow struct {
	ID        int64
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// memResetRepo mirrors the consume rules of the SQL store.
type memResetRepo struct {
	mu     sync.Mutex
	users  *memUserRepo
	rows   []*resetRow
	nextID int64
}

func (m *memResetRepo) Create(_ context.Context, userID, tokenHash string, expiresAt, createdAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.rows = append(m.rows, &resetRow{
		ID:        m.nextID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	})
	return m.nextID, nil
}

func (m *memResetRepo) Consume(_ context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found *resetRow
	for _, r := range m.rows {
		if r.TokenHash != tokenHash || r.UsedAt != nil || !r.ExpiresAt.After(now) {
			continue
		}
		if found == nil || !r.CreatedAt.Before(found.CreatedAt) {
			found = r
		}
	}
	if found == nil {
		return "", apperr.ErrInvalidOrExpiredToken
	}
	for _, r := range m.rows {
		if r.UserID == found.UserID && r.UsedAt == nil {
			used := now
			r.UsedAt = &used
		}
	}
	m.users.setPassword(found.UserID, passwordHash)
	return found.UserID, nil
}

func (m *memResetRepo) all() []*resetRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*resetRow(nil), m.rows...)
}

type recordingDispatcher struct {
	mu        sync.Mutex
	queued    []EmailJob
	delivered []EmailJob
	full      bool
	failWith  error
}

func (d *recordingDispatcher) Enqueue(job EmailJob) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.full {
		return false
	}
	d.queued = append(d.queued, job)
	return true
}

func (d *recordingDispatcher) Deliver(_ context.Context, job EmailJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWith != nil {
		return d.failWith
	}
	d.delivered = append(d.delivered, job)
	return nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []EmailJob
	fails int
	block bool
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("smtp: 421 try again later")
	}
	f.sent = append(f.sent, EmailJob{To: to, Subject: subject, HTML: htmlBody})
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
