package routes

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"infocripto/internal/apperr"
	"infocripto/internal/models"
	"infocripto/internal/services"

	"github.com/google/uuid"
)

// resetRow is one row of password_resets as the tests see it.
type resetRow struct {
	ID        int64
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// memStore is an in-memory stand-in for the Postgres repositories.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*models.User
	resets    []*resetRow
	favorites []models.Favorite
	newsSubs  map[string]bool
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}, newsSubs: map[string]bool{}}
}

func norm(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *memStore) IsEmailTaken(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == norm(email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == norm(u.Email) {
			return apperr.ErrEmailAlreadyRegistered
		}
	}
	u.ID = uuid.NewString()
	u.Email = norm(u.Email)
	u.CreatedAt = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == norm(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *memStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetAllUsers(context.Context) ([]models.UserListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.UserListItem{}
	for _, u := range s.users {
		out = append(out, models.UserListItem{Name: u.Name, Email: u.Email})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *memStore) Create(_ context.Context, userID, tokenHash string, expiresAt, createdAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(len(s.resets) + 1)
	s.resets = append(s.resets, &resetRow{
		ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: createdAt,
	})
	return id, nil
}

func (s *memStore) Consume(_ context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *resetRow
	for i := len(s.resets) - 1; i >= 0; i-- {
		r := s.resets[i]
		if r.TokenHash == tokenHash && r.UsedAt == nil && r.ExpiresAt.After(now) {
			found = r
			break
		}
	}
	if found == nil {
		return "", apperr.ErrInvalidOrExpiredToken
	}
	for _, r := range s.resets {
		if r.UserID == found.UserID && r.UsedAt == nil {
			used := now
			r.UsedAt = &used
		}
	}
	s.users[found.UserID].PasswordHash = &passwordHash
	return found.UserID, nil
}

func (s *memStore) resetRows() []resetRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]resetRow, 0, len(s.resets))
	for _, r := range s.resets {
		out = append(out, *r)
	}
	return out
}

type favoriteStore struct{ *memStore }

func (s favoriteStore) ListByUser(_ context.Context, userID string) ([]models.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Favorite{}
	for i := len(s.favorites) - 1; i >= 0; i-- {
		if s.favorites[i].UserID == userID {
			out = append(out, s.favorites[i])
		}
	}
	return out, nil
}

func (s favoriteStore) Add(_ context.Context, userID, coinID string) (*models.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favorites {
		if f.UserID == userID && f.CoinID == coinID {
			return nil, apperr.ErrConflict
		}
	}
	f := models.Favorite{ID: uuid.NewString(), UserID: userID, CoinID: coinID, AddedAt: time.Now().UTC()}
	s.favorites = append(s.favorites, f)
	return &f, nil
}

func (s favoriteStore) Remove(_ context.Context, userID, coinID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.favorites {
		if f.UserID == userID && f.CoinID == coinID {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (s *memStore) Record(_ context.Context, sub *models.NewsletterSubscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.newsSubs[norm(sub.Email)] {
		return false, nil
	}
	s.newsSubs[norm(sub.Email)] = true
	return true, nil
}

func (s *memStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.newsSubs)), nil
}

type outbox struct {
	mu   sync.Mutex
	jobs []services.EmailJob
}

func (o *outbox) Enqueue(job services.EmailJob) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jobs = append(o.jobs, job)
	return true
}

func (o *outbox) Deliver(_ context.Context, job services.EmailJob) error {
	o.Enqueue(job)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.jobs)
}
