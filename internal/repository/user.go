package repository

import (
	"context"
	"errors"
	"strings"

	"infocripto/internal/apperr"
	"infocripto/internal/logger"
	"infocripto/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
	"go.uber.org/zap"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser assigns a new id when user.ID is empty.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = NormalizeEmail(user.Email)

	query := `
	INSERT INTO users (id, email, name, password_hash)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at`
	err := r.db.QueryRow(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash).Scan(&user.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.ErrEmailAlreadyRegistered
	}
	if err != nil {
		logger.WithCtx(ctx).Error("create user failed (repo)", zap.Error(err))
		return oops.Code("USER_CREATE_FAILED").With("user_id", user.ID).Wrap(err)
	}
	return nil
}

func (r *UserRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		NormalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_EMAIL_CHECK_FAILED").Wrap(err)
	}
	return exists, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, name, password_hash, created_at FROM users WHERE lower(email) = lower($1)`
	return r.scanOne(ctx, "USER_GET_BY_EMAIL_FAILED", query, NormalizeEmail(email))
}

// GetUserByID returns apperr.ErrNotFound for unknown or malformed ids.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.ErrNotFound
	}
	query := `SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`
	return r.scanOne(ctx, "USER_GET_BY_ID_FAILED", query, id)
}

func (r *UserRepository) scanOne(ctx context.Context, code, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code(code).Wrap(err)
	}
	return &u, nil
}

func (r *UserRepository) GetAllUsers(ctx context.Context) ([]models.UserListItem, error) {
	rows, err := r.db.Query(ctx, `SELECT name, email FROM users ORDER BY created_at`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	users := []models.UserListItem{}
	for rows.Next() {
		var u models.UserListItem
		if err := rows.Scan(&u.Name, &u.Email); err != nil {
			return nil, oops.Code("USER_LIST_FAILED").Wrap(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").Wrap(err)
	}
	return users, nil
}
