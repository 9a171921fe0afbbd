package services

import (
	"context"
	"errors"
	"strings"

	"infocripto/internal/apperr"
	"infocripto/internal/logger"
	"infocripto/internal/models"
	"infocripto/internal/utils/helpers"

	"go.uber.org/zap"
)

type UserRepo interface {
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.UserListItem, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Issue(subject string) (string, error)
}

type AuthService struct {
	repo   UserRepo
	hasher PasswordHasher
	tokens TokenIssuer

	// compared against when the email is unknown so both paths cost one bcrypt check
	dummyHash string
}

func NewAuthService(repo UserRepo, hasher PasswordHasher, tokens TokenIssuer) (*AuthService, error) {
	dummy, err := hasher.Hash("infocripto-dummy-password")
	if err != nil {
		return nil, err
	}
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, dummyHash: dummy}, nil
}

func (s *AuthService) Register(ctx context.Context, email, password string, name *string) (*models.User, error) {
	log := logger.WithCtx(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	taken, err := s.repo.IsEmailTaken(ctx, email)
	if err != nil {
		log.Error("email uniqueness check failed", zap.Error(err))
		return nil, err
	}
	if taken {
		log.Info("register rejected: email taken", zap.String("email_masked", helpers.MaskEmail(email)))
		return nil, apperr.ErrEmailAlreadyRegistered
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		log.Error("password hashing failed", zap.Error(err))
		return nil, err
	}

	user := &models.User{Email: email, Name: name, PasswordHash: &hashed}
	// the unique index still catches a concurrent registration of the same email
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, apperr.ErrEmailAlreadyRegistered) {
			log.Error("create user failed", zap.Error(err))
		}
		return nil, err
	}

	log.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login returns a session token. Unknown email, missing hash and wrong password
// all yield apperr.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	log := logger.WithCtx(ctx)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		log.Error("login lookup failed", zap.Error(err))
		return "", err
	}

	if user == nil || user.PasswordHash == nil {
		s.hasher.Verify(password, s.dummyHash)
		log.Info("login rejected", zap.String("email_masked", helpers.MaskEmail(email)), zap.String("cause", "no such user or no password"))
		return "", apperr.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, *user.PasswordHash) {
		log.Info("login rejected", zap.String("user_id", user.ID), zap.String("cause", "password mismatch"))
		return "", apperr.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		log.Error("token issue failed", zap.String("user_id", user.ID), zap.Error(err))
		return "", err
	}
	log.Info("user logged in", zap.String("user_id", user.ID))
	return token, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.UserListItem, error) {
	return s.repo.GetAllUsers(ctx)
}
