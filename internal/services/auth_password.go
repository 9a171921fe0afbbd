package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"infocripto/internal/apperr"
	"infocripto/internal/logger"
	"infocripto/internal/models"
	"infocripto/internal/utils/helpers"

	"go.uber.org/zap"
)

const (
	DefaultResetTTL = 30 * time.Minute

	resetTokenBytes   = 32
	resetEmailSubject = "Redefinição de senha"
)

type PasswordResetRepo interface {
	Create(ctx context.Context, userID, tokenHash string, expiresAt, createdAt time.Time) (int64, error)
	Consume(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error)
}

type resetUserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// EmailDispatcher is satisfied by *EmailQueue.
type EmailDispatcher interface {
	Enqueue(job EmailJob) bool
	Deliver(ctx context.Context, job EmailJob) error
}

type DeliveryMode int

const (
	DeliverQueued DeliveryMode = iota
	// DeliverSync sends inline within the queue timeout. Debug only.
	DeliverSync
)

// ResetOutcome describes what RequestReset did. Handlers must not reveal it
// to clients outside debug mode.
type ResetOutcome struct {
	Issued      bool
	Link        string
	EmailStatus string
	EmailError  string
}

type PasswordService struct {
	users    resetUserLookup
	resets   PasswordResetRepo
	hasher   PasswordHasher
	mailer   EmailDispatcher
	resetURL string
	ttl      time.Duration
	now      func() time.Time
}

func NewPasswordService(users resetUserLookup, resets PasswordResetRepo, hasher PasswordHasher, mailer EmailDispatcher, resetURL string, ttl time.Duration) *PasswordService {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &PasswordService{
		users:    users,
		resets:   resets,
		hasher:   hasher,
		mailer:   mailer,
		resetURL: resetURL,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RequestReset issues a one-time token for email and sends the link.
// Unknown emails and internal failures are only logged.
func (s *PasswordService) RequestReset(ctx context.Context, email string, mode DeliveryMode) ResetOutcome {
	log := logger.WithCtx(ctx).With(zap.String("email_masked", helpers.MaskEmail(email)))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Info("password reset requested for unknown email")
		} else {
			log.Error("password reset user lookup failed", zap.Error(err))
		}
		return ResetOutcome{}
	}

	raw, tokenHash, err := newResetToken()
	if err != nil {
		log.Error("reset token generation failed", zap.Error(err))
		return ResetOutcome{}
	}

	now := s.now()
	expires := now.Add(s.ttl)
	if _, err := s.resets.Create(ctx, user.ID, tokenHash, expires, now); err != nil {
		log.Error("reset token store failed", zap.String("user_id", user.ID), zap.Error(err))
		return ResetOutcome{}
	}

	link, err := s.resetLink(raw)
	if err != nil {
		log.Error("reset link build failed", zap.Error(err))
		return ResetOutcome{}
	}

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	job := EmailJob{
		To:      user.Email,
		Subject: resetEmailSubject,
		HTML:    helpers.BuildPasswordResetHTML(name, link, int(s.ttl/time.Minute)),
	}

	out := ResetOutcome{Issued: true, Link: link}
	switch mode {
	case DeliverSync:
		if err := s.mailer.Deliver(ctx, job); err != nil {
			log.Error("reset email delivery failed", zap.String("user_id", user.ID), zap.Error(err))
			out.EmailStatus, out.EmailError = "error", err.Error()
		} else {
			out.EmailStatus = "sent"
		}
	default:
		if s.mailer.Enqueue(job) {
			out.EmailStatus = "queued"
		} else {
			out.EmailStatus = "dropped"
		}
	}

	log.Info("password reset issued",
		zap.String("user_id", user.ID),
		zap.Time("expires_at", expires),
		zap.String("email_status", out.EmailStatus),
	)
	return out
}

// ResetPassword redeems rawToken and sets newPassword on its owner.
// Unknown, expired and already used tokens all yield apperr.ErrInvalidOrExpiredToken.
func (s *PasswordService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	log := logger.WithCtx(ctx)

	pwHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		log.Error("password hashing failed", zap.Error(err))
		return err
	}

	userID, err := s.resets.Consume(ctx, HashResetToken(rawToken), pwHash, s.now())
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidOrExpiredToken) {
			log.Warn("password reset rejected: token invalid, expired or used")
		} else {
			log.Error("password reset failed", zap.Error(err))
		}
		return err
	}

	log.Info("password reset completed", zap.String("user_id", userID))
	return nil
}

func (s *PasswordService) resetLink(raw string) (string, error) {
	u, err := url.Parse(s.resetURL)
	if err != nil {
		return "", fmt.Errorf("parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", raw)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HashResetToken is the stored form of a raw reset token: SHA-256, hex encoded.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newResetToken() (raw, hash string, err error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(b)
	return raw, HashResetToken(raw), nil
}
