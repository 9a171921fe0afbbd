package repository

import (
	"context"
	"errors"
	"time"

	"infocripto/internal/apperr"
	"infocripto/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
	"go.uber.org/zap"
)

type PasswordResetRepository struct {
	db DBTX
}

func NewPasswordResetRepository(db DBTX) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

const (
	createResetSQL = `
	INSERT INTO password_resets (user_id, token_hash, expires_at, created_at)
	VALUES ($1, $2, $3, $4)
	RETURNING id`

	// most recently issued match wins
	findValidResetSQL = `
	SELECT id, user_id FROM password_resets
	WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
	ORDER BY created_at DESC, id DESC
	LIMIT 1`

	lockUserSQL = `SELECT id FROM users WHERE id = $1 FOR UPDATE`

	markResetUsedSQL = `
	UPDATE password_resets SET used_at = $1
	WHERE id = $2 AND used_at IS NULL AND expires_at > $1`

	invalidateSiblingsSQL = `
	UPDATE password_resets SET used_at = $1
	WHERE user_id = $2 AND used_at IS NULL`

	setPasswordSQL = `UPDATE users SET password_hash = $1 WHERE id = $2`
)

func (r *PasswordResetRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt, createdAt time.Time) (int64, error) {
	var id int64
	if err := r.db.QueryRow(ctx, createResetSQL, userID, tokenHash, expiresAt, createdAt).Scan(&id); err != nil {
		logger.WithCtx(ctx).Error("create reset token failed (repo)", zap.Error(err), zap.String("user_id", userID))
		return 0, oops.Code("RESET_CREATE_FAILED").With("user_id", userID).Wrap(err)
	}
	return id, nil
}

// Consume redeems the reset request matching tokenHash and sets the owner's password.
// The matched row and every other pending row of the same user are marked used at now,
// in the same transaction as the password update. The user row lock serialises
// concurrent consumes for one user; the loser sees its row already used.
func (r *PasswordResetRepository) Consume(ctx context.Context, tokenHash, passwordHash string, now time.Time) (userID string, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", oops.Code("RESET_TX_BEGIN_FAILED").Wrap(err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.WithCtx(ctx).Warn("reset consume rollback failed", zap.Error(rbErr))
			}
		}
	}()

	var resetID int64
	err = tx.QueryRow(ctx, findValidResetSQL, tokenHash, now).Scan(&resetID, &userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return "", oops.Code("RESET_LOOKUP_FAILED").Wrap(err)
	}

	var locked string
	err = tx.QueryRow(ctx, lockUserSQL, userID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return "", oops.Code("RESET_LOCK_USER_FAILED").With("user_id", userID).Wrap(err)
	}

	tag, err := tx.Exec(ctx, markResetUsedSQL, now, resetID)
	if err != nil {
		return "", oops.Code("RESET_MARK_USED_FAILED").With("reset_id", resetID).Wrap(err)
	}
	if tag.RowsAffected() != 1 {
		// a concurrent consume for this user committed first
		return "", apperr.ErrInvalidOrExpiredToken
	}

	if _, err = tx.Exec(ctx, invalidateSiblingsSQL, now, userID); err != nil {
		return "", oops.Code("RESET_INVALIDATE_FAILED").With("user_id", userID).Wrap(err)
	}

	tag, err = tx.Exec(ctx, setPasswordSQL, passwordHash, userID)
	if err != nil {
		return "", oops.Code("RESET_SET_PASSWORD_FAILED").With("user_id", userID).Wrap(err)
	}
	if tag.RowsAffected() != 1 {
		return "", apperr.ErrInvalidOrExpiredToken
	}

	if err = tx.Commit(ctx); err != nil {
		return "", oops.Code("RESET_TX_COMMIT_FAILED").With("user_id", userID).Wrap(err)
	}
	return userID, nil
}
