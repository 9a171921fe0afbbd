package middleware

import (
	"context"

	"infocripto/internal/models"
	"infocripto/internal/reqctx"
)

type ctxKey string

const ContextUser ctxKey = "user"

// WithUser stores the authenticated user and its id for logging.
func WithUser(ctx context.Context, u *models.User) context.Context {
	ctx = context.WithValue(ctx, ContextUser, u)
	return reqctx.WithUserID(ctx, u.ID)
}

// UserFromContext returns the user resolved by the Auth gate.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ContextUser).(*models.User)
	return u, ok && u != nil
}
