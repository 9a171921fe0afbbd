package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"infocripto/internal/apperr"
	"infocripto/internal/logger"
	"infocripto/internal/models"
	"infocripto/internal/utils/helpers"

	"go.uber.org/zap"
)

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Auth rejects requests without a valid bearer token for an existing user.
// Every rejection is the same 401; the cause is only logged.
func Auth(tokens TokenVerifier, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			log := logger.WithCtx(r.Context())

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Info("auth: missing bearer token")
				unauthorized(w)
				return
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				log.Info("auth: token rejected", zap.Error(err))
				unauthorized(w)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					log.Info("auth: token subject does not exist", zap.String("user_id", userID))
					unauthorized(w)
					return
				}
				log.Error("auth: user lookup failed", zap.Error(err))
				helpers.Error(w, http.StatusInternalServerError, apperr.Message(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	helpers.Error(w, http.StatusUnauthorized, apperr.Message(apperr.ErrUnauthenticated))
}
