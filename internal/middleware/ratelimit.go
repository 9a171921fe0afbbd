package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"infocripto/internal/config"
	"infocripto/internal/logger"
	"infocripto/internal/utils/helpers"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter is a per-client fixed-window limiter backed by Redis.
// A nil client disables it. Redis errors let the request through.
type RateLimiter struct {
	client redis.UniversalClient
	limit  config.RateLimit
	prefix string
	now    func() time.Time
}

func NewRateLimiter(client redis.UniversalClient, limit config.RateLimit) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		prefix: "rl",
		now:    time.Now,
	}
}

func (l *RateLimiter) Enabled() bool {
	return l != nil && l.client != nil && l.limit.Requests > 0 && l.limit.Window > 0
}

// Limit counts requests per client IP within scope.
func (l *RateLimiter) Limit(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !l.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			allowed, retryAfter, err := l.allow(r.Context(), scope, clientIP(r, l.limit.TrustForwardedFor))
			if err != nil {
				logger.WithCtx(r.Context()).Warn("rate limiter unavailable, allowing request", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second)/time.Second)))
				helpers.Error(w, http.StatusTooManyRequests, "rate limit exceeded: "+l.limit.String())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *RateLimiter) allow(ctx context.Context, scope, client string) (bool, time.Duration, error) {
	now := l.now()
	windowMS := l.limit.Window.Milliseconds()
	slot := now.UnixMilli() / windowMS
	key := fmt.Sprintf("%s:%s:%s:%d", l.prefix, scope, client, slot)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.PExpire(ctx, key, l.limit.Window)
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	if incr.Val() > int64(l.limit.Requests) {
		reset := time.UnixMilli((slot + 1) * windowMS)
		retry := reset.Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return false, retry, nil
	}
	return true, 0, nil
}

func clientIP(r *http.Request, trustForwarded bool) string {
	if xff := r.Header.Get("X-Forwarded-For"); trustForwarded && xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
