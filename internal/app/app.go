package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"infocripto/internal/config"
	"infocripto/internal/db"
	"infocripto/internal/handlers"
	"infocripto/internal/logger"
	"infocripto/internal/middleware"
	"infocripto/internal/repository"
	"infocripto/internal/routes"
	"infocripto/internal/security"
	"infocripto/internal/services"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App owns the router and every resource that must be released on shutdown.
type App struct {
	Router *mux.Router

	pool      *pgxpool.Pool
	redis     *redis.Client
	emails    *services.EmailQueue
	scheduler *services.Scheduler
}

func InitApp(ctx context.Context, cfg *config.Config) (*App, error) {
	hasher, err := security.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := security.NewTokenService(cfg.SecretKey, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	pool, err := db.NewPostgresConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{pool: pool}

	if err := migrateUp(cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, err
	}

	a.redis, err = db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	favoriteRepo := repository.NewFavoriteRepository(pool)
	newsletterRepo := repository.NewNewsletterRepository(pool)

	authService, err := services.NewAuthService(userRepo, hasher, tokens)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.emails = services.NewEmailQueue(services.NewEmailService(cfg), 100, cfg.EmailTimeout)
	passwordService := services.NewPasswordService(userRepo, resetRepo, hasher, a.emails, cfg.FrontendResetURL, cfg.ResetTokenTTL)
	favoriteService := services.NewFavoriteService(favoriteRepo)
	coinGecko := services.NewCoinGeckoService(cfg.CoinGeckoUsePro, cfg.CoinGeckoAPIKey)
	newsService := services.NewNewsService(cfg.NewsAPIKey, cfg.NewsLanguage)
	newsletterService := services.NewNewsletterService(
		services.NewMailerLiteService(cfg.MailerLiteAPIKey, cfg.MailerLiteGroupID),
		newsletterRepo,
	)
	a.scheduler = services.NewScheduler(newsletterRepo)

	h := routes.Handlers{
		Auth: handlers.NewAuthHandler(authService),
		Password: handlers.NewPasswordHandler(passwordService, handlers.PasswordDebug{
			ReturnResetLink: cfg.DebugResetLink(),
			SyncEmail:       cfg.DebugResetLink() && cfg.Debug.SyncEmail,
		}),
		Users:      handlers.NewUserHandler(authService),
		Favorites:  handlers.NewFavoriteHandler(favoriteService),
		Prices:     handlers.NewPriceHandler(coinGecko),
		News:       handlers.NewNewsHandler(newsService),
		Newsletter: handlers.NewNewsletterHandler(newsletterService),
	}
	m := routes.Middleware{
		Auth:    middleware.Auth(tokens, authService),
		Limiter: middleware.NewRateLimiter(clientOrNil(a.redis), cfg.RateLimit),
	}
	if cfg.MetricsEnabled {
		m.Metrics = middleware.NewMetrics()
	}

	a.Router = mux.NewRouter()
	routes.InitRoutes(a.Router, h, m)

	a.emails.Start(cfg.EmailWorkers)
	if err := a.scheduler.Start(); err != nil {
		a.Close()
		return nil, err
	}

	logger.Log.Info("application initialised",
		zap.Bool("rate_limit", m.Limiter.Enabled()),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Bool("debug_reset_link", cfg.DebugResetLink()),
	)
	return a, nil
}

// Close stops background work and releases connections. Call after the HTTP server is drained.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.scheduler != nil {
		a.scheduler.Stop(ctx)
	}
	if a.emails != nil {
		a.emails.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Log.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *App) Handler() http.Handler { return a.Router }

func migrateUp(databaseURL string) error {
	m, err := db.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// clientOrNil keeps a nil *redis.Client from becoming a non-nil interface.
func clientOrNil(c *redis.Client) redis.UniversalClient {
	if c == nil {
		return nil
	}
	return c
}
