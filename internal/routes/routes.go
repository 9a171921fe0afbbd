package routes

import (
	"net/http"

	_ "infocripto/docs"
	"infocripto/internal/handlers"
	"infocripto/internal/middleware"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Password   *handlers.PasswordHandler
	Users      *handlers.UserHandler
	Favorites  *handlers.FavoriteHandler
	Prices     *handlers.PriceHandler
	News       *handlers.NewsHandler
	Newsletter *handlers.NewsletterHandler
}

type Middleware struct {
	// Auth is the bearer token gate for user routes.
	Auth    func(http.Handler) http.Handler
	Limiter *middleware.RateLimiter
	// Metrics may be nil when METRICS_ENABLED is false.
	Metrics *middleware.Metrics
}

func InitRoutes(router *mux.Router, h Handlers, m Middleware) {
	router.Use(middleware.RequestID, middleware.Logging, middleware.Recoverer)
	if m.Metrics != nil {
		router.Use(m.Metrics.Middleware)
		router.Handle("/metrics", m.Metrics.Handler()).Methods(http.MethodGet)
	}

	router.HandleFunc("/", handlers.Root).Methods(http.MethodGet)
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler).Methods(http.MethodGet)

	// --- Public ---
	auth := router.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	auth.HandleFunc("/forgot-password", h.Password.Forgot).Methods(http.MethodPost)
	auth.HandleFunc("/reset-password", h.Password.Reset).Methods(http.MethodPost)

	prices := router.PathPrefix("/api/prices").Subrouter()
	prices.HandleFunc("/markets", h.Prices.Markets).Methods(http.MethodGet)
	prices.HandleFunc("/coins/search", h.Prices.Search).Methods(http.MethodGet)
	prices.HandleFunc("/coins/{coin_id}", h.Prices.Coin).Methods(http.MethodGet)

	router.HandleFunc("/api/newsletter/subscribe", h.Newsletter.Subscribe).Methods(http.MethodPost)

	news := router.PathPrefix("/news").Subrouter()
	news.Use(m.Limiter.Limit("news"))
	news.HandleFunc("", h.News.List).Methods(http.MethodGet)

	// --- Bearer token required ---
	users := router.PathPrefix("/users").Subrouter()
	users.Use(m.Auth)
	users.HandleFunc("", h.Users.List).Methods(http.MethodGet)
	users.HandleFunc("/me", h.Users.Me).Methods(http.MethodGet)

	favorites := router.PathPrefix("/favorites").Subrouter()
	favorites.Use(m.Limiter.Limit("favorites"), m.Auth)
	favorites.HandleFunc("", h.Favorites.List).Methods(http.MethodGet)
	favorites.HandleFunc("", h.Favorites.Add).Methods(http.MethodPost)
	favorites.HandleFunc("/{coin_id}", h.Favorites.Remove).Methods(http.MethodDelete)
}
