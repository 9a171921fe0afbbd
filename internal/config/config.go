package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string // dev|prod

	Log      string
	LogLevel string

	DatabaseURL string

	SecretKey      string
	AccessTokenTTL time.Duration
	BcryptCost     int

	ResetTokenTTL    time.Duration
	FrontendResetURL string

	AllowedOrigins []string

	RedisURL  string
	RateLimit RateLimit

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPTLS      bool
	SenderEmail  string
	EmailTimeout time.Duration
	EmailWorkers int

	NewsAPIKey   string
	NewsLanguage string

	MailerLiteAPIKey  string
	MailerLiteGroupID string

	CoinGeckoUsePro bool
	CoinGeckoAPIKey string

	Debug Debug

	MetricsEnabled bool

	warnings []string
}

// RateLimit is a fixed-window allowance, e.g. "20/minute".
type RateLimit struct {
	Requests int
	Window   time.Duration
	// TrustForwardedFor keys clients by the first X-Forwarded-For hop. Enable only behind a proxy that sets it.
	TrustForwardedFor bool
}

func (r RateLimit) String() string {
	return fmt.Sprintf("%d/%s", r.Requests, r.Window)
}

// Debug toggles for the forgot-password flow. Honoured only when Env is dev.
type Debug struct {
	ReturnResetLink bool
	SyncEmail       bool
}

// LoadConfig loads .env, then reads the process environment and applies defaults.
// It does not log, so the logger can depend on it.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	cfg := &Config{
		Port: def(os.Getenv("PORT"), "8000"),
		Env:  strings.ToLower(def(os.Getenv("APP_ENV"), "prod")),

		Log:      os.Getenv("LOG"),
		LogLevel: strings.ToLower(def(os.Getenv("LOGLEVEL"), "info")),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SecretKey:   os.Getenv("SECRET_KEY"),

		FrontendResetURL: def(os.Getenv("FRONTEND_RESET_URL"), "http://localhost:3000/resetar-senha"),
		AllowedOrigins:   splitList(def(os.Getenv("ALLOWED_ORIGINS"), "*")),

		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),

		SMTPHost:     def(os.Getenv("SMTP_HOST"), "smtp.gmail.com"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASS"),
		SMTPTLS:      parseBool(def(os.Getenv("SMTP_TLS"), "true")),
		SenderEmail:  def(os.Getenv("SENDER_EMAIL"), "no-reply@example.com"),

		NewsAPIKey:   strings.TrimSpace(os.Getenv("NEWSAPI_KEY")),
		NewsLanguage: def(os.Getenv("NEWS_LANGUAGE"), "pt"),

		MailerLiteAPIKey:  strings.TrimSpace(os.Getenv("MAILERLITE_API_KEY")),
		MailerLiteGroupID: strings.TrimSpace(os.Getenv("MAILERLITE_GROUP_ID")),

		CoinGeckoUsePro: strings.TrimSpace(os.Getenv("COINGECKO_USE_PRO")) == "1",
		CoinGeckoAPIKey: strings.TrimSpace(os.Getenv("COINGECKO_API_KEY")),

		Debug: Debug{
			ReturnResetLink: parseBool(os.Getenv("DEBUG_RETURN_RESET_LINK")),
			SyncEmail:       parseBool(os.Getenv("DEBUG_SYNC_EMAIL")),
		},

		MetricsEnabled: parseBool(def(os.Getenv("METRICS_ENABLED"), "true")),
	}

	var err error
	if cfg.AccessTokenTTL, err = minutes("ACCESS_TOKEN_EXPIRES_MIN", def(os.Getenv("ACCESS_TOKEN_EXPIRES_MIN"), "60")); err != nil {
		return nil, err
	}
	if cfg.ResetTokenTTL, err = minutes("RESET_TOKEN_TTL_MIN", def(os.Getenv("RESET_TOKEN_TTL_MIN"), "30")); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = positiveInt("BCRYPT_COST", def(os.Getenv("BCRYPT_COST"), "12")); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = positiveInt("SMTP_PORT", def(os.Getenv("SMTP_PORT"), "587")); err != nil {
		return nil, err
	}
	if cfg.EmailWorkers, err = positiveInt("EMAIL_WORKERS", def(os.Getenv("EMAIL_WORKERS"), "3")); err != nil {
		return nil, err
	}
	timeoutSec, err := positiveInt("EMAIL_TIMEOUT_SEC", def(os.Getenv("EMAIL_TIMEOUT_SEC"), "25"))
	if err != nil {
		return nil, err
	}
	cfg.EmailTimeout = time.Duration(timeoutSec) * time.Second

	rl, err := ParseRateLimit(def(os.Getenv("RATE_LIMIT"), "20/minute"))
	if err != nil {
		// an unreadable limit falls back to the default allowance
		cfg.warnings = append(cfg.warnings, err.Error()+", using 20/minute")
		rl = RateLimit{Requests: 20, Window: time.Minute}
	}
	rl.TrustForwardedFor = parseBool(os.Getenv("TRUST_PROXY_HEADERS"))
	cfg.RateLimit = rl

	return cfg, nil
}

// Validate returns warnings and a fatal error when the service cannot start.
func (c *Config) Validate() (warnings []string, err error) {
	warnings = append(warnings, c.warnings...)

	if c.DatabaseURL == "" {
		return warnings, fmt.Errorf("DATABASE_URL is not set")
	}

	if strings.TrimSpace(c.SecretKey) == "" {
		if !c.IsDev() {
			return warnings, fmt.Errorf("SECRET_KEY is empty")
		}
		warnings = append(warnings, "SECRET_KEY is empty")
	}

	if c.SMTPUser == "" || c.SMTPPassword == "" {
		warnings = append(warnings, "SMTP is not fully configured")
	}
	if c.NewsAPIKey == "" {
		warnings = append(warnings, "NEWSAPI_KEY is not set, /news returns an empty list")
	}
	if c.MailerLiteAPIKey == "" {
		warnings = append(warnings, "MAILERLITE_API_KEY is not set, newsletter subscribe is disabled")
	}
	if c.RedisURL == "" {
		warnings = append(warnings, "REDIS_URL is not set, rate limiting is disabled")
	}
	if (c.Debug.ReturnResetLink || c.Debug.SyncEmail) && !c.IsDev() {
		warnings = append(warnings, "DEBUG_* flags are ignored outside APP_ENV=dev")
	}

	return warnings, nil
}

func (c *Config) IsDev() bool { return c.Env == "dev" }

// DebugResetLink reports whether forgot-password may return the reset link.
func (c *Config) DebugResetLink() bool { return c.IsDev() && c.Debug.ReturnResetLink }

// GetDSN returns the full connection string with sslmode defaulted to require.
func (c *Config) GetDSN() string {
	return EnsureSSLMode(c.DatabaseURL)
}

// EnsureSSLMode appends sslmode=require unless dsn already names an sslmode.
func EnsureSSLMode(dsn string) string {
	if dsn == "" || strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if !strings.Contains(dsn, "://") {
		return dsn + " sslmode=require"
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&sslmode=require"
	}
	return dsn + "?sslmode=require"
}

// GetDSNSafe returns the connection string with the password masked, for logs.
func (c *Config) GetDSNSafe() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil || u.User == nil {
		return "postgres://***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// ParseRateLimit parses "<n>/<second|minute|hour>".
func ParseRateLimit(s string) (RateLimit, error) {
	count, unit, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return RateLimit{}, fmt.Errorf("invalid RATE_LIMIT %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n <= 0 {
		return RateLimit{}, fmt.Errorf("invalid RATE_LIMIT %q", s)
	}

	var window time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "second", "sec", "s":
		window = time.Second
	case "minute", "min", "m":
		window = time.Minute
	case "hour", "h":
		window = time.Hour
	default:
		return RateLimit{}, fmt.Errorf("invalid RATE_LIMIT unit %q", unit)
	}
	return RateLimit{Requests: n, Window: window}, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(v))
	return b
}

func positiveInt(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}

func minutes(name, v string) (time.Duration, error) {
	n, err := positiveInt(name, v)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Minute, nil
}
