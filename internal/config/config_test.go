package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "APP_ENV", "ACCESS_TOKEN_EXPIRES_MIN", "RESET_TOKEN_TTL_MIN", "BCRYPT_COST",
		"RATE_LIMIT", "ALLOWED_ORIGINS", "EMAIL_TIMEOUT_SEC", "FRONTEND_RESET_URL",
	} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 25*time.Second, cfg.EmailTimeout)
	assert.Equal(t, RateLimit{Requests: 20, Window: time.Minute}, cfg.RateLimit)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "http://localhost:3000/resetar-senha", cfg.FrontendResetURL)
}

func TestLoadConfig_InvalidTTL(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRES_MIN", "soon")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    RateLimit
		wantErr bool
	}{
		{in: "20/minute", want: RateLimit{Requests: 20, Window: time.Minute}},
		{in: "5/second", want: RateLimit{Requests: 5, Window: time.Second}},
		{in: " 100 / hour ", want: RateLimit{Requests: 100, Window: time.Hour}},
		{in: "20", wantErr: true},
		{in: "0/minute", wantErr: true},
		{in: "20/fortnight", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRateLimit(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("missing database url is fatal", func(t *testing.T) {
		_, err := (&Config{SecretKey: "s"}).Validate()
		assert.Error(t, err)
	})

	t.Run("empty secret is fatal in prod", func(t *testing.T) {
		_, err := (&Config{DatabaseURL: "postgres://x", Env: "prod"}).Validate()
		assert.Error(t, err)
	})

	t.Run("empty secret warns in dev", func(t *testing.T) {
		warnings, err := (&Config{DatabaseURL: "postgres://x", Env: "dev"}).Validate()
		require.NoError(t, err)
		assert.Contains(t, warnings, "SECRET_KEY is empty")
	})
}

func TestDebugResetLinkOnlyInDev(t *testing.T) {
	cfg := &Config{Env: "prod", Debug: Debug{ReturnResetLink: true}}
	assert.False(t, cfg.DebugResetLink())

	cfg.Env = "dev"
	assert.True(t, cfg.DebugResetLink())
}

func TestGetDSNSafe(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://app:hunter2@db:5432/infocripto?sslmode=require"}
	assert.NotContains(t, cfg.GetDSNSafe(), "hunter2")
	assert.Contains(t, cfg.GetDSNSafe(), "db:5432/infocripto")
}

func TestEnsureSSLMode(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"no query", "postgres://app:pw@db:5432/infocripto", "postgres://app:pw@db:5432/infocripto?sslmode=require"},
		{"existing query", "postgres://app:pw@db/infocripto?connect_timeout=5", "postgres://app:pw@db/infocripto?connect_timeout=5&sslmode=require"},
		{"explicit disable kept", "postgres://app:pw@localhost/infocripto?sslmode=disable", "postgres://app:pw@localhost/infocripto?sslmode=disable"},
		{"keyword form", "host=db dbname=infocripto", "host=db dbname=infocripto sslmode=require"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnsureSSLMode(tt.dsn))
		})
	}
}

func TestGetDSN_DefaultsSSLMode(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://app:pw@db:5432/infocripto"}
	assert.Equal(t, "postgres://app:pw@db:5432/infocripto?sslmode=require", cfg.GetDSN())
}

func TestLoadConfig_TrustProxyHeaders(t *testing.T) {
	t.Setenv("TRUST_PROXY_HEADERS", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.RateLimit.TrustForwardedFor)

	t.Setenv("TRUST_PROXY_HEADERS", "true")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.RateLimit.TrustForwardedFor)
}
