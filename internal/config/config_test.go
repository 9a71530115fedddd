package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "HTTP_LISTEN_ADDR", "LOG_LEVEL", "CORS_ORIGINS",
		"MIGRATIONS_DIR", "FRONTEND_URL", "DEV_MODE",
		"OIDC_ISSUER", "OIDC_CLIENT_ID", "OIDC_REDIRECT_URI", "OIDC_SCOPES",
		"OIDC_POST_LOGOUT_REDIRECT_URI", "SESSION_TTL", "SESSION_SWEEP_INTERVAL",
	} {
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	assert.Equal(t, []string{"openid", "profile", "email"}, cfg.OAuth.Scopes)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.False(t, cfg.DevMode)
}

func TestLoad_AllEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ocra")
	t.Setenv("HTTP_LISTEN_ADDR", ":7071")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("FRONTEND_URL", "https://app.example.com/")
	t.Setenv("OIDC_ISSUER", "https://idp.example.com/")
	t.Setenv("OIDC_CLIENT_ID", "ocra-client")
	t.Setenv("OIDC_REDIRECT_URI", "https://api.example.com/auth/callback")
	t.Setenv("OIDC_SCOPES", "openid email")
	t.Setenv("SESSION_TTL", "8h")
	t.Setenv("SESSION_SWEEP_INTERVAL", "1m")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/ocra", cfg.DatabaseURL)
	assert.Equal(t, ":7071", cfg.HTTPListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "https://app.example.com", cfg.FrontendURL, "trailing slash trimmed")
	assert.Equal(t, "https://idp.example.com", cfg.OAuth.IssuerURL, "trailing slash trimmed")
	assert.Equal(t, []string{"openid", "email"}, cfg.OAuth.Scopes)
	assert.Equal(t, 8*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.DevMode)
}

func TestLoad_InvalidSessionTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL")
}

func TestValidate_MissingFields(t *testing.T) {
	cfg := &Config{SessionTTL: time.Hour}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "OIDC_ISSUER")
	assert.Contains(t, err.Error(), "OIDC_CLIENT_ID")
	assert.Contains(t, err.Error(), "OIDC_REDIRECT_URI")
}

func TestValidate_DevModeSkipsDatabase(t *testing.T) {
	cfg := &Config{
		DevMode:    true,
		SessionTTL: time.Hour,
		OAuth: OAuthConfig{
			IssuerURL:   "https://idp.example.com",
			ClientID:    "ocra-client",
			RedirectURI: "https://api.example.com/auth/callback",
		},
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_NonPositiveTTL(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost/ocra",
		OAuth: OAuthConfig{
			IssuerURL:   "https://idp.example.com",
			ClientID:    "ocra-client",
			RedirectURI: "https://api.example.com/auth/callback",
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL")
}
