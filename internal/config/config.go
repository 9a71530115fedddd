package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// OAuthConfig holds the identity provider settings. Loaded once at startup
// and never mutated afterwards.
type OAuthConfig struct {
	IssuerURL             string
	ClientID              string
	RedirectURI           string
	Scopes                []string
	PostLogoutRedirectURI string
}

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	CORSOrigins    []string
	MigrationsDir  string
	FrontendURL    string
	DevMode        bool

	OAuth OAuthConfig

	SessionTTL    time.Duration
	SweepInterval time.Duration
}

func Load() (*Config, error) {
	origins := getEnv("CORS_ORIGINS", "http://localhost:5173")
	var corsList []string
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			corsList = append(corsList, trimmed)
		}
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	sweepInterval, err := time.ParseDuration(getEnv("SESSION_SWEEP_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_SWEEP_INTERVAL: %w", err)
	}

	var scopes []string
	for _, s := range strings.Fields(getEnv("OIDC_SCOPES", "openid profile email")) {
		scopes = append(scopes, s)
	}

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		HTTPListenAddr: getEnv("HTTP_LISTEN_ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    corsList,
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
		FrontendURL:    strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		DevMode:        getEnv("DEV_MODE", "") == "true",
		OAuth: OAuthConfig{
			IssuerURL:             strings.TrimRight(getEnv("OIDC_ISSUER", ""), "/"),
			ClientID:              getEnv("OIDC_CLIENT_ID", ""),
			RedirectURI:           getEnv("OIDC_REDIRECT_URI", ""),
			Scopes:                scopes,
			PostLogoutRedirectURI: getEnv("OIDC_POST_LOGOUT_REDIRECT_URI", "http://localhost:5173/"),
		},
		SessionTTL:    sessionTTL,
		SweepInterval: sweepInterval,
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" && !c.DevMode {
		missing = append(missing, "DATABASE_URL")
	}
	if c.OAuth.IssuerURL == "" {
		missing = append(missing, "OIDC_ISSUER")
	}
	if c.OAuth.ClientID == "" {
		missing = append(missing, "OIDC_CLIENT_ID")
	}
	if c.OAuth.RedirectURI == "" {
		missing = append(missing, "OIDC_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
