package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"horse.fit/anubad/internal/translation"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"8"`

	DefaultAdminUser     string `envconfig:"DEFAULT_ADMIN_USER" default:"admin"`
	DefaultAdminPassword string `envconfig:"DEFAULT_ADMIN_PASSWORD" default:""`
	SessionTTLHours      int    `envconfig:"SESSION_TTL_HOURS" default:"168"`
	SessionCookieName    string `envconfig:"SESSION_COOKIE_NAME" default:"anubad_session"`
	SessionCookieSecure  bool   `envconfig:"SESSION_COOKIE_SECURE" default:"false"`
	CORSAllowedOrigins   string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`

	// Empty provider URLs resolve to the selected kind's public endpoint.
	PrimaryProvider        string        `envconfig:"PRIMARY_PROVIDER" default:"mymemory"`
	PrimaryProviderURL     string        `envconfig:"PRIMARY_PROVIDER_URL" default:""`
	PrimaryProviderAPIKey  string        `envconfig:"PRIMARY_PROVIDER_API_KEY" default:""`
	FallbackProvider       string        `envconfig:"FALLBACK_PROVIDER" default:"libretranslate"`
	FallbackProviderURL    string        `envconfig:"FALLBACK_PROVIDER_URL" default:""`
	FallbackProviderAPIKey string        `envconfig:"FALLBACK_PROVIDER_API_KEY" default:""`
	TranslationTimeoutMS   int           `envconfig:"TRANSLATION_TIMEOUT_MS" default:"10000"`
	TranslationModel       string        `envconfig:"TRANSLATION_MODEL" default:"tencent/HY-MT1.5-7B"`
	MyMemoryEmail          string        `envconfig:"MYMEMORY_EMAIL" default:""`
	BreakerFailures        uint32        `envconfig:"PROVIDER_BREAKER_FAILURES" default:"5"`
	BreakerCooldown        time.Duration `envconfig:"PROVIDER_BREAKER_COOLDOWN" default:"30s"`
	HistoryLimit           int           `envconfig:"HISTORY_LIMIT" default:"50"`

	OAuthProviderName string `envconfig:"OAUTH_PROVIDER_NAME" default:"oidc"`
	OAuthClientID     string `envconfig:"OAUTH_CLIENT_ID" default:""`
	OAuthClientSecret string `envconfig:"OAUTH_CLIENT_SECRET" default:""`
	OAuthAuthURL      string `envconfig:"OAUTH_AUTH_URL" default:""`
	OAuthTokenURL     string `envconfig:"OAUTH_TOKEN_URL" default:""`
	OAuthUserInfoURL  string `envconfig:"OAUTH_USERINFO_URL" default:""`
	OAuthRedirectURL  string `envconfig:"OAUTH_REDIRECT_URL" default:""`
	OAuthScopes       string `envconfig:"OAUTH_SCOPES" default:"openid,profile,email"`
}

const maxHistoryLimit = 500

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if strings.TrimSpace(c.DefaultAdminUser) == "" {
		return fmt.Errorf("DEFAULT_ADMIN_USER is required")
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be >= 1")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME is required")
	}

	kinds := translation.ProviderKinds()
	if !slices.Contains(kinds, normalizeKind(c.PrimaryProvider)) {
		return fmt.Errorf("PRIMARY_PROVIDER must be one of %s", strings.Join(kinds, ", "))
	}
	if !slices.Contains(kinds, normalizeKind(c.FallbackProvider)) {
		return fmt.Errorf("FALLBACK_PROVIDER must be one of %s", strings.Join(kinds, ", "))
	}
	if c.TranslationTimeoutMS < 1 {
		return fmt.Errorf("TRANSLATION_TIMEOUT_MS must be >= 1")
	}
	if c.BreakerCooldown < 0 {
		return fmt.Errorf("PROVIDER_BREAKER_COOLDOWN must be >= 0")
	}
	if c.HistoryLimit < 1 || c.HistoryLimit > maxHistoryLimit {
		return fmt.Errorf("HISTORY_LIMIT must be between 1 and %d", maxHistoryLimit)
	}

	if c.OAuthEnabled() {
		required := map[string]string{
			"OAUTH_AUTH_URL":     c.OAuthAuthURL,
			"OAUTH_TOKEN_URL":    c.OAuthTokenURL,
			"OAUTH_USERINFO_URL": c.OAuthUserInfoURL,
			"OAUTH_REDIRECT_URL": c.OAuthRedirectURL,
		}
		names := make([]string, 0, len(required))
		for name := range required {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if strings.TrimSpace(required[name]) == "" {
				return fmt.Errorf("%s is required when OAUTH_CLIENT_ID is set", name)
			}
		}
		if strings.TrimSpace(c.OAuthProviderName) == "" {
			return fmt.Errorf("OAUTH_PROVIDER_NAME is required when OAUTH_CLIENT_ID is set")
		}
	}
	return nil
}

// OAuthEnabled reports whether third-party login is configured.
func (c *Config) OAuthEnabled() bool {
	return c != nil && strings.TrimSpace(c.OAuthClientID) != ""
}

func (c *Config) OAuthScopesList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.OAuthScopes)
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSAllowedOrigins)
}

func (c *Config) TranslationTimeout() time.Duration {
	return time.Duration(c.TranslationTimeoutMS) * time.Millisecond
}

// ProviderConfigs returns the primary and fallback provider settings. Both share one timeout.
func (c *Config) ProviderConfigs() (translation.ProviderConfig, translation.ProviderConfig) {
	breaker := translation.BreakerSettings{
		MaxFailures: c.BreakerFailures,
		Cooldown:    c.BreakerCooldown,
	}
	primary := translation.ProviderConfig{
		Kind:        normalizeKind(c.PrimaryProvider),
		EndpointURL: strings.TrimSpace(c.PrimaryProviderURL),
		Timeout:     c.TranslationTimeout(),
		APIKey:      strings.TrimSpace(c.PrimaryProviderAPIKey),
		Email:       strings.TrimSpace(c.MyMemoryEmail),
		Model:       strings.TrimSpace(c.TranslationModel),
		Breaker:     breaker,
	}
	fallback := primary
	fallback.Kind = normalizeKind(c.FallbackProvider)
	fallback.EndpointURL = strings.TrimSpace(c.FallbackProviderURL)
	fallback.APIKey = strings.TrimSpace(c.FallbackProviderAPIKey)
	return primary, fallback
}

func normalizeKind(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if _, exists := seen[item]; exists {
			continue
		}
		seen[item] = struct{}{}
		items = append(items, item)
	}
	return items
}
