package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:          "local",
		LogLevel:             "info",
		DatabaseURL:          "postgres://localhost/anubad",
		DBMinConns:           1,
		DBMaxConns:           8,
		DefaultAdminUser:     "admin",
		SessionTTLHours:      168,
		SessionCookieName:    "anubad_session",
		PrimaryProvider:      "mymemory",
		FallbackProvider:     "libretranslate",
		TranslationTimeoutMS: 10000,
		BreakerFailures:      5,
		BreakerCooldown:      30 * time.Second,
		HistoryLimit:         50,
		OAuthProviderName:    "oidc",
		OAuthScopes:          "openid,profile,email",
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/anubad")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PrimaryProvider != "mymemory" || cfg.FallbackProvider != "libretranslate" {
		t.Fatalf("unexpected provider defaults: %q/%q", cfg.PrimaryProvider, cfg.FallbackProvider)
	}
	if cfg.TranslationTimeout() != 10*time.Second {
		t.Fatalf("unexpected timeout: got %v want 10s", cfg.TranslationTimeout())
	}
	if cfg.HistoryLimit != 50 {
		t.Fatalf("unexpected history limit: got %d want 50", cfg.HistoryLimit)
	}
	if cfg.BreakerCooldown != 30*time.Second {
		t.Fatalf("unexpected breaker cooldown: got %v want 30s", cfg.BreakerCooldown)
	}
	if cfg.OAuthEnabled() {
		t.Fatalf("did not expect oauth to be enabled by default")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = " " }, wantErr: "DATABASE_URL"},
		{name: "min above max", mutate: func(c *Config) { c.DBMinConns = 9 }, wantErr: "DB_MIN_CONNS"},
		{name: "unknown primary", mutate: func(c *Config) { c.PrimaryProvider = "babelfish" }, wantErr: "PRIMARY_PROVIDER"},
		{name: "unknown fallback", mutate: func(c *Config) { c.FallbackProvider = "" }, wantErr: "FALLBACK_PROVIDER"},
		{name: "zero timeout", mutate: func(c *Config) { c.TranslationTimeoutMS = 0 }, wantErr: "TRANSLATION_TIMEOUT_MS"},
		{name: "history limit too large", mutate: func(c *Config) { c.HistoryLimit = 1000 }, wantErr: "HISTORY_LIMIT"},
		{
			name: "oauth without urls",
			mutate: func(c *Config) {
				c.OAuthClientID = "client"
				c.OAuthAuthURL = "https://id.example.com/authorize"
			},
			wantErr: "OAUTH_REDIRECT_URL",
		},
		{
			name: "oauth complete",
			mutate: func(c *Config) {
				c.OAuthClientID = "client"
				c.OAuthAuthURL = "https://id.example.com/authorize"
				c.OAuthTokenURL = "https://id.example.com/token"
				c.OAuthUserInfoURL = "https://id.example.com/userinfo"
				c.OAuthRedirectURL = "http://localhost:8080/auth/callback"
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("unexpected error: got %v want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestProviderConfigs(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.PrimaryProvider = " MyMemory "
	cfg.PrimaryProviderAPIKey = "mm-key"
	cfg.FallbackProviderURL = "http://libretranslate.internal:5000/translate"
	cfg.TranslationTimeoutMS = 2500

	primary, fallback := cfg.ProviderConfigs()
	if primary.Kind != "mymemory" || primary.APIKey != "mm-key" || primary.EndpointURL != "" {
		t.Fatalf("unexpected primary config: %+v", primary)
	}
	if fallback.Kind != "libretranslate" || fallback.APIKey != "" || fallback.EndpointURL != "http://libretranslate.internal:5000/translate" {
		t.Fatalf("unexpected fallback config: %+v", fallback)
	}
	if primary.Timeout != 2500*time.Millisecond || fallback.Timeout != primary.Timeout {
		t.Fatalf("providers must share one timeout: primary=%v fallback=%v", primary.Timeout, fallback.Timeout)
	}
	if fallback.Breaker.MaxFailures != 5 {
		t.Fatalf("unexpected breaker settings: %+v", fallback.Breaker)
	}
}

func TestSplitLists(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CORSAllowedOrigins = " http://a.test, ,http://b.test,http://a.test "
	if got, want := cfg.CORSAllowedOriginsList(), []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected origins: got %v want %v", got, want)
	}
	if got, want := cfg.OAuthScopesList(), []string{"openid", "profile", "email"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected scopes: got %v want %v", got, want)
	}
}
