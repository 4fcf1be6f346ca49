package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"horse.fit/anubad/internal/auth"
	"horse.fit/anubad/internal/cli"
	"horse.fit/anubad/internal/config"
	"horse.fit/anubad/internal/httpapi"
	"horse.fit/anubad/internal/translation"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8080, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	pool, err := connectPool(cfg, logger, 10*time.Second)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to connect to database")
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ensureDefaultAdmin(ctx, pool, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("ensure default admin failed")
		fmt.Fprintf(os.Stderr, "Failed to ensure default admin: %v\n", err)
		return 1
	}

	primaryCfg, fallbackCfg := cfg.ProviderConfigs()
	orchestrator, err := translation.NewOrchestratorFromConfig(ctx, primaryCfg, fallbackCfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("build translation providers failed")
		fmt.Fprintf(os.Stderr, "Failed to configure translation providers: %v\n", err)
		return 1
	}
	defer func() {
		if closeErr := orchestrator.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("close translation providers failed")
		}
	}()

	oauthClient, err := newOAuthClient(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("configure oauth failed")
		fmt.Fprintf(os.Stderr, "Failed to configure OAuth: %v\n", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	names := orchestrator.ProviderNames()
	logger.Info().
		Str("primary", names[translation.RolePrimary]).
		Str("fallback", names[translation.RoleFallback]).
		Dur("provider_timeout", cfg.TranslationTimeout()).
		Msg("translation providers configured")

	srv := httpapi.NewServer(pool, orchestrator, oauthClient, logger, httpapi.Options{
		Host:            *host,
		Port:            *port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
		RequestTimeout:  requestTimeout(cfg),
		SessionCookie:   cfg.SessionCookieName,
		SessionSecure:   cfg.SessionCookieSecure,
		SessionTTL:      time.Duration(cfg.SessionTTLHours) * time.Hour,
		CORSOrigins:     cfg.CORSAllowedOriginsList(),
		HistoryLimit:    cfg.HistoryLimit,
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}

// requestTimeout leaves room for both provider attempts. The server caps it at the write timeout.
func requestTimeout(cfg *config.Config) time.Duration {
	return 2*cfg.TranslationTimeout() + 2*time.Second
}

func newOAuthClient(cfg *config.Config) (*auth.OAuthClient, error) {
	if !cfg.OAuthEnabled() {
		return nil, nil
	}
	return auth.NewOAuthClient(auth.OAuthConfig{
		ProviderName: cfg.OAuthProviderName,
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
		UserInfoURL:  cfg.OAuthUserInfoURL,
		RedirectURL:  cfg.OAuthRedirectURL,
		Scopes:       cfg.OAuthScopesList(),
		Timeout:      cfg.TranslationTimeout(),
	})
}
