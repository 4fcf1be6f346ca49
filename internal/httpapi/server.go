package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/anubad/internal/auth"
	"horse.fit/anubad/internal/db"
	"horse.fit/anubad/internal/translation"
)

const (
	defaultHistoryLimit = db.DefaultHistoryLimit
	maxRequestBodySize  = "64K"
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// RequestTimeout bounds a whole translate request, both provider attempts included.
	RequestTimeout time.Duration
	SessionCookie  string
	SessionSecure  bool
	SessionTTL     time.Duration
	CORSOrigins    []string
	HistoryLimit   int
}

// Translator is the orchestrator as seen by the handlers.
type Translator interface {
	Translate(ctx context.Context, sourceText string) (translation.Result, error)
	ProviderNames() map[translation.ProviderRole]string
	CircuitStates() map[translation.ProviderRole]string
}

type Server struct {
	pool       *db.Pool
	authStore  authStore
	history    historyStore
	health     healthChecker
	translator Translator
	oauth      oauthFlow
	logger     zerolog.Logger
	opts       Options
}

type healthChecker interface {
	Ping(ctx context.Context) error
}

func NewServer(
	pool *db.Pool,
	translator Translator,
	oauthClient *auth.OAuthClient,
	logger zerolog.Logger,
	opts Options,
) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 || requestTimeout > writeTimeout {
		requestTimeout = writeTimeout
	}
	sessionCookie := strings.TrimSpace(opts.SessionCookie)
	if sessionCookie == "" {
		sessionCookie = "anubad_session"
	}
	historyLimit := opts.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}

	s := &Server{
		pool:       pool,
		translator: translator,
		logger:     logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			RequestTimeout:  requestTimeout,
			SessionCookie:   sessionCookie,
			SessionSecure:   opts.SessionSecure,
			SessionTTL:      opts.SessionTTL,
			CORSOrigins:     opts.CORSOrigins,
			HistoryLimit:    historyLimit,
		},
	}
	if oauthClient != nil {
		s.oauth = oauthClient
	}
	return s
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil || s.translator == nil {
		return fmt.Errorf("server is not initialized")
	}

	e, err := s.newEcho()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().
		Str("addr", addr).
		Bool("oauth_enabled", s.oauth != nil).
		Msg("anubad web server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("anubad web server stopped")
	return nil
}

func (s *Server) newEcho() (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(s.corsConfig()))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Info()
			message := "http request"
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = s.logger.Error().Err(v.Error)
				message = "http request failed"
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg(message)
			return nil
		},
	}))

	assetsSub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return nil, fmt.Errorf("load embedded assets: %w", err)
	}
	indexHTML, err := fs.ReadFile(assetsSub, "index.html")
	if err != nil {
		return nil, fmt.Errorf("load index.html: %w", err)
	}

	e.GET("/", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	e.GET("/assets/*", echo.WrapHandler(http.StripPrefix("/assets/", http.FileServer(http.FS(assetsSub)))))

	e.POST("/translate", s.handleTranslate, middleware.BodyLimit(maxRequestBodySize), s.optionalAuth())
	e.GET("/history", s.handleHistory, s.requireAuth())

	authRoutes := e.Group("/auth")
	authRoutes.GET("/login", s.handleOAuthLogin)
	authRoutes.GET("/callback", s.handleOAuthCallback)
	authRoutes.POST("/password-login", s.handlePasswordLogin, middleware.BodyLimit(maxRequestBodySize))
	authRoutes.POST("/logout", s.handleLogout)

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/meta", s.handleMeta)
	api.GET("/me", s.handleMe, s.requireAuth())

	return e, nil
}

func (s *Server) corsConfig() middleware.CORSConfig {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	return middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: allowCredentials,
		MaxAge:           3600,
	}
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("unhandled handler error")
	}

	path := c.Request().URL.Path
	if path == "/" || strings.HasPrefix(path, "/assets/") {
		_ = c.String(status, message)
		return
	}
	if status >= http.StatusInternalServerError {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message)
}
