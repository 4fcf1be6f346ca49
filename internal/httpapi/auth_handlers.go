package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"horse.fit/anubad/internal/auth"
	"horse.fit/anubad/internal/db"
	"horse.fit/anubad/internal/globaltime"
)

const (
	defaultSessionTouchInterval = time.Minute
	defaultSessionTTL           = 7 * 24 * time.Hour
	principalContextKey         = "auth.principal"
)

type authPrincipal struct {
	SessionID string
	UserID    int64
	ExpiresAt time.Time
}

type authUserResponse struct {
	UserID          int64      `json:"user_id"`
	UserUUID        string     `json:"user_uuid"`
	DisplayName     string     `json:"display_name"`
	Username        string     `json:"username,omitempty"`
	AuthProvider    string     `json:"auth_provider"`
	Email           string     `json:"email,omitempty"`
	FirstName       string     `json:"first_name,omitempty"`
	LastName        string     `json:"last_name,omitempty"`
	ProfileImageURL string     `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authStore interface {
	GetSession(ctx context.Context, sessionID string) (*db.AuthSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	TouchSession(ctx context.Context, sessionID string, seenAt time.Time) error
	GetUserByUsername(ctx context.Context, username string) (*db.AuthUser, error)
	GetUserByID(ctx context.Context, userID int64) (*db.AuthUser, error)
	UpsertOAuthUser(ctx context.Context, identity db.OAuthIdentity) (*db.AuthUser, error)
	CreateSession(ctx context.Context, userID int64, expiresAt, now time.Time) (string, error)
	SetUserLastLogin(ctx context.Context, userID int64, loginAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

var errUnauthenticated = errors.New("authentication required")

func (s *Server) authDataStore() authStore {
	if s == nil {
		return nil
	}
	if s.authStore != nil {
		return s.authStore
	}
	if s.pool == nil {
		return nil
	}
	return s.pool
}

// optionalAuth attaches the principal when a valid session cookie is present and
// lets anonymous requests through unchanged.
func (s *Server) optionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := s.resolvePrincipal(c)
			switch {
			case err == nil:
				c.Set(principalContextKey, principal)
			case !errors.Is(err, errUnauthenticated):
				s.logger.Warn().Err(err).Msg("optional session lookup failed")
			}
			return next(c)
		}
	}
}

func (s *Server) requireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := s.resolvePrincipal(c)
			if err != nil {
				if errors.Is(err, errUnauthenticated) {
					return unauthorizedResponse(c)
				}
				s.logger.Error().Err(err).Msg("session lookup failed")
				return internalError(c, "Failed to authorize request")
			}
			c.Set(principalContextKey, principal)
			return next(c)
		}
	}
}

func (s *Server) resolvePrincipal(c echo.Context) (authPrincipal, error) {
	store := s.authDataStore()
	if store == nil {
		return authPrincipal{}, errUnauthenticated
	}

	sessionID, found := s.sessionIDFromCookie(c)
	if !found {
		return authPrincipal{}, errUnauthenticated
	}

	ctx := c.Request().Context()
	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			s.clearSessionCookie(c)
			return authPrincipal{}, errUnauthenticated
		}
		return authPrincipal{}, fmt.Errorf("load session: %w", err)
	}

	now := globaltime.UTC()
	if !session.ExpiresAt.After(now) {
		_ = store.DeleteSession(ctx, session.SessionID)
		s.clearSessionCookie(c)
		return authPrincipal{}, errUnauthenticated
	}

	if now.Sub(session.LastSeenAt) >= defaultSessionTouchInterval {
		_ = store.TouchSession(ctx, session.SessionID, now)
	}

	return authPrincipal{
		SessionID: session.SessionID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt.UTC(),
	}, nil
}

func (s *Server) handlePasswordLogin(c echo.Context) error {
	store := s.authDataStore()
	if store == nil {
		return internalError(c, "Failed to process login")
	}

	var req loginRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	username := auth.NormalizeUsername(req.Username)
	password := strings.TrimSpace(req.Password)
	fieldErrors := map[string]string{}
	if username == "" {
		fieldErrors["username"] = "is required"
	}
	if password == "" {
		fieldErrors["password"] = "is required"
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	user, err := store.GetUserByUsername(c.Request().Context(), username)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return fail(c, http.StatusUnauthorized, "Invalid username or password")
		}
		s.logger.Error().Err(err).Str("username", username).Msg("login lookup failed")
		return internalError(c, "Failed to process login")
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return fail(c, http.StatusUnauthorized, "Invalid username or password")
	}

	sessionID, expiresAt, err := s.startSession(c, store, user)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.UserID).Msg("create session failed")
		return internalError(c, "Failed to process login")
	}

	return success(c, map[string]any{
		"user": buildAuthUserResponse(user),
		"session": map[string]any{
			"session_id": sessionID,
			"expires_at": expiresAt.UTC(),
		},
	})
}

// startSession sweeps expired sessions, opens a new one for user and sets the cookie.
func (s *Server) startSession(c echo.Context, store authStore, user *db.AuthUser) (string, time.Time, error) {
	ctx := c.Request().Context()
	now := globaltime.UTC()
	if _, cleanupErr := store.DeleteExpiredSessions(ctx, now); cleanupErr != nil {
		s.logger.Warn().Err(cleanupErr).Msg("delete expired sessions failed")
	}

	expiresAt := s.sessionExpiry(now)
	sessionID, err := store.CreateSession(ctx, user.UserID, expiresAt, now)
	if err != nil {
		return "", time.Time{}, err
	}

	if err := store.SetUserLastLogin(ctx, user.UserID, now); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.UserID).Msg("update last login failed")
	}
	nowCopy := now
	user.LastLoginAt = &nowCopy

	s.setSessionCookie(c, sessionID, expiresAt)
	return sessionID, expiresAt, nil
}

func (s *Server) handleLogout(c echo.Context) error {
	store := s.authDataStore()
	if sessionID, found := s.sessionIDFromCookie(c); found && store != nil {
		if err := store.DeleteSession(c.Request().Context(), sessionID); err != nil && !errors.Is(err, db.ErrNoRows) {
			s.logger.Warn().Err(err).Msg("delete session on logout failed")
		}
	}
	s.clearSessionCookie(c)
	return success(c, map[string]any{"logged_out": true})
}

func (s *Server) handleMe(c echo.Context) error {
	store := s.authDataStore()
	if store == nil {
		return internalError(c, "Failed to load user")
	}

	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	user, err := store.GetUserByID(c.Request().Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return unauthorizedResponse(c)
		}
		s.logger.Error().Err(err).Int64("user_id", principal.UserID).Msg("load me user failed")
		return internalError(c, "Failed to load user")
	}

	return success(c, map[string]any{
		"user": buildAuthUserResponse(user),
	})
}

func unauthorizedResponse(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "Authentication required")
}

func buildAuthUserResponse(row *db.AuthUser) authUserResponse {
	if row == nil {
		return authUserResponse{}
	}
	provider := row.OAuthProvider
	if provider == "" {
		provider = "password"
	}
	return authUserResponse{
		UserID:          row.UserID,
		UserUUID:        row.UserUUID,
		DisplayName:     row.DisplayName(),
		Username:        row.Username,
		AuthProvider:    provider,
		Email:           row.Email,
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		ProfileImageURL: row.ProfileImageURL,
		CreatedAt:       row.CreatedAt.UTC(),
		LastLoginAt:     row.LastLoginAt,
	}
}

func principalFromContext(c echo.Context) (authPrincipal, bool) {
	if c == nil {
		return authPrincipal{}, false
	}
	principal, ok := c.Get(principalContextKey).(authPrincipal)
	return principal, ok
}

func (s *Server) sessionIDFromCookie(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(s.opts.SessionCookie)
	if err != nil || cookie == nil {
		return "", false
	}

	sessionID := strings.TrimSpace(cookie.Value)
	if sessionID == "" {
		return "", false
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		s.clearSessionCookie(c)
		return "", false
	}
	return sessionID, true
}

func (s *Server) setSessionCookie(c echo.Context, sessionID string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(globaltime.Now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	c.SetCookie(&http.Cookie{
		Name:     s.opts.SessionCookie,
		Value:    strings.TrimSpace(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SessionSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
	})
}

func (s *Server) clearSessionCookie(c echo.Context) {
	s.expireCookie(c, s.opts.SessionCookie, "/")
}

func (s *Server) expireCookie(c echo.Context, name, path string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		HttpOnly: true,
		Secure:   s.opts.SessionSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  globaltime.UTC().Add(-1 * time.Hour),
	})
}

func (s *Server) sessionExpiry(now time.Time) time.Time {
	ttl := s.opts.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return now.UTC().Add(ttl)
}
