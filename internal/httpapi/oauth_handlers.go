package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"horse.fit/anubad/internal/auth"
	"horse.fit/anubad/internal/db"
)

const (
	oauthStateCookie    = "anubad_oauth_state"
	oauthVerifierCookie = "anubad_oauth_verifier"
	oauthCookiePath     = "/auth"
	oauthCookieMaxAge   = 600
)

type oauthFlow interface {
	ProviderName() string
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*auth.UserInfo, error)
}

func (s *Server) handleOAuthLogin(c echo.Context) error {
	if s.oauth == nil {
		return failNotFound(c, "OAuth login is not configured")
	}

	state := auth.NewState()
	verifier := auth.NewVerifier()
	s.setOAuthCookie(c, oauthStateCookie, state)
	s.setOAuthCookie(c, oauthVerifierCookie, verifier)

	return c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state, verifier))
}

func (s *Server) handleOAuthCallback(c echo.Context) error {
	if s.oauth == nil {
		return failNotFound(c, "OAuth login is not configured")
	}
	store := s.authDataStore()
	if store == nil {
		return internalError(c, "Failed to process login")
	}

	if providerErr := strings.TrimSpace(c.QueryParam("error")); providerErr != "" {
		s.clearOAuthCookies(c)
		s.logger.Warn().
			Str("provider", s.oauth.ProviderName()).
			Str("error", providerErr).
			Str("description", c.QueryParam("error_description")).
			Msg("oauth provider rejected login")
		return fail(c, http.StatusBadRequest, "Login was cancelled or rejected by the provider")
	}

	state := strings.TrimSpace(c.QueryParam("state"))
	code := strings.TrimSpace(c.QueryParam("code"))
	expectedState := cookieValue(c, oauthStateCookie)
	verifier := cookieValue(c, oauthVerifierCookie)
	s.clearOAuthCookies(c)

	if state == "" || expectedState == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expectedState)) != 1 {
		return fail(c, http.StatusBadRequest, "Login state mismatch. Please try again.")
	}
	if code == "" || verifier == "" {
		return fail(c, http.StatusBadRequest, "Login response is incomplete. Please try again.")
	}

	ctx := c.Request().Context()
	token, err := s.oauth.Exchange(ctx, code, verifier)
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", s.oauth.ProviderName()).Msg("oauth code exchange failed")
		return fail(c, http.StatusBadGateway, "Login with the identity provider failed")
	}
	info, err := s.oauth.FetchUserInfo(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", s.oauth.ProviderName()).Msg("oauth userinfo failed")
		return fail(c, http.StatusBadGateway, "Login with the identity provider failed")
	}

	user, err := store.UpsertOAuthUser(ctx, db.OAuthIdentity{
		Provider:        s.oauth.ProviderName(),
		Subject:         info.Subject,
		Email:           info.Email,
		FirstName:       info.FirstName,
		LastName:        info.LastName,
		ProfileImageURL: info.ProfileImageURL,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("provider", s.oauth.ProviderName()).Msg("upsert oauth user failed")
		return internalError(c, "Failed to process login")
	}

	if _, _, err := s.startSession(c, store, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.UserID).Msg("create session failed")
		return internalError(c, "Failed to process login")
	}

	s.logger.Info().
		Int64("user_id", user.UserID).
		Str("provider", s.oauth.ProviderName()).
		Msg("oauth login succeeded")
	return c.Redirect(http.StatusFound, "/")
}

func (s *Server) setOAuthCookie(c echo.Context, name, value string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     oauthCookiePath,
		HttpOnly: true,
		Secure:   s.opts.SessionSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   oauthCookieMaxAge,
	})
}

func (s *Server) clearOAuthCookies(c echo.Context) {
	s.expireCookie(c, oauthStateCookie, oauthCookiePath)
	s.expireCookie(c, oauthVerifierCookie, oauthCookiePath)
}

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
