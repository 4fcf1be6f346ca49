package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/anubad/internal/db"
	"horse.fit/anubad/internal/globaltime"
	"horse.fit/anubad/internal/langdetect"
	"horse.fit/anubad/internal/payloadschema"
	"horse.fit/anubad/internal/translation"
)

const (
	historyWriteTimeout = 5 * time.Second

	msgEmptyText          = "Please enter some text to translate."
	msgInvalidRequest     = "Please send the text to translate as {\"text\": \"...\"} with at most 5000 characters."
	msgProvidersFailed    = "Translation services are currently unavailable. Please try again later."
	msgTranslationTimeout = "Translation request timed out. Please try again."
)

type historyStore interface {
	InsertTranslation(ctx context.Context, row db.InsertTranslationParams) (string, error)
	ListTranslationsByUser(ctx context.Context, userID int64, limit int) ([]db.HistoryRow, error)
}

func (s *Server) historyDataStore() historyStore {
	if s == nil {
		return nil
	}
	if s.history != nil {
		return s.history
	}
	if s.pool == nil {
		return nil
	}
	return s.pool
}

func (s *Server) healthDataStore() healthChecker {
	if s == nil {
		return nil
	}
	if s.health != nil {
		return s.health
	}
	if s.pool == nil {
		return nil
	}
	return s.pool
}

func (s *Server) handleTranslate(c echo.Context) error {
	if s.translator == nil {
		return internalError(c, "Translation is not available")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Could not read request body")
	}
	req, err := payloadschema.ValidateTranslateRequest(body)
	if err != nil {
		s.logger.Debug().Err(err).Msg("translate request rejected")
		return fail(c, http.StatusBadRequest, msgInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.opts.RequestTimeout)
	defer cancel()

	result, err := s.translator.Translate(ctx, req.Text)
	if err != nil {
		var failed *translation.BothProvidersFailedError
		switch {
		case translation.IsValidationError(err):
			return fail(c, http.StatusBadRequest, msgEmptyText)
		case ctx.Err() != nil:
			s.logger.Warn().Err(err).Msg("translation request context ended before a provider answered")
			return fail(c, http.StatusGatewayTimeout, msgTranslationTimeout)
		case errors.As(err, &failed):
			return fail(c, http.StatusBadGateway, msgProvidersFailed)
		default:
			s.logger.Error().Err(err).Msg("translation failed")
			return internalError(c, "Internal server error")
		}
	}

	if principal, ok := principalFromContext(c); ok {
		s.recordHistory(c.Request().Context(), principal.UserID, result)
	}

	return success(c, map[string]any{
		"translated_text": result.TranslatedText,
		"original_text":   result.SourceText,
		"provider":        result.ProviderUsed,
		"service":         result.ProviderName,
	})
}

// recordHistory stores a successful translation. A failed write is logged and
// never changes the response.
func (s *Server) recordHistory(ctx context.Context, userID int64, result translation.Result) {
	store := s.historyDataStore()
	if store == nil || !result.Succeeded {
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	translationUUID, err := store.InsertTranslation(writeCtx, db.InsertTranslationParams{
		UserID:         userID,
		OriginalText:   result.SourceText,
		TranslatedText: result.TranslatedText,
		SourceLang:     translation.SourceLanguage,
		TargetLang:     translation.TargetLanguage,
		DetectedLang:   langdetect.DetectISO6391(result.SourceText),
		ProviderRole:   string(result.ProviderUsed),
		ProviderName:   result.ProviderName,
		CreatedAt:      globaltime.UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("record translation history failed")
		return
	}
	s.logger.Debug().
		Int64("user_id", userID).
		Str("translation_uuid", translationUUID).
		Msg("translation history recorded")
}

func (s *Server) handleHistory(c echo.Context) error {
	store := s.historyDataStore()
	if store == nil {
		return internalError(c, "Failed to load history")
	}

	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	items, err := store.ListTranslationsByUser(c.Request().Context(), principal.UserID, s.opts.HistoryLimit)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", principal.UserID).Msg("load translation history failed")
		return internalError(c, "Failed to load history")
	}
	if items == nil {
		items = []db.HistoryRow{}
	}

	return success(c, map[string]any{
		"items": items,
	})
}

func (s *Server) handleMeta(c echo.Context) error {
	providers := map[string]string{}
	if s.translator != nil {
		for role, name := range s.translator.ProviderNames() {
			providers[string(role)] = name
		}
	}

	oauthProvider := ""
	if s.oauth != nil {
		oauthProvider = s.oauth.ProviderName()
	}

	return success(c, map[string]any{
		"languages":      translation.LanguageOptions(),
		"oauth_enabled":  s.oauth != nil,
		"oauth_provider": oauthProvider,
		"providers":      providers,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	checker := s.healthDataStore()
	if checker == nil {
		return fail(c, http.StatusServiceUnavailable, "Database is not configured")
	}
	if err := checker.Ping(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check ping failed")
		return fail(c, http.StatusServiceUnavailable, "Database is unavailable")
	}
	circuits := map[string]string{}
	if s.translator != nil {
		for role, state := range s.translator.CircuitStates() {
			circuits[string(role)] = state
		}
	}

	return success(c, map[string]any{
		"service":  "anubad",
		"time":     globaltime.UTC(),
		"circuits": circuits,
	})
}
