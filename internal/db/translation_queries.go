package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"horse.fit/anubad/internal/globaltime"
)

const DefaultHistoryLimit = 50

// InsertTranslationParams is one successful translation to record in a user's history.
type InsertTranslationParams struct {
	UserID         int64
	OriginalText   string
	TranslatedText string
	SourceLang     string
	TargetLang     string
	DetectedLang   string
	ProviderRole   string
	ProviderName   string
	CreatedAt      time.Time
}

// HistoryRow is one history entry as shown to the user.
type HistoryRow struct {
	TranslationUUID string    `json:"id"`
	SourceText      string    `json:"source_text"`
	TranslatedText  string    `json:"translated_text"`
	DetectedLang    *string   `json:"detected_lang,omitempty"`
	ProviderRole    string    `json:"provider"`
	ProviderName    string    `json:"service"`
	CreatedAt       time.Time `json:"timestamp"`
}

func (p *Pool) InsertTranslation(ctx context.Context, row InsertTranslationParams) (string, error) {
	if row.UserID <= 0 {
		return "", fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(row.TranslatedText) == "" {
		return "", fmt.Errorf("translated text is required")
	}
	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = globaltime.Now()
	}

	const q = `
INSERT INTO anubad.translations (
	user_id,
	original_text,
	translated_text,
	source_lang,
	target_lang,
	detected_lang,
	provider_role,
	provider_name,
	created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING translation_uuid::text
`

	var translationUUID string
	if err := p.QueryRow(
		ctx,
		q,
		row.UserID,
		row.OriginalText,
		row.TranslatedText,
		defaultString(row.SourceLang, "en"),
		defaultString(row.TargetLang, "as"),
		nullableString(row.DetectedLang),
		row.ProviderRole,
		row.ProviderName,
		createdAt.UTC(),
	).Scan(&translationUUID); err != nil {
		return "", fmt.Errorf("insert translation: %w", err)
	}
	return translationUUID, nil
}

// ListTranslationsByUser returns the user's most recent translations first.
func (p *Pool) ListTranslationsByUser(ctx context.Context, userID int64, limit int) ([]HistoryRow, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	const q = `
SELECT
	translation_uuid::text,
	original_text,
	translated_text,
	detected_lang,
	provider_role,
	provider_name,
	created_at
FROM anubad.translations
WHERE user_id = $1
ORDER BY created_at DESC, translation_id DESC
LIMIT $2
`

	rows, err := p.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query translation history: %w", err)
	}
	defer rows.Close()

	items := make([]HistoryRow, 0, min(limit, 64))
	for rows.Next() {
		var row HistoryRow
		if err := rows.Scan(
			&row.TranslationUUID,
			&row.SourceText,
			&row.TranslatedText,
			&row.DetectedLang,
			&row.ProviderRole,
			&row.ProviderName,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan translation history row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translation history rows: %w", err)
	}

	return items, nil
}

func defaultString(raw, fallback string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
