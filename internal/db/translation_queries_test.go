package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertTranslation(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	createdAt := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO anubad.translations")).
		WithArgs(int64(7), "Hello", "নমস্কাৰ", "en", "as", "en", "primary", "mymemory", createdAt).
		WillReturnRows(sqlmock.NewRows([]string{"translation_uuid"}).AddRow("6f1c2a8e-3b7d-4c1e-9a55-0d2f4b8e1c33"))

	id, err := pool.InsertTranslation(context.Background(), InsertTranslationParams{
		UserID:         7,
		OriginalText:   "Hello",
		TranslatedText: "নমস্কাৰ",
		DetectedLang:   "en",
		ProviderRole:   "primary",
		ProviderName:   "mymemory",
		CreatedAt:      createdAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "6f1c2a8e-3b7d-4c1e-9a55-0d2f4b8e1c33", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTranslation_RejectsIncompleteRows(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)

	_, err := pool.InsertTranslation(context.Background(), InsertTranslationParams{TranslatedText: "নমস্কাৰ"})
	require.Error(t, err)
	_, err = pool.InsertTranslation(context.Background(), InsertTranslationParams{UserID: 1, TranslatedText: "  "})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTranslation_WrapsDatabaseError(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	dbErr := errors.New("relation does not exist")

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO anubad.translations")).WillReturnError(dbErr)

	_, err := pool.InsertTranslation(context.Background(), InsertTranslationParams{
		UserID:         1,
		OriginalText:   "Hello",
		TranslatedText: "নমস্কাৰ",
		ProviderRole:   "fallback",
		ProviderName:   "libretranslate",
	})
	require.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "insert translation")
}

func TestListTranslationsByUser(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	newer := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	rows := sqlmock.NewRows([]string{
		"translation_uuid", "original_text", "translated_text", "detected_lang", "provider_role", "provider_name", "created_at",
	}).
		AddRow("b1", "Good morning", "সুপ্ৰভাত", "en", "fallback", "libretranslate", newer).
		AddRow("a1", "Hello", "নমস্কাৰ", nil, "primary", "mymemory", older)

	mock.ExpectQuery(regexp.QuoteMeta("FROM anubad.translations")).
		WithArgs(int64(7), 20).
		WillReturnRows(rows)

	items, err := pool.ListTranslationsByUser(context.Background(), 7, 20)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Good morning", items[0].SourceText)
	assert.Equal(t, "fallback", items[0].ProviderRole)
	require.NotNil(t, items[0].DetectedLang)
	assert.Equal(t, "en", *items[0].DetectedLang)
	assert.Equal(t, newer, items[0].CreatedAt)

	assert.Equal(t, "নমস্কাৰ", items[1].TranslatedText)
	assert.Nil(t, items[1].DetectedLang)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTranslationsByUser_DefaultLimit(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM anubad.translations")).
		WithArgs(int64(3), DefaultHistoryLimit).
		WillReturnRows(sqlmock.NewRows([]string{
			"translation_uuid", "original_text", "translated_text", "detected_lang", "provider_role", "provider_name", "created_at",
		}))

	items, err := pool.ListTranslationsByUser(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}
