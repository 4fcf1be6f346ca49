package db

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var authUserRowColumns = []string{
	"user_id", "user_uuid", "username", "password_hash", "oauth_provider", "email",
	"first_name", "last_name", "profile_image_url", "created_at", "last_login_at",
}

func TestUpsertOAuthUser(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	createdAt := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (oauth_provider, oauth_subject)")).
		WithArgs("oidc", "sub-123", "mridul@example.com", "Mridul", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(authUserRowColumns).AddRow(
			int64(11), "2b0c3c4e-55f1-4f6a-8a8e-b4b1b0f2a9c1", nil, nil, "oidc", "mridul@example.com",
			"Mridul", nil, nil, createdAt, nil,
		))

	user, err := pool.UpsertOAuthUser(context.Background(), OAuthIdentity{
		Provider:  " OIDC ",
		Subject:   "sub-123",
		Email:     "mridul@example.com",
		FirstName: "Mridul",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), user.UserID)
	assert.Equal(t, "oidc", user.OAuthProvider)
	assert.Empty(t, user.Username)
	assert.Equal(t, "Mridul", user.DisplayName())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertOAuthUser_RequiresSubject(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	_, err := pool.UpsertOAuthUser(context.Background(), OAuthIdentity{Provider: "oidc"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE username = $1")).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(authUserRowColumns))

	_, err := pool.GetUserByUsername(context.Background(), " Admin ")
	require.ErrorIs(t, err, ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	expiresAt := now.Add(168 * time.Hour)
	sessionID := "0b9f7a52-1c1b-4d8e-8f62-1d1f3f0b6d10"

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO anubad.sessions")).
		WithArgs(int64(5), expiresAt, now).
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow(sessionID))
	mock.ExpectQuery(regexp.QuoteMeta("FROM anubad.sessions")).
		WithArgs(sessionID).
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "user_id", "expires_at", "last_seen_at"}).
			AddRow(sessionID, int64(5), expiresAt, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE anubad.sessions")).
		WithArgs(sessionID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM anubad.sessions")).
		WithArgs(sessionID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	gotID, err := pool.CreateSession(context.Background(), 5, expiresAt, now)
	require.NoError(t, err)
	assert.Equal(t, sessionID, gotID)

	session, err := pool.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), session.UserID)
	assert.Equal(t, expiresAt, session.ExpiresAt)

	require.NoError(t, pool.TouchSession(context.Background(), sessionID, now.Add(2*time.Minute)))
	require.NoError(t, pool.DeleteSession(context.Background(), sessionID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpiredSessions(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("WHERE expires_at <= $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := pool.DeleteExpiredSessions(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestSetUserLastLogin_MissingUser(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	mock.ExpectExec(regexp.QuoteMeta("SET last_login_at = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := pool.SetUserLastLogin(context.Background(), 99, time.Now())
	require.ErrorIs(t, err, ErrNoRows)
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		user AuthUser
		want string
	}{
		{user: AuthUser{FirstName: "Ananya", LastName: "Bora", Email: "a@example.com"}, want: "Ananya Bora"},
		{user: AuthUser{Email: "a@example.com", Username: "ananya"}, want: "a@example.com"},
		{user: AuthUser{Username: "admin"}, want: "admin"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.user.DisplayName())
	}
}
