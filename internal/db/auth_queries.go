package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type AuthUser struct {
	UserID          int64      `json:"user_id"`
	UserUUID        string     `json:"user_uuid"`
	Username        string     `json:"username,omitempty"`
	PasswordHash    string     `json:"-"`
	OAuthProvider   string     `json:"oauth_provider,omitempty"`
	Email           string     `json:"email,omitempty"`
	FirstName       string     `json:"first_name,omitempty"`
	LastName        string     `json:"last_name,omitempty"`
	ProfileImageURL string     `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

// DisplayName prefers the person's name, then the email, then the local username.
func (u *AuthUser) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Username
}

// OAuthIdentity is the profile returned by the OAuth provider's userinfo endpoint.
type OAuthIdentity struct {
	Provider        string
	Subject         string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}

type AuthSession struct {
	SessionID  string    `json:"session_id"`
	UserID     int64     `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

const authUserColumns = `
	user_id,
	user_uuid::text,
	username,
	password_hash,
	oauth_provider,
	email,
	first_name,
	last_name,
	profile_image_url,
	created_at,
	last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuthUser(row rowScanner) (*AuthUser, error) {
	var (
		user                                    AuthUser
		username, passwordHash, provider, email *string
		firstName, lastName, profileImageURL    *string
	)
	if err := row.Scan(
		&user.UserID,
		&user.UserUUID,
		&username,
		&passwordHash,
		&provider,
		&email,
		&firstName,
		&lastName,
		&profileImageURL,
		&user.CreatedAt,
		&user.LastLoginAt,
	); err != nil {
		return nil, err
	}
	user.Username = derefString(username)
	user.PasswordHash = derefString(passwordHash)
	user.OAuthProvider = derefString(provider)
	user.Email = derefString(email)
	user.FirstName = derefString(firstName)
	user.LastName = derefString(lastName)
	user.ProfileImageURL = derefString(profileImageURL)
	return &user, nil
}

func (p *Pool) CountUsers(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM anubad.users`

	var count int64
	if err := p.QueryRow(ctx, q).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CreateUser inserts a local (password) account.
func (p *Pool) CreateUser(ctx context.Context, username, passwordHash string) (*AuthUser, error) {
	const q = `
INSERT INTO anubad.users (
	username,
	password_hash,
	created_at,
	updated_at
)
VALUES ($1, $2, now(), now())
RETURNING` + authUserColumns

	user, err := scanAuthUser(p.QueryRow(ctx, q, normalizeUsername(username), strings.TrimSpace(passwordHash)))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (p *Pool) GetUserByUsername(ctx context.Context, username string) (*AuthUser, error) {
	const q = `
SELECT` + authUserColumns + `
FROM anubad.users
WHERE username = $1
LIMIT 1
`

	user, err := scanAuthUser(p.QueryRow(ctx, q, normalizeUsername(username)))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query user by username: %w", err)
	}
	return user, nil
}

func (p *Pool) GetUserByID(ctx context.Context, userID int64) (*AuthUser, error) {
	const q = `
SELECT` + authUserColumns + `
FROM anubad.users
WHERE user_id = $1
LIMIT 1
`

	user, err := scanAuthUser(p.QueryRow(ctx, q, userID))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}

// UpsertOAuthUser creates the user for an OAuth identity on first login and refreshes
// the profile fields on later logins.
func (p *Pool) UpsertOAuthUser(ctx context.Context, identity OAuthIdentity) (*AuthUser, error) {
	provider := strings.ToLower(strings.TrimSpace(identity.Provider))
	subject := strings.TrimSpace(identity.Subject)
	if provider == "" || subject == "" {
		return nil, fmt.Errorf("oauth provider and subject are required")
	}

	const q = `
INSERT INTO anubad.users (
	oauth_provider,
	oauth_subject,
	email,
	first_name,
	last_name,
	profile_image_url,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (oauth_provider, oauth_subject) WHERE oauth_subject IS NOT NULL
DO UPDATE SET
	email = COALESCE(EXCLUDED.email, anubad.users.email),
	first_name = COALESCE(EXCLUDED.first_name, anubad.users.first_name),
	last_name = COALESCE(EXCLUDED.last_name, anubad.users.last_name),
	profile_image_url = COALESCE(EXCLUDED.profile_image_url, anubad.users.profile_image_url),
	updated_at = now()
RETURNING` + authUserColumns

	user, err := scanAuthUser(p.QueryRow(
		ctx,
		q,
		provider,
		subject,
		nullableString(identity.Email),
		nullableString(identity.FirstName),
		nullableString(identity.LastName),
		nullableString(identity.ProfileImageURL),
	))
	if err != nil {
		return nil, fmt.Errorf("upsert oauth user: %w", err)
	}
	return user, nil
}

func (p *Pool) SetUserLastLogin(ctx context.Context, userID int64, loginAt time.Time) error {
	const q = `
UPDATE anubad.users
SET last_login_at = $2
WHERE user_id = $1
`

	tag, err := p.Exec(ctx, q, userID, loginAt.UTC())
	if err != nil {
		return fmt.Errorf("update user last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (p *Pool) CreateSession(ctx context.Context, userID int64, expiresAt, now time.Time) (string, error) {
	const q = `
INSERT INTO anubad.sessions (
	user_id,
	expires_at,
	created_at,
	last_seen_at
)
VALUES ($1, $2, $3, $3)
RETURNING session_id::text
`

	var sessionID string
	if err := p.QueryRow(ctx, q, userID, expiresAt.UTC(), now.UTC()).Scan(&sessionID); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return sessionID, nil
}

func (p *Pool) GetSession(ctx context.Context, sessionID string) (*AuthSession, error) {
	const q = `
SELECT
	session_id::text,
	user_id,
	expires_at,
	last_seen_at
FROM anubad.sessions
WHERE session_id = $1::uuid
LIMIT 1
`

	var row AuthSession
	if err := p.QueryRow(ctx, q, strings.TrimSpace(sessionID)).Scan(
		&row.SessionID,
		&row.UserID,
		&row.ExpiresAt,
		&row.LastSeenAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &row, nil
}

func (p *Pool) TouchSession(ctx context.Context, sessionID string, seenAt time.Time) error {
	const q = `
UPDATE anubad.sessions
SET last_seen_at = $2
WHERE session_id = $1::uuid
`

	tag, err := p.Exec(ctx, q, strings.TrimSpace(sessionID), seenAt.UTC())
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (p *Pool) DeleteSession(ctx context.Context, sessionID string) error {
	const q = `
DELETE FROM anubad.sessions
WHERE session_id = $1::uuid
`

	if _, err := p.Exec(ctx, q, strings.TrimSpace(sessionID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (p *Pool) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	const q = `
DELETE FROM anubad.sessions
WHERE expires_at <= $1
`

	tag, err := p.Exec(ctx, q, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func normalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func nullableString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
