package db

import "time"

// User maps anubad.users. A row is either a local account (Username + PasswordHash)
// or an OAuth identity (OAuthProvider + OAuthSubject), or both.
type User struct {
	UserID          int64      `gorm:"column:user_id;primaryKey;autoIncrement"`
	UserUUID        string     `gorm:"column:user_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Username        *string    `gorm:"column:username;type:text;unique"`
	PasswordHash    *string    `gorm:"column:password_hash;type:text"`
	OAuthProvider   *string    `gorm:"column:oauth_provider;type:text"`
	OAuthSubject    *string    `gorm:"column:oauth_subject;type:text"`
	Email           *string    `gorm:"column:email;type:text"`
	FirstName       *string    `gorm:"column:first_name;type:text"`
	LastName        *string    `gorm:"column:last_name;type:text"`
	ProfileImageURL *string    `gorm:"column:profile_image_url;type:text"`
	CreatedAt       time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
	LastLoginAt     *time.Time `gorm:"column:last_login_at;type:timestamptz"`
}

func (User) TableName() string { return "anubad.users" }

// Session maps anubad.sessions.
type Session struct {
	SessionID  string    `gorm:"column:session_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID     int64     `gorm:"column:user_id;type:bigint;not null;index"`
	ExpiresAt  time.Time `gorm:"column:expires_at;type:timestamptz;not null;index"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;type:timestamptz;not null;default:now()"`
}

func (Session) TableName() string { return "anubad.sessions" }

// Translation maps anubad.translations. One row per successful translation by a signed-in user.
type Translation struct {
	TranslationID   int64     `gorm:"column:translation_id;primaryKey;autoIncrement"`
	TranslationUUID string    `gorm:"column:translation_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	UserID          int64     `gorm:"column:user_id;type:bigint;not null"`
	OriginalText    string    `gorm:"column:original_text;type:text;not null"`
	TranslatedText  string    `gorm:"column:translated_text;type:text;not null"`
	SourceLang      string    `gorm:"column:source_lang;type:text;not null;default:en"`
	TargetLang      string    `gorm:"column:target_lang;type:text;not null;default:as"`
	DetectedLang    *string   `gorm:"column:detected_lang;type:text"`
	ProviderRole    string    `gorm:"column:provider_role;type:text;not null"`
	ProviderName    string    `gorm:"column:provider_name;type:text;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Translation) TableName() string { return "anubad.translations" }

func autoMigrateModels() []any {
	return []any{
		&User{},
		&Session{},
		&Translation{},
	}
}
