package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/anubad/internal/auth"
	"horse.fit/anubad/internal/config"
	"horse.fit/anubad/internal/db"
)

type adminStore interface {
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, username, passwordHash string) (*db.AuthUser, error)
}

// ensureDefaultAdmin seeds a local password account on an empty users table.
// Without DEFAULT_ADMIN_PASSWORD nothing is created and only OAuth logins exist.
func ensureDefaultAdmin(ctx context.Context, store adminStore, cfg *config.Config, logger zerolog.Logger) error {
	if store == nil || cfg == nil {
		return fmt.Errorf("ensure default admin: missing dependencies")
	}

	password := strings.TrimSpace(cfg.DefaultAdminPassword)
	if password == "" {
		logger.Debug().Msg("default admin password not set; skipping local admin")
		return nil
	}

	userCount, err := store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	username := auth.NormalizeUsername(cfg.DefaultAdminUser)
	if username == "" {
		return fmt.Errorf("default admin username is empty")
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	if _, err := store.CreateUser(ctx, username, passwordHash); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate key value") {
			return nil
		}
		return err
	}

	logger.Warn().
		Str("username", username).
		Msg("created default admin user")

	return nil
}
