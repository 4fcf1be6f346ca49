package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationStepsOrder(t *testing.T) {
	t.Parallel()

	var names []string
	for _, step := range migrationSteps() {
		names = append(names, step.name)
	}
	assert.Equal(t, []string{"pre-automigrate", "automigrate-models", "post-automigrate"}, names)
}

func TestEmbeddedMigrationScripts(t *testing.T) {
	t.Parallel()

	assert.Contains(t, preAutoMigrateSQL, "CREATE SCHEMA IF NOT EXISTS anubad")
	assert.Contains(t, postAutoMigrateSQL, "translations_user_created_idx")
	assert.Contains(t, postAutoMigrateSQL, "users_oauth_identity_uidx")
}

func TestAutoMigrate_StopsAtFirstFailedStep(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS pgcrypto")).
		WillReturnError(errors.New("permission denied to create extension"))

	err := pool.autoMigrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anubad schema pre-automigrate")
	assert.Contains(t, err.Error(), "permission denied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLScript_SkipsBlankScript(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	require.NoError(t, sqlScript("  \n\t")(context.Background(), pool))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLScript_ExecutesTrimmedText(t *testing.T) {
	t.Parallel()

	pool, mock := newMockPool(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE SCHEMA IF NOT EXISTS anubad;")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, sqlScript("\nCREATE SCHEMA IF NOT EXISTS anubad;\n")(context.Background(), pool))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoMigrate_NilPool(t *testing.T) {
	t.Parallel()

	var pool *Pool
	require.Error(t, pool.autoMigrate(context.Background()))
}
