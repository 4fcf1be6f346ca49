package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"horse.fit/anubad/internal/globaltime"
)

const schemaName = "anubad"

//go:embed sql/pre_automigrate.sql
var preAutoMigrateSQL string

//go:embed sql/post_automigrate.sql
var postAutoMigrateSQL string

// migrationStep is one stage of the schema lifecycle. Steps run in order and
// stop at the first failure.
type migrationStep struct {
	name string
	run  func(ctx context.Context, p *Pool) error
}

func migrationSteps() []migrationStep {
	return []migrationStep{
		{name: "pre-automigrate", run: sqlScript(preAutoMigrateSQL)},
		{name: "automigrate-models", run: migrateModels},
		{name: "post-automigrate", run: sqlScript(postAutoMigrateSQL)},
	}
}

// autoMigrate creates the anubad schema, its tables and the indexes and
// foreign keys GORM tags cannot express.
func (p *Pool) autoMigrate(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	for _, step := range migrationSteps() {
		started := globaltime.Now()
		if err := step.run(ctx, p); err != nil {
			p.logger.Error().Err(err).Str("schema", schemaName).Str("step", step.name).Msg("schema migration step failed")
			return fmt.Errorf("%s schema %s: %w", schemaName, step.name, err)
		}
		p.logger.Debug().
			Str("schema", schemaName).
			Str("step", step.name).
			Dur("took", globaltime.Since(started)).
			Msg("schema migration step done")
	}
	return nil
}

func sqlScript(sqlText string) func(ctx context.Context, p *Pool) error {
	return func(ctx context.Context, p *Pool) error {
		trimmed := strings.TrimSpace(sqlText)
		if trimmed == "" {
			return nil
		}
		return p.gdb.WithContext(ctx).Exec(trimmed).Error
	}
}

func migrateModels(ctx context.Context, p *Pool) error {
	return p.gdb.WithContext(ctx).AutoMigrate(autoMigrateModels()...)
}
