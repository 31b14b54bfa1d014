package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_quizzes.sql
var createQuizzesSQL string

// Migrations holds the schema history; file names carry the migration versions.
var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(execSQL(createQuizzesSQL), execSQL(`DROP TABLE IF EXISTS quizzes`))
}

// execSQL runs a (possibly multi-statement) script as one migration step.
func execSQL(script string) migrate.MigrationFunc {
	return func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, script)
		return err
	}
}
