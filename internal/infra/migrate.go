package infra

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrationsFS is the embedded migrations directory as goose expects it,
// with the .sql files at its root.
func migrationsFS() (fs.FS, error) {
	return fs.Sub(migrationFiles, "migrations")
}

// ApplySQLMigrations runs every embedded Postgres migration not yet recorded
// in goose's version table, in version order, and returns the file names
// applied by this call.
func ApplySQLMigrations(ctx context.Context, db *gorm.DB) ([]string, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	fsys, err := migrationsFS()
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	ran := make([]string, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		log.Info().
			Int64("version", r.Source.Version).
			Str("file", r.Source.Path).
			Dur("took", r.Duration).
			Msg("migration applied")
		ran = append(ran, r.Source.Path)
	}
	if err != nil {
		return ran, fmt.Errorf("migrate: %w", err)
	}
	return ran, nil
}
