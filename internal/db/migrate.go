package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// RunMigrations applies pending goose migrations for the dialect.
func RunMigrations(ctx context.Context, db *sql.DB, d Dialect) error {
	var gd goose.Dialect
	switch d {
	case SQLite:
		gd = goose.DialectSQLite3
	case Postgres:
		gd = goose.DialectPostgres
	default:
		return fmt.Errorf("db: no migrations for dialect %q", d)
	}

	dir, err := fs.Sub(migrationsFS, "migrations/"+string(d))
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(gd, db, dir)
	if err != nil {
		return fmt.Errorf("db: goose provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	for _, r := range results {
		slog.Debug("migration applied", "dialect", d, "source", r.Source.Path, "took", r.Duration)
	}
	return nil
}
