// Package db opens the post database (SQLite by default, Postgres optionally),
// runs schema migrations and provides the transaction helper used by the
// repositories.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

// Handle bundles the *sql.DB with the dialect it speaks.
type Handle struct {
	DB      *sql.DB
	Dialect Dialect
	pool    *pgxpool.Pool
}

func (h *Handle) Close() error {
	err := h.DB.Close()
	if h.pool != nil {
		h.pool.Close()
	}
	return err
}

func Open(ctx context.Context, driver, url string) (*Handle, error) {
	switch driver {
	case "sqlite":
		db, err := OpenSQLite(ctx, url)
		if err != nil {
			return nil, err
		}
		return &Handle{DB: db, Dialect: SQLite}, nil
	case "postgres":
		pool, err := NewPool(ctx, url)
		if err != nil {
			return nil, err
		}
		return &Handle{DB: openPoolDB(pool), Dialect: Postgres, pool: pool}, nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}
}

// OpenSQLite opens path with foreign keys on and a busy timeout. SQLite has a
// single writer, so the pool is pinned to one connection; that also keeps a
// ":memory:" database alive for the lifetime of the handle.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("db: create dir: %w", err)
			}
		}
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db: ping sqlite: %w", err)
	}
	return db, nil
}
