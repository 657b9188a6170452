package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// migrator abstracts the two SQL drivers the migrations run against.
type migrator interface {
	exec(ctx context.Context, query string, args ...any) error
	applied(ctx context.Context, version string) (bool, error)
	record(ctx context.Context, version string) error
}

type pgxMigrator struct {
	pool *pgxpool.Pool
}

func (m pgxMigrator) exec(ctx context.Context, query string, args ...any) error {
	_, err := m.pool.Exec(ctx, query, args...)
	return err
}

func (m pgxMigrator) applied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
		version,
	).Scan(&exists)
	return exists, err
}

func (m pgxMigrator) record(ctx context.Context, version string) error {
	return m.exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version)
}

type sqlMigrator struct {
	db *sql.DB
}

func (m sqlMigrator) exec(ctx context.Context, query string, args ...any) error {
	_, err := m.db.ExecContext(ctx, query, args...)
	return err
}

func (m sqlMigrator) applied(ctx context.Context, version string) (bool, error) {
	var n int
	err := m.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?",
		version,
	).Scan(&n)
	return n > 0, err
}

func (m sqlMigrator) record(ctx context.Context, version string) error {
	return m.exec(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version)
}

// RunMigrations applies pending Postgres migrations in order.
// Migrations are tracked in a schema_migrations table.
// There are no down migrations; fix forward only.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	return runMigrations(ctx, pgxMigrator{pool: pool}, "migrations/postgres", `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
}

func runSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, sqlMigrator{db: db}, "migrations/sqlite", `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
}

func runMigrations(ctx context.Context, m migrator, dir, bootstrap string) error {
	if err := m.exec(ctx, bootstrap); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Lexicographic order is version order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version := entry.Name()

		exists, err := m.applied(ctx, version)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		body, err := migrationsFS.ReadFile(dir + "/" + version)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", version, err)
		}

		if err := m.exec(ctx, string(body)); err != nil {
			return fmt.Errorf("applying migration %s: %w", version, err)
		}

		if err := m.record(ctx, version); err != nil {
			return fmt.Errorf("recording migration %s: %w", version, err)
		}
	}

	return nil
}
