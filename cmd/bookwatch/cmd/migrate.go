package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/bookwatch/internal/config"
	"github.com/donaldgifford/bookwatch/internal/store"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: "Apply the document schema to the configured SQL store. Postgres is\n" +
			"migrated explicitly; SQLite databases are migrated whenever they are\n" +
			"opened. Memory and Redis stores need no schema.",
		RunE: runMigrate,
	}
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Store.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		log.Info("running migrations", "host", cfg.Store.Database.Host)
		if err := store.RunMigrations(ctx, pool); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

	case config.BackendSQLite:
		log.Info("running migrations", "path", cfg.Store.SQLite.Path)
		s, err := store.NewSQLiteStore(ctx, cfg.Store.SQLite.Path, cfg.Store.PollInterval, log)
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		if err := s.Close(); err != nil {
			return fmt.Errorf("closing sqlite: %w", err)
		}

	default:
		log.Info("store backend has no schema, nothing to migrate", "backend", cfg.Store.Backend)
		return nil
	}

	log.Info("migrations complete")
	return nil
}
