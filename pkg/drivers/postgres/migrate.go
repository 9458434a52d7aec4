package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"

	"github.com/marmos91/connmgr/internal/logger"
)

// runMigrations applies every pending migration found in cfg.MigrationsPath.
// golang-migrate takes an advisory lock, so concurrent processes are safe.
func runMigrations(ctx context.Context, cfg *Config) error {
	logger.InfoCtx(ctx, "Running database migrations...", logger.KeyPath, cfg.MigrationsPath)

	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{
		MigrationsTable: cfg.MigrationsTable,
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(os.DirFS(cfg.MigrationsPath), ".")
	if err != nil {
		return fmt.Errorf("failed to open migrations %q: %w", cfg.MigrationsPath, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.InfoCtx(ctx, "No migrations to apply (database is up to date)")
	case err != nil:
		return fmt.Errorf("migration failed: %w", err)
	default:
		logger.InfoCtx(ctx, "Migrations completed successfully")
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		logger.WarnCtx(ctx, "Database schema is in dirty state, manual intervention may be required", logger.KeyVersion, version)
		return fmt.Errorf("schema version %d is dirty", version)
	}
	logger.InfoCtx(ctx, "Current schema version", logger.KeyVersion, version)
	return nil
}
