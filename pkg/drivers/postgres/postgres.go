// Package postgres provides connect, ensure and disconnect handlers for
// PostgreSQL connections backed by a pgx connection pool.
//
// The handle stored in the registry is a *pgxpool.Pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/connmgr/internal/logger"
	"github.com/marmos91/connmgr/pkg/drivers/props"
	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/registry"
)

// ServicePath is the catalog service path of this driver.
const ServicePath = registry.StorePostgres

// Register adds the postgres handlers to c.
func Register(c *manager.Catalog) error {
	if err := c.Register(ServicePath, manager.DefaultConnectHandler, manager.ConnectFunc(Connect)); err != nil {
		return err
	}
	if err := c.Register(ServicePath, manager.DefaultEnsureHandler, manager.EnsureFunc(Ensure)); err != nil {
		return err
	}
	return c.Register(ServicePath, manager.DefaultDisconnectHandler, manager.DisconnectFunc(Disconnect))
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, p manager.Props) (any, error) {
	var cfg Config
	if err := props.Decode(p, &cfg); err != nil {
		return nil, err
	}
	return newPool(ctx, &cfg)
}

func newPool(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.QueryTimeout.Milliseconds())
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "connmgr"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.DebugCtx(ctx, "PostgreSQL pool created",
		logger.KeyHost, poolConfig.ConnConfig.Host,
		logger.KeyDatabase, poolConfig.ConnConfig.Database,
		"max_conns", cfg.MaxConns,
	)
	return pool, nil
}

// Ensure applies the configured migrations and statements.
func Ensure(ctx context.Context, p manager.Props, conn any) error {
	pool, err := poolFrom(conn)
	if err != nil {
		return err
	}

	var cfg Config
	if err := props.Decode(p, &cfg); err != nil {
		return err
	}

	if cfg.MigrationsPath != "" {
		if err := runMigrations(ctx, &cfg); err != nil {
			return err
		}
	}

	for i, stmt := range cfg.Statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement #%d failed: %w", i, err)
		}
	}

	var version string
	if err := pool.QueryRow(ctx, "SHOW server_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to query server version: %w", err)
	}
	logger.InfoCtx(ctx, "PostgreSQL schema ensured", logger.KeyVersion, version, "statements", len(cfg.Statements))
	return nil
}

// Disconnect closes the pool. Closing waits for acquired connections to be
// released.
func Disconnect(_ context.Context, _ manager.Props, conn any) error {
	if conn == nil {
		return nil
	}
	pool, err := poolFrom(conn)
	if err != nil {
		return err
	}
	pool.Close()
	return nil
}

func poolFrom(conn any) (*pgxpool.Pool, error) {
	pool, ok := conn.(*pgxpool.Pool)
	if !ok || pool == nil {
		return nil, fmt.Errorf("postgres: expected *pgxpool.Pool handle, got %T", conn)
	}
	return pool, nil
}
