// Package gormdb provides connect, ensure and disconnect handlers for
// relational databases accessed through gorm.
//
// Two services are registered: "sqlite" (dialect fixed to sqlite) and "gorm"
// (dialect chosen by the "dialect" prop, sqlite when empty). The handle
// stored in the registry is a *gorm.DB.
package gormdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/connmgr/internal/logger"
	"github.com/marmos91/connmgr/pkg/drivers/props"
	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/registry"
)

const (
	// ServiceSQLite always opens SQLite databases.
	ServiceSQLite = registry.StoreSQLite
	// ServiceGorm opens the dialect named in props.
	ServiceGorm = "gorm"
)

// Register adds the handlers of both services to c.
func Register(c *manager.Catalog) error {
	for service, dialect := range map[string]Dialect{
		ServiceSQLite: DialectSQLite,
		ServiceGorm:   "",
	} {
		d := &driver{dialect: dialect}
		for name, h := range map[string]any{
			manager.DefaultConnectHandler:    manager.ConnectFunc(d.connect),
			manager.DefaultEnsureHandler:     manager.EnsureFunc(Ensure),
			manager.DefaultDisconnectHandler: manager.DisconnectFunc(Disconnect),
		} {
			if err := c.Register(service, name, h); err != nil {
				return err
			}
		}
	}
	return nil
}

type driver struct {
	// dialect overrides the props when set.
	dialect Dialect
}

func (d *driver) connect(ctx context.Context, p manager.Props) (any, error) {
	cfg, err := d.decode(p)
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg)
}

func (d *driver) decode(p manager.Props) (*Config, error) {
	var cfg Config
	if err := props.Decode(p, &cfg); err != nil {
		return nil, err
	}
	if d.dialect != "" {
		cfg.Dialect = d.dialect
	}
	if cfg.Dialect == "" {
		cfg.Dialect = DialectSQLite
	}
	cfg.applyDefaults()
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Open opens a *gorm.DB for cfg and applies the pool settings.
func Open(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case DialectSQLite:
		dialector = sqlite.Open(cfg.sqliteDSN())
	case DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported dialect: %q", cfg.Dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Dialect, err)
	}

	logger.DebugCtx(ctx, "Gorm database opened", "dialect", string(cfg.Dialect), logger.KeyPath, cfg.Path)
	return db, nil
}

// Ensure auto-migrates the schema marker and the configured models, then runs
// the configured statements.
func Ensure(ctx context.Context, p manager.Props, conn any) error {
	db, err := dbFrom(conn)
	if err != nil {
		return err
	}

	var cfg Config
	if err := props.Decode(p, &cfg); err != nil {
		return err
	}

	toMigrate, err := resolveModels(cfg.Models)
	if err != nil {
		return err
	}

	db = db.WithContext(ctx)
	if err := db.AutoMigrate(toMigrate...); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}

	for i, stmt := range cfg.Statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("statement #%d failed: %w", i, err)
		}
	}

	marker := SchemaMarker{AppliedAt: time.Now().UTC(), Models: strings.Join(cfg.Models, ",")}
	if err := db.Create(&marker).Error; err != nil {
		return fmt.Errorf("failed to record schema marker: %w", err)
	}

	logger.DebugCtx(ctx, "Gorm schema ensured", "models", len(cfg.Models), "statements", len(cfg.Statements))
	return nil
}

// Disconnect closes the underlying *sql.DB.
func Disconnect(_ context.Context, _ manager.Props, conn any) error {
	if conn == nil {
		return nil
	}
	db, err := dbFrom(conn)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

func dbFrom(conn any) (*gorm.DB, error) {
	db, ok := conn.(*gorm.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("gormdb: expected *gorm.DB handle, got %T", conn)
	}
	return db, nil
}
