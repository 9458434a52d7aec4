package gormdb

import (
	"fmt"
	"time"
)

// Dialect selects the gorm dialector.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config is the props schema of a gorm connection.
type Config struct {
	Dialect Dialect `mapstructure:"dialect" validate:"omitempty,oneof=sqlite postgres"`

	// Path is the SQLite database file. ":memory:" opens a private in-memory
	// database.
	Path string `mapstructure:"path"`

	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"dsn"`

	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	// Models lists names passed to RegisterModel. Ensure auto-migrates them.
	Models []string `mapstructure:"models"`

	// Statements are executed in order by ensure, after AutoMigrate.
	Statements []string `mapstructure:"statements"`
}

// applyDefaults fills in missing pool settings once the dialect is known.
func (c *Config) applyDefaults() {
	switch c.Dialect {
	case DialectPostgres:
		if c.MaxOpenConns == 0 {
			c.MaxOpenConns = 25
		}
		if c.MaxIdleConns == 0 {
			c.MaxIdleConns = 5
		}
	default:
		// A single writer avoids SQLITE_BUSY under concurrent use.
		if c.MaxOpenConns == 0 {
			c.MaxOpenConns = 1
		}
		if c.MaxIdleConns == 0 {
			c.MaxIdleConns = 1
		}
	}
}

func (c *Config) check() error {
	switch c.Dialect {
	case DialectSQLite:
		if c.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DialectPostgres:
		if c.DSN == "" {
			return fmt.Errorf("postgres dsn is required")
		}
	default:
		return fmt.Errorf("unsupported dialect: %q", c.Dialect)
	}
	return nil
}

// sqliteDSN adds the pragmas every file-backed database is opened with.
func (c *Config) sqliteDSN() string {
	if c.Path == ":memory:" {
		return c.Path
	}
	return c.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}
