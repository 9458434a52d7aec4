package postgres

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the props schema of a postgres connection.
//
// Either DSN or the discrete connection fields must be set.
type Config struct {
	DSN string `mapstructure:"dsn"`

	Host     string `mapstructure:"host" validate:"required_without=DSN"`
	Port     int    `mapstructure:"port" validate:"min=0,max=65535"`
	Database string `mapstructure:"database" validate:"required_without=DSN"`
	User     string `mapstructure:"user" validate:"required_without=DSN"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`

	// Pool sizing
	MaxConns          int32         `mapstructure:"max_conns" validate:"gte=0"`
	MinConns          int32         `mapstructure:"min_conns" validate:"gte=0,ltefield=MaxConns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`

	// MigrationsPath is a directory of golang-migrate *.up.sql/*.down.sql
	// files applied by the ensure handler. Empty disables migrations.
	MigrationsPath  string `mapstructure:"migrations_path"`
	MigrationsTable string `mapstructure:"migrations_table"`

	// Statements are executed in order by the ensure handler, after migrations.
	Statements []string `mapstructure:"statements"`
}

// ApplyDefaults sets default values for unspecified fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "prefer"
	}
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 && c.MaxConns >= 2 {
		c.MinConns = 2
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 30 * time.Minute
	}
	if c.HealthCheckPeriod == 0 {
		c.HealthCheckPeriod = time.Minute
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 30 * time.Second
	}
	if c.MigrationsTable == "" {
		c.MigrationsTable = "schema_migrations"
	}
}

// ConnectionString returns DSN when set, otherwise a URL built from the
// discrete fields.
func (c *Config) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}
