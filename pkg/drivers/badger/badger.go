// Package badger provides connect, ensure and disconnect handlers for
// embedded BadgerDB databases.
//
// The handle stored in the registry is a *badgerdb.DB.
package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/connmgr/internal/logger"
	"github.com/marmos91/connmgr/pkg/drivers/props"
	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/metrics"
	"github.com/marmos91/connmgr/pkg/registry"
)

// ServicePath is the catalog service path of this driver.
const ServicePath = registry.StoreBadger

// Driver holds the optional metrics sink shared by the handlers.
type Driver struct {
	metrics metrics.BadgerMetrics
}

// New creates a Driver. m may be nil.
func New(m metrics.BadgerMetrics) *Driver {
	return &Driver{metrics: m}
}

// Register adds the badger handlers to c.
func Register(c *manager.Catalog) error {
	return New(metrics.NewBadgerMetrics()).Register(c)
}

func (d *Driver) Register(c *manager.Catalog) error {
	for name, h := range map[string]any{
		manager.DefaultConnectHandler:    manager.ConnectFunc(d.Connect),
		manager.DefaultEnsureHandler:     manager.EnsureFunc(d.Ensure),
		manager.DefaultDisconnectHandler: manager.DisconnectFunc(d.Disconnect),
	} {
		if err := c.Register(ServicePath, name, h); err != nil {
			return err
		}
	}
	return nil
}

// Connect opens the database.
func (d *Driver) Connect(ctx context.Context, p manager.Props) (any, error) {
	var cfg Config
	if err := props.Decode(p, &cfg); err != nil {
		return nil, err
	}

	opts := badgerdb.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithReadOnly(cfg.ReadOnly).
		WithLogger(badgerLogger{})
	if cfg.BlockCacheSize > 0 {
		opts = opts.WithBlockCacheSize(cfg.BlockCacheSize.Int64())
	}
	if cfg.IndexCacheSize > 0 {
		opts = opts.WithIndexCacheSize(cfg.IndexCacheSize.Int64())
	}
	if cfg.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(cfg.ValueLogFileSize.Int64())
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.DebugCtx(ctx, "BadgerDB opened", logger.KeyPath, cfg.Path, "in_memory", cfg.InMemory,
		"block_cache", opts.BlockCacheSize)
	return db, nil
}

// Ensure writes the schema marker if it is missing, runs one value log GC
// round and reports cache statistics.
func (d *Driver) Ensure(ctx context.Context, p manager.Props, conn any) error {
	db, err := dbFrom(conn)
	if err != nil {
		return err
	}

	var cfg Config
	if err := props.Decode(p, &cfg); err != nil {
		return err
	}

	if !cfg.ReadOnly {
		if err := writeMarker(db, &cfg); err != nil {
			return err
		}
	}

	if !cfg.InMemory && !cfg.ReadOnly {
		err := db.RunValueLogGC(cfg.GCDiscardRatio)
		if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
			logger.WarnCtx(ctx, "BadgerDB value log GC failed", logger.Err(err))
		}
	}

	d.recordCacheStats(ctx, db)
	return nil
}

func writeMarker(db *badgerdb.DB, cfg *Config) error {
	key := []byte(cfg.SchemaKey)
	return db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badgerdb.ErrKeyNotFound):
			return txn.Set(key, []byte(cfg.SchemaVersion))
		case err != nil:
			return fmt.Errorf("failed to read schema marker: %w", err)
		}

		return item.Value(func(val []byte) error {
			if string(val) != cfg.SchemaVersion {
				return fmt.Errorf("schema version mismatch: stored %q, expected %q", val, cfg.SchemaVersion)
			}
			return nil
		})
	})
}

func (d *Driver) recordCacheStats(ctx context.Context, db *badgerdb.DB) {
	if d.metrics == nil {
		return
	}
	lc := logger.FromContext(ctx)
	name := ""
	if lc != nil {
		name = lc.ConnectionName
	}
	if m := db.BlockCacheMetrics(); m != nil {
		d.metrics.RecordCacheStats(name, "block", m.Hits(), m.Misses(), m.Ratio())
	}
	if m := db.IndexCacheMetrics(); m != nil {
		d.metrics.RecordCacheStats(name, "index", m.Hits(), m.Misses(), m.Ratio())
	}
}

// Disconnect closes the database.
func (d *Driver) Disconnect(_ context.Context, _ manager.Props, conn any) error {
	if conn == nil {
		return nil
	}
	db, err := dbFrom(conn)
	if err != nil {
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	return nil
}

func dbFrom(conn any) (*badgerdb.DB, error) {
	db, ok := conn.(*badgerdb.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("badger: expected *badger.DB handle, got %T", conn)
	}
	return db, nil
}

// badgerLogger routes badger's internal logging to the process logger.
// Informational chatter is demoted to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logger.Error("badger: "+trimNewline(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Warningf(format string, args ...any) {
	logger.Warn("badger: "+trimNewline(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Infof(format string, args ...any) {
	logger.Debug("badger: "+trimNewline(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Debugf(format string, args ...any) {
	logger.Debug("badger: "+trimNewline(fmt.Sprintf(format, args...)))
}

func trimNewline(s string) string {
	for len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	return s
}
