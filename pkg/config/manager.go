package config

import (
	"fmt"

	"github.com/marmos91/connmgr/internal/logger"
	"github.com/marmos91/connmgr/pkg/drivers"
	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/metrics"
	"github.com/marmos91/connmgr/pkg/registry"
)

// BuildDeclarations converts the configured connections into manager
// declarations, preserving order.
func BuildDeclarations(cfg *Config) []manager.Declaration {
	decls := make([]manager.Declaration, 0, len(cfg.Connections))
	for _, c := range cfg.Connections {
		decls = append(decls, manager.Declaration{
			StoreName:             c.StoreName,
			ConnectionName:        c.ConnectionName,
			ServicePath:           c.ServicePath,
			ConnectHandlerName:    c.ConnectHandler,
			EnsureHandlerName:     c.EnsureHandler,
			DisconnectHandlerName: c.DisconnectHandler,
			ShouldEnsure:          c.ShouldEnsure,
			Props:                 manager.Props(c.Props),
		})
	}
	return decls
}

// InitializeManager creates a Manager for cfg on top of store.
//
// The built-in handler services are registered in a fresh catalog; extra
// options (for example a catalog with additional services) are applied after
// the defaults.
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	store := registry.NewConnectionStore()
//	mgr, err := config.InitializeManager(cfg, store)
//	if err != nil {
//	    return err
//	}
//	report := mgr.Init(ctx, nil)
func InitializeManager(cfg *Config, store *registry.ConnectionStore, opts ...manager.Option) (*manager.Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}

	logger.Debug("Initializing connection manager from configuration", logger.KeyCount, len(cfg.Connections))

	catalog, err := drivers.NewCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to register built-in handlers: %w", err)
	}

	all := append([]manager.Option{
		manager.WithCatalog(catalog),
		manager.WithMetrics(metrics.NewLifecycleMetrics()),
	}, opts...)

	mgr, err := manager.New(store, BuildDeclarations(cfg), all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}

	logger.Info("Connection manager configured", logger.KeyCount, len(cfg.Connections), "services", catalog.Services())
	return mgr, nil
}
