package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/registry"
)

func TestBuildDeclarations(t *testing.T) {
	cfg := &Config{Connections: []ConnectionConfig{
		{
			StoreName:         "postgres",
			ConnectionName:    "primary",
			ServicePath:       "pg",
			ConnectHandler:    "open",
			EnsureHandler:     "migrate",
			DisconnectHandler: "close",
			ShouldEnsure:      true,
			Props:             map[string]any{"dsn": "x"},
		},
		{StoreName: "badger", ConnectionName: "cache"},
	}}

	decls := BuildDeclarations(cfg)
	require.Len(t, decls, 2)

	assert.Equal(t, manager.Declaration{
		StoreName:             "postgres",
		ConnectionName:        "primary",
		ServicePath:           "pg",
		ConnectHandlerName:    "open",
		EnsureHandlerName:     "migrate",
		DisconnectHandlerName: "close",
		ShouldEnsure:          true,
		Props:                 manager.Props{"dsn": "x"},
	}, decls[0])
	assert.Equal(t, "cache", decls[1].ConnectionName)
	assert.False(t, decls[1].ShouldEnsure)
}

func TestInitializeManager(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Connections = append(cfg.Connections, ConnectionConfig{
		StoreName:      registry.StoreSQLite,
		ConnectionName: "app",
		ShouldEnsure:   true,
		Props:          map[string]any{"path": ":memory:"},
	})

	store := registry.NewConnectionStore()
	mgr, err := InitializeManager(cfg, store)
	require.NoError(t, err)

	ctx := context.Background()
	report := mgr.Init(ctx, nil)
	require.NoError(t, report.Err())
	assert.Equal(t, 2, store.Count())
	assert.Equal(t, []string{registry.StoreBadger, registry.StoreSQLite}, store.ListStores())

	require.NoError(t, mgr.Disconnect(ctx).Err())
	assert.Equal(t, 0, store.Count())
}

func TestInitializeManager_Errors(t *testing.T) {
	_, err := InitializeManager(nil, registry.NewConnectionStore())
	assert.Error(t, err)

	_, err = InitializeManager(GetDefaultConfig(), nil)
	assert.Error(t, err)
}
