package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
logging:
  level: debug
connections:
  - store_name: postgres
    connection_name: primary
    should_ensure: true
    props:
      dsn: postgres://app@localhost/app
      max_conns: 5
      connect_timeout: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.True(t, cfg.API.IsEnabled())
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)
	assert.NotEmpty(t, cfg.Telemetry.Profiling.ProfileTypes)

	require.Len(t, cfg.Connections, 1)
	c := cfg.Connections[0]
	assert.Equal(t, "postgres", c.StoreName)
	assert.Equal(t, "primary", c.ConnectionName)
	assert.True(t, c.ShouldEnsure)
	assert.Equal(t, "postgres://app@localhost/app", c.Props["dsn"])
	assert.EqualValues(t, 5, c.Props["max_conns"])
	assert.Equal(t, "2s", c.Props["connect_timeout"])
}

func TestLoad_PreservesConnectionOrder(t *testing.T) {
	path := writeFile(t, "config.yaml", `
connections:
  - {store_name: s3, connection_name: c}
  - {store_name: badger, connection_name: a}
  - {store_name: s3, connection_name: b}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	var names []string
	for _, c := range cfg.Connections {
		names = append(names, c.ConnectionName)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeFile(t, "config.yaml", `
logging:
  level: INFO
shutdown_timeout: 10s
`)
	t.Setenv("CONNMGR_LOGGING_LEVEL", "WARN")
	t.Setenv("CONNMGR_SHUTDOWN_TIMEOUT", "45s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, 45*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
shutdown_timeout = "5s"

[logging]
level = "ERROR"
format = "json"

[[connections]]
store_name = "sqlite"
connection_name = "app"

[connections.props]
path = "/tmp/app.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	require.Len(t, cfg.Connections, 1)
	assert.Equal(t, "/tmp/app.db", cfg.Connections[0].Props["path"])
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeFile(t, "config.yaml", `
connections:
  - store_name: postgres
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connections[0].connection_name")
}

func TestMustLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := MustLoad(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connmgr config init --config "+missing)
}

func TestMustLoad_NoDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, err := MustLoad("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configuration file found")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := GetDefaultConfig()
	cfg.ShutdownTimeout = 12 * time.Second

	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, loaded.ShutdownTimeout)
	require.Len(t, loaded.Connections, 1)
	assert.Equal(t, true, loaded.Connections[0].Props["in_memory"])
}

func TestDefaultConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "connmgr", "config.yaml"), GetDefaultConfigPath())
	assert.Equal(t, filepath.Join(dir, "connmgr"), GetConfigDir())
	assert.False(t, DefaultConfigExists())

	require.NoError(t, SaveConfig(GetDefaultConfig(), GetDefaultConfigPath()))
	assert.True(t, DefaultConfigExists())
}
