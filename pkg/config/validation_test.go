package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "default config", mutate: func(*Config) {}},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "INVALID" }, wantErr: "logging.level: failed 'oneof"},
		{name: "invalid log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "api port out of range", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: "api.port: failed 'max=65535'"},
		{name: "negative api port", mutate: func(c *Config) { c.API.Port = -1 }, wantErr: "api.port: failed 'min=1'"},
		{name: "sample rate above one", mutate: func(c *Config) { c.Telemetry.SampleRate = 1.5 }, wantErr: "telemetry.sample_rate"},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.ShutdownTimeout = 0 }, wantErr: "shutdown_timeout"},
		{
			name: "connection without store",
			mutate: func(c *Config) {
				c.Connections = append(c.Connections, ConnectionConfig{ConnectionName: "x"})
			},
			wantErr: "connections[1].store_name: failed 'required'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	assert.Error(t, Validate(nil))
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"
	cfg.Connections = []ConnectionConfig{{}}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
	assert.Contains(t, err.Error(), "connections[0].store_name")
	assert.Contains(t, err.Error(), "connections[0].connection_name")
}
