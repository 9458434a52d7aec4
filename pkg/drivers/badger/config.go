package badger

import "github.com/marmos91/connmgr/internal/bytesize"

// Config is the props schema of a badger connection.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path     string `mapstructure:"path" validate:"required_without=InMemory"`
	InMemory bool   `mapstructure:"in_memory"`

	SyncWrites bool `mapstructure:"sync_writes"`
	ReadOnly   bool `mapstructure:"read_only"`

	// Cache and value log sizes, e.g. "256Mi". Zero keeps badger's default.
	BlockCacheSize   bytesize.ByteSize `mapstructure:"block_cache_size"`
	IndexCacheSize   bytesize.ByteSize `mapstructure:"index_cache_size"`
	ValueLogFileSize bytesize.ByteSize `mapstructure:"value_log_file_size"`

	// GCDiscardRatio is passed to RunValueLogGC by the ensure handler.
	GCDiscardRatio float64 `mapstructure:"gc_discard_ratio" validate:"gte=0,lt=1"`

	// SchemaKey and SchemaVersion form the marker written by ensure.
	SchemaKey     string `mapstructure:"schema_key"`
	SchemaVersion string `mapstructure:"schema_version"`
}

func (c *Config) ApplyDefaults() {
	if c.GCDiscardRatio == 0 {
		c.GCDiscardRatio = 0.5
	}
	if c.SchemaKey == "" {
		c.SchemaKey = "connmgr:schema"
	}
	if c.SchemaVersion == "" {
		c.SchemaVersion = "1"
	}
}
