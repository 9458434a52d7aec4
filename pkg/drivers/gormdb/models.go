package gormdb

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// SchemaMarker records every ensure run of a gorm connection.
// It is always migrated.
type SchemaMarker struct {
	ID        uint      `gorm:"primaryKey"`
	AppliedAt time.Time `gorm:"not null"`
	Models    string
}

func (SchemaMarker) TableName() string { return "connmgr_schema_marker" }

var (
	modelsMu sync.RWMutex
	models   = map[string]any{}
)

// RegisterModel makes model available to the "models" prop under name.
// Registering the same name twice replaces the previous model.
func RegisterModel(name string, model any) {
	if name == "" || model == nil {
		panic("gormdb: RegisterModel requires a name and a model")
	}
	modelsMu.Lock()
	defer modelsMu.Unlock()
	models[name] = model
}

// RegisteredModels returns the registered model names, sorted.
func RegisteredModels() []string {
	modelsMu.RLock()
	defer modelsMu.RUnlock()
	names := make([]string, 0, len(models))
	for n := range models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func resolveModels(names []string) ([]any, error) {
	modelsMu.RLock()
	defer modelsMu.RUnlock()

	out := []any{&SchemaMarker{}}
	for _, n := range names {
		m, ok := models[n]
		if !ok {
			return nil, fmt.Errorf("model %q is not registered", n)
		}
		out = append(out, m)
	}
	return out, nil
}
