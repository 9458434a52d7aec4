// Package drivers wires the built-in handler services into a catalog.
package drivers

import (
	"github.com/marmos91/connmgr/pkg/drivers/badger"
	"github.com/marmos91/connmgr/pkg/drivers/gormdb"
	"github.com/marmos91/connmgr/pkg/drivers/postgres"
	"github.com/marmos91/connmgr/pkg/drivers/s3"
	"github.com/marmos91/connmgr/pkg/manager"
)

// RegisterBuiltins registers the postgres, badger, sqlite, gorm and s3
// services in c.
func RegisterBuiltins(c *manager.Catalog) error {
	for _, register := range []func(*manager.Catalog) error{
		postgres.Register,
		badger.Register,
		gormdb.Register,
		s3.Register,
	} {
		if err := register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewCatalog returns a catalog holding the built-in services.
func NewCatalog() (*manager.Catalog, error) {
	c := manager.NewCatalog()
	if err := RegisterBuiltins(c); err != nil {
		return nil, err
	}
	return c, nil
}
