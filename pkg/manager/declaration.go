package manager

import (
	"errors"
	"fmt"
)

// Declaration describes how to obtain, configure and tear down one named
// connection.
//
// Handlers can be set directly (Connector, Configurer, Disconnector) or left
// nil, in which case they are looked up in the Catalog under ServicePath
// using the handler names. Directly set handlers always win.
type Declaration struct {
	StoreName      string
	ConnectionName string

	// Props is passed unchanged to every handler.
	Props Props

	// ServicePath locates the handlers in the Catalog. Defaults to StoreName.
	ServicePath string

	ConnectHandlerName    string
	EnsureHandlerName     string
	DisconnectHandlerName string

	// ShouldEnsure enables the ensure phase for this declaration.
	ShouldEnsure bool

	Connector    Connector
	Configurer   Configurer
	Disconnector Disconnector

	// Connection is the handle returned by the last successful connect.
	Connection any

	// resolution errors, reported when the matching phase runs
	connectErr    error
	ensureErr     error
	disconnectErr error
}

// Key returns the "<store>['<name>']" label used in log messages.
func (d *Declaration) Key() string {
	return fmt.Sprintf("%s['%s']", d.StoreName, d.ConnectionName)
}

func (d *Declaration) servicePath() string {
	if d.ServicePath != "" {
		return d.ServicePath
	}
	return d.StoreName
}

func (d *Declaration) connectHandlerName() string {
	return handlerName(d.ConnectHandlerName, DefaultConnectHandler)
}

func (d *Declaration) ensureHandlerName() string {
	return handlerName(d.EnsureHandlerName, DefaultEnsureHandler)
}

func (d *Declaration) disconnectHandlerName() string {
	return handlerName(d.DisconnectHandlerName, DefaultDisconnectHandler)
}

func handlerName(override, def string) string {
	if override != "" {
		return override
	}
	return def
}

// resolve fills the missing handlers from catalog. Failures are kept on the
// declaration and surface as per-declaration failures of the phase.
func (d *Declaration) resolve(catalog *Catalog) {
	if d.Connector == nil {
		d.Connector, d.connectErr = lookup(catalog, d.servicePath(), d.connectHandlerName(), asConnector)
	}
	// Declarations that never ensure are not resolved for it.
	if d.ShouldEnsure && d.Configurer == nil {
		d.Configurer, d.ensureErr = lookup(catalog, d.servicePath(), d.ensureHandlerName(), asConfigurer)
	}
	if d.Disconnector == nil {
		d.Disconnector, d.disconnectErr = lookup(catalog, d.servicePath(), d.disconnectHandlerName(), asDisconnector)
	}
}

func lookup[T any](catalog *Catalog, servicePath, name string, adapt func(any) (T, error)) (T, error) {
	var zero T
	h, ok := catalog.Lookup(servicePath, name)
	if !ok {
		return zero, fmt.Errorf("%w: %s/%s", ErrHandlerNotFound, servicePath, name)
	}
	v, err := adapt(h)
	if err != nil {
		return zero, fmt.Errorf("%s/%s: %w", servicePath, name, err)
	}
	return v, nil
}

func (d *Declaration) validate() error {
	var errs []error
	if d.StoreName == "" {
		errs = append(errs, errors.New("declaration is missing 'storeName'"))
	}
	if d.ConnectionName == "" {
		errs = append(errs, errors.New("declaration is missing 'connectionName'"))
	}
	return errors.Join(errs...)
}
