package manager

import (
	"fmt"
	"sort"
	"sync"
)

// Default handler names, used when a declaration does not override them.
const (
	DefaultConnectHandler    = "connect"
	DefaultEnsureHandler     = "ensure"
	DefaultDisconnectHandler = "disconnect"
)

// Catalog maps (service path, handler name) to handler values. Services
// register their handlers once at startup; the manager resolves declarations
// against the catalog when it is built.
//
// Example usage:
//
//	catalog := manager.NewCatalog()
//	catalog.MustRegister("billing", "connect", manager.ConnectFunc(openBillingDB))
//	catalog.MustRegister("billing", "disconnect", manager.DisconnectFunc(closeBillingDB))
type Catalog struct {
	mu       sync.RWMutex
	services map[string]map[string]any
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{services: make(map[string]map[string]any)}
}

// Register adds a handler under (servicePath, handlerName). The handler must
// be a Connector, Configurer or Disconnector, or a function with one of their
// method signatures. A later registration under the same key replaces the
// earlier one.
func (c *Catalog) Register(servicePath, handlerName string, handler any) error {
	if servicePath == "" || handlerName == "" {
		return fmt.Errorf("%w: service path and handler name are required", ErrInvalidHandler)
	}
	if !isHandler(handler) {
		return fmt.Errorf("%w: %T registered as %s/%s", ErrInvalidHandler, handler, servicePath, handlerName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	handlers, ok := c.services[servicePath]
	if !ok {
		handlers = make(map[string]any)
		c.services[servicePath] = handlers
	}
	handlers[handlerName] = handler
	return nil
}

// MustRegister is like Register but panics on error.
func (c *Catalog) MustRegister(servicePath, handlerName string, handler any) {
	if err := c.Register(servicePath, handlerName, handler); err != nil {
		panic(err)
	}
}

// Lookup returns the handler registered under (servicePath, handlerName).
func (c *Catalog) Lookup(servicePath, handlerName string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	h, ok := c.services[servicePath][handlerName]
	return h, ok
}

// Services returns the registered service paths, sorted.
func (c *Catalog) Services() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.services))
	for name := range c.services {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Handlers returns the handler names registered for servicePath, sorted.
func (c *Catalog) Handlers(servicePath string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.services[servicePath]))
	for name := range c.services[servicePath] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func isHandler(h any) bool {
	if h == nil {
		return false
	}
	if _, err := asConnector(h); err == nil {
		return true
	}
	if _, err := asConfigurer(h); err == nil {
		return true
	}
	_, err := asDisconnector(h)
	return err == nil
}
