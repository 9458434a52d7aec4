package registry

import (
	"fmt"
	"reflect"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/marmos91/connmgr/internal/logger"
)

// NamedConnection is a (store, name, handle) triple as held by the ConnectionStore.
type NamedConnection struct {
	StoreName      string `json:"store_name" yaml:"store_name"`
	ConnectionName string `json:"connection_name" yaml:"connection_name"`
	Connection     any    `json:"-" yaml:"-"`
}

// bucket holds the connections of a single store in insertion order.
type bucket = orderedmap.OrderedMap[string, any]

// ConnectionStore is the authoritative in-memory directory of established
// connection handles, keyed by store name and connection name.
//
// Exactly one ConnectionStore should exist per process. The composition root
// (cmd/connmgr) creates it and hands the same instance to every component.
//
// Example usage:
//
//	store := registry.NewConnectionStore()
//	store.AddNamedConnection(registry.StorePostgres, "primary", pool)
//	conn, _ := store.GetNamedConnection(registry.StorePostgres, "primary")
//
// Iteration follows insertion order, both for store names and for connection
// names within a store. Overwriting an existing key keeps its position.
type ConnectionStore struct {
	mu     sync.RWMutex
	stores *orderedmap.OrderedMap[string, *bucket]
}

// NewConnectionStore creates an empty ConnectionStore.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{
		stores: orderedmap.New[string, *bucket](),
	}
}

// AddNamedConnection stores a connection under (storeName, connectionName).
// An existing connection at the same key is replaced silently.
// Returns the stored connection.
func (s *ConnectionStore) AddNamedConnection(storeName, connectionName string, connection any) (any, error) {
	if storeName == "" {
		return nil, fmt.Errorf("%w: 'storeName' is required to add a named connection", ErrInvalidArgument)
	}
	if connectionName == "" {
		return nil, fmt.Errorf("%w: 'connectionName' is required to add a named connection", ErrInvalidArgument)
	}
	if isNil(connection) {
		return nil, fmt.Errorf("%w: 'connection' is required to add a named connection", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.stores.Get(storeName)
	if !exists {
		b = orderedmap.New[string, any]()
		s.stores.Set(storeName, b)
	}
	b.Set(connectionName, connection)

	return connection, nil
}

// AddNamedConnections adds every entry of namedConnections in order.
//
// Validation happens entry by entry: when an entry is invalid, the entries
// before it have already been added. Callers that get an error should re-read
// the store instead of assuming nothing changed.
func (s *ConnectionStore) AddNamedConnections(namedConnections []NamedConnection) ([]NamedConnection, error) {
	if namedConnections == nil {
		return nil, fmt.Errorf("%w: 'namedConnections' is required", ErrInvalidArgument)
	}

	for i, nc := range namedConnections {
		if nc.StoreName == "" {
			return nil, fmt.Errorf("%w: entry #%d: 'storeName' is required to add a named connection", ErrInvalidArgument, i)
		}
		if nc.ConnectionName == "" {
			return nil, fmt.Errorf("%w: entry #%d: named connections require a 'connectionName'", ErrInvalidArgument, i)
		}
		if isNil(nc.Connection) {
			return nil, fmt.Errorf("%w: entry #%d: named connections require a 'connection'", ErrInvalidArgument, i)
		}
		if _, err := s.AddNamedConnection(nc.StoreName, nc.ConnectionName, nc.Connection); err != nil {
			return nil, err
		}
	}

	return namedConnections, nil
}

// GetNamedConnection returns the connection stored under (storeName, connectionName).
// A missing connection is not an error: it returns nil, nil.
func (s *ConnectionStore) GetNamedConnection(storeName, connectionName string) (any, error) {
	if storeName == "" {
		return nil, fmt.Errorf("%w: 'storeName' is required to get a named connection", ErrInvalidArgument)
	}
	if connectionName == "" {
		return nil, fmt.Errorf("%w: 'connectionName' is required to get a named connection", ErrInvalidArgument)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.stores.Get(storeName)
	if !exists {
		return nil, nil
	}
	conn, _ := b.Get(connectionName)
	return conn, nil
}

// GetStoreNamedConnections returns the connections of a single store.
// Unknown stores yield an empty, non-nil slice.
func (s *ConnectionStore) GetStoreNamedConnections(storeName string) []NamedConnection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storeConnectionsLocked(storeName)
}

// GetNamedConnections returns every connection, grouped by store in store
// insertion order.
func (s *ConnectionStore) GetNamedConnections() []NamedConnection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allConnectionsLocked()
}

// RemoveNamedConnection deletes the connection at (storeName, connectionName).
// Returns the removed triple, or nil if nothing was stored there.
func (s *ConnectionStore) RemoveNamedConnection(storeName, connectionName string) (*NamedConnection, error) {
	if storeName == "" {
		return nil, fmt.Errorf("%w: 'storeName' is required to remove a connection", ErrInvalidArgument)
	}
	if connectionName == "" {
		return nil, fmt.Errorf("%w: 'connectionName' is required to remove a connection", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(storeName, connectionName), nil
}

// RemoveNamedConnections removes each entry and returns one result per entry,
// in input order. Entries that were not stored produce a nil result.
func (s *ConnectionStore) RemoveNamedConnections(namedConnections []NamedConnection) ([]*NamedConnection, error) {
	if namedConnections == nil {
		return nil, fmt.Errorf("%w: 'namedConnections' is required", ErrInvalidArgument)
	}

	removed := make([]*NamedConnection, 0, len(namedConnections))
	for i, nc := range namedConnections {
		if nc.StoreName == "" {
			return nil, fmt.Errorf("%w: entry #%d: 'storeName' is required to remove a connection", ErrInvalidArgument, i)
		}
		if nc.ConnectionName == "" {
			return nil, fmt.Errorf("%w: entry #%d: 'connectionName' is required to remove a connection", ErrInvalidArgument, i)
		}
		r, err := s.RemoveNamedConnection(nc.StoreName, nc.ConnectionName)
		if err != nil {
			return nil, err
		}
		removed = append(removed, r)
	}

	return removed, nil
}

// ClearNamedConnections removes every connection of every store.
// Returns the removed triples in GetNamedConnections order.
func (s *ConnectionStore) ClearNamedConnections() []NamedConnection {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.allConnectionsLocked()
	s.stores = orderedmap.New[string, *bucket]()
	return removed
}

// NamedConnections returns a copy of the full two-level mapping.
// Changing the returned Snapshot does not affect the store.
func (s *ConnectionStore) NamedConnections() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(Snapshot, s.stores.Len())
	for sp := s.stores.Oldest(); sp != nil; sp = sp.Next() {
		conns := make(map[string]any, sp.Value.Len())
		for cp := sp.Value.Oldest(); cp != nil; cp = cp.Next() {
			conns[cp.Key] = cp.Value
		}
		snap[sp.Key] = conns
	}
	return snap
}

// SetNamedConnections always fails: the registry state can only be changed
// through the Add/Remove/Clear operations.
func (s *ConnectionStore) SetNamedConnections(Snapshot) error {
	return fmt.Errorf("%w: ConnectionStore.namedConnections is private and cannot be assigned", ErrIllegalAssignment)
}

// ListStores returns the names of all stores that currently hold connections.
// The returned slice is a copy and safe to modify.
func (s *ConnectionStore) ListStores() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, s.stores.Len())
	for sp := s.stores.Oldest(); sp != nil; sp = sp.Next() {
		names = append(names, sp.Key)
	}
	return names
}

// Count returns the total number of stored connections.
func (s *ConnectionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for sp := s.stores.Oldest(); sp != nil; sp = sp.Next() {
		n += sp.Value.Len()
	}
	return n
}

// CountStore returns the number of connections held for storeName.
func (s *ConnectionStore) CountStore(storeName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.stores.Get(storeName)
	if !exists {
		return 0
	}
	return b.Len()
}

// Debug logs the current state of the store at debug level.
func (s *ConnectionStore) Debug() {
	for _, nc := range s.GetNamedConnections() {
		logger.Debug("ConnectionStore entry",
			logger.KeyStoreName, nc.StoreName,
			logger.KeyConnectionName, nc.ConnectionName,
			logger.KeyHandleType, fmt.Sprintf("%T", nc.Connection),
		)
	}
	logger.Debug("ConnectionStore state", "stores", s.ListStores(), "connections", s.Count())
}

func (s *ConnectionStore) storeConnectionsLocked(storeName string) []NamedConnection {
	b, exists := s.stores.Get(storeName)
	if !exists {
		return []NamedConnection{}
	}

	out := make([]NamedConnection, 0, b.Len())
	for cp := b.Oldest(); cp != nil; cp = cp.Next() {
		out = append(out, NamedConnection{
			StoreName:      storeName,
			ConnectionName: cp.Key,
			Connection:     cp.Value,
		})
	}
	return out
}

func (s *ConnectionStore) allConnectionsLocked() []NamedConnection {
	out := make([]NamedConnection, 0)
	for sp := s.stores.Oldest(); sp != nil; sp = sp.Next() {
		out = append(out, s.storeConnectionsLocked(sp.Key)...)
	}
	return out
}

// removeLocked drops the entry and the store bucket once it is empty.
func (s *ConnectionStore) removeLocked(storeName, connectionName string) *NamedConnection {
	b, exists := s.stores.Get(storeName)
	if !exists {
		return nil
	}
	conn, present := b.Delete(connectionName)
	if !present {
		return nil
	}
	if b.Len() == 0 {
		s.stores.Delete(storeName)
	}
	return &NamedConnection{
		StoreName:      storeName,
		ConnectionName: connectionName,
		Connection:     conn,
	}
}

// isNil reports whether v is nil or a typed nil pointer, map, slice, func or channel.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// CountStores returns the number of stores that currently hold connections.
func (s *ConnectionStore) CountStores() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stores.Len()
}
