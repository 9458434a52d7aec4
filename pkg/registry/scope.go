package registry

// StoreScope is a view of a ConnectionStore bound to a single store name.
//
// Example usage:
//
//	mongo := store.Scope(registry.StoreMongo)
//	mongo.Add("main", client)
//	client, _ := mongo.Get("main")
type StoreScope struct {
	store     *ConnectionStore
	storeName string
}

// Scope returns a view of s restricted to storeName.
func (s *ConnectionStore) Scope(storeName string) *StoreScope {
	return &StoreScope{store: s, storeName: storeName}
}

// StoreName returns the store the scope is bound to.
func (v *StoreScope) StoreName() string {
	return v.storeName
}

func (v *StoreScope) Add(connectionName string, connection any) (any, error) {
	return v.store.AddNamedConnection(v.storeName, connectionName, connection)
}

func (v *StoreScope) Get(connectionName string) (any, error) {
	return v.store.GetNamedConnection(v.storeName, connectionName)
}

func (v *StoreScope) Remove(connectionName string) (*NamedConnection, error) {
	return v.store.RemoveNamedConnection(v.storeName, connectionName)
}

func (v *StoreScope) List() []NamedConnection {
	return v.store.GetStoreNamedConnections(v.storeName)
}
