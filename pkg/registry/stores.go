package registry

// Conventional store names. The set is open: any non-empty string is a valid
// store name.
const (
	StoreMongo    = "mongo"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreBadger   = "badger"
	StoreS3       = "s3"
)

// Snapshot is a detached copy of the registry: store name -> connection name -> handle.
type Snapshot map[string]map[string]any

// Count returns the number of connections in the snapshot.
func (s Snapshot) Count() int {
	n := 0
	for _, conns := range s {
		n += len(conns)
	}
	return n
}
