package store

// DataStore is the interface for extraction-phase writes. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// indexing) implement it.
type DataStore interface {
	// Inserts return the assigned ID.
	InsertScope(scope *Scope) (int64, error)
	InsertSymbol(sym *Symbol) (int64, error)
	InsertDefinition(def *Definition) (int64, error)
	InsertImport(imp *Import) (int64, error)
	PutSnapshot(snap *Snapshot) error
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
