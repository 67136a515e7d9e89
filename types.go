package pyscope

import "github.com/jward/pyscope/internal/store"

// Public type aliases for internal store types used in the QueryBuilder API.
// These are Go type aliases (=), identical to the internal types at compile
// time, so no conversion is needed.

type Store = store.Store
type File = store.File
type Scope = store.Scope
type Symbol = store.Symbol
type Definition = store.Definition
type Import = store.Import
