package semantic

import (
	"fmt"

	"fortio.org/safecast"
)

// FileScopeID indexes a scope within one file's index. The module scope is
// always 0.
type FileScopeID uint32

// RootScope is the id of the module scope.
const RootScope FileScopeID = 0

// ScopedSymbolID indexes a symbol within its scope's symbol table.
type ScopedSymbolID uint32

// ScopedExpressionID numbers expressions within a scope in visit order.
type ScopedExpressionID uint32

// ScopedFunctionID numbers function definitions within a scope.
type ScopedFunctionID uint32

// ScopedClassID numbers class definitions within a scope.
type ScopedClassID uint32

// ScopedAliasID numbers import aliases within a scope.
type ScopedAliasID uint32

// LocalID is the constraint satisfied by the per-scope id types.
type LocalID interface {
	~uint32
}

// AstID pairs a per-scope id with the scope that owns it.
type AstID[L LocalID] struct {
	Scope FileScopeID
	Local L
}

func (id AstID[L]) String() string {
	return fmt.Sprintf("%d:%d", id.Scope, uint32(id.Local))
}

// denseID converts a slice length into the next dense id.
func denseID[L LocalID](n int) L {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(&InvariantError{Msg: "id space exhausted", Err: err})
	}
	return L(v)
}
