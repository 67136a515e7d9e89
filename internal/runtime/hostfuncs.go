package runtime

import (
	"context"
	"iter"

	"github.com/risor-io/risor/object"

	"github.com/jward/pyscope/internal/semantic"
)

// Host functions over a finished semantic index. Scopes are addressed by
// their integer id; scope 0 is the module.

// makeScopesFn creates "scopes" — every scope in pre-order.
//
// scopes() → [Scope]
func makeScopesFn(idx *semantic.Index) *object.Builtin {
	return object.NewBuiltin("scopes", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("scopes", 0, len(args))
		}
		return scopeList(idx.Scopes())
	})
}

// scope(id) → Scope
func makeScopeFn(idx *semantic.Index) *object.Builtin {
	return object.NewBuiltin("scope", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("scope", 1, len(args))
		}
		id, err := scopeArg(idx, args[0])
		if err != nil {
			return object.Errorf("scope: %v", err)
		}
		return scopeToMap(id, idx.Scope(id))
	})
}

// symbols(scope) → [Symbol]
func makeSymbolsFn(idx *semantic.Index) *object.Builtin {
	return object.NewBuiltin("symbols", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("symbols", 1, len(args))
		}
		id, err := scopeArg(idx, args[0])
		if err != nil {
			return object.Errorf("symbols: %v", err)
		}
		results := []object.Object{}
		for symID, sym := range idx.SymbolTable(id).All() {
			results = append(results, symbolToMap(symID, sym))
		}
		return object.NewList(results)
	})
}

// makeLookupFn creates "lookup" — a symbol by name in one scope, without
// walking enclosing scopes.
//
// lookup(scope, name) → Symbol or nil
func makeLookupFn(idx *semantic.Index) *object.Builtin {
	return object.NewBuiltin("lookup", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("lookup", 2, len(args))
		}
		id, err := scopeArg(idx, args[0])
		if err != nil {
			return object.Errorf("lookup: %v", err)
		}
		name, err := toString(args[1])
		if err != nil {
			return object.Errorf("lookup: %v", err)
		}
		table := idx.SymbolTable(id)
		symID, ok := table.SymbolIDByName(name)
		if !ok {
			return object.Nil
		}
		return symbolToMap(symID, table.Symbol(symID))
	})
}

// children(scope) → [Scope]
func makeChildrenFn(idx *semantic.Index) *object.Builtin {
	return object.NewBuiltin("children", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("children", 1, len(args))
		}
		id, err := scopeArg(idx, args[0])
		if err != nil {
			return object.Errorf("children: %v", err)
		}
		return scopeList(idx.Children(id))
	})
}

// makeAncestorsFn creates "ancestors" — the scope itself first, then each
// enclosing scope up to the module.
//
// ancestors(scope) → [Scope]
func makeAncestorsFn(idx *semantic.Index) *object.Builtin {
	return object.NewBuiltin("ancestors", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("ancestors", 1, len(args))
		}
		id, err := scopeArg(idx, args[0])
		if err != nil {
			return object.Errorf("ancestors: %v", err)
		}
		return scopeList(idx.Ancestors(id))
	})
}

// descendants(scope) → [Scope]
func makeDescendantsFn(idx *semantic.Index) *object.Builtin {
	return object.NewBuiltin("descendants", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("descendants", 1, len(args))
		}
		id, err := scopeArg(idx, args[0])
		if err != nil {
			return object.Errorf("descendants: %v", err)
		}
		return scopeList(idx.Descendants(id))
	})
}

// public_symbol(name) → Symbol or nil
func makePublicSymbolFn(idx *semantic.Index) *object.Builtin {
	return object.NewBuiltin("public_symbol", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("public_symbol", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("public_symbol: %v", err)
		}
		symID, sym, ok := idx.PublicSymbol(name)
		if !ok {
			return object.Nil
		}
		return symbolToMap(symID, sym)
	})
}

// makeScopeAtFn creates "scope_at" — the scope an expression at a byte
// offset is evaluated in.
//
// scope_at(offset) → int
func makeScopeAtFn(idx *semantic.Index) *object.Builtin {
	return object.NewBuiltin("scope_at", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("scope_at", 1, len(args))
		}
		offset, err := toInt64(args[0])
		if err != nil {
			return object.Errorf("scope_at: %v", err)
		}
		if offset < 0 || offset > int64(^uint32(0)) {
			return object.Errorf("scope_at: offset %d out of range", offset)
		}
		return object.NewInt(int64(idx.InnermostScopeAt(uint32(offset))))
	})
}

// --- Conversion helpers ---

func scopeArg(idx *semantic.Index, obj object.Object) (semantic.FileScopeID, error) {
	n, err := toInt64(obj)
	if err != nil {
		return 0, err
	}
	if n < 0 || n >= int64(idx.ScopeCount()) {
		return 0, errScopeOutOfRange(n, idx.ScopeCount())
	}
	return semantic.FileScopeID(n), nil
}

func scopeList(seq iter.Seq2[semantic.FileScopeID, semantic.Scope]) object.Object {
	results := []object.Object{}
	for id, sc := range seq {
		results = append(results, scopeToMap(id, sc))
	}
	return object.NewList(results)
}

func scopeToMap(id semantic.FileScopeID, sc semantic.Scope) object.Object {
	desc := sc.Descendants()
	m := map[string]object.Object{
		"id":                object.NewInt(int64(id)),
		"name":              object.NewString(sc.Name()),
		"kind":              object.NewString(sc.Kind().String()),
		"node":              object.NewString(sc.Node().String()),
		"start":             object.NewInt(int64(sc.Range().Start)),
		"end":               object.NewInt(int64(sc.Range().End)),
		"region_start":      object.NewInt(int64(sc.Region().Start)),
		"region_end":        object.NewInt(int64(sc.Region().End)),
		"descendants_start": object.NewInt(int64(desc.Start)),
		"descendants_end":   object.NewInt(int64(desc.End)),
		"parent":            object.Nil,
	}
	if parent, ok := sc.Parent(); ok {
		m["parent"] = object.NewInt(int64(parent))
	}
	return object.NewMap(m)
}

func symbolToMap(id semantic.ScopedSymbolID, sym semantic.Symbol) object.Object {
	flags := []object.Object{}
	for _, f := range sym.Flags().Strings() {
		flags = append(flags, object.NewString(f))
	}
	defs := []object.Object{}
	for _, d := range sym.Definitions() {
		defs = append(defs, object.NewString(d.String()))
	}
	return object.NewMap(map[string]object.Object{
		"id":          object.NewInt(int64(id)),
		"name":        object.NewString(sym.Name()),
		"used":        object.NewBool(sym.IsUsed()),
		"defined":     object.NewBool(sym.IsDefined()),
		"flags":       object.NewList(flags),
		"definitions": object.NewList(defs),
	})
}
