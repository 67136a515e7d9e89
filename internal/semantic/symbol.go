package semantic

import (
	"iter"
	"slices"
)

// SymbolFlags record how a name is used within a scope.
type SymbolFlags uint8

const (
	SymbolIsUsed SymbolFlags = 1 << iota
	SymbolIsDefined
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 2)
	if f&SymbolIsUsed != 0 {
		labels = append(labels, "used")
	}
	if f&SymbolIsDefined != 0 {
		labels = append(labels, "defined")
	}
	return labels
}

// Symbol is a named binding slot in one scope.
type Symbol struct {
	name        string
	flags       SymbolFlags
	definitions []Definition
}

func (s Symbol) Name() string         { return s.name }
func (s Symbol) Flags() SymbolFlags   { return s.flags }
func (s Symbol) IsUsed() bool         { return s.flags&SymbolIsUsed != 0 }
func (s Symbol) IsDefined() bool      { return s.flags&SymbolIsDefined != 0 }
func (s Symbol) DefinitionCount() int { return len(s.definitions) }

// Definitions returns every binding occurrence of the symbol in visit order.
func (s Symbol) Definitions() []Definition {
	return slices.Clone(s.definitions)
}

// SymbolTable maps names to symbols for one scope. Symbols keep their
// insertion order; ScopedSymbolID is the insertion index.
type SymbolTable struct {
	symbols []Symbol
	byName  map[string]ScopedSymbolID
}

func (t *SymbolTable) Len() int { return len(t.symbols) }

// Symbol returns the symbol with the given id. It panics if id is out of
// range.
func (t *SymbolTable) Symbol(id ScopedSymbolID) Symbol {
	return t.symbols[id]
}

func (t *SymbolTable) SymbolIDByName(name string) (ScopedSymbolID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

func (t *SymbolTable) SymbolByName(name string) (Symbol, bool) {
	id, ok := t.byName[name]
	if !ok {
		return Symbol{}, false
	}
	return t.symbols[id], true
}

// All iterates symbols in insertion order.
func (t *SymbolTable) All() iter.Seq2[ScopedSymbolID, Symbol] {
	return func(yield func(ScopedSymbolID, Symbol) bool) {
		for i, s := range t.symbols {
			if !yield(ScopedSymbolID(i), s) {
				return
			}
		}
	}
}

// SymbolTableBuilder accumulates the symbols of one scope during a build.
type SymbolTableBuilder struct {
	table SymbolTable
}

func NewSymbolTableBuilder() *SymbolTableBuilder {
	return &SymbolTableBuilder{table: SymbolTable{byName: make(map[string]ScopedSymbolID)}}
}

// AddOrUpdate inserts name with flags, or merges flags into the existing
// symbol of that name. Symbols are never removed.
func (b *SymbolTableBuilder) AddOrUpdate(name string, flags SymbolFlags) ScopedSymbolID {
	return b.addOrUpdate(name, flags, nil)
}

// AddOrUpdateWithDefinition is AddOrUpdate with SymbolIsDefined that also
// appends def to the symbol's definitions.
func (b *SymbolTableBuilder) AddOrUpdateWithDefinition(name string, def Definition) ScopedSymbolID {
	return b.addOrUpdate(name, SymbolIsDefined, &def)
}

func (b *SymbolTableBuilder) addOrUpdate(name string, flags SymbolFlags, def *Definition) ScopedSymbolID {
	t := &b.table
	id, ok := t.byName[name]
	if !ok {
		id = denseID[ScopedSymbolID](len(t.symbols))
		t.symbols = append(t.symbols, Symbol{name: name})
		t.byName[name] = id
	}
	sym := &t.symbols[id]
	sym.flags |= flags
	if def != nil {
		sym.definitions = append(sym.definitions, *def)
	}
	return id
}

// Finish returns the finalized table. The builder must not be used
// afterwards.
func (b *SymbolTableBuilder) Finish() *SymbolTable {
	t := b.table
	t.symbols = slices.Clip(t.symbols)
	b.table = SymbolTable{}
	return &t
}
