package store

import "time"

// File is one indexed Python source file. Module is its dotted module
// name relative to the indexed root, or empty when unknown.
type File struct {
	ID              int64
	Path            string
	Module          string
	Hash            string
	Size            int64
	LineCount       int
	HasSyntaxErrors bool
	LastIndexed     time.Time
}

// Scope is one row per semantic scope. ScopeIndex is the FileScopeID
// within the file; descendants are the half-open range of ScopeIndex values
// nested inside it.
type Scope struct {
	ID                int64
	FileID            int64
	ScopeIndex        int
	ParentScopeID     *int64
	Kind              string
	NodeKind          string
	Name              string
	StartOffset       int
	EndOffset         int
	StartLine         int
	StartCol          int
	EndLine           int
	EndCol            int
	// Region is the span whose expressions are evaluated in this scope. It
	// excludes a definition's decorators, defaults and bases.
	RegionStartOffset int
	RegionEndOffset   int
	RegionStartLine   int
	RegionStartCol    int
	RegionEndLine     int
	RegionEndCol      int
	DescendantsStart  int
	DescendantsEnd    int
}

// Symbol is one entry of a scope's symbol table.
type Symbol struct {
	ID          int64
	FileID      int64
	ScopeID     int64
	SymbolIndex int
	Name        string
	Flags       []string
}

// IsUsed reports whether the symbol carries the "used" flag.
func (s *Symbol) IsUsed() bool { return hasFlag(s.Flags, "used") }

// IsDefined reports whether the symbol carries the "defined" flag.
func (s *Symbol) IsDefined() bool { return hasFlag(s.Flags, "defined") }

// Definition is one binding of a symbol, in binding order.
type Definition struct {
	ID       int64
	SymbolID int64
	Ordinal  int
	Kind     string
	LocalID  int64
}

// Import is one alias of an import statement.
type Import struct {
	ID        int64
	FileID    int64
	ScopeID   int64
	Module    string
	Name      string
	BoundName string
	Level     int
}

// Snapshot is the encoded semantic index of a file.
type Snapshot struct {
	FileID int64
	Schema int
	Data   []byte
}
