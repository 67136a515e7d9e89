// Package ast defines the immutable Python syntax tree consumed by the
// semantic index builder.
//
// Every node records the byte range it covers in the source and the
// ModuleID of the Module it was lowered into. The builder uses the module
// tag to reject nodes that belong to a different parse.
package ast

import (
	"sort"
	"sync/atomic"
)

// ModuleID identifies one parsed module instance. Two parses of the same
// source produce modules with different ids.
type ModuleID uint32

var lastModuleID atomic.Uint32

// NewModuleID allocates a process-unique module id. The zero ModuleID is
// never returned.
func NewModuleID() ModuleID {
	return ModuleID(lastModuleID.Add(1))
}

// Range is a half-open byte range [Start, End) into a module's source.
type Range struct {
	Start uint32
	End   uint32
}

// Contains reports whether offset lies within r.
func (r Range) Contains(offset uint32) bool {
	return offset >= r.Start && offset < r.End
}

// Len returns the number of bytes covered by r.
func (r Range) Len() uint32 { return r.End - r.Start }

// Position is a 1-based line and column (in bytes) within a source file.
type Position struct {
	Line   int
	Column int
}

// Module is the root of a parsed Python file.
type Module struct {
	NodeBase
	Path            string
	Body            []Stmt
	HasSyntaxErrors bool

	source     []byte
	lineStarts []uint32
}

// NewModule creates an empty module for source. The parser fills in Body.
func NewModule(id ModuleID, path string, source []byte) *Module {
	m := &Module{
		NodeBase: NodeBase{Rng: Range{Start: 0, End: uint32(len(source))}, Mod: id},
		Path:     path,
		source:   source,
	}
	m.lineStarts = append(m.lineStarts, 0)
	for i, c := range source {
		if c == '\n' {
			m.lineStarts = append(m.lineStarts, uint32(i+1))
		}
	}
	return m
}

func (*Module) Kind() Kind { return KindModule }

// ID returns the identity of this parse.
func (m *Module) ID() ModuleID { return m.Mod }

// Source returns the bytes the module was parsed from.
func (m *Module) Source() []byte { return m.source }

// LineCount returns the number of lines in the source.
func (m *Module) LineCount() int { return len(m.lineStarts) }

// Text returns the source text covered by r.
func (m *Module) Text(r Range) string {
	if int(r.End) > len(m.source) || r.Start > r.End {
		return ""
	}
	return string(m.source[r.Start:r.End])
}

// Position converts a byte offset into a 1-based line and column.
func (m *Module) Position(offset uint32) Position {
	line := sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line + 1, Column: int(offset-m.lineStarts[line]) + 1}
}

// Offset converts a 1-based line and column back into a byte offset. Out of
// range positions are clamped to the source bounds.
func (m *Module) Offset(p Position) uint32 {
	if p.Line < 1 {
		return 0
	}
	if p.Line > len(m.lineStarts) {
		return uint32(len(m.source))
	}
	off := m.lineStarts[p.Line-1] + uint32(max(p.Column-1, 0))
	if int(off) > len(m.source) {
		return uint32(len(m.source))
	}
	return off
}
