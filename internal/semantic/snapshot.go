package semantic

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/jward/pyscope/internal/ast"
)

// SnapshotSchema is the encoded layout version; bump it when the layout
// changes so stale snapshots are rebuilt instead of decoded.
const SnapshotSchema uint16 = 2

// snapshotPayload is the msgpack form of an Index. Maps are flattened into
// slices sorted by key so equal indexes encode to equal bytes.
type snapshotPayload struct {
	Schema       uint16
	Scopes       []scopeRecord
	SymbolTables [][]symbolRecord
	AstIDs       []astIDsRecord

	ExpressionScopes []keyScopeRecord
	DefinitionScopes []keyScopeRecord
	IntroducedScopes []keyScopeRecord
}

type scopeRecord struct {
	Name        string
	Parent      uint32
	HasParent   bool
	Kind        uint8
	NodeKind    uint8
	NodeScope   uint32
	NodeLocal   uint32
	Start, End  uint32
	RegionStart uint32
	RegionEnd   uint32
	DescStart   uint32
	DescEnd     uint32
}

type symbolRecord struct {
	Name        string
	Flags       uint8
	Definitions []definitionRecord
}

type definitionRecord struct {
	Kind uint8
	ID   uint32
}

type keyRecord struct {
	Kind       uint8
	Start, End uint32
}

type astIDsRecord struct {
	Expressions []keyRecord
	Functions   []keyRecord
	Classes     []keyRecord
	Aliases     []keyRecord
}

type keyScopeRecord struct {
	Key   keyRecord
	Scope uint32
}

func toKeyRecord(k NodeKey) keyRecord {
	return keyRecord{Kind: uint8(k.Kind), Start: k.Start, End: k.End}
}

func (r keyRecord) nodeKey() NodeKey {
	return NodeKey{Kind: ast.Kind(r.Kind), Start: r.Start, End: r.End}
}

func compareKeys(a, b keyRecord) int {
	return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End), cmp.Compare(a.Kind, b.Kind))
}

func toKeyRecords(keys []NodeKey) []keyRecord {
	out := make([]keyRecord, len(keys))
	for i, k := range keys {
		out[i] = toKeyRecord(k)
	}
	return out
}

func fromKeyRecords(records []keyRecord) []NodeKey {
	out := make([]NodeKey, len(records))
	for i, r := range records {
		out[i] = r.nodeKey()
	}
	return out
}

func sortedKeyScopes[K comparable](m map[K]FileScopeID, key func(K) NodeKey) []keyScopeRecord {
	out := make([]keyScopeRecord, 0, len(m))
	for k, scope := range m {
		out = append(out, keyScopeRecord{Key: toKeyRecord(key(k)), Scope: uint32(scope)})
	}
	slices.SortFunc(out, func(a, b keyScopeRecord) int { return compareKeys(a.Key, b.Key) })
	return out
}

// MarshalSnapshot encodes the index with msgpack. Equal indexes produce
// equal bytes.
func (idx *Index) MarshalSnapshot() ([]byte, error) {
	p := snapshotPayload{
		Schema:       SnapshotSchema,
		Scopes:       make([]scopeRecord, len(idx.scopes)),
		SymbolTables: make([][]symbolRecord, len(idx.symbolTables)),
		AstIDs:       make([]astIDsRecord, len(idx.astIDs)),
	}
	for i, s := range idx.scopes {
		p.Scopes[i] = scopeRecord{
			Name:        s.name,
			Parent:      uint32(s.parent),
			HasParent:   s.hasParent,
			Kind:        uint8(s.kind),
			NodeKind:    uint8(s.node.Kind),
			NodeScope:   uint32(s.node.Scope),
			NodeLocal:   s.node.Local,
			Start:       s.rng.Start,
			End:         s.rng.End,
			RegionStart: s.region.Start,
			RegionEnd:   s.region.End,
			DescStart:   uint32(s.descendants.Start),
			DescEnd:     uint32(s.descendants.End),
		}
	}
	for i, t := range idx.symbolTables {
		records := make([]symbolRecord, len(t.symbols))
		for j, sym := range t.symbols {
			defs := make([]definitionRecord, len(sym.definitions))
			for k, d := range sym.definitions {
				defs[k] = definitionRecord{Kind: uint8(d.kind), ID: d.id}
			}
			records[j] = symbolRecord{Name: sym.name, Flags: uint8(sym.flags), Definitions: defs}
		}
		p.SymbolTables[i] = records
	}
	for i, ids := range idx.astIDs {
		p.AstIDs[i] = astIDsRecord{
			Expressions: toKeyRecords(ids.expressions.keys),
			Functions:   toKeyRecords(ids.functions.keys),
			Classes:     toKeyRecords(ids.classes.keys),
			Aliases:     toKeyRecords(ids.aliases.keys),
		}
	}
	p.ExpressionScopes = sortedKeyScopes(idx.scopesByExpression, func(k ExpressionNodeKey) NodeKey { return k.NodeKey })
	p.DefinitionScopes = sortedKeyScopes(idx.scopesByDefinition, func(k DefinitionNodeKey) NodeKey { return k.NodeKey })
	p.IntroducedScopes = sortedKeyScopes(idx.introducedScopes, func(k DefinitionNodeKey) NodeKey { return k.NodeKey })

	data, err := msgpack.Marshal(&p)
	if err != nil {
		return nil, fmt.Errorf("semantic: encode snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes an index written by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*Index, error) {
	var p snapshotPayload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("semantic: decode snapshot: %w", err)
	}
	if p.Schema != SnapshotSchema {
		return nil, fmt.Errorf("semantic: snapshot schema %d: %w", p.Schema, ErrSnapshotVersion)
	}
	n := len(p.Scopes)
	if n == 0 || len(p.SymbolTables) != n || len(p.AstIDs) != n {
		return nil, fmt.Errorf("semantic: decode snapshot: inconsistent scope count")
	}

	idx := &Index{
		scopes:             make([]Scope, n),
		symbolTables:       make([]*SymbolTable, n),
		astIDs:             make([]*AstIDs, n),
		scopesByExpression: make(map[ExpressionNodeKey]FileScopeID, len(p.ExpressionScopes)),
		scopesByDefinition: make(map[DefinitionNodeKey]FileScopeID, len(p.DefinitionScopes)),
		scopesByNode:       make(map[NodeWithScopeID]FileScopeID, n),
		introducedScopes:   make(map[DefinitionNodeKey]FileScopeID, len(p.IntroducedScopes)),
	}
	for i, r := range p.Scopes {
		node := NodeWithScopeID{Kind: NodeWithScopeKind(r.NodeKind), Scope: FileScopeID(r.NodeScope), Local: r.NodeLocal}
		idx.scopes[i] = Scope{
			name:        r.Name,
			parent:      FileScopeID(r.Parent),
			hasParent:   r.HasParent,
			kind:        ScopeKind(r.Kind),
			node:        node,
			rng:         ast.Range{Start: r.Start, End: r.End},
			region:      ast.Range{Start: r.RegionStart, End: r.RegionEnd},
			descendants: ScopeRange{Start: FileScopeID(r.DescStart), End: FileScopeID(r.DescEnd)},
			closed:      true,
		}
		idx.scopesByNode[node] = FileScopeID(i)
	}
	for i, records := range p.SymbolTables {
		b := NewSymbolTableBuilder()
		for _, r := range records {
			b.AddOrUpdate(r.Name, SymbolFlags(r.Flags))
			for _, d := range r.Definitions {
				b.addOrUpdate(r.Name, 0, &Definition{kind: DefinitionKind(d.Kind), id: d.ID})
			}
		}
		idx.symbolTables[i] = b.Finish()
	}
	for i, r := range p.AstIDs {
		ids := &AstIDs{}
		ids.expressions.rebuild(fromKeyRecords(r.Expressions))
		ids.functions.rebuild(fromKeyRecords(r.Functions))
		ids.classes.rebuild(fromKeyRecords(r.Classes))
		ids.aliases.rebuild(fromKeyRecords(r.Aliases))
		idx.astIDs[i] = ids
	}
	for _, r := range p.ExpressionScopes {
		idx.scopesByExpression[ExpressionNodeKey{r.Key.nodeKey()}] = FileScopeID(r.Scope)
	}
	for _, r := range p.DefinitionScopes {
		idx.scopesByDefinition[DefinitionNodeKey{r.Key.nodeKey()}] = FileScopeID(r.Scope)
	}
	for _, r := range p.IntroducedScopes {
		idx.introducedScopes[DefinitionNodeKey{r.Key.nodeKey()}] = FileScopeID(r.Scope)
	}
	return idx, nil
}
