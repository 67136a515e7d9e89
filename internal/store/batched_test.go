package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_FakeIDsAreNegativeAndUnique(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore()

	var wg sync.WaitGroup
	ids := make([]int64, 50)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := batch.InsertSymbol(&Symbol{Name: "s"})
			assert.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, id := range ids {
		assert.Negative(t, id)
		assert.False(t, seen[id], "duplicate fake id %d", id)
		seen[id] = true
	}
	assert.Len(t, batch.Symbols, 50)
}

func TestCommitBatch_RemapsFakeIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.py")

	batch := NewBatchedStore()
	rootID, err := batch.InsertScope(&Scope{FileID: f.ID, ScopeIndex: 0, Kind: "module", NodeKind: "module", Name: "<module>", DescendantsStart: 1, DescendantsEnd: 2})
	require.NoError(t, err)
	fnID, err := batch.InsertScope(&Scope{FileID: f.ID, ScopeIndex: 1, ParentScopeID: ptr(rootID), Kind: "function", NodeKind: "function", Name: "f", DescendantsStart: 2, DescendantsEnd: 2})
	require.NoError(t, err)
	symID, err := batch.InsertSymbol(&Symbol{FileID: f.ID, ScopeID: fnID, Name: "y", Flags: []string{"defined"}})
	require.NoError(t, err)
	_, err = batch.InsertDefinition(&Definition{SymbolID: symID, Kind: "target", LocalID: 1})
	require.NoError(t, err)
	_, err = batch.InsertImport(&Import{FileID: f.ID, ScopeID: rootID, Module: "os", Name: "os", BoundName: "os"})
	require.NoError(t, err)
	require.NoError(t, batch.PutSnapshot(&Snapshot{FileID: f.ID, Schema: 1, Data: []byte("snap")}))

	// Nothing is written before the commit.
	scopes, err := s.ScopesByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, scopes)

	require.NoError(t, s.CommitBatch(batch))

	scopes, err = s.ScopesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, scopes, 2)
	require.NotNil(t, scopes[1].ParentScopeID)
	assert.Equal(t, scopes[0].ID, *scopes[1].ParentScopeID)
	assert.Positive(t, scopes[0].ID)

	syms, err := s.SymbolsByScope(scopes[1].ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	defs, err := s.DefinitionsBySymbol(syms[0].ID)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, int64(1), defs[0].LocalID)

	imports, err := s.ImportsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, scopes[0].ID, imports[0].ScopeID)

	snap, err := s.SnapshotByFile(f.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, []byte("snap"), snap.Data)
}

func TestCommitBatch_UnknownFakeIDRollsBack(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.py")

	batch := NewBatchedStore()
	_, err := batch.InsertScope(&Scope{FileID: f.ID, Kind: "module", NodeKind: "module", Name: "<module>"})
	require.NoError(t, err)
	_, err = batch.InsertSymbol(&Symbol{FileID: f.ID, ScopeID: -99, Name: "lost"})
	require.NoError(t, err)

	require.Error(t, s.CommitBatch(batch))

	scopes, err := s.ScopesByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, scopes, "failed batch must not leave partial rows")
}
