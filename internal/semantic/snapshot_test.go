package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jward/pyscope/internal/ast"
)

const snapshotSource = `
import os.path as osp
from typing import Generic

class Box[T](Generic):
    size = 0

    def put(self, item: T, *, force=(flag := True)) -> None:
        self.item = item
        if flag:
            del self.item

def main():
    b = Box()
    return b if b else None
`

func TestSnapshot_Roundtrip(t *testing.T) {
	t.Parallel()
	mod, idx := buildSource(t, snapshotSource)

	data, err := idx.MarshalSnapshot()
	require.NoError(t, err)

	decoded, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.True(t, idx.Equal(decoded))
	assert.Equal(t, idx.ScopeCount(), decoded.ScopeCount())

	// Queries answer the same on the decoded index.
	ast.Inspect(mod.Body, func(n ast.Node) {
		e, ok := n.(ast.Expr)
		if !ok {
			return
		}
		want, _ := idx.ExpressionID(e)
		got, ok := decoded.ExpressionID(e)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	cls := mod.Body[2].(*ast.ClassDef)
	want, ok := idx.IntroducedScopeID(cls)
	require.True(t, ok)
	got, ok := decoded.IntroducedScopeID(cls)
	require.True(t, ok)
	assert.Equal(t, want, got)

	node, ok := decoded.NodeScopeID(decoded.Scope(want).Node())
	require.True(t, ok)
	assert.Equal(t, want, node)

	for id := range idx.Scopes() {
		for sid, sym := range idx.SymbolTable(id).All() {
			other := decoded.SymbolTable(id).Symbol(sid)
			assert.Equal(t, sym.Name(), other.Name())
			assert.Equal(t, sym.Flags(), other.Flags())
			assert.Equal(t, sym.Definitions(), other.Definitions())
		}
	}
}

func TestSnapshot_Deterministic(t *testing.T) {
	t.Parallel()
	_, a := buildSource(t, snapshotSource)
	_, b := buildSource(t, snapshotSource)

	da, err := a.MarshalSnapshot()
	require.NoError(t, err)
	db, err := b.MarshalSnapshot()
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestSnapshot_RejectsOtherSchema(t *testing.T) {
	t.Parallel()
	data, err := msgpack.Marshal(&snapshotPayload{Schema: SnapshotSchema + 1})
	require.NoError(t, err)

	_, err = UnmarshalSnapshot(data)
	assert.ErrorIs(t, err, ErrSnapshotVersion)
}

func TestSnapshot_RejectsGarbage(t *testing.T) {
	t.Parallel()
	_, err := UnmarshalSnapshot([]byte{0xc1, 0x00, 0x01})
	assert.Error(t, err)

	data, err := msgpack.Marshal(&snapshotPayload{Schema: SnapshotSchema})
	require.NoError(t, err)
	_, err = UnmarshalSnapshot(data)
	assert.Error(t, err, "a snapshot without scopes is invalid")
}
