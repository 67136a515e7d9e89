package semantic

import (
	"fmt"

	"github.com/jward/pyscope/internal/ast"
)

// idTable assigns dense ids to node keys in recording order.
type idTable[L LocalID] struct {
	keys []NodeKey
	ids  map[NodeKey]L
}

func (t *idTable[L]) record(key NodeKey) L {
	if id, ok := t.ids[key]; ok {
		return id
	}
	if t.ids == nil {
		t.ids = make(map[NodeKey]L)
	}
	id := denseID[L](len(t.keys))
	t.keys = append(t.keys, key)
	t.ids[key] = id
	return id
}

func (t *idTable[L]) lookup(key NodeKey) (L, bool) {
	id, ok := t.ids[key]
	return id, ok
}

func (t *idTable[L]) key(id L) (NodeKey, bool) {
	if int(id) >= len(t.keys) {
		return NodeKey{}, false
	}
	return t.keys[id], true
}

// rebuild restores the reverse map after decoding keys.
func (t *idTable[L]) rebuild(keys []NodeKey) {
	t.keys = keys
	t.ids = make(map[NodeKey]L, len(keys))
	for i, k := range keys {
		t.ids[k] = L(i)
	}
}

// AstIDs holds the per-scope ids of every expression, function definition,
// class definition and import alias recorded in one scope.
type AstIDs struct {
	expressions idTable[ScopedExpressionID]
	functions   idTable[ScopedFunctionID]
	classes     idTable[ScopedClassID]
	aliases     idTable[ScopedAliasID]
}

// ExpressionID returns the id of e within this scope.
func (a *AstIDs) ExpressionID(e ast.Expr) (ScopedExpressionID, bool) {
	return a.expressions.lookup(KeyOf(e))
}

// ExpressionIDByKey is ExpressionID for a previously computed key.
func (a *AstIDs) ExpressionIDByKey(key ExpressionNodeKey) (ScopedExpressionID, bool) {
	return a.expressions.lookup(key.NodeKey)
}

func (a *AstIDs) FunctionID(fn *ast.FunctionDef) (ScopedFunctionID, bool) {
	return a.functions.lookup(KeyOf(fn))
}

func (a *AstIDs) ClassID(cls *ast.ClassDef) (ScopedClassID, bool) {
	return a.classes.lookup(KeyOf(cls))
}

func (a *AstIDs) AliasID(alias *ast.Alias) (ScopedAliasID, bool) {
	return a.aliases.lookup(KeyOf(alias))
}

// ExpressionKey maps an expression id back to the node it was assigned to.
func (a *AstIDs) ExpressionKey(id ScopedExpressionID) (ExpressionNodeKey, bool) {
	k, ok := a.expressions.key(id)
	return ExpressionNodeKey{k}, ok
}

func (a *AstIDs) FunctionKey(id ScopedFunctionID) (DefinitionNodeKey, bool) {
	k, ok := a.functions.key(id)
	return DefinitionNodeKey{k}, ok
}

func (a *AstIDs) ClassKey(id ScopedClassID) (DefinitionNodeKey, bool) {
	k, ok := a.classes.key(id)
	return DefinitionNodeKey{k}, ok
}

func (a *AstIDs) AliasKey(id ScopedAliasID) (DefinitionNodeKey, bool) {
	k, ok := a.aliases.key(id)
	return DefinitionNodeKey{k}, ok
}

// DefinitionNode returns the key of the node a definition recorded in this
// scope originates from: the def or alias itself, or the target or named
// expression for assignment-like bindings.
func (a *AstIDs) DefinitionNode(def Definition) (NodeKey, bool) {
	switch def.Kind() {
	case DefinitionFunction:
		return a.functions.key(ScopedFunctionID(def.Local()))
	case DefinitionClass:
		return a.classes.key(ScopedClassID(def.Local()))
	case DefinitionImportAlias:
		return a.aliases.key(ScopedAliasID(def.Local()))
	case DefinitionTarget, DefinitionNamedExpr:
		return a.expressions.key(ScopedExpressionID(def.Local()))
	}
	return NodeKey{}, false
}

func (a *AstIDs) ExpressionCount() int { return len(a.expressions.keys) }
func (a *AstIDs) FunctionCount() int   { return len(a.functions.keys) }
func (a *AstIDs) ClassCount() int      { return len(a.classes.keys) }
func (a *AstIDs) AliasCount() int      { return len(a.aliases.keys) }

// astIDsBuilder records ids for one scope. It refuses nodes that were not
// lowered into module.
type astIDsBuilder struct {
	module ast.ModuleID
	ids    AstIDs
}

func newAstIDsBuilder(module ast.ModuleID) *astIDsBuilder {
	return &astIDsBuilder{module: module}
}

func (b *astIDsBuilder) checkOwner(n ast.Node) {
	if n.Module() != b.module {
		panic(&InvariantError{
			Msg: fmt.Sprintf("%s from module %d recorded in module %d", KeyOf(n), n.Module(), b.module),
			Err: ErrForeignNode,
		})
	}
}

func (b *astIDsBuilder) recordExpression(e ast.Expr) ScopedExpressionID {
	b.checkOwner(e)
	return b.ids.expressions.record(KeyOf(e))
}

func (b *astIDsBuilder) recordFunction(fn *ast.FunctionDef) ScopedFunctionID {
	b.checkOwner(fn)
	return b.ids.functions.record(KeyOf(fn))
}

func (b *astIDsBuilder) recordClass(cls *ast.ClassDef) ScopedClassID {
	b.checkOwner(cls)
	return b.ids.classes.record(KeyOf(cls))
}

func (b *astIDsBuilder) recordAlias(alias *ast.Alias) ScopedAliasID {
	b.checkOwner(alias)
	return b.ids.aliases.record(KeyOf(alias))
}

func (b *astIDsBuilder) finish() *AstIDs {
	ids := b.ids
	return &ids
}
