package semantic

import (
	"errors"

	"github.com/jward/pyscope/internal/ast"
)

// Build runs the index builder over module and returns the finished index.
// Broken internal invariants panic with *InvariantError.
func Build(module *ast.Module) *Index {
	return newIndexBuilder(module).build()
}

// BuildChecked is Build for callers that must survive a bad module: an
// *InvariantError raised during the build is returned instead of
// propagating. Other panics are not recovered.
func BuildChecked(module *ast.Module) (idx *Index, err error) {
	defer func() {
		if r := recover(); r != nil {
			var ie *InvariantError
			if e, ok := r.(error); ok && errors.As(e, &ie) {
				idx, err = nil, ie
				return
			}
			panic(r)
		}
	}()
	return Build(module), nil
}

// nodeWithScope describes a scope about to be pushed.
type nodeWithScope struct {
	id         NodeWithScopeID
	name       string
	rng        ast.Range
	region     ast.Range
	definition ast.DefinitionNode
}

// indexBuilder performs the single traversal of one module. It implements
// ast.Visitor.
type indexBuilder struct {
	module *ast.Module

	scopeStack []FileScopeID
	// current is the binding context applied to store-context names while
	// an assignment target or named expression target is visited.
	current    Definition
	hasCurrent bool

	scopes       []Scope
	symbolTables []*SymbolTableBuilder
	astIDs       []*astIDsBuilder

	scopesByExpression map[ExpressionNodeKey]FileScopeID
	scopesByDefinition map[DefinitionNodeKey]FileScopeID
	scopesByNode       map[NodeWithScopeID]FileScopeID
	introducedScopes   map[DefinitionNodeKey]FileScopeID

	built bool
}

func newIndexBuilder(module *ast.Module) *indexBuilder {
	b := &indexBuilder{
		module:             module,
		scopesByExpression: make(map[ExpressionNodeKey]FileScopeID),
		scopesByDefinition: make(map[DefinitionNodeKey]FileScopeID),
		scopesByNode:       make(map[NodeWithScopeID]FileScopeID),
		introducedScopes:   make(map[DefinitionNodeKey]FileScopeID),
	}
	b.pushScopeWithParent(nodeWithScope{id: ModuleNode(), name: "<module>", rng: module.Range(), region: module.Range()}, 0, false)
	return b
}

func (b *indexBuilder) currentScope() FileScopeID {
	if len(b.scopeStack) == 0 {
		panic(invariantf("scope stack is empty"))
	}
	return b.scopeStack[len(b.scopeStack)-1]
}

func (b *indexBuilder) pushScope(node nodeWithScope) {
	b.pushScopeWithParent(node, b.currentScope(), true)
}

func (b *indexBuilder) pushScopeWithParent(node nodeWithScope, parent FileScopeID, hasParent bool) {
	childrenStart := denseID[FileScopeID](len(b.scopes) + 1)
	scopeID := denseID[FileScopeID](len(b.scopes))

	b.scopes = append(b.scopes, Scope{
		name:        node.name,
		parent:      parent,
		hasParent:   hasParent,
		kind:        node.id.Kind.ScopeKind(),
		node:        node.id,
		rng:         node.rng,
		region:      node.region,
		descendants: ScopeRange{Start: childrenStart, End: childrenStart},
	})
	b.symbolTables = append(b.symbolTables, NewSymbolTableBuilder())
	b.astIDs = append(b.astIDs, newAstIDsBuilder(b.module.ID()))
	b.scopeStack = append(b.scopeStack, scopeID)

	b.scopesByNode[node.id] = scopeID
	if node.definition != nil {
		b.introducedScopes[DefinitionKey(node.definition)] = scopeID
	}
}

func (b *indexBuilder) popScope() FileScopeID {
	if len(b.scopeStack) == 0 {
		panic(invariantf("pop with no open scope"))
	}
	id := b.scopeStack[len(b.scopeStack)-1]
	b.scopeStack = b.scopeStack[:len(b.scopeStack)-1]
	scope := &b.scopes[id]
	scope.descendants.End = denseID[FileScopeID](len(b.scopes))
	scope.closed = true
	return id
}

func (b *indexBuilder) currentSymbolTable() *SymbolTableBuilder {
	return b.symbolTables[b.currentScope()]
}

func (b *indexBuilder) currentAstIDs() *astIDsBuilder {
	return b.astIDs[b.currentScope()]
}

// withDefinition makes def the binding context while fn runs. Binding
// contexts never nest.
func (b *indexBuilder) withDefinition(def Definition, fn func()) {
	if b.hasCurrent {
		panic(invariantf("binding context %s entered while %s is active", def, b.current))
	}
	b.current, b.hasCurrent = def, true
	fn()
	b.current, b.hasCurrent = Definition{}, false
}

// withoutDefinition suspends the binding context while fn runs. The value
// and slice of an attribute or subscript target are evaluated, not bound.
func (b *indexBuilder) withoutDefinition(fn func()) {
	saved, had := b.current, b.hasCurrent
	b.current, b.hasCurrent = Definition{}, false
	fn()
	b.current, b.hasCurrent = saved, had
}

// withTypeParams opens an annotation scope holding the type parameters, if
// there are any, and runs nested inside it.
func (b *indexBuilder) withTypeParams(name string, params *ast.TypeParams, node NodeWithScopeID, rng ast.Range, nested func() FileScopeID) FileScopeID {
	if params != nil {
		region := ast.Range{Start: params.Range().Start, End: rng.End}
		b.pushScope(nodeWithScope{id: node, name: name, rng: rng, region: region})
		for _, p := range params.Params {
			b.currentSymbolTable().AddOrUpdate(p.Name.ID, SymbolIsDefined)
		}
		ast.WalkTypeParams(b, params)
	}

	scope := nested()

	if params != nil {
		b.popScope()
	}
	return scope
}

func (b *indexBuilder) build() *Index {
	if b.built {
		panic(invariantf("index builder reused"))
	}
	b.built = true

	ast.WalkBody(b, b.module.Body)

	b.popScope()
	if len(b.scopeStack) != 0 {
		panic(invariantf("%d scope(s) left open after traversal", len(b.scopeStack)))
	}
	if b.hasCurrent {
		panic(invariantf("binding context %s left active after traversal", b.current))
	}
	for i, s := range b.scopes {
		if _, ok := s.Parent(); ok == (i == 0) {
			panic(invariantf("scope %d has inconsistent parent linkage", i))
		}
	}

	idx := &Index{
		scopes:             b.scopes,
		symbolTables:       make([]*SymbolTable, len(b.symbolTables)),
		astIDs:             make([]*AstIDs, len(b.astIDs)),
		scopesByExpression: b.scopesByExpression,
		scopesByDefinition: b.scopesByDefinition,
		scopesByNode:       b.scopesByNode,
		introducedScopes:   b.introducedScopes,
	}
	for i, t := range b.symbolTables {
		idx.symbolTables[i] = t.Finish()
	}
	for i, ids := range b.astIDs {
		idx.astIDs[i] = ids.finish()
	}
	return idx
}

// VisitStmt handles the statements that bind names or open scopes and
// falls back to the generic walk for the rest.
func (b *indexBuilder) VisitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.FunctionDef:
		b.visitFunctionDef(s)
	case *ast.ClassDef:
		b.visitClassDef(s)
	case *ast.Import:
		b.visitAliases(s.Names, false)
	case *ast.ImportFrom:
		b.visitAliases(s.Names, true)
	case *ast.Assign:
		if b.hasCurrent {
			panic(invariantf("assignment visited inside binding context %s", b.current))
		}
		if s.Value != nil {
			b.VisitExpr(s.Value)
		}
		for _, target := range s.Targets {
			if target == nil {
				continue
			}
			id := b.currentAstIDs().recordExpression(target)
			b.withDefinition(TargetDefinition(id), func() {
				b.visitExpressionWithID(target, id)
			})
		}
	default:
		ast.WalkStmt(b, stmt)
	}
}

func (b *indexBuilder) visitFunctionDef(fn *ast.FunctionDef) {
	scope := b.currentScope()
	functionID := b.currentAstIDs().recordFunction(fn)
	b.scopesByDefinition[DefinitionKey(fn)] = scope

	name := fn.Name.ID
	b.currentSymbolTable().AddOrUpdateWithDefinition(name, FunctionDefinition(functionID))

	for _, decorator := range fn.Decorators {
		b.VisitExpr(decorator)
	}

	id := AstID[ScopedFunctionID]{Scope: scope, Local: functionID}
	b.withTypeParams(name, fn.TypeParams, FunctionTypeParamsNode(id), fn.Range(), func() FileScopeID {
		ast.WalkParameters(b, fn.Parameters)
		if fn.Returns != nil {
			b.VisitExpr(fn.Returns)
		}

		b.pushScope(nodeWithScope{id: FunctionNode(id), name: name, rng: fn.Range(), region: bodyRegion(fn.Body, fn.Range()), definition: fn})
		ast.WalkBody(b, fn.Body)
		return b.popScope()
	})
}

func (b *indexBuilder) visitClassDef(cls *ast.ClassDef) {
	scope := b.currentScope()
	classID := b.currentAstIDs().recordClass(cls)
	b.scopesByDefinition[DefinitionKey(cls)] = scope

	name := cls.Name.ID
	b.currentSymbolTable().AddOrUpdateWithDefinition(name, ClassDefinition(classID))

	for _, decorator := range cls.Decorators {
		b.VisitExpr(decorator)
	}

	id := AstID[ScopedClassID]{Scope: scope, Local: classID}
	b.withTypeParams(name, cls.TypeParams, ClassTypeParamsNode(id), cls.Range(), func() FileScopeID {
		ast.WalkArguments(b, cls.Arguments)

		b.pushScope(nodeWithScope{id: ClassNode(id), name: name, rng: cls.Range(), region: bodyRegion(cls.Body, cls.Range()), definition: cls})
		ast.WalkBody(b, cls.Body)
		return b.popScope()
	})
}

// bodyRegion is the source evaluated inside a function or class scope:
// from the first body statement to the end of the definition. Decorators,
// defaults, annotations and bases before it belong to an outer scope.
func bodyRegion(body []ast.Stmt, rng ast.Range) ast.Range {
	if len(body) == 0 {
		return ast.Range{Start: rng.End, End: rng.End}
	}
	return ast.Range{Start: body[0].Range().Start, End: rng.End}
}

func (b *indexBuilder) visitAliases(names []*ast.Alias, fromImport bool) {
	scope := b.currentScope()
	for _, alias := range names {
		aliasID := b.currentAstIDs().recordAlias(alias)
		b.currentSymbolTable().AddOrUpdateWithDefinition(alias.BoundName(fromImport), ImportAliasDefinition(aliasID))
		b.scopesByDefinition[DefinitionKey(alias)] = scope
	}
}

// VisitExpr assigns the next expression id in the current scope, then
// visits the expression.
func (b *indexBuilder) VisitExpr(expr ast.Expr) {
	id := b.currentAstIDs().recordExpression(expr)
	b.visitExpressionWithID(expr, id)
}

func (b *indexBuilder) visitExpressionWithID(expr ast.Expr, id ScopedExpressionID) {
	b.scopesByExpression[ExpressionKey(expr)] = b.currentScope()

	switch e := expr.(type) {
	case *ast.Name:
		var flags SymbolFlags
		switch e.Ctx {
		case ast.Load:
			flags = SymbolIsUsed
		case ast.Store, ast.Del:
			flags = SymbolIsDefined
		}
		if b.hasCurrent && flags&SymbolIsDefined != 0 {
			b.currentSymbolTable().AddOrUpdateWithDefinition(e.ID, b.current)
		} else {
			b.currentSymbolTable().AddOrUpdate(e.ID, flags)
		}

	case *ast.NamedExpr:
		// TODO: a walrus inside a comprehension binds in the enclosing
		// function or module scope; comprehensions do not open scopes yet,
		// so the binding lands in the current scope.
		b.withDefinition(NamedExprDefinition(id), func() {
			if e.Target != nil {
				b.VisitExpr(e.Target)
			}
		})
		if e.Value != nil {
			b.VisitExpr(e.Value)
		}

	case *ast.IfExp:
		// Both branches are visited whatever the test; binding is flow
		// insensitive.
		for _, part := range []ast.Expr{e.Test, e.Body, e.Orelse} {
			if part != nil {
				b.VisitExpr(part)
			}
		}

	case *ast.Attribute, *ast.Subscript:
		b.withoutDefinition(func() { ast.WalkExpr(b, expr) })

	default:
		ast.WalkExpr(b, expr)
	}
}
