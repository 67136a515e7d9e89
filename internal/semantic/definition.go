package semantic

import "fmt"

// DefinitionKind says why an occurrence binds a name.
type DefinitionKind uint8

const (
	DefinitionFunction DefinitionKind = iota + 1
	DefinitionClass
	DefinitionImportAlias
	DefinitionTarget
	DefinitionNamedExpr
)

func (k DefinitionKind) String() string {
	switch k {
	case DefinitionFunction:
		return "function"
	case DefinitionClass:
		return "class"
	case DefinitionImportAlias:
		return "import"
	case DefinitionTarget:
		return "target"
	case DefinitionNamedExpr:
		return "named"
	default:
		return "invalid"
	}
}

// Definition is one binding occurrence of a symbol. Its payload is an id
// local to the scope that owns the symbol, which the type inference engine
// uses as the key for the binding's type.
type Definition struct {
	kind DefinitionKind
	id   uint32
}

func FunctionDefinition(id ScopedFunctionID) Definition {
	return Definition{kind: DefinitionFunction, id: uint32(id)}
}

func ClassDefinition(id ScopedClassID) Definition {
	return Definition{kind: DefinitionClass, id: uint32(id)}
}

func ImportAliasDefinition(id ScopedAliasID) Definition {
	return Definition{kind: DefinitionImportAlias, id: uint32(id)}
}

// TargetDefinition is an assignment target; id names the whole target
// expression, which may be a tuple or list containing the bound name.
func TargetDefinition(id ScopedExpressionID) Definition {
	return Definition{kind: DefinitionTarget, id: uint32(id)}
}

func NamedExprDefinition(id ScopedExpressionID) Definition {
	return Definition{kind: DefinitionNamedExpr, id: uint32(id)}
}

func (d Definition) Kind() DefinitionKind { return d.kind }
func (d Definition) IsValid() bool        { return d.kind != 0 }

// Local returns the scope-local id carried by the definition.
func (d Definition) Local() uint32 { return d.id }

func (d Definition) FunctionID() (ScopedFunctionID, bool) {
	return ScopedFunctionID(d.id), d.kind == DefinitionFunction
}

func (d Definition) ClassID() (ScopedClassID, bool) {
	return ScopedClassID(d.id), d.kind == DefinitionClass
}

func (d Definition) AliasID() (ScopedAliasID, bool) {
	return ScopedAliasID(d.id), d.kind == DefinitionImportAlias
}

// ExpressionID returns the payload of Target and NamedExpr definitions.
func (d Definition) ExpressionID() (ScopedExpressionID, bool) {
	return ScopedExpressionID(d.id), d.kind == DefinitionTarget || d.kind == DefinitionNamedExpr
}

func (d Definition) String() string {
	return fmt.Sprintf("%s(%d)", d.kind, d.id)
}
