package ast

// Kind discriminates node types. It is part of every node key, so two
// nodes of different kinds covering the same bytes never collide.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindModule

	// Statements.
	KindFunctionDef
	KindClassDef
	KindImport
	KindImportFrom
	KindAssign
	KindAnnAssign
	KindAugAssign
	KindDelete
	KindReturn
	KindRaise
	KindAssert
	KindGlobal
	KindNonlocal
	KindPass
	KindBreak
	KindContinue
	KindIf
	KindFor
	KindWhile
	KindTry
	KindWith
	KindMatch
	KindTypeAlias
	KindExprStmt

	// Expressions.
	KindName
	KindAttribute
	KindSubscript
	KindSlice
	KindStarred
	KindCall
	KindStringLiteral
	KindFString
	KindNumberLiteral
	KindBooleanLiteral
	KindNoneLiteral
	KindEllipsisLiteral
	KindTuple
	KindList
	KindSet
	KindDict
	KindListComp
	KindSetComp
	KindDictComp
	KindGeneratorExp
	KindLambda
	KindUnaryOp
	KindBinOp
	KindBoolOp
	KindCompare
	KindIfExp
	KindNamedExpr
	KindAwait
	KindYield
	KindYieldFrom

	// Auxiliary nodes.
	KindAlias
	KindParameters
	KindParameter
	KindArguments
	KindKeyword
	KindTypeParams
	KindTypeParam
	KindExceptHandler
	KindWithItem
	KindMatchCase
	KindComprehension
)

var kindNames = [...]string{
	KindInvalid:         "Invalid",
	KindModule:          "Module",
	KindFunctionDef:     "FunctionDef",
	KindClassDef:        "ClassDef",
	KindImport:          "Import",
	KindImportFrom:      "ImportFrom",
	KindAssign:          "Assign",
	KindAnnAssign:       "AnnAssign",
	KindAugAssign:       "AugAssign",
	KindDelete:          "Delete",
	KindReturn:          "Return",
	KindRaise:           "Raise",
	KindAssert:          "Assert",
	KindGlobal:          "Global",
	KindNonlocal:        "Nonlocal",
	KindPass:            "Pass",
	KindBreak:           "Break",
	KindContinue:        "Continue",
	KindIf:              "If",
	KindFor:             "For",
	KindWhile:           "While",
	KindTry:             "Try",
	KindWith:            "With",
	KindMatch:           "Match",
	KindTypeAlias:       "TypeAlias",
	KindExprStmt:        "ExprStmt",
	KindName:            "Name",
	KindAttribute:       "Attribute",
	KindSubscript:       "Subscript",
	KindSlice:           "Slice",
	KindStarred:         "Starred",
	KindCall:            "Call",
	KindStringLiteral:   "StringLiteral",
	KindFString:         "FString",
	KindNumberLiteral:   "NumberLiteral",
	KindBooleanLiteral:  "BooleanLiteral",
	KindNoneLiteral:     "NoneLiteral",
	KindEllipsisLiteral: "EllipsisLiteral",
	KindTuple:           "Tuple",
	KindList:            "List",
	KindSet:             "Set",
	KindDict:            "Dict",
	KindListComp:        "ListComp",
	KindSetComp:         "SetComp",
	KindDictComp:        "DictComp",
	KindGeneratorExp:    "GeneratorExp",
	KindLambda:          "Lambda",
	KindUnaryOp:         "UnaryOp",
	KindBinOp:           "BinOp",
	KindBoolOp:          "BoolOp",
	KindCompare:         "Compare",
	KindIfExp:           "IfExp",
	KindNamedExpr:       "NamedExpr",
	KindAwait:           "Await",
	KindYield:           "Yield",
	KindYieldFrom:       "YieldFrom",
	KindAlias:           "Alias",
	KindParameters:      "Parameters",
	KindParameter:       "Parameter",
	KindArguments:       "Arguments",
	KindKeyword:         "Keyword",
	KindTypeParams:      "TypeParams",
	KindTypeParam:       "TypeParam",
	KindExceptHandler:   "ExceptHandler",
	KindWithItem:        "WithItem",
	KindMatchCase:       "MatchCase",
	KindComprehension:   "Comprehension",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// ExprContext classifies how an expression occurrence uses its name.
type ExprContext uint8

const (
	Load ExprContext = iota
	Store
	Del
)

func (c ExprContext) String() string {
	switch c {
	case Store:
		return "store"
	case Del:
		return "del"
	default:
		return "load"
	}
}
