// Package typed is the intermediate representation produced by the
// collector (C5) and mutated in place by the inference engine (C6): the
// input AST's shape, but every construct now carries a typesystem.TypeID
// and every declaration has been interned into the declaration store, so
// downstream phases work exclusively in ids rather than names. Grounded
// on original_source/de_cc/src/language/ty (the "Ty*" node family).
package typed

import (
	"github.com/vela-lang/semantica/internal/declarations"
	"github.com/vela-lang/semantica/internal/graph"
	"github.com/vela-lang/semantica/internal/typesystem"
)

// Application is the typed form of the whole input: one Node per
// top-level construct per file, plus the graph node each one was
// registered under (so inference can start a BFS from the right place).
type Application struct {
	Files []File
}

type File struct {
	Name  string
	Nodes []Node
	// Scope is the graph node representing this file's top-level scope.
	Scope graph.NodeID
}

// Node mirrors ast.Node: a declaration, a bare expression, a return
// statement, or a star import. Scope is the graph node this construct
// was registered under, letting inference resolve names starting here.
type Node struct {
	Declaration *Declaration
	Expression  Expression
	Return      Expression
	StarImport  string
	Scope       graph.NodeID
}

// Declaration is the typed form of a declaration. Variable declarations
// carry their body inline (they are never monomorphized or shared);
// every other kind is interned in the declaration store and referenced
// by id so the resolver can read back monomorphized copies later.
type Declaration struct {
	Variable  *VariableDeclaration
	Function  declarations.DeclarationID
	Trait     declarations.DeclarationID
	TraitImpl declarations.DeclarationID
	Struct    declarations.DeclarationID
	Enum      declarations.DeclarationID
	// Kind names which of the fields above is populated.
	Kind string
}

const (
	KindVariable  = "variable"
	KindFunction  = "function"
	KindTrait     = "trait"
	KindTraitImpl = "trait_impl"
	KindStruct    = "struct"
	KindEnum      = "enum"
)

type VariableDeclaration struct {
	Name      string
	Ascription typesystem.TypeID
	Body      Expression
}

// Expression is the tagged union of typed expression forms. Every
// variant carries the TypeID inference has assigned it so far; as
// unification proceeds, what that TypeID resolves to keeps changing,
// but the id itself never does.
type Expression interface {
	expression()
	Type() typesystem.TypeID
}

type Literal struct {
	Width typesystem.Width
	Value uint64
	ID    typesystem.TypeID
}

type Variable struct {
	Name string
	ID   typesystem.TypeID
}

// FunctionApplication is a call of a (possibly generic) function.
// MonomorphizedCopy is filled in once inference has cloned, monomorphized,
// and registered the callee for these particular arguments.
type FunctionApplication struct {
	Name              string
	TypeArguments     []typesystem.TypeID
	Arguments         []Expression
	MonomorphizedCopy declarations.DeclarationID
	ID                typesystem.TypeID
}

// MethodCall is `receiver.method(args...)`, resolved via the namespace's
// (type_id, trait_name) -> method-list registration rather than the
// collection graph.
type MethodCall struct {
	ReceiverName string
	MethodName   string
	Arguments    []Expression
	ID           typesystem.TypeID
}

// StructExpression constructs a (possibly generic) struct value.
type StructExpression struct {
	Name              string
	TypeArguments     []typesystem.TypeID
	Fields            []FieldValue
	MonomorphizedCopy declarations.DeclarationID
	ID                typesystem.TypeID
}

type FieldValue struct {
	Name  string
	Value Expression
}

// EnumExpression constructs an enum value by naming a variant.
type EnumExpression struct {
	Name    string
	Variant string
	Value   Expression // nil if the variant carries no payload
	ID      typesystem.TypeID
}

// FunctionParameter is a pseudo-expression for a function parameter.
// The collector never produces it (parameters enter the namespace by
// TypeID); it must never appear in a body, inference rejects it with an
// internal error, and the resolver treats it as a fatal internal error
// if it does (§4.7).
type FunctionParameter struct {
	Name string
	ID   typesystem.TypeID
}

// Expression nodes are identified by pointer, not by value: inference
// mutates MonomorphizedCopy in place on the same node the collector
// built, rather than handing back a new tree.
func (*Literal) expression()             {}
func (*Variable) expression()            {}
func (*FunctionApplication) expression() {}
func (*MethodCall) expression()          {}
func (*StructExpression) expression()    {}
func (*EnumExpression) expression()      {}
func (*FunctionParameter) expression()   {}

func (e *Literal) Type() typesystem.TypeID             { return e.ID }
func (e *Variable) Type() typesystem.TypeID            { return e.ID }
func (e *FunctionApplication) Type() typesystem.TypeID { return e.ID }
func (e *MethodCall) Type() typesystem.TypeID          { return e.ID }
func (e *StructExpression) Type() typesystem.TypeID    { return e.ID }
func (e *EnumExpression) Type() typesystem.TypeID      { return e.ID }
func (e *FunctionParameter) Type() typesystem.TypeID   { return e.ID }
