// Package ast is the public input surface: the untyped syntax tree the
// pipeline's entry point consumes. It deliberately has no lexer or
// parser behind it (parsing a concrete surface syntax is out of scope);
// callers build a tree of these types directly, the way a front end
// that already has its own parser would hand off to this package.
//
// Type annotations are TypeRef values, not typesystem.TypeIDs: nothing
// has been interned yet at this stage, and a TypeRef only ever names a
// type (a built-in width, a type-parameter name, or a custom type name
// plus its type arguments) the way surface syntax would. The collector
// is what turns a TypeRef into a TypeID in the shared engine.
package ast

import "github.com/vela-lang/semantica/internal/typesystem"

// Application is the whole compilation unit: an ordered list of files.
type Application struct {
	Files []File
}

// File is one source file: a name and its top-level nodes.
type File struct {
	Name  string
	Nodes []Node
}

// Node is one top-level (or block-level) construct.
type Node struct {
	Declaration Declaration
	Expression  Expression
	Return      Expression
	StarImport  string
}

func NewDeclarationNode(d Declaration) Node { return Node{Declaration: d} }
func NewExpressionNode(e Expression) Node   { return Node{Expression: e} }
func NewReturnNode(e Expression) Node       { return Node{Return: e} }
func NewStarImportNode(path string) Node    { return Node{StarImport: path} }

// TypeRef is a surface-level type annotation: a name, not yet an id.
type TypeRef interface{ typeRef() }

// UnitRef names the unit type.
type UnitRef struct{}

// UnsignedIntRef names one of the fixed-width unsigned integer types.
type UnsignedIntRef struct{ Width typesystem.Width }

// GenericRef names a type parameter by its declared name.
type GenericRef struct{ Name string }

// CustomRef names a declared struct or enum, with its type arguments
// (empty for a non-generic reference).
type CustomRef struct {
	Name          string
	TypeArguments []TypeRef
}

func (UnitRef) typeRef()        {}
func (UnsignedIntRef) typeRef() {}
func (GenericRef) typeRef()     {}
func (CustomRef) typeRef()      {}

func U8Ref() TypeRef  { return UnsignedIntRef{Width: typesystem.W8} }
func U16Ref() TypeRef { return UnsignedIntRef{Width: typesystem.W16} }
func U32Ref() TypeRef { return UnsignedIntRef{Width: typesystem.W32} }
func U64Ref() TypeRef { return UnsignedIntRef{Width: typesystem.W64} }

// Declaration is the tagged union of declaration forms.
type Declaration interface{ declaration() }

// TypeParameter is a declared generic parameter, optionally constrained
// to implement a named trait.
type TypeParameter struct {
	Name            string
	TraitConstraint string
}

// Parameter is one function (or trait-fn signature) parameter.
type Parameter struct {
	Name string
	Type TypeRef
}

// FieldDecl is one struct field or enum variant slot.
type FieldDecl struct {
	Name string
	Type TypeRef
}

type Variable struct {
	Name       string
	Ascription TypeRef // nil if the variable has no explicit ascription
	Body       Expression
}

func NewVariable(name string, ascription TypeRef, body Expression) Variable {
	return Variable{Name: name, Ascription: ascription, Body: body}
}

type Function struct {
	Name           string
	TypeParameters []TypeParameter
	Parameters     []Parameter
	Body           []Node
	ReturnType     TypeRef
}

func NewFunction(name string, typeParameters []TypeParameter, parameters []Parameter, body []Node, returnType TypeRef) Function {
	return Function{Name: name, TypeParameters: typeParameters, Parameters: parameters, Body: body, ReturnType: returnType}
}

// TraitFnSig is one signature in a trait's interface surface.
type TraitFnSig struct {
	Name       string
	Parameters []Parameter
	ReturnType TypeRef
}

type TraitDecl struct {
	Name             string
	InterfaceSurface []TraitFnSig
}

func NewTrait(name string, interfaceSurface []TraitFnSig) TraitDecl {
	return TraitDecl{Name: name, InterfaceSurface: interfaceSurface}
}

type TraitImpl struct {
	TraitName           string
	TypeImplementingFor TypeRef
	TypeParameters      []TypeParameter
	Methods             []Function
}

func NewTraitImpl(traitName string, typeImplementingFor TypeRef, typeParameters []TypeParameter, methods []Function) TraitImpl {
	return TraitImpl{TraitName: traitName, TypeImplementingFor: typeImplementingFor, TypeParameters: typeParameters, Methods: methods}
}

type Struct struct {
	Name           string
	TypeParameters []TypeParameter
	Fields         []FieldDecl
}

func NewStruct(name string, typeParameters []TypeParameter, fields []FieldDecl) Struct {
	return Struct{Name: name, TypeParameters: typeParameters, Fields: fields}
}

type Enum struct {
	Name           string
	TypeParameters []TypeParameter
	Variants       []FieldDecl
}

func NewEnum(name string, typeParameters []TypeParameter, variants []FieldDecl) Enum {
	return Enum{Name: name, TypeParameters: typeParameters, Variants: variants}
}

func (Variable) declaration()  {}
func (Function) declaration()  {}
func (TraitDecl) declaration() {}
func (TraitImpl) declaration() {}
func (Struct) declaration()    {}
func (Enum) declaration()      {}

// Expression is the tagged union of expression forms.
type Expression interface{ expression() }

type Literal struct {
	Width typesystem.Width
	Value uint64
}

type VariableRef struct {
	Name string
}

type FunctionApplication struct {
	Name          string
	TypeArguments []TypeRef
	Arguments     []Expression
}

type MethodCall struct {
	Receiver  string
	Method    string
	Arguments []Expression
}

type FieldValue struct {
	Name  string
	Value Expression
}

type StructExpression struct {
	Name          string
	TypeArguments []TypeRef
	Fields        []FieldValue
}

type EnumExpression struct {
	Name    string
	Variant string
	Value   Expression // nil if the variant carries no payload
}

func NewLiteral(width typesystem.Width, value uint64) Literal {
	return Literal{Width: width, Value: value}
}
func NewVariableRef(name string) VariableRef { return VariableRef{Name: name} }
func NewFunctionApplication(name string, typeArguments []TypeRef, arguments []Expression) FunctionApplication {
	return FunctionApplication{Name: name, TypeArguments: typeArguments, Arguments: arguments}
}
func NewMethodCall(receiver, method string, arguments []Expression) MethodCall {
	return MethodCall{Receiver: receiver, Method: method, Arguments: arguments}
}
func NewStructExpression(name string, typeArguments []TypeRef, fields []FieldValue) StructExpression {
	return StructExpression{Name: name, TypeArguments: typeArguments, Fields: fields}
}
func NewEnumExpression(name, variant string, value Expression) EnumExpression {
	return EnumExpression{Name: name, Variant: variant, Value: value}
}

func (Literal) expression()             {}
func (VariableRef) expression()         {}
func (FunctionApplication) expression() {}
func (MethodCall) expression()          {}
func (StructExpression) expression()    {}
func (EnumExpression) expression()      {}
