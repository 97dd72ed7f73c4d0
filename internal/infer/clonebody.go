package infer

import (
	"github.com/vela-lang/semantica/internal/typed"
	"github.com/vela-lang/semantica/internal/typesystem"
)

// cloneBody deep-copies a generic function's typed body and rewrites
// every expression's TypeID through mapping. The declaration-level walk
// in inferFunctionDecl type-checks the body exactly once, against fresh
// UnknownGeneric placeholders; every call site needs its own copy of
// that body with those placeholders rewritten to the types this
// particular call resolved them to, or the resolver would have no way
// to emit a distinct body per monomorphized copy (spec's "two
// monomorphized copies of F, one for u32, one for u64").
func cloneBody(body []typed.Node, engine *typesystem.Engine, mapping typesystem.TypeMapping) []typed.Node {
	if mapping == nil || body == nil {
		return body
	}
	out := make([]typed.Node, len(body))
	for i, n := range body {
		out[i] = cloneNode(n, engine, mapping)
	}
	return out
}

func cloneNode(n typed.Node, engine *typesystem.Engine, mapping typesystem.TypeMapping) typed.Node {
	out := typed.Node{StarImport: n.StarImport, Scope: n.Scope}
	if n.Declaration != nil {
		out.Declaration = cloneDeclaration(n.Declaration, engine, mapping)
	}
	if n.Expression != nil {
		out.Expression = cloneExpression(n.Expression, engine, mapping)
	}
	if n.Return != nil {
		out.Return = cloneExpression(n.Return, engine, mapping)
	}
	return out
}

// cloneDeclaration only deep-copies local variable bindings: a `let`
// inside a function body is the only declaration kind that appears
// mid-body in this surface (nested function/struct/trait declarations
// are not part of it), so every other kind passes through unchanged.
func cloneDeclaration(d *typed.Declaration, engine *typesystem.Engine, mapping typesystem.TypeMapping) *typed.Declaration {
	if d.Kind != typed.KindVariable {
		return d
	}
	return &typed.Declaration{
		Kind: typed.KindVariable,
		Variable: &typed.VariableDeclaration{
			Name:       d.Variable.Name,
			Ascription: engine.CopyTypeID(d.Variable.Ascription, mapping),
			Body:       cloneExpression(d.Variable.Body, engine, mapping),
		},
	}
}

func cloneExpression(e typed.Expression, engine *typesystem.Engine, mapping typesystem.TypeMapping) typed.Expression {
	switch expr := e.(type) {
	case *typed.Literal:
		return &typed.Literal{Width: expr.Width, Value: expr.Value, ID: engine.CopyTypeID(expr.ID, mapping)}
	case *typed.Variable:
		return &typed.Variable{Name: expr.Name, ID: engine.CopyTypeID(expr.ID, mapping)}
	case *typed.FunctionApplication:
		return &typed.FunctionApplication{
			Name:          expr.Name,
			TypeArguments: cloneTypeIDs(expr.TypeArguments, engine, mapping),
			Arguments:     cloneExpressions(expr.Arguments, engine, mapping),
			ID:            engine.CopyTypeID(expr.ID, mapping),
		}
	case *typed.MethodCall:
		return &typed.MethodCall{
			ReceiverName: expr.ReceiverName,
			MethodName:   expr.MethodName,
			Arguments:    cloneExpressions(expr.Arguments, engine, mapping),
			ID:           engine.CopyTypeID(expr.ID, mapping),
		}
	case *typed.StructExpression:
		fields := make([]typed.FieldValue, len(expr.Fields))
		for i, f := range expr.Fields {
			fields[i] = typed.FieldValue{Name: f.Name, Value: cloneExpression(f.Value, engine, mapping)}
		}
		return &typed.StructExpression{
			Name:          expr.Name,
			TypeArguments: cloneTypeIDs(expr.TypeArguments, engine, mapping),
			Fields:        fields,
			ID:            engine.CopyTypeID(expr.ID, mapping),
		}
	case *typed.EnumExpression:
		var value typed.Expression
		if expr.Value != nil {
			value = cloneExpression(expr.Value, engine, mapping)
		}
		return &typed.EnumExpression{Name: expr.Name, Variant: expr.Variant, Value: value, ID: engine.CopyTypeID(expr.ID, mapping)}
	case *typed.FunctionParameter:
		return &typed.FunctionParameter{Name: expr.Name, ID: engine.CopyTypeID(expr.ID, mapping)}
	default:
		return e
	}
}

func cloneExpressions(es []typed.Expression, engine *typesystem.Engine, mapping typesystem.TypeMapping) []typed.Expression {
	if es == nil {
		return nil
	}
	out := make([]typed.Expression, len(es))
	for i, e := range es {
		out[i] = cloneExpression(e, engine, mapping)
	}
	return out
}

func cloneTypeIDs(ids []typesystem.TypeID, engine *typesystem.Engine, mapping typesystem.TypeMapping) []typesystem.TypeID {
	if ids == nil {
		return nil
	}
	out := make([]typesystem.TypeID, len(ids))
	for i, id := range ids {
		out[i] = engine.CopyTypeID(id, mapping)
	}
	return out
}
