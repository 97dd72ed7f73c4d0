// Package resolve implements the resolver (C7): the last pipeline
// stage, lowering the typed AST the collector built and the inference
// engine mutated in place into the resolved AST callers consume. Every
// TypeID becomes a concrete typesystem.ResolvedType, and every generic
// declaration disappears in favor of its monomorphized copies read back
// from the declaration store. Grounded on
// original_source/de_cc/src/semantic_analysis/resolution.
package resolve

import (
	"log"

	"github.com/vela-lang/semantica/internal/declarations"
	"github.com/vela-lang/semantica/internal/diagnostics"
	"github.com/vela-lang/semantica/internal/typed"
	"github.com/vela-lang/semantica/internal/typesystem"
	"github.com/vela-lang/semantica/resolved"
)

// Resolve is the resolver, reading from the same type engine and
// declaration store the earlier phases populated.
type Resolve struct {
	Engine *typesystem.Engine
	Store  *declarations.Store

	// MaxErrors caps how many monomorphized copies this resolve call
	// drops before it gives up and fails outright, instead of silently
	// warning forever. Zero means unlimited.
	MaxErrors int

	dropped int
}

// New returns a resolver over the given shared components.
func New(engine *typesystem.Engine, store *declarations.Store) *Resolve {
	return &Resolve{Engine: engine, Store: store}
}

// dropCopy logs a dropped monomorphized copy and reports whether the
// resolver should keep going or has hit MaxErrors and must abort.
func (r *Resolve) dropCopy(name string, cause error) error {
	r.dropped++
	log.Printf("resolve: dropping monomorphized copy of %q: %v", name, cause)
	if r.MaxErrors > 0 && r.dropped >= r.MaxErrors {
		return diagnostics.New(diagnostics.PhaseResolve, diagnostics.ResolutionFailure,
			"too many dropped monomorphized copies (%d), aborting", r.dropped)
	}
	return nil
}

// Resolve lowers app into its resolved form, in file and node order.
func (r *Resolve) Resolve(app *typed.Application) (*resolved.Application, error) {
	out := &resolved.Application{Files: make([]resolved.File, 0, len(app.Files))}
	for _, f := range app.Files {
		rf, err := r.resolveFile(f)
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, rf)
	}
	return out, nil
}

func (r *Resolve) resolveFile(f typed.File) (resolved.File, error) {
	out := resolved.File{Name: f.Name}
	for _, n := range f.Nodes {
		nodes, err := r.resolveNode(n)
		if err != nil {
			return resolved.File{}, err
		}
		out.Nodes = append(out.Nodes, nodes...)
	}
	return out, nil
}

// resolveNode may return more than one resolved node: a generic
// declaration is replaced by the list of its monomorphized copies.
func (r *Resolve) resolveNode(n typed.Node) ([]resolved.Node, error) {
	switch {
	case n.Declaration != nil:
		decls, err := r.resolveDeclaration(n.Declaration)
		if err != nil {
			return nil, err
		}
		out := make([]resolved.Node, len(decls))
		for i, d := range decls {
			out[i] = resolved.Node{Declaration: d}
		}
		return out, nil
	case n.Expression != nil:
		e, err := r.resolveExpression(n.Expression)
		if err != nil {
			return nil, err
		}
		return []resolved.Node{{Expression: e}}, nil
	case n.Return != nil:
		e, err := r.resolveExpression(n.Return)
		if err != nil {
			return nil, err
		}
		return []resolved.Node{{Return: e}}, nil
	case n.StarImport != "":
		return []resolved.Node{{StarImport: n.StarImport}}, nil
	default:
		return nil, nil
	}
}

func (r *Resolve) resolveDeclaration(d *typed.Declaration) ([]resolved.Declaration, error) {
	switch d.Kind {
	case typed.KindVariable:
		return r.resolveVariable(d.Variable)
	case typed.KindFunction:
		return r.resolveFunctionDecl(d.Function)
	case typed.KindStruct:
		return r.resolveStructDecl(d.Struct)
	case typed.KindEnum:
		return r.resolveEnumDecl(d.Enum)
	case typed.KindTrait:
		return r.resolveTrait(d.Trait)
	case typed.KindTraitImpl:
		return r.resolveTraitImpl(d.TraitImpl)
	default:
		return nil, diagnostics.New(diagnostics.PhaseResolve, diagnostics.InternalError, "unknown declaration kind %q", d.Kind)
	}
}

func (r *Resolve) resolveVariable(v *typed.VariableDeclaration) ([]resolved.Declaration, error) {
	typ, err := r.Engine.Resolve(v.Ascription)
	if err != nil {
		return nil, err
	}
	body, err := r.resolveExpression(v.Body)
	if err != nil {
		return nil, err
	}
	return []resolved.Declaration{resolved.Variable{Name: v.Name, Type: typ, Body: body}}, nil
}

// resolveFunctionDecl implements §4.7: a non-generic function produces
// exactly one resolved declaration, read from the original; a generic
// function is replaced entirely by its monomorphized copies.
func (r *Resolve) resolveFunctionDecl(declID declarations.DeclarationID) ([]resolved.Declaration, error) {
	original, err := r.Store.GetFunction(declID)
	if err != nil {
		return nil, err
	}
	if len(original.TypeParams) == 0 {
		rf, err := r.resolveFunctionValue(original)
		if err != nil {
			return nil, err
		}
		return []resolved.Declaration{rf}, nil
	}

	copies := r.Store.GetMonomorphizedCopies(declID)
	out := make([]resolved.Declaration, 0, len(copies))
	for _, copyID := range copies {
		fn, err := r.Store.GetFunction(copyID)
		if err != nil {
			return nil, err
		}
		rf, err := r.resolveFunctionValue(fn)
		if err != nil {
			// A resolution failure here means this particular
			// instantiation left an unresolved generic somewhere the
			// call site never determined — not a compiler bug, just a
			// copy the output can't use.
			if dropErr := r.dropCopy(fn.Name, err); dropErr != nil {
				return nil, dropErr
			}
			continue
		}
		out = append(out, rf)
	}
	return out, nil
}

func (r *Resolve) resolveFunctionValue(fn declarations.Function) (resolved.Function, error) {
	params, err := r.resolveParameters(fn.Parameters)
	if err != nil {
		return resolved.Function{}, err
	}
	body, _ := fn.Body.([]typed.Node)
	rbody := make([]resolved.Node, 0, len(body))
	for _, n := range body {
		nodes, err := r.resolveNode(n)
		if err != nil {
			return resolved.Function{}, err
		}
		rbody = append(rbody, nodes...)
	}
	ret, err := r.Engine.Resolve(fn.ReturnType)
	if err != nil {
		return resolved.Function{}, err
	}
	return resolved.Function{Name: fn.Name, Parameters: params, Body: rbody, ReturnType: ret}, nil
}

func (r *Resolve) resolveParameters(params []declarations.Parameter) ([]resolved.Parameter, error) {
	out := make([]resolved.Parameter, len(params))
	for i, p := range params {
		t, err := r.Engine.Resolve(p.ID)
		if err != nil {
			return nil, err
		}
		out[i] = resolved.Parameter{Name: p.Name, Type: t}
	}
	return out, nil
}

func (r *Resolve) resolveStructDecl(declID declarations.DeclarationID) ([]resolved.Declaration, error) {
	original, err := r.Store.GetStruct(declID)
	if err != nil {
		return nil, err
	}
	if len(original.TypeParams) == 0 {
		rs, err := r.resolveStructValue(original)
		if err != nil {
			return nil, err
		}
		return []resolved.Declaration{rs}, nil
	}

	copies := r.Store.GetMonomorphizedCopies(declID)
	out := make([]resolved.Declaration, 0, len(copies))
	for _, copyID := range copies {
		s, err := r.Store.GetStruct(copyID)
		if err != nil {
			return nil, err
		}
		rs, err := r.resolveStructValue(s)
		if err != nil {
			if dropErr := r.dropCopy(s.Name, err); dropErr != nil {
				return nil, dropErr
			}
			continue
		}
		out = append(out, rs)
	}
	return out, nil
}

func (r *Resolve) resolveStructValue(s declarations.Struct) (resolved.Struct, error) {
	fields, err := r.resolveFieldDecls(s.Fields)
	if err != nil {
		return resolved.Struct{}, err
	}
	return resolved.Struct{Name: s.Name, Fields: fields}, nil
}

func (r *Resolve) resolveEnumDecl(declID declarations.DeclarationID) ([]resolved.Declaration, error) {
	original, err := r.Store.GetEnum(declID)
	if err != nil {
		return nil, err
	}
	if len(original.TypeParams) == 0 {
		re, err := r.resolveEnumValue(original)
		if err != nil {
			return nil, err
		}
		return []resolved.Declaration{re}, nil
	}

	copies := r.Store.GetMonomorphizedCopies(declID)
	out := make([]resolved.Declaration, 0, len(copies))
	for _, copyID := range copies {
		en, err := r.Store.GetEnum(copyID)
		if err != nil {
			return nil, err
		}
		re, err := r.resolveEnumValue(en)
		if err != nil {
			if dropErr := r.dropCopy(en.Name, err); dropErr != nil {
				return nil, dropErr
			}
			continue
		}
		out = append(out, re)
	}
	return out, nil
}

func (r *Resolve) resolveEnumValue(en declarations.Enum) (resolved.Enum, error) {
	variants, err := r.resolveFieldDecls(en.Variants)
	if err != nil {
		return resolved.Enum{}, err
	}
	return resolved.Enum{Name: en.Name, Variants: variants}, nil
}

func (r *Resolve) resolveFieldDecls(fields []typesystem.Field) ([]resolved.FieldDecl, error) {
	out := make([]resolved.FieldDecl, len(fields))
	for i, f := range fields {
		t, err := r.Engine.Resolve(f.ID)
		if err != nil {
			return nil, err
		}
		out[i] = resolved.FieldDecl{Name: f.Name, Type: t}
	}
	return out, nil
}

func (r *Resolve) resolveTrait(declID declarations.DeclarationID) ([]resolved.Declaration, error) {
	trait, err := r.Store.GetTrait(declID)
	if err != nil {
		return nil, err
	}
	sigs := make([]resolved.TraitFnSig, len(trait.InterfaceSurface))
	for i, fnID := range trait.InterfaceSurface {
		fn, err := r.Store.GetTraitFn(fnID)
		if err != nil {
			return nil, err
		}
		params, err := r.resolveParameters(fn.Parameters)
		if err != nil {
			return nil, err
		}
		ret, err := r.Engine.Resolve(fn.ReturnType)
		if err != nil {
			return nil, err
		}
		sigs[i] = resolved.TraitFnSig{Name: fn.Name, Parameters: params, ReturnType: ret}
	}
	return []resolved.Declaration{resolved.Trait{Name: trait.Name, InterfaceSurface: sigs}}, nil
}

// resolveTraitImpl resolves every method directly off the store: method
// calls dispatch straight to the declared implementation without
// cloning or monomorphizing it, so there are no monomorphized copies to
// read back here, unlike resolveFunctionDecl.
func (r *Resolve) resolveTraitImpl(declID declarations.DeclarationID) ([]resolved.Declaration, error) {
	impl, err := r.Store.GetTraitImpl(declID)
	if err != nil {
		return nil, err
	}
	typ, err := r.Engine.Resolve(impl.TypeImplementingFor)
	if err != nil {
		return nil, err
	}
	methods := make([]resolved.Function, 0, len(impl.Methods))
	for _, methodID := range impl.Methods {
		fn, err := r.Store.GetFunction(methodID)
		if err != nil {
			return nil, err
		}
		rf, err := r.resolveFunctionValue(fn)
		if err != nil {
			return nil, err
		}
		methods = append(methods, rf)
	}
	return []resolved.Declaration{resolved.TraitImpl{TraitName: impl.TraitName, TypeImplementingFor: typ, Methods: methods}}, nil
}

func (r *Resolve) resolveExpression(e typed.Expression) (resolved.Expression, error) {
	switch expr := e.(type) {
	case *typed.Literal:
		t, err := r.Engine.Resolve(expr.ID)
		if err != nil {
			return nil, err
		}
		return resolved.Literal{Width: expr.Width, Value: expr.Value, Type: t}, nil
	case *typed.Variable:
		t, err := r.Engine.Resolve(expr.ID)
		if err != nil {
			return nil, err
		}
		return resolved.VariableRef{Name: expr.Name, Type: t}, nil
	case *typed.FunctionApplication:
		args, err := r.resolveExpressions(expr.Arguments)
		if err != nil {
			return nil, err
		}
		t, err := r.Engine.Resolve(expr.ID)
		if err != nil {
			return nil, err
		}
		return resolved.FunctionApplication{Name: expr.Name, Arguments: args, Type: t}, nil
	case *typed.MethodCall:
		args, err := r.resolveExpressions(expr.Arguments)
		if err != nil {
			return nil, err
		}
		t, err := r.Engine.Resolve(expr.ID)
		if err != nil {
			return nil, err
		}
		return resolved.MethodCall{Receiver: expr.ReceiverName, Method: expr.MethodName, Arguments: args, Type: t}, nil
	case *typed.StructExpression:
		fields := make([]resolved.FieldValue, len(expr.Fields))
		for i, f := range expr.Fields {
			v, err := r.resolveExpression(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = resolved.FieldValue{Name: f.Name, Value: v}
		}
		t, err := r.Engine.Resolve(expr.ID)
		if err != nil {
			return nil, err
		}
		return resolved.StructExpression{Name: expr.Name, Fields: fields, Type: t}, nil
	case *typed.EnumExpression:
		var value resolved.Expression
		if expr.Value != nil {
			v, err := r.resolveExpression(expr.Value)
			if err != nil {
				return nil, err
			}
			value = v
		}
		t, err := r.Engine.Resolve(expr.ID)
		if err != nil {
			return nil, err
		}
		return resolved.EnumExpression{Name: expr.Name, Variant: expr.Variant, Value: value, Type: t}, nil
	case *typed.FunctionParameter:
		diagnostics.Panic(diagnostics.InternalError, "FunctionParameter pseudo-expression reached the resolver")
		return nil, nil
	default:
		return nil, diagnostics.New(diagnostics.PhaseResolve, diagnostics.InternalError, "unknown expression variant %T", e)
	}
}

func (r *Resolve) resolveExpressions(es []typed.Expression) ([]resolved.Expression, error) {
	out := make([]resolved.Expression, len(es))
	for i, e := range es {
		re, err := r.resolveExpression(e)
		if err != nil {
			return nil, err
		}
		out[i] = re
	}
	return out, nil
}
