// Package infer implements the inference engine (C6): it walks the
// typed-AST graph the collector built and unifies every construct's
// type, resolving custom type references and monomorphizing generic
// declarations at each use site along the way. Grounded on
// original_source/de_cc/src/semantic_analysis/{type_inference,inference}.
package infer

import (
	"github.com/vela-lang/semantica/internal/declarations"
	"github.com/vela-lang/semantica/internal/diagnostics"
	"github.com/vela-lang/semantica/internal/graph"
	"github.com/vela-lang/semantica/internal/namespace"
	"github.com/vela-lang/semantica/internal/typed"
	"github.com/vela-lang/semantica/internal/typesystem"
)

// Infer is the inference engine, sharing the process-wide type engine,
// declaration store, and collection graph with the collector that ran
// before it.
type Infer struct {
	Engine *typesystem.Engine
	Store  *declarations.Store
	Graph  *graph.Graph
}

// New returns an inference engine over the given shared components.
func New(engine *typesystem.Engine, store *declarations.Store, g *graph.Graph) *Infer {
	return &Infer{Engine: engine, Store: store, Graph: g}
}

// Run walks every file and node of app, in order, sharing one top-level
// namespace across the whole application so a trait impl registered
// early is visible to every later use, the way S5's construct-then-call
// sequencing requires.
func (inf *Infer) Run(app *typed.Application) error {
	ns := namespace.New()
	for _, f := range app.Files {
		for _, n := range f.Nodes {
			if err := inf.inferNode(n, ns); err != nil {
				return err
			}
		}
	}
	return nil
}

func (inf *Infer) customResolver() *customResolver {
	return &customResolver{infer: inf}
}

// customResolver bridges the type engine's ResolveCustomTypes to the
// collection graph and declaration store, so package typesystem never
// has to import either.
type customResolver struct{ infer *Infer }

func (r *customResolver) ResolveCustom(scope typesystem.ScopeID, name string, typeArguments []typesystem.TypeID) (typesystem.TypeID, error) {
	declID, err := r.infer.Graph.GetSymbol(graph.NodeID(scope), r.infer.Store, name)
	if err != nil {
		return 0, err
	}

	if s, err := r.infer.Store.GetStruct(declID); err == nil {
		clone := s.Clone()
		return r.infer.monomorphizeNamed(declID, &clone, typeArguments)
	}
	if en, err := r.infer.Store.GetEnum(declID); err == nil {
		clone := en.Clone()
		return r.infer.monomorphizeNamed(declID, &clone, typeArguments)
	}
	return 0, diagnostics.WrongKind(diagnostics.PhaseInfer, "struct or enum", r.infer.Store.Get(declID).Kind())
}

// monomorphizeNamed runs Monomorphize over a struct/enum clone, registers
// it as a monomorphized copy, and interns its elaborated TypeInfo.
func (inf *Infer) monomorphizeNamed(original declarations.DeclarationID, clone interface {
	declarations.Declaration
	typesystem.Monomorphizable
}, typeArguments []typesystem.TypeID) (typesystem.TypeID, error) {
	if err := inf.Engine.Monomorphize(diagnostics.PhaseInfer, clone, typeArguments); err != nil {
		return 0, err
	}
	inf.Store.AddMonomorphizedCopy(original, clone)

	switch v := any(clone).(type) {
	case *declarations.Struct:
		return inf.Engine.Insert(v.AsTypeInfo()), nil
	case *declarations.Enum:
		return inf.Engine.Insert(v.AsTypeInfo()), nil
	default:
		return 0, diagnostics.New(diagnostics.PhaseInfer, diagnostics.InternalError, "unexpected monomorphizable %T", clone)
	}
}

func (inf *Infer) inferNode(n typed.Node, ns *namespace.Namespace) error {
	switch {
	case n.Declaration != nil:
		return inf.inferDeclaration(n.Declaration, n.Scope, ns)
	case n.Expression != nil:
		_, err := inf.inferExpression(n.Expression, n.Scope, ns)
		return err
	case n.Return != nil:
		_, err := inf.inferExpression(n.Return, n.Scope, ns)
		return err
	default:
		return nil
	}
}

func (inf *Infer) inferDeclaration(d *typed.Declaration, scope graph.NodeID, ns *namespace.Namespace) error {
	switch d.Kind {
	case typed.KindVariable:
		return inf.inferVariable(d.Variable, scope, ns)
	case typed.KindFunction:
		return inf.inferFunctionDecl(d.Function, scope, ns)
	case typed.KindTraitImpl:
		return inf.inferTraitImpl(d.TraitImpl, scope, ns)
	case typed.KindStruct:
		return inf.inferStructDecl(d.Struct, scope)
	case typed.KindEnum:
		return inf.inferEnumDecl(d.Enum, scope)
	default:
		// Trait declarations carry no executable body and no field
		// positions of their own; there is nothing left to infer.
		return nil
	}
}

// inferStructDecl and inferEnumDecl carry no body to type-check, but
// their field/variant positions can name other declared types (including
// each other), the same way a function parameter or variable ascription
// can: those Custom references have to be resolved here or they are
// never resolved at all. This is also where a mutually self-referencing
// pair of structs (spec's "infinite type" scenario) surfaces: resolving
// one side's field installs a Ref chain the other side's resolution
// walks back into, and ResolveCustomTypes' occurs-check catches it.
func (inf *Infer) inferStructDecl(declID declarations.DeclarationID, scope graph.NodeID) error {
	s, err := inf.Store.GetStruct(declID)
	if err != nil {
		return err
	}
	resolver := inf.customResolver()
	for _, f := range s.Fields {
		if err := inf.Engine.ResolveCustomTypes(f.ID, typesystem.ScopeID(scope), resolver); err != nil {
			return err
		}
	}
	return nil
}

func (inf *Infer) inferEnumDecl(declID declarations.DeclarationID, scope graph.NodeID) error {
	en, err := inf.Store.GetEnum(declID)
	if err != nil {
		return err
	}
	resolver := inf.customResolver()
	for _, v := range en.Variants {
		if err := inf.Engine.ResolveCustomTypes(v.ID, typesystem.ScopeID(scope), resolver); err != nil {
			return err
		}
	}
	return nil
}

func (inf *Infer) inferVariable(v *typed.VariableDeclaration, scope graph.NodeID, ns *namespace.Namespace) error {
	bodyID, err := inf.inferExpression(v.Body, scope, ns)
	if err != nil {
		return err
	}
	if err := inf.Engine.ResolveCustomTypes(v.Ascription, typesystem.ScopeID(scope), inf.customResolver()); err != nil {
		return err
	}
	if err := inf.Engine.Unify(bodyID, v.Ascription); err != nil {
		return err
	}
	ns.InsertSymbol(v.Name, v.Ascription)
	return nil
}

func (inf *Infer) inferFunctionDecl(fnID declarations.DeclarationID, scope graph.NodeID, ns *namespace.Namespace) error {
	f, err := inf.Store.GetFunction(fnID)
	if err != nil {
		return err
	}

	fnNS := ns.Scoped()
	resolver := inf.customResolver()

	for _, tp := range f.TypeParams {
		if tp.TraitConstraint == "" {
			continue
		}
		traitID, err := inf.Graph.GetSymbol(scope, inf.Store, tp.TraitConstraint)
		if err != nil {
			return err
		}
		trait, err := inf.Store.GetTrait(traitID)
		if err != nil {
			return err
		}
		fnNS.RegisterMethods(tp.ID, tp.TraitConstraint, trait.InterfaceSurface)
	}

	for _, p := range f.Parameters {
		if err := inf.Engine.ResolveCustomTypes(p.ID, typesystem.ScopeID(scope), resolver); err != nil {
			return err
		}
		fnNS.InsertSymbol(p.Name, p.ID)
	}

	body, _ := f.Body.([]typed.Node)
	actualReturn := inf.Engine.Insert(typesystem.Unit{})
	for _, n := range body {
		if n.Return != nil {
			id, err := inf.inferExpression(n.Return, n.Scope, fnNS)
			if err != nil {
				return err
			}
			actualReturn = id
			continue
		}
		if err := inf.inferNode(n, fnNS); err != nil {
			return err
		}
	}

	if err := inf.Engine.ResolveCustomTypes(f.ReturnType, typesystem.ScopeID(scope), resolver); err != nil {
		return err
	}
	return inf.Engine.Unify(actualReturn, f.ReturnType)
}

func (inf *Infer) inferTraitImpl(implID declarations.DeclarationID, scope graph.NodeID, ns *namespace.Namespace) error {
	impl, err := inf.Store.GetTraitImpl(implID)
	if err != nil {
		return err
	}
	// Register before walking bodies: a method may call a sibling method
	// on the same receiver type, and registration must already be live.
	ns.RegisterMethods(impl.TypeImplementingFor, impl.TraitName, impl.Methods)
	for _, methodID := range impl.Methods {
		if err := inf.inferFunctionDecl(methodID, scope, ns); err != nil {
			return err
		}
	}
	return nil
}

func (inf *Infer) inferExpression(e typed.Expression, scope graph.NodeID, ns *namespace.Namespace) (typesystem.TypeID, error) {
	switch expr := e.(type) {
	case *typed.Literal:
		return expr.ID, nil
	case *typed.Variable:
		return inf.inferVariableRef(expr, ns)
	case *typed.FunctionApplication:
		return inf.inferFunctionApplication(expr, scope, ns)
	case *typed.MethodCall:
		return inf.inferMethodCall(expr, scope, ns)
	case *typed.StructExpression:
		return inf.inferStructExpression(expr, scope, ns)
	case *typed.EnumExpression:
		return inf.inferEnumExpression(expr, scope, ns)
	case *typed.FunctionParameter:
		return 0, diagnostics.New(diagnostics.PhaseInfer, diagnostics.InternalError, "FunctionParameter pseudo-expression reached inference")
	default:
		return 0, diagnostics.New(diagnostics.PhaseInfer, diagnostics.InternalError, "unknown expression variant %T", e)
	}
}

func (inf *Infer) inferVariableRef(v *typed.Variable, ns *namespace.Namespace) (typesystem.TypeID, error) {
	sym, err := ns.GetSymbol(v.Name)
	if err != nil {
		return 0, err
	}
	if err := inf.Engine.Unify(sym.ID, v.ID); err != nil {
		return 0, err
	}
	return v.ID, nil
}

func (inf *Infer) inferFunctionApplication(app *typed.FunctionApplication, scope graph.NodeID, ns *namespace.Namespace) (typesystem.TypeID, error) {
	declID, err := inf.Graph.GetSymbol(scope, inf.Store, app.Name)
	if err != nil {
		return 0, err
	}
	original, err := inf.Store.GetFunction(declID)
	if err != nil {
		return 0, err
	}
	clone := original.Clone()

	if len(clone.Parameters) != len(app.Arguments) {
		return 0, diagnostics.Arity(diagnostics.PhaseInfer, app.Name, len(clone.Parameters), len(app.Arguments))
	}

	resolver := inf.customResolver()
	for _, ta := range app.TypeArguments {
		if err := inf.Engine.ResolveCustomTypes(ta, typesystem.ScopeID(scope), resolver); err != nil {
			return 0, err
		}
	}

	mapping, err := inf.Engine.MonomorphizeMapping(diagnostics.PhaseInfer, &clone, app.TypeArguments)
	if err != nil {
		return 0, err
	}

	for i, argExpr := range app.Arguments {
		argID, err := inf.inferExpression(argExpr, scope, ns)
		if err != nil {
			return 0, err
		}
		if err := inf.Engine.Unify(argID, clone.Parameters[i].ID); err != nil {
			return 0, err
		}
	}

	// Only now, once the arguments above have bound this call's fresh
	// UnknownGeneric placeholders to concrete types, can the body be
	// retyped through them: see cloneBody's doc comment.
	if mapping != nil {
		if body, ok := original.Body.([]typed.Node); ok {
			clone.Body = cloneBody(body, inf.Engine, mapping)
		}
	}
	app.MonomorphizedCopy = inf.Store.AddMonomorphizedCopy(declID, clone)

	if err := inf.Engine.Unify(clone.ReturnType, app.ID); err != nil {
		return 0, err
	}
	return app.ID, nil
}

func (inf *Infer) inferMethodCall(mc *typed.MethodCall, scope graph.NodeID, ns *namespace.Namespace) (typesystem.TypeID, error) {
	recv, err := ns.GetSymbol(mc.ReceiverName)
	if err != nil {
		return 0, err
	}
	methodID, err := ns.GetMethod(inf.Store, recv.ID, mc.MethodName)
	if err != nil {
		return 0, err
	}
	params, retType, err := inf.methodSignature(methodID)
	if err != nil {
		return 0, err
	}
	if len(params) != len(mc.Arguments) {
		return 0, diagnostics.Arity(diagnostics.PhaseInfer, mc.MethodName, len(params), len(mc.Arguments))
	}
	for i, argExpr := range mc.Arguments {
		argID, err := inf.inferExpression(argExpr, scope, ns)
		if err != nil {
			return 0, err
		}
		if err := inf.Engine.Unify(argID, params[i].ID); err != nil {
			return 0, err
		}
	}
	if err := inf.Engine.Unify(retType, mc.ID); err != nil {
		return 0, err
	}
	return mc.ID, nil
}

func (inf *Infer) methodSignature(id declarations.DeclarationID) ([]declarations.Parameter, typesystem.TypeID, error) {
	switch d := inf.Store.Get(id).(type) {
	case declarations.Function:
		return d.Parameters, d.ReturnType, nil
	case declarations.TraitFn:
		return d.Parameters, d.ReturnType, nil
	default:
		return nil, 0, diagnostics.WrongKind(diagnostics.PhaseInfer, "function or trait_fn", d.Kind())
	}
}

func (inf *Infer) inferStructExpression(se *typed.StructExpression, scope graph.NodeID, ns *namespace.Namespace) (typesystem.TypeID, error) {
	declID, err := inf.Graph.GetSymbol(scope, inf.Store, se.Name)
	if err != nil {
		return 0, err
	}
	original, err := inf.Store.GetStruct(declID)
	if err != nil {
		return 0, err
	}
	clone := original.Clone()

	resolver := inf.customResolver()
	for _, ta := range se.TypeArguments {
		if err := inf.Engine.ResolveCustomTypes(ta, typesystem.ScopeID(scope), resolver); err != nil {
			return 0, err
		}
	}

	if err := inf.Engine.Monomorphize(diagnostics.PhaseInfer, &clone, se.TypeArguments); err != nil {
		return 0, err
	}
	se.MonomorphizedCopy = inf.Store.AddMonomorphizedCopy(declID, clone)

	if err := checkFieldSetEquality(se.Name, clone.Fields, se.Fields); err != nil {
		return 0, err
	}

	declaredByName := make(map[string]typesystem.TypeID, len(clone.Fields))
	for _, f := range clone.Fields {
		declaredByName[f.Name] = f.ID
	}
	for _, fv := range se.Fields {
		valID, err := inf.inferExpression(fv.Value, scope, ns)
		if err != nil {
			return 0, err
		}
		if err := inf.Engine.Unify(valID, declaredByName[fv.Name]); err != nil {
			return 0, err
		}
	}

	structTypeID := inf.Engine.Insert(clone.AsTypeInfo())
	if err := inf.Engine.Unify(structTypeID, se.ID); err != nil {
		return 0, err
	}
	return se.ID, nil
}

func checkFieldSetEquality(name string, declared []typesystem.Field, provided []typed.FieldValue) error {
	want := make([]string, len(declared))
	for i, f := range declared {
		want[i] = f.Name
	}
	got := make([]string, len(provided))
	for i, f := range provided {
		got[i] = f.Name
	}
	if !sameNameSet(want, got) {
		return diagnostics.Field(diagnostics.PhaseInfer, name, want, got)
	}
	return nil
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}

func (inf *Infer) inferEnumExpression(ee *typed.EnumExpression, scope graph.NodeID, ns *namespace.Namespace) (typesystem.TypeID, error) {
	declID, err := inf.Graph.GetSymbol(scope, inf.Store, ee.Name)
	if err != nil {
		return 0, err
	}
	en, err := inf.Store.GetEnum(declID)
	if err != nil {
		return 0, err
	}

	var variantID typesystem.TypeID
	found := false
	for _, v := range en.Variants {
		if v.Name == ee.Variant {
			variantID = v.ID
			found = true
			break
		}
	}
	if !found {
		return 0, diagnostics.Symbol(diagnostics.PhaseInfer, ee.Variant)
	}

	if ee.Value != nil {
		valID, err := inf.inferExpression(ee.Value, scope, ns)
		if err != nil {
			return 0, err
		}
		if err := inf.Engine.Unify(valID, variantID); err != nil {
			return 0, err
		}
	}

	enumTypeID := inf.Engine.Insert(en.AsTypeInfo())
	if err := inf.Engine.Unify(enumTypeID, ee.ID); err != nil {
		return 0, err
	}
	return ee.ID, nil
}
