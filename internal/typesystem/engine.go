package typesystem

import (
	"reflect"

	"github.com/vela-lang/semantica/internal/diagnostics"
	"github.com/vela-lang/semantica/internal/slab"
)

// ScopeID is an opaque handle into whatever scope graph the caller uses
// to resolve Custom type names. The type engine never interprets it —
// it only threads it through to a CustomResolver.
type ScopeID int

// CustomResolver is implemented by the collection-graph layer and
// injected into ResolveCustomTypes so that this package never imports
// the graph or declaration packages directly (they sit above it).
type CustomResolver interface {
	ResolveCustom(scope ScopeID, name string, typeArguments []TypeID) (TypeID, error)
}

// Monomorphizable is implemented by anything that can be monomorphized:
// function and struct/enum declarations. CopyTypes must rewrite every
// TypeID the value owns (parameter types, field types, return type)
// through Engine.CopyTypeID using the given mapping.
type Monomorphizable interface {
	TypeParameters() []TypeParameter
	CopyTypes(e *Engine, mapping TypeMapping)
}

// Engine is the process-wide type engine: one append-only slab of
// TypeInfo plus the operations from the reference type_engine module.
// The zero value is not usable; construct with NewEngine.
type Engine struct {
	types *slab.Slab[TypeInfo]
}

// NewEngine returns a fresh, empty type engine.
func NewEngine() *Engine {
	return &Engine{types: slab.New[TypeInfo]()}
}

// Clear drops every interned type. Compile does not call it; it builds a
// fresh Engine for every run instead.
func (e *Engine) Clear() { e.types.Clear() }

// Insert interns t and returns the TypeID naming it.
func (e *Engine) Insert(t TypeInfo) TypeID {
	return TypeID(e.types.Insert(t))
}

// LookUpRaw returns the immediate entry at id without following Ref
// chains.
func (e *Engine) LookUpRaw(id TypeID) TypeInfo {
	return e.types.Get(int(id))
}

// LookUp follows Ref chains to the terminal, non-Ref entry.
func (e *Engine) LookUp(id TypeID) TypeInfo {
	for {
		t := e.LookUpRaw(id)
		ref, ok := t.(Ref)
		if !ok {
			return t
		}
		id = ref.To
	}
}

func typeInfoEqual(a, b TypeInfo) bool { return reflect.DeepEqual(a, b) }

// replaceIfStill performs the slab's compare-and-swap and reports whether
// it took place. It does not retry itself; on a lost race (another
// writer already moved the slot) its callers re-run their operation
// against the new value rather than overwriting it.
func (e *Engine) replaceIfStill(id TypeID, expect TypeInfo, next TypeInfo) (ok bool) {
	_, ok = e.types.CompareAndSwap(int(id), expect, next, typeInfoEqual)
	return ok
}

// Unify attempts to make received and expected the same type, rewriting
// Unknown/UnknownGeneric placeholders into Ref links as it learns more.
func (e *Engine) Unify(received, expected TypeID) error {
	if e.occursCheck(received, expected) {
		diagnostics.Panic(diagnostics.InternalError, "recursive type has infinite size")
	}
	return e.unify(received, expected)
}

func (e *Engine) unify(received, expected TypeID) error {
	r := e.LookUpRaw(received)
	x := e.LookUpRaw(expected)

	switch rv := r.(type) {
	case Unit:
		if _, ok := x.(Unit); ok {
			return nil
		}
	case UnsignedInteger:
		if xv, ok := x.(UnsignedInteger); ok {
			if rv.Width == xv.Width {
				return nil
			}
			return NewTypeMismatchError(xv, rv)
		}
	case Unknown:
		if !e.replaceIfStill(received, rv, Ref{To: expected}) {
			return e.unify(received, expected)
		}
		return nil
	case Ref:
		if xv, ok := x.(Ref); ok {
			if rv.To == xv.To {
				return nil
			}
			return e.unify(rv.To, xv.To)
		}
		return e.unify(rv.To, expected)
	case UnknownGeneric:
		if xv, ok := x.(UnknownGeneric); ok {
			if rv.Name == xv.Name {
				return nil
			}
		}
		// Any other right-hand side, including a concrete type: an
		// UnknownGeneric is a placeholder exactly like Unknown once
		// monomorphization starts unifying it against a real
		// argument, so it path-compresses the same way.
		if !e.replaceIfStill(received, rv, Ref{To: expected}) {
			return e.unify(received, expected)
		}
		return nil
	case Struct:
		if xv, ok := x.(Struct); ok {
			return e.unifyStructLike(rv.Name, rv.TypeParameters, structFieldIDs(rv.Fields), xv.Name, xv.TypeParameters, structFieldIDs(xv.Fields))
		}
	case Enum:
		if xv, ok := x.(Enum); ok {
			return e.unifyStructLike(rv.Name, rv.TypeParameters, structFieldIDs(rv.Variants), xv.Name, xv.TypeParameters, structFieldIDs(xv.Variants))
		}
	}

	// Symmetric cases not covered above: (*, Unknown) and (*, Ref).
	switch xv := x.(type) {
	case Unknown:
		if !e.replaceIfStill(expected, xv, Ref{To: received}) {
			return e.unify(received, expected)
		}
		return nil
	case Ref:
		return e.unify(received, xv.To)
	}

	return NewTypeMismatchError(x, r)
}

func structFieldIDs(fields []Field) []TypeID {
	ids := make([]TypeID, len(fields))
	for i, f := range fields {
		ids[i] = f.ID
	}
	return ids
}

func (e *Engine) unifyStructLike(rName string, rParams []TypeParameter, rFields []TypeID, xName string, xParams []TypeParameter, xFields []TypeID) error {
	if rName != xName || len(rParams) != len(xParams) || len(rFields) != len(xFields) {
		return NewTypeMismatchError(Struct{Name: xName}, Struct{Name: rName})
	}
	for i := range rParams {
		if err := e.unify(rParams[i].ID, xParams[i].ID); err != nil {
			return err
		}
	}
	for i := range rFields {
		if err := e.unify(rFields[i], xFields[i]); err != nil {
			return err
		}
	}
	return nil
}

// occursCheck reports whether unifying a and b would create an infinite
// cycle: either side self-loops through Ref/struct/enum/custom
// structure, or their transitive closures intersect.
func (e *Engine) occursCheck(a, b TypeID) bool {
	closureA, loopA := e.closure(a)
	if loopA {
		return true
	}
	closureB, loopB := e.closure(b)
	if loopB {
		return true
	}
	for id := range closureA {
		if closureB[id] {
			return true
		}
	}
	return false
}

func (e *Engine) closure(start TypeID) (map[TypeID]bool, bool) {
	visited := map[TypeID]bool{}
	selfLoop := false
	var walk func(id TypeID)
	walk = func(id TypeID) {
		if visited[id] {
			selfLoop = true
			return
		}
		visited[id] = true
		switch t := e.LookUpRaw(id).(type) {
		case Ref:
			walk(t.To)
		case Struct:
			for _, p := range t.TypeParameters {
				walk(p.ID)
			}
			for _, f := range t.Fields {
				walk(f.ID)
			}
		case Enum:
			for _, p := range t.TypeParameters {
				walk(p.ID)
			}
			for _, v := range t.Variants {
				walk(v.ID)
			}
		case Custom:
			for _, a := range t.TypeArguments {
				walk(a)
			}
		}
	}
	walk(start)
	return visited, selfLoop
}

// Resolve lowers id to the codegen-safe ResolvedType, or an error if any
// Unknown/UnknownGeneric/Custom/ErrorRecovery remains reachable.
func (e *Engine) Resolve(id TypeID) (ResolvedType, error) {
	switch t := e.LookUpRaw(id).(type) {
	case Ref:
		return e.Resolve(t.To)
	case Unit:
		return ResolvedUnit{}, nil
	case UnsignedInteger:
		return ResolvedUnsignedInteger{Width: t.Width}, nil
	case Struct:
		params, err := e.resolveAll(typeParameterIDs(t.TypeParameters))
		if err != nil {
			return nil, err
		}
		fields, err := e.resolveFields(t.Fields)
		if err != nil {
			return nil, err
		}
		return ResolvedStruct{Name: t.Name, TypeParameters: params, Fields: fields}, nil
	case Enum:
		params, err := e.resolveAll(typeParameterIDs(t.TypeParameters))
		if err != nil {
			return nil, err
		}
		variants, err := e.resolveFields(t.Variants)
		if err != nil {
			return nil, err
		}
		return ResolvedEnum{Name: t.Name, TypeParameters: params, Variants: variants}, nil
	default:
		return nil, diagnostics.New(diagnostics.PhaseResolve, diagnostics.ResolutionFailure, "type %v did not resolve", t)
	}
}

func typeParameterIDs(params []TypeParameter) []TypeID {
	ids := make([]TypeID, len(params))
	for i, p := range params {
		ids[i] = p.ID
	}
	return ids
}

func (e *Engine) resolveAll(ids []TypeID) ([]ResolvedType, error) {
	out := make([]ResolvedType, len(ids))
	for i, id := range ids {
		r, err := e.Resolve(id)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (e *Engine) resolveFields(fields []Field) ([]ResolvedField, error) {
	out := make([]ResolvedField, len(fields))
	for i, f := range fields {
		r, err := e.Resolve(f.ID)
		if err != nil {
			return nil, err
		}
		out[i] = ResolvedField{Name: f.Name, Type: r}
	}
	return out, nil
}

// ResolveCustomTypes elaborates a Custom reference in place: it asks the
// resolver to locate the named struct or enum declaration in scope,
// monomorphize it with the given type arguments, and hand back the TypeID
// of the elaborated type. The slot at id is then replaced (save-previous,
// replace pattern) with a Ref to that elaborated entry. Every other
// variant is a no-op; Ref is followed and resolved recursively.
func (e *Engine) ResolveCustomTypes(id TypeID, scope ScopeID, resolver CustomResolver) error {
	raw := e.LookUpRaw(id)
	switch t := raw.(type) {
	case Ref:
		return e.ResolveCustomTypes(t.To, scope, resolver)
	case Custom:
		elaborated, err := resolver.ResolveCustom(scope, t.Name, t.TypeArguments)
		if err != nil {
			return err
		}
		if e.occursCheck(id, elaborated) {
			diagnostics.Panic(diagnostics.InternalError, "recursive type has infinite size")
		}
		if !e.replaceIfStill(id, t, Ref{To: elaborated}) {
			return e.ResolveCustomTypes(id, scope, resolver)
		}
		return nil
	default:
		return nil
	}
}

// Monomorphize implements the four-case table from the type engine
// design: no type parameters and no arguments is a no-op; parameters
// with no caller-supplied arguments substitutes fresh UnknownGeneric
// placeholders the caller will unify later; arguments with no
// parameters is a wrong-declaration-kind error; and the matched case unifies each fresh
// generic with its corresponding argument before rewriting.
func (e *Engine) Monomorphize(phase diagnostics.Phase, value Monomorphizable, typeArguments []TypeID) error {
	_, err := e.MonomorphizeMapping(phase, value, typeArguments)
	return err
}

// MonomorphizeMapping does exactly what Monomorphize does, and also
// returns the TypeMapping it built (nil in the no-op case). Callers that
// own additional structure built out of the same type parameters — the
// inference engine's typed function bodies, notably — use the returned
// mapping to rewrite that structure through CopyTypeID themselves,
// since CopyTypes on the declaration only reaches the fields the
// Monomorphizable interface exposes (parameters/fields/return type).
func (e *Engine) MonomorphizeMapping(phase diagnostics.Phase, value Monomorphizable, typeArguments []TypeID) (TypeMapping, error) {
	params := value.TypeParameters()
	switch {
	case len(params) == 0 && len(typeArguments) == 0:
		return nil, nil
	case len(params) != 0 && len(typeArguments) == 0:
		mapping := e.insertTypeParameters(params)
		value.CopyTypes(e, mapping)
		return mapping, nil
	case len(params) == 0 && len(typeArguments) != 0:
		return nil, diagnostics.New(phase, diagnostics.WrongDeclKind, "does not take type arguments")
	default:
		if len(params) != len(typeArguments) {
			return nil, diagnostics.Arity(phase, "type arguments", len(params), len(typeArguments))
		}
		mapping := e.insertTypeParameters(params)
		for i, p := range params {
			if err := e.Unify(mapping[p.ID], typeArguments[i]); err != nil {
				return nil, err
			}
		}
		value.CopyTypes(e, mapping)
		return mapping, nil
	}
}

func (e *Engine) insertTypeParameters(params []TypeParameter) TypeMapping {
	mapping := make(TypeMapping, len(params))
	for _, p := range params {
		mapping[p.ID] = e.Insert(UnknownGeneric{Name: p.Name})
	}
	return mapping
}

// CopyTypeID is the structure-recursive rewrite used by monomorphization:
// if id is a key in mapping, the result points (via Ref) at the mapped
// id; otherwise, for composite types, every nested TypeID is copied
// recursively and — only if anything actually changed — a fresh copy of
// the rewritten TypeInfo is inserted and returned wrapped in Ref, so a
// monomorphized copy never aliases the original declaration's entries.
// Leaf types with nothing to substitute are returned unchanged.
func (e *Engine) CopyTypeID(id TypeID, mapping TypeMapping) TypeID {
	if mapped, ok := mapping[id]; ok {
		return e.Insert(Ref{To: mapped})
	}

	switch t := e.LookUpRaw(id).(type) {
	case Ref:
		return e.CopyTypeID(t.To, mapping)
	case Struct:
		newParams, paramsChanged := e.copyTypeParameters(t.TypeParameters, mapping)
		newFields, fieldsChanged := e.copyFields(t.Fields, mapping)
		if !paramsChanged && !fieldsChanged {
			return id
		}
		fresh := e.Insert(Struct{Name: t.Name, TypeParameters: newParams, Fields: newFields})
		return e.Insert(Ref{To: fresh})
	case Enum:
		newParams, paramsChanged := e.copyTypeParameters(t.TypeParameters, mapping)
		newVariants, variantsChanged := e.copyFields(t.Variants, mapping)
		if !paramsChanged && !variantsChanged {
			return id
		}
		fresh := e.Insert(Enum{Name: t.Name, TypeParameters: newParams, Variants: newVariants})
		return e.Insert(Ref{To: fresh})
	case Custom:
		newArgs := make([]TypeID, len(t.TypeArguments))
		changed := false
		for i, a := range t.TypeArguments {
			newArgs[i] = e.CopyTypeID(a, mapping)
			if newArgs[i] != a {
				changed = true
			}
		}
		if !changed {
			return id
		}
		fresh := e.Insert(Custom{Name: t.Name, TypeArguments: newArgs})
		return e.Insert(Ref{To: fresh})
	default:
		return id
	}
}

func (e *Engine) copyTypeParameters(params []TypeParameter, mapping TypeMapping) ([]TypeParameter, bool) {
	out := make([]TypeParameter, len(params))
	changed := false
	for i, p := range params {
		newID := e.CopyTypeID(p.ID, mapping)
		if newID != p.ID {
			changed = true
		}
		out[i] = TypeParameter{Name: p.Name, ID: newID, TraitConstraint: p.TraitConstraint}
	}
	return out, changed
}

func (e *Engine) copyFields(fields []Field, mapping TypeMapping) ([]Field, bool) {
	out := make([]Field, len(fields))
	changed := false
	for i, f := range fields {
		newID := e.CopyTypeID(f.ID, mapping)
		if newID != f.ID {
			changed = true
		}
		out[i] = Field{Name: f.Name, ID: newID}
	}
	return out, changed
}
