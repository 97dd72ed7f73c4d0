// Package namespace implements the lexical scoping the inference engine
// (C6) consults while walking a function body: variable/parameter name
// bindings, and the (type id, trait name) -> method list registration
// that lets a method call on a generic type parameter resolve once its
// trait constraint is known. This is a separate structure from the
// collection graph (C4) — the graph answers "what declarations exist in
// this scope", the namespace answers "what does this local name mean
// right now". Grounded on
// original_source/de_cc/src/namespace/namespace.rs.
package namespace

import (
	"github.com/vela-lang/semantica/internal/declarations"
	"github.com/vela-lang/semantica/internal/diagnostics"
	"github.com/vela-lang/semantica/internal/typesystem"
)

// Symbol is a variable binding: a name and the TypeID it was declared
// (or inferred) with.
type Symbol struct {
	Name string
	ID   typesystem.TypeID
}

// Namespace is a lexical scope. Scoped() copies the parent's tables when
// the child is created, matching the Rust original's clone-per-scope
// semantics: a child scope sees every
// binding its parent had at the time it was entered, and can shadow or
// add bindings without affecting the parent.
type Namespace struct {
	symbols map[string]Symbol
	// methods maps a type id to its trait-qualified method lists, keyed
	// by trait name. Registered once per (type id, trait) pair, usually
	// when a function decl resolves a type parameter's trait constraint.
	methods map[typesystem.TypeID]map[string][]declarations.DeclarationID
}

// New returns an empty, top-level namespace.
func New() *Namespace {
	return &Namespace{
		symbols: make(map[string]Symbol),
		methods: make(map[typesystem.TypeID]map[string][]declarations.DeclarationID),
	}
}

// Scoped returns a child namespace that starts as a copy of the current
// bindings; inserts into the child never leak back into the parent.
func (n *Namespace) Scoped() *Namespace {
	symbols := make(map[string]Symbol, len(n.symbols))
	for k, v := range n.symbols {
		symbols[k] = v
	}
	methods := make(map[typesystem.TypeID]map[string][]declarations.DeclarationID, len(n.methods))
	for id, byTrait := range n.methods {
		cp := make(map[string][]declarations.DeclarationID, len(byTrait))
		for trait, ids := range byTrait {
			cp[trait] = append([]declarations.DeclarationID(nil), ids...)
		}
		methods[id] = cp
	}
	return &Namespace{symbols: symbols, methods: methods}
}

// InsertSymbol binds name to id in this scope, shadowing any existing
// binding of the same name.
func (n *Namespace) InsertSymbol(name string, id typesystem.TypeID) {
	n.symbols[name] = Symbol{Name: name, ID: id}
}

// GetSymbol looks up a local variable binding by name.
func (n *Namespace) GetSymbol(name string) (Symbol, error) {
	if s, ok := n.symbols[name]; ok {
		return s, nil
	}
	return Symbol{}, diagnostics.Symbol(diagnostics.PhaseInfer, name)
}

// RegisterMethods records a list of method declaration ids (a trait's
// TraitFn signatures, or a trait impl's Function methods) under trait
// as callable against receiverType, so a later method
// call on that type can resolve trait.method(...) without re-walking
// the collection graph.
func (n *Namespace) RegisterMethods(receiverType typesystem.TypeID, trait string, methods []declarations.DeclarationID) {
	byTrait, ok := n.methods[receiverType]
	if !ok {
		byTrait = make(map[string][]declarations.DeclarationID)
		n.methods[receiverType] = byTrait
	}
	byTrait[trait] = append(byTrait[trait], methods...)
}

// GetMethod resolves a method call: find name among every method
// registered against receiverType across every trait it implements.
// First match wins, matching get_symbol's first-hit BFS semantics.
func (n *Namespace) GetMethod(store *declarations.Store, receiverType typesystem.TypeID, name string) (declarations.DeclarationID, error) {
	for _, ids := range n.methods[receiverType] {
		for _, id := range ids {
			if methodName(store, id) == name {
				return id, nil
			}
		}
	}
	return 0, diagnostics.Symbol(diagnostics.PhaseInfer, name)
}

func methodName(store *declarations.Store, id declarations.DeclarationID) string {
	switch d := store.Get(id).(type) {
	case declarations.TraitFn:
		return d.Name
	case declarations.Function:
		return d.Name
	default:
		return ""
	}
}
