// Package declarations is the process-wide declaration store: a slab of
// tagged declaration wrappers plus a lock-protected map from an original
// declaration id to the ids of its monomorphized copies. Grounded on
// original_source/de_cc/src/declaration_engine/declaration_engine.rs,
// carried into Go as one slab of an interface-typed wrapper rather than
// Rust's enum, matching this codebase's tagged-union idiom elsewhere
// (typesystem.TypeInfo, the typed/resolved AST node variants).
package declarations

import (
	"sync"

	"github.com/vela-lang/semantica/internal/diagnostics"
	"github.com/vela-lang/semantica/internal/slab"
	"github.com/vela-lang/semantica/internal/typesystem"
)

// DeclarationID is an opaque index into the declaration slab.
type DeclarationID int

// Declaration is the tagged union over every declaration kind the store
// holds. DeclarationUnknown is the union's default, unknown variant;
// nothing in this package inserts it.
type Declaration interface {
	declaration()
	Kind() string
}

type DeclarationUnknown struct{}

func (DeclarationUnknown) declaration() {}
func (DeclarationUnknown) Kind() string { return "unknown" }

// Function is a function declaration: name, type parameters, parameters,
// body (opaque to this package — it is the internal/typed node tree),
// and return type.
type Function struct {
	Name       string
	TypeParams []typesystem.TypeParameter
	Parameters []Parameter
	Body       any // *typed.Node, kept as any to avoid an import cycle
	ReturnType typesystem.TypeID
}

type Parameter struct {
	Name string
	ID   typesystem.TypeID
}

func (Function) declaration() {}
func (Function) Kind() string { return "function" }

// TypeParameters and CopyTypes implement typesystem.Monomorphizable.
func (f *Function) TypeParameters() []typesystem.TypeParameter { return f.TypeParams }

func (f *Function) CopyTypes(e *typesystem.Engine, mapping typesystem.TypeMapping) {
	for i, p := range f.Parameters {
		f.Parameters[i] = Parameter{Name: p.Name, ID: e.CopyTypeID(p.ID, mapping)}
	}
	f.ReturnType = e.CopyTypeID(f.ReturnType, mapping)
}

// Clone returns a deep-enough copy of f for monomorphization: Parameters
// and TypeParams get their own backing arrays, so CopyTypes mutating the
// clone in place never corrupts the original declaration's entries. Body
// is carried over by reference — the clone reuses the same typed-node
// tree; for a generic call the inference engine then replaces it with a
// retyped deep copy (see infer's cloneBody).
func (f Function) Clone() Function {
	return Function{
		Name:       f.Name,
		TypeParams: append([]typesystem.TypeParameter(nil), f.TypeParams...),
		Parameters: append([]Parameter(nil), f.Parameters...),
		Body:       f.Body,
		ReturnType: f.ReturnType,
	}
}

// Struct is a struct declaration.
type Struct struct {
	Name       string
	TypeParams []typesystem.TypeParameter
	Fields     []typesystem.Field
}

func (Struct) declaration() {}
func (Struct) Kind() string { return "struct" }

func (s *Struct) TypeParameters() []typesystem.TypeParameter { return s.TypeParams }
func (s *Struct) CopyTypes(e *typesystem.Engine, mapping typesystem.TypeMapping) {
	for i, f := range s.Fields {
		s.Fields[i] = typesystem.Field{Name: f.Name, ID: e.CopyTypeID(f.ID, mapping)}
	}
}

// Clone returns a deep-enough copy of s for monomorphization: Fields and
// TypeParams get their own backing arrays, so CopyTypes mutating the
// clone in place never corrupts the original declaration's entries.
func (s Struct) Clone() Struct {
	return Struct{
		Name:       s.Name,
		TypeParams: append([]typesystem.TypeParameter(nil), s.TypeParams...),
		Fields:     append([]typesystem.Field(nil), s.Fields...),
	}
}

// AsTypeInfo elaborates this struct into a fully-formed typesystem.Struct
// TypeInfo, for use by resolve_custom_types once the declaration's own
// fields have been resolved/monomorphized.
func (s Struct) AsTypeInfo() typesystem.Struct {
	return typesystem.Struct{Name: s.Name, TypeParameters: s.TypeParams, Fields: s.Fields}
}

// Enum is an enum declaration: like Struct, but its payload slots are
// called variants (spec.md §10 treats enums as structs one level up).
type Enum struct {
	Name       string
	TypeParams []typesystem.TypeParameter
	Variants   []typesystem.Field
}

func (Enum) declaration() {}
func (Enum) Kind() string { return "enum" }

func (en *Enum) TypeParameters() []typesystem.TypeParameter { return en.TypeParams }
func (en *Enum) CopyTypes(e *typesystem.Engine, mapping typesystem.TypeMapping) {
	for i, v := range en.Variants {
		en.Variants[i] = typesystem.Field{Name: v.Name, ID: e.CopyTypeID(v.ID, mapping)}
	}
}

// Clone returns a deep-enough copy of en for monomorphization, matching
// Struct.Clone's reasoning.
func (en Enum) Clone() Enum {
	return Enum{
		Name:       en.Name,
		TypeParams: append([]typesystem.TypeParameter(nil), en.TypeParams...),
		Variants:   append([]typesystem.Field(nil), en.Variants...),
	}
}

func (en Enum) AsTypeInfo() typesystem.Enum {
	return typesystem.Enum{Name: en.Name, TypeParameters: en.TypeParams, Variants: en.Variants}
}

// Trait is a trait declaration: a name plus the ids of its trait-fn
// signatures (its interface surface).
type Trait struct {
	Name             string
	InterfaceSurface []DeclarationID
}

func (Trait) declaration() {}
func (Trait) Kind() string { return "trait" }

// TraitFn is one signature in a trait's interface surface.
type TraitFn struct {
	Name       string
	Parameters []Parameter
	ReturnType typesystem.TypeID
}

func (TraitFn) declaration() {}
func (TraitFn) Kind() string { return "trait_fn" }

// TraitImpl binds a trait to a concrete implementing type with concrete
// method bodies.
type TraitImpl struct {
	TraitName           string
	TypeImplementingFor typesystem.TypeID
	Methods             []DeclarationID // each a Function
}

func (TraitImpl) declaration() {}
func (TraitImpl) Kind() string { return "trait_impl" }

// Store is the process-wide declaration store.
type Store struct {
	decls *slab.Slab[Declaration]

	mu   sync.RWMutex
	mono map[DeclarationID][]DeclarationID
}

// NewStore returns a fresh, empty declaration store.
func NewStore() *Store {
	return &Store{decls: slab.New[Declaration](), mono: make(map[DeclarationID][]DeclarationID)}
}

// Clear resets both the declaration slab and the monomorphized-copies map.
func (s *Store) Clear() {
	s.decls.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mono = make(map[DeclarationID][]DeclarationID)
}

func (s *Store) insert(d Declaration) DeclarationID {
	return DeclarationID(s.decls.Insert(d))
}

func (s *Store) InsertFunction(f Function) DeclarationID     { return s.insert(f) }
func (s *Store) InsertStruct(v Struct) DeclarationID         { return s.insert(v) }
func (s *Store) InsertEnum(v Enum) DeclarationID             { return s.insert(v) }
func (s *Store) InsertTrait(v Trait) DeclarationID           { return s.insert(v) }
func (s *Store) InsertTraitFn(v TraitFn) DeclarationID       { return s.insert(v) }
func (s *Store) InsertTraitImpl(v TraitImpl) DeclarationID   { return s.insert(v) }

// Get returns the raw declaration wrapper at id.
func (s *Store) Get(id DeclarationID) Declaration { return s.decls.Get(int(id)) }

// GetFunction type-asserts the wrapper at id, erroring if it holds a
// different kind.
func (s *Store) GetFunction(id DeclarationID) (Function, error) {
	if f, ok := s.Get(id).(Function); ok {
		return f, nil
	}
	return Function{}, diagnostics.WrongKind(diagnostics.PhaseInfer, "function", s.Get(id).Kind())
}

func (s *Store) GetStruct(id DeclarationID) (Struct, error) {
	if v, ok := s.Get(id).(Struct); ok {
		return v, nil
	}
	return Struct{}, diagnostics.WrongKind(diagnostics.PhaseInfer, "struct", s.Get(id).Kind())
}

func (s *Store) GetEnum(id DeclarationID) (Enum, error) {
	if v, ok := s.Get(id).(Enum); ok {
		return v, nil
	}
	return Enum{}, diagnostics.WrongKind(diagnostics.PhaseInfer, "enum", s.Get(id).Kind())
}

func (s *Store) GetTrait(id DeclarationID) (Trait, error) {
	if v, ok := s.Get(id).(Trait); ok {
		return v, nil
	}
	return Trait{}, diagnostics.WrongKind(diagnostics.PhaseInfer, "trait", s.Get(id).Kind())
}

func (s *Store) GetTraitFn(id DeclarationID) (TraitFn, error) {
	if v, ok := s.Get(id).(TraitFn); ok {
		return v, nil
	}
	return TraitFn{}, diagnostics.WrongKind(diagnostics.PhaseInfer, "trait_fn", s.Get(id).Kind())
}

func (s *Store) GetTraitImpl(id DeclarationID) (TraitImpl, error) {
	if v, ok := s.Get(id).(TraitImpl); ok {
		return v, nil
	}
	return TraitImpl{}, diagnostics.WrongKind(diagnostics.PhaseInfer, "trait_impl", s.Get(id).Kind())
}

// Replace overwrites the wrapper at id with next in place — used by the
// collector to turn a partially-built declaration into its fully typed
// form once the rest of the node has been walked. It is unconditional:
// the previous wrapper is not compared against anything.
func (s *Store) Replace(id DeclarationID, next Declaration) {
	s.decls.Replace(int(id), next)
}

// AddMonomorphizedCopy inserts value as a fresh declaration and records
// it under original's monomorphized-copies list, returning the new id.
func (s *Store) AddMonomorphizedCopy(original DeclarationID, value Declaration) DeclarationID {
	newID := s.insert(value)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mono[original] = append(s.mono[original], newID)
	return newID
}

// GetMonomorphizedCopies returns every copy recorded against original,
// in the order they were added.
func (s *Store) GetMonomorphizedCopies(original DeclarationID) []DeclarationID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DeclarationID, len(s.mono[original]))
	copy(out, s.mono[original])
	return out
}
