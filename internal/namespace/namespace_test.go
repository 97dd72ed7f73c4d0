package namespace

import (
	"testing"

	"github.com/vela-lang/semantica/internal/declarations"
	"github.com/vela-lang/semantica/internal/typesystem"
)

func TestScopedShadowsWithoutAffectingParent(t *testing.T) {
	parent := New()
	parent.InsertSymbol("x", typesystem.TypeID(1))

	child := parent.Scoped()
	child.InsertSymbol("x", typesystem.TypeID(2))

	got, err := parent.GetSymbol("x")
	if err != nil || got.ID != typesystem.TypeID(1) {
		t.Fatalf("parent x = %v, %v, want TypeID(1)", got, err)
	}
	got, err = child.GetSymbol("x")
	if err != nil || got.ID != typesystem.TypeID(2) {
		t.Fatalf("child x = %v, %v, want TypeID(2)", got, err)
	}
}

func TestGetSymbolUnboundErrors(t *testing.T) {
	n := New()
	if _, err := n.GetSymbol("nope"); err == nil {
		t.Fatal("expected an error for an unbound symbol")
	}
}

func TestRegisterAndGetMethod(t *testing.T) {
	store := declarations.NewStore()
	fnID := store.InsertTraitFn(declarations.TraitFn{Name: "handle_u64_fn"})

	n := New()
	recv := typesystem.TypeID(7)
	n.RegisterMethods(recv, "HandleU64", []declarations.DeclarationID{fnID})

	got, err := n.GetMethod(store, recv, "handle_u64_fn")
	if err != nil {
		t.Fatalf("GetMethod: %v", err)
	}
	if got != fnID {
		t.Fatalf("GetMethod = %v, want %v", got, fnID)
	}
}

func TestGetMethodNotRegisteredErrors(t *testing.T) {
	store := declarations.NewStore()
	n := New()
	if _, err := n.GetMethod(store, typesystem.TypeID(1), "whatever"); err == nil {
		t.Fatal("expected an error for an unregistered method")
	}
}

func TestScopedCopiesMethodRegistrations(t *testing.T) {
	store := declarations.NewStore()
	fnID := store.InsertTraitFn(declarations.TraitFn{Name: "m"})
	recv := typesystem.TypeID(3)

	parent := New()
	parent.RegisterMethods(recv, "T", []declarations.DeclarationID{fnID})
	child := parent.Scoped()

	if _, err := child.GetMethod(store, recv, "m"); err != nil {
		t.Fatalf("child should see parent's method registration: %v", err)
	}
}
