package typesystem

import (
	"testing"

	"github.com/vela-lang/semantica/internal/diagnostics"
)

func TestLookUpRoundTrips(t *testing.T) {
	e := NewEngine()
	id := e.Insert(UnsignedInteger{Width: W8})
	got := e.LookUp(id)
	if got != (UnsignedInteger{Width: W8}) {
		t.Fatalf("LookUp = %v, want UnsignedInteger(u8)", got)
	}
}

func TestUnifyUnknownBecomesRef(t *testing.T) {
	e := NewEngine()
	unknown := e.Insert(Unknown{})
	concrete := e.Insert(UnsignedInteger{Width: W32})
	if err := e.Unify(unknown, concrete); err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if got := e.LookUp(unknown); got != (UnsignedInteger{Width: W32}) {
		t.Fatalf("LookUp(unknown) after unify = %v, want u32", got)
	}
}

func TestUnifyMismatchedWidths(t *testing.T) {
	e := NewEngine()
	a := e.Insert(UnsignedInteger{Width: W8})
	b := e.Insert(UnsignedInteger{Width: W64})
	err := e.Unify(a, b)
	if err == nil {
		t.Fatal("expected a type mismatch error")
	}
	if _, ok := err.(*TypeMismatchError); !ok {
		t.Fatalf("got %T, want *TypeMismatchError", err)
	}
}

func TestUnifyIsOrderIndependent(t *testing.T) {
	e1 := NewEngine()
	a := e1.Insert(Unknown{})
	b := e1.Insert(UnsignedInteger{Width: W16})
	if err := e1.Unify(a, b); err != nil {
		t.Fatalf("Unify(a,b): %v", err)
	}
	ra, _ := e1.Resolve(a)
	rb, _ := e1.Resolve(b)
	if ra.String() != rb.String() {
		t.Fatalf("resolve(a)=%v resolve(b)=%v, want equal", ra, rb)
	}

	e2 := NewEngine()
	c := e2.Insert(Unknown{})
	d := e2.Insert(UnsignedInteger{Width: W16})
	if err := e2.Unify(d, c); err != nil {
		t.Fatalf("Unify(b,a): %v", err)
	}
	rc, _ := e2.Resolve(c)
	rd, _ := e2.Resolve(d)
	if rc.String() != rd.String() {
		t.Fatalf("resolve(a)=%v resolve(b)=%v, want equal", rc, rd)
	}
}

func TestOccursCheckPanicsOnSelfReference(t *testing.T) {
	e := NewEngine()
	a := e.Insert(Unknown{})
	// Build a struct field that points back at a to force a cycle.
	e.types.Replace(int(a), Struct{Name: "Cyclic", Fields: []Field{{Name: "self", ID: a}}})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic from occurs-check")
		}
		if _, ok := r.(*diagnostics.Fatal); !ok {
			t.Fatalf("panic value is %T, want *diagnostics.Fatal", r)
		}
	}()
	b := e.Insert(Unknown{})
	_ = e.Unify(a, b)
}

func TestResolveFailsOnUnknown(t *testing.T) {
	e := NewEngine()
	id := e.Insert(Unknown{})
	if _, err := e.Resolve(id); err == nil {
		t.Fatal("expected resolution failure on an unresolved Unknown")
	}
}

func TestMonomorphizeNoParamsNoArgsIsNoop(t *testing.T) {
	e := NewEngine()
	fn := &fakeMonomorphizable{}
	if err := e.Monomorphize(diagnostics.PhaseInfer, fn, nil); err != nil {
		t.Fatalf("Monomorphize: %v", err)
	}
	if fn.copyCalls != 0 {
		t.Fatalf("CopyTypes called %d times, want 0", fn.copyCalls)
	}
}

func TestMonomorphizeArityMismatch(t *testing.T) {
	e := NewEngine()
	paramID := e.Insert(UnknownGeneric{Name: "T"})
	fn := &fakeMonomorphizable{params: []TypeParameter{{Name: "T", ID: paramID}}}
	arg1 := e.Insert(UnsignedInteger{Width: W8})
	arg2 := e.Insert(UnsignedInteger{Width: W16})
	err := e.Monomorphize(diagnostics.PhaseInfer, fn, []TypeID{arg1, arg2})
	if err == nil {
		t.Fatal("expected an arity error")
	}
}

type fakeMonomorphizable struct {
	params    []TypeParameter
	copyCalls int
}

func (f *fakeMonomorphizable) TypeParameters() []TypeParameter { return f.params }
func (f *fakeMonomorphizable) CopyTypes(e *Engine, mapping TypeMapping) {
	f.copyCalls++
}
