package declarations

import (
	"testing"

	"github.com/vela-lang/semantica/internal/typesystem"
)

func TestInsertAndGetFunction(t *testing.T) {
	s := NewStore()
	id := s.InsertFunction(Function{Name: "f"})
	got, err := s.GetFunction(id)
	if err != nil {
		t.Fatalf("GetFunction: %v", err)
	}
	if got.Name != "f" {
		t.Fatalf("Name = %q, want %q", got.Name, "f")
	}
}

func TestGetWrongKindErrors(t *testing.T) {
	s := NewStore()
	id := s.InsertStruct(Struct{Name: "S"})
	if _, err := s.GetFunction(id); err == nil {
		t.Fatal("expected a wrong-kind error extracting a struct as a function")
	}
}

func TestMonomorphizedCopiesAccumulate(t *testing.T) {
	s := NewStore()
	original := s.InsertFunction(Function{Name: "F", TypeParams: []typesystem.TypeParameter{{Name: "T"}}})
	c1 := s.AddMonomorphizedCopy(original, Function{Name: "F"})
	c2 := s.AddMonomorphizedCopy(original, Function{Name: "F"})
	copies := s.GetMonomorphizedCopies(original)
	if len(copies) != 2 || copies[0] != c1 || copies[1] != c2 {
		t.Fatalf("GetMonomorphizedCopies = %v, want [%v %v]", copies, c1, c2)
	}
}

func TestClearResetsStore(t *testing.T) {
	s := NewStore()
	original := s.InsertFunction(Function{Name: "F"})
	s.AddMonomorphizedCopy(original, Function{Name: "F"})
	s.Clear()
	if copies := s.GetMonomorphizedCopies(original); len(copies) != 0 {
		t.Fatalf("GetMonomorphizedCopies after Clear = %v, want empty", copies)
	}
}

func TestReplaceUpgradesInPlace(t *testing.T) {
	s := NewStore()
	id := s.InsertFunction(Function{Name: "partial"})
	s.Replace(id, Function{Name: "complete"})
	got, err := s.GetFunction(id)
	if err != nil {
		t.Fatalf("GetFunction: %v", err)
	}
	if got.Name != "complete" {
		t.Fatalf("Name = %q, want %q", got.Name, "complete")
	}
}
