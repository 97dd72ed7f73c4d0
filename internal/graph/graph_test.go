package graph

import (
	"testing"

	"github.com/vela-lang/semantica/internal/declarations"
)

func TestGetSymbolFindsSiblingDeclaration(t *testing.T) {
	store := declarations.NewStore()
	fnID := store.InsertFunction(declarations.Function{Name: "pong"})

	g := New()
	caller := g.AddNode(Node{Kind: KindNode})
	declNode := g.AddNode(Node{Kind: KindDeclaration, Declaration: fnID})
	if err := g.AddSharedScopeEdges(caller, declNode, store); err != nil {
		t.Fatalf("AddSharedScopeEdges: %v", err)
	}

	got, err := g.GetSymbol(caller, store, "pong")
	if err != nil {
		t.Fatalf("GetSymbol: %v", err)
	}
	if got != fnID {
		t.Fatalf("GetSymbol returned %v, want %v", got, fnID)
	}
}

func TestGetSymbolDoesNotFollowFileContents(t *testing.T) {
	store := declarations.NewStore()
	fnID := store.InsertFunction(declarations.Function{Name: "hidden"})

	g := New()
	file := g.AddNode(Node{Kind: KindFile})
	declNode := g.AddNode(Node{Kind: KindDeclaration, Declaration: fnID})
	g.AddEdge(file, declNode, FileContents)

	if _, err := g.GetSymbol(file, store, "hidden"); err == nil {
		t.Fatal("expected an unresolved-symbol error; FileContents must not be traversed")
	}
}

func TestGetSymbolUnresolved(t *testing.T) {
	store := declarations.NewStore()
	g := New()
	n := g.AddNode(Node{Kind: KindNode})
	if _, err := g.GetSymbol(n, store, "nope"); err == nil {
		t.Fatal("expected an unresolved-symbol error")
	}
}

func TestGetSymbolAcrossMutualRecursion(t *testing.T) {
	// ping and pong are siblings in one shared scope; GetSymbol from
	// either side must find the other regardless of insertion order.
	store := declarations.NewStore()
	pingID := store.InsertFunction(declarations.Function{Name: "ping"})
	pongID := store.InsertFunction(declarations.Function{Name: "pong"})

	g := New()
	pingNode := g.AddNode(Node{Kind: KindDeclaration, Declaration: pingID})
	pongNode := g.AddNode(Node{Kind: KindDeclaration, Declaration: pongID})
	if err := g.AddSharedScopeEdges(pingNode, pongNode, store); err != nil {
		t.Fatalf("AddSharedScopeEdges: %v", err)
	}

	if got, err := g.GetSymbol(pingNode, store, "pong"); err != nil || got != pongID {
		t.Fatalf("GetSymbol(ping->pong) = %v, %v", got, err)
	}
	if got, err := g.GetSymbol(pongNode, store, "ping"); err != nil || got != pingID {
		t.Fatalf("GetSymbol(pong->ping) = %v, %v", got, err)
	}
}

// Two sibling declarations claiming the same name must be rejected at
// collection time rather than letting GetSymbol's first-hit-wins BFS
// silently shadow one of them.
func TestAddSharedScopeEdgesRejectsDuplicateSiblingName(t *testing.T) {
	store := declarations.NewStore()
	firstID := store.InsertFunction(declarations.Function{Name: "dup"})
	secondID := store.InsertFunction(declarations.Function{Name: "dup"})

	g := New()
	first := g.AddNode(Node{Kind: KindDeclaration, Declaration: firstID})
	second := g.AddNode(Node{Kind: KindDeclaration, Declaration: secondID})

	if err := g.AddSharedScopeEdges(first, second, store); err == nil {
		t.Fatal("expected a duplicate-declaration error, got nil")
	}
}
