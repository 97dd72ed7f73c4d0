package semantica

import (
	"testing"

	"github.com/vela-lang/semantica/ast"
	"github.com/vela-lang/semantica/internal/typesystem"
	"github.com/vela-lang/semantica/resolved"
)

// S1: a simple variable declaration compiles end to end.
func TestCompileVariableDecl(t *testing.T) {
	app := &ast.Application{Files: []ast.File{{Name: "main", Nodes: []ast.Node{
		ast.NewDeclarationNode(ast.NewVariable("x", ast.U8Ref(), ast.NewLiteral(typesystem.W8, 5))),
	}}}}
	out, err := Compile(app, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(out.Files) != 1 || len(out.Files[0].Nodes) != 1 {
		t.Fatalf("expected one file with one node, got %+v", out)
	}
}

// S3: a non-generic function whose body return type mismatches its
// declared return type fails the compile with a returned error, not a panic.
func TestCompileFunctionReturnMismatchFails(t *testing.T) {
	f := ast.NewFunction("F", nil,
		[]ast.Parameter{{Name: "p1", Type: ast.U32Ref()}},
		[]ast.Node{
			ast.NewDeclarationNode(ast.NewVariable("x", nil, ast.NewVariableRef("p1"))),
			ast.NewReturnNode(ast.NewVariableRef("x")),
		},
		ast.U64Ref())
	main := ast.NewFunction("main", nil, nil,
		[]ast.Node{ast.NewExpressionNode(ast.NewFunctionApplication("F", nil, []ast.Expression{ast.NewLiteral(typesystem.W32, 1)}))},
		nil)
	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(f),
		ast.NewDeclarationNode(main),
	}}}}
	if _, err := Compile(app, Options{}); err == nil {
		t.Fatal("expected a type mismatch error, got nil")
	}
}

// S4: a generic function applied at two distinct concrete types resolves
// to exactly two monomorphized copies, end to end through Compile.
func TestCompileGenericFunctionMonomorphizesPerCallSite(t *testing.T) {
	identity := ast.NewFunction("identity",
		[]ast.TypeParameter{{Name: "T"}},
		[]ast.Parameter{{Name: "p1", Type: ast.GenericRef{Name: "T"}}},
		[]ast.Node{
			ast.NewDeclarationNode(ast.NewVariable("x", ast.GenericRef{Name: "T"}, ast.NewVariableRef("p1"))),
			ast.NewReturnNode(ast.NewVariableRef("x")),
		},
		ast.GenericRef{Name: "T"})
	main := ast.NewFunction("main", nil, nil, []ast.Node{
		ast.NewDeclarationNode(ast.NewVariable("foo", nil, ast.NewFunctionApplication("identity", nil, []ast.Expression{ast.NewLiteral(typesystem.W32, 1)}))),
		ast.NewDeclarationNode(ast.NewVariable("bar", nil, ast.NewFunctionApplication("identity", nil, []ast.Expression{ast.NewLiteral(typesystem.W64, 1)}))),
	}, nil)
	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(identity),
		ast.NewDeclarationNode(main),
	}}}}
	out, err := Compile(app, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var copies int
	for _, n := range out.Files[0].Nodes {
		if fn, ok := n.Declaration.(resolved.Function); ok && fn.Name == "identity" {
			copies++
		}
	}
	if copies != 2 {
		t.Fatalf("expected exactly two monomorphized copies of identity, got %d", copies)
	}
}

// S5: a trait impl's method resolves a method call against a constructed
// value of the implementing type.
func TestCompileTraitMethodCallResolves(t *testing.T) {
	trait := ast.NewTrait("HandleU64", []ast.TraitFnSig{
		{Name: "handle_u64_fn", Parameters: []ast.Parameter{{Name: "n", Type: ast.U64Ref()}}, ReturnType: ast.U64Ref()},
	})
	data := ast.NewStruct("Data", nil, nil)
	impl := ast.NewTraitImpl("HandleU64", ast.CustomRef{Name: "Data"}, nil, []ast.Function{
		ast.NewFunction("handle_u64_fn", nil,
			[]ast.Parameter{{Name: "n", Type: ast.U64Ref()}},
			[]ast.Node{ast.NewReturnNode(ast.NewVariableRef("n"))},
			ast.U64Ref()),
	})
	main := ast.NewFunction("main", nil, nil, []ast.Node{
		ast.NewDeclarationNode(ast.NewVariable("d", nil, ast.NewStructExpression("Data", nil, nil))),
		ast.NewExpressionNode(ast.NewMethodCall("d", "handle_u64_fn", []ast.Expression{ast.NewLiteral(typesystem.W64, 8)})),
	}, nil)
	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(trait),
		ast.NewDeclarationNode(data),
		ast.NewDeclarationNode(impl),
		ast.NewDeclarationNode(main),
	}}}}
	if _, err := Compile(app, Options{}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
}

// S6: mutual recursion between two top-level functions, one calling the
// other, resolves via the collection graph's BFS regardless of
// declaration order.
func TestCompileMutualRecursion(t *testing.T) {
	ping := ast.NewFunction("ping", nil,
		[]ast.Parameter{{Name: "n", Type: ast.U64Ref()}},
		[]ast.Node{ast.NewReturnNode(ast.NewFunctionApplication("pong", nil, []ast.Expression{ast.NewVariableRef("n")}))},
		ast.U64Ref())
	pong := ast.NewFunction("pong", nil,
		[]ast.Parameter{{Name: "n", Type: ast.U64Ref()}},
		[]ast.Node{ast.NewReturnNode(ast.NewFunctionApplication("ping", nil, []ast.Expression{ast.NewVariableRef("n")}))},
		ast.U64Ref())
	main := ast.NewFunction("main", nil, nil,
		[]ast.Node{ast.NewExpressionNode(ast.NewFunctionApplication("pong", nil, []ast.Expression{ast.NewLiteral(typesystem.W64, 5)}))},
		nil)
	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(ping),
		ast.NewDeclarationNode(pong),
		ast.NewDeclarationNode(main),
	}}}}
	if _, err := Compile(app, Options{}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
}

// S7: two structs whose only field each is the other produce an infinite
// type. Compile must convert the resulting fatal panic into a returned
// error rather than letting it escape.
func TestCompileInfiniteTypeFailsWithoutPanicking(t *testing.T) {
	bob := ast.NewStruct("Bob", nil, []ast.FieldDecl{{Name: "alice", Type: ast.CustomRef{Name: "Alice"}}})
	alice := ast.NewStruct("Alice", nil, []ast.FieldDecl{{Name: "bob", Type: ast.CustomRef{Name: "Bob"}}})
	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(bob),
		ast.NewDeclarationNode(alice),
	}}}}

	_, err := Compile(app, Options{})
	if err == nil {
		t.Fatal("expected the mutually recursive structs to fail compilation")
	}
}

// Every process-wide store is fresh per call: compiling two unrelated
// applications back to back must not let the second see the first's
// declarations.
func TestCompileIsolatesSuccessiveRuns(t *testing.T) {
	first := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(ast.NewVariable("x", ast.U8Ref(), ast.NewLiteral(typesystem.W8, 1))),
	}}}}
	if _, err := Compile(first, Options{}); err != nil {
		t.Fatalf("Compile(first): %v", err)
	}

	// second references a name ("x") that does not exist in its own
	// application; it must fail to resolve rather than seeing the first
	// compile's leftover state.
	second := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewExpressionNode(ast.NewFunctionApplication("x", nil, nil)),
	}}}}
	if _, err := Compile(second, Options{}); err == nil {
		t.Fatal("expected an unresolved-symbol error, got nil")
	}
}

// Setting a finite MaxErrors must not break an ordinary compile where no
// monomorphized copy is ever dropped. The MaxErrors-triggered abort path
// itself needs a resolve that actually produces unresolvable copies,
// which this end-to-end surface has no way to construct (every call site
// Compile can build from an ast.Application resolves cleanly or fails
// earlier, in infer); that path is covered directly against
// internal/resolve in TestResolveMaxErrorsAbortsAfterTooManyDroppedCopies.
func TestCompileMaxErrorsSetDoesNotBreakOrdinaryCompile(t *testing.T) {
	identity := ast.NewFunction("identity",
		[]ast.TypeParameter{{Name: "T"}},
		[]ast.Parameter{{Name: "p1", Type: ast.GenericRef{Name: "T"}}},
		[]ast.Node{ast.NewReturnNode(ast.NewVariableRef("p1"))},
		ast.GenericRef{Name: "T"})
	main := ast.NewFunction("main", nil, nil, []ast.Node{
		ast.NewDeclarationNode(ast.NewVariable("foo", nil, ast.NewFunctionApplication("identity", nil, []ast.Expression{ast.NewLiteral(typesystem.W32, 1)}))),
	}, nil)
	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(identity),
		ast.NewDeclarationNode(main),
	}}}}
	if _, err := Compile(app, Options{MaxErrors: 1}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
}
