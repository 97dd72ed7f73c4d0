package infer

import (
	"testing"

	"github.com/vela-lang/semantica/ast"
	"github.com/vela-lang/semantica/internal/collect"
	"github.com/vela-lang/semantica/internal/declarations"
	"github.com/vela-lang/semantica/internal/graph"
	"github.com/vela-lang/semantica/internal/typed"
	"github.com/vela-lang/semantica/internal/typesystem"
)

type fixture struct {
	engine *typesystem.Engine
	store  *declarations.Store
	graph  *graph.Graph
}

func newFixture() *fixture {
	return &fixture{engine: typesystem.NewEngine(), store: declarations.NewStore(), graph: graph.New()}
}

func (fx *fixture) collect(app *ast.Application) (*typed.Application, error) {
	return collect.New(fx.engine, fx.store, fx.graph).Collect(app)
}

func (fx *fixture) infer(ta *typed.Application) error {
	return New(fx.engine, fx.store, fx.graph).Run(ta)
}

func TestInferVariableUnifiesLiteralWithAscription(t *testing.T) {
	fx := newFixture()
	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(ast.NewVariable("x", ast.U8Ref(), ast.NewLiteral(typesystem.W8, 9))),
	}}}}
	ta, err := fx.collect(app)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if err := fx.infer(ta); err != nil {
		t.Fatalf("infer: %v", err)
	}
}

func TestInferVariableMismatchErrors(t *testing.T) {
	fx := newFixture()
	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(ast.NewVariable("x", ast.U8Ref(), ast.NewLiteral(typesystem.W64, 9))),
	}}}}
	ta, err := fx.collect(app)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if err := fx.infer(ta); err == nil {
		t.Fatal("expected a type mismatch between u8 ascription and u64 literal")
	}
}

func TestInferMutualRecursion(t *testing.T) {
	fx := newFixture()
	ping := ast.NewFunction("ping", nil,
		[]ast.Parameter{{Name: "n", Type: ast.U64Ref()}},
		[]ast.Node{ast.NewReturnNode(ast.NewFunctionApplication("pong", nil, []ast.Expression{ast.NewVariableRef("n")}))},
		ast.U64Ref())
	pong := ast.NewFunction("pong", nil,
		[]ast.Parameter{{Name: "n", Type: ast.U64Ref()}},
		[]ast.Node{ast.NewReturnNode(ast.NewFunctionApplication("ping", nil, []ast.Expression{ast.NewVariableRef("n")}))},
		ast.U64Ref())

	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(ping),
		ast.NewDeclarationNode(pong),
	}}}}
	ta, err := fx.collect(app)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if err := fx.infer(ta); err != nil {
		t.Fatalf("infer: %v", err)
	}
}

func TestInferGenericIdentityMonomorphizesPerCallSite(t *testing.T) {
	fx := newFixture()
	identity := ast.NewFunction("identity",
		[]ast.TypeParameter{{Name: "T"}},
		[]ast.Parameter{{Name: "x", Type: ast.GenericRef{Name: "T"}}},
		[]ast.Node{ast.NewReturnNode(ast.NewVariableRef("x"))},
		ast.GenericRef{Name: "T"})
	caller := ast.NewVariable("y", ast.U32Ref(), ast.NewFunctionApplication("identity", nil, []ast.Expression{ast.NewLiteral(typesystem.W32, 4)}))

	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(identity),
		ast.NewDeclarationNode(caller),
	}}}}
	ta, err := fx.collect(app)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if err := fx.infer(ta); err != nil {
		t.Fatalf("infer: %v", err)
	}

	fnDecl := ta.Files[0].Nodes[1].Declaration
	callExpr := fnDecl.Variable.Body.(*typed.FunctionApplication)
	if callExpr.MonomorphizedCopy == 0 {
		t.Fatal("expected a monomorphized copy to be registered for the identity call")
	}
	copyFn, err := fx.store.GetFunction(callExpr.MonomorphizedCopy)
	if err != nil {
		t.Fatalf("GetFunction on monomorphized copy: %v", err)
	}
	if _, err := fx.engine.Resolve(copyFn.ReturnType); err != nil {
		t.Fatalf("monomorphized copy's return type should resolve to u32: %v", err)
	}
}

func TestInferStructExpressionRejectsMismatchedFieldSet(t *testing.T) {
	fx := newFixture()
	point := ast.NewStruct("Point", nil, []ast.FieldDecl{
		{Name: "x", Type: ast.U32Ref()},
		{Name: "y", Type: ast.U32Ref()},
	})
	bad := ast.NewVariable("p", nil, ast.NewStructExpression("Point", nil, []ast.FieldValue{
		{Name: "x", Value: ast.NewLiteral(typesystem.W32, 1)},
	}))
	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(point),
		ast.NewDeclarationNode(bad),
	}}}}
	ta, err := fx.collect(app)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if err := fx.infer(ta); err == nil {
		t.Fatal("expected a field-set mismatch error for a struct expression missing field y")
	}
}

func TestInferTraitMethodCallResolves(t *testing.T) {
	fx := newFixture()
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
	instance := ast.NewVariable("d", ast.CustomRef{Name: "Data"}, ast.NewStructExpression("Data", nil, nil))
	call := ast.NewVariable("r", ast.U64Ref(), ast.NewMethodCall("d", "handle_u64_fn", []ast.Expression{ast.NewLiteral(typesystem.W64, 8)}))

	app := &ast.Application{Files: []ast.File{{Nodes: []ast.Node{
		ast.NewDeclarationNode(trait),
		ast.NewDeclarationNode(data),
		ast.NewDeclarationNode(impl),
		ast.NewDeclarationNode(instance),
		ast.NewDeclarationNode(call),
	}}}}
	ta, err := fx.collect(app)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if err := fx.infer(ta); err != nil {
		t.Fatalf("infer: %v", err)
	}
}
