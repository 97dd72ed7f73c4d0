// Package collect implements the type collector (C5): the untyped-AST
// to typed-AST transformation described in the design's §4.5. It never
// unifies anything — it interns every TypeInfo the input carries,
// registers every declaration in the declaration store (C3), and wires
// the collection graph (C4) so the inference engine can later answer
// "what declarations are visible from here" with a single BFS.
//
// Grounded on original_source/de_cc/src/semantic_analysis/{node_collection,
// graph_collection,parsed_to_ty}, the three collaborating passes the
// reference implementation splits collection across; this package folds
// them into one pass, matching how a from-scratch Go port would do it.
package collect

import (
	"github.com/vela-lang/semantica/ast"
	"github.com/vela-lang/semantica/internal/declarations"
	"github.com/vela-lang/semantica/internal/diagnostics"
	"github.com/vela-lang/semantica/internal/graph"
	"github.com/vela-lang/semantica/internal/typed"
	"github.com/vela-lang/semantica/internal/typesystem"
)

// Collector walks an ast.Application and builds its typed.Application,
// populating the engine, declaration store, and collection graph as it goes.
type Collector struct {
	Engine *typesystem.Engine
	Store  *declarations.Store
	Graph  *graph.Graph
}

// New returns a collector writing into the given shared components.
func New(engine *typesystem.Engine, store *declarations.Store, g *graph.Graph) *Collector {
	return &Collector{Engine: engine, Store: store, Graph: g}
}

// Collect runs the collector over app.
func (c *Collector) Collect(app *ast.Application) (*typed.Application, error) {
	root := c.Graph.AddNode(graph.Node{Kind: graph.KindApplication})

	out := &typed.Application{}
	for _, f := range app.Files {
		fileNode := c.Graph.AddNode(graph.Node{Kind: graph.KindFile})
		c.Graph.AddEdge(root, fileNode, graph.ApplicationContents)

		tf := typed.File{Name: f.Name, Scope: fileNode}
		var siblings []graph.NodeID
		for _, n := range f.Nodes {
			tn, nodeID, err := c.collectNode(n, fileNode, nil)
			if err != nil {
				return nil, err
			}
			c.Graph.AddEdge(fileNode, nodeID, graph.FileContents)
			siblings = append(siblings, nodeID)
			tf.Nodes = append(tf.Nodes, tn)
		}
		if err := linkSiblings(c.Graph, c.Store, siblings); err != nil {
			return nil, err
		}
		out.Files = append(out.Files, tf)
	}
	return out, nil
}

// linkSiblings wires every pair of block-level nodes together with a
// SharedScope edge both ways (§4.5 point 4). Two sibling declarations
// claiming the same name is a collection-time error (see
// graph.AddSharedScopeEdges).
func linkSiblings(g *graph.Graph, store *declarations.Store, nodes []graph.NodeID) error {
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if err := g.AddSharedScopeEdges(nodes[i], nodes[j], store); err != nil {
				return err
			}
		}
	}
	return nil
}

// collectBlock collects a nested block (a function body), linking its
// nodes to each other and bridging them back to containingScope so a
// BFS started inside the block can still reach sibling declarations in
// the scope that contains it (this is what lets mutually recursive
// top-level functions see each other from inside their own bodies).
func (c *Collector) collectBlock(nodes []ast.Node, containingScope graph.NodeID, generics map[string]typesystem.TypeID) ([]typed.Node, error) {
	var tnodes []typed.Node
	var siblings []graph.NodeID
	for _, n := range nodes {
		tn, nodeID, err := c.collectNode(n, containingScope, generics)
		if err != nil {
			return nil, err
		}
		c.Graph.AddEdge(containingScope, nodeID, graph.ScopedChild)
		if err := c.Graph.AddSharedScopeEdges(containingScope, nodeID, c.Store); err != nil {
			return nil, err
		}
		siblings = append(siblings, nodeID)
		tnodes = append(tnodes, tn)
	}
	if err := linkSiblings(c.Graph, c.Store, siblings); err != nil {
		return nil, err
	}
	return tnodes, nil
}

func (c *Collector) collectNode(n ast.Node, scope graph.NodeID, generics map[string]typesystem.TypeID) (typed.Node, graph.NodeID, error) {
	switch {
	case n.Declaration != nil:
		declNode, td, err := c.collectDeclaration(n.Declaration, generics)
		if err != nil {
			return typed.Node{}, 0, err
		}
		return typed.Node{Declaration: td, Scope: declNode}, declNode, nil
	case n.Expression != nil:
		te, err := c.collectExpression(n.Expression, generics)
		if err != nil {
			return typed.Node{}, 0, err
		}
		nodeID := c.Graph.AddNode(graph.Node{Kind: graph.KindNode})
		return typed.Node{Expression: te, Scope: nodeID}, nodeID, nil
	case n.Return != nil:
		te, err := c.collectExpression(n.Return, generics)
		if err != nil {
			return typed.Node{}, 0, err
		}
		nodeID := c.Graph.AddNode(graph.Node{Kind: graph.KindNode})
		return typed.Node{Return: te, Scope: nodeID}, nodeID, nil
	case n.StarImport != "":
		nodeID := c.Graph.AddNode(graph.Node{Kind: graph.KindNode})
		return typed.Node{StarImport: n.StarImport, Scope: nodeID}, nodeID, nil
	default:
		nodeID := c.Graph.AddNode(graph.Node{Kind: graph.KindNode})
		return typed.Node{Scope: nodeID}, nodeID, nil
	}
}

func (c *Collector) collectDeclaration(d ast.Declaration, outerGenerics map[string]typesystem.TypeID) (graph.NodeID, *typed.Declaration, error) {
	switch decl := d.(type) {
	case ast.Variable:
		ascriptionID, err := c.typeRefToID(decl.Ascription, outerGenerics)
		if err != nil {
			return 0, nil, err
		}
		body, err := c.collectExpression(decl.Body, outerGenerics)
		if err != nil {
			return 0, nil, err
		}
		node := c.Graph.AddNode(graph.Node{Kind: graph.KindNode})
		return node, &typed.Declaration{
			Kind:     typed.KindVariable,
			Variable: &typed.VariableDeclaration{Name: decl.Name, Ascription: ascriptionID, Body: body},
		}, nil

	case ast.Function:
		node, fnID, err := c.collectFunction(decl, outerGenerics)
		if err != nil {
			return 0, nil, err
		}
		return node, &typed.Declaration{Kind: typed.KindFunction, Function: fnID}, nil

	case ast.Struct:
		tps, generics := c.internGenerics(decl.TypeParameters)
		fields, err := c.collectFields(decl.Fields, generics)
		if err != nil {
			return 0, nil, err
		}
		structID := c.Store.InsertStruct(declarations.Struct{Name: decl.Name, TypeParams: tps, Fields: fields})
		node := c.Graph.AddNode(graph.Node{Kind: graph.KindDeclaration, Declaration: structID})
		return node, &typed.Declaration{Kind: typed.KindStruct, Struct: structID}, nil

	case ast.Enum:
		tps, generics := c.internGenerics(decl.TypeParameters)
		variants, err := c.collectFields(decl.Variants, generics)
		if err != nil {
			return 0, nil, err
		}
		enumID := c.Store.InsertEnum(declarations.Enum{Name: decl.Name, TypeParams: tps, Variants: variants})
		node := c.Graph.AddNode(graph.Node{Kind: graph.KindDeclaration, Declaration: enumID})
		return node, &typed.Declaration{Kind: typed.KindEnum, Enum: enumID}, nil

	case ast.TraitDecl:
		var fnIDs []declarations.DeclarationID
		for _, sig := range decl.InterfaceSurface {
			params, err := c.collectParameters(sig.Parameters, nil)
			if err != nil {
				return 0, nil, err
			}
			retID, err := c.typeRefToID(sig.ReturnType, nil)
			if err != nil {
				return 0, nil, err
			}
			fnIDs = append(fnIDs, c.Store.InsertTraitFn(declarations.TraitFn{Name: sig.Name, Parameters: params, ReturnType: retID}))
		}
		traitID := c.Store.InsertTrait(declarations.Trait{Name: decl.Name, InterfaceSurface: fnIDs})
		node := c.Graph.AddNode(graph.Node{Kind: graph.KindDeclaration, Declaration: traitID})
		return node, &typed.Declaration{Kind: typed.KindTrait, Trait: traitID}, nil

	case ast.TraitImpl:
		_, generics := c.internGenerics(decl.TypeParameters)
		implTypeID, err := c.typeRefToID(decl.TypeImplementingFor, generics)
		if err != nil {
			return 0, nil, err
		}
		var methodIDs []declarations.DeclarationID
		var methodNodes []graph.NodeID
		for _, m := range decl.Methods {
			mNode, mID, err := c.collectFunction(m, generics)
			if err != nil {
				return 0, nil, err
			}
			methodIDs = append(methodIDs, mID)
			methodNodes = append(methodNodes, mNode)
		}
		implID := c.Store.InsertTraitImpl(declarations.TraitImpl{
			TraitName:           decl.TraitName,
			TypeImplementingFor: implTypeID,
			Methods:             methodIDs,
		})
		node := c.Graph.AddNode(graph.Node{Kind: graph.KindDeclaration, Declaration: implID})
		for _, mn := range methodNodes {
			c.Graph.AddEdge(node, mn, graph.ScopedChild)
			if err := c.Graph.AddSharedScopeEdges(node, mn, c.Store); err != nil {
				return 0, nil, err
			}
		}
		return node, &typed.Declaration{Kind: typed.KindTraitImpl, TraitImpl: implID}, nil

	default:
		return 0, nil, diagnostics.New(diagnostics.PhaseCollect, diagnostics.InternalError, "unknown declaration variant %T", d)
	}
}

// collectFunction interns a function declaration (top-level or a trait
// impl method) and collects its body in a child scope, merging any
// outer generics (from an enclosing trait impl) with its own.
func (c *Collector) collectFunction(fn ast.Function, outerGenerics map[string]typesystem.TypeID) (graph.NodeID, declarations.DeclarationID, error) {
	tps, ownGenerics := c.internGenerics(fn.TypeParameters)
	generics := mergeGenerics(outerGenerics, ownGenerics)

	params, err := c.collectParameters(fn.Parameters, generics)
	if err != nil {
		return 0, 0, err
	}
	retID, err := c.typeRefToID(fn.ReturnType, generics)
	if err != nil {
		return 0, 0, err
	}

	fnID := c.Store.InsertFunction(declarations.Function{
		Name:       fn.Name,
		TypeParams: tps,
		Parameters: params,
		ReturnType: retID,
	})
	node := c.Graph.AddNode(graph.Node{Kind: graph.KindDeclaration, Declaration: fnID})

	body, err := c.collectBlock(fn.Body, node, generics)
	if err != nil {
		return 0, 0, err
	}
	f, err := c.Store.GetFunction(fnID)
	if err != nil {
		return 0, 0, err
	}
	f.Body = body
	c.Store.Replace(fnID, f)

	return node, fnID, nil
}

func mergeGenerics(outer, own map[string]typesystem.TypeID) map[string]typesystem.TypeID {
	if len(outer) == 0 {
		return own
	}
	merged := make(map[string]typesystem.TypeID, len(outer)+len(own))
	for k, v := range outer {
		merged[k] = v
	}
	for k, v := range own {
		merged[k] = v
	}
	return merged
}

// internGenerics interns a fresh UnknownGeneric TypeInfo for each
// declared type parameter (§4.5 point 3), returning both the
// typesystem.TypeParameter list a declaration stores and a name -> id
// lookup table for resolving the rest of the declaration's annotations.
func (c *Collector) internGenerics(params []ast.TypeParameter) ([]typesystem.TypeParameter, map[string]typesystem.TypeID) {
	if len(params) == 0 {
		return nil, nil
	}
	tps := make([]typesystem.TypeParameter, len(params))
	ids := make(map[string]typesystem.TypeID, len(params))
	for i, p := range params {
		id := c.Engine.Insert(typesystem.TGen(p.Name))
		ids[p.Name] = id
		tps[i] = typesystem.TypeParameter{Name: p.Name, ID: id, TraitConstraint: p.TraitConstraint}
	}
	return tps, ids
}

func (c *Collector) collectParameters(params []ast.Parameter, generics map[string]typesystem.TypeID) ([]declarations.Parameter, error) {
	out := make([]declarations.Parameter, len(params))
	for i, p := range params {
		id, err := c.typeRefToID(p.Type, generics)
		if err != nil {
			return nil, err
		}
		out[i] = declarations.Parameter{Name: p.Name, ID: id}
	}
	return out, nil
}

func (c *Collector) collectFields(fields []ast.FieldDecl, generics map[string]typesystem.TypeID) ([]typesystem.Field, error) {
	out := make([]typesystem.Field, len(fields))
	for i, f := range fields {
		id, err := c.typeRefToID(f.Type, generics)
		if err != nil {
			return nil, err
		}
		out[i] = typesystem.Field{Name: f.Name, ID: id}
	}
	return out, nil
}

// typeRefToID interns a surface-level TypeRef, resolving a generic
// reference against the current declaration's name table. A nil ref
// (no explicit ascription) interns as Unknown, for inference to pin down.
func (c *Collector) typeRefToID(ref ast.TypeRef, generics map[string]typesystem.TypeID) (typesystem.TypeID, error) {
	switch r := ref.(type) {
	case nil:
		return c.Engine.Insert(typesystem.Unknown{}), nil
	case ast.UnitRef:
		return c.Engine.Insert(typesystem.Unit{}), nil
	case ast.UnsignedIntRef:
		return c.Engine.Insert(typesystem.UnsignedInteger{Width: r.Width}), nil
	case ast.GenericRef:
		if id, ok := generics[r.Name]; ok {
			return id, nil
		}
		return 0, diagnostics.Symbol(diagnostics.PhaseCollect, r.Name)
	case ast.CustomRef:
		args := make([]typesystem.TypeID, len(r.TypeArguments))
		for i, a := range r.TypeArguments {
			id, err := c.typeRefToID(a, generics)
			if err != nil {
				return 0, err
			}
			args[i] = id
		}
		return c.Engine.Insert(typesystem.TCustom(r.Name, args)), nil
	default:
		return 0, diagnostics.New(diagnostics.PhaseCollect, diagnostics.InternalError, "unknown type reference %T", ref)
	}
}

func (c *Collector) collectExpression(e ast.Expression, generics map[string]typesystem.TypeID) (typed.Expression, error) {
	switch expr := e.(type) {
	case ast.Literal:
		return &typed.Literal{Width: expr.Width, Value: expr.Value, ID: c.Engine.Insert(typesystem.UnsignedInteger{Width: expr.Width})}, nil

	case ast.VariableRef:
		return &typed.Variable{Name: expr.Name, ID: c.Engine.Insert(typesystem.Unknown{})}, nil

	case ast.FunctionApplication:
		typeArgs, err := c.typeRefsToIDs(expr.TypeArguments, generics)
		if err != nil {
			return nil, err
		}
		args, err := c.collectExpressions(expr.Arguments, generics)
		if err != nil {
			return nil, err
		}
		return &typed.FunctionApplication{Name: expr.Name, TypeArguments: typeArgs, Arguments: args, ID: c.Engine.Insert(typesystem.Unknown{})}, nil

	case ast.MethodCall:
		args, err := c.collectExpressions(expr.Arguments, generics)
		if err != nil {
			return nil, err
		}
		return &typed.MethodCall{ReceiverName: expr.Receiver, MethodName: expr.Method, Arguments: args, ID: c.Engine.Insert(typesystem.Unknown{})}, nil

	case ast.StructExpression:
		typeArgs, err := c.typeRefsToIDs(expr.TypeArguments, generics)
		if err != nil {
			return nil, err
		}
		fields := make([]typed.FieldValue, len(expr.Fields))
		for i, fv := range expr.Fields {
			v, err := c.collectExpression(fv.Value, generics)
			if err != nil {
				return nil, err
			}
			fields[i] = typed.FieldValue{Name: fv.Name, Value: v}
		}
		return &typed.StructExpression{Name: expr.Name, TypeArguments: typeArgs, Fields: fields, ID: c.Engine.Insert(typesystem.Unknown{})}, nil

	case ast.EnumExpression:
		var value typed.Expression
		if expr.Value != nil {
			v, err := c.collectExpression(expr.Value, generics)
			if err != nil {
				return nil, err
			}
			value = v
		}
		return &typed.EnumExpression{Name: expr.Name, Variant: expr.Variant, Value: value, ID: c.Engine.Insert(typesystem.Unknown{})}, nil

	default:
		return nil, diagnostics.New(diagnostics.PhaseCollect, diagnostics.InternalError, "unknown expression variant %T", e)
	}
}

func (c *Collector) collectExpressions(exprs []ast.Expression, generics map[string]typesystem.TypeID) ([]typed.Expression, error) {
	out := make([]typed.Expression, len(exprs))
	for i, e := range exprs {
		te, err := c.collectExpression(e, generics)
		if err != nil {
			return nil, err
		}
		out[i] = te
	}
	return out, nil
}

func (c *Collector) typeRefsToIDs(refs []ast.TypeRef, generics map[string]typesystem.TypeID) ([]typesystem.TypeID, error) {
	out := make([]typesystem.TypeID, len(refs))
	for i, r := range refs {
		id, err := c.typeRefToID(r, generics)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
