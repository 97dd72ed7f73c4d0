// Package graph is the collection graph (C4): a directed multigraph over
// typed-AST nodes whose labeled edges model scope nesting and sibling
// relationships, enabling forward/backward symbol lookup independent of
// source order. Grounded on
// original_source/de_cc/src/collection_context/{collection_context.rs,
// collection_node.rs,collection_edge.rs} and the BFS traversal in the
// "de_cc copy" variant's bfs.rs (the two prototype copies name the same
// traversal filter slightly differently). Sibling
// duplicate-name rejection in AddSharedScopeEdges is grounded on
// google-gapid/gapil/resolver/resolver.go's addType, which errors rather
// than letting a later declaration silently shadow an earlier one.
package graph

import (
	"golang.org/x/tools/container/intsets"

	"github.com/vela-lang/semantica/internal/declarations"
	"github.com/vela-lang/semantica/internal/diagnostics"
)

// NodeID is an opaque index into the graph's node slab.
type NodeID int

// EdgeLabel classifies a directed edge between two graph nodes.
type EdgeLabel int

const (
	// ApplicationContents points from the application root to each file.
	ApplicationContents EdgeLabel = iota
	// FileContents points from a file to each top-level AST node it contains.
	FileContents
	// ScopedChild points from a containing scope to a scope nested within it
	// (e.g. a function declaration node to its body's block scope).
	ScopedChild
	// SharedScope connects sibling nodes within one scope, both ways.
	SharedScope
)

// NodeKind tags what a graph node stands for. Declaration nodes are the
// only ones get_symbol ever matches against.
type NodeKind int

const (
	KindApplication NodeKind = iota
	KindFile
	KindNode
	KindDeclaration
)

// Node is one vertex of the collection graph.
type Node struct {
	Kind NodeKind
	// Declaration is populated only when Kind == KindDeclaration.
	Declaration declarations.DeclarationID
}

type edge struct {
	to    NodeID
	label EdgeLabel
}

// Graph is the collection graph. It is not safe for concurrent writers;
// the pipeline builds and queries it from a single goroutine, per the
// spec's single-threaded cooperative scheduling model.
type Graph struct {
	nodes []Node
	out   map[NodeID][]edge
}

// New returns an empty collection graph.
func New() *Graph {
	return &Graph{out: make(map[NodeID][]edge)}
}

// AddNode appends a new vertex and returns its id.
func (g *Graph) AddNode(n Node) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return id
}

// Node returns the vertex stored at id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// AddEdge adds a directed edge from -> to labeled label.
func (g *Graph) AddEdge(from, to NodeID, label EdgeLabel) {
	g.out[from] = append(g.out[from], edge{to: to, label: label})
}

// AddSharedScopeEdges wires a and b together bidirectionally, matching
// the collector's "every pair of siblings in a block" rule (§4.5.4). If
// both are declaration nodes claiming the same name, it reports a
// duplicate-declaration error instead of silently letting get_symbol's
// "first hit wins" BFS (§4.4) shadow one of them. A trait impl is named
// after the trait it implements and so never counts as a duplicate.
func (g *Graph) AddSharedScopeEdges(a, b NodeID, store *declarations.Store) error {
	na, nb := g.nodes[a], g.nodes[b]
	if na.Kind == KindDeclaration && nb.Kind == KindDeclaration && !isTraitImpl(store, na.Declaration) && !isTraitImpl(store, nb.Declaration) {
		if name := declName(store, na.Declaration); name != "" && name == declName(store, nb.Declaration) {
			return diagnostics.Duplicate(diagnostics.PhaseCollect, name)
		}
	}
	g.AddEdge(a, b, SharedScope)
	g.AddEdge(b, a, SharedScope)
	return nil
}

func isTraitImpl(store *declarations.Store, id declarations.DeclarationID) bool {
	_, ok := store.Get(id).(declarations.TraitImpl)
	return ok
}

// neighborsThrough returns the outgoing neighbors of id reachable
// through an edge labeled with one of allowed (if allowed is empty,
// every outgoing edge is followed).
func (g *Graph) neighborsThrough(id NodeID, allowed map[EdgeLabel]bool) []NodeID {
	var out []NodeID
	for _, e := range g.out[id] {
		if len(allowed) == 0 || allowed[e.label] {
			out = append(out, e.to)
		}
	}
	return out
}

// scopeTraversalEdges is the BFS edge filter from §4.4: SharedScope and
// ScopedChild go sideways/inward in scope and are followed;
// ApplicationContents and FileContents point outward to containment and
// are excluded, or get_symbol would escape the current scope entirely.
var scopeTraversalEdges = map[EdgeLabel]bool{
	SharedScope: true,
	ScopedChild: true,
}

// GetSymbol performs a BFS from start over SharedScope/ScopedChild edges
// looking for a declaration node whose name matches. The first match
// (in BFS order) wins, which is what lets mutually recursive
// definitions — forward or backward in the source — type-check.
func (g *Graph) GetSymbol(start NodeID, store *declarations.Store, name string) (declarations.DeclarationID, error) {
	var frontier intsets.Sparse
	frontier.Insert(int(start))
	queue := []NodeID{start}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		n := g.nodes[id]
		if n.Kind == KindDeclaration {
			if declName(store, n.Declaration) == name {
				return n.Declaration, nil
			}
		}

		for _, next := range g.neighborsThrough(id, scopeTraversalEdges) {
			if frontier.Insert(int(next)) {
				queue = append(queue, next)
			}
		}
	}
	return 0, diagnostics.Symbol(diagnostics.PhaseInfer, name)
}

func declName(store *declarations.Store, id declarations.DeclarationID) string {
	switch d := store.Get(id).(type) {
	case declarations.Function:
		return d.Name
	case declarations.Struct:
		return d.Name
	case declarations.Enum:
		return d.Name
	case declarations.Trait:
		return d.Name
	case declarations.TraitFn:
		return d.Name
	case declarations.TraitImpl:
		return d.TraitName
	default:
		return ""
	}
}
