// Package semantica is the semantic front end of the compiler: a
// process-wide type engine and declaration store, a collection graph, and
// the three-phase collect/infer/resolve pipeline that turns an untyped
// surface AST into a fully monomorphized, resolved application.
package semantica

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vela-lang/semantica/ast"
	"github.com/vela-lang/semantica/internal/config"
	"github.com/vela-lang/semantica/internal/declarations"
	"github.com/vela-lang/semantica/internal/diagnostics"
	"github.com/vela-lang/semantica/internal/graph"
	"github.com/vela-lang/semantica/internal/pipeline"
	"github.com/vela-lang/semantica/internal/typesystem"
	"github.com/vela-lang/semantica/resolved"
)

// Options re-exports the compile-time knobs a caller can set for a single
// Compile call.
type Options = config.Options

// Compile runs the full collect -> infer -> resolve pipeline over app.
// Every process-wide store (the type engine, the declaration store, the
// collection graph) is fresh per call: nothing survives across two
// Compile invocations, and nothing from one is visible to the next.
//
// A well-formed compilation never panics; an occurs-check positive, or
// any other condition the collect/infer/resolve phases treat as a
// compiler invariant violation, is raised as a diagnostics.Fatal panic
// deep in one of those phases and recovered here, where it is converted
// back into a returned error. An ordinary unification failure, including
// one during monomorphization, is returned as an error without a panic.
func Compile(app *ast.Application, opts Options) (out *resolved.Application, err error) {
	sessionID := uuid.New()

	defer func() {
		if r := recover(); r != nil {
			fatal, ok := r.(*diagnostics.Fatal)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("semantica: session %s: %w", sessionID, fatal)
		}
	}()

	ctx := &pipeline.Context{
		Engine:      typesystem.NewEngine(),
		Store:       declarations.NewStore(),
		Graph:       graph.New(),
		Options:     opts,
		Application: app,
	}

	result := pipeline.New(
		pipeline.CollectProcessor{},
		pipeline.InferProcessor{},
		pipeline.ResolveProcessor{},
	).Run(ctx)

	if result.Err != nil {
		return nil, fmt.Errorf("semantica: session %s: %w", sessionID, result.Err)
	}
	return result.Resolved, nil
}
