// Package pipeline threads a single Compile call's state through the
// collect, infer, and resolve stages. It generalizes the teacher's
// processor/context pattern: each stage reads what the previous one left
// in the Context and leaves its own output (or an Err) for the next.
package pipeline

import (
	"github.com/vela-lang/semantica/ast"
	"github.com/vela-lang/semantica/internal/config"
	"github.com/vela-lang/semantica/internal/declarations"
	"github.com/vela-lang/semantica/internal/graph"
	"github.com/vela-lang/semantica/internal/typed"
	"github.com/vela-lang/semantica/internal/typesystem"
	"github.com/vela-lang/semantica/resolved"
)

// Context carries the process-wide stores for one Compile call plus the
// surface, typed, and resolved representations as each stage produces them.
type Context struct {
	Engine *typesystem.Engine
	Store  *declarations.Store
	Graph  *graph.Graph

	Options     config.Options
	Application *ast.Application
	Typed       *typed.Application
	Resolved    *resolved.Application
	Err         error
}

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline runs a fixed sequence of Processors over a Context.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline in order, stopping at the first stage that
// leaves an error. Unlike a language-server pipeline, which keeps running
// every stage to collect diagnostics from all of them at once, semantica
// has no error-recovery story: a failed stage leaves nothing sound for
// the next one to operate on.
func (p *Pipeline) Run(initialCtx *Context) *Context {
	ctx := initialCtx
	for _, processor := range p.processors {
		if ctx.Err != nil {
			break
		}
		ctx = processor.Process(ctx)
	}
	return ctx
}
