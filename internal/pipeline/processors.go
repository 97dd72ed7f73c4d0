package pipeline

import (
	"github.com/vela-lang/semantica/internal/collect"
	"github.com/vela-lang/semantica/internal/infer"
	"github.com/vela-lang/semantica/internal/resolve"
)

// CollectProcessor runs C5: type collection.
type CollectProcessor struct{}

func (CollectProcessor) Process(ctx *Context) *Context {
	ta, err := collect.New(ctx.Engine, ctx.Store, ctx.Graph).Collect(ctx.Application)
	if err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Typed = ta
	return ctx
}

// InferProcessor runs C6: inference and monomorphization. It mutates the
// typed application produced by CollectProcessor in place.
type InferProcessor struct{}

func (InferProcessor) Process(ctx *Context) *Context {
	if err := infer.New(ctx.Engine, ctx.Store, ctx.Graph).Run(ctx.Typed); err != nil {
		ctx.Err = err
		return ctx
	}
	return ctx
}

// ResolveProcessor runs C7: lowering the typed application to its resolved form.
type ResolveProcessor struct{}

func (ResolveProcessor) Process(ctx *Context) *Context {
	r := resolve.New(ctx.Engine, ctx.Store)
	r.MaxErrors = ctx.Options.MaxErrors
	out, err := r.Resolve(ctx.Typed)
	if err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Resolved = out
	return ctx
}
