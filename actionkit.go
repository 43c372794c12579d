// Package actionkit provides a high-level façade over the core action
// runtime, enabling rapid construction of action-based applications. Most
// programs interact with this package by:
//  1. Creating an ActionKit via New() (optionally supplying plugins, a logger
//     and a default model)
//  2. Defining flows, tools and models with the generic Define* helpers
//  3. Invoking them directly via the returned typed definitions, or
//     dynamically through LookupAction / Generate
//
// The façade delegates all invocation semantics to the core package while
// keeping setup ergonomics concise. The defaults are safe for local
// development and testing; production deployments typically supply a
// structured logger and a tracing provider.
package actionkit

import (
	"context"
	"fmt"

	"github.com/hupe1980/actionkit/core"
	"github.com/hupe1980/actionkit/logging"
	"github.com/hupe1980/actionkit/plugin"
)

// Options configures an ActionKit instance.
type Options struct {
	// Plugins are initialized in order during New; each is handed the
	// registry and may contribute actions and resolvers.
	Plugins []plugin.Plugin

	// Logger receives runtime diagnostics (defaults to NoOp logger if nil).
	Logger logging.Logger

	// DefaultModel names the model action used when a consumer does not
	// specify one. Not validated until lookup time.
	DefaultModel string
}

// ActionKit is the high-level façade owning the registry and plugin set.
type ActionKit struct {
	reg  *core.Registry
	opts Options
}

// New creates an ActionKit, builds its registry and runs every plugin's Init.
// A plugin failure aborts construction.
func New(ctx context.Context, optFns ...func(o *Options)) (*ActionKit, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	reg := core.NewRegistry(func(o *core.RegistryOptions) {
		o.Logger = opts.Logger
	})

	if opts.DefaultModel != "" {
		reg.SetDefaultModel(opts.DefaultModel)
	}

	for _, p := range opts.Plugins {
		if err := p.Init(ctx, reg); err != nil {
			return nil, fmt.Errorf("init plugin %q: %w", p.Name(), err)
		}
	}

	return &ActionKit{reg: reg, opts: opts}, nil
}

// Registry exposes the underlying action registry for advanced use.
func (ak *ActionKit) Registry() *core.Registry { return ak.reg }

// LookupAction resolves a registered (or lazily resolvable) action by kind
// and name.
func (ak *ActionKit) LookupAction(ctx context.Context, kind core.ActionKind, name string) (core.Action, error) {
	return ak.reg.LookupAction(ctx, kind, name)
}

// DefineFlow registers a plain input-to-output function as a flow action.
func DefineFlow[In, Out any](ak *ActionKit, name string, fn func(ctx context.Context, input In) (Out, error)) *core.ActionDef[In, Out] {
	return core.DefineAction(ak.reg, core.KindFlow, name, fn, flowSpanMetadata(name))
}

// DefineStreamingFlow registers a flow whose body receives a RunContext and
// may emit chunks.
func DefineStreamingFlow[In, Out any](ak *ActionKit, name string, fn core.Func[In, Out]) *core.ActionDef[In, Out] {
	return core.DefineStreamingAction(ak.reg, core.KindFlow, name, fn, flowSpanMetadata(name))
}

// DefineTool registers a function as a tool action with a description shown
// to models.
func DefineTool[In, Out any](ak *ActionKit, name, desc string, fn func(ctx context.Context, input In) (Out, error)) *core.ActionDef[In, Out] {
	return core.DefineAction(ak.reg, core.KindTool, name, fn, func(o *core.ActionOptions) {
		o.Desc = desc
	})
}

// DefineModel registers a custom model implementation under name.
func DefineModel[In, Out any](ak *ActionKit, name string, fn core.Func[In, Out]) *core.ActionDef[In, Out] {
	return core.DefineStreamingAction(ak.reg, core.KindModel, name, fn)
}

func flowSpanMetadata(name string) func(o *core.ActionOptions) {
	return func(o *core.ActionOptions) {
		o.SpanMetadata = map[string]string{"actionkit.flow.name": name}
	}
}
