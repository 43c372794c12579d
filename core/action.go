package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hupe1980/actionkit/logging"
	"github.com/hupe1980/actionkit/tracing"
)

// Func is the normalized shape every wrapped function is reduced to at
// construction time: input plus a bound RunContext, returning the final
// output. Functions written with fewer parameters are adapted once, when the
// ActionDef is built, so the hot invocation path never inspects shapes.
type Func[In, Out any] func(ctx context.Context, input In, rc *RunContext) (Out, error)

// Action is the kind-erased view of an action held by the Registry and used
// by consumers that resolve actions dynamically (by key rather than by typed
// handle).
type Action interface {
	// Kind returns the closed category the action belongs to.
	Kind() ActionKind
	// Name returns the action's registered name (possibly namespace-qualified).
	Name() string
	// Key returns the canonical "/<kind>/<name>" registry key.
	Key() string
	// Desc returns the human-readable description, if any.
	Desc() string
	// Metadata returns the action's metadata mapping.
	Metadata() map[string]any
	// RunAny invokes the action with a dynamically typed input. Inputs that
	// do not match the action's declared input type fail with an
	// *InvalidArgumentError before the wrapped function runs.
	RunAny(ctx context.Context, input any, optFns ...func(o *RunOptions)) (*Response[any], error)
}

// Response wraps the value an action returned together with trace and timing
// metadata for the invocation.
type Response[Out any] struct {
	// Response is the value returned by the wrapped function.
	Response Out
	// TraceID identifies the tracing span of this invocation.
	TraceID string
	// Latency is the wall-clock duration of the invocation.
	Latency time.Duration
}

// ActionOptions configures construction of an ActionDef.
type ActionOptions struct {
	// Desc is an optional human-readable description.
	Desc string
	// Metadata is an arbitrary metadata mapping attached to the action.
	Metadata map[string]any
	// SpanMetadata is recorded as attributes on every invocation span.
	SpanMetadata map[string]string
	// Logger receives runtime diagnostics (defaults to NoOp).
	Logger logging.Logger
}

// RunOptions configures a single Run or Stream invocation.
type RunOptions struct {
	// Context is merged over any ambient context inherited from an enclosing
	// call; supplied keys win.
	Context map[string]any
	// OnChunk attaches a streaming consumer for incrementally produced
	// output. Leave nil for non-streaming invocation.
	OnChunk StreamCallback
}

// WithContextMap supplies ambient context values for one invocation.
func WithContextMap(m map[string]any) func(o *RunOptions) {
	return func(o *RunOptions) { o.Context = m }
}

// WithChunkCallback attaches a streaming consumer for one invocation.
func WithChunkCallback(cb StreamCallback) func(o *RunOptions) {
	return func(o *RunOptions) { o.OnChunk = cb }
}

// ActionDef is the concrete, typed implementation of Action. It pairs an
// immutable identity (kind, name) with exactly one wrapped callable,
// normalized to the Func shape.
type ActionDef[In, Out any] struct {
	kind         ActionKind
	name         string
	desc         string
	metadata     map[string]any
	spanMetadata map[string]string
	fn           Func[In, Out]

	*loggerAdapter
}

// NewStreamingAction wraps a function already in the full normalized shape
// (input plus RunContext). This is the constructor for action bodies that
// emit chunks or read ambient context.
func NewStreamingAction[In, Out any](kind ActionKind, name string, fn Func[In, Out], optFns ...func(o *ActionOptions)) *ActionDef[In, Out] {
	opts := ActionOptions{}

	for _, optFn := range optFns {
		optFn(&opts)
	}

	metadata := opts.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &ActionDef[In, Out]{
		kind:          kind,
		name:          name,
		desc:          opts.Desc,
		metadata:      metadata,
		spanMetadata:  opts.SpanMetadata,
		fn:            fn,
		loggerAdapter: newLoggerAdapter(opts.Logger),
	}
}

// NewAction wraps a plain input-to-output function. The RunContext parameter
// is adapted away once here, not on every call.
func NewAction[In, Out any](kind ActionKind, name string, fn func(ctx context.Context, input In) (Out, error), optFns ...func(o *ActionOptions)) *ActionDef[In, Out] {
	return NewStreamingAction(kind, name, func(ctx context.Context, input In, _ *RunContext) (Out, error) {
		return fn(ctx, input)
	}, optFns...)
}

// NewActionWithNoInput wraps a function that takes no input. Run supplies the
// zero input value for callers that invoke it uniformly.
func NewActionWithNoInput[Out any](kind ActionKind, name string, fn func(ctx context.Context) (Out, error), optFns ...func(o *ActionOptions)) *ActionDef[struct{}, Out] {
	return NewStreamingAction(kind, name, func(ctx context.Context, _ struct{}, _ *RunContext) (Out, error) {
		return fn(ctx)
	}, optFns...)
}

// Kind returns the action's kind.
func (a *ActionDef[In, Out]) Kind() ActionKind { return a.kind }

// Name returns the action's name.
func (a *ActionDef[In, Out]) Name() string { return a.name }

// Key returns the canonical registry key for the action.
func (a *ActionDef[In, Out]) Key() string { return NewKey(a.kind, a.name) }

// Desc returns the action's description.
func (a *ActionDef[In, Out]) Desc() string { return a.desc }

// Metadata returns the action's metadata mapping.
func (a *ActionDef[In, Out]) Metadata() map[string]any { return a.metadata }

// SetMetadata stores one metadata key. Intended for definition-time use;
// metadata is treated as immutable once the action is registered.
func (a *ActionDef[In, Out]) SetMetadata(key string, value any) { a.metadata[key] = value }

// Run invokes the wrapped function and blocks until it completes, returning
// the final result wrapper or an error.
//
// The invocation gets a fresh RunContext whose ambient mapping is the
// supplied context merged over any mapping inherited from an enclosing
// action, and whose chunk sink forwards to the OnChunk callback when one is
// attached (a no-op sink otherwise). Each invocation opens a tracing span;
// its trace id is attached to both the success response and any failure.
//
// Any failure escaping the body, including a panic, surfaces as an
// *ExecutionError wrapped exactly once at the innermost action boundary.
func (a *ActionDef[In, Out]) Run(ctx context.Context, input In, optFns ...func(o *RunOptions)) (_ *Response[Out], err error) {
	opts := RunOptions{}

	for _, optFn := range optFns {
		optFn(&opts)
	}

	ambient := mergeActionContext(ActionContext(ctx), opts.Context)
	if ambient != nil {
		ctx = WithActionContext(ctx, ambient)
	}

	ctx, span := tracing.Start(ctx, a.name, a.spanAttrs()...)
	defer span.End()

	traceID := tracing.TraceID(span)

	rc := NewRunContext(ctx, func(o *RunContextOptions) {
		o.Context = ambient
		o.OnChunk = opts.OnChunk
		o.Logger = a.Logger()
	})

	a.LogDebug("action invoked", "key", a.Key(), "trace_id", traceID, "streaming", rc.IsStreaming())

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("panic: %v", r)
			span.RecordError(perr)
			span.SetStatus(codes.Error, perr.Error())
			err = wrapExecutionError(a.name, traceID, perr)
		}
	}()

	out, err := a.fn(ctx, input, rc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, wrapExecutionError(a.name, traceID, err)
	}

	span.SetStatus(codes.Ok, "")

	return &Response[Out]{
		Response: out,
		TraceID:  traceID,
		Latency:  time.Since(start),
	}, nil
}

// RunAny implements the kind-erased Action interface. The input must be
// assignable to the action's declared input type (nil stands in for the zero
// value); mismatches fail with an *InvalidArgumentError before the wrapped
// function is invoked.
func (a *ActionDef[In, Out]) RunAny(ctx context.Context, input any, optFns ...func(o *RunOptions)) (*Response[any], error) {
	var in In

	if input != nil {
		typed, ok := input.(In)
		if !ok {
			return nil, &InvalidArgumentError{
				Action: a.name,
				Reason: fmt.Sprintf("input type %T does not match %T", input, in),
			}
		}
		in = typed
	}

	resp, err := a.Run(ctx, in, optFns...)
	if err != nil {
		return nil, err
	}

	return &Response[any]{
		Response: resp.Response,
		TraceID:  resp.TraceID,
		Latency:  resp.Latency,
	}, nil
}

// Stream starts the invocation and returns immediately with a handle for
// consuming chunks as they are produced plus the eventual final result.
//
// Chunks are delivered in exactly the order the body called SendChunk; the
// chunk channel is unbuffered, so each emission hands off directly to the
// consumer and the final result can never resolve before the last chunk was
// made available. Cancelling ctx stops the producer, so an abandoned consumer
// does not leak the producing goroutine.
func (a *ActionDef[In, Out]) Stream(ctx context.Context, input In, optFns ...func(o *RunOptions)) *StreamHandle[Out] {
	chunks := make(chan any)

	h := &StreamHandle[Out]{
		chunks: chunks,
		done:   make(chan struct{}),
	}

	sink := func(sctx context.Context, chunk any) error {
		select {
		case chunks <- chunk:
			return nil
		case <-sctx.Done():
			return sctx.Err()
		}
	}

	go func() {
		defer close(h.done)
		defer close(chunks)

		// A caller-supplied OnChunk is overridden: a streaming invocation has
		// exactly one consumer, the handle.
		h.resp, h.err = a.Run(ctx, input, append(optFns, WithChunkCallback(sink))...)
	}()

	return h
}

func (a *ActionDef[In, Out]) spanAttrs() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(a.spanMetadata)+2)
	attrs = append(attrs,
		attribute.String("actionkit.kind", string(a.kind)),
		attribute.String("actionkit.name", a.name),
	)

	for k, v := range a.spanMetadata {
		attrs = append(attrs, attribute.String(k, v))
	}

	return attrs
}

// StreamHandle is the consumer side of a streaming invocation: a single-pass
// chunk sequence plus the eventual final result.
type StreamHandle[Out any] struct {
	chunks <-chan any
	done   chan struct{}
	resp   *Response[Out]
	err    error
}

// Chunks returns the channel of emitted chunks. It is closed once the action
// body returns; iterate with range to consume every chunk in emission order.
func (h *StreamHandle[Out]) Chunks() <-chan any { return h.chunks }

// Wait blocks until the invocation completes and returns the same result Run
// would have produced, including a wrapped failure observed after partial
// chunks. Chunks already delivered remain valid either way.
func (h *StreamHandle[Out]) Wait(ctx context.Context) (*Response[Out], error) {
	select {
	case <-h.done:
		return h.resp, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
