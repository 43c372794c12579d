package core

import (
	"context"
	"maps"

	"github.com/hupe1980/actionkit/logging"
)

// StreamCallback receives one chunk of incrementally produced output. A
// callback may return an error (for example when the consumer has gone away);
// the producing action sees that error from SendChunk and should stop.
type StreamCallback func(ctx context.Context, chunk any) error

type actionContextKey struct{}

// WithActionContext returns a derived context.Context carrying m as the
// ambient action context map. Every action invoked below this point observes
// m unless it installs its own map.
func WithActionContext(ctx context.Context, m map[string]any) context.Context {
	return context.WithValue(ctx, actionContextKey{}, m)
}

// ActionContext returns the ambient action context map carried by ctx, or nil
// when the call site is not running under an action that installed one.
//
// Because the map rides on context.Context, propagation is scoped to a single
// call tree: concurrently outstanding invocations with different maps can
// never observe each other's values, no matter how their goroutines
// interleave.
func ActionContext(ctx context.Context) map[string]any {
	m, _ := ctx.Value(actionContextKey{}).(map[string]any)
	return m
}

// mergeActionContext merges supplied over inherited. When supplied is empty
// the inherited map is returned unchanged (not copied) so that nested calls
// observe the very same mapping their caller received.
func mergeActionContext(inherited, supplied map[string]any) map[string]any {
	if len(supplied) == 0 {
		return inherited
	}

	merged := make(map[string]any, len(inherited)+len(supplied))
	maps.Copy(merged, inherited)
	maps.Copy(merged, supplied)

	return merged
}

// RunContext carries the per-invocation ambient state handed to an action
// body: the context map visible to the whole call tree and the chunk-emission
// capability. It is constructed fresh for every invocation, exclusively owned
// by that in-flight call, and discarded when the call returns.
type RunContext struct {
	// Context is the ambient key/value mapping for the current call tree.
	// Its values are semantically opaque to the runtime.
	Context map[string]any

	ctx     context.Context
	onChunk StreamCallback

	*loggerAdapter
}

// RunContextOptions configures construction of a RunContext.
type RunContextOptions struct {
	// Context seeds the ambient mapping (defaults to an empty map).
	Context map[string]any
	// OnChunk, when set, attaches a streaming consumer.
	OnChunk StreamCallback
	// Logger backs the embedded logging helpers (defaults to NoOp).
	Logger logging.Logger
}

// NewRunContext constructs a RunContext bound to ctx. Construction is always
// explicit so that defaulting stays auditable: an omitted context map becomes
// an empty map and an omitted chunk callback yields a no-op sink.
func NewRunContext(ctx context.Context, optFns ...func(o *RunContextOptions)) *RunContext {
	opts := RunContextOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	m := opts.Context
	if m == nil {
		m = map[string]any{}
	}

	return &RunContext{
		Context:       m,
		ctx:           ctx,
		onChunk:       opts.OnChunk,
		loggerAdapter: newLoggerAdapter(opts.Logger),
	}
}

// IsStreaming reports whether a streaming consumer is attached.
func (rc *RunContext) IsStreaming() bool { return rc.onChunk != nil }

// SendChunk delivers one chunk of incremental output to the attached
// consumer. With no consumer attached it is a well-defined no-op that never
// fails, so action bodies can emit unconditionally without first checking
// IsStreaming.
func (rc *RunContext) SendChunk(chunk any) error {
	if rc.onChunk == nil {
		return nil
	}
	return rc.onChunk(rc.ctx, chunk)
}

// Value looks up a single key in the ambient context mapping.
func (rc *RunContext) Value(key string) (any, bool) {
	v, ok := rc.Context[key]
	return v, ok
}
