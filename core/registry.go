package core

import (
	"context"
	"sync"

	"github.com/hupe1980/actionkit/internal/schema"
	"github.com/hupe1980/actionkit/logging"
)

// Metadata keys attached to actions defined through the generic Define
// helpers.
const (
	// MetadataInputSchema holds the inferred JSON schema of the input type.
	MetadataInputSchema = "inputSchema"
	// MetadataOutputSchema holds the inferred JSON schema of the output type.
	MetadataOutputSchema = "outputSchema"
)

// ResolverFunc lazily materializes an Action for a namespace-qualified name
// on first lookup. Returning (nil, nil) means the resolver cannot satisfy the
// name; the lookup then fails with *NotFoundError. Resolvers must be
// idempotent with respect to repeated lookups.
type ResolverFunc func(ctx context.Context, kind ActionKind, name string) (Action, error)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Logger receives registry diagnostics (defaults to NoOp).
	Logger logging.Logger
}

// Registry is the process-wide mapping from encoded action key to Action,
// plus per-namespace resolver callbacks supplied by plugins.
//
// The registry is created once per application instance, populated during
// plugin initialization and queried for the application's lifetime. Lookups
// are safe under concurrency without caller-side locking; registration is
// expected during single-threaded initialization but concurrent writes are
// mutually excluded and cannot corrupt the maps.
type Registry struct {
	mu           sync.RWMutex
	actions      map[string]Action
	resolvers    map[string]ResolverFunc
	defaultModel string

	logger logging.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Registry{
		actions:   make(map[string]Action),
		resolvers: make(map[string]ResolverFunc),
		logger:    opts.Logger,
	}
}

// Logger returns the registry's logger.
func (r *Registry) Logger() logging.Logger { return r.logger }

// RegisterAction inserts a under its encoded key and returns it. Registering
// a second action under an existing key replaces the prior binding (last
// writer wins); this is logged as unusual but deliberately not rejected.
func (r *Registry) RegisterAction(a Action) Action {
	key := a.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[key]; exists {
		r.logger.Warn("duplicate action registration, replacing prior binding", "key", key)
	}

	r.actions[key] = a

	return a
}

// LookupAction returns the action registered under (kind, name). On a miss
// it derives the plugin namespace from the name; if a resolver is bound for
// that namespace it is asked to materialize the action, which is then
// memoized into the map. With no entry and no satisfying resolver the lookup
// fails with *NotFoundError.
func (r *Registry) LookupAction(ctx context.Context, kind ActionKind, name string) (Action, error) {
	key := NewKey(kind, name)

	r.mu.RLock()
	a, ok := r.actions[key]
	r.mu.RUnlock()

	if ok {
		return a, nil
	}

	ns := PluginNamespace(name)
	if ns == "" {
		return nil, &NotFoundError{Kind: kind, Name: name}
	}

	r.mu.RLock()
	resolve, ok := r.resolvers[ns]
	r.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Kind: kind, Name: name}
	}

	// Resolver runs outside the lock; it may itself register actions.
	resolved, err := resolve(ctx, kind, name)
	if err != nil {
		return nil, err
	}

	if resolved == nil {
		return nil, &NotFoundError{Kind: kind, Name: name}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The resolver (or a concurrent lookup) may already have registered the
	// action; keep the registered binding so repeated lookups stay stable.
	if existing, ok := r.actions[key]; ok {
		return existing, nil
	}

	r.actions[key] = resolved

	return resolved, nil
}

// RegisterResolver binds a deferred-resolution callback for every lookup
// whose name carries the given namespace prefix. At most one resolver exists
// per namespace; re-registration replaces the prior one.
func (r *Registry) RegisterResolver(namespace string, fn ResolverFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resolvers[namespace]; exists {
		r.logger.Warn("duplicate resolver registration, replacing prior binding", "namespace", namespace)
	}

	r.resolvers[namespace] = fn
}

// ListActions returns a snapshot of all currently registered actions. Lazily
// resolvable actions that were never looked up are not included.
func (r *Registry) ListActions() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Action, 0, len(r.actions))
	for _, a := range r.actions {
		list = append(list, a)
	}

	return list
}

// SetDefaultModel stores a fallback model action name consumers may use when
// none is specified. The name is not validated here; validation happens at
// lookup time.
func (r *Registry) SetDefaultModel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultModel = name
}

// DefaultModel returns the configured fallback model name, or "".
func (r *Registry) DefaultModel() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultModel
}

// DefineStreamingAction constructs an action from a function in the full
// normalized shape, attaches inferred input/output schema metadata, registers
// it and returns the typed definition.
func DefineStreamingAction[In, Out any](r *Registry, kind ActionKind, name string, fn Func[In, Out], optFns ...func(o *ActionOptions)) *ActionDef[In, Out] {
	a := NewStreamingAction(kind, name, fn, withRegistryDefaults(r, optFns)...)
	attachSchemas[In, Out](a)
	r.RegisterAction(a)
	return a
}

// DefineAction constructs an action from a plain input-to-output function,
// attaches inferred schema metadata, registers it and returns the typed
// definition.
func DefineAction[In, Out any](r *Registry, kind ActionKind, name string, fn func(ctx context.Context, input In) (Out, error), optFns ...func(o *ActionOptions)) *ActionDef[In, Out] {
	a := NewAction(kind, name, fn, withRegistryDefaults(r, optFns)...)
	attachSchemas[In, Out](a)
	r.RegisterAction(a)
	return a
}

// DefineActionWithNoInput constructs and registers an action whose function
// takes no input.
func DefineActionWithNoInput[Out any](r *Registry, kind ActionKind, name string, fn func(ctx context.Context) (Out, error), optFns ...func(o *ActionOptions)) *ActionDef[struct{}, Out] {
	a := NewActionWithNoInput(kind, name, fn, withRegistryDefaults(r, optFns)...)
	attachSchemas[struct{}, Out](a)
	r.RegisterAction(a)
	return a
}

func withRegistryDefaults(r *Registry, optFns []func(o *ActionOptions)) []func(o *ActionOptions) {
	return append([]func(o *ActionOptions){func(o *ActionOptions) {
		o.Logger = r.logger
	}}, optFns...)
}

func attachSchemas[In, Out any](a *ActionDef[In, Out]) {
	if s := schema.For[In](); s != nil {
		a.SetMetadata(MetadataInputSchema, s)
	}
	if s := schema.For[Out](); s != nil {
		a.SetMetadata(MetadataOutputSchema, s)
	}
}
