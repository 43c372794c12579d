// Package plugin defines the contract between ActionKit and the packages
// that contribute actions to it. A plugin is handed the Registry during
// initialization and may register actions and namespace resolvers; the
// runtime imposes no ordering across plugins, but resolvers must be
// idempotent with respect to repeated lookups.
package plugin

import (
	"context"

	"github.com/hupe1980/actionkit/core"
)

// Plugin contributes actions and resolvers to a Registry during
// initialization.
type Plugin interface {
	// Name returns the plugin's namespace. Actions a plugin supplies are
	// conventionally named "<namespace>/<local-name>".
	Name() string

	// Init registers the plugin's actions and resolvers. It is called once,
	// during ActionKit construction.
	Init(ctx context.Context, r *core.Registry) error
}

// Func adapts a name and an init function into a Plugin, handy for tests and
// small inline plugins.
func Func(name string, init func(ctx context.Context, r *core.Registry) error) Plugin {
	return &funcPlugin{name: name, init: init}
}

type funcPlugin struct {
	name string
	init func(ctx context.Context, r *core.Registry) error
}

func (p *funcPlugin) Name() string { return p.name }

func (p *funcPlugin) Init(ctx context.Context, r *core.Registry) error { return p.init(ctx, r) }
