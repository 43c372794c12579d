// Package anthropic is the Anthropic plugin: it contributes Messages API
// backed model actions under the "anthropic" namespace, resolved lazily so
// any "anthropic/<model-id>" lookup materializes a working action without
// prior registration.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/actionkit/core"
	"github.com/hupe1980/actionkit/model"
)

// Namespace is the plugin namespace all Anthropic model actions live under.
const Namespace = "anthropic"

// Options configure the plugin. Generation parameters act as defaults and
// can be overridden per request.
type Options struct {
	// Models are eagerly defined at Init; any other model id resolves lazily.
	Models []string
	// Temperature is the default sampling temperature.
	Temperature float64
	// MaxTokens caps completion length (required by the Messages API).
	MaxTokens int64
	// APIKey overrides the environment-provided key.
	APIKey string
}

// Plugin implements plugin.Plugin for Anthropic.
type Plugin struct {
	client *anthropic.Client
	opts   Options
}

// New creates the plugin with a client configured from the options or the
// environment.
func New(optFns ...func(o *Options)) *Plugin {
	opts := applyOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Plugin{client: &client, opts: opts}
}

// NewFromClient creates the plugin from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Plugin {
	return &Plugin{client: client, opts: applyOptions(optFns)}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Models:      []string{string(anthropic.ModelClaude3_5Sonnet20241022)},
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

// Name returns the plugin namespace.
func (p *Plugin) Name() string { return Namespace }

// Init eagerly defines the configured models and binds a resolver so further
// "anthropic/…" model lookups materialize on first miss.
func (p *Plugin) Init(_ context.Context, r *core.Registry) error {
	for _, id := range p.opts.Models {
		p.define(r, id)
	}

	r.RegisterResolver(Namespace, func(_ context.Context, kind core.ActionKind, name string) (core.Action, error) {
		if kind != core.KindModel {
			return nil, nil
		}
		id := strings.TrimPrefix(name, Namespace+"/")
		return p.define(r, id), nil
	})

	return nil
}

func (p *Plugin) define(r *core.Registry, id string) core.Action {
	return model.Define(r, Namespace+"/"+id, p.generateFunc(id), func(o *core.ActionOptions) {
		o.Desc = "Anthropic messages model " + id
		o.Metadata = map[string]any{"provider": Namespace, "model": id}
	})
}

func (p *Plugin) generateFunc(id string) model.Func {
	return func(ctx context.Context, req *model.Request, rc *core.RunContext) (*model.Response, error) {
		params := p.buildParams(id, req)

		if rc.IsStreaming() {
			return p.generateStreaming(ctx, params, rc)
		}
		return p.generate(ctx, params)
	}
}

func (p *Plugin) buildParams(id string, req *model.Request) anthropic.MessageNewParams {
	temperature := p.opts.Temperature
	maxTokens := p.opts.MaxTokens

	if cfg := req.Config; cfg != nil {
		if cfg.Temperature != 0 {
			temperature = cfg.Temperature
		}
		if cfg.MaxTokens != 0 {
			maxTokens = cfg.MaxTokens
		}
	}

	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	for _, m := range req.Messages {
		switch m.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Text})
		case model.RoleModel:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(id),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
	}

	if len(system) > 0 {
		params.System = system
	}

	return params
}

func (p *Plugin) generate(ctx context.Context, params anthropic.MessageNewParams) (*model.Response, error) {
	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	return messageToResponse(resp), nil
}

func (p *Plugin) generateStreaming(ctx context.Context, params anthropic.MessageNewParams, rc *core.RunContext) (*model.Response, error) {
	stream := p.client.Messages.NewStreaming(ctx, params)

	message := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("anthropic stream accumulate: %w", err)
		}

		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if deltaVariant.Text != "" {
					if err := rc.SendChunk(&model.Chunk{Text: deltaVariant.Text}); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic streaming error: %w", err)
	}

	return messageToResponse(&message), nil
}

func messageToResponse(msg *anthropic.Message) *model.Response {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	finishReason := "stop"
	if msg.StopReason != "" {
		finishReason = string(msg.StopReason)
	}

	return &model.Response{
		Message:      model.Message{Role: model.RoleModel, Text: text.String()},
		FinishReason: finishReason,
		Usage: &model.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
			TotalTokens:  msg.Usage.InputTokens + msg.Usage.OutputTokens,
		},
	}
}
