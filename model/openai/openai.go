// Package openai is the OpenAI plugin: it contributes Chat Completions
// backed model actions under the "openai" namespace, resolved lazily so any
// "openai/<model-id>" lookup materializes a working action without prior
// registration.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/hupe1980/actionkit/core"
	"github.com/hupe1980/actionkit/model"
)

// Namespace is the plugin namespace all OpenAI model actions live under.
const Namespace = "openai"

// Options configure the plugin. Generation parameters act as defaults and
// can be overridden per request.
type Options struct {
	// Models are eagerly defined at Init; any other model id resolves lazily.
	Models []string
	// Temperature is the default sampling temperature.
	Temperature float64
	// MaxCompletionTokens caps completion length.
	MaxCompletionTokens int64
}

// Plugin implements plugin.Plugin for OpenAI.
type Plugin struct {
	client *openai.Client
	opts   Options
}

// New creates the plugin with a client configured from the environment.
func New(optFns ...func(o *Options)) *Plugin {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates the plugin from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Plugin {
	opts := Options{
		Models:              []string{openai.ChatModelGPT4oMini},
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Plugin{client: client, opts: opts}
}

// Name returns the plugin namespace.
func (p *Plugin) Name() string { return Namespace }

// Init eagerly defines the configured models and binds a resolver so further
// "openai/…" model lookups materialize on first miss.
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
		o.Desc = "OpenAI chat completion model " + id
		o.Metadata = map[string]any{"provider": Namespace, "model": id}
	})
}

// generateFunc adapts one model id to the normalized model.Func shape.
// Streaming invocations forward text deltas through the RunContext.
func (p *Plugin) generateFunc(id string) model.Func {
	return func(ctx context.Context, req *model.Request, rc *core.RunContext) (*model.Response, error) {
		params := p.buildParams(id, req)

		if rc.IsStreaming() {
			return p.generateStreaming(ctx, params, rc)
		}
		return p.generate(ctx, params)
	}
}

func (p *Plugin) buildParams(id string, req *model.Request) openai.ChatCompletionNewParams {
	temperature := p.opts.Temperature
	maxTokens := p.opts.MaxCompletionTokens

	if cfg := req.Config; cfg != nil {
		if cfg.Temperature != 0 {
			temperature = cfg.Temperature
		}
		if cfg.MaxTokens != 0 {
			maxTokens = cfg.MaxTokens
		}
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case model.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Text))
		case model.RoleModel:
			messages = append(messages, openai.AssistantMessage(m.Text))
		default:
			messages = append(messages, openai.UserMessage(m.Text))
		}
	}

	return openai.ChatCompletionNewParams{
		Model:               id,
		Messages:            messages,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
}

func (p *Plugin) generate(ctx context.Context, params openai.ChatCompletionNewParams) (*model.Response, error) {
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned no choices")
	}

	choice := resp.Choices[0]

	return &model.Response{
		Message:      model.Message{Role: model.RoleModel, Text: choice.Message.Content},
		FinishReason: choice.FinishReason,
		Usage: &model.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *Plugin) generateStreaming(ctx context.Context, params openai.ChatCompletionNewParams, rc *core.RunContext) (*model.Response, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	var text strings.Builder
	finishReason := ""

	for stream.Next() {
		ck := stream.Current()
		for _, choice := range ck.Choices {
			if delta := choice.Delta.Content; delta != "" {
				text.WriteString(delta)
				if err := rc.SendChunk(&model.Chunk{Text: delta}); err != nil {
					return nil, err
				}
			}
			if choice.FinishReason != "" {
				finishReason = choice.FinishReason
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai streaming error: %w", err)
	}

	return &model.Response{
		Message:      model.Message{Role: model.RoleModel, Text: text.String()},
		FinishReason: finishReason,
	}, nil
}
