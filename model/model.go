// Package model defines the normalized request/response types for generative
// model actions and a thin veneer for defining and invoking them through the
// registry. It is deliberately a client of the core runtime: multi-turn
// orchestration and tool-calling loops live outside it.
package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/actionkit/core"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleSystem carries instructions for the model.
	RoleSystem Role = "system"
	// RoleUser carries end-user input.
	RoleUser Role = "user"
	// RoleModel carries model output.
	RoleModel Role = "model"
)

// Message is one turn of normalized conversation content.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Config carries provider-agnostic generation parameters.
type Config struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int64   `json:"maxTokens,omitempty"`
}

// Request is the normalized input of a model action.
type Request struct {
	Messages []Message `json:"messages"`
	Config   *Config   `json:"config,omitempty"`
}

// Usage captures token accounting reported by a provider.
type Usage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

// Response is the final output of a model action.
type Response struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finishReason,omitempty"`
	Usage        *Usage  `json:"usage,omitempty"`
}

// Chunk is one incremental unit of streamed model output, emitted through
// the invocation's RunContext before the final Response.
type Chunk struct {
	Text string `json:"text"`
}

// Func is the function shape a model implementation provides.
type Func = core.Func[*Request, *Response]

// Define registers fn as a model action under name and returns the typed
// definition.
func Define(r *core.Registry, name string, fn Func, optFns ...func(o *core.ActionOptions)) *core.ActionDef[*Request, *Response] {
	return core.DefineStreamingAction(r, core.KindModel, name, fn, optFns...)
}

// Generate resolves the model action for name (falling back to the
// registry's default model when name is empty) and runs it. Streaming
// consumers attach a chunk callback through the usual run options.
func Generate(ctx context.Context, r *core.Registry, name string, req *Request, optFns ...func(o *core.RunOptions)) (*Response, error) {
	if name == "" {
		name = r.DefaultModel()
	}

	if name == "" {
		return nil, &core.InvalidArgumentError{
			Action: "generate",
			Reason: "no model name given and no default model configured",
		}
	}

	a, err := r.LookupAction(ctx, core.KindModel, name)
	if err != nil {
		return nil, err
	}

	resp, err := a.RunAny(ctx, req, optFns...)
	if err != nil {
		return nil, err
	}

	out, ok := resp.Response.(*Response)
	if !ok {
		return nil, &core.InvalidArgumentError{
			Action: name,
			Reason: fmt.Sprintf("action registered under model kind returned %T, not *model.Response", resp.Response),
		}
	}

	return out, nil
}
