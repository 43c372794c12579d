package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actionkit/core"
	"github.com/hupe1980/actionkit/model"
)

func TestPluginInit_DefinesConfiguredModels(t *testing.T) {
	r := core.NewRegistry()

	p := New(func(o *Options) {
		o.Models = []string{"claude-sonnet-4-0"}
		o.APIKey = "test-key"
	})

	require.NoError(t, p.Init(context.Background(), r))

	a, err := r.LookupAction(context.Background(), core.KindModel, "anthropic/claude-sonnet-4-0")
	require.NoError(t, err)
	assert.Equal(t, Namespace, a.Metadata()["provider"])
}

func TestPluginResolver_MaterializesUnknownModels(t *testing.T) {
	r := core.NewRegistry()

	p := New(func(o *Options) {
		o.Models = nil
		o.APIKey = "test-key"
	})

	require.NoError(t, p.Init(context.Background(), r))

	a, err := r.LookupAction(context.Background(), core.KindModel, "anthropic/claude-opus-4-1")
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-1", a.Metadata()["model"])

	_, err = r.LookupAction(context.Background(), core.KindFlow, "anthropic/claude-opus-4-1")
	var nf *core.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestBuildParams(t *testing.T) {
	p := New(func(o *Options) {
		o.APIKey = "test-key"
	})

	req := &model.Request{
		Messages: []model.Message{
			{Role: model.RoleSystem, Text: "be brief"},
			{Role: model.RoleUser, Text: "hi"},
		},
		Config: &model.Config{MaxTokens: 256},
	}

	params := p.buildParams("claude-sonnet-4-0", req)

	assert.EqualValues(t, "claude-sonnet-4-0", params.Model)
	assert.Len(t, params.Messages, 1, "system turns become system blocks, not messages")
	assert.Len(t, params.System, 1)
	assert.EqualValues(t, 256, params.MaxTokens)
}
